package wsrpc

import (
	"encoding/json"
	"log"
)

// ========================= классификация кадров =========================

// handleFrame — входящий кадр: есть id → ответ на вызов; есть sessionId без
// id → данные подписки; иначе кадр не распознан. Любой мусор логируется и
// отбрасывается, для клиента это не фатально.
func (c *Client) handleFrame(data []byte) {
	var frame map[string]json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil {
		log.Printf("wsrpc: drop unparseable frame: %v", err)
		if c.OnError != nil {
			c.OnError(err)
		}
		return
	}

	if rawID, ok := frame["id"]; ok {
		c.handleResponse(rawID, frame)
		return
	}
	if _, ok := frame["sessionId"]; ok {
		c.routeStream(frame)
		return
	}
	log.Printf("wsrpc: drop unrecognized frame: %s", data)
}

func (c *Client) handleResponse(rawID json.RawMessage, frame map[string]json.RawMessage) {
	var id uint64
	if err := json.Unmarshal(rawID, &id); err != nil {
		log.Printf("wsrpc: drop response with bad id %s: %v", rawID, err)
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()
	if !ok {
		log.Printf("wsrpc: drop response for unknown id %d", id)
		return
	}

	if raw, ok := frame["error"]; ok {
		rpcErr := &RPCError{}
		if err := json.Unmarshal(raw, rpcErr); err != nil {
			ch.reject(&MalformedResponseError{ID: id})
			return
		}
		ch.reject(rpcErr)
		return
	}
	if raw, ok := frame["result"]; ok {
		ch.resolve(raw)
		return
	}
	ch.reject(&MalformedResponseError{ID: id})
}
