package wsrpc

import (
	"encoding/json"
	"log"
)

// ========================= потоковые данные =========================

// StreamEvent — одно событие подписки: кадр без id, но с sessionId.
// Живёт только в рамках доставки, нигде не сохраняется.
type StreamEvent struct {
	Stream    string
	SessionID string
	Time      float64
	Data      json.RawMessage            // массив значений потока
	Frame     map[string]json.RawMessage // полный кадр
}

// служебные ключи кадра, потоками не считаются
var reservedStreamKeys = map[string]bool{
	"sessionId": true,
	"timestamp": true,
}

// Subscribe — подписка на события потока по точному имени. Подписываться
// можно и после того, как данные уже идут.
func (c *Client) Subscribe(stream string, fn func(*StreamEvent)) error {
	return c.bus.Subscribe(stream, fn)
}

// Unsubscribe — снять ранее зарегистрированный обработчик.
func (c *Client) Unsubscribe(stream string, fn func(*StreamEvent)) error {
	return c.bus.Unsubscribe(stream, fn)
}

// routeStream — каждый незарезервированный ключ кадра с массивом в значении
// публикуется как событие с именем этого ключа. Отсутствие подписчика не
// ошибка: поток мог прийти раньше подписки.
func (c *Client) routeStream(frame map[string]json.RawMessage) {
	var sid string
	if raw, ok := frame["sessionId"]; ok {
		_ = json.Unmarshal(raw, &sid)
	}
	var ts float64
	if raw, ok := frame["timestamp"]; ok {
		_ = json.Unmarshal(raw, &ts)
	}

	for key, raw := range frame {
		if reservedStreamKeys[key] || !isJSONArray(raw) {
			continue
		}
		if !c.bus.HasCallback(key) {
			log.Printf("wsrpc: no subscriber for stream %q", key)
			continue
		}
		c.bus.Publish(key, &StreamEvent{
			Stream:    key,
			SessionID: sid,
			Time:      ts,
			Data:      raw,
			Frame:     frame,
		})
	}
}

func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return b == '['
		}
	}
	return false
}
