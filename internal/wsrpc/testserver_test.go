package wsrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// testServer — ws-сервер для тестов: один коннект, json-кадры, inspectApi
// отвечает сам по заданным дескрипторам, остальное уходит в handle.
type testServer struct {
	t   *testing.T
	srv *httptest.Server

	mu   sync.Mutex
	ws   *websocket.Conn
	wsMu sync.Mutex // запись из горутин теста и читающей горутины
	seen []seenReq

	descs  []MethodDescriptor
	handle func(s *testServer, req seenReq)
}

type seenReq struct {
	Method string
	ID     uint64
	Params map[string]any
}

func newTestServer(t *testing.T, descs []MethodDescriptor, handle func(*testServer, seenReq)) *testServer {
	s := &testServer{t: t, descs: descs, handle: handle}
	up := websocket.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		s.mu.Lock()
		s.ws = ws
		s.mu.Unlock()

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			var req struct {
				Version string         `json:"protocolVersion"`
				Method  string         `json:"method"`
				Params  map[string]any `json:"params"`
				ID      uint64         `json:"id"`
			}
			if err := json.Unmarshal(data, &req); err != nil {
				t.Errorf("bad request frame %s: %v", data, err)
				continue
			}
			sr := seenReq{Method: req.Method, ID: req.ID, Params: req.Params}
			s.mu.Lock()
			s.seen = append(s.seen, sr)
			s.mu.Unlock()

			if req.Method == inspectMethod {
				s.reply(req.ID, s.descs)
				continue
			}
			if s.handle != nil {
				s.handle(s, sr)
			} else {
				s.reply(sr.ID, map[string]any{})
			}
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *testServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *testServer) send(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.t.Error(err)
		return
	}
	s.sendRaw(b)
}

func (s *testServer) sendRaw(b []byte) {
	s.mu.Lock()
	ws := s.ws
	s.mu.Unlock()
	if ws == nil {
		s.t.Error("sendRaw: no connection")
		return
	}
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
		s.t.Logf("sendRaw: %v", err)
	}
}

func (s *testServer) reply(id uint64, result any) {
	s.send(map[string]any{"id": id, "result": result})
}

func (s *testServer) replyErr(id uint64, code int, msg string) {
	s.send(map[string]any{
		"id":    id,
		"error": map[string]any{"code": code, "message": msg},
	})
}

func (s *testServer) methodsSeen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.seen))
	for _, r := range s.seen {
		out = append(out, r.Method)
	}
	return out
}

func (s *testServer) lastParams(method string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.seen) - 1; i >= 0; i-- {
		if s.seen[i].Method == method {
			return s.seen[i].Params
		}
	}
	return nil
}

// dial — клиент, подключённый к тестовому серверу, с прошедшим discovery.
func dial(t *testing.T, s *testServer) *Client {
	t.Helper()
	c := New(Config{URL: s.url()})
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}
