package wsrpc

import (
	"context"
	"crypto/tls"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ========================= transport =========================

// Conn — владеет одним WebSocket-сокетом: открытие, запись, приём кадров,
// закрытие. Жизненный цикл: Connecting → Open → Closed, без реконнекта.
type Conn struct {
	url       string
	insecure  bool // отключить проверку TLS-сертификата только для этого соединения
	keepalive bool

	ws     *websocket.Conn
	wmu    sync.Mutex // сериализует запись в websocket
	closed atomic.Bool

	onFrame func([]byte)
	onDown  func(err error) // вызывается один раз при завершении read loop

	pingMu   sync.Mutex
	pingStop chan struct{}
	readDone chan struct{}
}

func newConn(url string, insecure, keepalive bool) *Conn {
	c := &Conn{url: url, insecure: insecure, keepalive: keepalive}
	c.closed.Store(true) // до Open соединения нет
	return c
}

// OnFrame — единственный обработчик входящих кадров; задать до Open.
func (c *Conn) OnFrame(h func([]byte)) { c.onFrame = h }

// Open — устанавливает WebSocket и запускает read loop.
func (c *Conn) Open(ctx context.Context) error {
	d := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: c.insecure},
	}
	ws, _, err := d.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	ws.SetReadLimit(64 << 20)
	c.ws = ws
	c.closed.Store(false)

	if c.keepalive {
		_ = ws.SetReadDeadline(time.Now().Add(30 * time.Second))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(30 * time.Second))
		})
		c.startPing(ws)
	}

	c.readDone = make(chan struct{})
	go c.readLoop()
	return nil
}

func (c *Conn) readLoop() {
	defer close(c.readDone)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			deliberate := c.closed.Swap(true)
			c.stopPing()
			_ = c.ws.Close()
			if c.onDown != nil {
				if deliberate {
					c.onDown(nil)
				} else {
					c.onDown(err)
				}
			}
			return
		}
		if c.onFrame != nil {
			c.onFrame(data)
		}
	}
}

// Send — пишет текстовый кадр. После закрытия возвращает ErrConnectionClosed
// сразу, без тихой потери кадра.
func (c *Conn) Send(data []byte) error {
	if c.ws == nil || c.closed.Load() {
		return ErrConnectionClosed
	}
	// запись строго через один мьютекс + write-deadline
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close — инициирует закрытие и возвращается, когда read loop завершён.
// Повторный вызов безопасен.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.stopPing()
	if c.ws != nil {
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"),
			time.Now().Add(500*time.Millisecond))
		_ = c.ws.Close()
	}
	if c.readDone != nil {
		<-c.readDone
	}
	return nil
}

func (c *Conn) startPing(ws *websocket.Conn) {
	c.stopPing() // на всякий
	c.pingMu.Lock()
	c.pingStop = make(chan struct{})
	stop := c.pingStop
	c.pingMu.Unlock()

	go func() {
		t := time.NewTicker(10 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				c.wmu.Lock()
				_ = ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
				err := ws.WriteMessage(websocket.PingMessage, nil)
				c.wmu.Unlock()
				if err != nil {
					return
				}
			case <-stop:
				return
			}
		}
	}()
}

func (c *Conn) stopPing() {
	c.pingMu.Lock()
	defer c.pingMu.Unlock()
	if c.pingStop != nil {
		close(c.pingStop)
		c.pingStop = nil
	}
}
