package wsrpc

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	evbus "github.com/asaskevich/EventBus"
)

const protocolVersion = "2.0"

// Config — параметры клиента.
type Config struct {
	URL       string `json:"url"`
	Insecure  bool   `json:"insecure"`  // не проверять TLS-сертификат (самоподписанный сервер)
	Keepalive bool   `json:"keepalive"` // ws-ping каждые 10s
}

// request — исходящий конверт.
type request struct {
	Version string         `json:"protocolVersion"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
	ID      uint64         `json:"id"`
}

// Client — JSON-RPC клиент поверх WebSocket: переписка запрос/ответ по
// correlation id, discovery методов через inspectApi, маршрутизация
// потоковых кадров подписчикам.
type Client struct {
	conn *Conn

	id      uint64 // correlation id, только atomic
	mu      sync.Mutex
	pending map[uint64]*Chain

	mmu     sync.RWMutex
	methods map[string]MethodDescriptor // write-once по имени

	amu   sync.Mutex
	token string // _auth, выставляется воркфлоу авторизации
	sid   string // id текущей сессии

	bus evbus.Bus

	// "События" (колбэки поля структуры)
	OnConnecting   func()
	OnConnected    func()
	OnDisconnected func()
	OnError        func(error)
}

func New(cfg Config) *Client {
	c := &Client{
		conn:    newConn(cfg.URL, cfg.Insecure, cfg.Keepalive),
		pending: make(map[uint64]*Chain),
		methods: make(map[string]MethodDescriptor),
		bus:     evbus.New(),
	}
	c.conn.OnFrame(c.handleFrame)
	c.conn.onDown = c.connDown
	return c
}

// Connect — открывает сокет и выполняет discovery. После возврата без ошибки
// клиент готов: все обнаруженные методы доступны через Invoke и цепочки.
func (c *Client) Connect(ctx context.Context) error {
	if c.OnConnecting != nil {
		c.OnConnecting()
	}
	if err := c.conn.Open(ctx); err != nil {
		return err
	}
	if c.OnConnected != nil {
		c.OnConnected()
	}
	return c.discover(ctx)
}

// Close — закрывает сокет; все ожидающие вызовы отклоняются с
// ErrConnectionClosed, read loop к моменту возврата завершён.
func (c *Client) Close() error {
	err := c.conn.Close()
	c.failPending(ErrConnectionClosed)
	return err
}

// Call — отправляет запрос как есть, без проверки параметров, и возвращает
// отложенный результат. Для вызова по описанию из discovery см. Invoke.
func (c *Client) Call(method string, params map[string]any) *Chain {
	ch := newChain(c)
	if params == nil {
		params = map[string]any{}
	}
	id := atomic.AddUint64(&c.id, 1)
	data, err := json.Marshal(request{
		Version: protocolVersion,
		Method:  method,
		Params:  params,
		ID:      id,
	})
	if err != nil {
		ch.reject(err)
		return ch
	}

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.conn.Send(data); err != nil {
		// сеть упала между подготовкой и записью — подчищаем запись
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		ch.reject(err)
	}
	return ch
}

// SetToken — сохранить токен авторизации; далее он подставляется в _auth
// каждого auth-метода, если вызывающий не передал свой.
func (c *Client) SetToken(token string) {
	c.amu.Lock()
	c.token = token
	c.amu.Unlock()
}

func (c *Client) Token() string {
	c.amu.Lock()
	defer c.amu.Unlock()
	return c.token
}

// SetSessionID / SessionID — id сессии, созданной воркфлоу.
func (c *Client) SetSessionID(sid string) {
	c.amu.Lock()
	c.sid = sid
	c.amu.Unlock()
}

func (c *Client) SessionID() string {
	c.amu.Lock()
	defer c.amu.Unlock()
	return c.sid
}

// connDown — read loop завершился: отклоняем всё ожидающее.
func (c *Client) connDown(err error) {
	if err != nil && c.OnError != nil {
		c.OnError(err)
	}
	c.failPending(ErrConnectionClosed)
	if c.OnDisconnected != nil {
		c.OnDisconnected()
	}
}

// failPending — отклонить все ожидающие вызовы; каждый ровно один раз.
func (c *Client) failPending(err error) {
	c.mu.Lock()
	pend := c.pending
	c.pending = make(map[uint64]*Chain)
	c.mu.Unlock()
	for _, ch := range pend {
		ch.reject(err)
	}
}
