// Package cortex — рабочий процесс авторизации поверх wsrpc: подключение,
// discovery, единственная пользовательская сессия, получение токена.
package cortex

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"

	"example.com/brainhook/internal/wsrpc"
)

// Состояния воркфлоу.
type State int32

const (
	Disconnected State = iota
	Ready              // подключены, discovery прошёл
	Authorized         // токен получен
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Ready:
		return "ready"
	case Authorized:
		return "authorized"
	}
	return "unknown"
}

// имена методов сервиса, нужные воркфлоу
const (
	methodGetUserLogin  = "getUserLogin"
	methodLogin         = "login"
	methodLogout        = "logout"
	methodAuthorize     = "authorize"
	methodCreateSession = "createSession"
)

// Session — держит клиента и короткоживущий токен.
type Session struct {
	cfg   Config
	rpc   *wsrpc.Client
	state atomic.Int32
}

func New(cfg Config) *Session {
	s := &Session{cfg: cfg}
	s.rpc = wsrpc.New(wsrpc.Config{
		URL:       cfg.URL,
		Insecure:  cfg.Insecure,
		Keepalive: cfg.Keepalive,
	})
	s.rpc.OnError = func(err error) { log.Println("cortex:", err) }
	return s
}

// Client — низкоуровневый клиент, для подписок и прямых вызовов.
func (s *Session) Client() *wsrpc.Client { return s.rpc }

func (s *Session) State() State { return State(s.state.Load()) }

// Init — полный bootstrap:
//  1. подключение + discovery;
//  2. getUserLogin — кто уже залогинен;
//  3. чужой пользователь разлогинивается (на сервисе одна сессия);
//  4. login, если никто не залогинен и заданы username/password;
//  5. authorize — получаем токен и сохраняем его в клиенте.
//
// Любая ошибка возвращается вызывающему как есть, повторов нет.
func (s *Session) Init(ctx context.Context) error {
	if err := s.rpc.Connect(ctx); err != nil {
		return err
	}
	s.state.Store(int32(Ready))

	raw, err := s.rpc.Invoke(methodGetUserLogin, nil).Await(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", methodGetUserLogin, err)
	}
	var users []string
	if err := json.Unmarshal(raw, &users); err != nil {
		return fmt.Errorf("%s: %w", methodGetUserLogin, err)
	}

	loggedIn := ""
	if len(users) > 0 {
		loggedIn = users[0]
	}
	if loggedIn != "" && loggedIn != s.cfg.Username {
		log.Printf("cortex: logging out %q", loggedIn)
		_, err := s.rpc.Invoke(methodLogout, map[string]any{"username": loggedIn}).Await(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", methodLogout, err)
		}
		loggedIn = ""
	}
	if loggedIn == "" && s.cfg.Username != "" && s.cfg.Password != "" {
		_, err := s.rpc.Invoke(methodLogin, map[string]any{
			"username":      s.cfg.Username,
			"password":      s.cfg.Password,
			"client_id":     s.cfg.ClientID,
			"client_secret": s.cfg.ClientSecret,
		}).Await(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", methodLogin, err)
		}
	}

	raw, err = s.rpc.Invoke(methodAuthorize, map[string]any{
		"client_id":     s.cfg.ClientID,
		"client_secret": s.cfg.ClientSecret,
		"debit":         s.cfg.Debit,
	}).Await(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", methodAuthorize, err)
	}
	var auth struct {
		Token string `json:"_auth"`
	}
	if err := json.Unmarshal(raw, &auth); err != nil {
		return fmt.Errorf("%s: %w", methodAuthorize, err)
	}
	if auth.Token == "" {
		return fmt.Errorf("%s: empty token in result", methodAuthorize)
	}
	s.rpc.SetToken(auth.Token)
	s.state.Store(int32(Authorized))
	return nil
}

// CreateSession — открыть сессию с гарнитурой; id запоминается в клиенте
// рядом с токеном.
func (s *Session) CreateSession(ctx context.Context, status string) error {
	raw, err := s.rpc.Invoke(methodCreateSession, map[string]any{"status": status}).Await(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", methodCreateSession, err)
	}
	var res struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return fmt.Errorf("%s: %w", methodCreateSession, err)
	}
	s.rpc.SetSessionID(res.ID)
	return nil
}

// SessionID — id открытой сессии ("" до CreateSession).
func (s *Session) SessionID() string { return s.rpc.SessionID() }

// Close — явное завершение: закрыть сокет и дождаться остановки read loop.
func (s *Session) Close() error {
	s.state.Store(int32(Disconnected))
	return s.rpc.Close()
}
