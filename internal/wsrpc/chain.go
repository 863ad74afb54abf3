package wsrpc

import (
	"context"
	"encoding/json"
	"sync"
)

// Chain — отложенный результат вызова. Помимо обычного ожидания (Await/Done)
// умеет линейные цепочки зависимых вызовов: Next подвешивает следующий
// обнаруженный метод на успешное завершение текущего шага, так что
//
//	c.Invoke("login", p1).Next("authorize", p2).Next("queryHeadsets", nil)
//
// пишется одной строкой вместо вложенных продолжений. Результат предыдущего
// шага на вход следующему не передаётся.
type Chain struct {
	c    *Client
	done chan struct{}
	once sync.Once
	res  json.RawMessage
	err  error
}

func newChain(c *Client) *Chain {
	return &Chain{c: c, done: make(chan struct{})}
}

// resolve/reject — срабатывает не более одного раза на Chain.
func (ch *Chain) resolve(v json.RawMessage) {
	ch.once.Do(func() {
		ch.res = v
		close(ch.done)
	})
}

func (ch *Chain) reject(err error) {
	ch.once.Do(func() {
		ch.err = err
		close(ch.done)
	})
}

// Done — закрывается, когда результат готов.
func (ch *Chain) Done() <-chan struct{} { return ch.done }

// Await — блокирует до результата или отмены контекста.
func (ch *Chain) Await(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-ch.done:
		return ch.res, ch.err
	}
}

// Err — ошибка завершённого шага; nil, пока шаг не завершён.
func (ch *Chain) Err() error {
	select {
	case <-ch.done:
		return ch.err
	default:
		return nil
	}
}

// Next — следующий шаг цепочки: Invoke(method, params) после успешного
// завершения текущего шага. Если текущий шаг завершился ошибкой, следующий
// вызов не выполняется, ошибка уходит дальше по цепочке без изменений.
func (ch *Chain) Next(method string, params map[string]any) *Chain {
	next := newChain(ch.c)
	go func() {
		<-ch.done
		if ch.err != nil {
			next.reject(ch.err)
			return
		}
		res, err := ch.c.Invoke(method, params).Await(context.Background())
		if err != nil {
			next.reject(err)
			return
		}
		next.resolve(res)
	}()
	return next
}
