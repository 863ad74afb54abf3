package wsrpc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConnectionClosed — терминальная ошибка: соединение закрыто.
// Её получают все вызовы после закрытия и все вызовы, ожидавшие
// ответа в момент закрытия.
var ErrConnectionClosed = errors.New("connection closed")

// RPCError — сервер вернул ошибку для конкретного id.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ValidationError — не хватает обязательных параметров; проверка локальная,
// кадр в сокет не уходит.
type ValidationError struct {
	Method  string
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required params: %s", e.Method, strings.Join(e.Missing, ", "))
}

// MalformedResponseError — ответ с совпавшим id, но без result и без error.
type MalformedResponseError struct {
	ID uint64
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response for id %d: neither result nor error", e.ID)
}

// UnknownMethodError — вызов метода, которого нет в таблице discovery.
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown method %q", e.Method)
}
