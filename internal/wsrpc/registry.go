package wsrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// ========================= discovery =========================

const (
	inspectMethod = "inspectApi"
	authParam     = "_auth" // параметр-маркер: метод требует токен
)

// MethodDescriptor — описание метода из ответа inspectApi. После discovery
// не меняется.
type MethodDescriptor struct {
	MethodName string      `json:"methodName"`
	Params     []ParamSpec `json:"params"`
}

type ParamSpec struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// AuthRequired — метод объявляет параметр _auth.
func (d MethodDescriptor) AuthRequired() bool {
	for _, p := range d.Params {
		if p.Name == authParam {
			return true
		}
	}
	return false
}

// discover — bootstrap-вызов inspectApi; наполняет таблицу методов.
// Повторный вызов и повторное имя в ответе безвредны: регистрация идемпотентна.
func (c *Client) discover(ctx context.Context) error {
	raw, err := c.Call(inspectMethod, nil).Await(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", inspectMethod, err)
	}
	var descs []MethodDescriptor
	if err := json.Unmarshal(raw, &descs); err != nil {
		return fmt.Errorf("%s: %w", inspectMethod, err)
	}

	c.mmu.Lock()
	for _, d := range descs {
		if _, exists := c.methods[d.MethodName]; exists {
			continue
		}
		c.methods[d.MethodName] = d
	}
	c.mmu.Unlock()
	return nil
}

// Methods — отсортированные имена всех обнаруженных методов.
func (c *Client) Methods() []string {
	c.mmu.RLock()
	names := make([]string, 0, len(c.methods))
	for name := range c.methods {
		names = append(names, name)
	}
	c.mmu.RUnlock()
	sort.Strings(names)
	return names
}

// Method — описание по имени.
func (c *Client) Method(name string) (MethodDescriptor, bool) {
	c.mmu.RLock()
	defer c.mmu.RUnlock()
	d, ok := c.methods[name]
	return d, ok
}

// Invoke — вызов обнаруженного метода по имени. Перед отправкой:
//  1. если метод требует токен и _auth не передан — подставляем сохранённый;
//  2. проверяем обязательные параметры; при нехватке — ValidationError со
//     всеми недостающими именами, кадр не отправляется.
func (c *Client) Invoke(method string, params map[string]any) *Chain {
	d, ok := c.Method(method)
	if !ok {
		ch := newChain(c)
		ch.reject(&UnknownMethodError{Method: method})
		return ch
	}

	merged := make(map[string]any, len(params)+1)
	for k, v := range params {
		merged[k] = v
	}
	if d.AuthRequired() {
		if _, ok := merged[authParam]; !ok {
			if token := c.Token(); token != "" {
				merged[authParam] = token
			}
		}
	}

	var missing []string
	for _, p := range d.Params {
		if !p.Required {
			continue
		}
		if _, ok := merged[p.Name]; !ok {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		ch := newChain(c)
		ch.reject(&ValidationError{Method: method, Missing: missing})
		return ch
	}

	return c.Call(method, merged)
}
