// Package wsrpc реализует клиент JSON-RPC 2.0 поверх WebSocket для сервисов,
// которые сами описывают свой набор методов. После подключения клиент
// вызывает inspectApi, строит таблицу методов с их параметрами и дальше
// работает только через неё:
//
//   - Invoke("имя", параметры) — вызов с локальной проверкой обязательных
//     параметров и автоподстановкой токена в _auth;
//   - Chain.Next — линейные цепочки зависимых вызовов без вложенных
//     продолжений;
//   - Subscribe/Unsubscribe — события потоков (кадры с sessionId без id),
//     раздаваемые по имени потока.
//
// Переписка ведётся по целочисленному correlation id; порядок прихода
// ответов значения не имеет. Закрытие соединения отклоняет все ожидающие
// вызовы с ErrConnectionClosed.
//
// События (колбэки поля структуры):
//   - OnConnecting, OnConnected, OnDisconnected, OnError.
//
// Пример:
//
//	c := wsrpc.New(wsrpc.Config{URL: "wss://localhost:6868", Insecure: true})
//	ctx := context.Background()
//	if err := c.Connect(ctx); err != nil { log.Fatal(err) }
//	defer c.Close()
//
//	_ = c.Subscribe("eeg", func(ev *wsrpc.StreamEvent) {
//	    fmt.Println("eeg:", string(ev.Data))
//	})
//
//	res, err := c.Invoke("authorize", map[string]any{
//	    "client_id":     id,
//	    "client_secret": secret,
//	}).Await(ctx)
package wsrpc
