package wsrpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamEventRouting(t *testing.T) {
	s := newTestServer(t, testDescs, nil)
	c := dial(t, s)

	events := make(chan *StreamEvent, 4)
	require.NoError(t, c.Subscribe("eeg", func(ev *StreamEvent) { events <- ev }))

	s.send(map[string]any{
		"sessionId": "s1",
		"timestamp": 1000,
		"eeg":       []any{1, 2, 3},
	})

	select {
	case ev := <-events:
		assert.Equal(t, "eeg", ev.Stream)
		assert.Equal(t, "s1", ev.SessionID)
		assert.Equal(t, float64(1000), ev.Time)
		assert.JSONEq(t, `[1,2,3]`, string(ev.Data))
		assert.Contains(t, ev.Frame, "sessionId")
	case <-time.After(2 * time.Second):
		t.Fatal("no eeg event")
	}
}

func TestStreamFrameWithoutArrayEmitsNothing(t *testing.T) {
	s := newTestServer(t, testDescs, nil)
	c := dial(t, s)

	events := make(chan *StreamEvent, 4)
	require.NoError(t, c.Subscribe("status", func(ev *StreamEvent) { events <- ev }))

	s.send(map[string]any{
		"sessionId": "s1",
		"timestamp": 1000,
		"status":    "ok", // не массив — не поток
	})

	select {
	case <-events:
		t.Fatal("unexpected event")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestStreamMultipleKeysOneFrame(t *testing.T) {
	s := newTestServer(t, testDescs, nil)
	c := dial(t, s)

	eeg := make(chan *StreamEvent, 1)
	mot := make(chan *StreamEvent, 1)
	require.NoError(t, c.Subscribe("eeg", func(ev *StreamEvent) { eeg <- ev }))
	require.NoError(t, c.Subscribe("mot", func(ev *StreamEvent) { mot <- ev }))

	s.send(map[string]any{
		"sessionId": "s1",
		"timestamp": 42,
		"eeg":       []any{1},
		"mot":       []any{2},
	})

	for name, ch := range map[string]chan *StreamEvent{"eeg": eeg, "mot": mot} {
		select {
		case ev := <-ch:
			assert.Equal(t, name, ev.Stream)
		case <-time.After(2 * time.Second):
			t.Fatalf("no %s event", name)
		}
	}
}

func TestStreamWithoutSubscriberIsNotFatal(t *testing.T) {
	s := newTestServer(t, testDescs, nil)
	c := dial(t, s)

	// никто не подписан — кадр просто логируется
	s.send(map[string]any{
		"sessionId": "s1",
		"timestamp": 1,
		"eeg":       []any{1},
	})

	// клиент живой: обычный вызов проходит
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	res, err := c.Invoke("getUserLogin", nil).Await(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(res))
}

func TestStreamLateSubscribe(t *testing.T) {
	s := newTestServer(t, testDescs, nil)
	c := dial(t, s)

	// данные уже идут, подписки ещё нет
	s.send(map[string]any{"sessionId": "s1", "timestamp": 1, "eeg": []any{1}})
	time.Sleep(50 * time.Millisecond)

	events := make(chan *StreamEvent, 1)
	require.NoError(t, c.Subscribe("eeg", func(ev *StreamEvent) { events <- ev }))
	s.send(map[string]any{"sessionId": "s1", "timestamp": 2, "eeg": []any{2}})

	select {
	case ev := <-events:
		assert.Equal(t, float64(2), ev.Time)
	case <-time.After(2 * time.Second):
		t.Fatal("no event after late subscribe")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := newTestServer(t, testDescs, nil)
	c := dial(t, s)

	events := make(chan *StreamEvent, 4)
	handler := func(ev *StreamEvent) { events <- ev }
	require.NoError(t, c.Subscribe("eeg", handler))

	s.send(map[string]any{"sessionId": "s1", "timestamp": 1, "eeg": []any{1}})
	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("no event before unsubscribe")
	}

	require.NoError(t, c.Unsubscribe("eeg", handler))
	s.send(map[string]any{"sessionId": "s1", "timestamp": 2, "eeg": []any{2}})
	select {
	case <-events:
		t.Fatal("event after unsubscribe")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestIsJSONArray(t *testing.T) {
	assert.True(t, isJSONArray([]byte("[1,2]")))
	assert.True(t, isJSONArray([]byte("  \t[\"a\"]")))
	assert.False(t, isJSONArray([]byte(`"ok"`)))
	assert.False(t, isJSONArray([]byte("{}")))
	assert.False(t, isJSONArray(nil))
}
