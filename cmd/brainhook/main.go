package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/brainhook/internal/cortex"
	"example.com/brainhook/internal/wsrpc"
)

func main() {
	path := "conf/cortexconfig.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := cortex.LoadConfig(path)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := cortex.New(cfg)
	if err := sess.Init(ctx); err != nil {
		log.Fatal(err)
	}
	defer sess.Close()

	rpc := sess.Client()
	log.Println("methods:", rpc.Methods())

	_ = rpc.Subscribe("eeg", func(ev *wsrpc.StreamEvent) {
		log.Printf("eeg @%0.3f: %s", ev.Time, ev.Data)
	})
	_ = rpc.Subscribe("mot", func(ev *wsrpc.StreamEvent) {
		log.Printf("mot @%0.3f: %s", ev.Time, ev.Data)
	})

	if err := sess.CreateSession(ctx, "open"); err != nil {
		log.Fatal(err)
	}

	// подписка и первый маркер одной цепочкой
	res := rpc.Invoke("subscribe", map[string]any{
		"session": sess.SessionID(),
		"streams": []string{"eeg", "mot"},
	}).Next("injectMarker", map[string]any{
		"session": sess.SessionID(),
		"label":   "start",
		"value":   1,
		"time":    time.Now().UnixMilli(),
	})
	if _, err := res.Await(ctx); err != nil {
		log.Fatal(err)
	}

	log.Println("running… press Ctrl+C to stop")
	<-ctx.Done()
}
