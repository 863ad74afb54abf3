package main

import (
	"context"
	"fmt"
	"log"

	"example.com/brainhook/internal/cortex"
	"example.com/brainhook/internal/wsrpc"
)

func main() {
	// Пример чтения из файла конфигурации
	cfg, err := cortex.LoadConfig("conf/cortexconfig.json")
	if err != nil {
		log.Fatal(err)
	}

	sess := cortex.New(cfg)
	ctx := context.Background()

	if err := sess.Init(ctx); err != nil {
		log.Fatal(err)
	}
	defer sess.Close()

	rpc := sess.Client()
	log.Println("methods:", rpc.Methods())

	// печатаем входящие EEG-сэмплы
	_ = rpc.Subscribe("eeg", func(ev *wsrpc.StreamEvent) {
		log.Printf("eeg @%0.3f: %s", ev.Time, ev.Data)
	})

	if err := sess.CreateSession(ctx, "open"); err != nil {
		log.Fatal(err)
	}

	// подписка на поток на стороне сервера
	if _, err := rpc.Invoke("subscribe", map[string]any{
		"session": sess.SessionID(),
		"streams": []string{"eeg"},
	}).Await(ctx); err != nil {
		log.Fatal(err)
	}

	fmt.Println("running… press Ctrl+C to stop")
	// держим процесс живым
	select {}
}
