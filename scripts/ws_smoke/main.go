package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/vovakirdan/wirechat-relay/internal/client"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	opts := client.SmokeOptions{}
	flag.StringVar(&opts.Addr, "addr", "ws://localhost:8080/ws", "WebSocket address")
	flag.StringVar(&opts.User, "user", "tester", "username to announce with hello")
	flag.StringVar(&opts.Token, "token", "", "JWT for servers that require one")
	flag.StringVar(&opts.Room, "room", "General", "room name")
	flag.StringVar(&opts.Text, "text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	return client.Smoke(ctx, opts, os.Stdout)
}
