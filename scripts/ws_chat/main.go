package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"

	"github.com/vovakirdan/wirechat-relay/internal/client"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "", "username (empty for a guest name)")
	token := flag.String("token", "", "JWT for servers that require one")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	c, err := client.Dial(ctx, *addr, proto.HelloData{User: *user, Token: *token})
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("Connected to %s\n", *addr)
	fmt.Println("Type messages and press Enter. Commands: /join ROOM, /leave ROOM, /msg USER TEXT. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, c)
	}()

	writeLoop(ctx, c)
	return nil
}

func readLoop(ctx context.Context, c *client.Client) {
	for {
		f, err := c.Next(ctx)
		if err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}
		fmt.Println(client.Format(f))
	}
}

func writeLoop(ctx context.Context, c *client.Client) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := dispatch(ctx, c, strings.TrimSpace(line)); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}

func dispatch(ctx context.Context, c *client.Client, line string) error {
	if line == "" {
		return nil
	}
	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case "/join":
		return c.Join(ctx, rest)
	case "/leave":
		return c.Leave(ctx, rest)
	case "/msg":
		to, text, ok := strings.Cut(rest, " ")
		if !ok {
			fmt.Println("usage: /msg USER TEXT")
			return nil
		}
		return c.Whisper(ctx, to, text)
	default:
		return c.Say(ctx, "", line)
	}
}
