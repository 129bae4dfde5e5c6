package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-relay/internal/app"
	"github.com/vovakirdan/wirechat-relay/internal/client"
	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/log"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "wirechat-relay",
		Short:        "Real-time chat relay over WebSocket",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newSmokeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLogger := log.New(overrides.LogLevel)

			cfg, path, err := config.Load(bootLogger, configPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(overrides)

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting wirechat relay")

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to config.yaml (created with defaults if missing)")
	flags.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.DurationVar(&overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.IntVar(&overrides.HistoryLimit, "history-limit", 0, "messages retained per room")
	flags.StringVar(&overrides.DefaultRoom, "default-room", "", "room every session joins on connect")
	flags.StringSliceVar(&overrides.Rooms, "rooms", nil, "rooms created at startup")
	flags.StringVar(&overrides.DuplicatePolicy, "duplicate-policy", "", "supersede or reject a second connection for a username")
	flags.BoolVar(&overrides.AnnounceRoomChanges, "announce-room-changes", false, "broadcast join and leave notices to rooms")
	flags.StringVar(&overrides.OverflowPolicy, "overflow-policy", "", "drop_oldest or disconnect when a client falls behind")
	flags.StringSliceVar(&overrides.AllowedOrigins, "allowed-origins", nil, "WebSocket origin patterns")
	flags.StringVar(&overrides.JWTSecret, "jwt-secret", "", "HS256 secret; when set, handshakes require a token")

	return cmd
}

func newSmokeCmd() *cobra.Command {
	var (
		opts    client.SmokeOptions
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Connect, send one message and wait for its echo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := client.Smoke(ctx, opts, cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("smoke: %w", err)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Addr, "addr", "ws://localhost:8080/ws", "WebSocket address")
	flags.StringVar(&opts.User, "user", "tester", "username to announce with hello")
	flags.StringVar(&opts.Token, "token", "", "JWT for servers that require one")
	flags.StringVar(&opts.Room, "room", "", "room to join before sending")
	flags.StringVar(&opts.Text, "text", "hello from smoke test", "message text to send")
	flags.DurationVar(&timeout, "timeout", 5*time.Second, "total timeout for the run")

	return cmd
}
