// rtprobe connects to the realtime gateway as a given identity and
// prints every envelope it receives. Useful for poking at a gateway
// without booting the web client.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/coursehub/realtime-go/pkg/realtime"
	"github.com/coursehub/realtime-go/pkg/routing"
	"github.com/coursehub/realtime-go/pkg/schemas/events"
)

type consoleSink struct{}

func (consoleSink) Show(kind routing.Kind, title, body string) {
	fmt.Printf("[%s] %s: %s\n", kind, title, body)
}

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "rtprobe",
		Usage: "tail realtime platform events for one identity",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "websocket endpoint of the realtime gateway",
				Sources: cli.EnvVars("REALTIME_URL"),
				Value:   "ws://localhost:8080/ws",
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "bearer token (empty connects unauthenticated)",
				Sources: cli.EnvVars("REALTIME_TOKEN"),
			},
			&cli.IntFlag{
				Name:     "id",
				Usage:    "numeric user id",
				Sources:  cli.EnvVars("REALTIME_USER_ID"),
				Required: true,
			},
			&cli.StringFlag{
				Name:    "role",
				Usage:   "student or instructor",
				Sources: cli.EnvVars("REALTIME_ROLE"),
				Value:   "student",
			},
			&cli.IntFlag{
				Name:  "conversation",
				Usage: "also subscribe this conversation id",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("REALTIME_LOG_LEVEL"),
				Value:   "info",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	identity := realtime.Identity{
		ID:   int64(cmd.Int("id")),
		Role: realtime.Role(cmd.String("role")),
	}
	if !identity.Role.Valid() {
		return fmt.Errorf("role must be student or instructor, got %q", cmd.String("role"))
	}

	client, err := realtime.New(realtime.Config{
		URL:    cmd.String("url"),
		Tokens: realtime.StaticToken(cmd.String("token")),
		Logger: log,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	// One process-wide client, handed to every interested context.
	notifications := routing.NewNotifications(identity, consoleSink{}, log)
	notifications.UploadProgress = func(courseID int64, percent float64) {
		fmt.Printf("upload course=%d %.0f%%\n", courseID, percent)
	}
	client.AddHandler(notifications.Handler())
	client.AddHandler(func(env events.Envelope) {
		log.Debug("envelope",
			slog.String("type", string(env.Type)),
			slog.String("status", string(env.Status)),
			slog.String("message", env.Message))
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := client.Connect(ctx, identity); err != nil {
		return err
	}
	log.Info("connected", slog.String("identity", identity.String()),
		slog.Any("topics", client.Subscriptions()))

	if conv := int64(cmd.Int("conversation")); conv > 0 {
		if err := client.SubscribeConversation(conv); err != nil {
			return err
		}
	}

	<-ctx.Done()
	log.Info("shutting down")
	client.Disconnect()
	return nil
}
