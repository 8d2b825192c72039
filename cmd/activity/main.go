package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"messpal-be/internal/config"
	"messpal-be/internal/pkg/logger"
	"messpal-be/pkg/events"
	pktNats "messpal-be/pkg/nats"

	"github.com/fatih/color"
)

// activity tails chat exchange events from the NATS stream.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		log.Fatal("Error: NATS_URL is not set")
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Fatalf("Error: Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	ok := color.New(color.FgGreen).SprintFunc()
	failed := color.New(color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	err = sub.Subscribe(ctx, pktNats.Subject(events.TypeChatMessageExchanged), "messpal-activity-tail",
		func(ctx context.Context, event events.Event) error {
			payload := event.Payload()
			status, _ := payload["status"].(string)
			label := ok(status)
			if status != events.ExchangeCompleted {
				label = failed(status)
			}
			log.Printf("%s chat=%v user=%v %s", dim(event.Timestamp().Format("15:04:05")), payload["chat_id"], payload["user_id"], label)
			return nil
		})
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	log.Println("Listening for chat activity. Ctrl+C to stop.")
	<-ctx.Done()
}
