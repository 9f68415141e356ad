package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"ticketbari/config"
	"ticketbari/internal/broker"
	"ticketbari/internal/db"
	"ticketbari/internal/db/repos"
	"ticketbari/internal/notify"
)

const shutdownGrace = 30 * time.Second

func main() {
	cfg := config.LoadConfig()
	if err := cfg.ValidateNotifier(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.NewDB(ctx, cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	ledger := repos.NewNotificationRepository(conn)
	if err := ledger.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare notification ledger: %v", err)
	}

	mailer := notify.NewMailer(cfg.MailerSendAPIKey, "TicketBari", cfg.MailerSendFromEmail, cfg.MailerSendTemplateID)

	b, err := broker.NewBroker(cfg.RabbitMQURL, cfg.Exchange, "topic")
	if err != nil {
		log.Fatalf("Failed to create broker: %v", err)
	}
	defer b.Close()

	consumer := notify.NewConsumer(b, ledger, mailer, notify.ConsumerConfig{
		NumWorkers:    cfg.NotifierWorkers,
		PrefetchCount: cfg.NotifierPrefetch,
	})

	log.Println("Notification service started. Waiting for messages...")
	if err := consumer.Run(ctx, shutdownGrace); err != nil {
		log.Fatalf("Notifier stopped: %v", err)
	}
	log.Println("Notification service shut down")
}
