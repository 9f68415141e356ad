// Package notify turns booking and payment events into e-mails.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"ticketbari/internal/broker"
	"ticketbari/internal/monitoring"
)

var logger = log.New(os.Stdout, "NOTIFIER: ", log.LstdFlags|log.Lshortfile)

const QueueName = "ticketbari_notifications"

var errMalformed = errors.New("malformed message")

// Source is the subset of the broker the consumer needs.
type Source interface {
	DeclareAndBindQueue(queueName string, routingKeys ...string) error
	SetQoS(prefetchCount int, prefetchSize int, global bool) error
	Consume(queueName string) (<-chan amqp.Delivery, error)
}

// Ledger remembers which events were already e-mailed.
type Ledger interface {
	Record(ctx context.Context, key, topic, recipient string) (bool, error)
	Forget(ctx context.Context, key string) error
}

type ConsumerConfig struct {
	NumWorkers    int
	PrefetchCount int
}

func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{NumWorkers: 5, PrefetchCount: 10}
}

type Consumer struct {
	source    Source
	ledger    Ledger
	sender    Sender
	config    ConsumerConfig
	processWg sync.WaitGroup
}

func NewConsumer(source Source, ledger Ledger, sender Sender, config ConsumerConfig) *Consumer {
	if config.NumWorkers < 1 {
		config.NumWorkers = 1
	}
	return &Consumer{source: source, ledger: ledger, sender: sender, config: config}
}

// Run consumes until ctx is cancelled, then waits up to grace for in-flight
// messages.
func (c *Consumer) Run(ctx context.Context, grace time.Duration) error {
	if err := c.source.DeclareAndBindQueue(QueueName, broker.TopicPaymentConfirmed, broker.TopicBookingRequested); err != nil {
		return fmt.Errorf("failed to declare and bind queue: %w", err)
	}
	if err := c.source.SetQoS(c.config.PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	messages, err := c.source.Consume(QueueName)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	var workers sync.WaitGroup
	for i := 0; i < c.config.NumWorkers; i++ {
		workers.Add(1)
		go func(id int) {
			defer workers.Done()
			c.startWorker(ctx, messages, id)
		}(i + 1)
	}
	logger.Printf("Notifier started with %d workers", c.config.NumWorkers)

	workers.Wait()

	done := make(chan struct{})
	go func() {
		c.processWg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Println("All workers completed gracefully")
	case <-time.After(grace):
		logger.Println("Shutdown timed out waiting for workers")
	}
	return nil
}

func (c *Consumer) startWorker(ctx context.Context, messages <-chan amqp.Delivery, workerID int) {
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				logger.Printf("Worker %d channel closed", workerID)
				return
			}
			c.processWg.Add(1)
			c.process(ctx, msg)
		case <-ctx.Done():
			logger.Printf("Worker %d shutting down", workerID)
			return
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg amqp.Delivery) {
	defer c.processWg.Done()

	err := c.handle(context.WithoutCancel(ctx), msg.RoutingKey, msg.Body)
	switch {
	case err == nil:
		monitoring.TrackNotification(msg.RoutingKey, "sent")
		msg.Ack(false)
	case errors.Is(err, errMalformed):
		logger.Printf("Dropping %s message: %v", msg.RoutingKey, err)
		monitoring.TrackNotification(msg.RoutingKey, "malformed")
		msg.Reject(false)
	case msg.Redelivered:
		logger.Printf("Giving up on %s message after retry: %v", msg.RoutingKey, err)
		monitoring.TrackNotification(msg.RoutingKey, "failed")
		msg.Reject(false)
	default:
		logger.Printf("Requeueing %s message: %v", msg.RoutingKey, err)
		monitoring.TrackNotification(msg.RoutingKey, "retry")
		msg.Reject(true)
	}
}

// handle sends the e-mail for one event. A nil error also covers events that
// were e-mailed before.
func (c *Consumer) handle(ctx context.Context, topic string, body []byte) error {
	key, email, err := compose(topic, body)
	if err != nil {
		return err
	}

	fresh, err := c.ledger.Record(ctx, key, topic, email.To)
	if err != nil {
		return fmt.Errorf("record %s: %w", key, err)
	}
	if !fresh {
		logger.Printf("Skipping %s, already sent", key)
		return nil
	}

	if err := c.sender.Send(ctx, email); err != nil {
		if ferr := c.ledger.Forget(ctx, key); ferr != nil {
			logger.Printf("Failed to release %s: %v", key, ferr)
		}
		return err
	}
	return nil
}

// compose builds the de-duplication key and e-mail for an event body.
func compose(topic string, body []byte) (string, Email, error) {
	switch topic {
	case broker.TopicPaymentConfirmed:
		var m broker.PaymentConfirmedMessage
		if err := json.Unmarshal(body, &m); err != nil {
			return "", Email{}, fmt.Errorf("%w: %v", errMalformed, err)
		}
		if m.SessionID == "" || m.UserEmail == "" {
			return "", Email{}, fmt.Errorf("%w: missing session id or e-mail", errMalformed)
		}
		return topic + ":" + m.SessionID, Email{
			To:      m.UserEmail,
			Subject: "Your TicketBari payment receipt",
			Data: map[string]interface{}{
				"transaction_id": m.TransactionID,
				"amount":         m.Amount.StringFixed(2),
				"confirmed_at":   m.ConfirmedAt.Format(time.RFC1123),
			},
		}, nil

	case broker.TopicBookingRequested:
		var m broker.BookingRequestedMessage
		if err := json.Unmarshal(body, &m); err != nil {
			return "", Email{}, fmt.Errorf("%w: %v", errMalformed, err)
		}
		if m.BookingID == "" || m.UserEmail == "" {
			return "", Email{}, fmt.Errorf("%w: missing booking id or e-mail", errMalformed)
		}
		return topic + ":" + m.BookingID, Email{
			To:      m.UserEmail,
			Subject: "Booking request received: " + m.Title,
			Data: map[string]interface{}{
				"title":          m.Title,
				"quantity":       m.Quantity,
				"amount":         m.Amount.StringFixed(2),
				"departure_time": m.DepartureTime.Format(time.RFC1123),
			},
		}, nil
	}
	return "", Email{}, fmt.Errorf("%w: unexpected topic %q", errMalformed, topic)
}
