package broker

import (
	"encoding/json"
	"log"
	"os"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

var logger = log.New(os.Stdout, "BROKER: ", log.LstdFlags|log.Lshortfile)

// Publisher sends a message to the exchange under a routing key.
type Publisher interface {
	Publish(message interface{}, key string) error
}

type Broker struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	kind     string
	url      string
}

func NewBroker(rabbitMQURL, exchange string, exchangeType string) (*Broker, error) {
	b := &Broker{exchange: exchange, kind: exchangeType, url: rabbitMQURL}
	if err := b.connect(); err != nil {
		return nil, err
	}
	return b, nil
}

// connect dials and declares the exchange. Callers hold mu or own b.
func (b *Broker) connect() error {
	conn, err := amqp.Dial(b.url)
	if err != nil {
		logger.Printf("Failed to connect to RabbitMQ: %v", err)
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Printf("Failed to open channel: %v", err)
		conn.Close()
		return err
	}

	if b.exchange != "" {
		err = ch.ExchangeDeclare(
			b.exchange,
			b.kind,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			logger.Printf("Failed to declare exchange: %v", err)
			ch.Close()
			conn.Close()
			return err
		}
	}

	b.conn = conn
	b.channel = ch
	return nil
}

func (b *Broker) ensureConnection() error {
	if b.conn == nil || b.conn.IsClosed() || b.channel == nil || b.channel.IsClosed() {
		if b.conn != nil && !b.conn.IsClosed() {
			b.conn.Close()
		}
		logger.Println("Reconnecting to RabbitMQ")
		return b.connect()
	}
	return nil
}

func (b *Broker) Publish(message interface{}, key string) error {
	body, err := json.Marshal(message)
	if err != nil {
		logger.Printf("Failed to marshal message: %v", err)
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureConnection(); err != nil {
		return err
	}

	err = b.channel.Publish(
		b.exchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		logger.Printf("Failed to publish message: %v", err)
		return err
	}

	logger.Printf("Published %s: %s", key, body)
	return nil
}

func (b *Broker) DeclareAndBindQueue(queueName string, routingKeys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureConnection(); err != nil {
		return err
	}

	_, err := b.channel.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for _, key := range routingKeys {
		if err := b.channel.QueueBind(queueName, key, b.exchange, false, nil); err != nil {
			return err
		}
	}
	return nil
}

// Consume starts a manual-ack consumer on queueName.
func (b *Broker) Consume(queueName string) (<-chan amqp.Delivery, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureConnection(); err != nil {
		return nil, err
	}

	msgs, err := b.channel.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Printf("Failed to start consuming: %v", err)
		return nil, err
	}

	return msgs, nil
}

// SetQoS sets the prefetch count for the channel
func (b *Broker) SetQoS(prefetchCount int, prefetchSize int, global bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureConnection(); err != nil {
		return err
	}
	return b.channel.Qos(prefetchCount, prefetchSize, global)
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.channel != nil {
		if err := b.channel.Close(); err != nil && err != amqp.ErrClosed {
			logger.Printf("Failed to close channel: %v", err)
			return err
		}
	}
	if b.conn != nil {
		if err := b.conn.Close(); err != nil && err != amqp.ErrClosed {
			logger.Printf("Failed to close connection: %v", err)
			return err
		}
	}
	return nil
}

// LogPublisher stands in for the broker when none is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(message interface{}, key string) error {
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}
	logger.Printf("No broker configured, dropping %s: %s", key, body)
	return nil
}
