package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPConfig identifies the broker and the topic exchange events go to.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// AMQPPublisher publishes JSON events to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
	logger   *log.Logger
}

// DialAMQP connects with a few retries and declares the exchange.
func DialAMQP(cfg AMQPConfig, logger *log.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.Exchange == "" {
		return nil, fmt.Errorf("amqp: exchange name cannot be empty")
	}

	var conn *amqp.Connection
	var err error
	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			break
		}
		wait := time.Duration(i*i)*time.Second + time.Second
		logger.Printf("amqp: dial failed, retrying in %v: %v", wait, err)
		time.Sleep(wait)
	}
	if err != nil {
		return nil, fmt.Errorf("amqp: connect after retries: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp: declare exchange %s: %w", cfg.Exchange, err)
	}
	logger.Printf("amqp: exchange %s ready", cfg.Exchange)

	return &AMQPPublisher{conn: conn, channel: ch, exchange: cfg.Exchange, logger: logger}, nil
}

// Publish marshals v and sends it with the given routing key.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("amqp: marshal %s: %w", routingKey, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp: publish %s: %w", routingKey, err)
	}
	return nil
}

// Notify publishes n under "notify.<kind>".
func (p *AMQPPublisher) Notify(ctx context.Context, n Notification) {
	if err := p.Publish(ctx, RoutingKey(n.Kind), n); err != nil {
		p.logger.Printf("notify: %v", err)
	}
}

// Close closes the channel and then the connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// RoutingKey is the topic a notification of kind k is published under.
func RoutingKey(k Kind) string {
	return "notify." + string(k)
}
