// Package amqp publishes ledger activities to a RabbitMQ topic exchange.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/mmynk/splitledger/internal/models"
)

// channel is the part of *amqp091.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher sends every committed activity as a persistent JSON message.
// Routing keys are "<prefix>.<activity type>", e.g. "splitledger.update_expense",
// so consumers can bind to a subset of changes.
type Publisher struct {
	conn         *amqp091.Connection
	channel      channel
	exchangeName string
	keyPrefix    string
	timeout      time.Duration
}

// NewPublisher dials url and declares a durable topic exchange.
func NewPublisher(url, exchangeName, keyPrefix string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := newPublisher(ch, exchangeName, keyPrefix)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchangeName, keyPrefix string) (*Publisher, error) {
	err := ch.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{
		channel:      ch,
		exchangeName: exchangeName,
		keyPrefix:    keyPrefix,
		timeout:      5 * time.Second,
	}, nil
}

// RoutingKey returns the routing key of an activity type.
func (p *Publisher) RoutingKey(t models.ActivityType) string {
	return p.keyPrefix + "." + strings.ToLower(string(t))
}

// Publish sends activity. It satisfies ledger.Publisher.
func (p *Publisher) Publish(ctx context.Context, activity *models.Activity) error {
	body, err := NewActivityMessage(activity).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	key := p.RoutingKey(activity.Type)
	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName, // exchange
		key,            // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    activity.ID,
			Timestamp:    time.UnixMilli(activity.Time),
			Type:         string(activity.Type),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.DebugContext(ctx, "Published activity",
		"activity_id", activity.ID,
		"group_id", activity.GroupID,
		"exchange", p.exchangeName,
		"routing_key", key)

	return nil
}

// Close closes the channel and, when the publisher dialed it, the connection.
// Errors from both are joined.
func (p *Publisher) Close() error {
	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
