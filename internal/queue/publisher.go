package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher publishes domain events to RabbitMQ. It dials per publish:
// order placement is low volume and this keeps the API free of a
// long-lived broker connection that could go stale. Errors are logged and
// returned so callers can ignore them without interrupting the request.
type Publisher struct {
	URL string
	Log *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{URL: url, Log: log}
}

// PublishOrderPlaced publishes ev to the order.placed queue as a
// persistent JSON message.
func (p *Publisher) PublishOrderPlaced(ctx context.Context, ev OrderPlacedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		p.Log.Error("rabbitmq: marshal event failed", zap.Error(err))
		return err
	}
	return p.publish(ctx, OrderPlacedQueue, body)
}

func (p *Publisher) publish(ctx context.Context, queueName string, body []byte) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		p.Log.Warn("rabbitmq: queue declare failed", zap.String("queue", queueName), zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		p.Log.Warn("rabbitmq: publish failed", zap.String("queue", queueName), zap.Error(err))
		return err
	}
	return nil
}
