package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// OrderLogConsumer listens on order.placed and appends one line per order
// to {Dir}/orders.log.
type OrderLogConsumer struct {
	URL string
	Dir string
	Log *zap.Logger
}

func NewOrderLogConsumer(url, dir string, log *zap.Logger) *OrderLogConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	if dir == "" {
		dir = "logs"
	}
	return &OrderLogConsumer{URL: url, Dir: dir, Log: log}
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff (capped at 30s) whenever the connection drops.
// Messages that cannot be handled are rejected without requeue.
func (c *OrderLogConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("order-consumer: failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("order-consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *OrderLogConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("order-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(OrderPlacedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, OrderPlacedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.HandleMessage(d.Body); err != nil {
				c.Log.Error("order-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one order.placed body and appends it to the log
// file.
func (c *OrderLogConsumer) HandleMessage(body []byte) error {
	var ev OrderPlacedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(c.Dir, "orders.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatOrderLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatOrderLine renders ev as a single human-friendly line.
func FormatOrderLine(ev OrderPlacedEvent) string {
	lines := make([]string, 0, len(ev.Items))
	for _, it := range ev.Items {
		lines = append(lines, fmt.Sprintf("%dx#%d@%s", it.Quantity, it.ProductID, it.UnitPrice))
	}
	return fmt.Sprintf("[%s] Order placed | order_id=%d | user_id=%d | ship_to=\"%s, %s\" | products=%s | shipping=%s | total=%s | items=[%s]\n",
		ev.PlacedAt, ev.OrderID, ev.UserID, ev.Locality, ev.Region,
		ev.TotalProductsPrice, ev.ShippingPrice, ev.TotalPrice, strings.Join(lines, ","))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
