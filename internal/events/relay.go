package events

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Relay mirrors domain events to a RabbitMQ topic exchange so downstream
// consumers (reporting, district-wide dashboards) can react without polling.
// The relay is best-effort: publish failures are logged and never block the
// mutation that produced the event.
type Relay interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// RelayOptions configures the broker connection.
type RelayOptions struct {
	URL           string
	Exchange      string
	RetryAttempts int
	RetryDelay    time.Duration
}

type rabbitRelay struct {
	conn     *amqp091.Connection
	exchange string
	logger   *zap.Logger
}

// NewRelay connects to RabbitMQ with exponential backoff and declares the
// topic exchange. Retries respect context cancellation.
func NewRelay(ctx context.Context, opts RelayOptions, logger *zap.Logger) (Relay, error) {
	conn, err := dialWithRetry(ctx, opts, logger)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(opts.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}

	return &rabbitRelay{conn: conn, exchange: opts.Exchange, logger: logger}, nil
}

func dialWithRetry(ctx context.Context, opts RelayOptions, logger *zap.Logger) (*amqp091.Connection, error) {
	attempts := opts.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		conn, err := amqp091.Dial(opts.URL)
		if err == nil {
			if i > 1 {
				logger.Info("rabbit connected", zap.Int("attempt", i))
			}
			return conn, nil
		}
		lastErr = err

		sleep := delay * time.Duration(math.Pow(2, float64(i-1)))
		if sleep > time.Minute {
			sleep = time.Minute
		}
		logger.Warn("rabbit dial failed",
			zap.Int("attempt", i),
			zap.Duration("sleep", sleep),
			zap.Error(err))

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (r *rabbitRelay) Publish(ctx context.Context, event Event) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, r.exchange, string(event.Type), false, false, amqp091.Publishing{
		ContentType: "application/json",
		MessageId:   uuid.NewString(),
		Timestamp:   time.Now(),
		Body:        body,
	})
}

func (r *rabbitRelay) Close() error {
	return r.conn.Close()
}

// noopRelay is used when no broker URL is configured.
type noopRelay struct {
	logger *zap.Logger
}

// NewNoopRelay returns a relay that drops every event.
func NewNoopRelay(logger *zap.Logger) Relay {
	return &noopRelay{logger: logger}
}

func (r *noopRelay) Publish(_ context.Context, event Event) error {
	r.logger.Debug("event relay disabled; dropping event", zap.String("type", string(event.Type)))
	return nil
}

func (r *noopRelay) Close() error {
	return nil
}

// AttachRelay subscribes the relay to every event type on the dispatcher.
func AttachRelay(dispatcher Dispatcher, relay Relay, logger *zap.Logger) {
	types := []EventType{
		EventTicketCreated,
		EventTicketStatusChanged,
		EventTicketAssigned,
		EventTicketSLABreached,
		EventKBDeflection,
	}
	for _, eventType := range types {
		dispatcher.Subscribe(eventType, func(ctx context.Context, event Event) error {
			if err := relay.Publish(ctx, event); err != nil {
				logger.Warn("event relay publish failed",
					zap.String("type", string(event.Type)),
					zap.Error(err))
			}
			return nil
		})
	}
}
