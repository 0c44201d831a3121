package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"story-graph-server/internal/interfaces"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Compile-time checks.
var (
	_ interfaces.TurnEventPublisher = (*RabbitMQTurnPublisher)(nil)
	_ interfaces.TurnEventPublisher = NoopPublisher{}
)

// RabbitMQTurnPublisher публикует TurnResolvedEvent в fanout exchange.
type RabbitMQTurnPublisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewRabbitMQTurnPublisher открывает канал и объявляет durable fanout exchange.
// Соединение принадлежит вызывающему коду.
func NewRabbitMQTurnPublisher(conn *amqp.Connection, exchange string, logger *zap.Logger) (*RabbitMQTurnPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	log := logger.Named("TurnPublisher").With(zap.String("exchange", exchange))

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchange, err)
	}

	log.Info("Turn event exchange declared")
	return &RabbitMQTurnPublisher{ch: ch, exchange: exchange, logger: log}, nil
}

// PublishTurnResolved отправляет событие. Ошибки возвращаются вызывающему,
// ход из-за них не откатывается.
func (p *RabbitMQTurnPublisher) PublishTurnResolved(ctx context.Context, event interfaces.TurnResolvedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal turn event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		"", // routing key не используется для fanout
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish turn event", zap.Stringer("nodeID", event.NodeID), zap.Error(err))
		return fmt.Errorf("failed to publish turn event: %w", err)
	}

	p.logger.Debug("Turn event published", zap.Stringer("nodeID", event.NodeID), zap.Bool("reused", event.Reused))
	return nil
}

// Close закрывает канал.
func (p *RabbitMQTurnPublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}

// NoopPublisher используется, когда RabbitMQ не настроен.
type NoopPublisher struct{}

func (NoopPublisher) PublishTurnResolved(context.Context, interfaces.TurnResolvedEvent) error {
	return nil
}

// Connect пытается подключиться к RabbitMQ с несколькими попытками.
func Connect(ctx context.Context, url string, maxRetries int, retryDelay time.Duration, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("Не удалось подключиться к RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, err
}
