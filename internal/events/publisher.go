package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	DefaultExchange    = "savings.events"
	exchangeKind       = "topic"
	routingKeyPrefix   = "ledger."
	contentTypeJSON    = "application/json"
	defaultBufferSize  = 256
	publishTimeout     = 5 * time.Second
	eventSchemaVersion = 1
)

var ErrPublisherClosed = errors.New("events: publisher closed")

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// BalanceEvent is published for every committed balance movement.
type BalanceEvent struct {
	Version           int    `json:"version"`
	Operation         string `json:"operation"`
	UserID            int64  `json:"user_id"`
	ActorID           int64  `json:"actor_id,omitempty"`
	TransactionID     int64  `json:"transaction_id,omitempty"`
	Reference         string `json:"reference,omitempty"`
	BalanceDeltaCents int64  `json:"balance_delta_cents"`
	Outcome           string `json:"outcome,omitempty"`
	OccurredUnixUTC   int64  `json:"occurred_unix_utc"`
}

// Publisher forwards committed balance movements to an AMQP topic exchange.
// Entries are queued and published by a single background goroutine.
type Publisher struct {
	channel  Channel
	closer   func() error
	exchange string
	logger   *zap.Logger
	nowFn    func() time.Time

	mu     sync.Mutex
	closed bool
	queue  chan BalanceEvent
	done   chan struct{}
}

// Dial connects to url, declares exchange, and starts a Publisher.
func Dial(url string, exchange string, logger *zap.Logger) (*Publisher, error) {
	connection, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := connection.Channel()
	if err != nil {
		_ = connection.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	publisher, err := NewPublisher(channel, exchange, logger, defaultBufferSize)
	if err != nil {
		_ = channel.Close()
		_ = connection.Close()
		return nil, err
	}
	publisher.closer = connection.Close
	return publisher, nil
}

// NewPublisher declares exchange on channel and starts the publish loop.
func NewPublisher(channel Channel, exchange string, logger *zap.Logger, bufferSize int) (*Publisher, error) {
	if channel == nil {
		return nil, errors.New("events: channel is nil")
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if err := channel.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	publisher := &Publisher{
		channel:  channel,
		exchange: exchange,
		logger:   logger,
		nowFn:    time.Now,
		queue:    make(chan BalanceEvent, bufferSize),
		done:     make(chan struct{}),
	}
	go publisher.run()
	return publisher, nil
}

// LogOperation implements ledger.OperationLogger. Only successful operations that moved a balance are published.
func (publisher *Publisher) LogOperation(_ context.Context, entry ledger.OperationLog) {
	if entry.Error != nil || entry.BalanceDelta == 0 {
		return
	}
	event := BalanceEvent{
		Version:           eventSchemaVersion,
		Operation:         entry.Operation,
		UserID:            entry.UserID.Int64(),
		ActorID:           entry.ActorID.Int64(),
		TransactionID:     entry.TransactionID.Int64(),
		BalanceDeltaCents: entry.BalanceDelta.Int64(),
		Outcome:           entry.Outcome,
		OccurredUnixUTC:   publisher.nowFn().UTC().Unix(),
	}
	if !entry.Reference.IsZero() {
		event.Reference = entry.Reference.String()
	}
	if err := publisher.enqueue(event); err != nil {
		publisher.logger.Warn("balance event dropped", zap.String("operation", event.Operation), zap.String("reference", event.Reference), zap.Error(err))
	}
}

func (publisher *Publisher) enqueue(event BalanceEvent) error {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	if publisher.closed {
		return ErrPublisherClosed
	}
	select {
	case publisher.queue <- event:
		return nil
	default:
		return errors.New("events: buffer full")
	}
}

func (publisher *Publisher) run() {
	defer close(publisher.done)
	for event := range publisher.queue {
		if err := publisher.publish(event); err != nil {
			publisher.logger.Error("balance event publish failed", zap.String("operation", event.Operation), zap.String("reference", event.Reference), zap.Error(err))
		}
	}
}

func (publisher *Publisher) publish(event BalanceEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return publisher.channel.PublishWithContext(ctx, publisher.exchange, routingKeyPrefix+event.Operation, false, false, amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Unix(event.OccurredUnixUTC, 0).UTC(),
		Body:         body,
	})
}

// Close stops accepting events, flushes the queue, and closes the channel.
func (publisher *Publisher) Close() error {
	publisher.mu.Lock()
	if publisher.closed {
		publisher.mu.Unlock()
		return nil
	}
	publisher.closed = true
	close(publisher.queue)
	publisher.mu.Unlock()
	<-publisher.done
	err := publisher.channel.Close()
	if publisher.closer != nil {
		err = errors.Join(err, publisher.closer())
	}
	return err
}
