package webhook

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	"go.uber.org/zap"
)

const (
	DefaultWorkers    = 4
	DefaultQueueSize  = 256
	DefaultJobTimeout = 30 * time.Second
)

var (
	ErrNilSettler        = errors.New("webhook: settler is nil")
	ErrDispatcherStarted = errors.New("webhook: dispatcher already started")
)

// Settler settles a gateway deposit by its reference.
type Settler interface {
	SettleByReference(ctx context.Context, rawReference string) (ledger.SettlementResult, error)
}

// Observer receives webhook counters and queue depth.
type Observer interface {
	ObserveWebhook(result string)
	SetWebhookQueueDepth(depth int)
}

type noopObserver struct{}

func (noopObserver) ObserveWebhook(string) {}
func (noopObserver) SetWebhookQueueDepth(int) {}

// DispatcherConfig sizes the settlement worker pool.
type DispatcherConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// Dispatcher settles queued references on a fixed pool of workers.
type Dispatcher struct {
	settler    Settler
	logger     *zap.Logger
	observer   Observer
	workers    int
	jobTimeout time.Duration

	mu      sync.RWMutex
	queue   chan string
	started bool
	stopped bool
	group   sync.WaitGroup
}

// NewDispatcher validates cfg, filling defaults for unset sizes.
func NewDispatcher(settler Settler, cfg DispatcherConfig, logger *zap.Logger, observer Observer) (*Dispatcher, error) {
	if settler == nil {
		return nil, ErrNilSettler
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultJobTimeout
	}
	return &Dispatcher{
		settler:    settler,
		logger:     logger,
		observer:   observer,
		workers:    cfg.Workers,
		jobTimeout: cfg.JobTimeout,
		queue:      make(chan string, cfg.QueueSize),
	}, nil
}

// Start launches the workers. Jobs already taken finish even if ctx is cancelled.
func (dispatcher *Dispatcher) Start(ctx context.Context) error {
	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	if dispatcher.started {
		return ErrDispatcherStarted
	}
	dispatcher.started = true
	jobContext := context.WithoutCancel(ctx)
	for index := 0; index < dispatcher.workers; index++ {
		dispatcher.group.Add(1)
		go dispatcher.work(jobContext)
	}
	return nil
}

// Enqueue hands reference to the workers without blocking. It reports false
// when the queue is full or the dispatcher is stopped.
func (dispatcher *Dispatcher) Enqueue(reference string) bool {
	dispatcher.mu.RLock()
	defer dispatcher.mu.RUnlock()
	if dispatcher.stopped {
		return false
	}
	select {
	case dispatcher.queue <- reference:
		dispatcher.observer.SetWebhookQueueDepth(len(dispatcher.queue))
		return true
	default:
		return false
	}
}

// Stop refuses new jobs, drains the queue, and waits for the workers.
func (dispatcher *Dispatcher) Stop() {
	dispatcher.mu.Lock()
	if dispatcher.stopped {
		dispatcher.mu.Unlock()
		return
	}
	dispatcher.stopped = true
	close(dispatcher.queue)
	started := dispatcher.started
	dispatcher.mu.Unlock()
	if !started {
		for range dispatcher.queue {
		}
		return
	}
	dispatcher.group.Wait()
	dispatcher.observer.SetWebhookQueueDepth(0)
}

func (dispatcher *Dispatcher) work(ctx context.Context) {
	defer dispatcher.group.Done()
	for reference := range dispatcher.queue {
		dispatcher.observer.SetWebhookQueueDepth(len(dispatcher.queue))
		dispatcher.settle(ctx, reference)
	}
}

func (dispatcher *Dispatcher) settle(ctx context.Context, reference string) {
	jobContext, cancel := context.WithTimeout(ctx, dispatcher.jobTimeout)
	defer cancel()
	result, err := dispatcher.settler.SettleByReference(jobContext, reference)
	if err != nil {
		dispatcher.observer.ObserveWebhook(ResultSettleError)
		dispatcher.logger.Error("webhook settlement failed",
			zap.String("reference", reference),
			zap.String("kind", string(ledger.KindOf(err))),
			zap.Error(err),
		)
		return
	}
	dispatcher.observer.ObserveWebhook(string(result.Outcome))
	dispatcher.logger.Info("webhook settlement",
		zap.String("reference", reference),
		zap.String("outcome", string(result.Outcome)),
		zap.String("gateway_status", result.GatewayStatus),
	)
}
