package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/club-ledger/internal/core/events"
)

type Worker struct {
	ID         int
	WorkerPool chan chan Notification
	JobChannel chan Notification
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Notification, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Notification),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Notification)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				w.Logger.Debug("notification worker shutting down", "worker_id", w.ID)
				return
			}

			select {
			case n := <-w.JobChannel:
				w.Logger.Debug("worker delivering notification", "worker_id", w.ID, "notification_id", n.ID)
				processFunc(n)
			case <-ctx.Done():
				w.Logger.Debug("notification worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Config struct {
	MaxWorkers     int
	JobQueueSize   int
	PublishTimeout time.Duration
}

// Dispatcher delivers notifications through a bounded queue and a worker
// pool. Enqueueing never blocks: a full queue drops the notification.
type Dispatcher struct {
	publisher      Publisher
	publishTimeout time.Duration
	logger         *slog.Logger

	jobQueue   chan Notification
	workerPool chan chan Notification
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewDispatcher(publisher Publisher, config Config, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	publishTimeout := config.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = 5 * time.Second
	}

	d := &Dispatcher{
		publisher:      publisher,
		publishTimeout: publishTimeout,
		logger:         logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan Notification, jobQueueSize),
		workerPool: make(chan chan Notification, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	d.start()

	return d
}

func (d *Dispatcher) start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			worker := NewWorker(i, d.workerPool, d.logger)
			worker.Start(d.ctx, &d.wg, d.deliver)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("notification worker pool started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for {
		select {
		case n := <-d.jobQueue:
			select {
			case jobChannel := <-d.workerPool:
				select {
				case jobChannel <- n:
				case <-d.ctx.Done():
					return
				}
			case <-d.ctx.Done():
				return
			}
		case <-d.ctx.Done():
			d.logger.Info("notification dispatcher shutting down")
			return
		}
	}
}

// Enqueue queues n for delivery and reports whether it was accepted.
func (d *Dispatcher) Enqueue(n Notification) bool {
	select {
	case <-d.ctx.Done():
		d.logger.Warn("notification dropped, dispatcher stopped", "notification_id", n.ID, "type", n.Type)
		return false
	default:
	}

	select {
	case d.jobQueue <- n:
		d.logger.Debug("notification queued",
			"notification_id", n.ID,
			"type", n.Type,
			"queue_length", len(d.jobQueue))
		return true
	default:
		d.logger.Warn("notification queue full, dropping notification",
			"notification_id", n.ID,
			"type", n.Type,
			"expense_id", n.ExpenseID,
			"queue_capacity", cap(d.jobQueue))
		return false
	}
}

func (d *Dispatcher) deliver(n Notification) {
	ctx, cancel := context.WithTimeout(d.ctx, d.publishTimeout)
	defer cancel()

	if err := d.publisher.Publish(ctx, n); err != nil {
		d.logger.Error("failed to deliver notification",
			"notification_id", n.ID,
			"type", n.Type,
			"expense_id", n.ExpenseID,
			"error", err)
		return
	}
	d.logger.Debug("notification delivered", "notification_id", n.ID, "type", n.Type)
}

// HandleExpenseEvent is the event bus handler for ledger events.
func (d *Dispatcher) HandleExpenseEvent(ctx context.Context, event events.Event) error {
	n, err := FromEvent(event)
	if err != nil {
		d.logger.Error("invalid event for notification handler", "event_type", event.EventType(), "error", err)
		return err
	}
	d.Enqueue(n)
	return nil
}

func (d *Dispatcher) RegisterEventHandlers(eventBus *events.EventBus) {
	for _, eventType := range events.ExpenseEventTypes {
		eventBus.Subscribe(eventType, d.HandleExpenseEvent)
	}

	d.logger.Info("notification event handlers registered", "handlers", events.ExpenseEventTypes)
}

func (d *Dispatcher) Shutdown() {
	d.logger.Info("shutting down notification dispatcher")
	d.cancel()
	d.wg.Wait()
	if err := d.publisher.Close(); err != nil {
		d.logger.Warn("failed to close notification publisher", "error", err)
	}
	d.logger.Info("notification dispatcher shutdown complete")
}
