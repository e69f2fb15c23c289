package notify

import (
	"context"
	"sync"

	"github.com/alexanderramin/kickoff/internal/domain"
	"go.uber.org/zap"
)

// AsyncSink queues notifications for a fixed pool of workers that deliver
// them to next. Send never blocks: when the queue is full or the sink is
// closed the notification is dropped and logged.
type AsyncSink struct {
	next    Sink
	logger  *zap.Logger
	metrics *Metrics
	ctx     context.Context
	queue   chan domain.Notification
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewAsyncSink starts workers goroutines. Deliveries run under ctx rather
// than the caller's request context, which is usually gone by then.
func NewAsyncSink(ctx context.Context, next Sink, workers, queueSize int, logger *zap.Logger, metrics *Metrics) *AsyncSink {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	s := &AsyncSink{
		next:    next,
		logger:  logger,
		metrics: metrics,
		ctx:     ctx,
		queue:   make(chan domain.Notification, queueSize),
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.run()
	}
	return s
}

func (s *AsyncSink) Send(_ context.Context, n domain.Notification) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.drop(n, "sink closed")
		return nil
	}
	select {
	case s.queue <- n:
		s.metrics.Queued.Inc()
	default:
		s.drop(n, "queue full")
	}
	return nil
}

// Close stops accepting notifications and waits for the queue to drain.
func (s *AsyncSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *AsyncSink) run() {
	defer s.wg.Done()
	for n := range s.queue {
		s.metrics.Queued.Dec()
		if err := s.next.Send(s.ctx, n); err != nil {
			s.metrics.Failed.Inc()
			s.logger.Warn("notification delivery failed",
				zap.String("notification_id", n.ID),
				zap.String("recipient_id", n.RecipientID),
				zap.String("task_id", n.TaskID),
				zap.Error(err),
			)
			continue
		}
		s.metrics.Delivered.Inc()
	}
}

func (s *AsyncSink) drop(n domain.Notification, reason string) {
	s.metrics.Dropped.Inc()
	s.logger.Warn("notification dropped",
		zap.String("reason", reason),
		zap.String("notification_id", n.ID),
		zap.String("recipient_id", n.RecipientID),
		zap.String("task_id", n.TaskID),
	)
}
