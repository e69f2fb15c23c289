package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/engine"
)

// Batch collects the notifications planned during one unit of work. It is
// the engine.Notifier handed to the machine; nothing leaves the batch until
// Flush is called after commit.
type Batch struct {
	dispatcher *Dispatcher

	mu      sync.Mutex
	pending []domain.Notification
}

var _ engine.Notifier = (*Batch)(nil)

func NewBatch(d *Dispatcher) *Batch {
	return &Batch{dispatcher: d}
}

func (b *Batch) Notify(g *engine.TaskGraph, t *domain.Task, trigger domain.TaskStatus) {
	planned := b.dispatcher.Plan(g, t, trigger)
	if len(planned) == 0 {
		return
	}
	b.mu.Lock()
	b.pending = append(b.pending, planned...)
	b.mu.Unlock()
}

// Add queues notifications planned outside the machine, such as overdue
// reminders.
func (b *Batch) Add(ns ...domain.Notification) {
	b.mu.Lock()
	b.pending = append(b.pending, ns...)
	b.mu.Unlock()
}

// Pending returns a copy of the queued notifications.
func (b *Batch) Pending() []domain.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Notification, len(b.pending))
	copy(out, b.pending)
	return out
}

func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Flush hands every queued notification to sink and empties the batch. All
// notifications are attempted; the returned error joins the failures.
func (b *Batch) Flush(ctx context.Context, sink Sink) error {
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	var errs []error
	for _, n := range pending {
		if err := sink.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops everything queued. Used when the unit of work rolls back.
func (b *Batch) Discard() {
	b.mu.Lock()
	b.pending = nil
	b.mu.Unlock()
}
