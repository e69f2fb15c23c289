package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/engine"
	"github.com/alexanderramin/kickoff/internal/lock"
	"github.com/alexanderramin/kickoff/internal/notify"
	"go.uber.org/zap"
)

// Runtime bundles the collaborators shared by services that mutate templates
// or processes.
type Runtime struct {
	UoW        db.UnitOfWork
	Locker     lock.Locker
	Clock      engine.Clock
	Dispatcher *notify.Dispatcher
	Sink       notify.Sink
	Logger     *zap.Logger
	Observer   UseCaseObserver
}

func (rt Runtime) withDefaults() Runtime {
	if rt.Locker == nil {
		rt.Locker = lock.NewLocalLocker()
	}
	if rt.Clock == nil {
		rt.Clock = engine.SystemClock{}
	}
	if rt.Dispatcher == nil {
		rt.Dispatcher = notify.NewDispatcher(rt.Clock, "")
	}
	if rt.Sink == nil {
		rt.Sink = notify.SinkFunc(func(context.Context, domain.Notification) error { return nil })
	}
	if rt.Logger == nil {
		rt.Logger = zap.NewNop()
	}
	rt.Observer = useCaseObserverOrNoop(rt.Observer)
	return rt
}

// locked runs fn while holding key.
func (rt Runtime) locked(ctx context.Context, key string, fn func() error) error {
	unlock, err := rt.Locker.Lock(ctx, key)
	if err != nil {
		return fmt.Errorf("acquiring %s: %w", key, err)
	}
	defer unlock()
	return fn()
}

// mutate runs fn in one transaction with a fresh batch as its notifier. The
// batch is delivered only after commit and discarded otherwise. Delivery
// errors are logged, never returned.
func (rt Runtime) mutate(ctx context.Context, fn func(ctx context.Context, tx db.DBTX, batch *notify.Batch) error) (int, error) {
	batch := notify.NewBatch(rt.Dispatcher)
	err := rt.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, tx, batch)
	})
	if err != nil {
		batch.Discard()
		return 0, err
	}
	queued := batch.Len()
	if err := batch.Flush(ctx, rt.Sink); err != nil {
		rt.Logger.Warn("notification delivery failed", zap.Error(err))
	}
	return queued, nil
}
