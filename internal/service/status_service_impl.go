package service

import (
	"context"
	"time"

	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/engine"
	"github.com/alexanderramin/kickoff/internal/lock"
	"github.com/alexanderramin/kickoff/internal/notify"
	"github.com/alexanderramin/kickoff/internal/repository"
)

type statusService struct {
	tasks repository.TaskRepo
	rt    Runtime
}

func NewStatusService(tasks repository.TaskRepo, rt Runtime) StatusService {
	return &statusService{tasks: tasks, rt: rt.withDefaults()}
}

func (s *statusService) SetTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus, actor string) (*StatusResult, error) {
	return s.transition(ctx, "set_task_status", taskID, func(m *engine.Machine) error {
		return m.SetStatus(taskID, status, actor)
	})
}

func (s *statusService) Complete(ctx context.Context, taskID, actor string) (*StatusResult, error) {
	return s.transition(ctx, "complete_task", taskID, func(m *engine.Machine) error {
		return m.Complete(taskID, actor)
	})
}

func (s *statusService) Skip(ctx context.Context, taskID, actor string) (*StatusResult, error) {
	return s.transition(ctx, "skip_task", taskID, func(m *engine.Machine) error {
		return m.Skip(taskID, actor)
	})
}

func (s *statusService) Start(ctx context.Context, taskID string) (*StatusResult, error) {
	return s.transition(ctx, "start_task", taskID, func(m *engine.Machine) error {
		return m.Start(taskID)
	})
}

// transition runs apply against the task's process graph under the process
// lock and persists every task the machine changed in one transaction.
func (s *statusService) transition(ctx context.Context, name, taskID string, apply func(*engine.Machine) error) (res *StatusResult, err error) {
	fields := map[string]any{"task_id": taskID}
	defer observe(ctx, s.rt.Observer, name, time.Now(), &err, fields)

	// A task never moves between processes, so the lookup can precede the lock.
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	fields["process_id"] = t.ProcessID

	err = s.rt.locked(ctx, lock.ProcessKey(t.ProcessID), func() error {
		queued, err := s.rt.mutate(ctx, func(ctx context.Context, tx db.DBTX, batch *notify.Batch) error {
			store := txTaskGraphStore(tx)
			g, err := store.load(ctx, t.ProcessID)
			if err != nil {
				return err
			}
			m := engine.NewMachine(g, s.rt.Clock, batch)
			if err := apply(m); err != nil {
				return err
			}
			changed := m.Changed()
			if err := store.saveStates(ctx, g, changed, s.rt.Clock); err != nil {
				return err
			}
			task, _ := g.Task(taskID)
			res = &StatusResult{Graph: g, Task: task, Changed: changed}
			return nil
		})
		if err != nil {
			return err
		}
		res.Notifications = queued
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["changed"] = len(res.Changed)
	return res, nil
}
