package service

import (
	"context"
	"time"

	"github.com/alexanderramin/kickoff/internal/notify"
	"github.com/alexanderramin/kickoff/internal/repository"
	"go.uber.org/zap"
)

type overdueService struct {
	graphs taskGraphStore
	rt     Runtime
}

func NewOverdueService(
	processes repository.ProcessRepo,
	tasks repository.TaskRepo,
	taskDeps repository.TaskDependencyRepo,
	rt Runtime,
) OverdueService {
	return &overdueService{
		graphs: taskGraphStore{processes: processes, tasks: tasks, deps: taskDeps},
		rt:     rt.withDefaults(),
	}
}

// CheckOverdue sends one reminder per overdue task that has an assignee and
// returns how many were sent. Nothing is written besides the reminders.
func (s *overdueService) CheckOverdue(ctx context.Context, now time.Time) (sent int, err error) {
	fields := map[string]any{}
	defer observe(ctx, s.rt.Observer, "check_overdue", time.Now(), &err, fields)

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	overdue, err := s.graphs.tasks.ListOverdue(ctx, today)
	if err != nil {
		return 0, err
	}

	var processIDs []string
	seen := make(map[string]bool)
	for _, t := range overdue {
		if !seen[t.ProcessID] {
			seen[t.ProcessID] = true
			processIDs = append(processIDs, t.ProcessID)
		}
	}

	batch := notify.NewBatch(s.rt.Dispatcher)
	for _, id := range processIDs {
		g, err := s.graphs.load(ctx, id)
		if err != nil {
			return 0, err
		}
		for _, t := range g.Overdue(now) {
			batch.Add(s.rt.Dispatcher.PlanOverdue(g, t)...)
		}
	}
	sent = batch.Len()
	fields["processes"] = len(processIDs)
	fields["sent"] = sent
	if err := batch.Flush(ctx, s.rt.Sink); err != nil {
		s.rt.Logger.Warn("overdue reminder delivery failed", zap.Error(err))
	}
	return sent, nil
}
