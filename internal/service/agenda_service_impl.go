package service

import (
	"context"
	"time"

	"github.com/alexanderramin/kickoff/internal/agenda"
	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/repository"
)

type agendaService struct {
	users     repository.UserRepo
	tasks     repository.TaskRepo
	processes repository.ProcessRepo
}

func NewAgendaService(users repository.UserRepo, tasks repository.TaskRepo, processes repository.ProcessRepo) AgendaService {
	return &agendaService{users: users, tasks: tasks, processes: processes}
}

func (s *agendaService) ForUser(ctx context.Context, userID string, now time.Time, limit int) (*agenda.Agenda, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByAssignee(ctx, userID)
	if err != nil {
		return nil, err
	}
	processes := make(map[string]*domain.Process)
	for _, t := range tasks {
		if _, ok := processes[t.ProcessID]; ok {
			continue
		}
		p, err := s.processes.GetByID(ctx, t.ProcessID)
		if err != nil {
			return nil, err
		}
		processes[p.ID] = p
	}
	return agenda.Build(userID, tasks, processes, now, limit), nil
}
