package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/engine"
	"github.com/alexanderramin/kickoff/internal/lock"
	"github.com/alexanderramin/kickoff/internal/notify"
	"github.com/alexanderramin/kickoff/internal/repository"
)

type processService struct {
	graphs       taskGraphStore
	instantiator *engine.Instantiator
	rt           Runtime
}

func NewProcessService(
	processes repository.ProcessRepo,
	tasks repository.TaskRepo,
	taskDeps repository.TaskDependencyRepo,
	rt Runtime,
) ProcessService {
	rt = rt.withDefaults()
	return &processService{
		graphs:       taskGraphStore{processes: processes, tasks: tasks, deps: taskDeps},
		instantiator: engine.NewInstantiator(rt.Clock),
		rt:           rt,
	}
}

func (s *processService) InstantiateProcess(ctx context.Context, templateID string, params engine.HireParams) (g *engine.TaskGraph, err error) {
	fields := map[string]any{"template_id": templateID}
	defer observe(ctx, s.rt.Observer, "instantiate_process", time.Now(), &err, fields)

	_, err = s.rt.mutate(ctx, func(ctx context.Context, tx db.DBTX, batch *notify.Batch) error {
		tg, err := txTemplateGraphStore(tx).load(ctx, templateID)
		if err != nil {
			return err
		}
		if !tg.Template.Active {
			return &domain.ValidationError{Field: "template", Message: fmt.Sprintf("template %q is inactive", tg.Template.Name)}
		}
		built, err := s.instantiator.Instantiate(tg, params, batch)
		if err != nil {
			return err
		}
		if err := txTaskGraphStore(tx).create(ctx, built); err != nil {
			return &domain.InstantiationError{TemplateID: templateID, Err: err}
		}
		g = built
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["process_id"] = g.Process.ID
	fields["tasks"] = g.Len()
	return g, nil
}

func (s *processService) Get(ctx context.Context, processID string) (*engine.TaskGraph, error) {
	return s.graphs.load(ctx, processID)
}

func (s *processService) List(ctx context.Context) ([]*domain.Process, error) {
	return s.graphs.processes.List(ctx)
}

func (s *processService) Delete(ctx context.Context, processID string) (err error) {
	defer observe(ctx, s.rt.Observer, "delete_process", time.Now(), &err, map[string]any{"process_id": processID})

	return s.rt.locked(ctx, lock.ProcessKey(processID), func() error {
		return s.graphs.processes.Delete(ctx, processID)
	})
}

func (s *processService) UpdateTask(ctx context.Context, taskID string, upd TaskUpdate) (task *domain.Task, err error) {
	defer observe(ctx, s.rt.Observer, "update_task", time.Now(), &err, map[string]any{"task_id": taskID})

	if upd.Name != nil {
		if err := requireName("name", *upd.Name); err != nil {
			return nil, err
		}
	}
	if upd.Deadline != nil && upd.ClearDeadline {
		return nil, &domain.ValidationError{Field: "deadline", Message: "cannot set and clear at once"}
	}

	err = s.withTask(ctx, taskID, func(ctx context.Context, tx db.DBTX, processID string) error {
		store := txTaskGraphStore(tx)
		t, err := store.tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if upd.Name != nil {
			t.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Description != nil {
			t.Description = *upd.Description
		}
		if upd.AssigneeID != nil {
			if *upd.AssigneeID == "" {
				t.AssigneeID = nil
			} else {
				if _, err := repository.NewSQLiteUserRepo(tx).GetByID(ctx, *upd.AssigneeID); err != nil {
					return err
				}
				id := *upd.AssigneeID
				t.AssigneeID = &id
			}
		}
		switch {
		case upd.Deadline != nil:
			d := time.Date(upd.Deadline.Year(), upd.Deadline.Month(), upd.Deadline.Day(), 0, 0, 0, 0, time.UTC)
			t.Deadline = &d
			t.DeadlineOverridden = true
		case upd.ClearDeadline:
			t.Deadline = nil
			t.DeadlineOverridden = true
		}
		if err := store.tasks.Update(ctx, t); err != nil {
			return err
		}
		if err := store.processes.Touch(ctx, processID, s.rt.Clock.Now()); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *processService) SetFieldValue(ctx context.Context, fieldValueID string, in FieldInput) (*domain.FieldValue, error) {
	return s.updateField(ctx, "set_field_value", fieldValueID, func(fv *domain.FieldValue) error {
		switch fv.Type {
		case domain.FieldText:
			if in.Text == nil {
				return fieldInputError(fv, "text")
			}
			fv.Text = *in.Text
		case domain.FieldNumber:
			if in.Number == nil {
				return fieldInputError(fv, "number")
			}
			v := *in.Number
			fv.Number = &v
		case domain.FieldCheckbox:
			if in.Checkbox == nil {
				return fieldInputError(fv, "checkbox")
			}
			v := *in.Checkbox
			fv.Checkbox = &v
		default:
			return &domain.ValidationError{Field: fv.Name, Message: "todo lists change through todo actions"}
		}
		return nil
	})
}

func (s *processService) ToggleTodoItem(ctx context.Context, fieldValueID string, action domain.TodoAction, p domain.TodoPayload) (*domain.FieldValue, error) {
	return s.updateField(ctx, "toggle_todo_item", fieldValueID, func(fv *domain.FieldValue) error {
		if fv.Type != domain.FieldTodoList {
			return &domain.ValidationError{Field: fv.Name, Message: fmt.Sprintf("%s field has no todo items", fv.Type)}
		}
		items, err := domain.ApplyTodoAction(fv.Todos, action, p)
		if err != nil {
			return err
		}
		fv.Todos = items
		return nil
	})
}

func (s *processService) updateField(ctx context.Context, name, fieldValueID string, apply func(*domain.FieldValue) error) (out *domain.FieldValue, err error) {
	defer observe(ctx, s.rt.Observer, name, time.Now(), &err, map[string]any{"field_value_id": fieldValueID})

	fv, err := s.graphs.tasks.GetFieldValue(ctx, fieldValueID)
	if err != nil {
		return nil, err
	}
	err = s.withTask(ctx, fv.TaskID, func(ctx context.Context, tx db.DBTX, _ string) error {
		tasks := repository.NewSQLiteTaskRepo(tx)
		current, err := tasks.GetFieldValue(ctx, fieldValueID)
		if err != nil {
			return err
		}
		if err := apply(current); err != nil {
			return err
		}
		if err := tasks.UpdateFieldValue(ctx, current); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// withTask runs fn in a transaction while holding the lock of the task's
// process.
func (s *processService) withTask(ctx context.Context, taskID string, fn func(ctx context.Context, tx db.DBTX, processID string) error) error {
	t, err := s.graphs.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	return s.rt.locked(ctx, lock.ProcessKey(t.ProcessID), func() error {
		return s.rt.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			return fn(ctx, tx, t.ProcessID)
		})
	})
}

func fieldInputError(fv *domain.FieldValue, want string) error {
	return &domain.ValidationError{Field: fv.Name, Message: fmt.Sprintf("expects a %s value", want)}
}
