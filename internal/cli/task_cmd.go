package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/kickoff/internal/cli/formatter"
	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/service"
	"github.com/spf13/cobra"
)

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Work through a process's tasks",
	}
	cmd.AddCommand(
		newTaskTransitionCmd(app, "complete", "Mark a task completed and unlock its dependents",
			func(ctx context.Context, taskID, actor string) (*service.StatusResult, error) {
				return app.Status.Complete(ctx, taskID, actor)
			}),
		newTaskTransitionCmd(app, "skip", "Skip a task; dependents treat it as done",
			func(ctx context.Context, taskID, actor string) (*service.StatusResult, error) {
				return app.Status.Skip(ctx, taskID, actor)
			}),
		newTaskTransitionCmd(app, "start", "Move a ready task to in progress",
			func(ctx context.Context, taskID, _ string) (*service.StatusResult, error) {
				return app.Status.Start(ctx, taskID)
			}),
		newTaskStatusCmd(app),
		newTaskUpdateCmd(app),
		newTaskFieldCmd(app),
		newTaskTodoCmd(app),
	)
	return cmd
}

// resolveTaskArgs resolves PROCESS TASK positional arguments.
func resolveTaskArgs(ctx context.Context, app *App, args []string) (string, string, error) {
	processID, err := resolveProcessID(ctx, app, args[0])
	if err != nil {
		return "", "", err
	}
	taskID, err := resolveTaskID(ctx, app, processID, args[1])
	if err != nil {
		return "", "", err
	}
	return processID, taskID, nil
}

func resolveActor(ctx context.Context, app *App, by string) (string, error) {
	if by == "" {
		return "", nil
	}
	return resolveUserID(ctx, app, by)
}

func printStatusResult(cmd *cobra.Command, res *service.StatusResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s is now %s\n", res.Task.Name, formatter.StatusPill(res.Task.Status))
	for _, t := range res.Changed {
		if t.ID == res.Task.ID {
			continue
		}
		fmt.Fprintf(out, "  %s %s\n", formatter.StatusPill(t.Status), t.Name)
	}
	if res.Notifications > 0 {
		fmt.Fprintf(out, "%s\n", formatter.Dim(fmt.Sprintf("%d notification(s) sent", res.Notifications)))
	}
}

func newTaskTransitionCmd(app *App, use, short string, apply func(ctx context.Context, taskID, actor string) (*service.StatusResult, error)) *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   use + " PROCESS TASK",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, taskID, err := resolveTaskArgs(ctx, app, args)
			if err != nil {
				return err
			}
			actor, err := resolveActor(ctx, app, by)
			if err != nil {
				return err
			}
			res, err := apply(ctx, taskID, actor)
			if err != nil {
				return err
			}
			printStatusResult(cmd, res)
			return nil
		},
	}
	if use != "start" {
		cmd.Flags().StringVar(&by, "by", "", "User recorded as completing the task")
	}
	return cmd
}

func newTaskStatusCmd(app *App) *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "status PROCESS TASK STATUS",
		Short: "Set any status; reopening a done task relocks its dependents",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, taskID, err := resolveTaskArgs(ctx, app, args)
			if err != nil {
				return err
			}
			actor, err := resolveActor(ctx, app, by)
			if err != nil {
				return err
			}
			res, err := app.Status.SetTaskStatus(ctx, taskID, domain.TaskStatus(args[2]), actor)
			if err != nil {
				return err
			}
			printStatusResult(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "", "User recorded when the status completes the task")
	return cmd
}

func newTaskUpdateCmd(app *App) *cobra.Command {
	var clearDeadline bool
	cmd := &cobra.Command{
		Use:   "update PROCESS TASK",
		Short: "Rename, reassign or reschedule a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, taskID, err := resolveTaskArgs(ctx, app, args)
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			upd := service.TaskUpdate{
				Name:          changedString(fs, "name"),
				Description:   changedString(fs, "description"),
				ClearDeadline: clearDeadline,
			}
			if v := changedString(fs, "assignee"); v != nil {
				id := ""
				if *v != "" {
					if id, err = resolveUserID(ctx, app, *v); err != nil {
						return err
					}
				}
				upd.AssigneeID = &id
			}
			if v := changedString(fs, "deadline"); v != nil {
				d, err := time.Parse(time.DateOnly, *v)
				if err != nil {
					return fmt.Errorf("invalid deadline %q: %w", *v, err)
				}
				upd.Deadline = &d
			}
			t, err := app.Processes.UpdateTask(ctx, taskID, upd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", t.Name)
			return nil
		},
	}
	cmd.Flags().String("name", "", "New task name")
	cmd.Flags().String("description", "", "New description")
	cmd.Flags().String("assignee", "", "Assignee user; empty to unassign")
	cmd.Flags().String("deadline", "", "Deadline (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDeadline, "clear-deadline", false, "Remove the deadline")
	return cmd
}

// findField matches a task's field value by ID prefix or case-insensitive name.
func findField(ctx context.Context, app *App, processID, taskID, input string) (*domain.FieldValue, error) {
	g, err := app.Processes.Get(ctx, processID)
	if err != nil {
		return nil, err
	}
	t, ok := g.Task(taskID)
	if !ok {
		return nil, &domain.NotFoundError{Kind: "task", ID: taskID}
	}
	for i := range t.Fields {
		if strings.EqualFold(t.Fields[i].Name, input) {
			return &t.Fields[i], nil
		}
	}
	id, err := resolvePrefix("field value", input, t.Fields, func(fv domain.FieldValue) string { return fv.ID })
	if err != nil {
		return nil, err
	}
	for i := range t.Fields {
		if t.Fields[i].ID == id {
			return &t.Fields[i], nil
		}
	}
	return nil, &domain.NotFoundError{Kind: "field value", ID: input}
}

func newTaskFieldCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "field PROCESS TASK FIELD VALUE",
		Short: "Set a text, number or checkbox field",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			processID, taskID, err := resolveTaskArgs(ctx, app, args)
			if err != nil {
				return err
			}
			fv, err := findField(ctx, app, processID, taskID, args[2])
			if err != nil {
				return err
			}
			in, err := parseFieldInput(fv.Type, args[3])
			if err != nil {
				return err
			}
			updated, err := app.Processes.SetFieldValue(ctx, fv.ID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", updated.Name, fieldValueText(*updated))
			return nil
		},
	}
}

func parseFieldInput(typ domain.FieldType, raw string) (service.FieldInput, error) {
	switch typ {
	case domain.FieldNumber:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return service.FieldInput{}, fmt.Errorf("invalid number %q: %w", raw, err)
		}
		return service.FieldInput{Number: &v}, nil
	case domain.FieldCheckbox:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return service.FieldInput{}, fmt.Errorf("invalid checkbox value %q: %w", raw, err)
		}
		return service.FieldInput{Checkbox: &v}, nil
	default:
		return service.FieldInput{Text: &raw}, nil
	}
}

func newTaskTodoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "todo PROCESS TASK FIELD add|toggle|remove ARG",
		Short: "Edit a todo list field",
		Example: `  kickoff task todo 3f2a 91bc Accessories add "USB-C dock"
  kickoff task todo 3f2a 91bc Accessories toggle 0`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			processID, taskID, err := resolveTaskArgs(ctx, app, args)
			if err != nil {
				return err
			}
			fv, err := findField(ctx, app, processID, taskID, args[2])
			if err != nil {
				return err
			}
			action := domain.TodoAction(args[3])
			var payload domain.TodoPayload
			if action == domain.TodoAdd {
				payload.Text = args[4]
			} else if payload.Index, err = strconv.Atoi(args[4]); err != nil {
				return fmt.Errorf("invalid item index %q: %w", args[4], err)
			}
			updated, err := app.Processes.ToggleTodoItem(ctx, fv.ID, action, payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", updated.Name, fieldValueText(*updated))
			return nil
		},
	}
}
