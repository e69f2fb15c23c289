package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/kickoff/internal/cli/formatter"
	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/engine"
	"github.com/spf13/cobra"
)

func newProcessCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "process",
		Aliases: []string{"hire"},
		Short:   "Run onboarding processes for new hires",
	}
	cmd.AddCommand(
		newProcessStartCmd(app),
		newProcessListCmd(app),
		newProcessShowCmd(app),
		newProcessRemoveCmd(app),
	)
	return cmd
}

func newProcessStartCmd(app *App) *cobra.Command {
	var p engine.HireParams
	var start, by string
	cmd := &cobra.Command{
		Use:   "start TEMPLATE",
		Short: "Create a process for a new hire from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			templateID, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if p.StartDate, err = time.Parse(time.DateOnly, start); err != nil {
				return fmt.Errorf("invalid start date %q: %w", start, err)
			}
			if by != "" {
				userID, err := resolveUserID(ctx, app, by)
				if err != nil {
					return err
				}
				p.CreatedBy = &userID
			}
			g, err := app.Processes.InstantiateProcess(ctx, templateID, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started onboarding for %s (%s) with %d task(s)\n\n",
				g.Process.EmployeeName, g.Process.ID, g.Len())
			fmt.Fprint(cmd.OutOrStdout(), renderTaskGraph(ctx, app, g, false))
			return nil
		},
	}
	cmd.Flags().StringVar(&p.EmployeeName, "name", "", "Employee name")
	cmd.Flags().StringVar(&p.Email, "email", "", "Employee email")
	cmd.Flags().StringVar(&p.Department, "department", "", "Department")
	cmd.Flags().StringVar(&p.Position, "position", "", "Position")
	cmd.Flags().StringVar(&p.Notes, "notes", "", "Free-form notes")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&by, "by", "", "User creating the process")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func newProcessListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List processes, latest start first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			processes, err := app.Processes.List(ctx)
			if err != nil {
				return err
			}
			if len(processes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No processes found.")
				return nil
			}
			rows := make([][]string, 0, len(processes))
			for _, p := range processes {
				g, err := app.Processes.Get(ctx, p.ID)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					formatter.TruncID(p.ID),
					p.EmployeeName,
					formatter.Optional(p.Department),
					p.StartDate.Format(time.DateOnly),
					formatter.RenderProgress(g.Progress(), 10),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"ID", "Employee", "Department", "Start", "Progress"}, rows))
			return nil
		},
	}
}

func newProcessShowCmd(app *App) *cobra.Command {
	var fields bool
	cmd := &cobra.Command{
		Use:   "show PROCESS",
		Short: "Show a process's tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveProcessID(ctx, app, args[0])
			if err != nil {
				return err
			}
			g, err := app.Processes.Get(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTaskGraph(ctx, app, g, fields))
			return nil
		},
	}
	cmd.Flags().BoolVar(&fields, "fields", false, "Include custom field values")
	return cmd
}

func newProcessRemoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove PROCESS",
		Short: "Delete a process and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveProcessID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := confirmDestructive(cmd, app, "delete process "+id); err != nil {
				return err
			}
			if err := app.Processes.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Process deleted.")
			return nil
		},
	}
	addYesFlag(cmd)
	return cmd
}

// userNames maps user IDs to display names. Lookup failures leave the map
// empty and callers fall back to IDs.
func userNames(ctx context.Context, app *App) map[string]string {
	names := make(map[string]string)
	users, err := app.Directory.ListUsers(ctx, true)
	if err != nil {
		return names
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names
}

func renderTaskGraph(ctx context.Context, app *App, g *engine.TaskGraph, withFields bool) string {
	now := app.now().Now()
	names := userNames(ctx, app)
	p := g.Process

	var b strings.Builder
	b.WriteString(formatter.Header(p.EmployeeName) + "\n")
	fmt.Fprintf(&b, "  Start:    %s\n", p.StartDate.Format(time.DateOnly))
	if p.Position != "" || p.Department != "" {
		fmt.Fprintf(&b, "  Role:     %s\n", strings.Trim(p.Position+", "+p.Department, ", "))
	}
	fmt.Fprintf(&b, "  Progress: %s\n\n", formatter.RenderProgress(g.Progress(), 20))

	rows := make([][]string, 0, g.Len())
	for _, t := range g.Tasks() {
		assignee := formatter.Dim("--")
		if t.AssigneeID != nil {
			assignee = names[*t.AssigneeID]
			if assignee == "" {
				assignee = formatter.TruncID(*t.AssigneeID)
			}
		}
		var deps []string
		for _, d := range g.DependenciesOf(t.ID) {
			deps = append(deps, d.Name)
		}
		rows = append(rows, []string{
			formatter.TruncID(t.ID),
			t.Name,
			formatter.StatusPill(t.Status),
			assignee,
			formatter.Deadline(t, now),
			formatter.Optional(strings.Join(deps, ", ")),
		})
	}
	b.WriteString(formatter.RenderTable([]string{"ID", "Task", "Status", "Assignee", "Deadline", "Depends on"}, rows))

	if withFields {
		for _, t := range g.Tasks() {
			if len(t.Fields) == 0 {
				continue
			}
			b.WriteString("\n" + formatter.Bold(t.Name) + "\n")
			for _, fv := range t.Fields {
				fmt.Fprintf(&b, "  %s %s: %s\n", formatter.TruncID(fv.ID), fv.Name, fieldValueText(fv))
			}
		}
	}
	return b.String()
}

func fieldValueText(fv domain.FieldValue) string {
	switch fv.Type {
	case domain.FieldText:
		return formatter.Optional(fv.Text)
	case domain.FieldNumber:
		if fv.Number == nil {
			return formatter.Dim("--")
		}
		return fmt.Sprint(*fv.Number)
	case domain.FieldCheckbox:
		if fv.Checkbox == nil {
			return formatter.Dim("--")
		}
		return formatter.Check(*fv.Checkbox)
	case domain.FieldTodoList:
		if len(fv.Todos) == 0 {
			return formatter.Dim("(empty)")
		}
		parts := make([]string, len(fv.Todos))
		for i, item := range fv.Todos {
			parts[i] = fmt.Sprintf("%d.%s %s", i, formatter.Check(item.Done), item.Text)
		}
		return strings.Join(parts, "  ")
	default:
		return string(fv.Type)
	}
}
