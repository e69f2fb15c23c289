package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/kickoff/internal/agenda"
	"github.com/alexanderramin/kickoff/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newAgendaCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "agenda USER",
		Short: "Show a user's open tasks across processes, most urgent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			userID, err := resolveUserID(ctx, app, args[0])
			if err != nil {
				return err
			}
			u, err := app.Directory.GetUser(ctx, userID)
			if err != nil {
				return err
			}
			now := app.now().Now()
			a, err := app.Agenda.ForUser(ctx, userID, now, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.Header(u.Name))
			fmt.Fprintf(out, "  %d open, %s, %d completed\n\n",
				len(a.Items), overdueCount(a.Overdue), a.Completed)
			if len(a.Items) == 0 {
				fmt.Fprintln(out, "Nothing to do.")
				return nil
			}
			rows := make([][]string, 0, len(a.Items))
			for _, it := range a.Items {
				rows = append(rows, []string{
					formatter.TruncID(it.Process.ID),
					formatter.TruncID(it.Task.ID),
					it.Task.Name,
					it.Process.EmployeeName,
					formatter.StatusPill(it.Task.Status),
					formatter.Deadline(it.Task, now),
					urgencyLabel(it.Urgency),
				})
			}
			fmt.Fprint(out, formatter.RenderTable(
				[]string{"Process", "Task ID", "Task", "Employee", "Status", "Deadline", "Urgency"}, rows))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum tasks to list; 0 for all")
	return cmd
}

func overdueCount(n int) string {
	s := fmt.Sprintf("%d overdue", n)
	if n > 0 {
		return formatter.StyleRed.Render(s)
	}
	return s
}

func urgencyLabel(u agenda.Urgency) string {
	switch u {
	case agenda.UrgencyOverdue:
		return formatter.StyleRed.Render("overdue")
	case agenda.UrgencyDueSoon:
		return formatter.StyleYellow.Render("due soon")
	default:
		return formatter.Dim("on track")
	}
}
