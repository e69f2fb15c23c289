package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newOverdueCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "Remind assignees of tasks past their deadline",
		Long: "Sends one reminder per open task whose deadline is before today and\n" +
			"that has an assignee. Meant to run once a day from cron.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sent, err := app.Overdue.CheckOverdue(context.Background(), app.now().Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d overdue reminder(s).\n", sent)
			return nil
		},
	}
}
