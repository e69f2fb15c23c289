package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/kickoff/internal/cli/formatter"
	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/spf13/cobra"
)

func newInboxCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Read in-app notifications",
	}

	var unread bool
	list := &cobra.Command{
		Use:   "list USER",
		Short: "List a user's notifications, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			userID, err := resolveUserID(ctx, app, args[0])
			if err != nil {
				return err
			}
			notifications, err := app.Inbox.List(ctx, userID, unread)
			if err != nil {
				return err
			}
			if len(notifications) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Inbox is empty.")
				return nil
			}
			rows := make([][]string, 0, len(notifications))
			for _, n := range notifications {
				marker := formatter.StyleBlue.Render("●")
				if n.Read {
					marker = " "
				}
				rows = append(rows, []string{
					marker,
					formatter.TruncID(n.ID),
					n.CreatedAt.Format("2006-01-02 15:04"),
					string(n.Type),
					n.Title,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"", "ID", "When", "Type", "Title"}, rows))
			return nil
		},
	}
	list.Flags().BoolVar(&unread, "unread", false, "Only unread notifications")

	read := &cobra.Command{
		Use:   "read USER NOTIFICATION",
		Short: "Mark one notification read",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			userID, err := resolveUserID(ctx, app, args[0])
			if err != nil {
				return err
			}
			notifications, err := app.Inbox.List(ctx, userID, false)
			if err != nil {
				return err
			}
			id, err := resolvePrefix("notification", args[1], notifications, func(n *domain.Notification) string { return n.ID })
			if err != nil {
				return err
			}
			if err := app.Inbox.MarkRead(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Marked read.")
			return nil
		},
	}

	readAll := &cobra.Command{
		Use:   "read-all USER",
		Short: "Mark all of a user's notifications read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			userID, err := resolveUserID(ctx, app, args[0])
			if err != nil {
				return err
			}
			n, err := app.Inbox.MarkAllRead(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d notification(s) read.\n", n)
			return nil
		},
	}

	cmd.AddCommand(list, read, readAll)
	return cmd
}
