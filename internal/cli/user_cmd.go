package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/kickoff/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newUserCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage people who own onboarding tasks",
	}
	cmd.AddCommand(
		newUserAddCmd(app),
		newUserListCmd(app),
		newUserDeactivateCmd(app),
	)
	return cmd
}

func newUserAddCmd(app *App) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.Directory.CreateUser(context.Background(), name, email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", u.Name, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUserListCmd(app *App) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.Directory.ListUsers(context.Background(), all)
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users found.")
				return nil
			}
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				state := formatter.StyleGreen.Render("active")
				if !u.Active {
					state = formatter.Dim("inactive")
				}
				rows = append(rows, []string{formatter.TruncID(u.ID), u.Name, u.Email, state})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"ID", "Name", "Email", "State"}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include inactive users")
	return cmd
}

func newUserDeactivateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate USER",
		Short: "Hide a user from listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveUserID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Directory.DeactivateUser(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "User deactivated.")
			return nil
		},
	}
}
