package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/kickoff/internal/cli/formatter"
	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/spf13/cobra"
)

func newEntityCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Manage reusable task definitions and their custom fields",
	}
	cmd.AddCommand(
		newEntityAddCmd(app),
		newEntityListCmd(app),
		newEntityShowCmd(app),
		newEntityFieldCmd(app),
		newEntityRemoveCmd(app),
	)
	return cmd
}

// parseFieldSpec reads NAME:TYPE[=DEFAULT]. Todo list defaults use "|" to
// separate items.
func parseFieldSpec(spec string) (domain.FieldDefinition, error) {
	head, def, _ := strings.Cut(spec, "=")
	name, typ, ok := strings.Cut(head, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return domain.FieldDefinition{}, fmt.Errorf("field %q: want NAME:TYPE[=DEFAULT]", spec)
	}
	f := domain.FieldDefinition{
		Name:         strings.TrimSpace(name),
		Type:         domain.FieldType(strings.TrimSpace(typ)),
		DefaultValue: def,
	}
	if f.Type == domain.FieldTodoList {
		f.DefaultValue = strings.ReplaceAll(def, "|", "\n")
	}
	return f, nil
}

func newEntityAddCmd(app *App) *cobra.Command {
	var name, description, category string
	var fields []string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an entity",
		Example: `  kickoff entity add --name Laptop --field "Model:text=ThinkPad" --field "Accessories:todolist=dock|mouse"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := &domain.Entity{Name: name, Description: description, Category: category}
			for _, spec := range fields {
				f, err := parseFieldSpec(spec)
				if err != nil {
					return err
				}
				e.Fields = append(e.Fields, f)
			}
			if err := app.Directory.CreateEntity(context.Background(), e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created entity %s (%s) with %d field(s)\n", e.Name, e.ID, len(e.Fields))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Entity name, used as the task name")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	cmd.Flags().StringVar(&category, "category", "", "Grouping label")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Custom field NAME:TYPE[=DEFAULT] (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newEntityListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			entities, err := app.Directory.ListEntities(context.Background())
			if err != nil {
				return err
			}
			if len(entities) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No entities found.")
				return nil
			}
			rows := make([][]string, 0, len(entities))
			for _, e := range entities {
				rows = append(rows, []string{
					formatter.TruncID(e.ID), e.Name, formatter.Optional(e.Category), fmt.Sprint(len(e.Fields)),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"ID", "Name", "Category", "Fields"}, rows))
			return nil
		},
	}
}

func newEntityShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ENTITY",
		Short: "Show an entity and its fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveEntityID(ctx, app, args[0])
			if err != nil {
				return err
			}
			e, err := app.Directory.GetEntity(ctx, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.Header(e.Name))
			if e.Description != "" {
				fmt.Fprintln(out, e.Description)
			}
			fmt.Fprintln(out)
			rows := make([][]string, 0, len(e.Fields))
			for _, f := range e.Fields {
				rows = append(rows, []string{
					formatter.TruncID(f.ID), f.Name, string(f.Type),
					formatter.Optional(strings.ReplaceAll(f.DefaultValue, "\n", " | ")),
				})
			}
			fmt.Fprint(out, formatter.RenderTable([]string{"ID", "Field", "Type", "Default"}, rows))
			return nil
		},
	}
}

func newEntityFieldCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: "Add or remove custom fields",
	}

	add := &cobra.Command{
		Use:   "add ENTITY NAME:TYPE[=DEFAULT]",
		Short: "Add a field definition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveEntityID(ctx, app, args[0])
			if err != nil {
				return err
			}
			f, err := parseFieldSpec(args[1])
			if err != nil {
				return err
			}
			if err := app.Directory.AddField(ctx, id, &f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added field %s (%s)\n", f.Name, f.ID)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove FIELD_ID",
		Short: "Remove a field definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Directory.RemoveField(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Field removed.")
			return nil
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}

func newEntityRemoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove ENTITY",
		Short: "Delete an entity no template uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveEntityID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := confirmDestructive(cmd, app, "delete entity "+id); err != nil {
				return err
			}
			if err := app.Directory.DeleteEntity(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Entity deleted.")
			return nil
		},
	}
	addYesFlag(cmd)
	return cmd
}
