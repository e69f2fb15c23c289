package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/kickoff/internal/cli/formatter"
	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/engine"
	"github.com/alexanderramin/kickoff/internal/importer"
	"github.com/spf13/cobra"
)

func newTemplateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Build onboarding templates",
	}
	cmd.AddCommand(
		newTemplateAddCmd(app),
		newTemplateListCmd(app),
		newTemplateShowCmd(app),
		newTemplateActiveCmd(app, "activate", true),
		newTemplateActiveCmd(app, "deactivate", false),
		newTemplateDuplicateCmd(app),
		newTemplateImportCmd(app),
		newTemplateRemoveCmd(app),
		newTemplateNodeCmd(app),
		newTemplateDepCmd(app),
		newTemplateRuleCmd(app),
	)
	return cmd
}

func newTemplateAddCmd(app *App) *cobra.Command {
	var name, description string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an empty template",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.Templates.Create(context.Background(), name, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created template %s (%s)\n", t.Name, t.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Template name")
	cmd.Flags().StringVar(&description, "description", "", "Template description")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTemplateListCmd(app *App) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := app.Templates.List(context.Background(), all)
			if err != nil {
				return err
			}
			if len(templates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No templates found.")
				return nil
			}
			rows := make([][]string, 0, len(templates))
			for _, t := range templates {
				state := formatter.StyleGreen.Render("active")
				if !t.Active {
					state = formatter.Dim("inactive")
				}
				rows = append(rows, []string{formatter.TruncID(t.ID), t.Name, state, t.UpdatedAt.Format("2006-01-02")})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"ID", "Name", "State", "Updated"}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include inactive templates")
	return cmd
}

func newTemplateShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show TEMPLATE",
		Short: "Show a template's nodes and dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			g, err := app.Templates.Graph(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTemplateGraph(g))
			return nil
		},
	}
}

func renderTemplateGraph(g *engine.TemplateGraph) string {
	var b strings.Builder
	b.WriteString(formatter.Header(g.Template.Name) + "\n")
	if g.Template.Description != "" {
		b.WriteString(g.Template.Description + "\n")
	}
	b.WriteString("\n")
	if g.Len() == 0 {
		b.WriteString(formatter.Dim("No nodes yet.") + "\n")
		return b.String()
	}

	rows := make([][]string, 0, g.Len())
	for _, n := range g.Nodes() {
		offset := formatter.Dim("--")
		if n.DaysBeforeStart != nil {
			offset = fmt.Sprintf("%dd before", *n.DaysBeforeStart)
		}
		var deps []string
		for _, id := range g.DependenciesOf(n.ID) {
			if d, ok := g.Node(id); ok {
				deps = append(deps, d.Name())
			}
		}
		rows = append(rows, []string{
			formatter.TruncID(n.ID),
			n.Name(),
			offset,
			formatter.Optional(strings.Join(deps, ", ")),
			fmt.Sprint(len(n.Rules)),
		})
	}
	b.WriteString(formatter.RenderTable([]string{"ID", "Node", "Deadline", "Depends on", "Rules"}, rows))
	return b.String()
}

func newTemplateActiveCmd(app *App, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " TEMPLATE",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a template for new hires",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Templates.SetActive(ctx, id, active); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template %sd.\n", use)
			return nil
		},
	}
}

func newTemplateDuplicateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate TEMPLATE",
		Short: "Copy a template with all nodes, rules and dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			t, err := app.Templates.Duplicate(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created template %s (%s)\n", t.Name, t.ID)
			return nil
		},
	}
}

func newTemplateImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create a template from a JSON or YAML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := importer.LoadTemplateDocument(args[0])
			if err != nil {
				return fmt.Errorf("loading import file: %w", err)
			}
			g, err := app.Templates.Import(context.Background(), doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported template %s (%s) with %d node(s)\n\n",
				g.Template.Name, g.Template.ID, g.Len())
			fmt.Fprint(cmd.OutOrStdout(), renderTemplateGraph(g))
			return nil
		},
	}
}

func newTemplateRemoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove TEMPLATE",
		Short: "Delete a template; running processes keep their tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			t, err := app.Templates.Get(ctx, id)
			if err != nil {
				return err
			}
			if err := confirmDestructive(cmd, app, fmt.Sprintf("delete template %q", t.Name)); err != nil {
				return err
			}
			if err := app.Templates.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Template deleted.")
			return nil
		},
	}
	addYesFlag(cmd)
	return cmd
}

func newTemplateNodeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Add, change or remove template nodes",
	}
	cmd.AddCommand(
		newTemplateNodeAddCmd(app),
		newTemplateNodeUpdateCmd(app),
		newTemplateNodeRemoveCmd(app),
	)
	return cmd
}

func newTemplateNodeAddCmd(app *App) *cobra.Command {
	var entity, assignee string
	var order int
	cmd := &cobra.Command{
		Use:   "add TEMPLATE",
		Short: "Add a node for an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			templateID, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			entityID, err := resolveEntityID(ctx, app, entity)
			if err != nil {
				return err
			}
			n := &domain.TemplateNode{
				TemplateID:      templateID,
				EntityID:        entityID,
				DaysBeforeStart: changedInt(cmd.Flags(), "days-before"),
				SortOrder:       order,
			}
			if assignee != "" {
				userID, err := resolveUserID(ctx, app, assignee)
				if err != nil {
					return err
				}
				n.DefaultAssigneeID = &userID
			}
			g, err := app.Templates.CreateTemplateNode(ctx, n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added node %s (%s)\n\n", n.Name(), n.ID)
			fmt.Fprint(cmd.OutOrStdout(), renderTemplateGraph(g))
			return nil
		},
	}
	cmd.Flags().StringVar(&entity, "entity", "", "Entity ID or prefix")
	cmd.Flags().Int("days-before", 0, "Deadline in days before the start date")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Default assignee user ID or prefix")
	cmd.Flags().IntVar(&order, "order", 0, "Sort order")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

func newTemplateNodeUpdateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update TEMPLATE NODE",
		Short: "Change a node's entity, deadline offset, assignee or order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			templateID, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			g, err := app.Templates.Graph(ctx, templateID)
			if err != nil {
				return err
			}
			nodeID, err := resolvePrefix("template node", args[1], g.Nodes(), func(n *domain.TemplateNode) string { return n.ID })
			if err != nil {
				return err
			}
			n, _ := g.Node(nodeID)

			fs := cmd.Flags()
			if v := changedString(fs, "entity"); v != nil {
				if n.EntityID, err = resolveEntityID(ctx, app, *v); err != nil {
					return err
				}
			}
			if fs.Changed("no-deadline") {
				n.DaysBeforeStart = nil
			} else if v := changedInt(fs, "days-before"); v != nil {
				n.DaysBeforeStart = v
			}
			if v := changedString(fs, "assignee"); v != nil {
				n.DefaultAssigneeID = nil
				if *v != "" {
					userID, err := resolveUserID(ctx, app, *v)
					if err != nil {
						return err
					}
					n.DefaultAssigneeID = &userID
				}
			}
			if v := changedInt(fs, "order"); v != nil {
				n.SortOrder = *v
			}
			if err := app.Templates.UpdateTemplateNode(ctx, n); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Node updated.")
			return nil
		},
	}
	cmd.Flags().String("entity", "", "Entity ID or prefix")
	cmd.Flags().Int("days-before", 0, "Deadline in days before the start date")
	cmd.Flags().Bool("no-deadline", false, "Remove the deadline offset")
	cmd.Flags().String("assignee", "", "Default assignee; empty to clear")
	cmd.Flags().Int("order", 0, "Sort order")
	return cmd
}

func newTemplateNodeRemoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove TEMPLATE NODE",
		Short: "Delete a node and its dependencies",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			templateID, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			nodeID, err := resolveNodeID(ctx, app, templateID, args[1])
			if err != nil {
				return err
			}
			if err := confirmDestructive(cmd, app, "delete node "+nodeID); err != nil {
				return err
			}
			if err := app.Templates.RemoveTemplateNode(ctx, nodeID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Node deleted.")
			return nil
		},
	}
	addYesFlag(cmd)
	return cmd
}

func newTemplateDepCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Add or remove dependencies between nodes",
	}

	edit := func(use, short string, apply func(ctx context.Context, node, dep string) (*engine.TemplateGraph, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " TEMPLATE NODE DEPENDENCY",
			Short: short,
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := context.Background()
				templateID, err := resolveTemplateID(ctx, app, args[0])
				if err != nil {
					return err
				}
				before, err := app.Templates.Graph(ctx, templateID)
				if err != nil {
					return err
				}
				byID := func(n *domain.TemplateNode) string { return n.ID }
				nodeID, err := resolvePrefix("template node", args[1], before.Nodes(), byID)
				if err != nil {
					return err
				}
				depID, err := resolvePrefix("template node", args[2], before.Nodes(), byID)
				if err != nil {
					return err
				}
				g, err := apply(ctx, nodeID, depID)
				if err != nil {
					return describeCycle(err, before)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTemplateGraph(g))
				return nil
			},
		}
	}

	cmd.AddCommand(
		edit("add", "Make NODE depend on DEPENDENCY", func(ctx context.Context, node, dep string) (*engine.TemplateGraph, error) {
			return app.Templates.AddDependency(ctx, node, dep)
		}),
		edit("remove", "Drop the dependency of NODE on DEPENDENCY", func(ctx context.Context, node, dep string) (*engine.TemplateGraph, error) {
			return app.Templates.RemoveDependency(ctx, node, dep)
		}),
	)
	return cmd
}

// describeCycle rewrites a cycle error with node names.
func describeCycle(err error, g *engine.TemplateGraph) error {
	var cycle *domain.CycleError
	if !errors.As(err, &cycle) {
		return err
	}
	name := func(id string) string {
		if n, ok := g.Node(id); ok {
			return n.Name()
		}
		return id
	}
	parts := make([]string, 0, len(cycle.Path)+1)
	for _, id := range cycle.Path {
		parts = append(parts, name(id))
	}
	parts = append(parts, name(cycle.DependencyID))
	return fmt.Errorf("%q cannot depend on %q: it would close the cycle %s: %w",
		name(cycle.NodeID), name(cycle.DependencyID), strings.Join(parts, " -> "), err)
}

func newTemplateRuleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Attach notification rules to nodes",
	}

	var trigger, user string
	var assignee, dependents, email, inApp bool
	add := &cobra.Command{
		Use:   "add TEMPLATE NODE",
		Short: "Notify people when the node's tasks reach a status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			templateID, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			nodeID, err := resolveNodeID(ctx, app, templateID, args[1])
			if err != nil {
				return err
			}
			r := &domain.NotificationRule{
				Trigger:                  domain.TaskStatus(trigger),
				NotifyAssignee:           assignee,
				NotifyDependentAssignees: dependents,
				SendEmail:                email,
				SendInApp:                inApp,
			}
			if user != "" {
				userID, err := resolveUserID(ctx, app, user)
				if err != nil {
					return err
				}
				r.NotifyUserID = &userID
			}
			if err := app.Templates.AddNotificationRule(ctx, nodeID, r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added rule %s\n", r.ID)
			return nil
		},
	}
	add.Flags().StringVar(&trigger, "on", string(domain.TaskReady), "Trigger status: ready, in_progress, completed or skipped")
	add.Flags().StringVar(&user, "user", "", "Notify this user")
	add.Flags().BoolVar(&assignee, "assignee", false, "Notify the task's assignee")
	add.Flags().BoolVar(&dependents, "dependents", false, "Notify assignees of dependent tasks")
	add.Flags().BoolVar(&email, "email", false, "Send by email")
	add.Flags().BoolVar(&inApp, "in-app", true, "Store in the recipient's inbox")

	remove := &cobra.Command{
		Use:   "remove RULE_ID",
		Short: "Delete a notification rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Templates.RemoveNotificationRule(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Rule deleted.")
			return nil
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}
