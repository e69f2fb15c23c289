package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/kickoff/internal/domain"
)

// resolvePrefix matches input against the IDs of items, first exactly and
// then as a unique prefix, so users can type the short IDs the list
// commands print.
func resolvePrefix[T any](kind, input string, items []T, id func(T) string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("%s ID is required", kind)
	}
	var matches []string
	for _, it := range items {
		v := id(it)
		if v == input {
			return v, nil
		}
		if strings.HasPrefix(v, input) {
			matches = append(matches, v)
		}
	}
	switch len(matches) {
	case 0:
		return "", &domain.NotFoundError{Kind: kind, ID: input}
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s ID prefix %q is ambiguous (%d matches)", kind, input, len(matches))
	}
}

func resolveTemplateID(ctx context.Context, app *App, input string) (string, error) {
	templates, err := app.Templates.List(ctx, true)
	if err != nil {
		return "", err
	}
	return resolvePrefix("template", input, templates, func(t *domain.Template) string { return t.ID })
}

func resolveProcessID(ctx context.Context, app *App, input string) (string, error) {
	processes, err := app.Processes.List(ctx)
	if err != nil {
		return "", err
	}
	return resolvePrefix("process", input, processes, func(p *domain.Process) string { return p.ID })
}

func resolveUserID(ctx context.Context, app *App, input string) (string, error) {
	users, err := app.Directory.ListUsers(ctx, true)
	if err != nil {
		return "", err
	}
	return resolvePrefix("user", input, users, func(u *domain.User) string { return u.ID })
}

func resolveEntityID(ctx context.Context, app *App, input string) (string, error) {
	entities, err := app.Directory.ListEntities(ctx)
	if err != nil {
		return "", err
	}
	return resolvePrefix("entity", input, entities, func(e *domain.Entity) string { return e.ID })
}

// resolveNodeID matches a node within one template.
func resolveNodeID(ctx context.Context, app *App, templateID, input string) (string, error) {
	g, err := app.Templates.Graph(ctx, templateID)
	if err != nil {
		return "", err
	}
	return resolvePrefix("template node", input, g.Nodes(), func(n *domain.TemplateNode) string { return n.ID })
}

// resolveTaskID matches a task within one process.
func resolveTaskID(ctx context.Context, app *App, processID, input string) (string, error) {
	g, err := app.Processes.Get(ctx, processID)
	if err != nil {
		return "", err
	}
	return resolvePrefix("task", input, g.Tasks(), func(t *domain.Task) string { return t.ID })
}
