package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/graph"
)

// Validate checks the document for errors before conversion and returns all
// of them. References to stored entities and users are checked by Convert.
func Validate(doc *TemplateDocument) []error {
	var errs []error

	if strings.TrimSpace(doc.Template.Name) == "" {
		errs = append(errs, errors.New("template.name is required"))
	}
	errs = append(errs, validateEntities(doc.Entities)...)

	refs := make(map[string]bool)
	errs = append(errs, validateNodes(doc.Nodes, refs)...)
	errs = append(errs, validateDependencies(doc.Dependencies, refs)...)

	return errs
}

func validateEntities(entities []EntityImport) []error {
	var errs []error
	seen := make(map[string]bool)

	for i, e := range entities {
		prefix := fmt.Sprintf("entities[%d]", i)
		key := nameKey(e.Name)
		if key == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else if seen[key] {
			errs = append(errs, fmt.Errorf("%s.name: duplicate entity %q", prefix, e.Name))
		} else {
			seen[key] = true
		}
		for j, f := range e.Fields {
			fp := fmt.Sprintf("%s.fields[%d]", prefix, j)
			if strings.TrimSpace(f.Name) == "" {
				errs = append(errs, fmt.Errorf("%s.name is required", fp))
			}
			if !domain.ValidFieldTypes[domain.FieldType(f.Type)] {
				errs = append(errs, fmt.Errorf("%s.type: invalid value %q", fp, f.Type))
			}
		}
	}
	return errs
}

func validateNodes(nodes []NodeImport, refs map[string]bool) []error {
	var errs []error

	for i, n := range nodes {
		prefix := fmt.Sprintf("nodes[%d]", i)

		if n.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
		} else if refs[n.Ref] {
			errs = append(errs, fmt.Errorf("%s.ref: duplicate ref %q", prefix, n.Ref))
		} else {
			refs[n.Ref] = true
		}
		if strings.TrimSpace(n.Entity) == "" {
			errs = append(errs, fmt.Errorf("%s.entity is required", prefix))
		}
		if n.DaysBeforeStart != nil && *n.DaysBeforeStart < 0 {
			errs = append(errs, fmt.Errorf("%s.days_before_start must not be negative", prefix))
		}

		for j, r := range n.Rules {
			rp := fmt.Sprintf("%s.rules[%d]", prefix, j)
			if !domain.ValidTriggerStatuses[domain.TaskStatus(r.On)] {
				errs = append(errs, fmt.Errorf("%s.on: invalid trigger %q", rp, r.On))
			}
			if r.NotifyUser == "" && !r.NotifyAssignee && !r.NotifyDependents {
				errs = append(errs, fmt.Errorf("%s: no recipients", rp))
			}
			if !r.Email && r.InApp != nil && !*r.InApp {
				errs = append(errs, fmt.Errorf("%s: no delivery channel", rp))
			}
		}
	}
	return errs
}

func validateDependencies(deps []DependencyImport, refs map[string]bool) []error {
	var errs []error
	g := graph.New()
	for ref := range refs {
		g.AddNode(ref)
	}

	for i, d := range deps {
		prefix := fmt.Sprintf("dependencies[%d]", i)
		ok := true
		if !refs[d.Node] {
			errs = append(errs, fmt.Errorf("%s.node: ref %q not found in nodes", prefix, d.Node))
			ok = false
		}
		if !refs[d.DependsOn] {
			errs = append(errs, fmt.Errorf("%s.depends_on: ref %q not found in nodes", prefix, d.DependsOn))
			ok = false
		}
		if !ok {
			continue
		}
		if err := g.AddEdge(d.Node, d.DependsOn); err != nil {
			var cycle *domain.CycleError
			if errors.As(err, &cycle) {
				path := append(cycle.Path, cycle.DependencyID)
				err = fmt.Errorf("%s: circular dependency %s", prefix, strings.Join(path, " -> "))
			}
			errs = append(errs, err)
		}
	}
	return errs
}

func nameKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
