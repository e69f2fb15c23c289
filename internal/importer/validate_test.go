package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func validDocument() *TemplateDocument {
	return &TemplateDocument{
		Template: TemplateImport{Name: "Engineering"},
		Entities: []EntityImport{
			{Name: "Laptop", Fields: []FieldImport{{Name: "Model", Type: "text"}}},
		},
		Nodes: []NodeImport{
			{Ref: "laptop", Entity: "Laptop", DaysBeforeStart: intPtr(5),
				Rules: []RuleImport{{On: "ready", NotifyAssignee: true, Email: true}}},
			{Ref: "accounts", Entity: "Accounts"},
			{Ref: "desk", Entity: "Desk"},
		},
		Dependencies: []DependencyImport{
			{Node: "accounts", DependsOn: "laptop"},
			{Node: "desk", DependsOn: "accounts"},
		},
	}
}

func joinErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}

func TestValidate_ValidDocument(t *testing.T) {
	assert.Empty(t, Validate(validDocument()))
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	doc := validDocument()
	doc.Template.Name = " "
	doc.Entities[0].Fields[0].Type = "select"
	doc.Nodes[1].Ref = "laptop"
	doc.Nodes[2].DaysBeforeStart = intPtr(-1)
	doc.Nodes[0].Rules[0].On = "pending"

	errs := Validate(doc)
	msg := joinErrors(errs)
	assert.Contains(t, msg, "template.name is required")
	assert.Contains(t, msg, `entities[0].fields[0].type: invalid value "select"`)
	assert.Contains(t, msg, `nodes[1].ref: duplicate ref "laptop"`)
	assert.Contains(t, msg, "nodes[2].days_before_start must not be negative")
	assert.Contains(t, msg, `nodes[0].rules[0].on: invalid trigger "pending"`)
}

func TestValidate_RuleNeedsRecipientAndChannel(t *testing.T) {
	doc := validDocument()
	off := false
	doc.Nodes[0].Rules = []RuleImport{{On: "completed", InApp: &off}}

	msg := joinErrors(Validate(doc))
	assert.Contains(t, msg, "nodes[0].rules[0]: no recipients")
	assert.Contains(t, msg, "nodes[0].rules[0]: no delivery channel")
}

func TestValidate_UnknownDependencyRef(t *testing.T) {
	doc := validDocument()
	doc.Dependencies = append(doc.Dependencies, DependencyImport{Node: "desk", DependsOn: "badge"})

	errs := Validate(doc)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), `dependencies[2].depends_on: ref "badge" not found`)
}

func TestValidate_RejectsCycle(t *testing.T) {
	doc := validDocument()
	doc.Dependencies = append(doc.Dependencies, DependencyImport{Node: "laptop", DependsOn: "desk"})

	errs := Validate(doc)
	require.Len(t, errs, 1)
	assert.Equal(t, "dependencies[2]: circular dependency desk -> accounts -> laptop -> desk", errs[0].Error())
}

func TestValidate_RejectsSelfDependency(t *testing.T) {
	doc := validDocument()
	doc.Dependencies = []DependencyImport{{Node: "desk", DependsOn: "desk"}}

	errs := Validate(doc)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "circular dependency")
}
