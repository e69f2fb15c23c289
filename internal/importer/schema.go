// Package importer reads onboarding templates from JSON or YAML documents.
package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TemplateDocument is the top-level structure of a template import file.
// Nodes are addressed by Ref within the document; entities by name and users
// by email.
type TemplateDocument struct {
	Template     TemplateImport     `json:"template" yaml:"template"`
	Entities     []EntityImport     `json:"entities,omitempty" yaml:"entities,omitempty"`
	Nodes        []NodeImport       `json:"nodes" yaml:"nodes"`
	Dependencies []DependencyImport `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

type TemplateImport struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// EntityImport defines an entity to create. An entity whose name is already
// stored is reused as is.
type EntityImport struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string        `json:"category,omitempty" yaml:"category,omitempty"`
	Fields      []FieldImport `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type FieldImport struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
	// Default holds one item per line for todo lists.
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

type NodeImport struct {
	Ref             string       `json:"ref" yaml:"ref"`
	Entity          string       `json:"entity" yaml:"entity"`
	DaysBeforeStart *int         `json:"days_before_start,omitempty" yaml:"days_before_start,omitempty"`
	Assignee        string       `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	Order           int          `json:"order,omitempty" yaml:"order,omitempty"`
	Rules           []RuleImport `json:"rules,omitempty" yaml:"rules,omitempty"`
}

type RuleImport struct {
	On               string `json:"on" yaml:"on"`
	NotifyUser       string `json:"notify_user,omitempty" yaml:"notify_user,omitempty"`
	NotifyAssignee   bool   `json:"notify_assignee,omitempty" yaml:"notify_assignee,omitempty"`
	NotifyDependents bool   `json:"notify_dependents,omitempty" yaml:"notify_dependents,omitempty"`
	Email            bool   `json:"email,omitempty" yaml:"email,omitempty"`
	// InApp defaults to true when omitted.
	InApp *bool `json:"in_app,omitempty" yaml:"in_app,omitempty"`
}

// DependencyImport says Node depends on DependsOn; both are node refs.
type DependencyImport struct {
	Node      string `json:"node" yaml:"node"`
	DependsOn string `json:"depends_on" yaml:"depends_on"`
}

// LoadTemplateDocument reads a template import file. Files ending in .yaml
// or .yml are parsed as YAML, everything else as JSON.
func LoadTemplateDocument(path string) (*TemplateDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc TemplateDocument
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &doc, nil
}
