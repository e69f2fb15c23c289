package domain

import "time"

// Entity is the reusable definition a template node points at: what the task
// is called and which custom fields it carries.
type Entity struct {
	ID          string
	Name        string
	Description string
	Category    string
	Fields      []FieldDefinition
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type FieldDefinition struct {
	ID           string
	EntityID     string
	Name         string
	Type         FieldType
	Required     bool
	DefaultValue string
	SortOrder    int
}
