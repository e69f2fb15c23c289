package domain

import "time"

type Template struct {
	ID          string
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TemplateNode is a checklist item definition inside a template.
type TemplateNode struct {
	ID                string
	TemplateID        string
	EntityID          string
	Entity            *Entity
	DaysBeforeStart   *int
	DefaultAssigneeID *string
	SortOrder         int
	Rules             []NotificationRule
}

// Name returns the entity name, or the node ID when the entity is not loaded.
func (n *TemplateNode) Name() string {
	if n.Entity != nil {
		return n.Entity.Name
	}
	return n.ID
}

// Dependency is a directed edge: NodeID depends on DependsOnID. It is used
// for both template nodes and task nodes.
type Dependency struct {
	NodeID      string
	DependsOnID string
}

// NotificationRule is attached to a template node and copied verbatim onto
// each task instantiated from it.
type NotificationRule struct {
	ID                       string
	NotifyUserID             *string
	NotifyAssignee           bool
	NotifyDependentAssignees bool
	Trigger                  TaskStatus
	SendEmail                bool
	SendInApp                bool
}
