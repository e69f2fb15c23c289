package testutil

import (
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/google/uuid"
)

// FixedClock always reports the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

func NewTestUser(name string) *domain.User {
	return &domain.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     name + "@example.com",
		Active:    true,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

type EntityOption func(*domain.Entity)

// WithField appends a field definition of the given type.
func WithField(name string, typ domain.FieldType, defaultValue string) EntityOption {
	return func(e *domain.Entity) {
		e.Fields = append(e.Fields, domain.FieldDefinition{
			ID:           uuid.New().String(),
			EntityID:     e.ID,
			Name:         name,
			Type:         typ,
			DefaultValue: defaultValue,
			SortOrder:    len(e.Fields),
		})
	}
}

func WithDescription(d string) EntityOption {
	return func(e *domain.Entity) {
		e.Description = d
	}
}

func NewTestEntity(name string, opts ...EntityOption) *domain.Entity {
	now := time.Now().UTC().Truncate(time.Second)
	e := &domain.Entity{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func NewTestTemplate(name string) *domain.Template {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Template{
		ID:        uuid.New().String(),
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type NodeOption func(*domain.TemplateNode)

func WithDaysBeforeStart(d int) NodeOption {
	return func(n *domain.TemplateNode) {
		n.DaysBeforeStart = &d
	}
}

func WithDefaultAssignee(userID string) NodeOption {
	return func(n *domain.TemplateNode) {
		n.DefaultAssigneeID = &userID
	}
}

func WithSortOrder(i int) NodeOption {
	return func(n *domain.TemplateNode) {
		n.SortOrder = i
	}
}

// WithRule attaches a copy of r with a fresh ID.
func WithRule(r domain.NotificationRule) NodeOption {
	return func(n *domain.TemplateNode) {
		rule := r
		rule.ID = uuid.New().String()
		n.Rules = append(n.Rules, rule)
	}
}

func NewTestNode(templateID string, entity *domain.Entity, opts ...NodeOption) *domain.TemplateNode {
	n := &domain.TemplateNode{
		ID:         uuid.New().String(),
		TemplateID: templateID,
		EntityID:   entity.ID,
		Entity:     entity,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// AssigneeRule notifies the task's assignee on trigger through both channels.
func AssigneeRule(trigger domain.TaskStatus) domain.NotificationRule {
	return domain.NotificationRule{
		ID:             uuid.New().String(),
		NotifyAssignee: true,
		Trigger:        trigger,
		SendEmail:      true,
		SendInApp:      true,
	}
}

func NewTestProcess(employee string, start time.Time) *domain.Process {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Process{
		ID:           uuid.New().String(),
		EmployeeName: employee,
		StartDate:    start,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func NewTestTask(processID, name string, status domain.TaskStatus) *domain.Task {
	return &domain.Task{
		ID:        uuid.New().String(),
		ProcessID: processID,
		Name:      name,
		Status:    status,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
