package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
)

// Every implementation reports a missing row as *domain.NotFoundError.

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, includeInactive bool) ([]*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
}

type EntityRepo interface {
	Create(ctx context.Context, e *domain.Entity) error
	GetByID(ctx context.Context, id string) (*domain.Entity, error)
	List(ctx context.Context) ([]*domain.Entity, error)
	Update(ctx context.Context, e *domain.Entity) error
	Delete(ctx context.Context, id string) error
	AddField(ctx context.Context, f *domain.FieldDefinition) error
	RemoveField(ctx context.Context, id string) error
}

type TemplateRepo interface {
	Create(ctx context.Context, t *domain.Template) error
	GetByID(ctx context.Context, id string) (*domain.Template, error)
	List(ctx context.Context, includeInactive bool) ([]*domain.Template, error)
	Update(ctx context.Context, t *domain.Template) error
	Delete(ctx context.Context, id string) error
}

// TemplateNodeRepo loads nodes with their notification rules. The Entity
// pointer is left nil; callers attach entities they load themselves.
type TemplateNodeRepo interface {
	Create(ctx context.Context, n *domain.TemplateNode) error
	GetByID(ctx context.Context, id string) (*domain.TemplateNode, error)
	ListByTemplate(ctx context.Context, templateID string) ([]*domain.TemplateNode, error)
	Update(ctx context.Context, n *domain.TemplateNode) error
	Delete(ctx context.Context, id string) error
	AddRule(ctx context.Context, nodeID string, r *domain.NotificationRule) error
	DeleteRule(ctx context.Context, ruleID string) error
	// GetByRuleID returns the node owning a notification rule.
	GetByRuleID(ctx context.Context, ruleID string) (*domain.TemplateNode, error)
}

type TemplateDependencyRepo interface {
	Create(ctx context.Context, d domain.Dependency) error
	Delete(ctx context.Context, nodeID, dependsOnID string) error
	ListByTemplate(ctx context.Context, templateID string) ([]domain.Dependency, error)
	// ListDependencyIDs returns the direct dependencies of a node. It is the
	// lookup used for cycle checks, so it reads one adjacency row set only.
	ListDependencyIDs(ctx context.Context, nodeID string) ([]string, error)
}

type ProcessRepo interface {
	Create(ctx context.Context, p *domain.Process) error
	GetByID(ctx context.Context, id string) (*domain.Process, error)
	List(ctx context.Context) ([]*domain.Process, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// TaskRepo loads tasks together with their rules and field values.
type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByProcess(ctx context.Context, processID string) ([]*domain.Task, error)
	// ListOverdue returns tasks across all processes that are not done and
	// whose deadline is before day.
	ListOverdue(ctx context.Context, day time.Time) ([]*domain.Task, error)
	// ListByAssignee returns tasks in any status assigned to userID, without
	// rules or field values.
	ListByAssignee(ctx context.Context, userID string) ([]*domain.Task, error)
	// UpdateState persists status and completion stamp only.
	UpdateState(ctx context.Context, t *domain.Task) error
	// Update persists the editable attributes: name, description,
	// assignee and deadline.
	Update(ctx context.Context, t *domain.Task) error
	GetFieldValue(ctx context.Context, id string) (*domain.FieldValue, error)
	UpdateFieldValue(ctx context.Context, fv *domain.FieldValue) error
}

type TaskDependencyRepo interface {
	Create(ctx context.Context, d domain.Dependency) error
	ListByProcess(ctx context.Context, processID string) ([]domain.Dependency, error)
}

type NotificationRepo interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	UnreadCount(ctx context.Context, recipientID string) (int, error)
}
