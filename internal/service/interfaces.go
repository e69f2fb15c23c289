package service

import (
	"context"
	"time"

	"github.com/alexanderramin/kickoff/internal/agenda"
	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/engine"
	"github.com/alexanderramin/kickoff/internal/importer"
)

type DirectoryService interface {
	CreateUser(ctx context.Context, name, email string) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context, includeInactive bool) ([]*domain.User, error)
	DeactivateUser(ctx context.Context, id string) error
	CreateEntity(ctx context.Context, e *domain.Entity) error
	GetEntity(ctx context.Context, id string) (*domain.Entity, error)
	ListEntities(ctx context.Context) ([]*domain.Entity, error)
	AddField(ctx context.Context, entityID string, f *domain.FieldDefinition) error
	RemoveField(ctx context.Context, fieldID string) error
	DeleteEntity(ctx context.Context, id string) error
}

type TemplateService interface {
	Create(ctx context.Context, name, description string) (*domain.Template, error)
	Get(ctx context.Context, id string) (*domain.Template, error)
	List(ctx context.Context, includeInactive bool) ([]*domain.Template, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	CreateTemplateNode(ctx context.Context, n *domain.TemplateNode) (*engine.TemplateGraph, error)
	UpdateTemplateNode(ctx context.Context, n *domain.TemplateNode) error
	RemoveTemplateNode(ctx context.Context, nodeID string) error
	// AddDependency makes nodeID depend on dependencyID. It returns a
	// *domain.CycleError naming the path and stores nothing when the edge
	// would close a cycle.
	AddDependency(ctx context.Context, nodeID, dependencyID string) (*engine.TemplateGraph, error)
	RemoveDependency(ctx context.Context, nodeID, dependencyID string) (*engine.TemplateGraph, error)
	AddNotificationRule(ctx context.Context, nodeID string, r *domain.NotificationRule) error
	RemoveNotificationRule(ctx context.Context, ruleID string) error
	Graph(ctx context.Context, templateID string) (*engine.TemplateGraph, error)
	// Duplicate deep-copies nodes, rules and edges into a new template.
	Duplicate(ctx context.Context, templateID string) (*domain.Template, error)
	// Import creates a template, and any entities it defines, from a
	// document in one transaction.
	Import(ctx context.Context, doc *importer.TemplateDocument) (*engine.TemplateGraph, error)
}

// TaskUpdate lists the editable task attributes; nil fields are left alone.
// An empty AssigneeID unassigns. Setting Deadline marks it overridden.
type TaskUpdate struct {
	Name          *string
	Description   *string
	AssigneeID    *string
	Deadline      *time.Time
	ClearDeadline bool
}

// FieldInput carries a new value for a text, number or checkbox field.
type FieldInput struct {
	Text     *string
	Number   *float64
	Checkbox *bool
}

type ProcessService interface {
	// InstantiateProcess clones the template into a new process. Nothing is
	// stored unless the whole graph is stored.
	InstantiateProcess(ctx context.Context, templateID string, params engine.HireParams) (*engine.TaskGraph, error)
	Get(ctx context.Context, processID string) (*engine.TaskGraph, error)
	List(ctx context.Context) ([]*domain.Process, error)
	Delete(ctx context.Context, processID string) error
	UpdateTask(ctx context.Context, taskID string, upd TaskUpdate) (*domain.Task, error)
	SetFieldValue(ctx context.Context, fieldValueID string, in FieldInput) (*domain.FieldValue, error)
	ToggleTodoItem(ctx context.Context, fieldValueID string, action domain.TodoAction, p domain.TodoPayload) (*domain.FieldValue, error)
}

// StatusResult is the graph after a transition together with every task the
// transition wrote.
type StatusResult struct {
	Graph         *engine.TaskGraph
	Task          *domain.Task
	Changed       []*domain.Task
	Notifications int
}

type StatusService interface {
	SetTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus, actor string) (*StatusResult, error)
	Complete(ctx context.Context, taskID, actor string) (*StatusResult, error)
	Skip(ctx context.Context, taskID, actor string) (*StatusResult, error)
	Start(ctx context.Context, taskID string) (*StatusResult, error)
}

type OverdueService interface {
	// CheckOverdue queues one reminder per overdue, assigned task and
	// returns how many were queued.
	CheckOverdue(ctx context.Context, now time.Time) (int, error)
}

// AgendaService is the per-assignee dashboard: open tasks across processes,
// most urgent first.
type AgendaService interface {
	ForUser(ctx context.Context, userID string, now time.Time, limit int) (*agenda.Agenda, error)
}

type InboxService interface {
	List(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}
