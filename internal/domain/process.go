package domain

import "time"

// Process is one onboarding of a new hire.
type Process struct {
	ID           string
	TemplateID   *string
	EmployeeName string
	Email        string
	Department   string
	Position     string
	StartDate    time.Time
	Notes        string
	CreatedBy    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Task is the live, per-process counterpart of a template node.
type Task struct {
	ID                 string
	ProcessID          string
	SourceNodeID       *string
	EntityID           *string
	Name               string
	Description        string
	Status             TaskStatus
	AssigneeID         *string
	Deadline           *time.Time
	DeadlineOverridden bool
	SortOrder          int
	CompletedAt        *time.Time
	CompletedBy        *string
	Rules              []NotificationRule
	Fields             []FieldValue
	CreatedAt          time.Time
}

// IsOverdue reports whether the task has a deadline before the day of now
// and is not done yet.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Deadline == nil || t.Status.IsDone() {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return t.Deadline.Before(today)
}

// Notification is one delivery request produced by rule evaluation. Channel
// flags come from the rule that produced it.
type Notification struct {
	ID          string
	RecipientID string
	Type        NotificationType
	Title       string
	Body        string
	ProcessID   string
	TaskID      string
	SendEmail   bool
	SendInApp   bool
	Read        bool
	EmailSent   bool
	CreatedAt   time.Time
}
