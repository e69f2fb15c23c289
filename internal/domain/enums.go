package domain

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskReady      TaskStatus = "ready"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskSkipped    TaskStatus = "skipped"
)

// IsDone reports whether the status satisfies dependents. Completed and
// skipped are both done but never convert into each other implicitly.
func (s TaskStatus) IsDone() bool {
	return s == TaskCompleted || s == TaskSkipped
}

// Label returns the human label used in notification titles and bodies.
func (s TaskStatus) Label() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskReady:
		return "ready"
	case TaskInProgress:
		return "in progress"
	case TaskCompleted:
		return "completed"
	case TaskSkipped:
		return "skipped"
	default:
		return string(s)
	}
}

// ValidTaskStatuses is the canonical set of accepted task status strings.
var ValidTaskStatuses = map[TaskStatus]bool{
	TaskPending: true, TaskReady: true, TaskInProgress: true,
	TaskCompleted: true, TaskSkipped: true,
}

// ValidTriggerStatuses lists the statuses a notification rule may trigger on.
// Pending is never a trigger: a relock is silent.
var ValidTriggerStatuses = map[TaskStatus]bool{
	TaskReady: true, TaskInProgress: true, TaskCompleted: true, TaskSkipped: true,
}

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldCheckbox FieldType = "checkbox"
	FieldTodoList FieldType = "todolist"
)

// ValidFieldTypes is the canonical set of accepted custom field type tags.
var ValidFieldTypes = map[FieldType]bool{
	FieldText: true, FieldNumber: true, FieldCheckbox: true, FieldTodoList: true,
}

type NotificationType string

const (
	NotifyTaskReady     NotificationType = "task_ready"
	NotifyTaskAssigned  NotificationType = "task_assigned"
	NotifyTaskCompleted NotificationType = "task_completed"
	NotifyTaskOverdue   NotificationType = "task_overdue"
)

// NotificationTypeFor maps a trigger status to the notification type recorded
// in the inbox.
func NotificationTypeFor(trigger TaskStatus) NotificationType {
	switch trigger {
	case TaskReady:
		return NotifyTaskReady
	case TaskInProgress:
		return NotifyTaskAssigned
	default:
		return NotifyTaskCompleted
	}
}
