package domain

import (
	"fmt"
	"strings"
)

// ErrorCode identifies the kind of a structured engine error.
type ErrorCode string

const (
	ErrCodeCycle               ErrorCode = "DEPENDENCY_CYCLE"
	ErrCodeInvalidTransition   ErrorCode = "INVALID_TRANSITION"
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeInstantiationFailed ErrorCode = "INSTANTIATION_FAILED"
	ErrCodeValidation          ErrorCode = "VALIDATION_FAILED"
)

// CycleError is returned when a proposed dependency edge would close a cycle.
// The edge is never applied. Path runs from the proposed dependency back to
// the node, following dependsOn edges.
type CycleError struct {
	NodeID       string
	DependencyID string
	Path         []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s: %s cannot depend on %s", ErrCodeCycle, e.NodeID, e.DependencyID)
	}
	return fmt.Sprintf("%s: %s cannot depend on %s (%s -> %s)",
		ErrCodeCycle, e.NodeID, e.DependencyID, strings.Join(e.Path, " -> "), e.DependencyID)
}

func (e *CycleError) Code() ErrorCode { return ErrCodeCycle }

// InvalidTransitionError is returned when a status change is not permitted
// from the task's current state.
type InvalidTransitionError struct {
	TaskID string
	From   TaskStatus
	To     TaskStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: task %s cannot move from %s to %s", ErrCodeInvalidTransition, e.TaskID, e.From, e.To)
}

func (e *InvalidTransitionError) Code() ErrorCode { return ErrCodeInvalidTransition }

// NotFoundError is returned when a referenced node, template, process, task
// or user does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrCodeNotFound, e.Kind, e.ID)
}

func (e *NotFoundError) Code() ErrorCode { return ErrCodeNotFound }

// InstantiationError wraps any failure while cloning a template into a
// process. Nothing from the failed attempt is persisted.
type InstantiationError struct {
	TemplateID string
	Err        error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("%s: template %s: %v", ErrCodeInstantiationFailed, e.TemplateID, e.Err)
}

func (e *InstantiationError) Unwrap() error { return e.Err }

func (e *InstantiationError) Code() ErrorCode { return ErrCodeInstantiationFailed }

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrCodeValidation, e.Field, e.Message)
}

func (e *ValidationError) Code() ErrorCode { return ErrCodeValidation }

// Coded is implemented by every structured engine error.
type Coded interface {
	error
	Code() ErrorCode
}
