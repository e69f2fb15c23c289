package domain

import (
	"fmt"
	"strings"
)

// FieldValue holds one custom field on a task. Which value slot is meaningful
// depends on Type; number and checkbox values start unset.
type FieldValue struct {
	ID                string
	TaskID            string
	FieldDefinitionID string
	Name              string
	Type              FieldType
	Text              string
	Number            *float64
	Checkbox          *bool
	Todos             []TodoItem
}

type TodoItem struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// SeedFieldValue creates the initial value for a field definition: text copies
// the default string, todo lists parse one item per non-blank line of the
// default, everything else starts unset.
func SeedFieldValue(def FieldDefinition) FieldValue {
	fv := FieldValue{
		FieldDefinitionID: def.ID,
		Name:              def.Name,
		Type:              def.Type,
	}
	switch def.Type {
	case FieldText:
		fv.Text = def.DefaultValue
	case FieldTodoList:
		fv.Todos = ParseTodoDefault(def.DefaultValue)
	}
	return fv
}

// ParseTodoDefault turns a newline-separated default into open todo items.
// It never returns nil so an empty list stays distinguishable from unset.
func ParseTodoDefault(s string) []TodoItem {
	items := []TodoItem{}
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, TodoItem{Text: line})
	}
	return items
}

type TodoAction string

const (
	TodoAdd    TodoAction = "add"
	TodoToggle TodoAction = "toggle"
	TodoRemove TodoAction = "remove"
)

// TodoPayload carries the argument for a todo action: Text for add, Index for
// toggle and remove.
type TodoPayload struct {
	Text  string
	Index int
}

// ApplyTodoAction returns a new item list with the action applied; the input
// slice is not modified.
func ApplyTodoAction(items []TodoItem, action TodoAction, p TodoPayload) ([]TodoItem, error) {
	out := make([]TodoItem, len(items), len(items)+1)
	copy(out, items)

	switch action {
	case TodoAdd:
		text := strings.TrimSpace(p.Text)
		if text == "" {
			return nil, &ValidationError{Field: "text", Message: "todo text is empty"}
		}
		return append(out, TodoItem{Text: text}), nil
	case TodoToggle:
		if p.Index < 0 || p.Index >= len(out) {
			return nil, &ValidationError{Field: "index", Message: fmt.Sprintf("index %d out of range (%d items)", p.Index, len(out))}
		}
		out[p.Index].Done = !out[p.Index].Done
		return out, nil
	case TodoRemove:
		if p.Index < 0 || p.Index >= len(out) {
			return nil, &ValidationError{Field: "index", Message: fmt.Sprintf("index %d out of range (%d items)", p.Index, len(out))}
		}
		return append(out[:p.Index], out[p.Index+1:]...), nil
	default:
		return nil, &ValidationError{Field: "action", Message: fmt.Sprintf("unknown todo action %q", action)}
	}
}
