package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedFieldValue(t *testing.T) {
	text := SeedFieldValue(FieldDefinition{ID: "f1", Name: "Notes", Type: FieldText, DefaultValue: "hello"})
	assert.Equal(t, "hello", text.Text)
	assert.Nil(t, text.Todos)

	todo := SeedFieldValue(FieldDefinition{ID: "f2", Type: FieldTodoList, DefaultValue: "Order laptop\n\n  Create account \n"})
	assert.Equal(t, []TodoItem{{Text: "Order laptop"}, {Text: "Create account"}}, todo.Todos)

	empty := SeedFieldValue(FieldDefinition{ID: "f3", Type: FieldTodoList})
	require.NotNil(t, empty.Todos)
	assert.Empty(t, empty.Todos)

	num := SeedFieldValue(FieldDefinition{ID: "f4", Type: FieldNumber, DefaultValue: "42"})
	assert.Nil(t, num.Number)
	box := SeedFieldValue(FieldDefinition{ID: "f5", Type: FieldCheckbox, DefaultValue: "true"})
	assert.Nil(t, box.Checkbox)
}

func TestApplyTodoAction_AddToggleRemove(t *testing.T) {
	items, err := ApplyTodoAction(nil, TodoAdd, TodoPayload{Text: "Test item"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Test item", items[0].Text)

	items, err = ApplyTodoAction(items, TodoToggle, TodoPayload{Index: 0})
	require.NoError(t, err)
	assert.True(t, items[0].Done)

	items, err = ApplyTodoAction(items, TodoToggle, TodoPayload{Index: 0})
	require.NoError(t, err)
	assert.False(t, items[0].Done, "toggle back")

	items, err = ApplyTodoAction(items, TodoAdd, TodoPayload{Text: "Second item"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, err = ApplyTodoAction(items, TodoRemove, TodoPayload{Index: 0})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Second item", items[0].Text)
}

func TestApplyTodoAction_DoesNotMutateInput(t *testing.T) {
	orig := []TodoItem{{Text: "a"}, {Text: "b"}}
	_, err := ApplyTodoAction(orig, TodoToggle, TodoPayload{Index: 1})
	require.NoError(t, err)
	assert.False(t, orig[1].Done)

	_, err = ApplyTodoAction(orig, TodoRemove, TodoPayload{Index: 0})
	require.NoError(t, err)
	assert.Equal(t, "a", orig[0].Text)
}

func TestApplyTodoAction_Errors(t *testing.T) {
	var verr *ValidationError

	_, err := ApplyTodoAction(nil, TodoAdd, TodoPayload{Text: "   "})
	assert.ErrorAs(t, err, &verr)

	_, err = ApplyTodoAction([]TodoItem{{Text: "a"}}, TodoToggle, TodoPayload{Index: 3})
	assert.ErrorAs(t, err, &verr)

	_, err = ApplyTodoAction([]TodoItem{{Text: "a"}}, TodoRemove, TodoPayload{Index: -1})
	assert.ErrorAs(t, err, &verr)

	_, err = ApplyTodoAction(nil, TodoAction("rename"), TodoPayload{})
	assert.ErrorAs(t, err, &verr)
}
