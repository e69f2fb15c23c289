package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/engine"
	"github.com/alexanderramin/kickoff/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstantiate_CopiesNodeAttributes(t *testing.T) {
	h := newHarness(t)
	ann := h.user(t, "ann")
	tmpl := h.template(t, "Engineering")
	a := h.node(t, tmpl.ID, "Laptop",
		testutil.WithDaysBeforeStart(5),
		testutil.WithDefaultAssignee(ann.ID),
		testutil.WithSortOrder(2),
		testutil.WithRule(testutil.AssigneeRule(domain.TaskReady)))

	g := h.hire(t, tmpl.ID, "Grace Hopper")
	task := taskFor(t, h.reload(t, g.Process.ID), a)

	assert.Equal(t, "Laptop", task.Name)
	require.NotNil(t, task.Deadline)
	assert.Equal(t, testutil.Date(2025, time.March, 12), *task.Deadline)
	assert.False(t, task.DeadlineOverridden)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, ann.ID, *task.AssigneeID)
	assert.Equal(t, 2, task.SortOrder)
	require.Len(t, task.Rules, 1)
	assert.NotEqual(t, a.Rules[0].ID, task.Rules[0].ID, "rules get their own identity")

	// The ready rule fires for roots at instantiation.
	sent := h.sink.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, ann.ID, sent[0].RecipientID)
	assert.Equal(t, domain.NotifyTaskReady, sent[0].Type)
}

func TestInstantiate_RollbackLeavesNothing(t *testing.T) {
	h := newHarness(t)
	bob := h.user(t, "bob")
	tmpl := h.template(t, "Engineering")
	a := h.node(t, tmpl.ID, "Laptop",
		testutil.WithDefaultAssignee(bob.ID),
		testutil.WithRule(testutil.AssigneeRule(domain.TaskReady)))
	e := h.entity(t, "Accounts",
		domain.FieldDefinition{Name: "Systems", Type: domain.FieldTodoList, DefaultValue: "mail\nvpn"})
	b := testutil.NewTestNode(tmpl.ID, e, testutil.WithRule(testutil.AssigneeRule(domain.TaskCompleted)))
	_, err := h.templates.CreateTemplateNode(context.Background(), b)
	require.NoError(t, err)
	h.dependsOn(t, b, a)

	boom := errors.New("disk full")
	params := engine.HireParams{EmployeeName: "Grace Hopper", StartDate: testutil.Date(2025, time.March, 17)}

	// Fail every write in turn until instantiation gets through.
	for n := int32(1); ; n++ {
		uow := &testutil.FailOnNthExecUoW{DB: h.db, FailOn: n, Err: boom}
		rt := h.rt
		rt.UoW = uow
		failing := newHarnessWith(h.db, h.clock, h.sink, rt)

		_, err := failing.processes.InstantiateProcess(context.Background(), tmpl.ID, params)
		if err == nil {
			assert.Greater(t, n, int32(5), "process, tasks, rules, fields and edges are all written")
			break
		}
		var inst *domain.InstantiationError
		require.ErrorAs(t, err, &inst, "write %d", n)
		require.ErrorIs(t, err, boom)

		for _, table := range []string{"processes", "tasks", "task_rules", "task_field_values", "task_dependencies", "notifications"} {
			assert.Zero(t, countRows(t, h.db, table), "write %d left rows in %s", n, table)
		}
		assert.Empty(t, h.sink.Sent(), "write %d flushed notifications", n)
	}

	assert.Equal(t, 1, countRows(t, h.db, "processes"))
	assert.Len(t, h.sink.Sent(), 1)
}

func TestInstantiate_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tmpl := h.template(t, "Engineering")
	h.node(t, tmpl.ID, "Laptop")

	_, err := h.processes.InstantiateProcess(ctx, tmpl.ID, engine.HireParams{StartDate: testutil.Date(2025, time.March, 17)})
	var invalid *domain.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "employee_name", invalid.Field)

	require.NoError(t, h.templates.SetActive(ctx, tmpl.ID, false))
	_, err = h.processes.InstantiateProcess(ctx, tmpl.ID, engine.HireParams{
		EmployeeName: "Grace Hopper", StartDate: testutil.Date(2025, time.March, 17),
	})
	require.ErrorAs(t, err, &invalid)

	_, err = h.processes.InstantiateProcess(ctx, "missing", engine.HireParams{
		EmployeeName: "Grace Hopper", StartDate: testutil.Date(2025, time.March, 17),
	})
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Zero(t, countRows(t, h.db, "processes"))
}

func TestUpdateTask_AssigneeAndDeadlineOverride(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	dana := h.user(t, "dana")
	tmpl := h.template(t, "Engineering")
	a := h.node(t, tmpl.ID, "Laptop", testutil.WithDaysBeforeStart(3))
	g := h.hire(t, tmpl.ID, "Grace Hopper")
	taskID := taskFor(t, g, a).ID

	deadline := testutil.Date(2025, time.April, 1)
	name := "Laptop and dock"
	updated, err := h.processes.UpdateTask(ctx, taskID, TaskUpdate{
		Name:       &name,
		AssigneeID: &dana.ID,
		Deadline:   &deadline,
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	task, _ := h.reload(t, g.Process.ID).Task(taskID)
	assert.Equal(t, name, task.Name)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, dana.ID, *task.AssigneeID)
	require.NotNil(t, task.Deadline)
	assert.Equal(t, deadline, *task.Deadline)
	assert.True(t, task.DeadlineOverridden)

	unassign := ""
	_, err = h.processes.UpdateTask(ctx, taskID, TaskUpdate{AssigneeID: &unassign, ClearDeadline: true})
	require.NoError(t, err)
	task, _ = h.reload(t, g.Process.ID).Task(taskID)
	assert.Nil(t, task.AssigneeID)
	assert.Nil(t, task.Deadline)
	assert.True(t, task.DeadlineOverridden)

	ghost := "ghost"
	_, err = h.processes.UpdateTask(ctx, taskID, TaskUpdate{AssigneeID: &ghost})
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestFieldValues_SeededAndEditable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tmpl := h.template(t, "Engineering")
	e := h.entity(t, "Laptop",
		domain.FieldDefinition{Name: "Model", Type: domain.FieldText, DefaultValue: "ThinkPad"},
		domain.FieldDefinition{Name: "Screen", Type: domain.FieldNumber},
		domain.FieldDefinition{Name: "Ordered", Type: domain.FieldCheckbox},
		domain.FieldDefinition{Name: "Accessories", Type: domain.FieldTodoList, DefaultValue: "dock\n\nmouse\n"},
	)
	n := testutil.NewTestNode(tmpl.ID, e)
	_, err := h.templates.CreateTemplateNode(ctx, n)
	require.NoError(t, err)
	g := h.hire(t, tmpl.ID, "Grace Hopper")

	task := taskFor(t, h.reload(t, g.Process.ID), n)
	require.Len(t, task.Fields, 4)
	model, screen, ordered, accessories := task.Fields[0], task.Fields[1], task.Fields[2], task.Fields[3]
	assert.Equal(t, "ThinkPad", model.Text)
	assert.Nil(t, screen.Number)
	assert.Nil(t, ordered.Checkbox)
	assert.Equal(t, []domain.TodoItem{{Text: "dock"}, {Text: "mouse"}}, accessories.Todos)

	size := 14.0
	fv, err := h.processes.SetFieldValue(ctx, screen.ID, FieldInput{Number: &size})
	require.NoError(t, err)
	require.NotNil(t, fv.Number)
	assert.Equal(t, 14.0, *fv.Number)

	yes := true
	_, err = h.processes.SetFieldValue(ctx, ordered.ID, FieldInput{Checkbox: &yes})
	require.NoError(t, err)

	_, err = h.processes.SetFieldValue(ctx, model.ID, FieldInput{Number: &size})
	var invalid *domain.ValidationError
	require.ErrorAs(t, err, &invalid, "text field rejects a number")

	_, err = h.processes.SetFieldValue(ctx, accessories.ID, FieldInput{Text: &model.Text})
	require.ErrorAs(t, err, &invalid, "todo lists are edited through todo actions")

	task = taskFor(t, h.reload(t, g.Process.ID), n)
	require.NotNil(t, task.Fields[2].Checkbox)
	assert.True(t, *task.Fields[2].Checkbox)
}

func TestToggleTodoItem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tmpl := h.template(t, "Engineering")
	e := h.entity(t, "Accounts",
		domain.FieldDefinition{Name: "Systems", Type: domain.FieldTodoList, DefaultValue: "mail\nvpn"},
		domain.FieldDefinition{Name: "Notes", Type: domain.FieldText},
	)
	n := testutil.NewTestNode(tmpl.ID, e)
	_, err := h.templates.CreateTemplateNode(ctx, n)
	require.NoError(t, err)
	g := h.hire(t, tmpl.ID, "Grace Hopper")
	task := taskFor(t, g, n)
	todoID, notesID := task.Fields[0].ID, task.Fields[1].ID

	fv, err := h.processes.ToggleTodoItem(ctx, todoID, domain.TodoToggle, domain.TodoPayload{Index: 1})
	require.NoError(t, err)
	assert.Equal(t, []domain.TodoItem{{Text: "mail"}, {Text: "vpn", Done: true}}, fv.Todos)

	_, err = h.processes.ToggleTodoItem(ctx, todoID, domain.TodoAdd, domain.TodoPayload{Text: " wiki "})
	require.NoError(t, err)
	_, err = h.processes.ToggleTodoItem(ctx, todoID, domain.TodoRemove, domain.TodoPayload{Index: 0})
	require.NoError(t, err)

	persisted := taskFor(t, h.reload(t, g.Process.ID), n)
	assert.Equal(t, []domain.TodoItem{{Text: "vpn", Done: true}, {Text: "wiki"}}, persisted.Fields[0].Todos)

	_, err = h.processes.ToggleTodoItem(ctx, todoID, domain.TodoToggle, domain.TodoPayload{Index: 7})
	var invalid *domain.ValidationError
	require.ErrorAs(t, err, &invalid)

	_, err = h.processes.ToggleTodoItem(ctx, notesID, domain.TodoAdd, domain.TodoPayload{Text: "x"})
	require.ErrorAs(t, err, &invalid)
}

func TestDeleteProcess_RemovesTasks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tmpl := h.template(t, "Engineering")
	h.node(t, tmpl.ID, "Laptop")
	g := h.hire(t, tmpl.ID, "Grace Hopper")
	h.hire(t, tmpl.ID, "Alan Turing")

	require.NoError(t, h.processes.Delete(ctx, g.Process.ID))

	list, err := h.processes.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Alan Turing", list[0].EmployeeName)
	assert.Equal(t, 1, countRows(t, h.db, "tasks"))

	_, err = h.processes.Get(ctx, g.Process.ID)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestProgress_CountsDoneTasks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tmpl := h.template(t, "Engineering")
	a := h.node(t, tmpl.ID, "Laptop")
	h.node(t, tmpl.ID, "Badge")
	g := h.hire(t, tmpl.ID, "Grace Hopper")

	_, err := h.status.Skip(ctx, taskFor(t, g, a).ID, "")
	require.NoError(t, err)

	persisted := h.reload(t, g.Process.ID)
	assert.Equal(t, 50, persisted.Progress())
	assert.False(t, persisted.IsComplete())
}

func TestTemplateEdits_LeaveExistingProcessAlone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tmpl := h.template(t, "Engineering")
	a := h.node(t, tmpl.ID, "Laptop")
	b := h.node(t, tmpl.ID, "Accounts")
	h.dependsOn(t, b, a)
	g := h.hire(t, tmpl.ID, "Grace Hopper")
	taskA, taskB := taskFor(t, g, a).ID, taskFor(t, g, b).ID

	_, err := h.templates.RemoveDependency(ctx, b.ID, a.ID)
	require.NoError(t, err)
	persisted := h.reload(t, g.Process.ID)
	assert.Equal(t, 2, persisted.Len())
	assert.Equal(t, 1, persisted.EdgeCount())
	assert.True(t, persisted.IsBlocked(taskB))

	h.node(t, tmpl.ID, "Badge")
	require.NoError(t, h.templates.RemoveTemplateNode(ctx, a.ID))
	persisted = h.reload(t, g.Process.ID)
	assert.Equal(t, 2, persisted.Len())
	assert.Equal(t, 1, persisted.EdgeCount())
	assert.Equal(t, domain.TaskReady, statusOf(t, persisted, taskA))
	assert.Equal(t, domain.TaskPending, statusOf(t, persisted, taskB))

	// The copied edge still drives the cascade.
	_, err = h.status.Complete(ctx, taskA, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskReady, statusOf(t, h.reload(t, g.Process.ID), taskB))
}
