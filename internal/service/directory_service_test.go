package service

import (
	"context"
	"testing"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_Users(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.directory.CreateUser(ctx, "ann", "not-an-address")
	var invalid *domain.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "email", invalid.Field)

	_, err = h.directory.CreateUser(ctx, "  ", "ann@example.com")
	require.ErrorAs(t, err, &invalid)

	ann := h.user(t, "ann")
	bob := h.user(t, "bob")
	require.NoError(t, h.directory.DeactivateUser(ctx, bob.ID))

	active, err := h.directory.ListUsers(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, ann.ID, active[0].ID)

	all, err := h.directory.ListUsers(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := h.directory.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestDirectory_EntityFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	e := h.entity(t, "Laptop",
		domain.FieldDefinition{Name: "Model", Type: domain.FieldText},
		domain.FieldDefinition{Name: "Screen", Type: domain.FieldNumber},
	)
	f := &domain.FieldDefinition{Name: "Accessories", Type: domain.FieldTodoList}
	require.NoError(t, h.directory.AddField(ctx, e.ID, f))

	got, err := h.directory.GetEntity(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, got.Fields, 3)
	assert.Equal(t, "Accessories", got.Fields[2].Name)

	require.NoError(t, h.directory.RemoveField(ctx, got.Fields[0].ID))
	got, err = h.directory.GetEntity(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, got.Fields, 2)

	err = h.directory.AddField(ctx, e.ID, &domain.FieldDefinition{Name: "Color", Type: "select"})
	var invalid *domain.ValidationError
	require.ErrorAs(t, err, &invalid)
}

func TestDirectory_EntityInUseCannotBeDeleted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tmpl := h.template(t, "Engineering")
	e := h.entity(t, "Laptop")
	_, err := h.templates.CreateTemplateNode(ctx, testutil.NewTestNode(tmpl.ID, e))
	require.NoError(t, err)

	require.Error(t, h.directory.DeleteEntity(ctx, e.ID))

	unused := h.entity(t, "Badge")
	require.NoError(t, h.directory.DeleteEntity(ctx, unused.ID))
	entities, err := h.directory.ListEntities(ctx)
	require.NoError(t, err)
	assert.Len(t, entities, 1)
}

func TestInbox_MarkRead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ann := h.user(t, "ann")
	tmpl := h.template(t, "Engineering")
	h.node(t, tmpl.ID, "Laptop", testutil.WithDefaultAssignee(ann.ID), testutil.WithRule(testutil.AssigneeRule(domain.TaskReady)))
	h.node(t, tmpl.ID, "Badge", testutil.WithDefaultAssignee(ann.ID), testutil.WithRule(testutil.AssigneeRule(domain.TaskReady)))
	h.hire(t, tmpl.ID, "Grace Hopper")

	unread, err := h.inbox.List(ctx, ann.ID, true)
	require.NoError(t, err)
	require.Len(t, unread, 2)

	require.NoError(t, h.inbox.MarkRead(ctx, unread[0].ID))
	count, err := h.inbox.UnreadCount(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	marked, err := h.inbox.MarkAllRead(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	all, err := h.inbox.List(ctx, ann.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	var notFound *domain.NotFoundError
	require.ErrorAs(t, h.inbox.MarkRead(ctx, "missing"), &notFound)
}
