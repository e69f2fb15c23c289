package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepo_CreateGetUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteUserRepo(db)
	ctx := context.Background()

	u := testutil.NewTestUser("maria")
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "maria", got.Name)
	assert.Equal(t, "maria@example.com", got.Email)
	assert.True(t, got.Active)

	got.Active = false
	got.Email = "maria@corp.example"
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, again.Active)
	assert.Equal(t, "maria@corp.example", again.Email)
}

func TestUserRepo_ListHidesInactive(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteUserRepo(db)
	ctx := context.Background()

	active := testutil.NewTestUser("bob")
	inactive := testutil.NewTestUser("alice")
	inactive.Active = false
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, inactive))

	list, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)

	all, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alice", all[0].Name, "ordered by name")
}

func TestUserRepo_MissingRowsAreNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteUserRepo(db)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "nobody")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "user", nf.Kind)

	err = repo.Delete(ctx, "nobody")
	require.ErrorAs(t, err, &nf)

	err = repo.Update(ctx, testutil.NewTestUser("ghost"))
	require.ErrorAs(t, err, &nf)
}

func TestEntityRepo_FieldsRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteEntityRepo(db)
	ctx := context.Background()

	e := testutil.NewTestEntity("Laptop",
		testutil.WithDescription("Order and image a laptop"),
		testutil.WithField("Serial", domain.FieldText, "TBD"),
		testutil.WithField("Setup steps", domain.FieldTodoList, "Image\nEncrypt"),
	)
	require.NoError(t, repo.Create(ctx, e))

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Order and image a laptop", got.Description)
	require.Len(t, got.Fields, 2)
	assert.Equal(t, "Serial", got.Fields[0].Name)
	assert.Equal(t, domain.FieldText, got.Fields[0].Type)
	assert.Equal(t, "TBD", got.Fields[0].DefaultValue)
	assert.Equal(t, domain.FieldTodoList, got.Fields[1].Type)

	require.NoError(t, repo.RemoveField(ctx, got.Fields[0].ID))
	got, err = repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, got.Fields, 1)
	assert.Equal(t, "Setup steps", got.Fields[0].Name)
}

func TestEntityRepo_ListLoadsFields(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteEntityRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestEntity("Badge", testutil.WithField("Number", domain.FieldNumber, ""))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestEntity("Account")))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Account", list[0].Name)
	assert.Empty(t, list[0].Fields)
	assert.Len(t, list[1].Fields, 1)
}

func TestEntityRepo_DeleteRestrictedWhileReferenced(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	entities := NewSQLiteEntityRepo(db)

	e := testutil.NewTestEntity("Desk")
	require.NoError(t, entities.Create(ctx, e))
	tmpl := testutil.NewTestTemplate("Engineering")
	require.NoError(t, NewSQLiteTemplateRepo(db).Create(ctx, tmpl))
	require.NoError(t, NewSQLiteTemplateNodeRepo(db).Create(ctx, testutil.NewTestNode(tmpl.ID, e)))

	assert.Error(t, entities.Delete(ctx, e.ID))

	_, err := entities.GetByID(ctx, e.ID)
	assert.NoError(t, err)
}
