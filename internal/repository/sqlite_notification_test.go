package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepo_Inbox(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	u := testutil.NewTestUser("it")
	other := testutil.NewTestUser("hr")
	users := NewSQLiteUserRepo(db)
	require.NoError(t, users.Create(ctx, u))
	require.NoError(t, users.Create(ctx, other))

	repo := NewSQLiteNotificationRepo(db)
	base := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, &domain.Notification{
			ID:          title,
			RecipientID: u.ID,
			Type:        domain.NotifyTaskReady,
			Title:       title,
			SendInApp:   true,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(ctx, &domain.Notification{
		ID: "theirs", RecipientID: other.ID, Type: domain.NotifyTaskOverdue, Title: "x", CreatedAt: base,
	}))

	list, err := repo.ListForRecipient(ctx, u.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Title, "newest first")
	assert.Empty(t, list[0].ProcessID)

	require.NoError(t, repo.MarkRead(ctx, "second"))
	unread, err := repo.ListForRecipient(ctx, u.ID, true)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	n, err := repo.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	marked, err := repo.MarkAllRead(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	n, err = repo.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.UnreadCount(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNotificationRepo_KeepsLinksAndFlags(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	u := testutil.NewTestUser("it")
	require.NoError(t, NewSQLiteUserRepo(db).Create(ctx, u))
	p := seedProcess(t, db, "Ana")
	task := testutil.NewTestTask(p.ID, "Laptop", domain.TaskReady)
	require.NoError(t, NewSQLiteTaskRepo(db).Create(ctx, task))

	repo := NewSQLiteNotificationRepo(db)
	require.NoError(t, repo.Create(ctx, &domain.Notification{
		ID: "n1", RecipientID: u.ID, Type: domain.NotifyTaskCompleted, Title: "t", Body: "b",
		ProcessID: p.ID, TaskID: task.ID, SendEmail: true, SendInApp: true, EmailSent: true,
		CreatedAt: time.Now().UTC(),
	}))

	list, err := repo.ListForRecipient(ctx, u.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, p.ID, got.ProcessID)
	assert.Equal(t, task.ID, got.TaskID)
	assert.True(t, got.SendEmail)
	assert.True(t, got.EmailSent)
	assert.False(t, got.Read)

	var nf *domain.NotFoundError
	assert.ErrorAs(t, repo.MarkRead(ctx, "missing"), &nf)
}
