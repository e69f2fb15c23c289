package repository

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFileTestDB opens a file-backed database so the pool really has several
// connections sharing one WAL.
func newFileTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(filepath.Join(t.TempDir(), "concurrent_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestConcurrentAccess_ReadsDuringWrites(t *testing.T) {
	database := newFileTestDB(t)
	ctx := context.Background()
	p := seedProcess(t, database, "Ana")
	tasks := NewSQLiteTaskRepo(database)

	var wg sync.WaitGroup
	errs := make(chan error, 64)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			task := testutil.NewTestTask(p.ID, fmt.Sprintf("task-%d", i), domain.TaskPending)
			if err := tasks.Create(ctx, task); err != nil {
				errs <- err
				return
			}
		}
	}()

	for r := 0; r < 3; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				if _, err := tasks.ListByProcess(ctx, p.ID); err != nil {
					errs <- err
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	all, err := tasks.ListByProcess(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, all, 20)
}
