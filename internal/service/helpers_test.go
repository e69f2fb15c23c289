package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/engine"
	"github.com/alexanderramin/kickoff/internal/notify"
	"github.com/alexanderramin/kickoff/internal/repository"
	"github.com/alexanderramin/kickoff/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recordingSink stores notifications in the inbox and keeps a copy for
// assertions.
type recordingSink struct {
	mu    sync.Mutex
	inApp notify.Sink
	sent  []domain.Notification
}

func (s *recordingSink) Send(ctx context.Context, n domain.Notification) error {
	s.mu.Lock()
	s.sent = append(s.sent, n)
	s.mu.Unlock()
	return s.inApp.Send(ctx, n)
}

func (s *recordingSink) Sent() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Notification, len(s.sent))
	copy(out, s.sent)
	return out
}

func (s *recordingSink) Reset() {
	s.mu.Lock()
	s.sent = nil
	s.mu.Unlock()
}

type harness struct {
	db    *sql.DB
	clock testutil.FixedClock
	sink  *recordingSink
	rt    Runtime

	directory DirectoryService
	templates TemplateService
	processes ProcessService
	status    StatusService
	overdue   OverdueService
	inbox     InboxService
	agenda    AgendaService
}

var harnessNow = time.Date(2025, time.March, 3, 9, 30, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()
	database := testutil.NewTestDB(t)
	clock := testutil.FixedClock{At: harnessNow}
	notifications := repository.NewSQLiteNotificationRepo(database)
	sink := &recordingSink{inApp: notify.NewInAppSink(notifications)}

	rt := Runtime{
		UoW:        testutil.NewTestUoW(database),
		Clock:      clock,
		Dispatcher: notify.NewDispatcher(clock, "https://onboarding.example.com"),
		Sink:       sink,
		Logger:     zaptest.NewLogger(t),
	}
	return newHarnessWith(database, clock, sink, rt)
}

func newHarnessWith(database *sql.DB, clock testutil.FixedClock, sink *recordingSink, rt Runtime) *harness {
	users := repository.NewSQLiteUserRepo(database)
	entities := repository.NewSQLiteEntityRepo(database)
	processes := repository.NewSQLiteProcessRepo(database)
	tasks := repository.NewSQLiteTaskRepo(database)
	taskDeps := repository.NewSQLiteTaskDependencyRepo(database)

	return &harness{
		db:        database,
		clock:     clock,
		sink:      sink,
		rt:        rt,
		directory: NewDirectoryService(users, entities, rt),
		templates: NewTemplateService(
			repository.NewSQLiteTemplateRepo(database),
			repository.NewSQLiteTemplateNodeRepo(database),
			repository.NewSQLiteTemplateDependencyRepo(database),
			entities, rt),
		processes: NewProcessService(processes, tasks, taskDeps, rt),
		status:    NewStatusService(tasks, rt),
		overdue:   NewOverdueService(processes, tasks, taskDeps, rt),
		inbox:     NewInboxService(repository.NewSQLiteNotificationRepo(database), rt),
		agenda:    NewAgendaService(users, tasks, processes),
	}
}

func (h *harness) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := h.directory.CreateUser(context.Background(), name, name+"@example.com")
	require.NoError(t, err)
	return u
}

func (h *harness) entity(t *testing.T, name string, fields ...domain.FieldDefinition) *domain.Entity {
	t.Helper()
	e := &domain.Entity{Name: name, Fields: fields}
	require.NoError(t, h.directory.CreateEntity(context.Background(), e))
	return e
}

func (h *harness) template(t *testing.T, name string) *domain.Template {
	t.Helper()
	tmpl, err := h.templates.Create(context.Background(), name, "")
	require.NoError(t, err)
	return tmpl
}

// node adds a node for a fresh entity named name.
func (h *harness) node(t *testing.T, templateID, name string, opts ...testutil.NodeOption) *domain.TemplateNode {
	t.Helper()
	e := h.entity(t, name)
	n := testutil.NewTestNode(templateID, e, opts...)
	_, err := h.templates.CreateTemplateNode(context.Background(), n)
	require.NoError(t, err)
	return n
}

func (h *harness) dependsOn(t *testing.T, node, dependency *domain.TemplateNode) {
	t.Helper()
	_, err := h.templates.AddDependency(context.Background(), node.ID, dependency.ID)
	require.NoError(t, err)
}

func (h *harness) hire(t *testing.T, templateID, employee string) *engine.TaskGraph {
	t.Helper()
	g, err := h.processes.InstantiateProcess(context.Background(), templateID, engine.HireParams{
		EmployeeName: employee,
		StartDate:    testutil.Date(2025, time.March, 17),
	})
	require.NoError(t, err)
	return g
}

// taskFor returns the task in g created from node.
func taskFor(t *testing.T, g *engine.TaskGraph, node *domain.TemplateNode) *domain.Task {
	t.Helper()
	for _, task := range g.Tasks() {
		if task.SourceNodeID != nil && *task.SourceNodeID == node.ID {
			return task
		}
	}
	t.Fatalf("no task for node %s", node.ID)
	return nil
}

// reload returns the persisted graph of a process.
func (h *harness) reload(t *testing.T, processID string) *engine.TaskGraph {
	t.Helper()
	g, err := h.processes.Get(context.Background(), processID)
	require.NoError(t, err)
	return g
}

func statusOf(t *testing.T, g *engine.TaskGraph, taskID string) domain.TaskStatus {
	t.Helper()
	task, ok := g.Task(taskID)
	require.True(t, ok, "task %s missing", taskID)
	return task.Status
}

func countRows(t *testing.T, database *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}
