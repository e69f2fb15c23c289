package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/engine"
	"github.com/alexanderramin/kickoff/internal/notify"
	"github.com/alexanderramin/kickoff/internal/repository"
	"github.com/alexanderramin/kickoff/internal/service"
	"github.com/alexanderramin/kickoff/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cliNow = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) *App {
	t.Helper()
	db := testutil.NewTestDB(t)
	clock := testutil.FixedClock{At: cliNow}

	users := repository.NewSQLiteUserRepo(db)
	entities := repository.NewSQLiteEntityRepo(db)
	processes := repository.NewSQLiteProcessRepo(db)
	tasks := repository.NewSQLiteTaskRepo(db)
	taskDeps := repository.NewSQLiteTaskDependencyRepo(db)
	notifications := repository.NewSQLiteNotificationRepo(db)

	rt := service.Runtime{
		UoW:        testutil.NewTestUoW(db),
		Clock:      clock,
		Dispatcher: notify.NewDispatcher(clock, ""),
		Sink:       notify.NewInAppSink(notifications),
	}
	return &App{
		Directory: service.NewDirectoryService(users, entities, rt),
		Templates: service.NewTemplateService(
			repository.NewSQLiteTemplateRepo(db),
			repository.NewSQLiteTemplateNodeRepo(db),
			repository.NewSQLiteTemplateDependencyRepo(db),
			entities, rt),
		Processes: service.NewProcessService(processes, tasks, taskDeps, rt),
		Status:    service.NewStatusService(tasks, rt),
		Overdue:   service.NewOverdueService(processes, tasks, taskDeps, rt),
		Inbox:     service.NewInboxService(notifications, rt),
		Agenda:    service.NewAgendaService(users, tasks, processes),
		Clock:     clock,
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

type seeded struct {
	owner    *domain.User
	template *domain.Template
	laptop   *domain.TemplateNode
	accounts *domain.TemplateNode
}

// seedTemplate builds Laptop -> Accounts, both assigned to Ann with a ready
// rule, and a todo list field on Laptop.
func seedTemplate(t *testing.T, app *App) seeded {
	t.Helper()
	ctx := context.Background()
	owner, err := app.Directory.CreateUser(ctx, "Ann", "ann@example.com")
	require.NoError(t, err)
	tmpl, err := app.Templates.Create(ctx, "Engineering", "")
	require.NoError(t, err)

	laptopEntity := testutil.NewTestEntity("Laptop", testutil.WithField("Accessories", domain.FieldTodoList, ""))
	require.NoError(t, app.Directory.CreateEntity(ctx, laptopEntity))
	accountsEntity := testutil.NewTestEntity("Accounts")
	require.NoError(t, app.Directory.CreateEntity(ctx, accountsEntity))

	rule := testutil.AssigneeRule(domain.TaskReady)
	laptop := testutil.NewTestNode(tmpl.ID, laptopEntity, testutil.WithDefaultAssignee(owner.ID), testutil.WithRule(rule))
	_, err = app.Templates.CreateTemplateNode(ctx, laptop)
	require.NoError(t, err)
	accounts := testutil.NewTestNode(tmpl.ID, accountsEntity, testutil.WithDefaultAssignee(owner.ID), testutil.WithRule(rule))
	_, err = app.Templates.CreateTemplateNode(ctx, accounts)
	require.NoError(t, err)
	_, err = app.Templates.AddDependency(ctx, accounts.ID, laptop.ID)
	require.NoError(t, err)

	return seeded{owner: owner, template: tmpl, laptop: laptop, accounts: accounts}
}

func startProcess(t *testing.T, app *App, s seeded) *engine.TaskGraph {
	t.Helper()
	_, err := executeCmd(t, app, "process", "start", s.template.ID, "--name", "Grace Hopper", "--start", "2025-03-17")
	require.NoError(t, err)
	list, err := app.Processes.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	g, err := app.Processes.Get(context.Background(), list[0].ID)
	require.NoError(t, err)
	return g
}

func taskNamed(t *testing.T, g *engine.TaskGraph, name string) *domain.Task {
	t.Helper()
	for _, task := range g.Tasks() {
		if task.Name == name {
			return task
		}
	}
	t.Fatalf("no task named %s", name)
	return nil
}

func TestUserCmd_AddAndList(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "user", "add", "--name", "Ann", "--email", "ann@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user Ann")

	_, err = executeCmd(t, app, "user", "add", "--name", "Bob", "--email", "nope")
	require.Error(t, err)

	out, err = executeCmd(t, app, "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ann@example.com")
	assert.NotContains(t, out, "Bob")
}

func TestEntityCmd_AddWithFields(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "entity", "add", "--name", "Laptop",
		"--field", "Model:text=ThinkPad", "--field", "Accessories:todolist=dock|mouse")
	require.NoError(t, err)
	assert.Contains(t, out, "with 2 field(s)")

	_, err = executeCmd(t, app, "entity", "add", "--name", "Desk", "--field", "Color:select")
	require.Error(t, err)
}

func TestTemplateDepCmd_RejectsCycleWithNames(t *testing.T) {
	app := testApp(t)
	s := seedTemplate(t, app)

	_, err := executeCmd(t, app, "template", "dep", "add", s.template.ID, s.laptop.ID, s.accounts.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "would close the cycle")
	assert.Contains(t, err.Error(), "Laptop")
	var cycle *domain.CycleError
	assert.ErrorAs(t, err, &cycle)

	out, err := executeCmd(t, app, "template", "dep", "remove", s.template.ID, s.accounts.ID, s.laptop.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Accounts")
}

func TestProcessStart_RendersTasks(t *testing.T) {
	app := testApp(t)
	s := seedTemplate(t, app)

	out, err := executeCmd(t, app, "process", "start", s.template.ID, "--name", "Grace Hopper", "--start", "2025-03-17")
	require.NoError(t, err)
	assert.Contains(t, out, "Started onboarding for Grace Hopper")
	assert.Contains(t, out, "with 2 task(s)")
	assert.Contains(t, out, "Laptop")

	_, err = executeCmd(t, app, "process", "start", s.template.ID, "--name", "Alan", "--start", "17/03/2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid start date")
}

func TestTaskComplete_UnlocksDependent(t *testing.T) {
	app := testApp(t)
	s := seedTemplate(t, app)
	g := startProcess(t, app, s)
	laptop := taskNamed(t, g, "Laptop")
	accounts := taskNamed(t, g, "Accounts")

	out, err := executeCmd(t, app, "task", "complete", g.Process.ID, laptop.ID, "--by", s.owner.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Laptop is now")
	assert.Contains(t, out, "Accounts")
	assert.Contains(t, out, "1 notification(s) sent")

	g, err = app.Processes.Get(context.Background(), g.Process.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskReady, taskNamed(t, g, "Accounts").Status)

	_, err = executeCmd(t, app, "task", "status", g.Process.ID, laptop.ID, "pending")
	require.NoError(t, err)
	g, err = app.Processes.Get(context.Background(), g.Process.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskPending, taskNamed(t, g, "Accounts").Status)

	_, err = executeCmd(t, app, "task", "start", g.Process.ID, accounts.ID)
	var invalid *domain.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}

func TestTaskTodoAndUpdate(t *testing.T) {
	app := testApp(t)
	s := seedTemplate(t, app)
	g := startProcess(t, app, s)
	laptop := taskNamed(t, g, "Laptop")

	out, err := executeCmd(t, app, "task", "todo", g.Process.ID, laptop.ID, "accessories", "add", "USB-C dock")
	require.NoError(t, err)
	assert.Contains(t, out, "USB-C dock")

	_, err = executeCmd(t, app, "task", "todo", g.Process.ID, laptop.ID, "Accessories", "toggle", "zero")
	require.Error(t, err)

	_, err = executeCmd(t, app, "task", "update", g.Process.ID, laptop.ID, "--deadline", "2025-03-20", "--assignee", "")
	require.NoError(t, err)
	g, err = app.Processes.Get(context.Background(), g.Process.ID)
	require.NoError(t, err)
	updated := taskNamed(t, g, "Laptop")
	assert.Nil(t, updated.AssigneeID)
	require.NotNil(t, updated.Deadline)
	assert.Equal(t, "2025-03-20", updated.Deadline.Format(time.DateOnly))
	assert.True(t, updated.DeadlineOverridden)
}

func TestInboxCmd(t *testing.T) {
	app := testApp(t)
	s := seedTemplate(t, app)
	startProcess(t, app, s)

	out, err := executeCmd(t, app, "inbox", "list", s.owner.ID, "--unread")
	require.NoError(t, err)
	assert.Contains(t, out, string(domain.NotifyTaskReady))

	out, err = executeCmd(t, app, "inbox", "read-all", s.owner.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Marked 1 notification(s) read.")

	out, err = executeCmd(t, app, "inbox", "list", s.owner.ID, "--unread")
	require.NoError(t, err)
	assert.Contains(t, out, "Inbox is empty.")
}

func TestOverdueCmd(t *testing.T) {
	app := testApp(t)
	s := seedTemplate(t, app)
	startProcess(t, app, s)

	out, err := executeCmd(t, app, "overdue")
	require.NoError(t, err)
	assert.Contains(t, out, "Sent 0 overdue reminder(s).")
}

func TestDestructiveCmd_RequiresYesWithoutTerminal(t *testing.T) {
	app := testApp(t)
	s := seedTemplate(t, app)
	g := startProcess(t, app, s)

	_, err := executeCmd(t, app, "process", "remove", g.Process.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	app.IsInteractive = func() bool { return true }
	app.Confirm = func(string) (bool, error) { return false, nil }
	_, err = executeCmd(t, app, "process", "remove", g.Process.ID)
	assert.ErrorIs(t, err, errCancelled)

	out, err := executeCmd(t, app, "process", "remove", g.Process.ID, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Process deleted.")
}

func TestTemplateImportCmd(t *testing.T) {
	app := testApp(t)
	_, err := app.Directory.CreateUser(context.Background(), "Ann", "ann@example.com")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "engineering.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
template:
  name: Engineering
entities:
  - name: Laptop
  - name: Accounts
nodes:
  - ref: laptop
    entity: Laptop
    assignee: ann@example.com
  - ref: accounts
    entity: Accounts
dependencies:
  - node: accounts
    depends_on: laptop
`), 0o600))

	out, err := executeCmd(t, app, "template", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported template Engineering")
	assert.Contains(t, out, "with 2 node(s)")

	_, err = executeCmd(t, app, "template", "import", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "loading import file")
}

func TestAgendaCmd(t *testing.T) {
	app := testApp(t)
	s := seedTemplate(t, app)
	g := startProcess(t, app, s)

	out, err := executeCmd(t, app, "agenda", s.owner.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "2 open")
	assert.Contains(t, out, "Grace Hopper")
	assert.Contains(t, out, "Laptop")

	_, err = executeCmd(t, app, "task", "complete", g.Process.ID, taskNamed(t, g, "Laptop").ID)
	require.NoError(t, err)
	out, err = executeCmd(t, app, "agenda", s.owner.ID, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 completed")
	assert.Contains(t, out, "Accounts")
}
