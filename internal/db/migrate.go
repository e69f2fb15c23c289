package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Every statement is idempotent so the
// whole list is replayed on each start.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		active     INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS entities (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS field_definitions (
		id            TEXT PRIMARY KEY,
		entity_id     TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		name          TEXT NOT NULL,
		field_type    TEXT NOT NULL CHECK(field_type IN ('text','number','checkbox','todolist')),
		required      INTEGER NOT NULL DEFAULT 0,
		default_value TEXT NOT NULL DEFAULT '',
		sort_order    INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_field_definitions_entity ON field_definitions(entity_id)`,

	`CREATE TABLE IF NOT EXISTS templates (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		active      INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS template_nodes (
		id                  TEXT PRIMARY KEY,
		template_id         TEXT NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
		entity_id           TEXT NOT NULL REFERENCES entities(id) ON DELETE RESTRICT,
		days_before_start   INTEGER CHECK(days_before_start IS NULL OR days_before_start >= 0),
		default_assignee_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		sort_order          INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_template_nodes_template ON template_nodes(template_id)`,

	`CREATE TABLE IF NOT EXISTS template_node_rules (
		id                         TEXT PRIMARY KEY,
		node_id                    TEXT NOT NULL REFERENCES template_nodes(id) ON DELETE CASCADE,
		notify_user_id             TEXT REFERENCES users(id) ON DELETE SET NULL,
		notify_assignee            INTEGER NOT NULL DEFAULT 0,
		notify_dependent_assignees INTEGER NOT NULL DEFAULT 0,
		trigger_status             TEXT NOT NULL
		                           CHECK(trigger_status IN ('ready','in_progress','completed','skipped')),
		send_email                 INTEGER NOT NULL DEFAULT 1,
		send_in_app                INTEGER NOT NULL DEFAULT 1
	)`,

	`CREATE INDEX IF NOT EXISTS idx_template_node_rules_node ON template_node_rules(node_id)`,

	`CREATE TABLE IF NOT EXISTS template_dependencies (
		node_id       TEXT NOT NULL REFERENCES template_nodes(id) ON DELETE CASCADE,
		depends_on_id TEXT NOT NULL REFERENCES template_nodes(id) ON DELETE CASCADE,
		PRIMARY KEY (node_id, depends_on_id),
		CHECK(node_id != depends_on_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_template_dependencies_depends_on ON template_dependencies(depends_on_id)`,

	`CREATE TABLE IF NOT EXISTS processes (
		id            TEXT PRIMARY KEY,
		template_id   TEXT REFERENCES templates(id) ON DELETE SET NULL,
		employee_name TEXT NOT NULL,
		email         TEXT NOT NULL DEFAULT '',
		department    TEXT NOT NULL DEFAULT '',
		position      TEXT NOT NULL DEFAULT '',
		start_date    TEXT NOT NULL,
		notes         TEXT NOT NULL DEFAULT '',
		created_by    TEXT REFERENCES users(id) ON DELETE SET NULL,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id                  TEXT PRIMARY KEY,
		process_id          TEXT NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
		source_node_id      TEXT REFERENCES template_nodes(id) ON DELETE SET NULL,
		entity_id           TEXT REFERENCES entities(id) ON DELETE SET NULL,
		name                TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL DEFAULT 'pending'
		                    CHECK(status IN ('pending','ready','in_progress','completed','skipped')),
		assignee_id         TEXT REFERENCES users(id) ON DELETE SET NULL,
		deadline            TEXT,
		deadline_overridden INTEGER NOT NULL DEFAULT 0,
		sort_order          INTEGER NOT NULL DEFAULT 0,
		completed_at        TEXT,
		completed_by        TEXT REFERENCES users(id) ON DELETE SET NULL,
		created_at          TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_process ON tasks(process_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_deadline ON tasks(deadline)`,

	`CREATE TABLE IF NOT EXISTS task_rules (
		id                         TEXT PRIMARY KEY,
		task_id                    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		notify_user_id             TEXT REFERENCES users(id) ON DELETE SET NULL,
		notify_assignee            INTEGER NOT NULL DEFAULT 0,
		notify_dependent_assignees INTEGER NOT NULL DEFAULT 0,
		trigger_status             TEXT NOT NULL
		                           CHECK(trigger_status IN ('ready','in_progress','completed','skipped')),
		send_email                 INTEGER NOT NULL DEFAULT 1,
		send_in_app                INTEGER NOT NULL DEFAULT 1
	)`,

	`CREATE INDEX IF NOT EXISTS idx_task_rules_task ON task_rules(task_id)`,

	`CREATE TABLE IF NOT EXISTS task_field_values (
		id                  TEXT PRIMARY KEY,
		task_id             TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		field_definition_id TEXT REFERENCES field_definitions(id) ON DELETE SET NULL,
		name                TEXT NOT NULL,
		field_type          TEXT NOT NULL CHECK(field_type IN ('text','number','checkbox','todolist')),
		text_value          TEXT NOT NULL DEFAULT '',
		number_value        REAL,
		checkbox_value      INTEGER,
		todo_items          TEXT NOT NULL DEFAULT '[]',
		sort_order          INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_task_field_values_task ON task_field_values(task_id)`,

	`CREATE TABLE IF NOT EXISTS task_dependencies (
		task_id       TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		depends_on_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, depends_on_id),
		CHECK(task_id != depends_on_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_task_dependencies_depends_on ON task_dependencies(depends_on_id)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id           TEXT PRIMARY KEY,
		recipient_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type         TEXT NOT NULL
		             CHECK(type IN ('task_ready','task_assigned','task_completed','task_overdue')),
		title        TEXT NOT NULL,
		body         TEXT NOT NULL DEFAULT '',
		process_id   TEXT REFERENCES processes(id) ON DELETE SET NULL,
		task_id      TEXT REFERENCES tasks(id) ON DELETE SET NULL,
		send_email   INTEGER NOT NULL DEFAULT 0,
		send_in_app  INTEGER NOT NULL DEFAULT 1,
		is_read      INTEGER NOT NULL DEFAULT 0,
		email_sent   INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, is_read)`,
}
