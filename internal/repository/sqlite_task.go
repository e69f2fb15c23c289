package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/domain"
)

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db db.DBTX
}

func NewSQLiteTaskRepo(db db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: db}
}

const taskColumns = `id, process_id, source_node_id, entity_id, name, description, status, assignee_id,
	deadline, deadline_overridden, sort_order, completed_at, completed_by, created_at`

// Create inserts the task with its rules and field values.
func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.ProcessID,
		nullableStringToValue(t.SourceNodeID),
		nullableStringToValue(t.EntityID),
		t.Name,
		t.Description,
		string(t.Status),
		nullableStringToValue(t.AssigneeID),
		nullableTimeToString(t.Deadline, dateLayout),
		boolToInt(t.DeadlineOverridden),
		t.SortOrder,
		nullableTimeToString(t.CompletedAt, time.RFC3339),
		nullableStringToValue(t.CompletedBy),
		formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	for i := range t.Rules {
		if err := taskRuleTable.insert(ctx, r.db, t.ID, &t.Rules[i]); err != nil {
			return err
		}
	}
	for i := range t.Fields {
		t.Fields[i].TaskID = t.ID
		if err := r.insertFieldValue(ctx, &t.Fields[i], i); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, notFoundOr(err, "task", id)
	}
	if err := r.attach(ctx, []*domain.Task{t}, "task_id = ?", id); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *SQLiteTaskRepo) ListByProcess(ctx context.Context, processID string) ([]*domain.Task, error) {
	tasks, err := r.query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE process_id = ? ORDER BY sort_order, id`, processID)
	if err != nil {
		return nil, err
	}
	if err := r.attach(ctx, tasks, "task_id IN (SELECT id FROM tasks WHERE process_id = ?)", processID); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *SQLiteTaskRepo) ListOverdue(ctx context.Context, day time.Time) ([]*domain.Task, error) {
	tasks, err := r.query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		WHERE deadline IS NOT NULL AND deadline < ? AND status IN ('pending','ready','in_progress')
		ORDER BY deadline, process_id, sort_order`, day.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *SQLiteTaskRepo) ListByAssignee(ctx context.Context, userID string) ([]*domain.Task, error) {
	return r.query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE assignee_id = ? ORDER BY process_id, sort_order`, userID)
}

func (r *SQLiteTaskRepo) UpdateState(ctx context.Context, t *domain.Task) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, completed_at = ?, completed_by = ? WHERE id = ?`,
		string(t.Status),
		nullableTimeToString(t.CompletedAt, time.RFC3339),
		nullableStringToValue(t.CompletedBy),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task state: %w", err)
	}
	return requireAffected(res, "task", t.ID)
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET name = ?, description = ?, assignee_id = ?, deadline = ?, deadline_overridden = ?
		WHERE id = ?`,
		t.Name,
		t.Description,
		nullableStringToValue(t.AssigneeID),
		nullableTimeToString(t.Deadline, dateLayout),
		boolToInt(t.DeadlineOverridden),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return requireAffected(res, "task", t.ID)
}

const fieldValueColumns = `id, task_id, field_definition_id, name, field_type, text_value, number_value,
	checkbox_value, todo_items`

func (r *SQLiteTaskRepo) GetFieldValue(ctx context.Context, id string) (*domain.FieldValue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fieldValueColumns+` FROM task_field_values WHERE id = ?`, id)
	fv, err := scanFieldValue(row)
	if err != nil {
		return nil, notFoundOr(err, "field value", id)
	}
	return fv, nil
}

func (r *SQLiteTaskRepo) UpdateFieldValue(ctx context.Context, fv *domain.FieldValue) error {
	todos, err := encodeTodos(fv.Todos)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE task_field_values SET text_value = ?, number_value = ?, checkbox_value = ?, todo_items = ?
		WHERE id = ?`,
		fv.Text, nullableFloat(fv.Number), nullableBool(fv.Checkbox), todos, fv.ID,
	)
	if err != nil {
		return fmt.Errorf("updating field value: %w", err)
	}
	return requireAffected(res, "field value", fv.ID)
}

func (r *SQLiteTaskRepo) insertFieldValue(ctx context.Context, fv *domain.FieldValue, order int) error {
	todos, err := encodeTodos(fv.Todos)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO task_field_values (`+fieldValueColumns+`, sort_order) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fv.ID, fv.TaskID, nullableStringToValue(&fv.FieldDefinitionID), fv.Name, string(fv.Type),
		fv.Text, nullableFloat(fv.Number), nullableBool(fv.Checkbox), todos, order,
	)
	if err != nil {
		return fmt.Errorf("inserting field value: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) query(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

// attach loads rules and field values for tasks selected by where, which
// filters on task_id.
func (r *SQLiteTaskRepo) attach(ctx context.Context, tasks []*domain.Task, where string, args ...any) error {
	rules, err := taskRuleTable.list(ctx, r.db, where, args...)
	if err != nil {
		return err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fieldValueColumns+` FROM task_field_values WHERE `+where+` ORDER BY sort_order, id`, args...)
	if err != nil {
		return fmt.Errorf("listing field values: %w", err)
	}
	defer rows.Close()

	fields := make(map[string][]domain.FieldValue)
	for rows.Next() {
		fv, err := scanFieldValue(rows)
		if err != nil {
			return fmt.Errorf("scanning field value: %w", err)
		}
		fields[fv.TaskID] = append(fields[fv.TaskID], *fv)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating field values: %w", err)
	}

	for _, t := range tasks {
		t.Rules = rules[t.ID]
		t.Fields = fields[t.ID]
	}
	return nil
}

func scanTask(s scanner) (*domain.Task, error) {
	var t domain.Task
	var sourceNode, entity, assignee, completedBy sql.NullString
	var deadline, completedAt sql.NullString
	var status, createdAt string
	var overridden int
	err := s.Scan(
		&t.ID, &t.ProcessID, &sourceNode, &entity, &t.Name, &t.Description, &status, &assignee,
		&deadline, &overridden, &t.SortOrder, &completedAt, &completedBy, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	t.SourceNodeID = nullableStringPtr(sourceNode)
	t.EntityID = nullableStringPtr(entity)
	t.Status = domain.TaskStatus(status)
	t.AssigneeID = nullableStringPtr(assignee)
	t.Deadline = parseNullableTime(deadline, dateLayout)
	t.DeadlineOverridden = intToBool(overridden)
	t.CompletedAt = parseNullableTime(completedAt, time.RFC3339)
	t.CompletedBy = nullableStringPtr(completedBy)
	if t.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanFieldValue(s scanner) (*domain.FieldValue, error) {
	var fv domain.FieldValue
	var defID sql.NullString
	var typ, todos string
	var number sql.NullFloat64
	var checkbox sql.NullInt64
	if err := s.Scan(&fv.ID, &fv.TaskID, &defID, &fv.Name, &typ, &fv.Text, &number, &checkbox, &todos); err != nil {
		return nil, err
	}
	if defID.Valid {
		fv.FieldDefinitionID = defID.String
	}
	fv.Type = domain.FieldType(typ)
	if number.Valid {
		v := number.Float64
		fv.Number = &v
	}
	if checkbox.Valid {
		v := checkbox.Int64 != 0
		fv.Checkbox = &v
	}
	if fv.Type == domain.FieldTodoList {
		fv.Todos = []domain.TodoItem{}
		if err := json.Unmarshal([]byte(todos), &fv.Todos); err != nil {
			return nil, fmt.Errorf("decoding todo items of %s: %w", fv.ID, err)
		}
	}
	return &fv, nil
}

func encodeTodos(items []domain.TodoItem) (string, error) {
	if items == nil {
		return "[]", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encoding todo items: %w", err)
	}
	return string(b), nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableBool(v *bool) any {
	if v == nil {
		return nil
	}
	return boolToInt(*v)
}
