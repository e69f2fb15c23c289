package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/domain"
)

// SQLiteTemplateRepo implements TemplateRepo using a SQLite database.
type SQLiteTemplateRepo struct {
	db db.DBTX
}

func NewSQLiteTemplateRepo(db db.DBTX) *SQLiteTemplateRepo {
	return &SQLiteTemplateRepo{db: db}
}

const templateColumns = `id, name, description, active, created_at, updated_at`

func (r *SQLiteTemplateRepo) Create(ctx context.Context, t *domain.Template) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO templates (`+templateColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Description, boolToInt(t.Active), formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting template: %w", err)
	}
	return nil
}

func (r *SQLiteTemplateRepo) GetByID(ctx context.Context, id string) (*domain.Template, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if err != nil {
		return nil, notFoundOr(err, "template", id)
	}
	return t, nil
}

func (r *SQLiteTemplateRepo) List(ctx context.Context, includeInactive bool) ([]*domain.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE active = 1 ORDER BY name`
	if includeInactive {
		query = `SELECT ` + templateColumns + ` FROM templates ORDER BY name`
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	var templates []*domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning template row: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating templates: %w", err)
	}
	return templates, nil
}

func (r *SQLiteTemplateRepo) Update(ctx context.Context, t *domain.Template) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE templates SET name = ?, description = ?, active = ?, updated_at = ? WHERE id = ?`,
		t.Name, t.Description, boolToInt(t.Active), formatTime(t.UpdatedAt), t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating template: %w", err)
	}
	return requireAffected(res, "template", t.ID)
}

// Delete removes the template with its nodes, rules and edges. Processes
// created from it keep their tasks.
func (r *SQLiteTemplateRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	return requireAffected(res, "template", id)
}

func scanTemplate(s scanner) (*domain.Template, error) {
	var t domain.Template
	var active int
	var createdAt, updatedAt string
	if err := s.Scan(&t.ID, &t.Name, &t.Description, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Active = intToBool(active)
	var err error
	if t.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
