package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/domain"
)

// SQLiteProcessRepo implements ProcessRepo using a SQLite database.
type SQLiteProcessRepo struct {
	db db.DBTX
}

func NewSQLiteProcessRepo(db db.DBTX) *SQLiteProcessRepo {
	return &SQLiteProcessRepo{db: db}
}

const processColumns = `id, template_id, employee_name, email, department, position, start_date, notes,
	created_by, created_at, updated_at`

func (r *SQLiteProcessRepo) Create(ctx context.Context, p *domain.Process) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO processes (`+processColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		nullableStringToValue(p.TemplateID),
		p.EmployeeName,
		p.Email,
		p.Department,
		p.Position,
		p.StartDate.Format(dateLayout),
		p.Notes,
		nullableStringToValue(p.CreatedBy),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting process: %w", err)
	}
	return nil
}

func (r *SQLiteProcessRepo) GetByID(ctx context.Context, id string) (*domain.Process, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+processColumns+` FROM processes WHERE id = ?`, id)
	p, err := scanProcess(row)
	if err != nil {
		return nil, notFoundOr(err, "process", id)
	}
	return p, nil
}

// List returns processes with the nearest start date first.
func (r *SQLiteProcessRepo) List(ctx context.Context) ([]*domain.Process, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+processColumns+` FROM processes ORDER BY start_date DESC, employee_name`)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}
	defer rows.Close()

	var processes []*domain.Process
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning process row: %w", err)
		}
		processes = append(processes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating processes: %w", err)
	}
	return processes, nil
}

func (r *SQLiteProcessRepo) Touch(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE processes SET updated_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("touching process: %w", err)
	}
	return requireAffected(res, "process", id)
}

// Delete removes the process and, by cascade, its tasks and edges.
func (r *SQLiteProcessRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM processes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting process: %w", err)
	}
	return requireAffected(res, "process", id)
}

func scanProcess(s scanner) (*domain.Process, error) {
	var p domain.Process
	var templateID, createdBy sql.NullString
	var startDate, createdAt, updatedAt string
	err := s.Scan(
		&p.ID, &templateID, &p.EmployeeName, &p.Email, &p.Department, &p.Position,
		&startDate, &p.Notes, &createdBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.TemplateID = nullableStringPtr(templateID)
	p.CreatedBy = nullableStringPtr(createdBy)

	if p.StartDate, err = time.Parse(dateLayout, startDate); err != nil {
		return nil, fmt.Errorf("parsing start_date: %w", err)
	}
	if p.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
