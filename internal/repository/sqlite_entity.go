package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/domain"
)

// SQLiteEntityRepo stores entities and their custom field definitions.
type SQLiteEntityRepo struct {
	db db.DBTX
}

func NewSQLiteEntityRepo(db db.DBTX) *SQLiteEntityRepo {
	return &SQLiteEntityRepo{db: db}
}

func (r *SQLiteEntityRepo) Create(ctx context.Context, e *domain.Entity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO entities (id, name, description, category, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Description, e.Category, formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting entity: %w", err)
	}
	for i := range e.Fields {
		e.Fields[i].EntityID = e.ID
		if err := r.AddField(ctx, &e.Fields[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteEntityRepo) GetByID(ctx context.Context, id string) (*domain.Entity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, category, created_at, updated_at FROM entities WHERE id = ?`, id)
	e, err := scanEntity(row)
	if err != nil {
		return nil, notFoundOr(err, "entity", id)
	}
	if e.Fields, err = r.listFields(ctx, id); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *SQLiteEntityRepo) List(ctx context.Context) ([]*domain.Entity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, category, created_at, updated_at FROM entities ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	var entities []*domain.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning entity row: %w", err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	rows.Close()

	for _, e := range entities {
		if e.Fields, err = r.listFields(ctx, e.ID); err != nil {
			return nil, err
		}
	}
	return entities, nil
}

func (r *SQLiteEntityRepo) Update(ctx context.Context, e *domain.Entity) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE entities SET name = ?, description = ?, category = ?, updated_at = ? WHERE id = ?`,
		e.Name, e.Description, e.Category, formatTime(e.UpdatedAt), e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating entity: %w", err)
	}
	return requireAffected(res, "entity", e.ID)
}

// Delete fails while template nodes still reference the entity.
func (r *SQLiteEntityRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}
	return requireAffected(res, "entity", id)
}

func (r *SQLiteEntityRepo) AddField(ctx context.Context, f *domain.FieldDefinition) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO field_definitions (id, entity_id, name, field_type, required, default_value, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.EntityID, f.Name, string(f.Type), boolToInt(f.Required), f.DefaultValue, f.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("inserting field definition: %w", err)
	}
	return nil
}

func (r *SQLiteEntityRepo) RemoveField(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM field_definitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting field definition: %w", err)
	}
	return requireAffected(res, "field definition", id)
}

func (r *SQLiteEntityRepo) listFields(ctx context.Context, entityID string) ([]domain.FieldDefinition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entity_id, name, field_type, required, default_value, sort_order
		FROM field_definitions WHERE entity_id = ? ORDER BY sort_order, name`, entityID)
	if err != nil {
		return nil, fmt.Errorf("listing field definitions: %w", err)
	}
	defer rows.Close()

	var fields []domain.FieldDefinition
	for rows.Next() {
		var f domain.FieldDefinition
		var typ string
		var required int
		if err := rows.Scan(&f.ID, &f.EntityID, &f.Name, &typ, &required, &f.DefaultValue, &f.SortOrder); err != nil {
			return nil, fmt.Errorf("scanning field definition: %w", err)
		}
		f.Type = domain.FieldType(typ)
		f.Required = intToBool(required)
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating field definitions: %w", err)
	}
	return fields, nil
}

func scanEntity(s scanner) (*domain.Entity, error) {
	var e domain.Entity
	var createdAt, updatedAt string
	if err := s.Scan(&e.ID, &e.Name, &e.Description, &e.Category, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if e.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
