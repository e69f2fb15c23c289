package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/domain"
)

// SQLiteTemplateDependencyRepo stores template node edges. It does not check
// for cycles; callers validate with graph.FindPath first.
type SQLiteTemplateDependencyRepo struct {
	db db.DBTX
}

func NewSQLiteTemplateDependencyRepo(db db.DBTX) *SQLiteTemplateDependencyRepo {
	return &SQLiteTemplateDependencyRepo{db: db}
}

// Create is idempotent: inserting an existing edge is a no-op. Self-edges
// still fail the table's CHECK constraint.
func (r *SQLiteTemplateDependencyRepo) Create(ctx context.Context, d domain.Dependency) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO template_dependencies (node_id, depends_on_id) VALUES (?, ?)
		 ON CONFLICT(node_id, depends_on_id) DO NOTHING`,
		d.NodeID, d.DependsOnID,
	)
	if err != nil {
		return fmt.Errorf("inserting template dependency: %w", err)
	}
	return nil
}

func (r *SQLiteTemplateDependencyRepo) Delete(ctx context.Context, nodeID, dependsOnID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM template_dependencies WHERE node_id = ? AND depends_on_id = ?`, nodeID, dependsOnID)
	if err != nil {
		return fmt.Errorf("deleting template dependency: %w", err)
	}
	return requireAffected(res, "template dependency", nodeID+" -> "+dependsOnID)
}

func (r *SQLiteTemplateDependencyRepo) ListByTemplate(ctx context.Context, templateID string) ([]domain.Dependency, error) {
	return listEdges(ctx, r.db,
		`SELECT d.node_id, d.depends_on_id
		FROM template_dependencies d
		JOIN template_nodes n ON n.id = d.node_id
		WHERE n.template_id = ?
		ORDER BY d.node_id, d.depends_on_id`, templateID)
}

func (r *SQLiteTemplateDependencyRepo) ListDependencyIDs(ctx context.Context, nodeID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT depends_on_id FROM template_dependencies WHERE node_id = ? ORDER BY depends_on_id`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("listing dependencies of %s: %w", nodeID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning dependency id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dependency ids: %w", err)
	}
	return ids, nil
}

// SQLiteTaskDependencyRepo stores task edges copied at instantiation.
type SQLiteTaskDependencyRepo struct {
	db db.DBTX
}

func NewSQLiteTaskDependencyRepo(db db.DBTX) *SQLiteTaskDependencyRepo {
	return &SQLiteTaskDependencyRepo{db: db}
}

func (r *SQLiteTaskDependencyRepo) Create(ctx context.Context, d domain.Dependency) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO task_dependencies (task_id, depends_on_id) VALUES (?, ?)`, d.NodeID, d.DependsOnID)
	if err != nil {
		return fmt.Errorf("inserting task dependency: %w", err)
	}
	return nil
}

func (r *SQLiteTaskDependencyRepo) ListByProcess(ctx context.Context, processID string) ([]domain.Dependency, error) {
	return listEdges(ctx, r.db,
		`SELECT d.task_id, d.depends_on_id
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.task_id
		WHERE t.process_id = ?
		ORDER BY d.task_id, d.depends_on_id`, processID)
}

func listEdges(ctx context.Context, q db.DBTX, query string, args ...any) ([]domain.Dependency, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing dependencies: %w", err)
	}
	defer rows.Close()

	var deps []domain.Dependency
	for rows.Next() {
		var d domain.Dependency
		if err := rows.Scan(&d.NodeID, &d.DependsOnID); err != nil {
			return nil, fmt.Errorf("scanning dependency: %w", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dependencies: %w", err)
	}
	return deps, nil
}
