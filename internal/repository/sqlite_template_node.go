package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/domain"
)

// SQLiteTemplateNodeRepo implements TemplateNodeRepo using a SQLite database.
type SQLiteTemplateNodeRepo struct {
	db db.DBTX
}

func NewSQLiteTemplateNodeRepo(db db.DBTX) *SQLiteTemplateNodeRepo {
	return &SQLiteTemplateNodeRepo{db: db}
}

const templateNodeColumns = `id, template_id, entity_id, days_before_start, default_assignee_id, sort_order`

// Create inserts the node and every rule attached to it.
func (r *SQLiteTemplateNodeRepo) Create(ctx context.Context, n *domain.TemplateNode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO template_nodes (`+templateNodeColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.TemplateID, n.EntityID, nullableIntToValue(n.DaysBeforeStart),
		nullableStringToValue(n.DefaultAssigneeID), n.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("inserting template node: %w", err)
	}
	for i := range n.Rules {
		if err := templateRuleTable.insert(ctx, r.db, n.ID, &n.Rules[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteTemplateNodeRepo) GetByID(ctx context.Context, id string) (*domain.TemplateNode, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+templateNodeColumns+` FROM template_nodes WHERE id = ?`, id)
	n, err := scanTemplateNode(row)
	if err != nil {
		return nil, notFoundOr(err, "template node", id)
	}
	rules, err := templateRuleTable.list(ctx, r.db, "node_id = ?", id)
	if err != nil {
		return nil, err
	}
	n.Rules = rules[id]
	return n, nil
}

func (r *SQLiteTemplateNodeRepo) ListByTemplate(ctx context.Context, templateID string) ([]*domain.TemplateNode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+templateNodeColumns+` FROM template_nodes WHERE template_id = ? ORDER BY sort_order, id`, templateID)
	if err != nil {
		return nil, fmt.Errorf("listing template nodes: %w", err)
	}
	var nodes []*domain.TemplateNode
	for rows.Next() {
		n, err := scanTemplateNode(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning template node row: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating template nodes: %w", err)
	}
	rows.Close()

	rules, err := templateRuleTable.list(ctx, r.db,
		"node_id IN (SELECT id FROM template_nodes WHERE template_id = ?)", templateID)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		n.Rules = rules[n.ID]
	}
	return nodes, nil
}

func (r *SQLiteTemplateNodeRepo) Update(ctx context.Context, n *domain.TemplateNode) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE template_nodes SET entity_id = ?, days_before_start = ?, default_assignee_id = ?, sort_order = ?
		WHERE id = ?`,
		n.EntityID, nullableIntToValue(n.DaysBeforeStart), nullableStringToValue(n.DefaultAssigneeID), n.SortOrder, n.ID,
	)
	if err != nil {
		return fmt.Errorf("updating template node: %w", err)
	}
	return requireAffected(res, "template node", n.ID)
}

// Delete removes the node; its rules and every edge touching it cascade.
func (r *SQLiteTemplateNodeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM template_nodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting template node: %w", err)
	}
	return requireAffected(res, "template node", id)
}

func (r *SQLiteTemplateNodeRepo) AddRule(ctx context.Context, nodeID string, rule *domain.NotificationRule) error {
	return templateRuleTable.insert(ctx, r.db, nodeID, rule)
}

func (r *SQLiteTemplateNodeRepo) DeleteRule(ctx context.Context, ruleID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM template_node_rules WHERE id = ?`, ruleID)
	if err != nil {
		return fmt.Errorf("deleting notification rule: %w", err)
	}
	return requireAffected(res, "notification rule", ruleID)
}

func (r *SQLiteTemplateNodeRepo) GetByRuleID(ctx context.Context, ruleID string) (*domain.TemplateNode, error) {
	var nodeID string
	err := r.db.QueryRowContext(ctx, `SELECT node_id FROM template_node_rules WHERE id = ?`, ruleID).Scan(&nodeID)
	if err != nil {
		return nil, notFoundOr(err, "notification rule", ruleID)
	}
	return r.GetByID(ctx, nodeID)
}

func scanTemplateNode(s scanner) (*domain.TemplateNode, error) {
	var n domain.TemplateNode
	var days sql.NullInt64
	var assignee sql.NullString
	if err := s.Scan(&n.ID, &n.TemplateID, &n.EntityID, &days, &assignee, &n.SortOrder); err != nil {
		return nil, err
	}
	n.DaysBeforeStart = nullableIntPtr(days)
	n.DefaultAssigneeID = nullableStringPtr(assignee)
	return &n, nil
}
