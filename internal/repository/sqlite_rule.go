package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/domain"
)

// ruleTable describes one of the two notification rule tables, which share
// a layout and differ only in their owner column.
type ruleTable struct {
	name     string
	ownerCol string
}

var (
	templateRuleTable = ruleTable{name: "template_node_rules", ownerCol: "node_id"}
	taskRuleTable     = ruleTable{name: "task_rules", ownerCol: "task_id"}
)

const ruleColumns = `id, notify_user_id, notify_assignee, notify_dependent_assignees, trigger_status, send_email, send_in_app`

func (t ruleTable) insert(ctx context.Context, q db.DBTX, ownerID string, r *domain.NotificationRule) error {
	_, err := q.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, t.name, t.ownerCol, ruleColumns),
		ownerID, r.ID, nullableStringToValue(r.NotifyUserID),
		boolToInt(r.NotifyAssignee), boolToInt(r.NotifyDependentAssignees),
		string(r.Trigger), boolToInt(r.SendEmail), boolToInt(r.SendInApp),
	)
	if err != nil {
		return fmt.Errorf("inserting notification rule: %w", err)
	}
	return nil
}

// list returns the rules matching where, grouped by owner ID in insertion
// order.
func (t ruleTable) list(ctx context.Context, q db.DBTX, where string, args ...any) (map[string][]domain.NotificationRule, error) {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s ORDER BY rowid`, t.ownerCol, ruleColumns, t.name, where), args...)
	if err != nil {
		return nil, fmt.Errorf("listing notification rules: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.NotificationRule)
	for rows.Next() {
		var owner, trigger string
		var r domain.NotificationRule
		var notifyUser sql.NullString
		var assignee, dependents, email, inApp int
		if err := rows.Scan(&owner, &r.ID, &notifyUser, &assignee, &dependents, &trigger, &email, &inApp); err != nil {
			return nil, fmt.Errorf("scanning notification rule: %w", err)
		}
		r.NotifyUserID = nullableStringPtr(notifyUser)
		r.NotifyAssignee = intToBool(assignee)
		r.NotifyDependentAssignees = intToBool(dependents)
		r.Trigger = domain.TaskStatus(trigger)
		r.SendEmail = intToBool(email)
		r.SendInApp = intToBool(inApp)
		out[owner] = append(out[owner], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notification rules: %w", err)
	}
	return out, nil
}
