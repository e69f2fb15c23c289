package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/domain"
)

// SQLiteNotificationRepo is the in-app inbox.
type SQLiteNotificationRepo struct {
	db db.DBTX
}

func NewSQLiteNotificationRepo(db db.DBTX) *SQLiteNotificationRepo {
	return &SQLiteNotificationRepo{db: db}
}

const notificationColumns = `id, recipient_id, type, title, body, process_id, task_id, send_email, send_in_app,
	is_read, email_sent, created_at`

func (r *SQLiteNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	processID, taskID := n.ProcessID, n.TaskID
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (`+notificationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.RecipientID, string(n.Type), n.Title, n.Body,
		nullableStringToValue(&processID), nullableStringToValue(&taskID),
		boolToInt(n.SendEmail), boolToInt(n.SendInApp), boolToInt(n.Read), boolToInt(n.EmailSent),
		formatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// ListForRecipient returns the newest notifications first.
func (r *SQLiteNotificationRepo) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := r.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}
	return out, nil
}

func (r *SQLiteNotificationRepo) MarkRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	return requireAffected(res, "notification", id)
}

func (r *SQLiteNotificationRepo) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE recipient_id = ? AND is_read = 0`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteNotificationRepo) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = 0`, recipientID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

func scanNotification(s scanner) (*domain.Notification, error) {
	var n domain.Notification
	var typ, createdAt string
	var processID, taskID sql.NullString
	var email, inApp, read, sent int
	err := s.Scan(&n.ID, &n.RecipientID, &typ, &n.Title, &n.Body, &processID, &taskID,
		&email, &inApp, &read, &sent, &createdAt)
	if err != nil {
		return nil, err
	}
	n.Type = domain.NotificationType(typ)
	n.ProcessID = processID.String
	n.TaskID = taskID.String
	n.SendEmail = intToBool(email)
	n.SendInApp = intToBool(inApp)
	n.Read = intToBool(read)
	n.EmailSent = intToBool(sent)
	if n.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	return &n, nil
}
