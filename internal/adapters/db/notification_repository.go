package db

import (
	"context"
	"fmt"

	"subastas-service/internal/domain/shared"

	"github.com/google/uuid"
)

// NotificationRepository implements the notification repository interface
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

const notificationColumns = `id, admin_id, request_id, message, read, created_at`

// Create creates a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *shared.Notification) error {
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		n.ID,
		n.AdminID,
		n.RequestID,
		n.Message,
		n.Read,
		n.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// ListByAdmin retrieves an admin's notifications, newest first
func (r *NotificationRepository) ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]*shared.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE admin_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*shared.Notification
	for rows.Next() {
		var n shared.Notification
		err := rows.Scan(
			&n.ID,
			&n.AdminID,
			&n.RequestID,
			&n.Message,
			&n.Read,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// CountUnread returns the number of unread notifications for an admin
func (r *NotificationRepository) CountUnread(ctx context.Context, adminID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE admin_id = $1 AND read = FALSE
	`

	var count int
	if err := r.conn.GetDB().QueryRowContext(ctx, query, adminID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

// MarkAllRead sets every read flag for an admin in one statement
func (r *NotificationRepository) MarkAllRead(ctx context.Context, adminID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET read = TRUE
		WHERE admin_id = $1 AND read = FALSE
	`

	if _, err := r.conn.GetDB().ExecContext(ctx, query, adminID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return nil
}
