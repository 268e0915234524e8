package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ekaya/yolda/database"
	"github.com/ekaya/yolda/models"
)

// sqliteNotificationRepo, NotificationRepository interface'inin SQLite implementasyonu.
type sqliteNotificationRepo struct {
	db database.TxQuerier
}

// NewSQLiteNotificationRepo, constructor.
func NewSQLiteNotificationRepo(db database.TxQuerier) NotificationRepository {
	return &sqliteNotificationRepo{db: db}
}

func (r *sqliteNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	notification.ID = uuid.NewString()

	query := `
		INSERT INTO notifications (id, recipient_id, type, payload)
		VALUES (?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		notification.ID,
		notification.RecipientID,
		notification.Type,
		notification.Payload,
	).Scan(&notification.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *sqliteNotificationRepo) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, recipient_id, type, payload, is_read, created_at
		FROM notifications
		WHERE recipient_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, recipientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Type, &n.Payload, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return notifications, nil
}

func (r *sqliteNotificationRepo) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE recipient_id = ? AND is_read = 0`, recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *sqliteNotificationRepo) MarkAllRead(ctx context.Context, recipientID string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1
		WHERE recipient_id = ? AND is_read = 0`, recipientID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
