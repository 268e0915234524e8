package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ekaya/yolda/database"
	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
)

// sqliteSupportRepo, SupportRepository interface'inin SQLite implementasyonu.
type sqliteSupportRepo struct {
	db database.TxQuerier
}

// NewSQLiteSupportRepo, constructor.
func NewSQLiteSupportRepo(db database.TxQuerier) SupportRepository {
	return &sqliteSupportRepo{db: db}
}

const supportChatColumns = `id, user_id, is_open, created_at, updated_at`

func (r *sqliteSupportRepo) CreateChat(ctx context.Context, chat *models.SupportChat) error {
	chat.ID = uuid.NewString()
	chat.IsOpen = true

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO support_chats (id, user_id, is_open)
		VALUES (?, ?, 1)
		RETURNING created_at, updated_at`,
		chat.ID, chat.UserID,
	).Scan(&chat.CreatedAt, &chat.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create support chat: %w", err)
	}
	return nil
}

func (r *sqliteSupportRepo) GetChatByID(ctx context.Context, id string) (*models.SupportChat, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+supportChatColumns+` FROM support_chats WHERE id = ?`, id)
	return scanSupportChat(row)
}

func (r *sqliteSupportRepo) GetOpenChatByUser(ctx context.Context, userID string) (*models.SupportChat, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+supportChatColumns+` FROM support_chats
		WHERE user_id = ? AND is_open = 1
		ORDER BY updated_at DESC LIMIT 1`, userID)
	return scanSupportChat(row)
}

func (r *sqliteSupportRepo) ListOpenChats(ctx context.Context) ([]models.SupportChat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+supportChatColumns+` FROM support_chats
		WHERE is_open = 1 ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query support chats: %w", err)
	}
	defer rows.Close()

	var chats []models.SupportChat
	for rows.Next() {
		chat, err := scanSupportChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate support chats: %w", err)
	}
	return chats, nil
}

func (r *sqliteSupportRepo) CloseChat(ctx context.Context, chatID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE support_chats SET is_open = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("failed to close support chat: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: support chat %s", pkg.ErrNotFound, chatID)
	}
	return nil
}

func (r *sqliteSupportRepo) CreateMessage(ctx context.Context, message *models.SupportMessage) error {
	message.ID = uuid.NewString()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO support_messages (id, chat_id, sender_id, content)
		VALUES (?, ?, ?, ?)
		RETURNING created_at`,
		message.ID, message.ChatID, message.SenderID, message.Content,
	).Scan(&message.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create support message: %w", err)
	}

	// Chat'in son aktivite zamanını ilerlet — admin listesi buna göre sıralanır.
	if _, err := r.db.ExecContext(ctx, `
		UPDATE support_chats SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		message.ChatID); err != nil {
		return fmt.Errorf("failed to touch support chat: %w", err)
	}
	return nil
}

func (r *sqliteSupportRepo) ListMessages(ctx context.Context, chatID string) ([]models.SupportMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chat_id, sender_id, content, created_at
		FROM support_messages WHERE chat_id = ?
		ORDER BY created_at`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query support messages: %w", err)
	}
	defer rows.Close()

	var messages []models.SupportMessage
	for rows.Next() {
		var m models.SupportMessage
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan support message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate support messages: %w", err)
	}
	return messages, nil
}

// scanSupportChat, tek bir chat satırını okur. sql.ErrNoRows → pkg.ErrNotFound.
func scanSupportChat(row rowScanner) (*models.SupportChat, error) {
	var chat models.SupportChat
	err := row.Scan(&chat.ID, &chat.UserID, &chat.IsOpen, &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: support chat", pkg.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan support chat: %w", err)
	}
	return &chat, nil
}
