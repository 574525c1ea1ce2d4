package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parivartan/hub/internal/app/models"
)

func scanChatMessage(row pgx.Row, m *models.ChatMessage) error {
	if err := row.Scan(&m.ID, &m.UserID, &m.Content, &m.ImageURL, &m.ReadBy, &m.CreatedAt); err != nil {
		return err
	}
	if m.ReadBy == nil {
		m.ReadBy = []string{}
	}
	return nil
}

// ChatRepository handles database operations for chat messages
type ChatRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db, sb: newBuilder()}
}

// List returns the channel oldest first.
func (r *ChatRepository) List(ctx context.Context) ([]models.ChatMessage, error) {
	query := r.sb.Select("id", "user_id", "content", "image_url", "read_by", "created_at").
		From("chat_messages").OrderBy("created_at ASC")
	return selectAll(ctx, r.db, query, "listing chat messages", scanChatMessage)
}

// Create inserts a message. The author has read their own message.
func (r *ChatRepository) Create(ctx context.Context, msg *models.ChatMessage) (*models.ChatMessage, error) {
	query := r.sb.Insert("chat_messages").
		Columns("user_id", "content", "image_url", "read_by").
		Values(msg.UserID, msg.Content, msg.ImageURL, []string{msg.UserID}).
		Suffix("RETURNING id, user_id, content, image_url, read_by, created_at")
	return queryOne(ctx, r.db, query, "creating chat message", "chat message", scanChatMessage)
}

// MarkRead adds userID to read_by of the given messages and returns the
// messages that changed.
func (r *ChatRepository) MarkRead(ctx context.Context, userID string, ids []string) ([]models.ChatMessage, error) {
	if len(ids) == 0 {
		return []models.ChatMessage{}, nil
	}
	sql := `
		UPDATE chat_messages
		SET read_by = array_append(read_by, $1)
		WHERE id = ANY($2) AND NOT ($1 = ANY(read_by))
		RETURNING id, user_id, content, image_url, read_by, created_at
	`
	rows, err := r.db.Query(ctx, sql, userID, ids)
	if err != nil {
		return nil, storageError("marking chat read", err)
	}
	defer rows.Close()

	updated := make([]models.ChatMessage, 0, len(ids))
	for rows.Next() {
		var m models.ChatMessage
		if err := scanChatMessage(rows, &m); err != nil {
			return nil, fmt.Errorf("error scanning chat message row: %w", err)
		}
		updated = append(updated, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("marking chat read", err)
	}
	return updated, nil
}
