package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/dberrors"
	"github.com/parivartan/hub/internal/pkg/logger"
)

// TokenRepository stores single-use mailed tokens
type TokenRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{db: db, sb: newBuilder()}
}

// Create stores a token, replacing any unused token of the same kind for the user.
func (r *TokenRepository) Create(ctx context.Context, token *models.UserToken) error {
	sql, args, err := r.sb.Delete("user_tokens").
		Where(squirrel.Eq{"user_id": token.UserID, "kind": token.Kind, "used_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build token cleanup query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return storageError("clearing old tokens", err)
	}

	sql, args, err = r.sb.Insert("user_tokens").
		Columns("user_id", "kind", "token", "expires_at").
		Values(token.UserID, token.Kind, token.Token, token.ExpiresAt).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create token query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&token.ID, &token.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "user_tokens_token_key") {
			logger.Warn().Str("userID", token.UserID).Msg("Attempted to create duplicate token")
			return apperrors.ErrTokenInvalid
		}
		return storageError("creating token", err)
	}
	return nil
}

// Consume marks an unused, unexpired token of kind as used and returns it.
// Unknown, expired and already used tokens all give ErrTokenInvalid.
func (r *TokenRepository) Consume(ctx context.Context, kind, value string, now time.Time) (*models.UserToken, error) {
	query := r.sb.Update("user_tokens").
		Set("used_at", now).
		Where(squirrel.Eq{"kind": kind, "token": value, "used_at": nil}).
		Where(squirrel.Gt{"expires_at": now}).
		Suffix("RETURNING id, user_id, kind, token, expires_at, used_at, created_at")

	t, err := queryOne(ctx, r.db, query, "consuming token", "token", func(row pgx.Row, t *models.UserToken) error {
		return row.Scan(&t.ID, &t.UserID, &t.Kind, &t.Token, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, err
	}
	return t, nil
}
