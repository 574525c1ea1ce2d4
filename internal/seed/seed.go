package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/config"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	pkgAuth "github.com/parivartan/hub/internal/pkg/auth"
)

// UserStore is the part of the user repository the seed needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// EnsureSuperAdmin creates the configured super admin when no account with
// that email exists yet. Sign-up only ever grants the member role, so this
// is how a fresh installation gets its first administrator. An existing
// account is left untouched.
func EnsureSuperAdmin(ctx context.Context, users UserStore, cfg *config.Config, lgr zerolog.Logger) error {
	emailAddr := strings.ToLower(strings.TrimSpace(cfg.Seed.AdminEmail))
	if emailAddr == "" {
		return nil
	}

	existing, err := users.GetByEmail(ctx, emailAddr)
	switch {
	case err == nil:
		lgr.Debug().Str("email", emailAddr).Str("role", string(existing.Role)).Msg("Seed admin already exists")
		return nil
	case errors.Is(err, apperrors.ErrUserNotFound) || errors.Is(err, apperrors.ErrResourceNotFound):
	default:
		return fmt.Errorf("failed to look up seed admin: %w", err)
	}

	hash, err := pkgAuth.HashPassword(cfg.Seed.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash seed admin password: %w", err)
	}

	admin := &models.User{
		Name:           strings.TrimSpace(cfg.Seed.AdminName),
		Handle:         strings.ToLower(strings.TrimSpace(cfg.Seed.AdminHandle)),
		Email:          emailAddr,
		Password:       hash,
		Role:           models.RoleSuperAdmin,
		EmailConfirmed: true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create seed admin: %w", err)
	}

	lgr.Info().Str("email", emailAddr).Str("userID", admin.ID).Msg("Seed super admin created")
	return nil
}
