package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/db"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/dberrors"
	"github.com/parivartan/hub/internal/pkg/helpers"
	"github.com/parivartan/hub/internal/pkg/logger"
)

var userColumns = []string{
	"id", "name", "handle", "email", "password", "role", "avatar_url",
	"father_name", "date_of_birth", "course", "branch", "roll_number", "year", "semester",
	"two_factor_enabled", "two_factor_verified", "email_confirmed", "created_at",
}

func scanUser(row pgx.Row, u *models.User) error {
	var handle, email *string
	if err := row.Scan(
		&u.ID, &u.Name, &handle, &email, &u.Password, &u.Role, &u.AvatarURL,
		&u.FatherName, &u.DateOfBirth, &u.Course, &u.Branch, &u.RollNumber, &u.Year, &u.Semester,
		&u.TwoFactorEnabled, &u.TwoFactorVerified, &u.EmailConfirmed, &u.CreatedAt,
	); err != nil {
		return err
	}
	u.Handle = helpers.Deref(handle)
	u.Email = helpers.Deref(email)
	return nil
}

// UserRepository handles user database operations
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db, sb: newBuilder()}
}

// List returns every member ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	query := r.sb.Select(userColumns...).From("users").OrderBy("lower(name)", "created_at")
	return selectAll(ctx, r.db, query, "listing users", scanUser)
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := r.sb.Select(userColumns...).From("users").Where(squirrel.Eq{"id": id})
	return queryOne(ctx, r.db, query, "getting user", "user", scanUser)
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := r.sb.Select(userColumns...).From("users").Where("lower(email) = lower(?)", email)
	return queryOne(ctx, r.db, query, "getting user by email", "user", scanUser)
}

// GetByHandle retrieves a user by handle.
func (r *UserRepository) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	query := r.sb.Select(userColumns...).From("users").Where(squirrel.Eq{"handle": handle})
	return queryOne(ctx, r.db, query, "getting user by handle", "user", scanUser)
}

// Create inserts a user and fills in the generated id and created_at.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("name", "handle", "email", "password", "role", "avatar_url", "email_confirmed").
		Values(user.Name, helpers.NullIfEmpty(user.Handle), helpers.NullIfEmpty(user.Email),
			user.Password, user.Role, user.AvatarURL, user.EmailConfirmed).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt); err != nil {
		return userWriteError("creating user", err)
	}
	return nil
}

// UpdateProfile applies patch and returns the stored row.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (*models.User, error) {
	update := r.sb.Update("users").Where(squirrel.Eq{"id": id})
	set := 0
	add := func(column string, value interface{}) {
		update = update.Set(column, value)
		set++
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Handle != nil {
		add("handle", helpers.NullIfEmpty(*patch.Handle))
	}
	if patch.AvatarURL != nil {
		add("avatar_url", patch.AvatarURL)
	}
	if patch.FatherName != nil {
		add("father_name", patch.FatherName)
	}
	if patch.DateOfBirth != nil {
		add("date_of_birth", patch.DateOfBirth)
	}
	if patch.Course != nil {
		add("course", patch.Course)
	}
	if patch.Branch != nil {
		add("branch", patch.Branch)
	}
	if patch.RollNumber != nil {
		add("roll_number", patch.RollNumber)
	}
	if patch.Year != nil {
		add("year", patch.Year)
	}
	if patch.Semester != nil {
		add("semester", patch.Semester)
	}
	if patch.TwoFactorEnabled != nil {
		add("two_factor_enabled", *patch.TwoFactorEnabled)
	}
	if patch.TwoFactorVerified != nil {
		add("two_factor_verified", *patch.TwoFactorVerified)
	}
	if set == 0 {
		return r.GetByID(ctx, id)
	}

	u, err := queryOne(ctx, r.db, update.Suffix("RETURNING "+strings.Join(userColumns, ", ")), "updating profile", "user", scanUser)
	if err != nil && dberrors.IsDuplicateConstraintError(err, "") {
		return nil, userWriteError("updating profile", err)
	}
	return u, err
}

// UpdateRole stores a new role.
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	update := r.sb.Update("users").Set("role", role).Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(userColumns, ", "))
	return queryOne(ctx, r.db, update, "updating role", "user", scanUser)
}

// ConfirmEmail marks the address as confirmed.
func (r *UserRepository) ConfirmEmail(ctx context.Context, id string) error {
	return r.exec(ctx, r.sb.Update("users").Set("email_confirmed", true).Where(squirrel.Eq{"id": id}), "confirming email")
}

// UpdatePassword stores a new password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.exec(ctx, r.sb.Update("users").Set("password", hash).Where(squirrel.Eq{"id": id}), "updating password")
}

func (r *UserRepository) exec(ctx context.Context, query squirrel.Sqlizer, op string) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s query: %w", op, err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return storageError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// cascadeSteps lists what goes with a removed member, in dependency order.
// Comments, reactions and attendance on removed posts and events go with
// them through ON DELETE CASCADE.
var cascadeSteps = []struct {
	table string
	where string
}{
	{"chat_messages", "user_id = $1"},
	{"comments", "user_id = $1"},
	{"reactions", "user_id = $1"},
	{"event_attendees", "user_id = $1"},
	{"posts", "user_id = $1"},
	{"announcements", "author_id = $1"},
	{"achievements", "author_id = $1"},
	{"events", "created_by = $1"},
	{"campaigns", "created_by = $1"},
	{"tasks", "created_by = $1 OR assignee_id = $1"},
	{"slideshow_items", "created_by = $1"},
	{"popup_messages", "created_by = $1"},
	{"user_badges", "user_id = $1"},
	{"app_notifications", "user_id = $1"},
	{"users", "id = $1"},
}

// DeleteCascade removes a member and everything they authored in one
// transaction. Either all of it goes or nothing does.
func (r *UserRepository) DeleteCascade(ctx context.Context, id string) error {
	err := db.WithTransaction(ctx, r.db, logger.Component("repositories"), func(ctx context.Context, tx pgx.Tx) error {
		for _, step := range cascadeSteps {
			if _, err := tx.Exec(ctx, "DELETE FROM "+step.table+" WHERE "+step.where, id); err != nil {
				return storageError("removing "+step.table+" of member", err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Str("userID", id).Msg("Cascade removal rolled back")
		return err
	}
	return nil
}

func userWriteError(op string, err error) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, "users_handle_key"):
		return apperrors.NewCustomError(apperrors.ErrHandleTaken, "This handle is already taken")
	case dberrors.IsDuplicateConstraintError(err, "users_email_key"):
		return apperrors.NewCustomError(apperrors.ErrEmailAlreadyExists, "An account with this email already exists")
	}
	return storageError(op, err)
}
