package services

import (
	"context"
	"strings"
	"time"

	"github.com/parivartan/hub/internal/app/auth"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	jwtauth "github.com/parivartan/hub/internal/pkg/auth"
	"github.com/parivartan/hub/internal/pkg/email"
	"github.com/parivartan/hub/internal/pkg/helpers"
	"github.com/parivartan/hub/internal/pkg/validation"
)

// MemberRepository persists users.
type MemberRepository interface {
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	// DeleteCascade removes the user and everything they authored in one
	// transaction.
	DeleteCascade(ctx context.Context, id string) error
}

// MemberInput registers a member directly. An empty password leaves the
// account usable only after a password reset.
type MemberInput struct {
	Name     string
	Handle   string
	Email    string
	Password string
	Role     string
}

// MemberService manages the member directory.
type MemberService interface {
	AddMember(ctx context.Context, sess *session.Session, in MemberInput) (*models.User, error)
	// UpdateProfile edits the actor's own profile, or anyone's for admins.
	UpdateProfile(ctx context.Context, sess *session.Session, userID string, patch models.ProfilePatch, avatar string) (*models.User, error)
	ChangeRole(ctx context.Context, sess *session.Session, userID, role string) (*models.User, error)
	// RemoveMember deletes the member with all their content and ends
	// their session.
	RemoveMember(ctx context.Context, sess *session.Session, userID string, c Confirmer) error
}

type memberServiceImpl struct {
	repo     MemberRepository
	listener ProfileListener
	sessions SessionTerminator
	hash     func(string) (string, error)
	now      func() time.Time
	Deps
}

// NewMemberService creates a MemberService. listener and sessions may be nil.
func NewMemberService(repo MemberRepository, listener ProfileListener, sessions SessionTerminator, deps Deps) MemberService {
	return &memberServiceImpl{
		repo:     repo,
		listener: listener,
		sessions: sessions,
		hash:     jwtauth.HashPassword,
		now:      time.Now,
		Deps:     deps,
	}
}

func (s *memberServiceImpl) AddMember(ctx context.Context, sess *session.Session, in MemberInput) (*models.User, error) {
	name, err := validation.RequireText("name", in.Name)
	if err != nil {
		return nil, err
	}
	handle := strings.ToLower(strings.TrimSpace(in.Handle))
	if !validation.CompiledPatterns.Handle.MatchString(handle) {
		return nil, apperrors.NewValidationError("handle", "Handle may only contain lowercase letters, digits, dots and underscores (3-30 chars)")
	}
	addr := strings.ToLower(strings.TrimSpace(in.Email))
	if addr != "" && !validation.ValidEmail(addr) {
		return nil, apperrors.NewValidationError("email", "A valid email is required")
	}
	role := models.RoleMember
	if strings.TrimSpace(in.Role) != "" {
		var ok bool
		if role, ok = models.ParseRole(in.Role); !ok {
			return nil, apperrors.NewValidationError("role", "Unknown role")
		}
	}

	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapManageMembers); err != nil {
		return nil, err
	}
	if err := auth.AuthorizeRoleChange(actor, &models.User{}, role); err != nil {
		return nil, err
	}

	password := in.Password
	if password == "" {
		if password, err = email.GenerateToken(); err != nil {
			return nil, apperrors.NewBackendError("Failed to add member", err)
		}
	} else if len(password) < validation.PasswordMinLength {
		return nil, apperrors.NewValidationError("password", "Password must be at least 8 characters")
	}
	hash, err := s.hash(password)
	if err != nil {
		return nil, apperrors.NewBackendError("Failed to add member", err)
	}

	user := &models.User{
		Name:           name,
		Handle:         handle,
		Email:          addr,
		Password:       hash,
		Role:           role,
		EmailConfirmed: true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		s.Logger.Error().Err(err).Str("userID", actor.ID).Str("handle", handle).Msg("Failed to add member")
		return nil, err
	}
	sess.Store.UpsertUser(*user)
	return user, nil
}

func (s *memberServiceImpl) UpdateProfile(ctx context.Context, sess *session.Session, userID string, patch models.ProfilePatch, avatar string) (*models.User, error) {
	patch, err := auth.NormalizeProfilePatch(patch)
	if err != nil {
		return nil, err
	}
	actor := actorOf(sess)
	if actor.ID != userID {
		if err := auth.Authorize(actor, models.CapManageMembers); err != nil {
			return nil, err
		}
	}
	target, ok := sess.Store.User(userID)
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("member not found")
	}
	if strings.TrimSpace(avatar) != "" {
		url, err := resolveImage(ctx, s.Images, avatar, helpers.Deref(target.AvatarURL), "avatars")
		if err != nil {
			return nil, err
		}
		patch.AvatarURL = url
	}

	u, err := s.repo.UpdateProfile(ctx, userID, patch)
	if err != nil {
		s.Logger.Error().Err(err).Str("targetID", userID).Str("userID", actor.ID).Msg("Failed to update profile")
		return nil, err
	}
	s.applyUser(sess, u)
	return u, nil
}

func (s *memberServiceImpl) ChangeRole(ctx context.Context, sess *session.Session, userID, role string) (*models.User, error) {
	newRole, ok := models.ParseRole(role)
	if !ok {
		return nil, apperrors.NewValidationError("role", "Unknown role")
	}
	target, ok := sess.Store.User(userID)
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("member not found")
	}
	actor := actorOf(sess)
	if err := auth.AuthorizeRoleChange(actor, &target, newRole); err != nil {
		return nil, err
	}
	if target.Role == newRole {
		return &target, nil
	}

	u, err := s.repo.UpdateRole(ctx, userID, newRole)
	if err != nil {
		s.Logger.Error().Err(err).Str("targetID", userID).Str("userID", actor.ID).Msg("Failed to change role")
		return nil, err
	}
	s.Logger.Info().Str("targetID", userID).Str("userID", actor.ID).Str("role", string(newRole)).Msg("Role changed")
	s.applyUser(sess, u)
	return u, nil
}

func (s *memberServiceImpl) applyUser(sess *session.Session, u *models.User) {
	sess.Store.UpsertUser(*u)
	if u.ID == sess.UserID {
		sess.Touch(*u, s.now())
		return
	}
	if s.listener != nil {
		s.listener.NotifyProfileUpdated(u)
	}
}

func (s *memberServiceImpl) RemoveMember(ctx context.Context, sess *session.Session, userID string, c Confirmer) error {
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapManageMembers); err != nil {
		return err
	}
	target, ok := sess.Store.User(userID)
	if !ok {
		return apperrors.NewResourceNotFoundError("member not found")
	}
	if target.ID == actor.ID {
		return apperrors.NewForbiddenError("You cannot remove yourself")
	}
	if target.Role == models.RoleSuperAdmin && actor.Role != models.RoleSuperAdmin {
		return apperrors.NewForbiddenError("Only a super admin can remove a super admin")
	}
	if err := confirm(ctx, c, "Remove "+target.Name+"? All of their posts, events, tasks and messages will be deleted."); err != nil {
		return err
	}

	if err := s.repo.DeleteCascade(ctx, userID); err != nil {
		s.Logger.Error().Err(err).Str("targetID", userID).Str("userID", actor.ID).Msg("Failed to remove member")
		return err
	}
	sess.Store.RemoveAuthoredBy(userID)
	if s.sessions != nil {
		s.sessions.End(userID, "removed")
	}
	s.Logger.Info().Str("targetID", userID).Str("userID", actor.ID).Msg("Member removed")
	return nil
}
