package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	jwtauth "github.com/parivartan/hub/internal/pkg/auth"
	"github.com/parivartan/hub/internal/pkg/email"
	"github.com/parivartan/hub/internal/pkg/revocation"
	"github.com/parivartan/hub/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// Token lifetimes of the mailed links.
const (
	ConfirmationTokenTTL  = 48 * time.Hour
	PasswordResetTokenTTL = time.Hour
)

// UserStore is the part of the user repository the auth flow needs.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByHandle(ctx context.Context, handle string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (*models.User, error)
	ConfirmEmail(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

// TokenStore keeps single-use mailed tokens.
type TokenStore interface {
	Create(ctx context.Context, token *models.UserToken) error
	Consume(ctx context.Context, kind, value string, now time.Time) (*models.UserToken, error)
}

// Session is the outcome of a successful sign-in.
type Session struct {
	Token *jwtauth.IssuedToken
	User  *models.User
}

// Service implements sign-up, confirmation, sign-in, sign-out and password
// reset. Every change of a user's auth state is published on Events.
type Service struct {
	users  UserStore
	tokens TokenStore
	jwt    *jwtauth.JWTService
	deny   revocation.DenyList
	mailer email.Mailer
	logger zerolog.Logger
	events chan Event
	now    func() time.Time
	guests bool

	hashPassword  func(string) (string, error)
	checkPassword func(hash, password string) bool
}

// NewService creates the auth Service. The events channel is buffered;
// the session manager drains it.
func NewService(users UserStore, tokens TokenStore, jwt *jwtauth.JWTService, deny revocation.DenyList, mailer email.Mailer, logger zerolog.Logger) *Service {
	return &Service{
		users:         users,
		tokens:        tokens,
		jwt:           jwt,
		deny:          deny,
		mailer:        mailer,
		logger:        logger,
		events:        make(chan Event, 64),
		now:           time.Now,
		guests:        true,
		hashPassword:  jwtauth.HashPassword,
		checkPassword: jwtauth.CheckPassword,
	}
}

// Events returns the auth-change stream.
func (s *Service) Events() <-chan Event {
	return s.events
}

func (s *Service) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn().Str("userID", ev.UserID).Str("event", ev.Type.String()).Msg("Auth event dropped, no listener")
	}
}

// SignUp creates an account pending email confirmation and mails the link.
func (s *Service) SignUp(ctx context.Context, name, emailAddr, password string) (*models.User, error) {
	name, err := validation.RequireText("name", name)
	if err != nil {
		return nil, err
	}
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if !validation.ValidEmail(emailAddr) {
		return nil, apperrors.NewValidationError("email", "A valid email is required")
	}
	if len(password) < 8 {
		return nil, apperrors.NewValidationError("password", "Password must be at least 8 characters")
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, apperrors.NewBackendError("Failed to secure password", err)
	}

	user := &models.User{
		Name:     name,
		Email:    emailAddr,
		Password: hash,
		Role:     models.RoleMember,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Warn().Err(err).Str("email", emailAddr).Msg("Sign up failed")
		return nil, err
	}

	if err := s.sendToken(ctx, user, models.TokenEmailConfirmation, ConfirmationTokenTTL); err != nil {
		// The account exists; the user can ask for a new link by signing in.
		s.logger.Error().Err(err).Str("userID", user.ID).Msg("Failed to send confirmation email")
	}

	s.logger.Info().Str("userID", user.ID).Msg("User signed up")
	return user, nil
}

func (s *Service) sendToken(ctx context.Context, user *models.User, kind string, ttl time.Duration) error {
	value, err := email.GenerateToken()
	if err != nil {
		return err
	}
	token := &models.UserToken{
		UserID:    user.ID,
		Kind:      kind,
		Token:     value,
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return err
	}
	if kind == models.TokenPasswordReset {
		return s.mailer.SendPasswordResetEmail(user.Email, user.Name, value)
	}
	return s.mailer.SendConfirmationEmail(user.Email, user.Name, value)
}

// ConfirmEmail consumes a confirmation token and marks the address verified.
func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.ErrInvalidEmailToken
	}
	t, err := s.tokens.Consume(ctx, models.TokenEmailConfirmation, token, s.now())
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTokenInvalid) {
			return apperrors.ErrInvalidEmailToken
		}
		return err
	}
	if err := s.users.ConfirmEmail(ctx, t.UserID); err != nil {
		return err
	}

	if u, err := s.users.GetByID(ctx, t.UserID); err == nil {
		if err := s.mailer.SendWelcomeEmail(u.Email, u.Name); err != nil {
			s.logger.Warn().Err(err).Str("userID", u.ID).Msg("Failed to send welcome email")
		}
	}
	s.logger.Info().Str("userID", t.UserID).Msg("Email confirmed")
	return nil
}

// SignIn checks credentials and issues an access token. The identifier is
// an email address or a handle.
func (s *Service) SignIn(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Incorrect email or password")
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.users.GetByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.users.GetByHandle(ctx, strings.ToLower(identifier))
	}
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Incorrect email or password")
		}
		return nil, err
	}
	if !s.checkPassword(user.Password, password) {
		s.logger.Info().Str("userID", user.ID).Msg("Sign in rejected")
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Incorrect email or password")
	}
	if !user.EmailConfirmed {
		return nil, apperrors.NewCustomError(apperrors.ErrEmailNotVerified, "Please confirm your email before signing in")
	}

	issued, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.NewBackendError("Failed to sign in", err)
	}

	s.emit(Event{Type: SignedIn, UserID: user.ID, User: user})
	s.logger.Info().Str("userID", user.ID).Msg("User signed in")
	return &Session{Token: issued, User: user}, nil
}

// SetGuestAccess turns guest sign-in on or off.
func (s *Service) SetGuestAccess(on bool) {
	s.guests = on
}

// SignInGuest issues a token for a fresh read-only viewer. Each guest gets
// its own id, so signing one out never ends another guest's session.
func (s *Service) SignInGuest(ctx context.Context) (*Session, error) {
	if !s.guests {
		return nil, apperrors.NewCustomError(apperrors.ErrPermissionDenied, "Guest access is turned off")
	}

	guest := models.NewGuest(models.GuestIDPrefix + uuid.NewString())
	guest.CreatedAt = s.now()
	issued, err := s.jwt.GenerateAccessToken(guest)
	if err != nil {
		return nil, apperrors.NewBackendError("Failed to sign in", err)
	}

	s.emit(Event{Type: SignedIn, UserID: guest.ID, User: guest})
	s.logger.Info().Str("userID", guest.ID).Msg("Guest signed in")
	return &Session{Token: issued, User: guest}, nil
}

// SignOut deny-lists the token until it would have expired.
func (s *Service) SignOut(ctx context.Context, claims *jwtauth.Claims) error {
	if claims == nil {
		return apperrors.ErrUnauthenticated
	}
	expiresAt := s.now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.deny.Revoke(ctx, claims.ID, expiresAt); err != nil {
		return apperrors.NewBackendError("Failed to sign out", err)
	}
	s.emit(Event{Type: SignedOut, UserID: claims.UserID})
	s.logger.Info().Str("userID", claims.UserID).Msg("User signed out")
	return nil
}

// RequestPasswordReset mails a reset link when the address is known. It
// reports success either way so it never reveals which addresses are registered.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(emailAddr)))
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrResourceNotFound) {
			s.logger.Error().Err(err).Msg("Password reset lookup failed")
		}
		return nil
	}
	if err := s.sendToken(ctx, user, models.TokenPasswordReset, PasswordResetTokenTTL); err != nil {
		s.logger.Error().Err(err).Str("userID", user.ID).Msg("Failed to send password reset email")
	}
	return nil
}

// ResetPassword consumes a reset token and stores the new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("newPassword", "Password must be at least 8 characters")
	}
	t, err := s.tokens.Consume(ctx, models.TokenPasswordReset, token, s.now())
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTokenInvalid) {
			return apperrors.ErrInvalidPasswordResetToken
		}
		return err
	}
	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return apperrors.NewBackendError("Failed to secure password", err)
	}
	if err := s.users.UpdatePassword(ctx, t.UserID, hash); err != nil {
		return err
	}
	s.logger.Info().Str("userID", t.UserID).Msg("Password reset")
	return nil
}

// NormalizeProfilePatch trims the name, lowercases the handle and rejects
// values a profile cannot hold.
func NormalizeProfilePatch(patch models.ProfilePatch) (models.ProfilePatch, error) {
	if patch.Name != nil {
		name, err := validation.RequireText("name", *patch.Name)
		if err != nil {
			return patch, err
		}
		patch.Name = &name
	}
	if patch.Handle != nil {
		handle := strings.ToLower(strings.TrimSpace(*patch.Handle))
		if !validation.CompiledPatterns.Handle.MatchString(handle) {
			return patch, apperrors.NewValidationError("handle", "Handle may only contain lowercase letters, digits, dots and underscores (3-30 chars)")
		}
		patch.Handle = &handle
	}
	return patch, nil
}

// CurrentUser loads the signed-in user's record.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, err
	}
	return u, nil
}

// UpdateOwnProfile edits the signed-in user's profile. It is the way out of
// the ProfileIncomplete state, so it does not need a loaded session.
func (s *Service) UpdateOwnProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.User, error) {
	if strings.HasPrefix(userID, models.GuestIDPrefix) {
		return nil, apperrors.NewCustomError(apperrors.ErrPermissionDenied, "Guests cannot edit a profile")
	}
	patch, err := NormalizeProfilePatch(patch)
	if err != nil {
		return nil, err
	}

	u, err := s.users.UpdateProfile(ctx, userID, patch)
	if err != nil {
		s.logger.Error().Err(err).Str("userID", userID).Msg("Profile update failed")
		return nil, err
	}
	s.emit(Event{Type: ProfileUpdated, UserID: u.ID, User: u})
	return u, nil
}

// NotifyProfileUpdated publishes a profile change made by someone else.
func (s *Service) NotifyProfileUpdated(u *models.User) {
	s.emit(Event{Type: ProfileUpdated, UserID: u.ID, User: u})
}
