package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/models/dto"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/app/store"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	jwtauth "github.com/parivartan/hub/internal/pkg/auth"
	"github.com/parivartan/hub/internal/pkg/revocation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"schema missing", apperrors.ErrSchemaMissing, http.StatusServiceUnavailable, dto.ErrorCodeSetupRequired},
		{"validation", apperrors.NewValidationError("title", "Title is required"), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"expired jwt", jwtauth.ErrExpiredToken, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{"wrapped invalid jwt", fmt.Errorf("%w: bad signature", jwtauth.ErrInvalidToken), http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{"profile incomplete", apperrors.ErrProfileIncomplete, http.StatusForbidden, dto.ErrorCodeProfileIncomplete},
		{"forbidden", apperrors.NewForbiddenError("Only admins can do that"), http.StatusForbidden, dto.ErrorCodeForbidden},
		{"not found", apperrors.NewResourceNotFoundError("Event not found"), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"not confirmed", apperrors.NewCustomError(apperrors.ErrNotConfirmed, "Delete this post?"), http.StatusConflict, dto.ErrorCodeNotConfirmed},
		{"handle taken", apperrors.ErrHandleTaken, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{"content rejected", apperrors.NewCustomError(apperrors.ErrContentRejected, "flagged"), http.StatusUnprocessableEntity, dto.ErrorCodeResourceInvalid},
		{"ai unavailable", apperrors.ErrAIUnavailable, http.StatusServiceUnavailable, dto.ErrorCodeAIUnavailable},
		{"backend", apperrors.NewBackendError("Failed to save post", errors.New("connection reset")), http.StatusBadGateway, dto.ErrorCodeExternalServiceError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := ErrorStatus(tt.err)
			if status != tt.status || detail.Code != tt.code {
				t.Fatalf("ErrorStatus = %d %s, want %d %s", status, detail.Code, tt.status, tt.code)
			}
		})
	}
}

func TestErrorStatusSeverity(t *testing.T) {
	tests := []struct {
		err  error
		want dto.ErrorSeverity
	}{
		{apperrors.NewCustomError(apperrors.ErrNotConfirmed, "Delete this post?"), dto.ErrorSeverityInfo},
		{apperrors.NewValidationError("title", "Title is required"), dto.ErrorSeverityWarning},
		{apperrors.NewForbiddenError("Only admins can do that"), dto.ErrorSeverityError},
		{apperrors.ErrSchemaMissing, dto.ErrorSeverityCritical},
		{errors.New("boom"), dto.ErrorSeverityCritical},
	}
	for _, tt := range tests {
		if _, detail := ErrorStatus(tt.err); detail.Severity != tt.want {
			t.Errorf("severity of %v = %s, want %s", tt.err, detail.Severity, tt.want)
		}
	}
}

func TestErrorStatusKeepsMessageAndField(t *testing.T) {
	_, detail := ErrorStatus(apperrors.NewValidationError("goal", "Goal must be positive"))
	if detail.Message != "Goal must be positive" || detail.Field != "goal" {
		t.Fatalf("detail = %+v", detail)
	}

	_, detail = ErrorStatus(apperrors.NewBackendError("Failed to save post", errors.New("pq: relation does not exist")))
	if detail.Message != genericBackendMessage {
		t.Fatalf("backend errors must not leak their cause, got %q", detail.Message)
	}
}

type fakeUsers map[string]*models.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperrors.ErrUserNotFound
}

type gateFixture struct {
	router *gin.Engine
	jwt    *jwtauth.JWTService
	deny   *revocation.MemoryDenyList
}

func newGateFixture(users fakeUsers) *gateFixture {
	jwt := jwtauth.NewJWTService(jwtauth.JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "test"})
	deny := revocation.NewMemoryDenyList()
	loader := store.NewLoader(store.Sources{}, store.PolicyTolerant, zerolog.Nop())
	sessions := session.NewManager(loader, nil, nil, session.Config{}, zerolog.Nop())
	m := NewAuthMiddleware(jwt, deny, users, sessions, zerolog.Nop())

	r := gin.New()
	r.GET("/profile", m.JWTAuth(), m.RequireState(session.ProfileIncomplete, session.Authenticated), func(c *gin.Context) {
		c.String(http.StatusOK, UserFrom(c).ID)
	})
	r.GET("/app", m.JWTAuth(), m.RequireState(session.Authenticated), m.Session(), func(c *gin.Context) {
		c.String(http.StatusOK, SessionFrom(c).UserID)
	})
	return &gateFixture{router: r, jwt: jwt, deny: deny}
}

func (f *gateFixture) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *gateFixture) token(t *testing.T, u *models.User) *jwtauth.IssuedToken {
	t.Helper()
	issued, err := f.jwt.GenerateAccessToken(u)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	return issued
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorCode {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v (%s)", err, w.Body.String())
	}
	return resp.Error.Code
}

func TestSessionGate(t *testing.T) {
	complete := &models.User{ID: "u1", Name: "Ravi", Handle: "ravi", Role: models.RoleMember}
	incomplete := &models.User{ID: "u2", Email: "new@parivartan.org", Role: models.RoleMember}
	f := newGateFixture(fakeUsers{"u1": complete, "u2": incomplete})

	if w := f.get(t, "/app", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d", w.Code)
	}

	newcomer := f.token(t, incomplete)
	if w := f.get(t, "/profile", newcomer.AccessToken); w.Code != http.StatusOK {
		t.Fatalf("incomplete profile must reach profile setup, got %d", w.Code)
	}
	w := f.get(t, "/app", newcomer.AccessToken)
	if w.Code != http.StatusForbidden || errorCode(t, w) != dto.ErrorCodeProfileIncomplete {
		t.Fatalf("incomplete profile in app: %d %s", w.Code, w.Body.String())
	}

	member := f.token(t, complete)
	w = f.get(t, "/app", member.AccessToken)
	if w.Code != http.StatusOK || w.Body.String() != "u1" {
		t.Fatalf("authenticated: %d %s", w.Code, w.Body.String())
	}
}

func TestSessionGateRejectsRevokedAndDeletedAccounts(t *testing.T) {
	u := &models.User{ID: "u1", Name: "Ravi", Handle: "ravi", Role: models.RoleMember}
	f := newGateFixture(fakeUsers{"u1": u})

	issued := f.token(t, u)
	if err := f.deny.Revoke(context.Background(), issued.TokenID, issued.ExpiresAt); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	w := f.get(t, "/profile", issued.AccessToken)
	if w.Code != http.StatusUnauthorized || errorCode(t, w) != dto.ErrorCodeInvalidToken {
		t.Fatalf("revoked token: %d %s", w.Code, w.Body.String())
	}

	ghost := f.token(t, &models.User{ID: "gone"})
	w = f.get(t, "/profile", ghost.AccessToken)
	if w.Code != http.StatusUnauthorized || errorCode(t, w) != dto.ErrorCodeUnauthorized {
		t.Fatalf("deleted account: %d %s", w.Code, w.Body.String())
	}
}

func TestGuestTokenOpensViewerSession(t *testing.T) {
	f := newGateFixture(fakeUsers{})
	guest := models.NewGuest(models.GuestIDPrefix + "visitor")
	issued := f.token(t, guest)

	w := f.get(t, "/app", issued.AccessToken)
	if w.Code != http.StatusOK || w.Body.String() != guest.ID {
		t.Fatalf("guest session: %d %s", w.Code, w.Body.String())
	}

	if err := f.deny.Revoke(context.Background(), issued.TokenID, issued.ExpiresAt); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if w := f.get(t, "/app", issued.AccessToken); w.Code != http.StatusUnauthorized {
		t.Fatalf("signed-out guest: %d", w.Code)
	}

	// Without the guest claim a viewer token still needs a users row.
	lookalike := f.token(t, &models.User{ID: "visitor", Name: "Guest", Handle: "guest", Role: models.RoleViewer})
	if w := f.get(t, "/app", lookalike.AccessToken); w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown non-guest account: %d", w.Code)
	}
}

func TestWebsocketTokenFromQuery(t *testing.T) {
	u := &models.User{ID: "u1", Name: "Ravi", Handle: "ravi", Role: models.RoleMember}
	f := newGateFixture(fakeUsers{"u1": u})
	issued := f.token(t, u)

	w := f.get(t, "/profile?token="+issued.AccessToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("query token: %d %s", w.Code, w.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(true, zerolog.Nop()))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(64))
	r.POST("/posts", func(c *gin.Context) {
		var body struct {
			Content string `json:"content"`
		}
		if !BindJSON(c, &body) {
			return
		}
		c.String(http.StatusOK, body.Content)
	})

	post := func(body string, declared bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if !declared {
			req.ContentLength = -1
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	big := `{"content":"` + strings.Repeat("x", 200) + `"}`

	if w := post(`{"content":"hi"}`, true); w.Code != http.StatusOK || w.Body.String() != "hi" {
		t.Fatalf("small body: %d %s", w.Code, w.Body.String())
	}
	for _, declared := range []bool{true, false} {
		w := post(big, declared)
		if w.Code != http.StatusRequestEntityTooLarge || errorCode(t, w) != dto.ErrorCodePayloadTooLarge {
			t.Fatalf("oversized body (declared length %v): %d %s", declared, w.Code, w.Body.String())
		}
	}
}
