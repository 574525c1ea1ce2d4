package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/parivartan/hub/internal/app/models"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService(JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "parivartan"})
	user := &models.User{ID: "u-1", Email: "asha@example.org", Role: models.RoleMember}

	issued, err := svc.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	claims, err := svc.ValidateToken(issued.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "u-1" || claims.Role != "member" || claims.ID != issued.TokenID {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewJWTService(JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Minute})
	issued, err := svc.GenerateAccessToken(&models.User{ID: "u-1"})
	if err != nil {
		t.Fatal(err)
	}
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.ValidateToken(issued.AccessToken); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer := NewJWTService(JWTConfig{SecretKey: "a", AccessTokenExp: time.Hour})
	other := NewJWTService(JWTConfig{SecretKey: "b", AccessTokenExp: time.Hour})
	issued, _ := issuer.GenerateAccessToken(&models.User{ID: "u-1"})
	if _, err := other.ValidateToken(issued.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestExtractBearerToken(t *testing.T) {
	if tok, err := ExtractBearerToken("Bearer abc"); err != nil || tok != "abc" {
		t.Fatalf("got %q %v", tok, err)
	}
	if _, err := ExtractBearerToken(""); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "correct horse") || CheckPassword(hash, "wrong") {
		t.Fatal("bcrypt round trip failed")
	}
}
