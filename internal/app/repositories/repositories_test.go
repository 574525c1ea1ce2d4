package repositories

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/parivartan/hub/internal/pkg/apperrors"
)

func TestStorageErrorClassification(t *testing.T) {
	missing := storageError("listing posts", &pgconn.PgError{Code: "42P01", Message: `relation "posts" does not exist`})
	if !errors.Is(missing, apperrors.ErrSchemaMissing) {
		t.Fatalf("undefined table should map to ErrSchemaMissing, got %v", missing)
	}

	other := storageError("listing posts", &pgconn.PgError{Code: "57014", Message: "canceling statement"})
	if !errors.Is(other, apperrors.ErrBackend) || errors.Is(other, apperrors.ErrSchemaMissing) {
		t.Fatalf("query cancel should be a backend error, got %v", other)
	}

	var pgErr *pgconn.PgError
	if !errors.As(other, &pgErr) {
		t.Fatal("driver error should stay reachable through the wrapper")
	}
}

func TestCascadeRemovesUserLast(t *testing.T) {
	last := cascadeSteps[len(cascadeSteps)-1]
	if last.table != "users" {
		t.Fatalf("users must be deleted after their content, last step is %s", last.table)
	}

	seen := map[string]bool{}
	for _, step := range cascadeSteps {
		seen[step.table] = true
	}
	for _, table := range []string{"posts", "announcements", "achievements", "events", "chat_messages", "tasks"} {
		if !seen[table] {
			t.Errorf("cascade is missing %s", table)
		}
	}
}
