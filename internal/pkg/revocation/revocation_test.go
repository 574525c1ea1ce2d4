package revocation

import (
	"context"
	"testing"
	"time"
)

func TestMemoryDenyList(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	d := NewMemoryDenyList()
	d.now = func() time.Time { return now }

	if err := d.Revoke(ctx, "jti-1", now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := d.Revoke(ctx, "jti-old", now.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}

	if revoked, _ := d.IsRevoked(ctx, "jti-1"); !revoked {
		t.Fatal("jti-1 should be revoked")
	}
	if revoked, _ := d.IsRevoked(ctx, "jti-old"); revoked {
		t.Fatal("an already expired token needs no entry")
	}

	now = now.Add(2 * time.Hour)
	if revoked, _ := d.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatal("entry should lapse with the token")
	}
}
