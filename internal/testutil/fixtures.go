package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/qolzam/telar/apps/social/internal/database/sqldb"
)

// SeedUser inserts a user row and returns its id
func SeedUser(t *testing.T, client *sqldb.Client, username string) uuid.UUID {
	t.Helper()

	id := uuid.Must(uuid.NewV4())
	now := time.Now().UTC().Truncate(time.Microsecond)
	query := client.DB().Rebind(`INSERT INTO users (id, email, username, full_name, created_at) VALUES (?, ?, ?, ?, ?)`)
	if _, err := client.DB().ExecContext(context.Background(), query, id, username+"@example.com", username, username, now); err != nil {
		t.Fatalf("Failed to seed user %s: %v", username, err)
	}
	return id
}

// SeedPost inserts a post with zero counters owned by ownerID and returns its id
func SeedPost(t *testing.T, client *sqldb.Client, ownerID uuid.UUID, content string) uuid.UUID {
	t.Helper()

	id := uuid.Must(uuid.NewV4())
	now := time.Now().UTC().Truncate(time.Microsecond)
	query := client.DB().Rebind(`INSERT INTO posts (id, owner_user_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`)
	if _, err := client.DB().ExecContext(context.Background(), query, id, ownerID, content, now, now); err != nil {
		t.Fatalf("Failed to seed post: %v", err)
	}
	return id
}
