package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/qolzam/telar/apps/social/internal/database/sqldb"
	platformconfig "github.com/qolzam/telar/apps/social/internal/platform/config"
)

// NewSQLiteClient returns a migrated client backed by a fresh database file in t.TempDir().
// The file is private to the test, so tests using it can run in parallel.
func NewSQLiteClient(t *testing.T) *sqldb.Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := sqldb.NewClient(ctx, sqldb.Config{
		Driver: sqldb.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "social.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if err := sqldb.Migrate(ctx, client); err != nil {
		t.Fatalf("Failed to migrate sqlite database: %v", err)
	}
	return client
}

// NewPostgresClient returns a migrated client pinned to a schema created for this test only.
// It is skipped unless RUN_DB_TESTS=1; connection settings come from the POSTGRES_* variables.
func NewPostgresClient(t *testing.T) *sqldb.Client {
	t.Helper()

	if os.Getenv("RUN_DB_TESTS") != "1" {
		t.Skip("RUN_DB_TESTS not set, skipping database test")
	}

	cfg, err := platformconfig.LoadFromEnv()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	driver := cfg.Database.Driver
	if driver == sqldb.DriverSQLite {
		driver = sqldb.DriverPostgres
	}

	// Schema names must start with a letter and contain only letters, numbers, underscores.
	uniqueSuffix := strings.ReplaceAll(uuid.Must(uuid.NewV4()).String(), "-", "")[:16]
	uniqueSchema := fmt.Sprintf("test_%s_%s", SanitizeTestName(t.Name()), uniqueSuffix)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbConfig := sqldb.ConfigFromPlatform(cfg.Database)
	dbConfig.Driver = driver
	dbConfig.Schema = uniqueSchema
	client, err := sqldb.NewClient(ctx, dbConfig)
	if err != nil {
		t.Fatalf("Failed to create isolated PostgreSQL client for schema %s: %v", uniqueSchema, err)
	}

	t.Cleanup(func() {
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer dropCancel()
		if _, err := client.DB().ExecContext(dropCtx, fmt.Sprintf(`DROP SCHEMA IF EXISTS %s CASCADE`, uniqueSchema)); err != nil {
			t.Logf("Failed to drop test schema %s: %v", uniqueSchema, err)
		}
		client.Close()
	})

	if err := sqldb.Migrate(ctx, client); err != nil {
		t.Fatalf("Failed to migrate schema %s: %v", uniqueSchema, err)
	}
	return client
}

var identifierPattern = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// SanitizeTestName sanitizes a test name for use as a database identifier
func SanitizeTestName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ToLower(identifierPattern.ReplaceAllString(name, ""))

	// PostgreSQL identifiers are limited to 63 characters; reserve 22 for "test_" + "_" + 16-char suffix
	const maxTestNameLength = 41
	if len(name) > maxTestNameLength {
		name = name[:maxTestNameLength]
	}

	return name
}
