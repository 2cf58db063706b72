package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/caseintake/internal/database"
)

// TestDBOption customises the behaviour of MustOpenTestDB.
type TestDBOption func(*testDBConfig)

type testDBConfig struct {
	autoMigrate bool
	admin       *database.AdminSeed
}

// WithAutoMigrate enables automatic schema migration after opening the test database.
func WithAutoMigrate() TestDBOption {
	return func(cfg *testDBConfig) {
		cfg.autoMigrate = true
	}
}

// WithAdmin migrates the schema and seeds an admin account.
func WithAdmin(email, password string) TestDBOption {
	return func(cfg *testDBConfig) {
		cfg.autoMigrate = true
		cfg.admin = &database.AdminSeed{Email: email, Password: password, Name: "Admin User"}
	}
}

// MustOpenTestDB opens a private in-memory SQLite database for tests, applying optional migrations/seed data.
// The returned connection is automatically closed via t.Cleanup.
func MustOpenTestDB(t *testing.T, opts ...TestDBOption) *gorm.DB {
	t.Helper()

	cfg := testDBConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.Open(database.Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)

	switch {
	case cfg.admin != nil:
		require.NoError(t, database.AutoMigrateAndSeed(db, *cfg.admin))
	case cfg.autoMigrate:
		require.NoError(t, database.AutoMigrate(db))
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
