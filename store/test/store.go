// Package teststore provides store fixtures backed by a throwaway SQLite
// database.
package teststore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vidyalab/vidya/internal/profile"
	"github.com/vidyalab/vidya/store"
	"github.com/vidyalab/vidya/store/db"
)

// NewTestingStore creates a store over a fresh SQLite database in a temp
// directory, schema applied.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	p := &profile.Profile{
		Mode:   "demo",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "vidya_test.db"),
	}

	driver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("create db driver: %v", err)
	}

	s := store.New(driver, p)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
