// Package storetest opens throwaway in-memory SQLite stores for tests.
package storetest

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"agency-cms/internal/config"
	"agency-cms/internal/store"
)

// New returns a migrated in-memory store that is closed when the test ends.
func New(t testing.TB) *store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + uuid.NewString()[:8]
	s, err := store.New(context.Background(), config.DatabaseConfig{
		Driver: "sqlite",
		Path:   ":memory:",
		Name:   name,
	})
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}
