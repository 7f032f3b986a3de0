package testsupport

import (
	"context"
	"testing"

	"lectern/internal/config"
	"lectern/internal/session"
)

// MustOpenStore opens a session.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *session.Store {
	t.Helper()

	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSession creates a session for tests using the provided store.
func NewSession(t testing.TB, store *session.Store, req session.NewSession) (*session.Session, *session.Source) {
	t.Helper()

	sess, src, err := store.CreateSession(context.Background(), req)
	if err != nil {
		t.Fatalf("store.CreateSession: %v", err)
	}
	return sess, src
}
