package persistence

import (
	"context"
	"testing"
)

// The rest of this package only exercises a live PostgreSQL connection pool
// and transaction, which the corpus has no precedent for faking; the sole
// piece reachable without a database is connection-string validation, which
// fails synchronously before any network I/O.
func TestNewPostgresFactoryRejectsMalformedURL(t *testing.T) {
	_, err := NewPostgresFactory(context.Background(), "not a valid connection url", 4)
	if err == nil {
		t.Fatal("expected an error for a malformed GAME_DB_URL")
	}
}
