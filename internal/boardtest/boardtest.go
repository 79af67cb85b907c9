// Package boardtest runs the board backend in-process for tests.
package boardtest

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/playperu/quizboard/internal/database"
	"github.com/playperu/quizboard/internal/migrations"
	"github.com/playperu/quizboard/internal/server"
)

// Backend is a migrated in-memory store behind a live HTTP server.
type Backend struct {
	Store  *server.SQLiteStore
	Server *httptest.Server
}

func (b *Backend) URL() string { return b.Server.URL }

// New starts a backend that is shut down when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()

	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open board db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate board db: %v", err)
	}

	store := server.NewSQLiteStore(db)
	srv := httptest.NewServer(server.NewRouter(Logger(), store))
	t.Cleanup(srv.Close)

	return &Backend{Store: store, Server: srv}
}

// Logger discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
