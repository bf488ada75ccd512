// Package testutil provides shared fixtures for tests across the codebase.
package testutil

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// Logger returns a logger writing warnings and above to stderr.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// SQLite opens a file-backed database in a temp dir, attaches one extra file
// per name in attach, and runs setup. The pool is pinned to a single
// connection so attachments stay visible to every caller.
func SQLite(t testing.TB, attach []string, setup ...string) *sql.DB {
	t.Helper()

	dir := t.TempDir()
	db, err := sql.Open("sqlite", filepath.Join(dir, "main.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, name := range attach {
		_, err := db.ExecContext(ctx, `ATTACH DATABASE ? AS "`+name+`"`, filepath.Join(dir, name+".db"))
		require.NoError(t, err, "attach %s", name)
	}
	for _, stmt := range setup {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}
	return db
}

// SQLiteFile creates a database file in a temp dir, runs setup on it and
// returns its path with no connection left open.
func SQLiteFile(t testing.TB, setup ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	for _, stmt := range setup {
		_, err := db.ExecContext(context.Background(), stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, db.Close())
	return path
}

// ErrPoolExhausted is returned by FailingPool.
var ErrPoolExhausted = errors.New("connection pool exhausted")

// FailingPool never hands out a connection.
type FailingPool struct{}

func (FailingPool) Conn(context.Context) (*sql.Conn, error) {
	return nil, ErrPoolExhausted
}
