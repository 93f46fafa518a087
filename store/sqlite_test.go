//go:build cgo

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, dbPath
}

// ---------------------------------------------------------------------------
// Schema / construction
// ---------------------------------------------------------------------------

func TestNewSQLiteCreatesParentDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sub", "dir", "test.db")
	s, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("creating store in nested dir: %v", err)
	}
	s.Close()
}

func TestMigrationsApplied(t *testing.T) {
	s, _ := newTestSQLite(t)
	v, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := migrations[len(migrations)-1].version; v != want {
		t.Fatalf("schema version = %d, want %d", v, want)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	s, _ := newTestSQLite(t)
	ctx := context.Background()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	var rows int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != len(migrations) {
		t.Errorf("schema_version rows = %d, want %d", rows, len(migrations))
	}
}

func TestBaseSchemaIndexesCreation(t *testing.T) {
	s, _ := newTestSQLite(t)
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_blobs_created'").Scan(&name)
	if err != nil {
		t.Fatalf("creation index missing: %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	s, path := newTestSQLite(t)
	ctx := context.Background()
	h := NewHandle(KindOutput)
	if err := s.Put(ctx, h, []byte("kept")); err != nil {
		t.Fatal(err)
	}
	s.Close()

	again, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	got, err := again.Get(ctx, h)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "kept" {
		t.Fatalf("got %q", got)
	}
}

// ---------------------------------------------------------------------------
// Blobs
// ---------------------------------------------------------------------------

func TestSQLiteRoundTrip(t *testing.T) {
	s, _ := newTestSQLite(t)
	ctx := context.Background()

	up := NewHandle(KindUpload)
	out := Handle{ID: up.ID, Kind: KindOutput}
	if err := s.Put(ctx, up, []byte("pdf bytes")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, out, []byte("docx bytes")); err != nil {
		t.Fatal(err)
	}

	for h, want := range map[Handle]string{up: "pdf bytes", out: "docx bytes"} {
		got, err := s.Get(ctx, h)
		if err != nil {
			t.Fatalf("get %s: %v", h.Kind, err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", h.Kind, got, want)
		}
	}
}

func TestSQLiteOverwrite(t *testing.T) {
	s, _ := newTestSQLite(t)
	ctx := context.Background()
	h := NewHandle(KindUpload)

	for _, data := range []string{"one", "two"} {
		if err := s.Put(ctx, h, []byte(data)); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.Get(ctx, h)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Fatalf("got %q, want two", got)
	}

	var size int
	if err := s.db.QueryRow("SELECT size FROM blobs WHERE id = ?", h.ID).Scan(&size); err != nil {
		t.Fatal(err)
	}
	if size != 3 {
		t.Fatalf("size = %d, want 3", size)
	}
}

func TestSQLiteNotFound(t *testing.T) {
	s, _ := newTestSQLite(t)
	_, err := s.Get(context.Background(), NewHandle(KindOutput))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenSQLite(t *testing.T) {
	st, err := Open(context.Background(), Config{
		Backend:    BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "open.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, ok := st.(*SQLite); !ok {
		t.Fatalf("expected *SQLite, got %T", st)
	}
}
