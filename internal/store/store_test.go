package store_test

import (
	"path/filepath"
	"testing"

	"github.com/abhisek/mockview/internal/store"
	"github.com/abhisek/mockview/internal/store/storetest"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRepo(t *testing.T) {
	storetest.RunSessionRepo(t, func(t *testing.T) store.SessionRepo {
		return openTestStore(t).SessionRepo()
	})
}

func TestEventRepo(t *testing.T) {
	storetest.RunEventRepo(t, func(t *testing.T) store.EventRepo {
		return openTestStore(t).EventRepo()
	})
}

func TestPragmasApplied(t *testing.T) {
	db := openTestStore(t).DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		if err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	db := openTestStore(t).DB()

	for _, table := range []string{"interview_sessions", "interview_messages", "performance_metrics", "llm_request_events"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s: %v", table, err)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.DB().Exec(`INSERT INTO llm_request_events (created_at, provider, model, purpose, success) VALUES (1, 'p', 'm', 'x', 1)`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s.Close()

	s, err = store.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM llm_request_events`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 event after reopen, got %d", n)
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("MOCKVIEW_DB", filepath.Join(dir, "explicit", "x.db"))
	p, err := store.DefaultDBPath()
	if err != nil || p != filepath.Join(dir, "explicit", "x.db") {
		t.Fatalf("MOCKVIEW_DB not honoured: %q, %v", p, err)
	}

	t.Setenv("MOCKVIEW_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = store.DefaultDBPath()
	if err != nil || p != filepath.Join(dir, "mockview", "mockview.db") {
		t.Fatalf("XDG path not used: %q, %v", p, err)
	}
}
