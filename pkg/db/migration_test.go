package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// TestInitDBCreatesSchema verifies InitDB creates both progress tables with
// the expected columns.
func TestInitDBCreatesSchema(t *testing.T) {
	dbConn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()
	dbConn.SetMaxOpenConns(1)

	if err := InitDB(dbConn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}

	want := map[string][]string{
		"completed_lessons": {"lesson_id", "stars", "updated_at"},
		"app_state":         {"key", "value"},
	}
	for table, columns := range want {
		rows, err := dbConn.Query("PRAGMA table_info(" + table + ")")
		if err != nil {
			t.Fatalf("pragma %s: %v", table, err)
		}
		cols := map[string]bool{}
		for rows.Next() {
			var cid int
			var colName, ctype string
			var notnull, pk int
			var dfltVal interface{}
			if err := rows.Scan(&cid, &colName, &ctype, &notnull, &dfltVal, &pk); err != nil {
				rows.Close()
				t.Fatalf("scan col: %v", err)
			}
			cols[colName] = true
		}
		rows.Close()
		for _, c := range columns {
			if !cols[c] {
				t.Fatalf("table %s missing column %s, got %v", table, c, cols)
			}
		}
	}
}

// TestInitDBIdempotent runs the migrations twice against a file database.
func TestInitDBIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.db")
	conn, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	if err := InitDB(conn); err != nil {
		t.Fatalf("second InitDB: %v", err)
	}
}

func TestSchemaRejectsOutOfRangeStars(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()
	if _, err := conn.Exec(`INSERT INTO completed_lessons (lesson_id, stars) VALUES ('x', 5)`); err == nil {
		t.Fatalf("expected CHECK constraint failure")
	}
}
