package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		database, err := Open(MemoryURL)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer database.Close()
		if database.DriverName() != "sqlite3" {
			t.Errorf("expected sqlite3 driver, got %s", database.DriverName())
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "qb.db")
		database, err := Open("sqlite://" + path)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		database.Close()
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		if _, err := Open("mysql://localhost/qb"); err == nil {
			t.Error("expected error for mysql scheme")
		}
	})
}

func TestMigrateUp(t *testing.T) {
	database, err := Open(MemoryURL)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer database.Close()

	ran, err := MigrateUp(database)
	if err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	if len(ran) != 1 || ran[0] != "001_initial_schema.sql" {
		t.Errorf("expected 001_initial_schema.sql applied, got %v", ran)
	}

	ran, err = MigrateUp(database)
	if err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}
	if len(ran) != 0 {
		t.Errorf("expected no pending migrations, got %v", ran)
	}

	statuses, err := MigrateStatus(database)
	if err != nil {
		t.Fatalf("MigrateStatus failed: %v", err)
	}
	if len(statuses) != 1 || !statuses[0].Applied || statuses[0].AppliedAt == nil {
		t.Errorf("unexpected status: %+v", statuses)
	}

	var count int
	if err := database.Get(&count, "SELECT COUNT(*) FROM saved_filters"); err != nil {
		t.Errorf("saved_filters table missing: %v", err)
	}
}

func TestMigrateUp_ChecksumMismatch(t *testing.T) {
	database, err := Open(MemoryURL)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer database.Close()

	if _, err := MigrateUp(database); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	if _, err := database.Exec("UPDATE migrations SET checksum = 'tampered'"); err != nil {
		t.Fatal(err)
	}

	if _, err := MigrateUp(database); err == nil {
		t.Error("expected checksum validation error")
	}
}

func TestSplitStatements(t *testing.T) {
	sql := "-- header\n\nCREATE TABLE a (x INT);\n-- note\nCREATE INDEX i ON a (x);\n"
	got := splitStatements(sql)
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (x INT)" || got[1] != "CREATE INDEX i ON a (x)" {
		t.Errorf("unexpected statements: %q", got)
	}
}

func TestQueries(t *testing.T) {
	database, err := Open(MemoryURL)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer database.Close()
	if _, err := MigrateUp(database); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	queries, err := LoadQueries(database)
	if err != nil {
		t.Fatalf("LoadQueries failed: %v", err)
	}

	ctx := context.Background()
	if _, err := queries.Exec(ctx, "insert-filter", "f1", "mine", "", `{}`, true, 1, 1); err != nil {
		t.Fatalf("insert-filter failed: %v", err)
	}
	var row struct {
		ID         string `db:"filter_id"`
		Name       string `db:"name"`
		OwnerEmail string `db:"owner_email"`
		QueryJSON  string `db:"query_json"`
		IsActive   bool   `db:"is_active"`
		CreatedAt  int64  `db:"created_at"`
		UpdatedAt  int64  `db:"updated_at"`
	}
	if err := queries.Get(ctx, "get-filter-by-name", &row, "mine"); err != nil {
		t.Fatalf("get-filter-by-name failed: %v", err)
	}
	if row.ID != "f1" || !row.IsActive {
		t.Errorf("unexpected row: %+v", row)
	}

	if _, err := queries.Exec(ctx, "no-such-query"); err == nil {
		t.Error("expected error for unknown query name")
	}
}
