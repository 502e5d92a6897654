package migrate_test

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/emiliopalmerini/growthops/internal/migrate"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("libsql", "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("sqlite_master query failed: %v", err)
	}
	return n == 1
}

func TestMigratorUpAndDown(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	m, err := migrate.New(db, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	applied, err := m.Up(ctx)
	if err != nil {
		t.Fatalf("Up failed: %v", err)
	}
	if applied != m.Latest() {
		t.Errorf("expected %d migrations applied, got %d", m.Latest(), applied)
	}
	for _, table := range []string{"boards", "experiments", "comments"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s missing after up", table)
		}
	}

	version, dirty, err := m.Version(ctx)
	if err != nil || dirty || version != m.Latest() {
		t.Fatalf("Version() = %d, %v, %v", version, dirty, err)
	}

	if applied, err := m.Up(ctx); err != nil || applied != 0 {
		t.Errorf("second Up should be a no-op, got %d, %v", applied, err)
	}

	if _, err := m.To(ctx, 0); err != nil {
		t.Fatalf("To(0) failed: %v", err)
	}
	if tableExists(t, db, "experiments") {
		t.Error("experiments table should be dropped after rollback")
	}
}

func TestMigratorDirty(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	m, err := migrate.New(db, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, _, err := m.Version(ctx); err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO schema_migrations (version, dirty) VALUES (1, 1)`); err != nil {
		t.Fatalf("seed dirty row: %v", err)
	}

	if _, err := m.Up(ctx); err == nil {
		t.Error("expected dirty state error")
	}
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"002_second.up.sql":   {Data: []byte("CREATE TABLE b (id TEXT)")},
		"001_first.up.sql":    {Data: []byte("CREATE TABLE a (id TEXT)")},
		"001_first.down.sql":  {Data: []byte("DROP TABLE a")},
		"README.md":           {Data: []byte("ignored")},
		"003_broken.down.sql": {Data: []byte("orphan down file")},
	}

	got, err := migrate.Load(fsys)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(got))
	}
	if got[0].Version != 1 || got[0].Name != "first" || got[0].DownSQL != "DROP TABLE a" {
		t.Errorf("unexpected first migration %+v", got[0])
	}
	if got[1].Version != 2 || got[1].DownSQL != "" {
		t.Errorf("unexpected second migration %+v", got[1])
	}
}

func TestSplitSQL(t *testing.T) {
	got := migrate.SplitSQL("CREATE TABLE a (id TEXT);\n\n  ;CREATE INDEX i ON a(id);")
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
	}
	if got[1] != "CREATE INDEX i ON a(id)" {
		t.Errorf("unexpected statement %q", got[1])
	}
}
