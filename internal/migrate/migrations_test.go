package migrate

import (
	"testing"

	"launchline/internal/db"
)

func TestMigrateIsIdempotent(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(conn, db.SQLite); err != nil {
			t.Fatalf("migrate run %d: %v", i, err)
		}
	}
	latest, err := Latest()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	var version int
	if err := conn.QueryRow(`SELECT version FROM schema_version`).Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != latest {
		t.Fatalf("schema version: got %d want %d", version, latest)
	}
	if _, err := conn.Exec(`SELECT id, version, payload_json, updated_at FROM launch_snapshot`); err != nil {
		t.Fatalf("launch_snapshot missing: %v", err)
	}
}
