package db

import (
	"os"
	"testing"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	database, err := Connect(dsn)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		database.conn.Exec("DELETE FROM card_art")
		database.Close()
	})
	return database
}

func TestConnect(t *testing.T) {
	database := getTestDB(t)
	if err := database.Ping(); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestMigrate(t *testing.T) {
	database := getTestDB(t)

	var exists bool
	err := database.conn.QueryRow(`
		SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'card_art')
	`).Scan(&exists)
	if err != nil {
		t.Fatalf("checking table card_art: %v", err)
	}
	if !exists {
		t.Error("table card_art does not exist")
	}
}

func TestSaveAndLoadCardArt(t *testing.T) {
	database := getTestDB(t)

	if err := database.SaveCardArt("ROOM1", 0, "blob-zero"); err != nil {
		t.Fatalf("SaveCardArt() error: %v", err)
	}
	if err := database.SaveCardArt("ROOM1", 1, "blob-one"); err != nil {
		t.Fatalf("SaveCardArt() error: %v", err)
	}

	art, err := database.LoadCardArt("ROOM1")
	if err != nil {
		t.Fatalf("LoadCardArt() error: %v", err)
	}
	if art[0] != "blob-zero" {
		t.Errorf("art[0] = %q, want %q", art[0], "blob-zero")
	}
	if art[1] != "blob-one" {
		t.Errorf("art[1] = %q, want %q", art[1], "blob-one")
	}
}

func TestSaveCardArt_Upsert(t *testing.T) {
	database := getTestDB(t)

	if err := database.SaveCardArt("ROOM2", 0, "first"); err != nil {
		t.Fatalf("SaveCardArt() error: %v", err)
	}
	if err := database.SaveCardArt("ROOM2", 0, "second"); err != nil {
		t.Fatalf("SaveCardArt() error: %v", err)
	}

	art, err := database.LoadCardArt("ROOM2")
	if err != nil {
		t.Fatalf("LoadCardArt() error: %v", err)
	}
	if art[0] != "second" {
		t.Errorf("art[0] = %q, want %q", art[0], "second")
	}
}

func TestLoadCardArt_EmptyRoom(t *testing.T) {
	database := getTestDB(t)

	art, err := database.LoadCardArt("NOSUCH")
	if err != nil {
		t.Fatalf("LoadCardArt() error: %v", err)
	}
	if art[0] != "" || art[1] != "" {
		t.Errorf("expected empty art, got %v", art)
	}
}
