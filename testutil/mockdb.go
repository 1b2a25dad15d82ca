package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// SampleState is a persisted chat state with two sessions, the second one active
const SampleState = `{"chats":{` +
	`"chat_b":{"title":"Chat 2","messages":[{"text":"Hello","sender":"user"},{"text":"Hi there","sender":"assistant"}]},` +
	`"chat_a":{"title":"Chat 1","messages":[]}` +
	`},"currentChatId":"chat_a"}`

// CreateInMemoryDB creates an in-memory SQLite database for testing
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create kv table: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateTestDB creates a test database holding SampleState under chats_state
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)

	entries := []struct {
		key   string
		value string
	}{
		{key: "chats_state", value: SampleState},
		{key: "sidebar_hidden", value: "false"},
	}

	stmt, err := db.Prepare("INSERT INTO kv (key, value) VALUES (?, ?)")
	if err != nil {
		t.Fatalf("Failed to prepare insert statement: %v", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.key, e.value); err != nil {
			t.Fatalf("Failed to insert %s: %v", e.key, err)
		}
	}

	return db
}

// InsertValue inserts or replaces a key in the kv table
func InsertValue(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	insertSQL := "INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)"
	if _, err := db.Exec(insertSQL, key, value); err != nil {
		t.Fatalf("Failed to insert %s: %v", key, err)
	}
}

// ReadValue reads a key from the kv table, failing the test if it is absent
func ReadValue(t *testing.T, db *sql.DB, key string) string {
	t.Helper()
	var value string
	if err := db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value); err != nil {
		t.Fatalf("Failed to read %s: %v", key, err)
	}
	return value
}
