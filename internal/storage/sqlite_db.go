// internal/storage/sqlite_db.go
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite opens the local SQLite database and creates the schemas
// for users, discovery progress, inventories, character relationships
// and quest sessions.
func InitSQLite(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			settings_json TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL,
			last_active DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_progress (
			user_id TEXT NOT NULL,
			category TEXT NOT NULL,
			entry_name TEXT NOT NULL,
			discovered_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, category, entry_name),
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS inventory (
			user_id TEXT NOT NULL,
			item_name TEXT NOT NULL,
			rarity TEXT NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0,
			acquired_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, item_name),
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS character_relationships (
			user_id TEXT NOT NULL,
			character_name TEXT NOT NULL,
			level INTEGER NOT NULL DEFAULT 0,
			interactions INTEGER NOT NULL DEFAULT 0,
			last_interaction DATETIME NOT NULL,
			PRIMARY KEY (user_id, character_name),
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS crafting_recipes (
			result_item TEXT PRIMARY KEY,
			result_rarity TEXT NOT NULL,
			description TEXT,
			requirements_json TEXT NOT NULL DEFAULT '{}'
		);`,
		`CREATE TABLE IF NOT EXISTS quest_sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			quest_title TEXT NOT NULL,
			scene_index INTEGER NOT NULL DEFAULT 0,
			choices_json TEXT NOT NULL DEFAULT '[]',
			grants_json TEXT NOT NULL DEFAULT '[]',
			status TEXT NOT NULL DEFAULT 'active',
			started_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_progress_user_id ON user_progress(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_inventory_user_id ON inventory(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON quest_sessions(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_status ON quest_sessions(user_id, status);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
