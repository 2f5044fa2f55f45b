package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	if dir := filepath.Dir(dataSourceName); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := "file:" + dataSourceName + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		photo_url TEXT NOT NULL DEFAULT '',
		-- ordered folder list, stored as JSON text
		community_groups_json TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS communities (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		photo_url TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL,
		created_by_name TEXT NOT NULL DEFAULT '',
		is_dues_mandatory INTEGER NOT NULL DEFAULT 0,
		dues_amount TEXT NOT NULL DEFAULT '',
		dues_date INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	-- Community.members
	CREATE TABLE IF NOT EXISTS community_members (
		community_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		joined_at INTEGER NOT NULL,
		PRIMARY KEY (community_id, user_id),
		FOREIGN KEY (community_id) REFERENCES communities(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	-- User.joinedCommIds
	CREATE TABLE IF NOT EXISTS user_communities (
		user_id TEXT NOT NULL,
		community_id TEXT NOT NULL,
		joined_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, community_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (community_id) REFERENCES communities(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT NOT NULL PRIMARY KEY,
		community_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		text TEXT NOT NULL,
		photo_url TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		FOREIGN KEY (community_id) REFERENCES communities(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		community_id TEXT NOT NULL,
		title TEXT NOT NULL,
		date TEXT NOT NULL, -- YYYY-MM-DD
		created_at INTEGER NOT NULL,
		FOREIGN KEY (community_id) REFERENCES communities(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT NOT NULL PRIMARY KEY,
		community_id TEXT NOT NULL,
		title TEXT NOT NULL,
		amount TEXT NOT NULL, -- decimal string
		date TEXT NOT NULL,
		category TEXT NOT NULL,
		added_by TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (community_id) REFERENCES communities(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS faqs (
		id TEXT NOT NULL PRIMARY KEY,
		community_id TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL DEFAULT '',
		asker TEXT NOT NULL,
		asker_id TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		answered_at INTEGER,
		FOREIGN KEY (community_id) REFERENCES communities(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_messages_community ON messages(community_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_events_community ON events(community_id, date);
	CREATE INDEX IF NOT EXISTS idx_expenses_community ON expenses(community_id, date);
	CREATE INDEX IF NOT EXISTS idx_faqs_community ON faqs(community_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_user_communities_community ON user_communities(community_id);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
