package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := migrateMeetLink(db); err != nil {
		return nil, fmt.Errorf("failed to migrate bookings table: %w", err)
	}

	if logger != nil {
		logger.Info().Str("path", path).Msg("database initialized")
	}
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// start/"end" stay TEXT on purpose: rows keep the exact strings
		// the caller sent, timezone markers included.
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            event_type_id INTEGER NOT NULL,
            start TEXT NOT NULL,
            "end" TEXT NOT NULL,
            name TEXT NOT NULL,
            email TEXT NOT NULL,
            meet_link TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            booking_id INTEGER NOT NULL,
            payload TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_start ON bookings(start)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_event_type_id ON bookings(event_type_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// migrateMeetLink adds the meet_link column to databases created before
// the provider started returning meeting links. Safe to run repeatedly.
func migrateMeetLink(db *sql.DB) error {
	rows, err := db.Query(`PRAGMA table_info(bookings)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	hasMeetLink := false
	for rows.Next() {
		var (
			cid        int
			name       string
			colType    string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultVal, &pk); err != nil {
			return err
		}
		if name == "meet_link" {
			hasMeetLink = true
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if !hasMeetLink {
		if _, err := db.Exec(`ALTER TABLE bookings ADD COLUMN meet_link TEXT`); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
