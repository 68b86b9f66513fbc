package sqlite

import (
	"database/sql"

	// Import the SQLite driver.
	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens the SQLite database at path and creates the schema if it
// doesn't exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY,
		username TEXT,
		first_name TEXT,
		last_name TEXT,
		registered_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_active_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		downloads_count INTEGER DEFAULT 0,
		is_blocked BOOLEAN DEFAULT FALSE
	)`)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS downloads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER,
		reference TEXT,
		title TEXT,
		file_size INTEGER,
		downloaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		success BOOLEAN DEFAULT TRUE,
		FOREIGN KEY (user_id) REFERENCES users (user_id)
	)`)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_downloads_user_id ON downloads(user_id)`); err != nil {
		return nil, err
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_downloads_downloaded_at ON downloads(downloaded_at)`); err != nil {
		return nil, err
	}

	return db, nil
}
