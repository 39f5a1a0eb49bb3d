package store

import (
	"database/sql"
)

const currentSchemaVersion = 1

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS custom_azkar (
			id TEXT PRIMARY KEY,
			arabic TEXT NOT NULL,
			transliteration TEXT,
			translation TEXT,
			source TEXT,
			times INTEGER NOT NULL DEFAULT 1,
			category TEXT NOT NULL DEFAULT 'general',
			audio TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS catalog_cache (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			day TEXT NOT NULL,
			payload TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS prayer_cache (
			day TEXT PRIMARY KEY,
			timings TEXT NOT NULL,
			hijri TEXT,
			fetched_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS notified_prayers (
			day TEXT NOT NULL,
			prayer TEXT NOT NULL,
			UNIQUE(day, prayer)
		);

		CREATE TABLE IF NOT EXISTS notified_events (
			day TEXT NOT NULL,
			event TEXT NOT NULL,
			UNIQUE(day, event)
		);

		CREATE TABLE IF NOT EXISTS progress (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			total_completed INTEGER NOT NULL DEFAULT 0,
			streak INTEGER NOT NULL DEFAULT 0,
			last_active_date TEXT
		);

		CREATE TABLE IF NOT EXISTS progress_counts (
			period TEXT NOT NULL,
			bucket TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			UNIQUE(period, bucket)
		);

		CREATE TABLE IF NOT EXISTS completed_azkar (
			day TEXT NOT NULL,
			dhikr_id TEXT NOT NULL,
			UNIQUE(day, dhikr_id)
		);
	`)
	if err != nil {
		return err
	}

	// Set initial version if not exists
	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}
