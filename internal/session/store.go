package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "azkar"
	dbFileName = "session.db"

	playbackKey = "playback"
)

// Manager is the sqlite-backed session store. The database lives in the
// XDG runtime directory (tmpfs, cleared per login), so a queued traversal
// cannot silently resume days later.
type Manager struct {
	db *sql.DB
}

// Open opens the session database at its default runtime location.
func Open() (*Manager, error) {
	return OpenPath(defaultPath())
}

// OpenPath opens the session database at an explicit path.
func OpenPath(dbPath string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// DB exposes the runtime database for other session-scoped state
// (the scheduler keeps its alarms here).
func (m *Manager) DB() *sql.DB {
	return m.db
}

// Load returns the persisted session, or Default() when none exists or the
// read fails.
func (m *Manager) Load(ctx context.Context) Session {
	var raw string
	row := m.db.QueryRowContext(ctx,
		`SELECT value FROM session_state WHERE key = ?`, playbackKey)
	if err := row.Scan(&raw); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logrus.WithError(err).Warn("session: load failed, using defaults")
		}
		return Default()
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		logrus.WithError(err).Warn("session: corrupt record, using defaults")
		return Default()
	}
	return s
}

// Save persists the session. Failures are logged and swallowed.
func (m *Manager) Save(ctx context.Context, s Session) {
	raw, err := json.Marshal(s)
	if err != nil {
		logrus.WithError(err).Warn("session: encode failed")
		return
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO session_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, playbackKey, string(raw))
	if err != nil {
		logrus.WithError(err).Warn("session: save failed")
	}
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS session_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

func defaultPath() string {
	base := xdg.RuntimeDir
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, appName, dbFileName)
}
