package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"
)

// Store reads and writes user settings.
type Store interface {
	Load(ctx context.Context) Settings
	Save(ctx context.Context, s Settings) error
}

// Manager is the sqlite-backed settings store. It shares the durable
// database with the other persistent state.
type Manager struct {
	db *sql.DB
}

var _ Store = (*Manager)(nil)

func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// Load returns the persisted settings, or Default() when none exist.
// Missing fields in an older record keep their default values.
func (m *Manager) Load(ctx context.Context) Settings {
	var raw string
	row := m.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE id = 1`)
	if err := row.Scan(&raw); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logrus.WithError(err).Warn("settings: load failed, using defaults")
		}
		return Default()
	}

	s := Default()
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		logrus.WithError(err).Warn("settings: corrupt record, using defaults")
		return Default()
	}
	return s
}

// Save persists the settings.
func (m *Manager) Save(ctx context.Context, s Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO settings (id, value) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET value = excluded.value
	`, string(raw))
	return err
}
