package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

const cacheTTL = 24 * time.Hour

// Manager serves dhikr data, preferring the remote dataset when a fresh
// cached copy is available and falling back to the built-in collection.
type Manager struct {
	db     *sql.DB
	client *Client
}

func NewManager(db *sql.DB, client *Client) *Manager {
	return &Manager{db: db, client: client}
}

// Data returns the active dataset. A fresh cache is served directly;
// otherwise the remote source is fetched and cached. Any failure falls
// back to the built-in collection.
func (m *Manager) Data(ctx context.Context) Data {
	if cached, ok := m.loadCache(ctx); ok {
		return cached
	}

	remote, err := m.client.Fetch(ctx)
	if err != nil {
		logrus.WithError(err).Debug("catalog: remote fetch failed, using builtin")
		return Builtin()
	}

	m.saveCache(ctx, remote)
	return remote
}

// Refresh forces a remote fetch and cache update.
func (m *Manager) Refresh(ctx context.Context) error {
	remote, err := m.client.Fetch(ctx)
	if err != nil {
		return err
	}
	m.saveCache(ctx, remote)
	return nil
}

// ItemsForCategory returns the entries for a category key, including any
// custom entries the user filed under it.
func (m *Manager) ItemsForCategory(ctx context.Context, key string) []Dhikr {
	items := m.Data(ctx)[key]

	custom, err := m.CustomAzkar(ctx)
	if err != nil {
		logrus.WithError(err).Warn("catalog: custom azkar load failed")
		return items
	}
	for _, c := range custom {
		if c.Category == key {
			items = append(items, c)
		}
	}
	return items
}

// Random picks a random entry from the given categories plus the user's
// custom entries. When nothing matches it returns a fallback dhikr.
func (m *Manager) Random(ctx context.Context, categories []string) Dhikr {
	data := m.Data(ctx)

	var pool []Dhikr
	for _, key := range categories {
		pool = append(pool, data[key]...)
	}

	custom, err := m.CustomAzkar(ctx)
	if err == nil {
		pool = append(pool, custom...)
	}

	if len(pool) == 0 {
		return Fallback()
	}
	return pool[rand.Intn(len(pool))]
}

// AdhanAudioURL returns the adhan recording URL, from the cached dataset
// when possible.
func (m *Manager) AdhanAudioURL(ctx context.Context) string {
	if cached, ok := m.loadCache(ctx); ok {
		if items := cached["adhan"]; len(items) > 0 && items[0].CategoryAudioURL != "" {
			return items[0].CategoryAudioURL
		}
	}

	url, err := m.client.AdhanAudioURL(ctx)
	if err != nil {
		logrus.WithError(err).Debug("catalog: adhan url fetch failed")
		return ""
	}
	return url
}

func (m *Manager) loadCache(ctx context.Context) (Data, bool) {
	var (
		payload   string
		fetchedAt int64
	)
	row := m.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM catalog_cache WHERE id = 1`)
	if err := row.Scan(&payload, &fetchedAt); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logrus.WithError(err).Warn("catalog: cache read failed")
		}
		return nil, false
	}

	if time.Since(time.UnixMilli(fetchedAt)) >= cacheTTL {
		return nil, false
	}

	var data Data
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		logrus.WithError(err).Warn("catalog: corrupt cache record")
		return nil, false
	}
	return data, true
}

func (m *Manager) saveCache(ctx context.Context, data Data) {
	payload, err := json.Marshal(data)
	if err != nil {
		logrus.WithError(err).Warn("catalog: cache encode failed")
		return
	}

	now := time.Now()
	_, err = m.db.ExecContext(ctx, `
		INSERT INTO catalog_cache (id, day, payload, fetched_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			day = excluded.day,
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`, now.Format(time.DateOnly), string(payload), now.UnixMilli())
	if err != nil {
		logrus.WithError(err).Warn("catalog: cache write failed")
	}
}
