package prayer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MahMoudMostaAfa/azkar/internal/settings"
)

// notifyWindow is how long past the scheduled time a prayer still
// triggers a notification.
const notifyWindow = 5 * time.Minute

// prayerOrder lists the Aladhan keys of the five notified prayers.
var prayerOrder = []struct {
	APIKey     string
	SettingKey string
	ArabicName string
}{
	{"Fajr", "fajr", "الفجر"},
	{"Dhuhr", "dhuhr", "الظهر"},
	{"Asr", "asr", "العصر"},
	{"Maghrib", "maghrib", "المغرب"},
	{"Isha", "isha", "العشاء"},
}

// Due describes a prayer whose time has just arrived.
type Due struct {
	Key        string // Aladhan key, e.g. "Fajr"
	Name       string // lowercase name, e.g. "fajr"
	ArabicName string
	Time       string // "HH:MM"
}

// Manager caches prayer timings per day and tracks which prayers have
// already been notified.
type Manager struct {
	db     *sql.DB
	client *Client
}

func NewManager(db *sql.DB, client *Client) *Manager {
	return &Manager{db: db, client: client}
}

// TimingsForToday returns today's prayer times, fetching and caching
// them when no record for today exists. On fetch failure a stale cached
// record is better than nothing.
func (m *Manager) TimingsForToday(ctx context.Context, loc settings.Location) (Timings, error) {
	return m.timings(ctx, time.Now(), loc)
}

func (m *Manager) timings(ctx context.Context, now time.Time, loc settings.Location) (Timings, error) {
	today := now.Format(time.DateOnly)

	if t, _, ok := m.loadCache(ctx, today); ok {
		return t, nil
	}

	timings, hijri, err := m.client.Timings(ctx, now, loc.Latitude, loc.Longitude, loc.Method)
	if err != nil {
		if t, _, ok := m.loadAnyCache(ctx); ok {
			logrus.WithError(err).Warn("prayer: fetch failed, serving stale cache")
			return t, nil
		}
		return nil, fmt.Errorf("fetch timings: %w", err)
	}

	m.saveCache(ctx, today, timings, hijri)
	return timings, nil
}

// HijriToday returns today's Hijri date, from the cached timings record
// when present.
func (m *Manager) HijriToday(ctx context.Context, loc settings.Location) (*HijriDate, error) {
	now := time.Now()
	today := now.Format(time.DateOnly)

	if _, h, ok := m.loadCache(ctx, today); ok && h != nil {
		return h, nil
	}

	timings, hijri, err := m.client.Timings(ctx, now, loc.Latitude, loc.Longitude, loc.Method)
	if err != nil {
		return nil, fmt.Errorf("fetch hijri date: %w", err)
	}
	if hijri == nil {
		return nil, errors.New("api response carried no hijri date")
	}

	m.saveCache(ctx, today, timings, hijri)
	return hijri, nil
}

// DuePrayers returns the prayers whose time falls within the notify
// window of now and which have not yet been notified today. Returned
// prayers are immediately marked notified.
func (m *Manager) DuePrayers(ctx context.Context, now time.Time, s settings.Settings) ([]Due, error) {
	if !s.PrayerReminders.Enabled {
		return nil, nil
	}

	timings, err := m.timings(ctx, now, s.Location)
	if err != nil {
		return nil, err
	}

	today := now.Format(time.DateOnly)
	currentMinutes := now.Hour()*60 + now.Minute()

	var due []Due
	for _, p := range prayerOrder {
		if !s.PrayerEnabled(p.SettingKey) {
			continue
		}

		timeStr := timings[p.APIKey]
		if timeStr == "" {
			continue
		}
		var h, min int
		if _, err := fmt.Sscanf(timeStr, "%d:%d", &h, &min); err != nil {
			continue
		}
		prayerMinutes := h*60 + min

		within := currentMinutes >= prayerMinutes &&
			currentMinutes <= prayerMinutes+int(notifyWindow.Minutes())
		if !within {
			continue
		}

		notified, err := m.markNotified(ctx, today, p.APIKey)
		if err != nil {
			return nil, err
		}
		if !notified {
			continue
		}
		due = append(due, Due{
			Key:        p.APIKey,
			Name:       p.SettingKey,
			ArabicName: p.ArabicName,
			Time:       timeStr,
		})
	}

	if len(due) > 0 {
		m.pruneNotified(ctx, today)
	}
	return due, nil
}

// InvalidateCache drops the cached timings, forcing a refetch. Called
// when the user changes location.
func (m *Manager) InvalidateCache(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM prayer_cache`)
	return err
}

// markNotified records a prayer notification. Returns false when the
// prayer was already notified today.
func (m *Manager) markNotified(ctx context.Context, day, apiKey string) (bool, error) {
	res, err := m.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO notified_prayers (day, prayer) VALUES (?, ?)
	`, day, apiKey)
	if err != nil {
		return false, fmt.Errorf("mark notified: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *Manager) pruneNotified(ctx context.Context, today string) {
	_, err := m.db.ExecContext(ctx,
		`DELETE FROM notified_prayers WHERE day < ?`, today)
	if err != nil {
		logrus.WithError(err).Warn("prayer: prune failed")
	}
}

func (m *Manager) loadCache(ctx context.Context, day string) (Timings, *HijriDate, bool) {
	var (
		rawTimings string
		rawHijri   sql.NullString
	)
	row := m.db.QueryRowContext(ctx,
		`SELECT timings, hijri FROM prayer_cache WHERE day = ?`, day)
	if err := row.Scan(&rawTimings, &rawHijri); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logrus.WithError(err).Warn("prayer: cache read failed")
		}
		return nil, nil, false
	}
	return decodeCache(rawTimings, rawHijri)
}

// loadAnyCache returns the most recent cached record regardless of day.
func (m *Manager) loadAnyCache(ctx context.Context) (Timings, *HijriDate, bool) {
	var (
		rawTimings string
		rawHijri   sql.NullString
	)
	row := m.db.QueryRowContext(ctx,
		`SELECT timings, hijri FROM prayer_cache ORDER BY day DESC LIMIT 1`)
	if err := row.Scan(&rawTimings, &rawHijri); err != nil {
		return nil, nil, false
	}
	return decodeCache(rawTimings, rawHijri)
}

func decodeCache(rawTimings string, rawHijri sql.NullString) (Timings, *HijriDate, bool) {
	var t Timings
	if err := json.Unmarshal([]byte(rawTimings), &t); err != nil {
		logrus.WithError(err).Warn("prayer: corrupt cache record")
		return nil, nil, false
	}

	var h *HijriDate
	if rawHijri.Valid && rawHijri.String != "" {
		h = &HijriDate{}
		if err := json.Unmarshal([]byte(rawHijri.String), h); err != nil {
			h = nil
		}
	}
	return t, h, true
}

func (m *Manager) saveCache(ctx context.Context, day string, t Timings, h *HijriDate) {
	rawTimings, err := json.Marshal(t)
	if err != nil {
		return
	}

	var rawHijri sql.NullString
	if h != nil {
		if b, err := json.Marshal(h); err == nil {
			rawHijri = sql.NullString{String: string(b), Valid: true}
		}
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO prayer_cache (day, timings, hijri, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			timings = excluded.timings,
			hijri = excluded.hijri,
			fetched_at = excluded.fetched_at
	`, day, string(rawTimings), rawHijri, time.Now().UnixMilli())
	if err != nil {
		logrus.WithError(err).Warn("prayer: cache write failed")
	}

	// Keep only recent days
	_, _ = m.db.ExecContext(ctx, `
		DELETE FROM prayer_cache WHERE day < ?
	`, time.Now().AddDate(0, 0, -7).Format(time.DateOnly))
}
