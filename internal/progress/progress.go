// Package progress tracks completed azkar: running totals, per-period
// counts, and the daily streak.
package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MahMoudMostaAfa/azkar/internal/db"
)

const retentionDays = 90

// Summary is the aggregate view served to clients.
type Summary struct {
	TotalCompleted int      `json:"totalCompleted"`
	Streak         int      `json:"streak"`
	LastActiveDate string   `json:"lastActiveDate,omitempty"`
	TodayCount     int      `json:"todayCount"`
	WeekCount      int      `json:"weekCount"`
	MonthCount     int      `json:"monthCount"`
	CompletedToday []string `json:"completedToday"`
}

// Manager persists progress in the durable database.
type Manager struct {
	db *sql.DB
}

func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// Record registers one completed dhikr. The dhikrID may be empty; when
// set, the per-day completed set records it once.
func (m *Manager) Record(ctx context.Context, dhikrID string) error {
	return m.record(ctx, dhikrID, time.Now())
}

func (m *Manager) record(ctx context.Context, dhikrID string, now time.Time) error {
	today := now.Format(time.DateOnly)

	return db.WithTx(m.db, func(tx *sql.Tx) error {
		total, streak, lastActive, err := loadRow(ctx, tx)
		if err != nil {
			return err
		}

		total++
		streak = nextStreak(streak, lastActive, today)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO progress (id, total_completed, streak, last_active_date)
			VALUES (1, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				total_completed = excluded.total_completed,
				streak = excluded.streak,
				last_active_date = excluded.last_active_date
		`, total, streak, today)
		if err != nil {
			return fmt.Errorf("update progress row: %w", err)
		}

		for _, b := range []struct{ period, bucket string }{
			{"daily", today},
			{"weekly", weekKey(now)},
			{"monthly", now.Format("2006-01")},
		} {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO progress_counts (period, bucket, count) VALUES (?, ?, 1)
				ON CONFLICT(period, bucket) DO UPDATE SET count = count + 1
			`, b.period, b.bucket)
			if err != nil {
				return fmt.Errorf("bump %s count: %w", b.period, err)
			}
		}

		if dhikrID != "" {
			_, err = tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO completed_azkar (day, dhikr_id) VALUES (?, ?)
			`, today, dhikrID)
			if err != nil {
				return fmt.Errorf("record completed dhikr: %w", err)
			}
		}

		return cleanOld(ctx, tx, now)
	})
}

// Summary returns the aggregate progress for today.
func (m *Manager) Summary(ctx context.Context) (Summary, error) {
	return m.summary(ctx, time.Now())
}

func (m *Manager) summary(ctx context.Context, now time.Time) (Summary, error) {
	today := now.Format(time.DateOnly)

	var s Summary
	row := m.db.QueryRowContext(ctx,
		`SELECT total_completed, streak, COALESCE(last_active_date, '') FROM progress WHERE id = 1`)
	if err := row.Scan(&s.TotalCompleted, &s.Streak, &s.LastActiveDate); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return Summary{}, fmt.Errorf("load progress: %w", err)
		}
	}

	counts := map[string]*int{
		"daily":   &s.TodayCount,
		"weekly":  &s.WeekCount,
		"monthly": &s.MonthCount,
	}
	buckets := map[string]string{
		"daily":   today,
		"weekly":  weekKey(now),
		"monthly": now.Format("2006-01"),
	}
	for period, dst := range counts {
		row := m.db.QueryRowContext(ctx,
			`SELECT count FROM progress_counts WHERE period = ? AND bucket = ?`,
			period, buckets[period])
		if err := row.Scan(dst); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return Summary{}, fmt.Errorf("load %s count: %w", period, err)
		}
	}

	rows, err := m.db.QueryContext(ctx,
		`SELECT dhikr_id FROM completed_azkar WHERE day = ? ORDER BY rowid`, today)
	if err != nil {
		return Summary{}, fmt.Errorf("load completed azkar: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return Summary{}, err
		}
		s.CompletedToday = append(s.CompletedToday, id)
	}
	return s, rows.Err()
}

// DailyReset breaks the streak when the user skipped a full day. Runs
// from the midnight alarm.
func (m *Manager) DailyReset(ctx context.Context) error {
	return m.dailyReset(ctx, time.Now())
}

func (m *Manager) dailyReset(ctx context.Context, now time.Time) error {
	today := now.Format(time.DateOnly)
	yesterday := now.AddDate(0, 0, -1).Format(time.DateOnly)

	_, err := m.db.ExecContext(ctx, `
		UPDATE progress SET streak = 0
		WHERE id = 1 AND last_active_date NOT IN (?, ?)
	`, yesterday, today)
	if err != nil {
		return fmt.Errorf("daily reset: %w", err)
	}
	return nil
}

func loadRow(ctx context.Context, tx *sql.Tx) (total, streak int, lastActive string, err error) {
	row := tx.QueryRowContext(ctx,
		`SELECT total_completed, streak, COALESCE(last_active_date, '') FROM progress WHERE id = 1`)
	if scanErr := row.Scan(&total, &streak, &lastActive); scanErr != nil {
		if !errors.Is(scanErr, sql.ErrNoRows) {
			return 0, 0, "", fmt.Errorf("load progress row: %w", scanErr)
		}
	}
	return total, streak, lastActive, nil
}

// nextStreak applies the streak rule: consecutive days extend it, a gap
// restarts it, same-day activity leaves it unchanged.
func nextStreak(streak int, lastActive, today string) int {
	if lastActive == "" {
		return 1
	}
	last, err := time.Parse(time.DateOnly, lastActive)
	if err != nil {
		return 1
	}
	cur, err := time.Parse(time.DateOnly, today)
	if err != nil {
		return streak
	}

	switch diff := int(cur.Sub(last).Hours() / 24); {
	case diff == 1:
		return streak + 1
	case diff > 1:
		return 1
	default:
		return streak
	}
}

func cleanOld(ctx context.Context, tx *sql.Tx, now time.Time) error {
	cutoff := now.AddDate(0, 0, -retentionDays).Format(time.DateOnly)

	_, err := tx.ExecContext(ctx, `
		DELETE FROM progress_counts WHERE period = 'daily' AND bucket < ?
	`, cutoff)
	if err != nil {
		return fmt.Errorf("clean daily counts: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM completed_azkar WHERE day < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("clean completed azkar: %w", err)
	}
	return nil
}

// weekKey formats a year-week bucket like "2026-W11".
func weekKey(now time.Time) string {
	startOfYear := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	days := now.Sub(startOfYear).Hours() / 24
	week := int(math.Ceil((days + float64(startOfYear.Weekday()) + 1) / 7))
	return fmt.Sprintf("%d-W%d", now.Year(), week)
}

// Touch logs rather than fails when a non-critical record attempt
// errors; used by the reminder path.
func (m *Manager) Touch(ctx context.Context, dhikrID string) {
	if err := m.Record(ctx, dhikrID); err != nil {
		logrus.WithError(err).Warn("progress: record failed")
	}
}
