// Package scheduler provides durable named timers. A timer scheduled here
// survives the daemon being stopped and restarted: the due time lives in
// the session database, and an overdue timer fires on the first scan after
// the restart. Resolution is coarse (one scan per second); this is not a
// real-time scheduler.
package scheduler

import (
	"database/sql"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultScanInterval = time.Second

// Scheduler persists named timers in sqlite and delivers wake events
// through a single handler. Scheduling an existing name replaces it;
// distinct names never clobber each other.
type Scheduler struct {
	db           *sql.DB
	scanInterval time.Duration

	mu      sync.Mutex
	handler func(name string)
	done    chan struct{}
	stopped bool
}

// New creates a scheduler backed by the given database, creating its
// table if needed.
func New(db *sql.DB) (*Scheduler, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS alarms (
			name TEXT PRIMARY KEY,
			due_at_ms INTEGER NOT NULL,
			period_ms INTEGER NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		db:           db,
		scanInterval: defaultScanInterval,
		done:         make(chan struct{}),
	}, nil
}

// Start registers the wake handler and begins the scan loop. Timers left
// over from a previous process fire on the first scan.
func (s *Scheduler) Start(handler func(name string)) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()

	go s.loop()
}

// Stop halts the scan loop. Persisted timers remain and fire after the
// next Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.done)
}

// Schedule creates or replaces a one-shot timer due after delay.
func (s *Scheduler) Schedule(name string, delay time.Duration) error {
	return s.upsert(name, time.Now().Add(delay), 0)
}

// SchedulePeriodic creates or replaces a repeating timer, first due after
// delay, then every period.
func (s *Scheduler) SchedulePeriodic(name string, delay, period time.Duration) error {
	return s.upsert(name, time.Now().Add(delay), period)
}

// ScheduleAt creates or replaces a timer due at an absolute time, with an
// optional repeat period.
func (s *Scheduler) ScheduleAt(name string, when time.Time, period time.Duration) error {
	return s.upsert(name, when, period)
}

// Get reports whether a timer with this name exists.
func (s *Scheduler) Get(name string) (bool, error) {
	var n int
	row := s.db.QueryRow(`SELECT COUNT(*) FROM alarms WHERE name = ?`, name)
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear removes a timer. Clearing a missing name is a no-op.
func (s *Scheduler) Clear(name string) error {
	_, err := s.db.Exec(`DELETE FROM alarms WHERE name = ?`, name)
	return err
}

// FireDue fires every timer due at or before now and returns how many
// fired. One-shot timers are deleted before their handler runs; periodic
// timers are pushed forward by their period first, so a handler that
// crashes the process cannot replay the same wake forever.
func (s *Scheduler) FireDue(now time.Time) int {
	rows, err := s.db.Query(
		`SELECT name, period_ms FROM alarms WHERE due_at_ms <= ?`, now.UnixMilli())
	if err != nil {
		logrus.WithError(err).Warn("scheduler: due scan failed")
		return 0
	}

	type due struct {
		name   string
		period time.Duration
	}
	var fired []due
	for rows.Next() {
		var d due
		var periodMs int64
		if err := rows.Scan(&d.name, &periodMs); err != nil {
			logrus.WithError(err).Warn("scheduler: scan row failed")
			continue
		}
		d.period = time.Duration(periodMs) * time.Millisecond
		fired = append(fired, d)
	}
	rows.Close()

	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()

	for _, d := range fired {
		if d.period > 0 {
			if err := s.upsert(d.name, now.Add(d.period), d.period); err != nil {
				logrus.WithError(err).WithField("alarm", d.name).Warn("scheduler: reschedule failed")
			}
		} else if err := s.Clear(d.name); err != nil {
			logrus.WithError(err).WithField("alarm", d.name).Warn("scheduler: clear failed")
		}

		logrus.WithField("alarm", d.name).Debug("alarm fired")
		if handler != nil {
			handler(d.name)
		}
	}

	return len(fired)
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.FireDue(now)
		}
	}
}

func (s *Scheduler) upsert(name string, due time.Time, period time.Duration) error {
	_, err := s.db.Exec(`
		INSERT INTO alarms (name, due_at_ms, period_ms) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			due_at_ms = excluded.due_at_ms,
			period_ms = excluded.period_ms
	`, name, due.UnixMilli(), period.Milliseconds())
	return err
}
