package scheduler

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "alarms.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTest(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(openTestDB(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSchedule_FiresWhenDue(t *testing.T) {
	s := newTest(t)
	var fired []string
	s.Start(func(name string) { fired = append(fired, name) })
	defer s.Stop()

	if err := s.Schedule("advance-queue", 100*time.Millisecond); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	// Not due yet.
	if n := s.FireDue(time.Now()); n != 0 {
		t.Errorf("FireDue before due = %d, want 0", n)
	}

	if n := s.FireDue(time.Now().Add(time.Second)); n != 1 {
		t.Errorf("FireDue after due = %d, want 1", n)
	}
	if len(fired) != 1 || fired[0] != "advance-queue" {
		t.Errorf("fired = %v", fired)
	}

	// One-shot: must not fire twice.
	if n := s.FireDue(time.Now().Add(time.Minute)); n != 0 {
		t.Errorf("one-shot fired again, n = %d", n)
	}
}

func TestSchedule_ReplacesExisting(t *testing.T) {
	s := newTest(t)
	var fired int
	s.Start(func(string) { fired++ })
	defer s.Stop()

	if err := s.Schedule("advance-queue", 0); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	// Replace with a far-future deadline before it fires.
	if err := s.Schedule("advance-queue", time.Hour); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	s.FireDue(time.Now().Add(time.Minute))
	if fired != 0 {
		t.Errorf("replaced timer fired %d times", fired)
	}
}

func TestSchedule_IndependentNames(t *testing.T) {
	s := newTest(t)
	var fired []string
	s.Start(func(name string) { fired = append(fired, name) })
	defer s.Stop()

	if err := s.Schedule("advance-queue", 0); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := s.Schedule("release-executor", time.Hour); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	s.FireDue(time.Now().Add(time.Minute))

	if len(fired) != 1 || fired[0] != "advance-queue" {
		t.Errorf("fired = %v, want only advance-queue", fired)
	}
	if ok, _ := s.Get("release-executor"); !ok {
		t.Error("release-executor should still be scheduled")
	}
}

func TestSchedulePeriodic_Reschedules(t *testing.T) {
	s := newTest(t)
	var fired int
	s.Start(func(string) { fired++ })
	defer s.Stop()

	if err := s.SchedulePeriodic("prayer-check", 0, time.Minute); err != nil {
		t.Fatalf("SchedulePeriodic: %v", err)
	}

	now := time.Now().Add(time.Second)
	s.FireDue(now)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}

	// Still scheduled, due one period later.
	s.FireDue(now.Add(30 * time.Second))
	if fired != 1 {
		t.Errorf("fired early, fired = %d", fired)
	}
	s.FireDue(now.Add(2 * time.Minute))
	if fired != 2 {
		t.Errorf("fired = %d, want 2", fired)
	}
}

func TestOverdueTimer_SurvivesRestart(t *testing.T) {
	db := openTestDB(t)
	s1, err := New(db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s1.Schedule("advance-queue", 10*time.Millisecond); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	// No Start, no FireDue: the first process dies here.

	s2, err := New(db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var fired []string
	s2.Start(func(name string) { fired = append(fired, name) })
	defer s2.Stop()

	s2.FireDue(time.Now().Add(time.Second))
	if len(fired) != 1 || fired[0] != "advance-queue" {
		t.Errorf("fired = %v, want the timer from the previous process", fired)
	}
}

func TestClear_RemovesTimer(t *testing.T) {
	s := newTest(t)
	var fired int
	s.Start(func(string) { fired++ })
	defer s.Stop()

	if err := s.Schedule("advance-queue", 0); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := s.Clear("advance-queue"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if ok, _ := s.Get("advance-queue"); ok {
		t.Error("Get after Clear = true")
	}

	s.FireDue(time.Now().Add(time.Minute))
	if fired != 0 {
		t.Errorf("cleared timer fired %d times", fired)
	}

	// Clearing again is a no-op.
	if err := s.Clear("advance-queue"); err != nil {
		t.Errorf("Clear missing: %v", err)
	}
}
