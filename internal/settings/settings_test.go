package settings

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Manager {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE settings (id INTEGER PRIMARY KEY CHECK (id = 1), value TEXT NOT NULL)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return NewManager(db)
}

func TestLoadReturnsDefaultsWhenEmpty(t *testing.T) {
	m := newTestStore(t)

	got := m.Load(context.Background())
	want := Default()
	if got.Interval != want.Interval || got.Language != want.Language {
		t.Errorf("Load() = %+v, want defaults %+v", got, want)
	}
	if got.Location.Latitude != 21.4225 {
		t.Errorf("default latitude = %v, want 21.4225", got.Location.Latitude)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()

	s := Default()
	s.Interval = 15
	s.Enabled = false
	s.EnabledCategories = []string{"morning"}
	s.Location = Location{Latitude: 30.0444, Longitude: 31.2357, Method: 5}

	if err := m.Save(ctx, s); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got := m.Load(ctx)
	if got.Interval != 15 || got.Enabled {
		t.Errorf("Load() = %+v, want interval=15 enabled=false", got)
	}
	if len(got.EnabledCategories) != 1 || got.EnabledCategories[0] != "morning" {
		t.Errorf("categories = %v, want [morning]", got.EnabledCategories)
	}
	if got.Location.Method != 5 {
		t.Errorf("method = %d, want 5", got.Location.Method)
	}
}

func TestSaveOverwritesPrevious(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()

	first := Default()
	first.Interval = 10
	if err := m.Save(ctx, first); err != nil {
		t.Fatalf("first Save() error: %v", err)
	}

	second := Default()
	second.Interval = 60
	if err := m.Save(ctx, second); err != nil {
		t.Fatalf("second Save() error: %v", err)
	}

	if got := m.Load(ctx).Interval; got != 60 {
		t.Errorf("Interval = %d, want 60", got)
	}
}

func TestCategoryEnabled(t *testing.T) {
	s := Default()
	if !s.CategoryEnabled("morning") {
		t.Error("morning should be enabled by default")
	}
	if s.CategoryEnabled("travel") {
		t.Error("unknown category should not be enabled")
	}
}

func TestPrayerEnabled(t *testing.T) {
	s := Default()
	if !s.PrayerEnabled("fajr") {
		t.Error("fajr should be enabled by default")
	}

	s.PrayerReminders.Maghrib = false
	if s.PrayerEnabled("maghrib") {
		t.Error("maghrib should be disabled")
	}

	s.PrayerReminders.Enabled = false
	if s.PrayerEnabled("fajr") {
		t.Error("master toggle off should disable all prayers")
	}
}
