package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MahMoudMostaAfa/azkar/internal/bus"
	"github.com/MahMoudMostaAfa/azkar/internal/catalog"
	"github.com/MahMoudMostaAfa/azkar/internal/coordinator"
	"github.com/MahMoudMostaAfa/azkar/internal/executor"
	"github.com/MahMoudMostaAfa/azkar/internal/notify"
	"github.com/MahMoudMostaAfa/azkar/internal/prayer"
	"github.com/MahMoudMostaAfa/azkar/internal/progress"
	"github.com/MahMoudMostaAfa/azkar/internal/reminder"
	"github.com/MahMoudMostaAfa/azkar/internal/router"
	"github.com/MahMoudMostaAfa/azkar/internal/session"
	"github.com/MahMoudMostaAfa/azkar/internal/settings"
)

type nopScheduler struct{}

func (nopScheduler) Schedule(string, time.Duration) error { return nil }

type nopNotifier struct{}

func (nopNotifier) Notify(notify.Notification) (uint32, error) { return 0, nil }
func (nopNotifier) Close(uint32) error                         { return nil }

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE catalog_cache (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			day TEXT NOT NULL,
			payload TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		);
		CREATE TABLE custom_azkar (
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
		CREATE TABLE prayer_cache (
			day TEXT PRIMARY KEY,
			timings TEXT NOT NULL,
			hijri TEXT,
			fetched_at INTEGER NOT NULL
		);
		CREATE TABLE notified_prayers (
			day TEXT NOT NULL,
			prayer TEXT NOT NULL,
			UNIQUE(day, prayer)
		);
		CREATE TABLE progress (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			total_completed INTEGER NOT NULL DEFAULT 0,
			streak INTEGER NOT NULL DEFAULT 0,
			last_active_date TEXT
		);
		CREATE TABLE progress_counts (
			period TEXT NOT NULL,
			bucket TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			UNIQUE(period, bucket)
		);
		CREATE TABLE completed_azkar (
			day TEXT NOT NULL,
			dhikr_id TEXT NOT NULL,
			UNIQUE(day, dhikr_id)
		);
	`)
	if err != nil {
		t.Fatalf("create tables: %v", err)
	}
	return db
}

func newFixture(t *testing.T) (*httptest.Server, *session.Mock, *executor.Mock) {
	t.Helper()

	db := newTestDB(t)

	store := session.NewMock()
	exec := executor.NewMock()
	exec.SetReady(true)
	b := bus.New()
	t.Cleanup(b.Close)

	coord := coordinator.New(store, exec, nopScheduler{}, b, coordinator.DefaultPacing())
	rt := router.New(coord)

	st := settings.NewMock()
	cat := catalog.NewManager(db, catalog.NewClient("http://127.0.0.1:1/unreachable"))
	pr := prayer.NewManager(db, prayer.NewClient("http://127.0.0.1:1/unreachable"))
	prog := progress.NewManager(db)
	rem := reminder.New(cat, st, nopNotifier{}, b)

	server := New("127.0.0.1:0", Deps{
		Router:   rt,
		Bus:      b,
		Settings: st,
		Progress: prog,
		Catalog:  cat,
		Prayer:   pr,
		Reminder: rem,
	})

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, store, exec
}

func getJSON(t *testing.T, url string, dst any) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestIsAlive(t *testing.T) {
	ts, _, _ := newFixture(t)
	resp := getJSON(t, ts.URL+"/api/is_alive", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCommandStartQueueAndState(t *testing.T) {
	ts, _, exec := newFixture(t)

	resp := postJSON(t, ts.URL+"/api/command", `{
		"cmd": "startQueue",
		"items": [
			{"locator": "https://example.com/a.mp3", "label": "a", "originalIndex": 0},
			{"locator": "https://example.com/b.mp3", "label": "b", "originalIndex": 1}
		],
		"categoryKey": "morning"
	}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("command status = %d, want 200", resp.StatusCode)
	}

	var state struct {
		Playing     bool `json:"playing"`
		QueueActive bool `json:"queueActive"`
		QueueTotal  int  `json:"queueTotal"`
	}
	getJSON(t, ts.URL+"/api/state", &state)
	if !state.QueueActive || !state.Playing || state.QueueTotal != 2 {
		t.Errorf("state = %+v, want active queue of 2", state)
	}
	if len(exec.PlayCalls()) != 1 {
		t.Errorf("play calls = %d, want 1", len(exec.PlayCalls()))
	}
}

func TestCommandUnknownIsSilentNoOp(t *testing.T) {
	ts, _, _ := newFixture(t)

	resp := postJSON(t, ts.URL+"/api/command", `{"cmd": "rewind"}`)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204 for unknown command", resp.StatusCode)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ts, _, _ := newFixture(t)

	var got settings.Settings
	getJSON(t, ts.URL+"/api/settings", &got)
	if got.Interval != 30 {
		t.Errorf("default interval = %d, want 30", got.Interval)
	}

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/settings",
		strings.NewReader(`{"interval": 15, "enabled": false}`))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d, want 200", resp.StatusCode)
	}

	getJSON(t, ts.URL+"/api/settings", &got)
	if got.Interval != 15 || got.Enabled {
		t.Errorf("settings after save = %+v", got)
	}
}

func TestProgressRecordAndSummary(t *testing.T) {
	ts, _, _ := newFixture(t)

	resp := postJSON(t, ts.URL+"/api/progress", `{"dhikrId": "m1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("record status = %d, want 200", resp.StatusCode)
	}

	var summary progress.Summary
	getJSON(t, ts.URL+"/api/progress", &summary)
	if summary.TotalCompleted != 1 || summary.TodayCount != 1 {
		t.Errorf("summary = %+v, want one completion", summary)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	ts, _, _ := newFixture(t)

	var cats []catalog.Category
	getJSON(t, ts.URL+"/api/categories", &cats)
	if len(cats) != len(catalog.Categories) {
		t.Errorf("categories = %d, want %d", len(cats), len(catalog.Categories))
	}
}

func TestAzkarCategoryFallsBackToBuiltin(t *testing.T) {
	ts, _, _ := newFixture(t)

	var items []catalog.Dhikr
	getJSON(t, ts.URL+"/api/azkar/morning", &items)
	if len(items) == 0 {
		t.Error("morning azkar should come from the builtin dataset")
	}
}

func TestCustomAzkarEndpoints(t *testing.T) {
	ts, _, _ := newFixture(t)

	resp := postJSON(t, ts.URL+"/api/custom", `{"arabic": "ذكر مخصص"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add status = %d, want 201", resp.StatusCode)
	}
	var added catalog.Dhikr
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		t.Fatal(err)
	}

	var list []catalog.Dhikr
	getJSON(t, ts.URL+"/api/custom", &list)
	if len(list) != 1 {
		t.Fatalf("custom list = %+v, want one entry", list)
	}

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/custom/"+added.ID, http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Errorf("delete status = %d, want 200", delResp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/custom/"+added.ID, http.NoBody)
	delResp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", delResp.StatusCode)
	}
}

func TestAddCustomRejectsBlankArabic(t *testing.T) {
	ts, _, _ := newFixture(t)

	resp := postJSON(t, ts.URL+"/api/custom", `{"arabic": "  "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPrayerTimingsUnreachableUpstream(t *testing.T) {
	ts, _, _ := newFixture(t)

	resp := getJSON(t, ts.URL+"/api/prayer/timings", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502 when upstream is down", resp.StatusCode)
	}
}

func TestEventsStreamDeliversStateUpdates(t *testing.T) {
	ts, _, _ := newFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	// Trigger a state change while the stream is open
	go func() {
		time.Sleep(100 * time.Millisecond)
		r, err := http.Post(ts.URL+"/api/command", "application/json",
			strings.NewReader(`{"cmd": "play", "locator": "https://example.com/a.mp3", "itemIndex": 3}`))
		if err == nil {
			r.Body.Close()
		}
	}()

	buf := make([]byte, 4096)
	deadline := time.Now().Add(2 * time.Second)
	var received string
	for time.Now().Before(deadline) {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			received += string(buf[:n])
			if strings.Contains(received, "event: stateUpdate") &&
				strings.Contains(received, `"singleItemIndex":3`) {
				return
			}
		}
		if err != nil {
			break
		}
	}
	t.Fatalf("stream did not deliver state update, got: %q", received)
}
