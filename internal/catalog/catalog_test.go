package catalog

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

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
	`)
	if err != nil {
		t.Fatalf("create tables: %v", err)
	}
	return db
}

func TestBuiltinDataset(t *testing.T) {
	data := Builtin()

	if len(data["morning"]) == 0 {
		t.Fatal("builtin dataset has no morning azkar")
	}
	if len(data["evening"]) == 0 {
		t.Fatal("builtin dataset has no evening azkar")
	}

	for key, items := range data {
		for _, d := range items {
			if d.ID == "" {
				t.Errorf("category %q has entry with empty id", key)
			}
			if d.Arabic == "" {
				t.Errorf("entry %s has empty arabic text", d.ID)
			}
			if d.Times < 1 {
				t.Errorf("entry %s has times=%d, want >= 1", d.ID, d.Times)
			}
		}
	}
}

func TestFallbackAlwaysReturnsEntry(t *testing.T) {
	for range 10 {
		d := Fallback()
		if d.Arabic == "" {
			t.Fatal("Fallback() returned entry with empty arabic text")
		}
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`3`, 3},
		{`"7"`, 7},
		{`"1"`, 1},
		{`0`, 1},
		{`"many"`, 1},
		{``, 1},
	}
	for _, tt := range tests {
		if got := parseCount([]byte(tt.raw)); got != tt.want {
			t.Errorf("parseCount(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestMatchKeyStripsTashkeel(t *testing.T) {
	withMarks := "سُبْحَانَ اللَّهِ وَبِحَمْدِهِ"
	without := "سبحان الله وبحمده"
	if matchKey(withMarks) != matchKey(without) {
		t.Errorf("matchKey(%q) = %q, want %q", withMarks, matchKey(withMarks), matchKey(without))
	}
}

func TestAudioURL(t *testing.T) {
	if got := AudioURL("/audio/75.mp3"); got != audioBaseURL+"/audio/75.mp3" {
		t.Errorf("AudioURL() = %q", got)
	}
	if got := AudioURL("audio/75.mp3"); got != audioBaseURL+"/audio/75.mp3" {
		t.Errorf("AudioURL() without leading slash = %q", got)
	}
	if got := AudioURL(""); got != "" {
		t.Errorf("AudioURL(\"\") = %q, want empty", got)
	}
}

func TestDataFallsBackToBuiltinOnFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := NewManager(newTestDB(t), NewClient(srv.URL))
	data := m.Data(context.Background())
	if len(data["morning"]) == 0 {
		t.Error("expected builtin fallback data")
	}
}

func TestDataFetchesAndCachesRemote(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Write([]byte(`[
			{
				"category": "أذكار النوم",
				"audio": "/audio/sleep.mp3",
				"array": [
					{"text": "((بِاسْمِكَ اللَّهُمَّ أَمُوتُ وَأَحْيَا))", "count": "1", "audio": "/audio/1.mp3"}
				]
			}
		]`))
	}))
	defer srv.Close()

	m := NewManager(newTestDB(t), NewClient(srv.URL))
	ctx := context.Background()

	data := m.Data(ctx)
	sleep := data["sleep"]
	if len(sleep) != 1 {
		t.Fatalf("sleep entries = %d, want 1", len(sleep))
	}
	if sleep[0].Arabic != "بِاسْمِكَ اللَّهُمَّ أَمُوتُ وَأَحْيَا" {
		t.Errorf("arabic = %q, double parens not stripped", sleep[0].Arabic)
	}
	if sleep[0].AudioURL != audioBaseURL+"/audio/1.mp3" {
		t.Errorf("audio url = %q", sleep[0].AudioURL)
	}

	// Second call should come from cache
	m.Data(ctx)
	if calls != 1 {
		t.Errorf("remote calls = %d, want 1 (cache hit expected)", calls)
	}
}

func TestMorningEveningSplit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{
				"category": "أذكار الصباح والمساء",
				"audio": "",
				"array": [{"text": "ذكر مشترك", "count": 3, "audio": ""}]
			}
		]`))
	}))
	defer srv.Close()

	m := NewManager(newTestDB(t), NewClient(srv.URL))
	data := m.Data(context.Background())

	if len(data["morning"]) != 1 || len(data["evening"]) != 1 {
		t.Fatalf("morning=%d evening=%d, want 1 each",
			len(data["morning"]), len(data["evening"]))
	}
	if data["morning"][0].Times != 3 {
		t.Errorf("times = %d, want 3", data["morning"][0].Times)
	}
	if data["morning"][0].ID == data["evening"][0].ID {
		t.Error("split entries should get distinct ids")
	}
}

func TestCustomAzkarCRUD(t *testing.T) {
	m := NewManager(newTestDB(t), NewClient(""))
	ctx := context.Background()

	added, err := m.AddCustom(ctx, Dhikr{
		Arabic:      "  ذكر مخصص  ",
		Translation: "A custom dhikr",
	})
	if err != nil {
		t.Fatalf("AddCustom() error: %v", err)
	}
	if added.ID == "" {
		t.Fatal("AddCustom() did not assign an id")
	}
	if added.Arabic != "ذكر مخصص" {
		t.Errorf("arabic = %q, want trimmed", added.Arabic)
	}
	if added.Times != 1 || added.Category != "custom" {
		t.Errorf("defaults not applied: %+v", added)
	}

	list, err := m.CustomAzkar(ctx)
	if err != nil {
		t.Fatalf("CustomAzkar() error: %v", err)
	}
	if len(list) != 1 || list[0].ID != added.ID {
		t.Fatalf("CustomAzkar() = %+v, want the added entry", list)
	}

	if err := m.DeleteCustom(ctx, added.ID); err != nil {
		t.Fatalf("DeleteCustom() error: %v", err)
	}
	if err := m.DeleteCustom(ctx, added.ID); err != ErrNotFound {
		t.Errorf("second DeleteCustom() = %v, want ErrNotFound", err)
	}
}

func TestAddCustomRequiresArabic(t *testing.T) {
	m := NewManager(newTestDB(t), NewClient(""))
	if _, err := m.AddCustom(context.Background(), Dhikr{Arabic: "   "}); err == nil {
		t.Error("AddCustom() with blank arabic should fail")
	}
}

func TestRandomUsesFallbackWhenEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	m := NewManager(newTestDB(t), NewClient(srv.URL))
	d := m.Random(context.Background(), []string{"nonexistent"})
	if d.Arabic == "" {
		t.Error("Random() with no matches should return a fallback entry")
	}
}

func TestRandomIncludesCustomEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	m := NewManager(newTestDB(t), NewClient(srv.URL))
	ctx := context.Background()

	added, err := m.AddCustom(ctx, Dhikr{Arabic: "ذكر مخصص"})
	if err != nil {
		t.Fatalf("AddCustom() error: %v", err)
	}

	d := m.Random(ctx, nil)
	if d.ID != added.ID {
		t.Errorf("Random() = %s, want the only custom entry %s", d.ID, added.ID)
	}
}
