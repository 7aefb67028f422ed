package storage

import (
	"path/filepath"
	"testing"
	"time"

	"floatclock/internal/clock"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPresetRoundTrip(t *testing.T) {
	db := openTestDB(t)

	s := clock.DefaultSettings()
	s.Style = clock.StyleCrossfade
	s.BaseRotations = [clock.SlotCount]float64{2, -3, 1.5, 1, -1.5}
	if err := db.SavePreset(&Preset{Name: "calm", Theme: "Grass", Settings: s}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := db.GetPreset("calm")
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Theme != "Grass" || got.Settings != s {
		t.Errorf("got %+v", got)
	}
	if got.UpdatedAt == 0 {
		t.Error("updated_at not stamped")
	}
}

func TestGetPresetMissing(t *testing.T) {
	db := openTestDB(t)
	p, err := db.GetPreset("nope")
	if err != nil || p != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", p, err)
	}
}

func TestSavePresetReplaces(t *testing.T) {
	db := openTestDB(t)
	s := clock.DefaultSettings()

	for _, theme := range []string{"Ocean", "Sunset"} {
		if err := db.SavePreset(&Preset{Name: LastPreset, Theme: theme, Settings: s}); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.SavePreset(&Preset{Name: "a", Theme: "Fantasy", Settings: s}); err != nil {
		t.Fatal(err)
	}

	list, err := db.ListPresets()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "a" || list[1].Name != LastPreset {
		t.Fatalf("list = %+v", list)
	}
	if list[1].Theme != "Sunset" {
		t.Errorf("replace kept old theme %q", list[1].Theme)
	}

	if err := db.DeletePreset("a"); err != nil {
		t.Fatal(err)
	}
	list, _ = db.ListPresets()
	if len(list) != 1 {
		t.Errorf("delete left %d presets", len(list))
	}
}

func TestSavePresetRejectsEmptyName(t *testing.T) {
	db := openTestDB(t)
	if err := db.SavePreset(&Preset{Settings: clock.DefaultSettings()}); err == nil {
		t.Error("expected an error for an unnamed preset")
	}
}

func TestSessions(t *testing.T) {
	db := openTestDB(t)
	start := time.Date(2025, 12, 5, 14, 0, 0, 0, time.UTC).Unix()

	runs := []*Session{
		{Mode: "tui", StartedAt: start, EndedAt: start + 600, Transitions: 10, Cycles: 40, Frames: 18000},
		{Mode: "headless", StartedAt: start + 1000, EndedAt: start + 1060, Transitions: 1, Cycles: 5, Frames: 1800},
	}
	for _, s := range runs {
		if err := db.InsertSession(s); err != nil {
			t.Fatal(err)
		}
		if s.ID == 0 {
			t.Error("id not assigned")
		}
	}

	recent, err := db.GetRecentSessions(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].Mode != "headless" {
		t.Errorf("recent = %+v", recent)
	}

	n, total, transitions, err := db.GetUptimeStats()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || total != 660*time.Second || transitions != 11 {
		t.Errorf("stats = %d %v %d", n, total, transitions)
	}
}
