package clock

import (
	"testing"
	"time"

	"floatclock/internal/motion"
)

type testPalette struct{}

func (testPalette) DigitColor(i int) string { return []string{"#c0", "#c1", "#c2", "#c3"}[i] }
func (testPalette) SeparatorColor() string  { return "#sep" }
func (testPalette) OverlapColor() string    { return "#ovl" }

func newTestFace(seed uint64, start time.Time) *Face {
	return NewFace(newTestConfig(seed), motion.NewScheduler(start))
}

func TestCharacters(t *testing.T) {
	tests := []struct {
		at   time.Time
		want [SlotCount]string
	}{
		{time.Date(2025, 1, 1, 9, 5, 0, 0, time.UTC), [SlotCount]string{"0", "9", ":", "0", "5"}},
		{time.Date(2025, 1, 1, 23, 59, 59, 0, time.UTC), [SlotCount]string{"2", "3", ":", "5", "9"}},
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), [SlotCount]string{"0", "0", ":", "0", "0"}},
	}
	for _, tt := range tests {
		if got := Characters(tt.at); got != tt.want {
			t.Errorf("Characters(%s) = %v, want %v", tt.at.Format("15:04"), got, tt.want)
		}
	}
}

func TestColorMapping(t *testing.T) {
	p := testPalette{}
	want := []string{"#c0", "#c1", "#sep", "#c2", "#c3"}
	for i, w := range want {
		if got := Color(i, p); got != w {
			t.Errorf("slot %d: got %s want %s", i, got, w)
		}
	}
	if _, ok := ColorIndex(SeparatorSlot); ok {
		t.Error("separator should not map to a gradient colour")
	}
}

func TestZOrder(t *testing.T) {
	want := []int{5, 4, 999, 2, 1}
	for i, w := range want {
		if got := ZOrder(i); got != w {
			t.Errorf("slot %d: got %d want %d", i, got, w)
		}
	}
}

func TestNewOrchestratorNeedsFiveSlots(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewOrchestrator(make([]*Slot, 4))
}

func TestFaceMinuteRollover(t *testing.T) {
	start := time.Date(2025, 12, 5, 14, 7, 58, 0, time.UTC)
	f := newTestFace(9, start)
	f.Mount(start)

	views := f.Views(start, testPalette{})
	chars := ""
	for _, v := range views {
		if v.Index == SeparatorSlot && v.Color != "#sep" {
			t.Errorf("separator colour %s", v.Color)
		}
		if v.Index == 3 && v.Color != "#c2" {
			t.Errorf("slot 3 colour %s", v.Color)
		}
		chars += v.Character
	}
	// drawing order: 4, 3, 1, 0, separator
	if chars != "7041:" {
		t.Errorf("views out of z order: %q", chars)
	}

	// one-second ticks across the minute boundary
	for i := 1; i <= 5; i++ {
		f.Tick(start.Add(time.Duration(i) * time.Second))
	}
	end := start.Add(5 * time.Second)
	f.Frame(end.Add(2 * time.Second))

	for i, w := range []string{"1", "4", ":", "0", "8"} {
		s := f.Slot(i)
		if s.Displayed() != w {
			t.Errorf("slot %d shows %q want %q", i, s.Displayed(), w)
		}
		wantTransitions := 0
		if i == 4 {
			wantTransitions = 1
		}
		if s.Transitions() != wantTransitions {
			t.Errorf("slot %d: %d transitions, want %d", i, s.Transitions(), wantTransitions)
		}
	}
	if f.Orchestrator().Ticks() != 5 {
		t.Errorf("ticks = %d", f.Orchestrator().Ticks())
	}
	if f.Orchestrator().Last() != [SlotCount]string{"1", "4", ":", "0", "8"} {
		t.Errorf("last = %v", f.Orchestrator().Last())
	}
}

func TestFaceUnmountStopsEverything(t *testing.T) {
	f := newTestFace(3, epoch)
	f.Mount(epoch)
	f.Controls().Tap()
	f.Tick(epoch.Add(60 * time.Second)) // 14:08, slot 4 starts exiting
	if f.Scheduler().Pending() == 0 {
		t.Fatal("expected pending continuations before unmount")
	}

	f.Unmount()
	if n := f.Scheduler().Pending(); n != 0 {
		t.Fatalf("%d continuations survived unmount", n)
	}
	transitions, cycles := f.Transitions(), f.Cycles()
	f.Tick(epoch.Add(10 * time.Minute))
	f.Frame(epoch.Add(time.Hour))
	if f.Transitions() != transitions || f.Cycles() != cycles {
		t.Error("face changed after unmount")
	}
	if f.Slot(4).Displayed() != "7" {
		t.Errorf("slot 4 swapped after unmount: %q", f.Slot(4).Displayed())
	}
}

func TestFaceMountIsIdempotent(t *testing.T) {
	f := newTestFace(3, epoch)
	f.Mount(epoch)
	id := f.Slot(0).Identity()
	f.Mount(epoch.Add(time.Minute))
	if f.Slot(0).Identity() != id || f.Slot(4).Displayed() != "7" {
		t.Error("second mount re-entered the slots")
	}
}

func TestFaceViewsWithoutPalette(t *testing.T) {
	f := newTestFace(3, epoch)
	f.Mount(epoch)
	views := f.Views(epoch, nil)
	if len(views) != SlotCount {
		t.Fatalf("got %d views", len(views))
	}
	for _, v := range views {
		if v.Color != "" {
			t.Errorf("unexpected colour %q without a palette", v.Color)
		}
		if v.CenterX != f.Config().HorizontalPosition(v.Index) {
			t.Errorf("slot %d centre %v", v.Index, v.CenterX)
		}
	}
}
