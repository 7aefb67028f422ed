package clock

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"
)

func TestHorizontalPositionLayout(t *testing.T) {
	cfg := newTestConfig(1)
	for spread := 0.5; spread <= 1.5+1e-9; spread += 0.05 {
		cfg.SetSpreadFactor(spread)
		prev := 0.0
		for i := 0; i < SlotCount; i++ {
			x := cfg.HorizontalPosition(i)
			if x <= 0 || x >= 1 {
				t.Fatalf("spread %.2f slot %d: position %v outside (0,1)", spread, i, x)
			}
			if i > 0 && x <= prev {
				t.Fatalf("spread %.2f: slot %d at %v not right of slot %d at %v", spread, i, x, i-1, prev)
			}
			prev = x
		}
	}
}

func TestHorizontalPositionDefaults(t *testing.T) {
	cfg := newTestConfig(1)
	want := []float64{0.15, 0.37, 0.5, 0.63, 0.85}
	for i, w := range want {
		if got := cfg.HorizontalPosition(i); math.Abs(got-w) > 1e-9 {
			t.Errorf("slot %d: got %v, want %v", i, got, w)
		}
	}
}

func TestGenerateBalancedRotations(t *testing.T) {
	for seed := uint64(0); seed < 200; seed++ {
		r := GenerateBalancedRotations(rand.New(rand.NewPCG(seed, 99)))
		sum := 0.0
		pos, neg := 0, 0
		for i, v := range r {
			sum += v
			if a := math.Abs(v); a < 1 || a > 4 {
				t.Fatalf("seed %d slot %d: |%v| outside [1,4]", seed, i, v)
			}
			if i == SeparatorSlot {
				continue
			}
			if v > 0 {
				pos++
			} else {
				neg++
			}
		}
		if math.Abs(sum) > 1e-9 {
			t.Fatalf("seed %d: rotations sum to %v", seed, sum)
		}
		if pos != 2 || neg != 2 {
			t.Fatalf("seed %d: want two positive and two negative digit tilts, got %v", seed, r)
		}
	}
}

func TestBaseRotationPolicy(t *testing.T) {
	cfg := newTestConfig(4)
	balanced := cfg.Settings().BaseRotations
	for i := 0; i < SlotCount; i++ {
		if cfg.BaseRotation(i) != balanced[i] {
			t.Errorf("balanced slot %d: got %v want %v", i, cfg.BaseRotation(i), balanced[i])
		}
	}

	cfg.SetRotationPolicy(RotationFixed)
	want := []float64{-5, -3, 0, 3, 5}
	for i, w := range want {
		if got := cfg.BaseRotation(i); got != w {
			t.Errorf("fixed slot %d: got %v want %v", i, got, w)
		}
	}
}

func TestConfigPublishesChanges(t *testing.T) {
	cfg := newTestConfig(2)
	var got []Field
	cancel := cfg.Subscribe(func(c Change) { got = append(got, c.Field) })

	cfg.SetFontScale(1.2)
	cfg.SetFontScale(1.2) // unchanged
	cfg.SetStyle(StyleCrossfade)
	cfg.RegenerateRotations()

	want := []Field{FieldFontScale, FieldStyle, FieldBaseRotations}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("change %d: got %s want %s", i, got[i], want[i])
		}
	}

	cancel()
	cfg.SetFontScale(0.8)
	if len(got) != len(want) {
		t.Error("cancelled subscriber still notified")
	}
}

func TestConfigApply(t *testing.T) {
	cfg := newTestConfig(2)
	rot := cfg.Settings().BaseRotations

	s := DefaultSettings()
	s.SpreadFactor = 1.3
	s.EntryBounce = true
	count := 0
	cfg.Subscribe(func(Change) { count++ })
	cfg.Apply(s)

	if count != 2 {
		t.Errorf("expected 2 changes, got %d", count)
	}
	if cfg.Settings().BaseRotations != rot {
		t.Error("zero rotations in Apply should keep the current tilts")
	}
	if cfg.SpreadFactor() != 1.3 || !cfg.EntryBounce() {
		t.Errorf("apply not reflected: %+v", cfg.Settings())
	}
}

func TestSettingsJSON(t *testing.T) {
	s := DefaultSettings()
	s.Style = StyleCrossfade
	s.RotationPolicy = RotationFixed
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if m["style"] != "crossfade" || m["rotation_policy"] != "fixed" {
		t.Errorf("enums should encode by name: %s", b)
	}

	var back Settings
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back != s {
		t.Errorf("got %+v, want %+v", back, s)
	}
}

func TestParseNames(t *testing.T) {
	tests := []struct {
		in    string
		style TransitionStyle
		pol   RotationPolicy
	}{
		{"fly", StyleFly, RotationBalanced},
		{"crossfade", StyleCrossfade, RotationBalanced},
		{"fixed", StyleFly, RotationFixed},
		{"", StyleFly, RotationBalanced},
	}
	for _, tt := range tests {
		if got := ParseStyle(tt.in); got != tt.style {
			t.Errorf("ParseStyle(%q) = %v", tt.in, got)
		}
		if got := ParseRotationPolicy(tt.in); got != tt.pol {
			t.Errorf("ParseRotationPolicy(%q) = %v", tt.in, got)
		}
	}
}
