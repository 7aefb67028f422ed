package clock

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"floatclock/internal/motion"
)

var epoch = time.Date(2025, 12, 5, 14, 7, 0, 0, time.UTC)

func newTestConfig(seed uint64) *AnimationConfig {
	return NewAnimationConfig(DefaultSettings(), rand.New(rand.NewPCG(seed, seed+1)))
}

// mountedSlot returns a slot showing ch that has finished its entry.
func mountedSlot(t *testing.T, index int, ch string, style TransitionStyle) (*Slot, *motion.Scheduler, *AnimationConfig) {
	t.Helper()
	cfg := newTestConfig(7)
	cfg.SetStyle(style)
	sched := motion.NewScheduler(epoch)
	s := NewSlot(index, cfg, sched)
	s.Mount(ch)
	if s.Phase() != PhaseEntering {
		t.Fatalf("mount should start entering, got %v", s.Phase())
	}
	sched.Advance(time.Second)
	if s.Phase() != PhaseSteady {
		t.Fatalf("slot not steady after entry, got %v", s.Phase())
	}
	return s, sched, cfg
}

func TestSlotSameCharacterIsNoop(t *testing.T) {
	s, sched, _ := mountedSlot(t, 1, "4", StyleFly)
	id := s.Identity()

	s.SetTarget("4")
	s.SetTarget("4")
	sched.Advance(2 * time.Second)

	if s.Transitions() != 0 {
		t.Errorf("expected no transitions, got %d", s.Transitions())
	}
	if s.Phase() != PhaseSteady {
		t.Errorf("expected steady, got %v", s.Phase())
	}
	if s.Identity() != id {
		t.Error("identity changed without a digit change")
	}
}

func TestSlotFlyTransition(t *testing.T) {
	s, sched, _ := mountedSlot(t, 4, "7", StyleFly)
	id := s.Identity()

	s.SetTarget("8")
	if s.Phase() != PhaseExiting {
		t.Fatalf("expected exiting, got %v", s.Phase())
	}

	sched.Advance(250 * time.Millisecond)
	st := s.Snapshot(sched.Now())
	if st.Character != "7" {
		t.Errorf("character swapped too early: %q", st.Character)
	}
	if st.OffsetY >= 0 {
		t.Errorf("fly exit should move up, offsetY=%v", st.OffsetY)
	}
	if st.Opacity != 1 {
		t.Errorf("fly keeps opacity, got %v", st.Opacity)
	}

	sched.Advance(260 * time.Millisecond)
	st = s.Snapshot(sched.Now())
	if st.Character != "8" || st.Phase != PhaseEntering {
		t.Fatalf("after exit: char=%q phase=%v", st.Character, st.Phase)
	}
	if st.Identity == id {
		t.Error("identity not regenerated on swap")
	}
	if st.OffsetY <= 0.5 {
		t.Errorf("fly entry should start from below, offsetY=%v", st.OffsetY)
	}
	if st.OffsetX != 0 {
		t.Errorf("swap should reset offsetX, got %v", st.OffsetX)
	}

	sched.Advance(time.Second)
	if s.Phase() != PhaseSteady {
		t.Errorf("expected steady after entry, got %v", s.Phase())
	}
	if s.Transitions() != 1 {
		t.Errorf("expected one transition, got %d", s.Transitions())
	}
}

func TestSlotCrossfadeTransition(t *testing.T) {
	s, sched, _ := mountedSlot(t, 3, "0", StyleCrossfade)

	s.SetTarget("1")
	sched.Advance(200 * time.Millisecond)
	st := s.Snapshot(sched.Now())
	if st.Opacity >= 1 || st.Opacity <= 0 {
		t.Errorf("crossfade exit should be mid-fade, opacity=%v", st.Opacity)
	}

	sched.Advance(210 * time.Millisecond)
	st = s.Snapshot(sched.Now())
	if st.Character != "1" {
		t.Fatalf("expected swap after 400ms, got %q", st.Character)
	}
	if st.Opacity > 0.2 {
		t.Errorf("crossfade entry should start faded, opacity=%v", st.Opacity)
	}
	if math.Abs(st.OffsetY-entryDrop) > 0.05 {
		t.Errorf("crossfade entry should start slightly below, offsetY=%v", st.OffsetY)
	}

	sched.Advance(2 * time.Second)
	st = s.Snapshot(sched.Now())
	if st.Phase != PhaseSteady {
		t.Errorf("expected steady, got %v", st.Phase)
	}
	if st.Opacity < 0.99 {
		t.Errorf("crossfade entry should end opaque, opacity=%v", st.Opacity)
	}
}

func TestSlotCoalescesDuringExit(t *testing.T) {
	s, sched, _ := mountedSlot(t, 4, "A", StyleFly)

	s.SetTarget("B")
	sched.Advance(100 * time.Millisecond)
	s.SetTarget("C")
	sched.Advance(3 * time.Second)

	if s.Displayed() != "C" {
		t.Errorf("expected C, got %q", s.Displayed())
	}
	if s.Transitions() != 1 {
		t.Errorf("expected one transition, got %d", s.Transitions())
	}
}

func TestSlotCoalescesDuringEntry(t *testing.T) {
	s, sched, _ := mountedSlot(t, 0, "A", StyleCrossfade)

	s.SetTarget("B")
	sched.Advance(500 * time.Millisecond) // swapped to B, entering
	if s.Displayed() != "B" || s.Phase() != PhaseEntering {
		t.Fatalf("expected entering B, got %q %v", s.Displayed(), s.Phase())
	}
	s.SetTarget("C")
	if s.Phase() != PhaseEntering {
		t.Fatal("entry must not be aborted")
	}
	sched.Advance(5 * time.Second)

	if s.Displayed() != "C" {
		t.Errorf("expected C, got %q", s.Displayed())
	}
	if s.Phase() != PhaseSteady {
		t.Errorf("expected steady, got %v", s.Phase())
	}
	if s.Transitions() != 2 {
		t.Errorf("expected two transitions, got %d", s.Transitions())
	}
}

func TestSlotStyleCapturedAtTransitionStart(t *testing.T) {
	s, sched, cfg := mountedSlot(t, 1, "2", StyleFly)

	s.SetTarget("3")
	cfg.SetStyle(StyleCrossfade)
	sched.Advance(510 * time.Millisecond)

	st := s.Snapshot(sched.Now())
	if st.Opacity != 1 {
		t.Errorf("fly entry should stay opaque, got %v", st.Opacity)
	}
	if st.OffsetY < 0.5 {
		t.Errorf("fly entry should come from the bottom edge, offsetY=%v", st.OffsetY)
	}

	sched.Advance(2 * time.Second)
	s.SetTarget("4")
	if s.Style() != StyleCrossfade {
		t.Errorf("next transition should use the new style, got %v", s.Style())
	}
}

func TestSlotFloatCycleNeverAccumulates(t *testing.T) {
	cfg := newTestConfig(11)
	sched := motion.NewScheduler(epoch)
	s := NewSlot(2, cfg, sched)
	s.Mount(":")

	for i := 0; i < 600; i++ {
		sched.Advance(time.Second)
		if n := s.PendingTimers(); n != 1 {
			t.Fatalf("at %ds: %d pending continuations, want 1", i+1, n)
		}
	}
	// ten minutes at 15-25s per cycle after a ~20s first cycle
	if c := s.Cycles(); c < 20 || c > 45 {
		t.Errorf("unexpected cycle count %d", c)
	}
}

func TestSlotFloatStaysInRange(t *testing.T) {
	cfg := newTestConfig(3)
	cfg.SetFloatRangeX(0.05)
	cfg.SetFloatRangeY(0.03)
	cfg.SetRotationJitter(5)
	sched := motion.NewScheduler(epoch)
	s := NewSlot(1, cfg, sched)
	s.Mount("9")
	// past the entry spring and the first drift cycle
	sched.Advance(30 * time.Second)

	base := cfg.BaseRotation(1)
	for i := 0; i < 300; i++ {
		sched.Advance(time.Second)
		st := s.Snapshot(sched.Now())
		if math.Abs(st.OffsetX) > 0.05+1e-9 || math.Abs(st.OffsetY) > 0.03+1e-9 {
			t.Fatalf("drift out of range: %+v", st)
		}
		if math.Abs(st.Rotation-base) > 5+1e-9 {
			t.Fatalf("rotation %v outside base %v ± 5", st.Rotation, base)
		}
	}
}

func TestSlotFollowsConfigMidCycle(t *testing.T) {
	s, sched, cfg := mountedSlot(t, 0, "1", StyleFly)
	sched.Advance(10 * time.Second) // first drift cycle under way
	if s.Cycles() == 0 || !s.floatTimer.Active() {
		t.Fatal("float cycle never started")
	}
	end := s.floatTimer.Deadline()
	if floor := sched.Now().Add(retargetMin); end.Before(floor) {
		end = floor
	}

	cfg.SetRotationPolicy(RotationFixed)
	cfg.SetRotationJitter(0)
	cfg.SetFloatRangeX(0)
	if got := s.rot.Target(); got != -5 {
		t.Errorf("rotation target = %v, want the fixed tilt -5", got)
	}
	if got := s.x.Target(); got != 0 {
		t.Errorf("x target = %v, want 0", got)
	}

	// arrives on the cycle's own schedule, not the next one
	sched.AdvanceTo(end)
	st := s.Snapshot(sched.Now())
	if math.Abs(st.Rotation+5) > 1e-3 || math.Abs(st.OffsetX) > 1e-3 {
		t.Errorf("at cycle end: rotation %v offsetX %v", st.Rotation, st.OffsetX)
	}
	if n := s.PendingTimers(); n != 1 {
		t.Errorf("retargeting added continuations: %d pending", n)
	}
}

func TestSlotIgnoresConfigWhileTransitioning(t *testing.T) {
	s, sched, cfg := mountedSlot(t, 1, "3", StyleFly)
	s.SetTarget("4")
	sched.Advance(100 * time.Millisecond)
	y := s.y.Target()

	cfg.SetFloatRangeY(0.05)
	cfg.RegenerateRotations()
	if s.y.Target() != y {
		t.Error("exit motion was retargeted")
	}
}

func TestSlotUnmountCancelsSubscription(t *testing.T) {
	s, _, cfg := mountedSlot(t, 2, ":", StyleFly)
	if len(cfg.subs) != 1 {
		t.Fatalf("mounted slot holds %d subscriptions", len(cfg.subs))
	}
	s.Unmount()
	if len(cfg.subs) != 0 {
		t.Errorf("%d subscriptions left after unmount", len(cfg.subs))
	}
}

func TestSlotFlyExitKeepsOpacity(t *testing.T) {
	s, sched, cfg := mountedSlot(t, 4, "7", StyleCrossfade)
	s.SetTarget("8")
	sched.Advance(1200 * time.Millisecond) // crossfade entry spring still ringing

	cfg.SetStyle(StyleFly)
	s.SetTarget("9")
	for i := 0; s.Phase() != PhaseExiting; i++ {
		if i == 100 {
			t.Fatal("second transition never started")
		}
		sched.Advance(10 * time.Millisecond)
	}
	if s.Style() != StyleFly {
		t.Fatalf("exit style = %v", s.Style())
	}
	for i := 0; i < 5; i++ {
		if op := s.Snapshot(sched.Now()).Opacity; op != 1 {
			t.Fatalf("fly exit opacity %v at step %d", op, i)
		}
		sched.Advance(100 * time.Millisecond)
	}
}

func TestSlotTransitionPreemptsFloat(t *testing.T) {
	s, sched, _ := mountedSlot(t, 3, "1", StyleFly)
	sched.Advance(30 * time.Second) // float cycle running
	if s.Cycles() == 0 {
		t.Fatal("float cycle never started")
	}

	s.SetTarget("2")
	if n := s.PendingTimers(); n != 1 {
		t.Fatalf("expected only the transition continuation, got %d", n)
	}
	cycles := s.Cycles()
	sched.Advance(1200 * time.Millisecond)
	if s.Phase() != PhaseSteady {
		t.Fatalf("expected steady, got %v", s.Phase())
	}
	if s.Cycles() != cycles+1 {
		t.Errorf("float cycle should resume once on settle: %d -> %d", cycles, s.Cycles())
	}
}

func TestSlotEntryBounce(t *testing.T) {
	cfg := newTestConfig(5)
	cfg.SetEntryBounce(true)
	sched := motion.NewScheduler(epoch)
	s := NewSlot(0, cfg, sched)
	s.Mount("1")

	sched.Advance(900 * time.Millisecond)
	if s.Phase() != PhaseEntering {
		t.Fatalf("bounce should extend the entry, got %v", s.Phase())
	}
	sched.Advance(time.Second)
	if s.Phase() != PhaseSteady {
		t.Fatalf("expected steady after bounce, got %v", s.Phase())
	}
}

func TestSlotUnmountIsInert(t *testing.T) {
	s, sched, _ := mountedSlot(t, 4, "7", StyleFly)
	s.SetTarget("8")
	sched.Advance(100 * time.Millisecond)

	s.Unmount()
	if sched.Pending() != 0 {
		t.Fatalf("unmount left %d continuations", sched.Pending())
	}
	before := s.Snapshot(sched.Now())
	sched.Advance(time.Hour)
	after := s.Snapshot(sched.Now())

	if before.Character != after.Character || before.Phase != after.Phase || before.Identity != after.Identity {
		t.Errorf("state mutated after unmount: %+v -> %+v", before, after)
	}
	s.SetTarget("9")
	s.Mount("9")
	if s.Pending() != "8" || s.Mounted() {
		t.Error("unmounted slot accepted input")
	}
}

func TestNewSlotRejectsBadIndex(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for slot index 5")
		}
	}()
	NewSlot(5, newTestConfig(1), motion.NewScheduler(epoch))
}
