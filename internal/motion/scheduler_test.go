package motion

import (
	"math"
	"testing"
	"time"
)

var epoch = time.Date(2025, 12, 5, 14, 7, 0, 0, time.UTC)

func TestSchedulerRunsInDeadlineOrder(t *testing.T) {
	s := NewScheduler(epoch)
	var got []int
	s.After(3*time.Second, func() { got = append(got, 3) })
	s.After(1*time.Second, func() { got = append(got, 1) })
	s.After(2*time.Second, func() { got = append(got, 2) })
	s.After(1*time.Second, func() { got = append(got, 10) })

	if n := s.Advance(2 * time.Second); n != 3 {
		t.Fatalf("expected 3 continuations, ran %d", n)
	}
	want := []int{1, 10, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want prefix %v", got, want)
		}
	}
	if s.Pending() != 1 {
		t.Errorf("expected 1 pending, got %d", s.Pending())
	}
}

func TestSchedulerChainedContinuations(t *testing.T) {
	s := NewScheduler(epoch)
	var fired []time.Duration
	var step func()
	step = func() {
		fired = append(fired, s.Now().Sub(epoch))
		if len(fired) < 5 {
			s.After(time.Second, step)
		}
	}
	s.After(time.Second, step)

	s.Advance(10 * time.Second)
	if len(fired) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(fired))
	}
	for i, d := range fired {
		if d != time.Duration(i+1)*time.Second {
			t.Errorf("step %d observed now=%v", i, d)
		}
	}
	if s.Pending() != 0 {
		t.Errorf("expected no pending work, got %d", s.Pending())
	}
}

func TestSchedulerIgnoresBackwardsTime(t *testing.T) {
	s := NewScheduler(epoch)
	ran := false
	s.After(0, func() { ran = true })
	if n := s.AdvanceTo(epoch.Add(-time.Second)); n != 0 {
		t.Fatalf("ran %d continuations going backwards", n)
	}
	if ran {
		t.Fatal("continuation ran going backwards")
	}
	s.AdvanceTo(epoch)
	if !ran {
		t.Fatal("zero-delay continuation did not run")
	}
}

func TestTimerStop(t *testing.T) {
	s := NewScheduler(epoch)
	ran := false
	tm := s.After(time.Second, func() { ran = true })
	if !tm.Stop() {
		t.Fatal("first Stop should report true")
	}
	if tm.Stop() {
		t.Fatal("second Stop should report false")
	}
	s.Advance(2 * time.Second)
	if ran {
		t.Fatal("stopped timer fired")
	}
}

func TestGroupCloseDropsContinuations(t *testing.T) {
	s := NewScheduler(epoch)
	g := NewGroup(s)
	count := 0
	g.After(time.Second, func() { count++ })
	g.After(2*time.Second, func() {
		count++
		g.After(time.Second, func() { count++ })
	})
	s.Advance(time.Second)
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	g.Close()
	if s.Pending() != 0 {
		t.Fatalf("close left %d timers pending", s.Pending())
	}
	s.Advance(time.Minute)
	if count != 1 {
		t.Fatalf("continuation ran after close, count = %d", count)
	}
	if tm := g.After(0, func() { count++ }); tm.Active() {
		t.Fatal("closed group returned an active timer")
	}
	s.Advance(time.Second)
	if count != 1 {
		t.Fatal("closed group scheduled work")
	}
}

func TestCurvesEndpointsAndMonotonic(t *testing.T) {
	curves := map[string]Curve{
		"linear":    Linear,
		"easeIn":    EaseIn,
		"easeOut":   EaseOut,
		"easeInOut": EaseInOut,
	}
	for name, c := range curves {
		if c(0) != 0 || c(1) != 1 {
			t.Errorf("%s: endpoints %v %v", name, c(0), c(1))
		}
		prev := 0.0
		for i := 1; i <= 100; i++ {
			v := c(float64(i) / 100)
			if v+1e-9 < prev {
				t.Errorf("%s not monotonic at %d: %v < %v", name, i, v, prev)
				break
			}
			prev = v
		}
	}
	if mid := EaseInOut(0.5); math.Abs(mid-0.5) > 1e-3 {
		t.Errorf("easeInOut(0.5) = %v", mid)
	}
	if EaseIn(0.25) >= 0.25 {
		t.Error("easeIn should lag linear early on")
	}
}
