package motion

import (
	"math"
	"testing"
	"time"
)

func TestChannelTween(t *testing.T) {
	c := NewChannel(0)
	c.Tween(epoch, 10, time.Second, Linear)

	if v := c.Value(epoch.Add(500 * time.Millisecond)); math.Abs(v-5) > 1e-9 {
		t.Errorf("halfway = %v, want 5", v)
	}
	if !c.Animating(epoch.Add(900 * time.Millisecond)) {
		t.Error("should still animate before the end")
	}
	if v := c.Value(epoch.Add(2 * time.Second)); v != 10 {
		t.Errorf("end = %v, want 10", v)
	}
	if c.Animating(epoch.Add(2 * time.Second)) {
		t.Error("should be static after the end")
	}
}

func TestChannelRetargetStartsFromCurrentValue(t *testing.T) {
	c := NewChannel(0)
	c.Tween(epoch, 10, time.Second, Linear)
	mid := epoch.Add(500 * time.Millisecond)
	c.Tween(mid, 0, time.Second, Linear)
	if v := c.Value(mid); math.Abs(v-5) > 1e-9 {
		t.Errorf("retarget jumped to %v", v)
	}
	if v := c.Value(mid.Add(500 * time.Millisecond)); math.Abs(v-2.5) > 1e-9 {
		t.Errorf("retarget halfway = %v, want 2.5", v)
	}
}

func TestChannelSpringSettles(t *testing.T) {
	c := NewChannel(1)
	c.Spring(epoch, 0, 0.7, 0.75)
	early := c.Value(epoch.Add(100 * time.Millisecond))
	if early >= 1 || early <= 0 {
		t.Errorf("spring after 100ms = %v, want in (0,1)", early)
	}
	if v := c.Value(epoch.Add(700 * time.Millisecond)); math.Abs(v) > 0.1 {
		t.Errorf("spring after one response = %v, want near 0", v)
	}
	if v := c.Value(epoch.Add(5 * time.Second)); v != 0 {
		t.Errorf("spring should settle exactly, got %v", v)
	}
	if c.Animating(epoch.Add(5 * time.Second)) {
		t.Error("settled spring still animating")
	}
}

func TestChannelSpringCatchUpIsBounded(t *testing.T) {
	c := NewChannel(0)
	c.Spring(epoch, 1, 0.8, 0.6)
	if v := c.Value(epoch.Add(24 * time.Hour)); v != 1 {
		t.Errorf("long stall should snap to target, got %v", v)
	}
}

func TestChannelSetCancels(t *testing.T) {
	c := NewChannel(0)
	c.Tween(epoch, 10, time.Second, Linear)
	c.Set(3)
	if v := c.Value(epoch.Add(500 * time.Millisecond)); v != 3 {
		t.Errorf("Set did not cancel tween, got %v", v)
	}
	if c.Target() != 3 {
		t.Errorf("target = %v", c.Target())
	}
}
