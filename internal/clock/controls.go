package clock

import (
	"time"

	"floatclock/internal/motion"
)

const (
	controlsIdleTimeout = 5 * time.Second
	controlsFadeOut     = 1 * time.Second
	controlsFadeIn      = 300 * time.Millisecond
)

// ControlsState is the visibility of the settings affordance.
type ControlsState int

const (
	ControlsHidden ControlsState = iota
	ControlsVisible
	ControlsMenuOpen
)

func (s ControlsState) String() string {
	switch s {
	case ControlsVisible:
		return "visible"
	case ControlsMenuOpen:
		return "menu_open"
	default:
		return "hidden"
	}
}

// Controls shows the settings button on demand and hides it after a period
// of inactivity. At most one hide continuation is ever pending.
type Controls struct {
	sched   *motion.Scheduler
	timers  *motion.Group
	state   ControlsState
	hide    *motion.Timer
	opacity *motion.Channel
}

// NewControls creates hidden controls.
func NewControls(sched *motion.Scheduler) *Controls {
	return &Controls{
		sched:   sched,
		timers:  motion.NewGroup(sched),
		opacity: motion.NewChannel(0),
	}
}

// Tap wakes the button and restarts the idle timer. Taps while the menu is
// open are ignored.
func (c *Controls) Tap() {
	if c.state == ControlsMenuOpen || c.timers.Closed() {
		return
	}
	c.state = ControlsVisible
	c.opacity.Tween(c.sched.Now(), 1, controlsFadeIn, motion.EaseInOut)
	c.ScheduleHide()
}

// OpenMenu pins the button visible while the settings menu is open.
func (c *Controls) OpenMenu() {
	if c.timers.Closed() {
		return
	}
	c.cancelHide()
	c.state = ControlsMenuOpen
	c.opacity.Tween(c.sched.Now(), 1, controlsFadeIn, motion.EaseInOut)
}

// CloseMenu leaves the menu and starts counting down to hide again.
func (c *Controls) CloseMenu() {
	if c.state != ControlsMenuOpen {
		return
	}
	c.state = ControlsVisible
	c.ScheduleHide()
}

// ScheduleHide (re)starts the idle timer, replacing any pending one.
func (c *Controls) ScheduleHide() {
	c.cancelHide()
	c.hide = c.timers.After(controlsIdleTimeout, func() {
		c.hide = nil
		if c.state != ControlsVisible {
			return
		}
		c.state = ControlsHidden
		c.opacity.Tween(c.sched.Now(), 0, controlsFadeOut, motion.EaseOut)
	})
}

func (c *Controls) cancelHide() {
	c.timers.Stop(c.hide)
	c.hide = nil
}

// HidePending reports whether a hide continuation is outstanding.
func (c *Controls) HidePending() bool {
	return c.hide.Active()
}

// State returns the current state.
func (c *Controls) State() ControlsState {
	return c.state
}

// MenuOpen reports whether the settings menu is open.
func (c *Controls) MenuOpen() bool {
	return c.state == ControlsMenuOpen
}

// Opacity returns the button's opacity at now, including fades.
func (c *Controls) Opacity(now time.Time) float64 {
	return c.opacity.Value(now)
}

// Close cancels the idle timer for good.
func (c *Controls) Close() {
	c.timers.Close()
	c.hide = nil
}
