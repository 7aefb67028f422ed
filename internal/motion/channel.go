package motion

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"
)

// SpringFPS is the rate at which spring animations are integrated.
const SpringFPS = 60

// maxSpringSteps bounds catch-up work after a long stall; past it the spring
// is snapped to its target.
const maxSpringSteps = 10 * SpringFPS

const springEpsilon = 1e-4

type channelMode int

const (
	modeStatic channelMode = iota
	modeTween
	modeSpring
)

// Channel is one animated float value. It holds at most one animation at a
// time; starting a new one retargets from the current value.
type Channel struct {
	mode   channelMode
	value  float64
	target float64

	// tween
	from  float64
	start time.Time
	dur   time.Duration
	curve Curve

	// spring
	spring  harmonica.Spring
	vel     float64
	stepped time.Time
}

// NewChannel creates a channel resting at v.
func NewChannel(v float64) *Channel {
	return &Channel{value: v, target: v}
}

// Set jumps to v and cancels any running animation.
func (c *Channel) Set(v float64) {
	c.mode = modeStatic
	c.value = v
	c.target = v
	c.vel = 0
}

// Tween animates from the current value to `to` over d.
func (c *Channel) Tween(now time.Time, to float64, d time.Duration, curve Curve) {
	from := c.Value(now)
	if d <= 0 {
		c.Set(to)
		return
	}
	if curve == nil {
		curve = Linear
	}
	c.mode = modeTween
	c.from = from
	c.value = from
	c.target = to
	c.start = now
	c.dur = d
	c.curve = curve
	c.vel = 0
}

// Spring animates towards `to` with a damped spring. response is the
// undamped period in seconds and damping the damping ratio.
func (c *Channel) Spring(now time.Time, to float64, response, damping float64) {
	pos := c.Value(now)
	vel := 0.0
	if c.mode == modeSpring {
		vel = c.vel
	}
	if response <= 0 {
		c.Set(to)
		return
	}
	c.mode = modeSpring
	c.spring = harmonica.NewSpring(harmonica.FPS(SpringFPS), 2*math.Pi/response, damping)
	c.value = pos
	c.vel = vel
	c.target = to
	c.stepped = now
}

// Value evaluates the channel at now.
func (c *Channel) Value(now time.Time) float64 {
	switch c.mode {
	case modeTween:
		p := float64(now.Sub(c.start)) / float64(c.dur)
		if p >= 1 {
			c.Set(c.target)
			return c.value
		}
		if p < 0 {
			p = 0
		}
		c.value = c.from + (c.target-c.from)*c.curve(p)
	case modeSpring:
		step := time.Second / SpringFPS
		steps := 0
		for !c.stepped.Add(step).After(now) {
			c.value, c.vel = c.spring.Update(c.value, c.vel, c.target)
			c.stepped = c.stepped.Add(step)
			steps++
			if steps >= maxSpringSteps {
				c.Set(c.target)
				return c.value
			}
		}
		if math.Abs(c.value-c.target) < springEpsilon && math.Abs(c.vel) < springEpsilon {
			c.Set(c.target)
		}
	}
	return c.value
}

// Target returns the value the channel is heading to.
func (c *Channel) Target() float64 {
	return c.target
}

// Animating reports whether an animation is still running at now.
func (c *Channel) Animating(now time.Time) bool {
	c.Value(now)
	return c.mode != modeStatic
}
