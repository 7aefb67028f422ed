package config

import (
	"fmt"

	"floatclock/internal/clock"
)

// RangeError reports a config value outside its accepted range
type RangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s = %g outside [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

// Bounds is an inclusive range for a numeric setting.
type Bounds struct {
	Min, Max float64
}

// Clamp pins v into b, reporting whether it had to move.
func (b Bounds) Clamp(v float64) (float64, bool) {
	switch {
	case v < b.Min:
		return b.Min, true
	case v > b.Max:
		return b.Max, true
	}
	return v, false
}

// Accepted ranges for the animation section. The settings panel uses the
// same bounds for its sliders.
var (
	FontScaleBounds      = Bounds{0.5, 1.2}
	SpreadFactorBounds   = Bounds{0.5, 1.5}
	FloatRangeXBounds    = Bounds{0, 0.1}
	FloatRangeYBounds    = Bounds{0, 0.1}
	RotationJitterBounds = Bounds{0, 15}
	BaseSpeedBounds      = Bounds{5, 60}
	FPSBounds            = Bounds{1, 120}
	MirrorRateBounds     = Bounds{1, 60}
)

// Clamp pins every ranged value into bounds and returns one RangeError per
// value it changed.
func (c *Config) Clamp() []error {
	var errs []error
	clampf := func(field string, v *float64, b Bounds) {
		if nv, moved := b.Clamp(*v); moved {
			errs = append(errs, &RangeError{Field: field, Value: *v, Min: b.Min, Max: b.Max})
			*v = nv
		}
	}
	clampi := func(field string, v *int, b Bounds) {
		f := float64(*v)
		clampf(field, &f, b)
		*v = int(f)
	}

	a := &c.Animation
	clampf("animation.font_scale", &a.FontScale, FontScaleBounds)
	clampf("animation.spread_factor", &a.SpreadFactor, SpreadFactorBounds)
	clampf("animation.float_range_x", &a.FloatRangeX, FloatRangeXBounds)
	clampf("animation.float_range_y", &a.FloatRangeY, FloatRangeYBounds)
	clampf("animation.rotation_jitter", &a.RotationJitter, RotationJitterBounds)
	clampf("animation.base_speed_seconds", &a.BaseSpeedSeconds, BaseSpeedBounds)
	clampi("tui.fps", &c.TUI.FPS, FPSBounds)
	clampi("mirror.rate_hz", &c.Mirror.RateHz, MirrorRateBounds)

	// Unknown names fall back to the defaults rather than failing.
	a.Style = clock.ParseStyle(a.Style).String()
	a.RotationPolicy = clock.ParseRotationPolicy(a.RotationPolicy).String()
	return errs
}

// ClampSettings applies the animation bounds to s.
func ClampSettings(s clock.Settings) (clock.Settings, []error) {
	c := Config{Animation: FromSettings(s), TUI: TUIConfig{FPS: 30}, Mirror: MirrorConfig{RateHz: 10}}
	errs := c.Clamp()
	out := c.Animation.Settings()
	out.BaseRotations = s.BaseRotations
	return out, errs
}
