package clock

import (
	"math/rand/v2"
	"time"
)

// SlotCount is the number of character positions in an HH:MM face.
const SlotCount = 5

// SeparatorSlot is the index of the ':' position.
const SeparatorSlot = 2

// baseOffsets are the slot centres relative to the middle of the viewport,
// before spreading.
var baseOffsets = [SlotCount]float64{-0.35, -0.13, 0.0, 0.13, 0.35}

// edgeMargin keeps slot centres strictly inside the viewport.
const edgeMargin = 0.01

// fixedRotations is the hand-tuned resting tilt table.
var fixedRotations = [SlotCount]float64{-5, -3, 0, 3, 5}

// TransitionStyle selects how a slot changes its digit.
type TransitionStyle int

const (
	StyleFly TransitionStyle = iota
	StyleCrossfade
)

func (s TransitionStyle) String() string {
	switch s {
	case StyleCrossfade:
		return "crossfade"
	default:
		return "fly"
	}
}

func (s TransitionStyle) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TransitionStyle) UnmarshalText(b []byte) error {
	*s = ParseStyle(string(b))
	return nil
}

// ParseStyle maps a name to a style, defaulting to fly.
func ParseStyle(name string) TransitionStyle {
	if name == "crossfade" {
		return StyleCrossfade
	}
	return StyleFly
}

// RotationPolicy selects where resting tilts come from.
type RotationPolicy int

const (
	// RotationBalanced uses randomly generated tilts summing to zero. The
	// separator carries the balancing value.
	RotationBalanced RotationPolicy = iota
	// RotationFixed uses the fixed table; the separator is never tilted.
	RotationFixed
)

func (p RotationPolicy) String() string {
	if p == RotationFixed {
		return "fixed"
	}
	return "balanced"
}

func (p RotationPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *RotationPolicy) UnmarshalText(b []byte) error {
	*p = ParseRotationPolicy(string(b))
	return nil
}

// ParseRotationPolicy maps a name to a policy, defaulting to balanced.
func ParseRotationPolicy(name string) RotationPolicy {
	if name == "fixed" {
		return RotationFixed
	}
	return RotationBalanced
}

// Settings is a plain copy of every tunable parameter.
type Settings struct {
	FontScale      float64            `json:"font_scale"`
	SpreadFactor   float64            `json:"spread_factor"`
	FloatRangeX    float64            `json:"float_range_x"`
	FloatRangeY    float64            `json:"float_range_y"`
	RotationJitter float64            `json:"rotation_jitter"`
	BaseSpeed      float64            `json:"base_speed_seconds"`
	Style          TransitionStyle    `json:"style"`
	RotationPolicy RotationPolicy     `json:"rotation_policy"`
	EntryBounce    bool               `json:"entry_bounce"`
	BaseRotations  [SlotCount]float64 `json:"base_rotations"`
}

// DefaultSettings returns the stock look. BaseRotations is left zero; the
// config generates it on construction.
func DefaultSettings() Settings {
	return Settings{
		FontScale:      0.95,
		SpreadFactor:   1.0,
		FloatRangeX:    0.02,
		FloatRangeY:    0.0,
		RotationJitter: 5.0,
		BaseSpeed:      20.0,
		Style:          StyleFly,
		RotationPolicy: RotationBalanced,
	}
}

// Field names a tunable parameter in change notifications.
type Field string

const (
	FieldFontScale      Field = "font_scale"
	FieldSpreadFactor   Field = "spread_factor"
	FieldFloatRangeX    Field = "float_range_x"
	FieldFloatRangeY    Field = "float_range_y"
	FieldRotationJitter Field = "rotation_jitter"
	FieldBaseSpeed      Field = "base_speed"
	FieldStyle          Field = "style"
	FieldRotationPolicy Field = "rotation_policy"
	FieldEntryBounce    Field = "entry_bounce"
	FieldBaseRotations  Field = "base_rotations"
)

// Change is published after a parameter changes.
type Change struct {
	Field    Field
	Settings Settings
}

// AnimationConfig is the shared, observable parameter set read by every slot
// on each frame. It is confined to the UI goroutine and takes no locks.
type AnimationConfig struct {
	s    Settings
	rng  *rand.Rand
	subs []*subscription
}

type subscription struct {
	fn func(Change)
}

// NewAnimationConfig creates a config from s. If s carries no resting tilts a
// balanced set is generated from rng.
func NewAnimationConfig(s Settings, rng *rand.Rand) *AnimationConfig {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed))
	}
	c := &AnimationConfig{s: s, rng: rng}
	if c.s.BaseRotations == ([SlotCount]float64{}) {
		c.s.BaseRotations = GenerateBalancedRotations(rng)
	}
	return c
}

// Subscribe registers fn for change notifications. The returned func removes it.
func (c *AnimationConfig) Subscribe(fn func(Change)) (cancel func()) {
	sub := &subscription{fn: fn}
	c.subs = append(c.subs, sub)
	return func() {
		for i, s := range c.subs {
			if s == sub {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

func (c *AnimationConfig) publish(f Field) {
	ch := Change{Field: f, Settings: c.s}
	subs := append([]*subscription(nil), c.subs...)
	for _, s := range subs {
		s.fn(ch)
	}
}

// Settings returns a copy of all parameters.
func (c *AnimationConfig) Settings() Settings {
	return c.s
}

// Apply replaces all parameters, publishing one change per differing field.
func (c *AnimationConfig) Apply(s Settings) {
	c.SetFontScale(s.FontScale)
	c.SetSpreadFactor(s.SpreadFactor)
	c.SetFloatRangeX(s.FloatRangeX)
	c.SetFloatRangeY(s.FloatRangeY)
	c.SetRotationJitter(s.RotationJitter)
	c.SetBaseSpeed(s.BaseSpeed)
	c.SetStyle(s.Style)
	c.SetRotationPolicy(s.RotationPolicy)
	c.SetEntryBounce(s.EntryBounce)
	if s.BaseRotations != ([SlotCount]float64{}) && s.BaseRotations != c.s.BaseRotations {
		c.s.BaseRotations = s.BaseRotations
		c.publish(FieldBaseRotations)
	}
}

func (c *AnimationConfig) FontScale() float64      { return c.s.FontScale }
func (c *AnimationConfig) SpreadFactor() float64   { return c.s.SpreadFactor }
func (c *AnimationConfig) FloatRangeX() float64    { return c.s.FloatRangeX }
func (c *AnimationConfig) FloatRangeY() float64    { return c.s.FloatRangeY }
func (c *AnimationConfig) RotationJitter() float64 { return c.s.RotationJitter }
func (c *AnimationConfig) Style() TransitionStyle  { return c.s.Style }
func (c *AnimationConfig) EntryBounce() bool       { return c.s.EntryBounce }

func (c *AnimationConfig) RotationPolicy() RotationPolicy { return c.s.RotationPolicy }

// BaseSpeed returns the nominal duration of one drift cycle.
func (c *AnimationConfig) BaseSpeed() time.Duration {
	return seconds(c.s.BaseSpeed)
}

func (c *AnimationConfig) SetFontScale(v float64) {
	if c.s.FontScale != v {
		c.s.FontScale = v
		c.publish(FieldFontScale)
	}
}

func (c *AnimationConfig) SetSpreadFactor(v float64) {
	if c.s.SpreadFactor != v {
		c.s.SpreadFactor = v
		c.publish(FieldSpreadFactor)
	}
}

func (c *AnimationConfig) SetFloatRangeX(v float64) {
	if c.s.FloatRangeX != v {
		c.s.FloatRangeX = v
		c.publish(FieldFloatRangeX)
	}
}

func (c *AnimationConfig) SetFloatRangeY(v float64) {
	if c.s.FloatRangeY != v {
		c.s.FloatRangeY = v
		c.publish(FieldFloatRangeY)
	}
}

func (c *AnimationConfig) SetRotationJitter(v float64) {
	if c.s.RotationJitter != v {
		c.s.RotationJitter = v
		c.publish(FieldRotationJitter)
	}
}

func (c *AnimationConfig) SetBaseSpeed(v float64) {
	if c.s.BaseSpeed != v {
		c.s.BaseSpeed = v
		c.publish(FieldBaseSpeed)
	}
}

func (c *AnimationConfig) SetStyle(v TransitionStyle) {
	if c.s.Style != v {
		c.s.Style = v
		c.publish(FieldStyle)
	}
}

func (c *AnimationConfig) SetRotationPolicy(v RotationPolicy) {
	if c.s.RotationPolicy != v {
		c.s.RotationPolicy = v
		c.publish(FieldRotationPolicy)
	}
}

func (c *AnimationConfig) SetEntryBounce(v bool) {
	if c.s.EntryBounce != v {
		c.s.EntryBounce = v
		c.publish(FieldEntryBounce)
	}
}

// RegenerateRotations draws a fresh balanced tilt set.
func (c *AnimationConfig) RegenerateRotations() {
	c.s.BaseRotations = GenerateBalancedRotations(c.rng)
	c.publish(FieldBaseRotations)
}

// HorizontalPosition returns the slot's centre as a fraction of the viewport
// width. Wide spreads pin the outer slots just inside the edges.
func (c *AnimationConfig) HorizontalPosition(slot int) float64 {
	mustSlot(slot)
	x := 0.5 + baseOffsets[slot]*c.s.SpreadFactor
	return min(max(x, edgeMargin), 1-edgeMargin)
}

// BaseRotation returns the slot's resting tilt in degrees under the active
// policy.
func (c *AnimationConfig) BaseRotation(slot int) float64 {
	mustSlot(slot)
	if c.s.RotationPolicy == RotationFixed {
		return fixedRotations[slot]
	}
	return c.s.BaseRotations[slot]
}

// Rand exposes the config's random source to slots sharing it.
func (c *AnimationConfig) Rand() *rand.Rand {
	return c.rng
}

func mustSlot(slot int) {
	if slot < 0 || slot >= SlotCount {
		panic("clock: slot index out of range")
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
