package clock

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"floatclock/internal/motion"
)

// Transition timing. Offsets are fractions of the viewport (X of width, Y of
// height); a Y offset of 1.0 puts the glyph a full screen away.
const (
	flyExitDuration  = 500 * time.Millisecond
	flyEnterResponse = 0.7
	flyEnterDamping  = 0.75

	crossfadeExitDuration  = flyExitDuration * 4 / 5
	crossfadeExitLift      = 0.4
	crossfadeEnterResponse = 0.8
	crossfadeEnterDamping  = 0.6

	// entryDrop is where a crossfading glyph starts below its resting place.
	entryDrop = 0.25

	bounceLift      = 0.04
	bounceRiseDelay = 300 * time.Millisecond
	bounceSettle    = 500 * time.Millisecond

	floatDelayMax   = 5 * time.Second
	firstCycleStep  = 1500 * time.Millisecond
	cycleMinSeconds = 15.0
	cycleMaxSeconds = 25.0

	separatorOpacity = 0.98

	// retargetMin is the shortest glide to a changed drift target.
	retargetMin = 300 * time.Millisecond
)

// Phase is where a slot is in its transition protocol.
type Phase int

const (
	PhaseEntering Phase = iota
	PhaseSteady
	PhaseExiting
)

func (p Phase) String() string {
	switch p {
	case PhaseEntering:
		return "entering"
	case PhaseExiting:
		return "exiting"
	default:
		return "steady"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "entering":
		*p = PhaseEntering
	case "exiting":
		*p = PhaseExiting
	default:
		*p = PhaseSteady
	}
	return nil
}

// SlotState is the render-ready state of one slot at an instant.
type SlotState struct {
	Index     int       `json:"index"`
	Character string    `json:"character"`
	Pending   string    `json:"pending"`
	Identity  uuid.UUID `json:"identity"`
	Phase     Phase     `json:"phase"`
	OffsetX   float64   `json:"offset_x"`
	OffsetY   float64   `json:"offset_y"`
	Rotation  float64   `json:"rotation"`
	Opacity   float64   `json:"opacity"`
}

// Slot animates one character position. It runs a never-ending float cycle
// and a transition protocol for digit changes. All of its continuations live
// in one timer group, so Unmount makes every pending step inert.
type Slot struct {
	index  int
	cfg    *AnimationConfig
	sched  *motion.Scheduler
	timers *motion.Group
	rng    *rand.Rand

	displayed string
	pending   string
	identity  uuid.UUID
	phase     Phase
	mounted   bool

	// captured when a transition starts
	style  TransitionStyle
	bounce bool

	x, y, rot, vis *motion.Channel

	floatTimer   *motion.Timer
	phaseTimer   *motion.Timer
	unsubscribe  func()
	floatReadyAt time.Time
	firstCycle   bool

	transitions int
	cycles      int
}

// NewSlot creates an unmounted slot. index must be in [0, SlotCount).
func NewSlot(index int, cfg *AnimationConfig, sched *motion.Scheduler) *Slot {
	mustSlot(index)
	return &Slot{
		index:      index,
		cfg:        cfg,
		sched:      sched,
		timers:     motion.NewGroup(sched),
		rng:        cfg.Rand(),
		phase:      PhaseSteady,
		x:          motion.NewChannel(0),
		y:          motion.NewChannel(0),
		rot:        motion.NewChannel(cfg.BaseRotation(index)),
		vis:        motion.NewChannel(1),
		firstCycle: true,
	}
}

// Mount shows ch with the entry half of the configured transition and arms
// the float cycle after a random delay of up to five seconds.
func (s *Slot) Mount(ch string) {
	if s.mounted || s.timers.Closed() {
		return
	}
	now := s.sched.Now()
	s.mounted = true
	s.displayed = ch
	s.pending = ch
	s.identity = uuid.New()
	s.style = s.cfg.Style()
	s.bounce = s.cfg.EntryBounce()
	s.floatReadyAt = now.Add(time.Duration(s.rng.Int64N(int64(floatDelayMax) + 1)))
	s.unsubscribe = s.cfg.Subscribe(s.configChanged)
	s.enter(now)
}

// Unmount cancels every pending continuation. The slot ignores all calls
// afterwards.
func (s *Slot) Unmount() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.timers.Close()
	s.mounted = false
	s.floatTimer = nil
	s.phaseTimer = nil
}

// SetTarget delivers the character the slot should show. A different
// character starts a transition when the slot is steady; during a transition
// it is held and the latest value wins when the transition resolves.
func (s *Slot) SetTarget(ch string) {
	if !s.mounted {
		return
	}
	s.pending = ch
	if s.phase == PhaseSteady && s.pending != s.displayed {
		s.beginTransition()
	}
}

func (s *Slot) beginTransition() {
	now := s.sched.Now()
	s.phase = PhaseExiting
	s.style = s.cfg.Style()
	s.bounce = s.cfg.EntryBounce()
	s.transitions++
	s.timers.Stop(s.floatTimer)
	s.floatTimer = nil

	log.Debug().
		Int("slot", s.index).
		Str("from", s.displayed).
		Str("to", s.pending).
		Str("style", s.style.String()).
		Msg("digit transition")

	// Freeze drift where it is; only the exit motion runs from here.
	s.x.Set(s.x.Value(now))
	s.rot.Set(s.rot.Value(now))

	var exit time.Duration
	switch s.style {
	case StyleCrossfade:
		exit = crossfadeExitDuration
		s.vis.Tween(now, 0, exit, motion.EaseOut)
		s.y.Tween(now, s.y.Value(now)-crossfadeExitLift, exit, motion.EaseOut)
	default:
		exit = flyExitDuration
		s.vis.Set(1)
		s.y.Tween(now, -1, exit, motion.EaseIn)
	}
	s.phaseTimer = s.timers.After(exit, s.swap)
}

func (s *Slot) swap() {
	now := s.sched.Now()
	s.displayed = s.pending
	s.identity = uuid.New()
	s.enter(now)
}

// enter resets the transform to the entry pose of the captured style and
// springs it into place.
func (s *Slot) enter(now time.Time) {
	s.phase = PhaseEntering
	s.x.Set(0)
	s.rot.Set(s.cfg.BaseRotation(s.index))

	var settle time.Duration
	switch s.style {
	case StyleCrossfade:
		s.y.Set(entryDrop)
		s.vis.Set(0)
		s.y.Spring(now, 0, crossfadeEnterResponse, crossfadeEnterDamping)
		s.vis.Spring(now, 1, crossfadeEnterResponse, crossfadeEnterDamping)
		settle = seconds(crossfadeEnterResponse)
	default:
		s.y.Set(1)
		s.vis.Set(1)
		s.y.Spring(now, 0, flyEnterResponse, flyEnterDamping)
		settle = seconds(flyEnterResponse)
	}
	s.phaseTimer = s.timers.After(settle, s.settle)
}

func (s *Slot) settle() {
	if !s.bounce {
		s.steady()
		return
	}
	now := s.sched.Now()
	s.y.Spring(now, -bounceLift, 0.4, 0.7)
	s.phaseTimer = s.timers.After(bounceRiseDelay, func() {
		s.y.Spring(s.sched.Now(), 0, 0.5, 0.8)
		s.phaseTimer = s.timers.After(bounceSettle, s.steady)
	})
}

func (s *Slot) steady() {
	s.phase = PhaseSteady
	s.phaseTimer = nil
	if s.pending != s.displayed {
		s.beginTransition()
		return
	}
	now := s.sched.Now()
	if wait := s.floatReadyAt.Sub(now); wait > 0 {
		s.floatTimer = s.timers.After(wait, s.cycle)
		return
	}
	s.cycle()
}

// cycle runs one drift step and schedules exactly one successor.
func (s *Slot) cycle() {
	if s.phase != PhaseSteady {
		return
	}
	now := s.sched.Now()

	var d time.Duration
	if s.firstCycle {
		s.firstCycle = false
		d = s.cfg.BaseSpeed() + time.Duration(s.index)*firstCycleStep
	} else {
		d = seconds(uniform(s.rng, cycleMinSeconds, cycleMaxSeconds))
	}

	tx := symmetric(s.rng, s.cfg.FloatRangeX())
	ty := symmetric(s.rng, s.cfg.FloatRangeY())
	tr := s.cfg.BaseRotation(s.index) + symmetric(s.rng, s.cfg.RotationJitter())

	s.x.Tween(now, tx, d, motion.EaseInOut)
	s.y.Tween(now, ty, d, motion.EaseInOut)
	s.rot.Tween(now, tr, d, motion.EaseInOut)
	s.cycles++

	s.floatTimer = s.timers.After(d, s.cycle)
}

// configChanged retargets a steady slot's drift when a parameter it is
// heading for changes, finishing on the current cycle's schedule. Transitions
// read the config afresh when they enter, so only steady slots need this.
func (s *Slot) configChanged(ch Change) {
	if !s.mounted || s.phase != PhaseSteady {
		return
	}
	now := s.sched.Now()
	d := retargetMin
	if s.floatTimer.Active() {
		d = max(d, s.floatTimer.Deadline().Sub(now))
	}

	switch ch.Field {
	case FieldRotationPolicy, FieldBaseRotations, FieldRotationJitter:
		tr := s.cfg.BaseRotation(s.index)
		if !s.firstCycle {
			tr += symmetric(s.rng, s.cfg.RotationJitter())
		}
		s.rot.Tween(now, tr, d, motion.EaseInOut)
	case FieldFloatRangeX:
		if !s.firstCycle {
			s.x.Tween(now, symmetric(s.rng, s.cfg.FloatRangeX()), d, motion.EaseInOut)
		}
	case FieldFloatRangeY:
		if !s.firstCycle {
			s.y.Tween(now, symmetric(s.rng, s.cfg.FloatRangeY()), d, motion.EaseInOut)
		}
	}
}

// Snapshot evaluates the slot's transform at now.
func (s *Slot) Snapshot(now time.Time) SlotState {
	// the crossfade spring overshoots; opacity does not
	vis := min(max(s.vis.Value(now), 0), 1)
	return SlotState{
		Index:     s.index,
		Character: s.displayed,
		Pending:   s.pending,
		Identity:  s.identity,
		Phase:     s.phase,
		OffsetX:   s.x.Value(now),
		OffsetY:   s.y.Value(now),
		Rotation:  s.rot.Value(now),
		Opacity:   s.RestingOpacity() * vis,
	}
}

// RestingOpacity is the slot's opacity when fully visible.
func (s *Slot) RestingOpacity() float64 {
	if s.index == SeparatorSlot {
		return separatorOpacity
	}
	return 1.0
}

func (s *Slot) Index() int             { return s.index }
func (s *Slot) Displayed() string      { return s.displayed }
func (s *Slot) Pending() string        { return s.pending }
func (s *Slot) Phase() Phase           { return s.phase }
func (s *Slot) Identity() uuid.UUID    { return s.identity }
func (s *Slot) Mounted() bool          { return s.mounted }
func (s *Slot) InFlight() bool         { return s.phase != PhaseSteady }
func (s *Slot) Transitions() int       { return s.transitions }
func (s *Slot) Cycles() int            { return s.cycles }
func (s *Slot) PendingTimers() int     { return s.timers.Pending() }
func (s *Slot) Style() TransitionStyle { return s.style }
