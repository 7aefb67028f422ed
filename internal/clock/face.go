package clock

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"floatclock/internal/motion"
)

// SlotView is a slot's state with everything a renderer needs to place it.
type SlotView struct {
	SlotState
	Color   string  `json:"color"`
	Overlap string  `json:"overlap"`
	Z       int     `json:"z"`
	CenterX float64 `json:"center_x"`
}

// Face is one mounted clock: the shared config, the scheduler, five slots,
// the orchestrator and the controls affordance.
type Face struct {
	cfg      *AnimationConfig
	sched    *motion.Scheduler
	slots    []*Slot
	orch     *Orchestrator
	controls *Controls
	mounted  bool
}

// NewFace builds an unmounted face on sched.
func NewFace(cfg *AnimationConfig, sched *motion.Scheduler) *Face {
	slots := make([]*Slot, SlotCount)
	for i := range slots {
		slots[i] = NewSlot(i, cfg, sched)
	}
	return &Face{
		cfg:      cfg,
		sched:    sched,
		slots:    slots,
		orch:     NewOrchestrator(slots),
		controls: NewControls(sched),
	}
}

// Mount advances to t and mounts every slot with the characters for t.
func (f *Face) Mount(t time.Time) {
	if f.mounted {
		return
	}
	f.sched.AdvanceTo(t)
	chars := Characters(t)
	for i, s := range f.slots {
		s.Mount(chars[i])
	}
	f.mounted = true
	log.Info().Str("time", t.Format("15:04")).Str("style", f.cfg.Style().String()).Msg("clock face mounted")
}

// Tick is the time-source entry point: it brings the scheduler up to t and
// delivers the characters for t.
func (f *Face) Tick(t time.Time) {
	if !f.mounted {
		return
	}
	f.sched.AdvanceTo(t)
	f.orch.Deliver(t)
}

// Frame runs every continuation due by now.
func (f *Face) Frame(now time.Time) {
	f.sched.AdvanceTo(now)
}

// Views returns the slots in drawing order (lowest Z first) with colours
// resolved from p.
func (f *Face) Views(now time.Time, p Palette) []SlotView {
	views := make([]SlotView, 0, SlotCount)
	for i, s := range f.slots {
		v := SlotView{
			SlotState: s.Snapshot(now),
			Z:         ZOrder(i),
			CenterX:   f.cfg.HorizontalPosition(i),
		}
		if p != nil {
			v.Color = Color(i, p)
			v.Overlap = p.OverlapColor()
		}
		views = append(views, v)
	}
	sort.SliceStable(views, func(a, b int) bool { return views[a].Z < views[b].Z })
	return views
}

// Unmount tears down every slot and the controls; no continuation runs
// afterwards.
func (f *Face) Unmount() {
	for _, s := range f.slots {
		s.Unmount()
	}
	f.controls.Close()
	f.mounted = false
}

func (f *Face) Config() *AnimationConfig     { return f.cfg }
func (f *Face) Scheduler() *motion.Scheduler { return f.sched }
func (f *Face) Orchestrator() *Orchestrator  { return f.orch }
func (f *Face) Controls() *Controls          { return f.controls }
func (f *Face) Mounted() bool                { return f.mounted }

// Slot returns the slot at index i.
func (f *Face) Slot(i int) *Slot {
	mustSlot(i)
	return f.slots[i]
}

// Transitions sums transitions started across all slots.
func (f *Face) Transitions() int {
	n := 0
	for _, s := range f.slots {
		n += s.Transitions()
	}
	return n
}

// Cycles sums float steps across all slots.
func (f *Face) Cycles() int {
	n := 0
	for _, s := range f.slots {
		n += s.Cycles()
	}
	return n
}
