package clock

import "time"

// Palette supplies a theme's colours as hex strings.
type Palette interface {
	// DigitColor returns one of the four gradient colours, i in [0,4).
	DigitColor(i int) string
	SeparatorColor() string
	OverlapColor() string
}

// Characters formats t as 24-hour HH:MM and splits it into the five slot
// characters.
func Characters(t time.Time) [SlotCount]string {
	var out [SlotCount]string
	for i, r := range t.Format("15:04") {
		out[i] = string(r)
	}
	return out
}

// Orchestrator feeds the time source into the slots, one character each.
type Orchestrator struct {
	slots []*Slot
	last  [SlotCount]string
	ticks int
}

// NewOrchestrator binds the orchestrator to exactly SlotCount slots ordered by
// index.
func NewOrchestrator(slots []*Slot) *Orchestrator {
	if len(slots) != SlotCount {
		panic("clock: orchestrator needs exactly five slots")
	}
	return &Orchestrator{slots: slots}
}

// Deliver hands every slot its character for t. Slots whose character did not
// change treat the delivery as a no-op.
func (o *Orchestrator) Deliver(t time.Time) [SlotCount]string {
	chars := Characters(t)
	for i, s := range o.slots {
		s.SetTarget(chars[i])
	}
	o.last = chars
	o.ticks++
	return chars
}

// Last returns the characters of the most recent delivery.
func (o *Orchestrator) Last() [SlotCount]string {
	return o.last
}

// Ticks counts deliveries.
func (o *Orchestrator) Ticks() int {
	return o.ticks
}

// ColorIndex maps a slot to its gradient colour. The separator has its own
// colour and reports ok=false.
func ColorIndex(slot int) (index int, ok bool) {
	mustSlot(slot)
	switch {
	case slot < SeparatorSlot:
		return slot, true
	case slot == SeparatorSlot:
		return -1, false
	default:
		return slot - 1, true
	}
}

// Color resolves a slot's display colour from p.
func Color(slot int, p Palette) string {
	if i, ok := ColorIndex(slot); ok {
		return p.DigitColor(i)
	}
	return p.SeparatorColor()
}

// ZOrder returns the slot's stacking order; higher draws on top. The
// separator is always on top, then earlier slots over later ones.
func ZOrder(slot int) int {
	mustSlot(slot)
	if slot == SeparatorSlot {
		return 999
	}
	return SlotCount - slot
}
