// Package motion provides the timing substrate for the clock face: a
// single-threaded scheduler of delayed continuations, lifetime-bound timer
// groups, easing curves and animated float channels.
//
// Nothing in this package is safe for concurrent use. All calls must come from
// the goroutine that owns the scheduler (the UI loop).
package motion

import (
	"container/heap"
	"time"
)

// Timer is a handle to one scheduled continuation.
type Timer struct {
	deadline time.Time
	seq      uint64
	fn       func()
	index    int // position in the queue, -1 once fired or stopped
	sched    *Scheduler
}

// Stop cancels the continuation. It returns false if the timer already fired
// or was stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.index < 0 || t.sched == nil {
		return false
	}
	heap.Remove(&t.sched.queue, t.index)
	t.index = -1
	return true
}

// Active reports whether the continuation is still pending.
func (t *Timer) Active() bool {
	return t != nil && t.index >= 0
}

// Deadline returns the instant the continuation is due.
func (t *Timer) Deadline() time.Time {
	return t.deadline
}

// Scheduler runs delayed continuations in virtual time. Time advances only
// through AdvanceTo, which the owner drives from its frame loop (real time) or
// from a test (manual time).
type Scheduler struct {
	now   time.Time
	seq   uint64
	queue timerQueue
}

// NewScheduler creates a scheduler whose clock starts at start.
func NewScheduler(start time.Time) *Scheduler {
	return &Scheduler{now: start}
}

// Now returns the scheduler's current instant.
func (s *Scheduler) Now() time.Time {
	return s.now
}

// After schedules fn to run d after the current instant. A non-positive d
// runs fn on the next AdvanceTo.
func (s *Scheduler) After(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &Timer{
		deadline: s.now.Add(d),
		seq:      s.seq,
		fn:       fn,
		sched:    s,
	}
	heap.Push(&s.queue, t)
	return t
}

// AdvanceTo moves the clock to t and runs every continuation due at or before
// t in deadline order. Continuations scheduled while advancing run in the same
// call if they also fall due. Moving backwards is ignored.
func (s *Scheduler) AdvanceTo(t time.Time) int {
	if t.Before(s.now) {
		return 0
	}
	ran := 0
	for len(s.queue) > 0 {
		next := s.queue[0]
		if next.deadline.After(t) {
			break
		}
		heap.Pop(&s.queue)
		// Continuations observe their own deadline as "now".
		s.now = next.deadline
		ran++
		next.fn()
	}
	s.now = t
	return ran
}

// Advance is AdvanceTo(Now()+d).
func (s *Scheduler) Advance(d time.Duration) int {
	return s.AdvanceTo(s.now.Add(d))
}

// Pending returns the number of continuations waiting to run.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// NextDeadline returns the earliest pending deadline.
func (s *Scheduler) NextDeadline() (time.Time, bool) {
	if len(s.queue) == 0 {
		return time.Time{}, false
	}
	return s.queue[0].deadline, true
}

type timerQueue []*Timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].deadline.Equal(q[j].deadline) {
		return q[i].seq < q[j].seq
	}
	return q[i].deadline.Before(q[j].deadline)
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*Timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// Group binds timers to the lifetime of an owner. Closing the group stops
// every outstanding timer, and continuations never run once it is closed.
type Group struct {
	sched  *Scheduler
	timers map[*Timer]struct{}
	closed bool
}

// NewGroup creates a timer group on s.
func NewGroup(s *Scheduler) *Group {
	return &Group{sched: s, timers: make(map[*Timer]struct{})}
}

// After schedules fn on the group. On a closed group it returns an inactive
// timer and fn is dropped.
func (g *Group) After(d time.Duration, fn func()) *Timer {
	if g.closed {
		return &Timer{index: -1}
	}
	var t *Timer
	t = g.sched.After(d, func() {
		delete(g.timers, t)
		if g.closed {
			return
		}
		fn()
	})
	g.timers[t] = struct{}{}
	return t
}

// Stop cancels one timer owned by the group.
func (g *Group) Stop(t *Timer) bool {
	if t == nil {
		return false
	}
	delete(g.timers, t)
	return t.Stop()
}

// Close stops every pending timer. It is idempotent.
func (g *Group) Close() {
	if g.closed {
		return
	}
	g.closed = true
	for t := range g.timers {
		t.Stop()
	}
	g.timers = nil
}

// Closed reports whether the group has been closed.
func (g *Group) Closed() bool {
	return g.closed
}

// Pending returns the number of the group's timers still waiting.
func (g *Group) Pending() int {
	return len(g.timers)
}
