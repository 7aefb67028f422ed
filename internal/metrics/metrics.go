package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks render cost and animation activity. Record* calls come from
// the UI goroutine; readers may be anywhere.
type Metrics struct {
	// Frame cost samples (in microseconds)
	samples   []int64
	sampleIdx int
	mu        sync.Mutex

	// Counters
	frames      atomic.Int64
	ticks       atomic.Int64
	transitions atomic.Int64
	cycles      atomic.Int64
	dropped     atomic.Int64

	lastFrameUs atomic.Int64
}

// Snapshot is a point-in-time copy for reporting.
type Snapshot struct {
	Frames      int64 `json:"frames"`
	Ticks       int64 `json:"ticks"`
	Transitions int64 `json:"transitions"`
	Cycles      int64 `json:"cycles"`
	Dropped     int64 `json:"dropped"`
	LastFrameUs int64 `json:"last_frame_us"`
	P50Us       int64 `json:"p50_us"`
	P95Us       int64 `json:"p95_us"`
	P99Us       int64 `json:"p99_us"`
	AvgUs       int64 `json:"avg_us"`
}

// New creates a tracker keeping the last n frame samples.
func New(n int) *Metrics {
	if n <= 0 {
		n = 300
	}
	return &Metrics{samples: make([]int64, n)}
}

// RecordFrame records the cost of one rendered frame
func (m *Metrics) RecordFrame(cost time.Duration) {
	us := cost.Microseconds()

	m.mu.Lock()
	m.samples[m.sampleIdx%len(m.samples)] = us
	m.sampleIdx++
	m.mu.Unlock()

	m.frames.Add(1)
	m.lastFrameUs.Store(us)
}

// RecordTick counts one time-source delivery
func (m *Metrics) RecordTick() {
	m.ticks.Add(1)
}

// SetActivity stores the face's running totals.
func (m *Metrics) SetActivity(transitions, cycles int) {
	m.transitions.Store(int64(transitions))
	m.cycles.Store(int64(cycles))
}

// RecordDropped counts a frame skipped by a slow consumer
func (m *Metrics) RecordDropped() {
	m.dropped.Add(1)
}

// P50 returns the median frame cost
func (m *Metrics) P50() time.Duration {
	return m.percentile(50)
}

// P95 returns the 95th percentile frame cost
func (m *Metrics) P95() time.Duration {
	return m.percentile(95)
}

// P99 returns the 99th percentile frame cost
func (m *Metrics) P99() time.Duration {
	return m.percentile(99)
}

// Avg returns the average frame cost
func (m *Metrics) Avg() time.Duration {
	sorted := m.sorted()
	if len(sorted) == 0 {
		return 0
	}
	var sum int64
	for _, v := range sorted {
		sum += v
	}
	return time.Duration(sum/int64(len(sorted))) * time.Microsecond
}

func (m *Metrics) sorted() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := min(m.sampleIdx, len(m.samples))
	out := make([]int64, count)
	copy(out, m.samples[:count])
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *Metrics) percentile(p int) time.Duration {
	sorted := m.sorted()
	count := len(sorted)
	if count == 0 {
		return 0
	}
	idx := min((p*count)/100, count-1)
	return time.Duration(sorted[idx]) * time.Microsecond
}

// Snapshot returns every counter and percentile
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Frames:      m.frames.Load(),
		Ticks:       m.ticks.Load(),
		Transitions: m.transitions.Load(),
		Cycles:      m.cycles.Load(),
		Dropped:     m.dropped.Load(),
		LastFrameUs: m.lastFrameUs.Load(),
		P50Us:       m.P50().Microseconds(),
		P95Us:       m.P95().Microseconds(),
		P99Us:       m.P99().Microseconds(),
		AvgUs:       m.Avg().Microseconds(),
	}
}

// FrameTimer times one frame.
type FrameTimer struct {
	start time.Time
	m     *Metrics
}

// StartFrame begins timing a frame
func (m *Metrics) StartFrame() FrameTimer {
	return FrameTimer{start: time.Now(), m: m}
}

// Done records the elapsed time and returns it
func (t FrameTimer) Done() time.Duration {
	d := time.Since(t.start)
	t.m.RecordFrame(d)
	return d
}
