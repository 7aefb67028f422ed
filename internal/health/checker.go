package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status represents the health status of a component
type Status struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Age     time.Duration `json:"age_ns"`
	Latency time.Duration `json:"latency_ns,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type heartbeat struct {
	last   time.Time
	maxAge time.Duration
}

// Checker tracks liveness of the clock's loops through heartbeats, and
// optionally probes HTTP endpoints.
type Checker struct {
	mu       sync.RWMutex
	beats    map[string]*heartbeat
	probes   map[string]string
	statuses []Status
	now      func() time.Time
	client   *http.Client
}

// NewChecker creates a new health checker
func NewChecker() *Checker {
	return &Checker{
		beats:  make(map[string]*heartbeat),
		probes: make(map[string]string),
		now:    time.Now,
		client: &http.Client{Timeout: 2 * time.Second},
	}
}

// Register adds a heartbeat that is healthy while beats arrive at least every
// maxAge.
func (c *Checker) Register(name string, maxAge time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.beats[name] = &heartbeat{maxAge: maxAge}
}

// Probe adds an HTTP endpoint checked with GET on every pass.
func (c *Checker) Probe(name, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = url
}

// Beat marks name alive now. Unknown names are ignored.
func (c *Checker) Beat(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hb, ok := c.beats[name]; ok {
		hb.last = c.now()
	}
}

// Start begins periodic health checks
func (c *Checker) Start(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Check()
			}
		}
	}()

	// Initial check
	c.Check()
}

// Check evaluates every heartbeat and probe and stores the result.
func (c *Checker) Check() []Status {
	c.mu.RLock()
	now := c.now()
	statuses := make([]Status, 0, len(c.beats)+len(c.probes))
	for name, hb := range c.beats {
		st := Status{Name: name}
		if hb.last.IsZero() {
			st.Error = "no heartbeat yet"
		} else {
			st.Age = now.Sub(hb.last)
			st.Healthy = st.Age <= hb.maxAge
			if !st.Healthy {
				st.Error = "heartbeat stale"
			}
		}
		statuses = append(statuses, st)
	}
	probes := make(map[string]string, len(c.probes))
	for k, v := range c.probes {
		probes[k] = v
	}
	c.mu.RUnlock()

	for name, url := range probes {
		statuses = append(statuses, c.checkHTTP(name, url))
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
	return statuses
}

func (c *Checker) checkHTTP(name, url string) Status {
	start := time.Now()
	resp, err := c.client.Get(url)
	status := Status{
		Name:    name,
		Latency: time.Since(start),
		Healthy: err == nil,
	}
	if err != nil {
		status.Error = err.Error()
		return status
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		status.Healthy = false
		status.Error = resp.Status
	}
	return status
}

// GetStatuses returns current health statuses
func (c *Checker) GetStatuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statuses
}

// Healthy reports whether every status from the last check is healthy.
func (c *Checker) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}
