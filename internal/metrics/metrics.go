// Package metrics counts control-API activity for one outmode run.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks request and failure counts.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	requests atomic.Int64
	switches atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	failures     map[string]int64 // keyed by error class
	lastError    time.Time
	lastErrorMsg string
	lastLatency  time.Duration
}

// New creates a collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now(), failures: make(map[string]int64)}
}

// ── Requests ─────────────────────────────────────────────────────────

// RequestDone records one completed control call and its latency.
func (c *Collector) RequestDone(latency time.Duration) {
	if c == nil {
		return
	}
	c.requests.Add(1)
	c.mu.Lock()
	c.lastLatency = latency
	c.mu.Unlock()
}

// Requests returns the number of control calls issued.
func (c *Collector) Requests() int64 {
	if c == nil {
		return 0
	}
	return c.requests.Load()
}

// SwitchApplied records a mode change the daemon acknowledged.
func (c *Collector) SwitchApplied() {
	if c == nil {
		return
	}
	c.switches.Add(1)
}

// Switches returns the number of acknowledged mode changes.
func (c *Collector) Switches() int64 {
	if c == nil {
		return 0
	}
	return c.switches.Load()
}

// ── Failures ─────────────────────────────────────────────────────────

// RecordFailure counts a failed call under class and keeps its message.
func (c *Collector) RecordFailure(class, msg string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.failures[class]++
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// Failures returns the failure count for class, or the total when
// class is empty.
func (c *Collector) Failures(class string) int64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if class != "" {
		return c.failures[class]
	}
	var n int64
	for _, v := range c.failures {
		n += v
	}
	return n
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string           `json:"uptime"`
	Requests         int64            `json:"requests"`
	Switches         int64            `json:"switches"`
	Failures         map[string]int64 `json:"failures,omitempty"`
	LastLatency      string           `json:"last_latency,omitempty"`
	LastError        string           `json:"last_error,omitempty"`
	LastErrorMessage string           `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:   time.Since(c.startTime).Truncate(time.Millisecond).String(),
		Requests: c.requests.Load(),
		Switches: c.switches.Load(),
	}
	if len(c.failures) > 0 {
		s.Failures = make(map[string]int64, len(c.failures))
		for k, v := range c.failures {
			s.Failures[k] = v
		}
	}
	if c.lastLatency > 0 {
		s.LastLatency = c.lastLatency.String()
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	data, _ := json.MarshalIndent(c.Snapshot(), "", "  ")
	return string(data)
}
