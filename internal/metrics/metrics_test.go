package metrics

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestCollector_Requests(t *testing.T) {
	c := New()

	c.RequestDone(3 * time.Millisecond)
	c.RequestDone(5 * time.Millisecond)
	if c.Requests() != 2 {
		t.Errorf("requests = %d, want 2", c.Requests())
	}
	if got := c.Snapshot().LastLatency; got != "5ms" {
		t.Errorf("last latency = %q, want 5ms", got)
	}
}

func TestCollector_Switches(t *testing.T) {
	c := New()
	c.SwitchApplied()
	c.SwitchApplied()
	if c.Switches() != 2 {
		t.Errorf("switches = %d, want 2", c.Switches())
	}
}

func TestCollector_Failures(t *testing.T) {
	c := New()

	c.RecordFailure("auth", "401")
	c.RecordFailure("connectivity", "refused")
	c.RecordFailure("connectivity", "refused again")

	if got := c.Failures("connectivity"); got != 2 {
		t.Errorf("connectivity failures = %d, want 2", got)
	}
	if got := c.Failures(""); got != 3 {
		t.Errorf("total failures = %d, want 3", got)
	}

	snap := c.Snapshot()
	if snap.LastErrorMessage != "refused again" {
		t.Errorf("last error message = %q", snap.LastErrorMessage)
	}
	if snap.LastError == "" {
		t.Error("last error timestamp should be set")
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	c.RequestDone(time.Second)
	c.SwitchApplied()
	c.RecordFailure("auth", "x")

	if c.Requests() != 0 || c.Switches() != 0 || c.Failures("") != 0 {
		t.Error("nil collector should report zeros")
	}
	if c.JSON() == "" {
		t.Error("JSON of nil collector should still be valid")
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.RequestDone(time.Millisecond)
	c.RecordFailure("rejected", "400")

	var snap Snapshot
	if err := json.Unmarshal([]byte(c.JSON()), &snap); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if snap.Requests != 1 || snap.Failures["rejected"] != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RequestDone(time.Millisecond)
			c.RecordFailure("connectivity", "x")
		}()
	}
	wg.Wait()
	if c.Requests() != 50 || c.Failures("connectivity") != 50 {
		t.Errorf("requests=%d failures=%d, want 50/50", c.Requests(), c.Failures("connectivity"))
	}
}
