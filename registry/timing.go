package registry

import (
	"sort"
	"sync"
	"time"
)

// Call is a single resolver execution.
type Call struct {
	Timestamp time.Time
	Success   bool
	Latency   time.Duration
	Error     string
}

// Timing summarizes the executions of one resolver.
type Timing struct {
	Resolver     string        `json:"resolver"`
	Calls        int           `json:"calls"`
	Failures     int           `json:"failures"`
	Total        time.Duration `json:"total"`
	P50          time.Duration `json:"p50"`
	Max          time.Duration `json:"max"`
	RecentErrors []string      `json:"recent_errors,omitempty"`
}

// Timings records how long resolvers take. A nil *Timings discards
// everything.
type Timings struct {
	mu    sync.Mutex
	calls map[string][]Call
}

// NewTimings creates an empty recorder.
func NewTimings() *Timings {
	return &Timings{calls: make(map[string][]Call)}
}

// TrackSuccess records a successful resolution.
func (t *Timings) TrackSuccess(resolver string, latency time.Duration) {
	t.track(resolver, Call{Timestamp: time.Now().UTC(), Success: true, Latency: latency})
}

// TrackFailure records a failed resolution.
func (t *Timings) TrackFailure(resolver string, latency time.Duration, errorMsg string) {
	t.track(resolver, Call{Timestamp: time.Now().UTC(), Latency: latency, Error: errorMsg})
}

func (t *Timings) track(resolver string, call Call) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[resolver] = append(t.calls[resolver], call)
}

// Snapshot returns one summary per resolver, sorted by resolver name.
func (t *Timings) Snapshot() []Timing {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Timing, 0, len(t.calls))
	for resolver, calls := range t.calls {
		timing := Timing{Resolver: resolver, Calls: len(calls)}
		latencies := make([]time.Duration, 0, len(calls))
		for _, call := range calls {
			timing.Total += call.Latency
			latencies = append(latencies, call.Latency)
			if !call.Success {
				timing.Failures++
				if len(timing.RecentErrors) < 5 {
					timing.RecentErrors = append(timing.RecentErrors, call.Error)
				}
			}
		}
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		timing.P50 = percentile(latencies, 0.50)
		if len(latencies) > 0 {
			timing.Max = latencies[len(latencies)-1]
		}
		out = append(out, timing)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Resolver < out[j].Resolver })
	return out
}

// percentile returns the p-th percentile of a sorted slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)-1) * p)
	return sorted[index]
}
