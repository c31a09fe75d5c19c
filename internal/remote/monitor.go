package remote

import (
	"context"
	"time"
)

// defaultProbeInterval paces connectivity probes when none is configured.
const defaultProbeInterval = 15 * time.Second

// HealthChecker probes backend reachability.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Monitor watches backend connectivity and reports state edges.
type Monitor struct {
	checker  HealthChecker
	interval time.Duration
	onChange func(online bool)
	online   bool
}

// NewMonitor constructs a new value for this package. onChange is invoked
// only on Offline→Online and Online→Offline edges, never on repeats.
func NewMonitor(checker HealthChecker, interval time.Duration, onChange func(online bool)) *Monitor {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	return &Monitor{
		checker:  checker,
		interval: interval,
		onChange: onChange,
	}
}

// Check probes once and records the result without reporting an edge. It
// supplies the initial connectivity state at construction time.
func (m *Monitor) Check(ctx context.Context) bool {
	m.online = m.probe(ctx)
	return m.online
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	return m.online
}

// Run polls until the context is canceled, reporting state edges.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.observe(ctx)
		}
	}
}

// observe probes once and reports a state edge when connectivity flips.
func (m *Monitor) observe(ctx context.Context) {
	online := m.probe(ctx)
	if online == m.online {
		return
	}
	m.online = online
	if m.onChange != nil {
		m.onChange(online)
	}
}

// probe runs one bounded health check.
func (m *Monitor) probe(ctx context.Context) bool {
	if m.checker == nil {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()
	err := m.checker.Health(probeCtx)
	if err == nil {
		return true
	}
	// An application error still proves the backend answered.
	return !IsUnavailable(err)
}
