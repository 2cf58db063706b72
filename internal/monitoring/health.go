package monitoring

import (
	"context"
	"errors"
	"time"
)

// ProbeStatus encodes the outcome of a readiness probe.
type ProbeStatus string

const (
	StatusUp       ProbeStatus = "up"
	StatusDown     ProbeStatus = "down"
	StatusDegraded ProbeStatus = "degraded"
)

// ProbeResult is the outcome of one dependency probe.
type ProbeResult struct {
	Component string        `json:"component"`
	Status    ProbeStatus   `json:"status"`
	Details   string        `json:"details,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Report aggregates every probe run for a single health request.
type Report struct {
	Status ProbeStatus   `json:"status"`
	Checks []ProbeResult `json:"checks"`
}

// Healthy reports whether every probe came back up.
func (r Report) Healthy() bool { return r.Status == StatusUp }

// Check names a dependency and how to probe it.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// Manager runs the registered dependency probes.
type Manager struct {
	checks  []Check
	timeout time.Duration
}

const defaultProbeTimeout = 2 * time.Second

// NewManager returns a manager whose probes each get timeout to finish.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &Manager{timeout: timeout}
}

// Register appends a probe. Unnamed or nil probes are ignored.
func (m *Manager) Register(checks ...Check) {
	for _, check := range checks {
		if check.Name == "" || check.Run == nil {
			continue
		}
		m.checks = append(m.checks, check)
	}
}

// Evaluate runs every probe in registration order.
func (m *Manager) Evaluate(ctx context.Context) Report {
	if ctx == nil {
		ctx = context.Background()
	}
	report := Report{Status: StatusUp, Checks: make([]ProbeResult, 0, len(m.checks))}
	for _, check := range m.checks {
		result := m.run(ctx, check)
		report.Checks = append(report.Checks, result)

		switch result.Status {
		case StatusDown:
			report.Status = StatusDown
		case StatusDegraded:
			if report.Status != StatusDown {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

func (m *Manager) run(ctx context.Context, check Check) (result ProbeResult) {
	start := time.Now()
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			details := "panic recovered"
			switch v := rec.(type) {
			case string:
				details = v
			case error:
				details = v.Error()
			}
			result = ProbeResult{Component: check.Name, Status: StatusDown, Details: details, Duration: time.Since(start)}
		}
	}()

	return ResultFromError(check.Name, check.Run(probeCtx), time.Since(start))
}

// ResultFromError converts a probe error into a ProbeResult. Timeouts and
// cancellations count as degraded rather than down.
func ResultFromError(component string, err error, duration time.Duration) ProbeResult {
	if duration < 0 {
		duration = 0
	}
	if err == nil {
		return ProbeResult{Component: component, Status: StatusUp, Duration: duration}
	}

	status := StatusDown
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		status = StatusDegraded
	}
	return ProbeResult{Component: component, Status: status, Details: err.Error(), Duration: duration}
}
