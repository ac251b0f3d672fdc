package ncat

import "time"

// DefaultTimeout allows long-running provisioning commands.
const DefaultTimeout = time.Hour

// Governor tracks an absolute deadline across repeated polls.
type Governor struct {
	deadline time.Time
	stopped  bool

	now func() time.Time
}

// NewGovernor returns a governor whose deadline is timeout from now.
func NewGovernor(timeout time.Duration) *Governor {
	return newGovernor(timeout, time.Now)
}

func newGovernor(timeout time.Duration, now func() time.Time) *Governor {
	return &Governor{
		deadline: now().Add(timeout),
		now:      now,
	}
}

// Remaining returns the time left until the deadline. It is zero
// once the deadline passed or the governor was stopped.
func (g *Governor) Remaining() time.Duration {
	if g.stopped {
		return 0
	}

	remaining := g.deadline.Sub(g.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Stop ends polling, e.g. after a terminal classification.
func (g *Governor) Stop() {
	g.stopped = true
}

// Expired reports whether the deadline passed.
func (g *Governor) Expired() bool {
	return !g.now().Before(g.deadline)
}
