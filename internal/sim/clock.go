package sim

import "time"

// FixedStep converts wall-clock progress into a whole number of fixed
// simulation steps. It accumulates elapsed time across calls and clamps
// catch-up after stalls so a paused process does not replay minutes of
// simulation at once.
type FixedStep struct {
	step       time.Duration
	maxCatchup int

	last        time.Time
	accumulator time.Duration
}

// NewFixedStep builds a clock stepping at tickRate ticks per second and
// replaying at most maxCatchup ticks per Advance call.
func NewFixedStep(tickRate, maxCatchup int) *FixedStep {
	if tickRate <= 0 {
		tickRate = DefaultConfig().TickRate
	}
	if maxCatchup <= 0 {
		maxCatchup = DefaultConfig().CatchupMaxTicks
	}
	return &FixedStep{
		step:       time.Second / time.Duration(tickRate),
		maxCatchup: maxCatchup,
	}
}

// Step returns the fixed step duration.
func (f *FixedStep) Step() time.Duration {
	return f.step
}

// Advance folds the time since the previous call into the accumulator and
// returns how many fixed steps to run now, plus how many ticks of backlog
// were dropped by the catch-up clamp. The first call primes the clock and
// returns zero steps.
func (f *FixedStep) Advance(now time.Time) (steps, dropped int) {
	if f.last.IsZero() {
		f.last = now
		return 0, 0
	}
	delta := now.Sub(f.last)
	f.last = now
	if delta < 0 {
		return 0, 0
	}
	f.accumulator += delta

	steps = int(f.accumulator / f.step)
	if steps > f.maxCatchup {
		dropped = steps - f.maxCatchup
		steps = f.maxCatchup
		f.accumulator = 0
		return steps, dropped
	}
	f.accumulator -= time.Duration(steps) * f.step
	return steps, 0
}

// Reset discards any pending backlog and re-primes the clock at now.
func (f *FixedStep) Reset(now time.Time) {
	f.last = now
	f.accumulator = 0
}
