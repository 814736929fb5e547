package simulation

import (
	"context"

	"shovebox/server/logging"
)

const (
	// EventEngineStarted is emitted once when the tick loop begins.
	EventEngineStarted logging.EventType = "simulation.engine_started"
	// EventConfigReloaded is emitted when runtime tuning is applied between ticks.
	EventConfigReloaded logging.EventType = "simulation.config_reloaded"
	// EventTickBudgetOverrun is emitted when a tick exceeds its time budget.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventCatchupClamped is emitted when the fixed-step accumulator discards backlog.
	EventCatchupClamped logging.EventType = "simulation.catchup_clamped"
)

// EngineStartedPayload captures the tuning the engine started with.
type EngineStartedPayload struct {
	TickRate          int     `json:"tickRate"`
	ResolveIterations int     `json:"resolveIterations"`
	FineCellSize      float64 `json:"fineCellSize"`
}

func EngineStarted(ctx context.Context, pub logging.Publisher, payload EngineStartedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventEngineStarted,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

// ConfigReloadedPayload records the source of a runtime tuning change.
type ConfigReloadedPayload struct {
	Source string `json:"source"`
}

func ConfigReloaded(ctx context.Context, pub logging.Publisher, tick uint64, payload ConfigReloadedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventConfigReloaded,
		Tick:     tick,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

// TickBudgetOverrunPayload captures timing details for a tick budget breach.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
}

// TickBudgetOverrun publishes a warning when a tick exceeds the configured budget.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickBudgetOverrun,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

// CatchupClampedPayload records how much simulated time the clock gave up on.
type CatchupClampedPayload struct {
	DroppedTicks  uint64  `json:"droppedTicks"`
	BacklogMillis float64 `json:"backlogMillis"`
}

// CatchupClamped publishes a warning when the accumulator drops backlog after a stall.
func CatchupClamped(ctx context.Context, pub logging.Publisher, tick uint64, payload CatchupClampedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCatchupClamped,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}
