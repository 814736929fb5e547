package collision

import (
	"context"

	"shovebox/server/logging"
)

const (
	// EventDegenerateGeometry is emitted when resolution skips a contact whose
	// box became non-finite or non-positive mid-pass.
	EventDegenerateGeometry logging.EventType = "collision.degenerate_geometry"
	// EventIterationBudgetSpent is emitted when a tick ends with contacts still
	// unresolved after the configured pass budget.
	EventIterationBudgetSpent logging.EventType = "collision.iteration_budget_spent"
	// EventIndexRebuilt is emitted when the spatial index compacts its arena.
	EventIndexRebuilt logging.EventType = "collision.index_rebuilt"
)

// DegenerateGeometryPayload counts the contacts dropped during one tick.
type DegenerateGeometryPayload struct {
	Skips int `json:"skips"`
}

func DegenerateGeometry(ctx context.Context, pub logging.Publisher, tick uint64, payload DegenerateGeometryPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDegenerateGeometry,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryCollision,
		Payload:  payload,
	})
}

// IterationBudgetSpentPayload reports residual work after the final pass.
type IterationBudgetSpentPayload struct {
	Passes            int `json:"passes"`
	RemainingContacts int `json:"remainingContacts"`
	ResolvedThisTick  int `json:"resolvedThisTick"`
	DegenerateSkips   int `json:"degenerateSkips"`
}

func IterationBudgetSpent(ctx context.Context, pub logging.Publisher, tick uint64, payload IterationBudgetSpentPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventIterationBudgetSpent,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCollision,
		Payload:  payload,
	})
}

// IndexRebuiltPayload reports the arena occupancy after compaction.
type IndexRebuiltPayload struct {
	LiveEntries int `json:"liveEntries"`
}

func IndexRebuilt(ctx context.Context, pub logging.Publisher, tick uint64, payload IndexRebuiltPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventIndexRebuilt,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCollision,
		Payload:  payload,
	})
}
