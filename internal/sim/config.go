package sim

import "shovebox/server/internal/collision"

// Config tunes the tick driver and the collision pipeline. All fields may be
// adjusted between ticks; Normalized clamps them to workable values.
type Config struct {
	// TickRate is the fixed simulation frequency in ticks per second.
	TickRate int `json:"tickRate" yaml:"tick_rate"`
	// ResolveIterations bounds the displacement passes run per tick.
	ResolveIterations int `json:"resolveIterations" yaml:"resolve_iterations"`
	// OverlapEpsilon is the penetration depth treated as already resolved.
	OverlapEpsilon float64 `json:"overlapEpsilon" yaml:"overlap_epsilon"`
	// FineCellSize is the fine grid cell edge in world units.
	FineCellSize float64 `json:"fineCellSize" yaml:"fine_cell_size"`
	// CoarseCellFactor scales fine cells up to coarse cells.
	CoarseCellFactor int `json:"coarseCellFactor" yaml:"coarse_cell_factor"`
	// BroadphaseThreshold is the live collidable count below which candidate
	// pairs come from the all-pairs sweep instead of the grid.
	BroadphaseThreshold int `json:"broadphaseThreshold" yaml:"broadphase_threshold"`
	// ShrinkInterval is how many ticks pass between index compactions.
	// Zero disables periodic compaction.
	ShrinkInterval int `json:"shrinkInterval" yaml:"shrink_interval"`
	// CatchupMaxTicks caps how many ticks the fixed-step clock replays after
	// a stall before dropping backlog.
	CatchupMaxTicks int `json:"catchupMaxTicks" yaml:"catchup_max_ticks"`
}

func DefaultConfig() Config {
	return Config{
		TickRate:            60,
		ResolveIterations:   8,
		OverlapEpsilon:      collision.DefaultEpsilon,
		FineCellSize:        collision.DefaultFineCellSize,
		CoarseCellFactor:    collision.DefaultCoarseFactor,
		BroadphaseThreshold: 64,
		ShrinkInterval:      600,
		CatchupMaxTicks:     5,
	}
}

// Normalized returns a copy with every field clamped into its valid range.
func (c Config) Normalized() Config {
	def := DefaultConfig()
	if c.TickRate <= 0 {
		c.TickRate = def.TickRate
	}
	if c.ResolveIterations <= 0 {
		c.ResolveIterations = def.ResolveIterations
	}
	if c.OverlapEpsilon <= 0 {
		c.OverlapEpsilon = def.OverlapEpsilon
	}
	if c.FineCellSize <= 0 {
		c.FineCellSize = def.FineCellSize
	}
	if c.CoarseCellFactor < 2 {
		c.CoarseCellFactor = def.CoarseCellFactor
	}
	if c.BroadphaseThreshold < 0 {
		c.BroadphaseThreshold = 0
	}
	if c.ShrinkInterval < 0 {
		c.ShrinkInterval = 0
	}
	if c.CatchupMaxTicks <= 0 {
		c.CatchupMaxTicks = def.CatchupMaxTicks
	}
	return c
}
