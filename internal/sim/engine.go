package sim

import (
	"cmp"
	"context"

	"shovebox/server/internal/collision"
	"shovebox/server/internal/geom"
	"shovebox/server/internal/telemetry"
	"shovebox/server/internal/world"
	logcollision "shovebox/server/logging/collision"
)

// Game receives per-tick callbacks from the engine. Update runs before
// integration so it can steer velocities; the handlers run after resolution
// with the tick's accumulated contact reports. Handlers may create, recycle,
// and kill objects freely.
type Game[T cmp.Ordered] interface {
	Update(e *Engine[T], dt float64)
	HandleDisplacements(e *Engine[T], hits []collision.Displacement[T])
	HandleTriggers(e *Engine[T], hits []collision.Contact[T])
}

// Engine drives the fixed-tick collision pipeline: steering, integration,
// index maintenance, iterative resolution, velocity clamping, trigger
// gathering, and dispatch.
type Engine[T cmp.Ordered] struct {
	cfg  Config
	deps Deps

	store    *world.Store[T]
	grid     *collision.Grid
	resolver *collision.Resolver[T]
	contacts *collision.Contacts[T]

	logger  telemetry.Logger
	metrics telemetry.Metrics

	tick  uint64
	pairs [][2]world.Handle
}

func NewEngine[T cmp.Ordered](cfg Config, deps Deps) *Engine[T] {
	cfg = cfg.Normalized()
	deps = deps.normalized()
	return &Engine[T]{
		cfg:      cfg,
		deps:     deps,
		store:    world.NewStore[T](),
		grid:     collision.NewGrid(cfg.FineCellSize, cfg.CoarseCellFactor),
		resolver: collision.NewResolver[T](cfg.OverlapEpsilon),
		contacts: collision.NewContacts[T](),
		logger:   telemetry.WrapLogger(deps.Logger),
		metrics:  telemetry.WrapMetrics(deps.Metrics),
	}
}

// Store exposes the object store for game logic and snapshots.
func (e *Engine[T]) Store() *world.Store[T] { return e.store }

// Config returns the engine's current tuning.
func (e *Engine[T]) Config() Config { return e.cfg }

// Deps returns the injected dependencies.
func (e *Engine[T]) Deps() Deps { return e.deps }

// Tick returns the number of completed steps.
func (e *Engine[T]) Tick() uint64 { return e.tick }

// Retune applies new tuning between ticks. The spatial index is rebuilt when
// its cell geometry changes.
func (e *Engine[T]) Retune(cfg Config) {
	cfg = cfg.Normalized()
	rebuild := cfg.FineCellSize != e.cfg.FineCellSize || cfg.CoarseCellFactor != e.cfg.CoarseCellFactor
	e.cfg = cfg
	e.resolver.Epsilon = cfg.OverlapEpsilon
	if rebuild {
		e.grid = collision.NewGrid(cfg.FineCellSize, cfg.CoarseCellFactor)
		e.indexAll()
		e.logger.Printf("spatial index rebuilt: cell=%.1f factor=%d entries=%d",
			cfg.FineCellSize, cfg.CoarseCellFactor, e.grid.Len())
	}
}

// Create adds an object and indexes it when collidable.
func (e *Engine[T]) Create(tag T, aabb geom.AABB, col world.Collision) world.Handle {
	h := e.store.Create(tag, aabb, col)
	if h.Group != world.GroupNoCollide {
		e.grid.Insert(h, aabb)
	}
	return h
}

// Recycle reuses a dead slot of the matching group, falling back to Create.
func (e *Engine[T]) Recycle(tag T, aabb geom.AABB, col world.Collision) world.Handle {
	h := e.store.Recycle(tag, aabb, col)
	if h.Group != world.GroupNoCollide {
		e.grid.Insert(h, aabb)
	}
	return h
}

// Kill marks the object dead and drops it from the index. Contact reports
// already gathered this tick may still name the handle; consumers check
// liveness with Store().Get.
func (e *Engine[T]) Kill(h world.Handle) {
	e.store.Kill(h)
	if h.Group != world.GroupNoCollide {
		e.grid.Remove(h)
	}
}

// Step advances the simulation by one fixed step of dt seconds.
func (e *Engine[T]) Step(game Game[T], dt float64) {
	e.tick++

	if game != nil {
		game.Update(e, dt)
	}
	e.integrate(dt)
	e.resolve()
	e.gatherTriggers()
	if game != nil {
		game.HandleDisplacements(e, e.contacts.Displacements)
		game.HandleTriggers(e, e.contacts.Triggers)
	}
	e.optimizeIndex()
	e.contacts.Clear()

	e.metrics.Add("sim_ticks_total", 1)
	e.metrics.Store("collision_live_objects", uint64(e.store.LiveCollidable()))
	e.metrics.Store("collision_index_entries", uint64(e.grid.Len()))
}

// integrate applies velocities to positions and refreshes every collidable
// index entry. Stationary objects are refreshed too: dispatch callbacks may
// have repositioned them since the last tick, and Update's same-cell path
// keeps the no-op case cheap.
func (e *Engine[T]) integrate(dt float64) {
	e.store.Each(func(h world.Handle, c *world.Chara[T]) {
		vel := c.Vel()
		if !vel.IsZero() {
			c.SetPos(c.Pos().Add(vel.Scale(dt)))
		}
		if h.Group != world.GroupNoCollide {
			e.grid.Update(h, c.AABB())
		}
	})
}

// candidates returns the broad-phase pair set for the current positions.
// Small populations skip the grid entirely; the all-pairs sweep is cheaper
// than hashing below the threshold.
func (e *Engine[T]) candidates() [][2]world.Handle {
	e.pairs = e.pairs[:0]
	if e.store.LiveCollidable() < e.cfg.BroadphaseThreshold {
		e.pairs = collision.AllPairs(e.store, e.pairs)
		return e.pairs
	}
	e.pairs = e.grid.CandidatePairs(e.pairs)
	return e.pairs
}

func (e *Engine[T]) resolve() {
	var contactsTotal, resolvedTotal, degenerateTotal int
	var lastResolved int
	passes := 0
	for i := 0; i < e.cfg.ResolveIterations; i++ {
		stats := e.resolver.Pass(e.store, e.contacts, e.candidates())
		passes++
		contactsTotal += stats.Contacts
		resolvedTotal += stats.Resolved
		degenerateTotal += stats.DegenerateSkips
		lastResolved = stats.Resolved
		for _, h := range stats.Moved {
			if c, ok := e.store.Get(h); ok {
				e.grid.Update(h, c.AABB())
			}
		}
		// Nothing moved: every remaining contact is resting or below epsilon,
		// and another pass would see identical positions.
		if stats.Resolved == 0 {
			break
		}
	}

	e.clampVelocities()

	e.metrics.Add("collision_contacts_total", uint64(contactsTotal))
	e.metrics.Add("collision_resolved_total", uint64(resolvedTotal))
	if degenerateTotal > 0 {
		e.metrics.Add("collision_degenerate_skips_total", uint64(degenerateTotal))
		logcollision.DegenerateGeometry(context.Background(), e.deps.Publisher, e.tick,
			logcollision.DegenerateGeometryPayload{Skips: degenerateTotal})
	}
	// Resting contacts never spend the budget: the event fires only when the
	// final pass still produced movement and real penetration remains.
	if lastResolved > 0 && passes == e.cfg.ResolveIterations {
		if remaining := e.resolver.Residual(e.store, e.candidates()); remaining > 0 {
			logcollision.IterationBudgetSpent(context.Background(), e.deps.Publisher, e.tick,
				logcollision.IterationBudgetSpentPayload{
					Passes:            passes,
					RemainingContacts: remaining,
					ResolvedThisTick:  resolvedTotal,
					DegenerateSkips:   degenerateTotal,
				})
		}
	}
}

// clampVelocities zeroes the velocity component that opposes each applied
// correction so displaced objects stop accelerating into whatever pushed
// them back.
func (e *Engine[T]) clampVelocities() {
	for _, d := range e.contacts.Displacements {
		e.clampAgainst(d.A, d.MoveA)
		e.clampAgainst(d.B, d.MoveB)
	}
}

func (e *Engine[T]) clampAgainst(h world.Handle, move geom.Vec2) {
	if move.IsZero() {
		return
	}
	c, ok := e.store.Get(h)
	if !ok {
		return
	}
	vel := c.Vel()
	if move.X != 0 && vel.X*move.X < 0 {
		vel.X = 0
	}
	if move.Y != 0 && vel.Y*move.Y < 0 {
		vel.Y = 0
	}
	c.SetVel(vel)
}

// gatherTriggers collects trigger overlaps at post-resolution positions.
func (e *Engine[T]) gatherTriggers() {
	collision.GatherTriggers(e.store, e.contacts, e.candidates())
}

func (e *Engine[T]) optimizeIndex() {
	if e.cfg.ShrinkInterval <= 0 || e.tick%uint64(e.cfg.ShrinkInterval) != 0 {
		return
	}
	e.grid.Shrink()
	logcollision.IndexRebuilt(context.Background(), e.deps.Publisher, e.tick,
		logcollision.IndexRebuiltPayload{LiveEntries: e.grid.Len()})
}

// indexAll rebuilds the grid from every live collidable object.
func (e *Engine[T]) indexAll() {
	e.grid.Reset()
	e.store.Each(func(h world.Handle, c *world.Chara[T]) {
		if h.Group != world.GroupNoCollide {
			e.grid.Insert(h, c.AABB())
		}
	})
}
