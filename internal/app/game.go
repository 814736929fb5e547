package app

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"shovebox/server/internal/collision"
	"shovebox/server/internal/geom"
	"shovebox/server/internal/sim"
	"shovebox/server/internal/world"
)

// Kind labels demo objects. Resolution order follows the numeric order:
// walls anchor everything, crates push players and shovers, coins yield.
type Kind uint8

const (
	KindCoin Kind = iota
	KindPlayer
	KindShover
	KindCrate
	KindWall
)

func (k Kind) String() string {
	switch k {
	case KindCoin:
		return "coin"
	case KindPlayer:
		return "player"
	case KindShover:
		return "shover"
	case KindCrate:
		return "crate"
	case KindWall:
		return "wall"
	default:
		return "unknown"
	}
}

const (
	playerSpeed = 120.0
	shoverSpeed = 60.0
	wallDepth   = 16.0
	objectSize  = 16.0
	coinSize    = 8.0
)

// Game is the demo world: an arena of walls and crates where players and
// wandering shovers compete for coins.
type Game struct {
	mu sync.Mutex

	arena      ArenaConfig
	rng        *rand.Rand
	nextPlayer int

	intents map[string]geom.Vec2
	players map[string]world.Handle
	owners  map[world.Handle]string
	scores  map[string]int

	shovers map[world.Handle]uint64 // handle -> tick of next retarget
}

func NewGame(arena ArenaConfig, rng *rand.Rand) *Game {
	if rng == nil {
		rng = rand.New(rand.NewSource(arena.Seed))
	}
	return &Game{
		arena:   arena,
		rng:     rng,
		intents: make(map[string]geom.Vec2),
		players: make(map[string]world.Handle),
		owners:  make(map[world.Handle]string),
		scores:  make(map[string]int),
		shovers: make(map[world.Handle]uint64),
	}
}

// BuildArena populates the engine with border walls, crates, coins, and
// shovers.
func (g *Game) BuildArena(e *sim.Engine[Kind]) {
	w, h := g.arena.Width, g.arena.Height

	// Border walls, centered on the arena edges.
	e.Create(KindWall, box(w/2, wallDepth/2, w, wallDepth), world.Solid())
	e.Create(KindWall, box(w/2, h-wallDepth/2, w, wallDepth), world.Solid())
	e.Create(KindWall, box(wallDepth/2, h/2, wallDepth, h), world.Solid())
	e.Create(KindWall, box(w-wallDepth/2, h/2, wallDepth, h), world.Solid())

	for i := 0; i < g.arena.Crates; i++ {
		e.Create(KindCrate, box(g.spawnX(), g.spawnY(), objectSize, objectSize), world.PushableSolid())
	}
	for i := 0; i < g.arena.Coins; i++ {
		e.Create(KindCoin, box(g.spawnX(), g.spawnY(), coinSize, coinSize), world.Trigger())
	}
	for i := 0; i < g.arena.Shovers; i++ {
		h := e.Create(KindShover, box(g.spawnX(), g.spawnY(), objectSize, objectSize), world.PushableSolid())
		g.shovers[h] = 0
	}
}

// Join spawns a player and returns its public identity.
func (g *Game) Join(e *sim.Engine[Kind]) (string, world.Handle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextPlayer++
	id := fmt.Sprintf("player-%d", g.nextPlayer)
	h := e.Recycle(KindPlayer, box(g.spawnX(), g.spawnY(), objectSize, objectSize), world.PushableSolid())
	g.players[id] = h
	g.owners[h] = id
	g.scores[id] = 0
	return id, h
}

// Leave removes a player's object and intent.
func (g *Game) Leave(e *sim.Engine[Kind], id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	h, ok := g.players[id]
	if !ok {
		return
	}
	e.Kill(h)
	delete(g.players, id)
	delete(g.owners, h)
	delete(g.intents, id)
}

// SetIntent stores a movement direction for the player; it is applied on the
// next tick. The vector is clamped to unit length.
func (g *Game) SetIntent(id string, dir geom.Vec2) {
	if !dir.IsFinite() {
		return
	}
	if lsq := dir.LengthSquared(); lsq > 1 {
		dir = dir.Scale(1 / math.Sqrt(lsq))
	}
	g.mu.Lock()
	g.intents[id] = dir
	g.mu.Unlock()
}

// Known reports whether the player id has joined and not left.
func (g *Game) Known(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.players[id]
	return ok
}

// Scores returns a copy of the scoreboard.
func (g *Game) Scores() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]int, len(g.scores))
	for k, v := range g.scores {
		out[k] = v
	}
	return out
}

// Update steers players from their buffered intents and re-rolls shover
// wander directions.
func (g *Game) Update(e *sim.Engine[Kind], dt float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for id, handle := range g.players {
		c, ok := e.Store().Get(handle)
		if !ok {
			continue
		}
		c.SetVel(g.intents[id].Scale(playerSpeed))
	}

	tick := e.Tick()
	for handle, retarget := range g.shovers {
		c, ok := e.Store().Get(handle)
		if !ok {
			delete(g.shovers, handle)
			continue
		}
		if tick < retarget {
			continue
		}
		angle := g.rng.Float64() * 2 * math.Pi
		c.SetVel(geom.Vec2{X: shoverSpeed * math.Cos(angle), Y: shoverSpeed * math.Sin(angle)})
		g.shovers[handle] = tick + 60 + uint64(g.rng.Intn(120))
	}
}

// HandleDisplacements counts shoves against player objects.
func (g *Game) HandleDisplacements(e *sim.Engine[Kind], hits []collision.Displacement[Kind]) {
	shoved := 0
	for _, hit := range hits {
		if hit.ATag == KindPlayer && !hit.MoveA.IsZero() {
			shoved++
		}
		if hit.BTag == KindPlayer && !hit.MoveB.IsZero() {
			shoved++
		}
	}
	if shoved > 0 {
		e.Deps().Metrics.TelemetryAdd("game_player_shoves_total", uint64(shoved))
	}
}

// HandleTriggers awards coins touched by players and respawns them
// elsewhere.
func (g *Game) HandleTriggers(e *sim.Engine[Kind], hits []collision.Contact[Kind]) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, hit := range hits {
		// Coins sort first in trigger contacts.
		if hit.ATag != KindCoin || hit.BTag != KindPlayer {
			continue
		}
		if _, alive := e.Store().Get(hit.A); !alive {
			continue
		}
		owner, ok := g.owners[hit.B]
		if !ok {
			continue
		}
		g.scores[owner]++
		e.Kill(hit.A)
		e.Recycle(KindCoin, box(g.spawnX(), g.spawnY(), coinSize, coinSize), world.Trigger())
		e.Deps().Metrics.TelemetryAdd("game_coins_collected_total", 1)
	}
}

func (g *Game) spawnX() float64 {
	margin := wallDepth + objectSize
	return margin + g.rng.Float64()*(g.arena.Width-2*margin)
}

func (g *Game) spawnY() float64 {
	margin := wallDepth + objectSize
	return margin + g.rng.Float64()*(g.arena.Height-2*margin)
}

func box(x, y, w, h float64) geom.AABB {
	return geom.AABB{Center: geom.Vec2{X: x, Y: y}, Size: geom.Vec2{X: w, Y: h}}
}
