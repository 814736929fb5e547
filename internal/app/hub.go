package app

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"shovebox/server/internal/geom"
	"shovebox/server/internal/sim"
	"shovebox/server/internal/telemetry"
	"shovebox/server/internal/world"
	"shovebox/server/logging"
	logsimulation "shovebox/server/logging/simulation"
)

// Hub owns the engine and the demo game, runs the fixed-tick loop, and fans
// state snapshots out to subscribers. All engine access goes through the hub
// mutex; handlers never touch the engine mid-tick.
type Hub struct {
	mu     sync.Mutex
	cfg    Config
	engine *sim.Engine[Kind]
	game   *Game

	deps      sim.Deps
	logger    telemetry.Logger
	publisher logging.Publisher

	subMu       sync.Mutex
	subscribers map[string]chan<- []byte

	retune chan Config
}

// JoinResponse is the public identity handed to a connecting client.
type JoinResponse struct {
	ID       string       `json:"id"`
	Handle   world.Handle `json:"handle"`
	TickRate int          `json:"tickRate"`
	Arena    ArenaConfig  `json:"arena"`
}

type wireObject struct {
	Group string  `json:"group"`
	Slot  uint32  `json:"slot"`
	Kind  string  `json:"kind"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
}

type statePayload struct {
	Ver     int            `json:"ver"`
	Type    string         `json:"type"`
	Tick    uint64         `json:"tick"`
	Objects []wireObject   `json:"objects"`
	Scores  map[string]int `json:"scores,omitempty"`
}

func NewHub(cfg Config, deps sim.Deps) *Hub {
	cfg = cfg.Normalized()
	engine := sim.NewEngine[Kind](cfg.Sim, deps)
	game := NewGame(cfg.Arena, deps.RNG)
	game.BuildArena(engine)

	h := &Hub{
		cfg:         cfg,
		engine:      engine,
		game:        game,
		deps:        engine.Deps(),
		logger:      telemetry.WrapLogger(deps.Logger),
		subscribers: make(map[string]chan<- []byte),
		retune:      make(chan Config, 1),
	}
	h.publisher = h.deps.Publisher
	return h
}

// Join creates a player object and returns its identity.
func (h *Hub) Join() JoinResponse {
	h.mu.Lock()
	defer h.mu.Unlock()
	id, handle := h.game.Join(h.engine)
	return JoinResponse{
		ID:       id,
		Handle:   handle,
		TickRate: h.cfg.Sim.TickRate,
		Arena:    h.cfg.Arena,
	}
}

// JoinWire creates a player and returns its id plus the marshaled join
// response, matching the transport's Hub interface.
func (h *Hub) JoinWire() (string, []byte, error) {
	resp := h.Join()
	data, err := json.Marshal(resp)
	return resp.ID, data, err
}

// Disconnect removes the player and its subscription.
func (h *Hub) Disconnect(id string) {
	h.Unsubscribe(id)
	h.mu.Lock()
	h.game.Leave(h.engine, id)
	h.mu.Unlock()
}

// SetIntent buffers a movement direction for the player.
func (h *Hub) SetIntent(id string, dx, dy float64) {
	h.game.SetIntent(id, geom.Vec2{X: dx, Y: dy})
}

// Subscribe registers a snapshot channel for the player. The channel receives
// marshaled state after every tick; slow consumers miss frames instead of
// stalling the loop.
func (h *Hub) Subscribe(id string, ch chan<- []byte) bool {
	if !h.game.Known(id) {
		return false
	}
	h.subMu.Lock()
	h.subscribers[id] = ch
	h.subMu.Unlock()
	return true
}

// Unsubscribe drops the player's snapshot channel.
func (h *Hub) Unsubscribe(id string) {
	h.subMu.Lock()
	delete(h.subscribers, id)
	h.subMu.Unlock()
}

// CurrentConfig returns the hub's active configuration.
func (h *Hub) CurrentConfig() Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg
}

// ApplyConfig queues new tuning; the loop applies it between ticks. Only the
// latest pending config survives.
func (h *Hub) ApplyConfig(cfg Config) {
	cfg = cfg.Normalized()
	for {
		select {
		case h.retune <- cfg:
			return
		default:
			select {
			case <-h.retune:
			default:
			}
		}
	}
}

// TelemetrySnapshot copies the metric registry.
func (h *Hub) TelemetrySnapshot() map[string]uint64 {
	return h.deps.Metrics.Snapshot()
}

// StateSnapshot marshals the current world state, for the initial frame of a
// new subscription.
func (h *Hub) StateSnapshot() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.marshalState()
}

// RunLoop drives fixed steps until stop closes.
func (h *Hub) RunLoop(stop <-chan struct{}) {
	logsimulation.EngineStarted(context.Background(), h.publisher, logsimulation.EngineStartedPayload{
		TickRate:          h.cfg.Sim.TickRate,
		ResolveIterations: h.cfg.Sim.ResolveIterations,
		FineCellSize:      h.cfg.Sim.FineCellSize,
	})

	clock := sim.NewFixedStep(h.cfg.Sim.TickRate, h.cfg.Sim.CatchupMaxTicks)
	ticker := time.NewTicker(clock.Step() / 2)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			steps, dropped := clock.Advance(now)
			if dropped > 0 {
				logsimulation.CatchupClamped(context.Background(), h.publisher, h.engine.Tick(),
					logsimulation.CatchupClampedPayload{
						DroppedTicks:  uint64(dropped),
						BacklogMillis: float64(dropped) * clock.Step().Seconds() * 1000,
					})
			}
			for i := 0; i < steps; i++ {
				h.stepOnce(clock.Step())
			}
		}
	}
}

// StepOnce advances one tick synchronously. Tests and the loop share it.
func (h *Hub) StepOnce(dt time.Duration) {
	h.stepOnce(dt)
}

func (h *Hub) stepOnce(dt time.Duration) {
	started := time.Now()

	h.mu.Lock()
	select {
	case cfg := <-h.retune:
		h.cfg = cfg
		h.engine.Retune(cfg.Sim)
		logsimulation.ConfigReloaded(context.Background(), h.publisher, h.engine.Tick(),
			logsimulation.ConfigReloadedPayload{Source: "reload"})
	default:
	}
	h.engine.Step(h.game, dt.Seconds())
	data, err := h.marshalState()
	tick := h.engine.Tick()
	h.mu.Unlock()

	if err != nil {
		h.logger.Printf("marshal state failed at tick %d: %v", tick, err)
	} else {
		h.broadcast(data)
	}

	if elapsed := time.Since(started); elapsed > dt {
		logsimulation.TickBudgetOverrun(context.Background(), h.publisher, tick,
			logsimulation.TickBudgetOverrunPayload{
				DurationMillis: elapsed.Milliseconds(),
				BudgetMillis:   dt.Milliseconds(),
				Ratio:          float64(elapsed) / float64(dt),
			})
	}
}

func (h *Hub) marshalState() ([]byte, error) {
	payload := statePayload{
		Ver:    1,
		Type:   "state",
		Tick:   h.engine.Tick(),
		Scores: h.game.Scores(),
	}
	h.engine.Store().Each(func(handle world.Handle, c *world.Chara[Kind]) {
		aabb := c.AABB()
		payload.Objects = append(payload.Objects, wireObject{
			Group: handle.Group.String(),
			Slot:  handle.Slot,
			Kind:  c.Tag().String(),
			X:     aabb.Center.X,
			Y:     aabb.Center.Y,
			W:     aabb.Size.X,
			H:     aabb.Size.Y,
		})
	})
	sort.Slice(payload.Objects, func(i, j int) bool {
		a, b := payload.Objects[i], payload.Objects[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Slot < b.Slot
	})
	return json.Marshal(payload)
}

func (h *Hub) broadcast(data []byte) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	for _, ch := range h.subscribers {
		select {
		case ch <- data:
		default:
		}
	}
}
