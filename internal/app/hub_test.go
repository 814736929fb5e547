package app

import (
	"encoding/json"
	"testing"
	"time"

	"shovebox/server/internal/sim"
	"shovebox/server/internal/world"
	"shovebox/server/logging"
)

func newTestHub(t *testing.T, mutate func(*Config)) *Hub {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Arena.Shovers = 0 // keep outcomes deterministic
	if mutate != nil {
		mutate(&cfg)
	}
	return NewHub(cfg, sim.Deps{Metrics: logging.NewMetrics()})
}

func stepDuration(h *Hub) time.Duration {
	return time.Second / time.Duration(h.CurrentConfig().Sim.TickRate)
}

func TestJoinCreatesPlayer(t *testing.T) {
	hub := newTestHub(t, nil)
	resp := hub.Join()
	if resp.ID != "player-1" {
		t.Fatalf("id = %q", resp.ID)
	}
	if resp.Handle.Group != world.GroupPhysical {
		t.Fatalf("player should be physical, got %v", resp.Handle.Group)
	}
	if _, ok := hub.engine.Store().Get(resp.Handle); !ok {
		t.Fatalf("player object missing")
	}
}

func TestIntentMovesPlayer(t *testing.T) {
	hub := newTestHub(t, func(cfg *Config) {
		cfg.Arena.Crates = 0
		cfg.Arena.Coins = 0
	})
	resp := hub.Join()

	before, _ := hub.engine.Store().Get(resp.Handle)
	startX := before.Pos().X

	hub.SetIntent(resp.ID, 1, 0)
	hub.StepOnce(stepDuration(hub))

	after, _ := hub.engine.Store().Get(resp.Handle)
	if after.Pos().X <= startX {
		t.Fatalf("player did not move right: %v -> %v", startX, after.Pos().X)
	}
}

func TestCoinCollectionScoresAndRespawns(t *testing.T) {
	hub := newTestHub(t, func(cfg *Config) {
		cfg.Arena.Crates = 0
		cfg.Arena.Coins = 1
	})
	resp := hub.Join()

	var coin world.Handle
	found := false
	hub.engine.Store().EachTag(KindCoin, func(h world.Handle, _ *world.Chara[Kind]) {
		coin = h
		found = true
	})
	if !found {
		t.Fatalf("no coin spawned")
	}

	// Park the player on the coin and tick once.
	coinChara, _ := hub.engine.Store().Get(coin)
	coinPos := coinChara.Pos()
	player, _ := hub.engine.Store().Get(resp.Handle)
	player.SetPos(coinPos)
	hub.StepOnce(stepDuration(hub))

	if got := hub.game.Scores()[resp.ID]; got != 1 {
		t.Fatalf("score = %d, want 1", got)
	}
	// The coin respawned into the same slot somewhere else.
	respawned, ok := hub.engine.Store().Get(coin)
	if !ok {
		t.Fatalf("coin slot not recycled")
	}
	if respawned.Pos() == coinPos {
		t.Fatalf("coin did not move on respawn")
	}
	if hub.TelemetrySnapshot()["game_coins_collected_total"] != 1 {
		t.Fatalf("collection metric missing")
	}
}

func TestSnapshotListsLiveObjects(t *testing.T) {
	hub := newTestHub(t, func(cfg *Config) {
		cfg.Arena.Crates = 2
		cfg.Arena.Coins = 1
	})
	hub.Join()

	data, err := hub.StateSnapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	var state statePayload
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	counts := map[string]int{}
	for _, obj := range state.Objects {
		counts[obj.Kind]++
	}
	if counts["wall"] != 4 || counts["crate"] != 2 || counts["coin"] != 1 || counts["player"] != 1 {
		t.Fatalf("unexpected object counts %v", counts)
	}
}

func TestBroadcastReachesSubscriber(t *testing.T) {
	hub := newTestHub(t, nil)
	resp := hub.Join()

	ch := make(chan []byte, 4)
	if !hub.Subscribe(resp.ID, ch) {
		t.Fatalf("subscribe refused")
	}
	hub.StepOnce(stepDuration(hub))

	select {
	case data := <-ch:
		var state statePayload
		if err := json.Unmarshal(data, &state); err != nil {
			t.Fatalf("decode broadcast: %v", err)
		}
		if state.Tick != 1 {
			t.Fatalf("tick = %d, want 1", state.Tick)
		}
	default:
		t.Fatalf("no broadcast delivered")
	}
}

func TestSubscribeUnknownPlayerRefused(t *testing.T) {
	hub := newTestHub(t, nil)
	if hub.Subscribe("ghost", make(chan []byte, 1)) {
		t.Fatalf("unknown player accepted")
	}
}

func TestApplyConfigRetunesBetweenTicks(t *testing.T) {
	hub := newTestHub(t, nil)
	next := hub.CurrentConfig()
	next.Sim.ResolveIterations = 3
	hub.ApplyConfig(next)

	hub.StepOnce(stepDuration(hub))
	if got := hub.CurrentConfig().Sim.ResolveIterations; got != 3 {
		t.Fatalf("resolve iterations = %d, want 3", got)
	}
}

func TestDisconnectRemovesPlayer(t *testing.T) {
	hub := newTestHub(t, nil)
	resp := hub.Join()
	hub.Disconnect(resp.ID)
	if _, ok := hub.engine.Store().Get(resp.Handle); ok {
		t.Fatalf("player object survived disconnect")
	}
	if hub.game.Known(resp.ID) {
		t.Fatalf("player identity survived disconnect")
	}
}
