package world

import (
	"testing"

	"shovebox/server/internal/geom"
)

type kind uint8

const (
	kindCoin kind = iota
	kindPlayer
	kindCrate
	kindWall
)

func box(cx, cy, w, h float64) geom.AABB {
	return geom.AABB{Center: geom.Vec2{X: cx, Y: cy}, Size: geom.Vec2{X: w, Y: h}}
}

func TestCreateAssignsGroups(t *testing.T) {
	s := NewStore[kind]()
	decor := s.Create(kindWall, box(0, 0, 8, 8), NoCollide())
	coin := s.Create(kindCoin, box(4, 4, 8, 8), Trigger())
	wall := s.Create(kindWall, box(8, 8, 8, 8), Solid())

	if decor.Group != GroupNoCollide || coin.Group != GroupTrigger || wall.Group != GroupPhysical {
		t.Fatalf("unexpected groups: %v %v %v", decor, coin, wall)
	}
	if decor.Slot != 0 || coin.Slot != 0 || wall.Slot != 0 {
		t.Fatalf("groups must be independently indexed: %v %v %v", decor, coin, wall)
	}

	flags, ok := s.Flags(wall)
	if !ok || !flags.IsSolid() || flags.IsPushable() {
		t.Fatalf("expected solid-only flags, got %v ok=%v", flags, ok)
	}
	if _, ok := s.Flags(coin); ok {
		t.Fatalf("trigger handles must not report flags")
	}
}

func TestInvalidFlagsPanic(t *testing.T) {
	s := NewStore[kind]()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for colliding policy with zero flags")
		}
	}()
	s.Create(kindCrate, box(0, 0, 8, 8), Colliding(0))
}

func TestKillThenGetReportsNotFound(t *testing.T) {
	s := NewStore[kind]()
	h := s.Create(kindCrate, box(0, 0, 8, 8), PushableSolid())
	if _, ok := s.Get(h); !ok {
		t.Fatalf("expected live slot")
	}
	s.Kill(h)
	if _, ok := s.Get(h); ok {
		t.Fatalf("dead slot must read as not found")
	}
	if _, ok := s.Flags(h); ok {
		t.Fatalf("dead slot must not report flags")
	}
}

func TestRecycleReusesFirstDeadSlot(t *testing.T) {
	s := NewStore[kind]()
	a := s.Create(kindCrate, box(0, 0, 8, 8), PushableSolid())
	b := s.Create(kindCrate, box(10, 0, 8, 8), PushableSolid())
	c := s.Create(kindCrate, box(20, 0, 8, 8), PushableSolid())
	s.Kill(b)

	reused := s.Recycle(kindPlayer, box(30, 0, 8, 8), Pushable())
	if reused != b {
		t.Fatalf("expected recycle to fill slot %v, got %v", b, reused)
	}
	chara, ok := s.Get(reused)
	if !ok || chara.Tag() != kindPlayer {
		t.Fatalf("recycled slot should carry new tag, got %v ok=%v", chara, ok)
	}
	flags, _ := s.Flags(reused)
	if flags.IsSolid() || !flags.IsPushable() {
		t.Fatalf("recycled slot should carry new flags, got %v", flags)
	}

	appended := s.Recycle(kindCrate, box(40, 0, 8, 8), PushableSolid())
	if appended.Slot != 3 {
		t.Fatalf("with no dead slots recycle must append, got %v", appended)
	}
	_ = a
	_ = c
}

func TestEachSkipsDeadAndToleratesKills(t *testing.T) {
	s := NewStore[kind]()
	handles := make([]Handle, 0, 4)
	for i := 0; i < 4; i++ {
		handles = append(handles, s.Create(kindCrate, box(float64(i)*10, 0, 8, 8), PushableSolid()))
	}
	s.Kill(handles[1])

	seen := 0
	s.Each(func(h Handle, c *Chara[kind]) {
		seen++
		// Killing a later slot mid-iteration must simply make it absent.
		if h == handles[0] {
			s.Kill(handles[2])
		}
	})
	if seen != 2 {
		t.Fatalf("expected 2 visits (one pre-dead, one killed mid-iteration), got %d", seen)
	}
}

func TestEachToleratesRecycleGrowth(t *testing.T) {
	s := NewStore[kind]()
	a := s.Create(kindCrate, box(0, 0, 8, 8), PushableSolid())
	b := s.Create(kindCrate, box(10, 0, 8, 8), PushableSolid())

	seen := 0
	s.Each(func(h Handle, c *Chara[kind]) {
		seen++
		// Every slot is live, so this recycle appends and regrows the
		// group's backing array mid-iteration.
		if h == a {
			s.Recycle(kindCrate, box(20, 0, 8, 8), PushableSolid())
		}
		c.SetVel(geom.Vec2{X: float64(seen)})
	})

	if seen != 3 {
		t.Fatalf("expected the appended slot to be visited, got %d visits", seen)
	}
	chara, ok := s.Get(b)
	if !ok {
		t.Fatalf("original slot vanished")
	}
	if chara.Vel().X != 2 {
		t.Fatalf("visitor mutation lost to a stale backing array: vel=%v", chara.Vel())
	}
}

func TestEachTagFilters(t *testing.T) {
	s := NewStore[kind]()
	s.Create(kindWall, box(0, 0, 8, 8), Solid())
	s.Create(kindCrate, box(10, 0, 8, 8), PushableSolid())
	s.Create(kindCrate, box(20, 0, 8, 8), NoCollide())

	count := 0
	s.EachTag(kindCrate, func(Handle, *Chara[kind]) { count++ })
	if count != 2 {
		t.Fatalf("expected 2 crates across groups, got %d", count)
	}
}

func TestLiveCollidableExcludesNoCollideAndDead(t *testing.T) {
	s := NewStore[kind]()
	s.Create(kindWall, box(0, 0, 8, 8), NoCollide())
	s.Create(kindCoin, box(0, 0, 8, 8), Trigger())
	h := s.Create(kindCrate, box(0, 0, 8, 8), PushableSolid())
	if got := s.LiveCollidable(); got != 2 {
		t.Fatalf("expected 2 collidable, got %d", got)
	}
	s.Kill(h)
	if got := s.LiveCollidable(); got != 1 {
		t.Fatalf("expected 1 collidable after kill, got %d", got)
	}
}

func TestOutOfRangeHandleIsNotFound(t *testing.T) {
	s := NewStore[kind]()
	if _, ok := s.Get(Handle{Group: GroupPhysical, Slot: 99}); ok {
		t.Fatalf("out-of-range read must be not found")
	}
	// Kill on an out-of-range handle is a no-op.
	s.Kill(Handle{Group: GroupTrigger, Slot: 42})
}
