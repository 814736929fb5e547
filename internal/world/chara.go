package world

import (
	"cmp"
	"fmt"

	"shovebox/server/internal/geom"
)

// Group identifies which of the three disjoint stores a handle belongs to.
type Group uint8

const (
	GroupNoCollide Group = iota
	GroupTrigger
	GroupPhysical
)

func (g Group) String() string {
	switch g {
	case GroupNoCollide:
		return "nocollide"
	case GroupTrigger:
		return "trigger"
	case GroupPhysical:
		return "physical"
	default:
		return fmt.Sprintf("group(%d)", uint8(g))
	}
}

// Handle is a stable reference to a slot within one group. Handles stay valid
// across kills; the slot simply reads as dead until recycled.
type Handle struct {
	Group Group  `json:"group"`
	Slot  uint32 `json:"slot"`
}

// Less orders handles by (group, slot). Used for deterministic tie-breaks.
func (h Handle) Less(o Handle) bool {
	if h.Group != o.Group {
		return h.Group < o.Group
	}
	return h.Slot < o.Slot
}

// Chara is one simulated object. Tags are supplied by the game layer; the
// engine only ever compares them. Payload carries renderer-facing data the
// engine treats as opaque.
type Chara[T cmp.Ordered] struct {
	aabb geom.AABB
	vel  geom.Vec2
	tag  T
	live bool

	Payload any
}

// Pos returns the center of the object's AABB.
func (c *Chara[T]) Pos() geom.Vec2 { return c.aabb.Center }

// SetPos moves the object's AABB center.
func (c *Chara[T]) SetPos(p geom.Vec2) { c.aabb.Center = p }

// AABB returns the object's bounding box.
func (c *Chara[T]) AABB() geom.AABB { return c.aabb }

// SetAABB replaces the object's bounding box.
func (c *Chara[T]) SetAABB(b geom.AABB) { c.aabb = b }

// Vel returns the object's velocity in units per second.
func (c *Chara[T]) Vel() geom.Vec2 { return c.vel }

// SetVel replaces the object's velocity.
func (c *Chara[T]) SetVel(v geom.Vec2) { c.vel = v }

// Tag returns the game-layer tag. Only meaningful while the slot is live.
func (c *Chara[T]) Tag() T { return c.tag }

// Live reports whether the slot holds a live object.
func (c *Chara[T]) Live() bool { return c.live }
