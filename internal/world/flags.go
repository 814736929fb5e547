package world

import "fmt"

// Flags is the collision bitset carried by physical objects.
type Flags uint8

const (
	// FlagPushable marks an object whose position the resolver may adjust.
	FlagPushable Flags = 1 << iota
	// FlagSolid marks an object that obstructs others.
	FlagSolid

	flagsMask = FlagPushable | FlagSolid
)

// IsPushable reports whether the pushable bit is set.
func (f Flags) IsPushable() bool { return f&FlagPushable != 0 }

// IsSolid reports whether the solid bit is set.
func (f Flags) IsSolid() bool { return f&FlagSolid != 0 }

// IsPushableSolid reports whether both bits are set.
func (f Flags) IsPushableSolid() bool { return f&flagsMask == flagsMask }

func (f Flags) String() string {
	switch {
	case f.IsPushableSolid():
		return "pushable|solid"
	case f.IsPushable():
		return "pushable"
	case f.IsSolid():
		return "solid"
	default:
		return "none"
	}
}

type collisionMode uint8

const (
	modeNone collisionMode = iota
	modeTrigger
	modeColliding
)

// Collision declares how an object participates in the collision pass. It is
// one of three variants: no participation, trigger-only, or colliding with a
// flags bitset.
type Collision struct {
	mode  collisionMode
	flags Flags
}

// NoCollide builds a policy for objects that are never tested.
func NoCollide() Collision { return Collision{mode: modeNone} }

// Trigger builds a policy for objects that report overlaps but never move.
func Trigger() Collision { return Collision{mode: modeTrigger} }

// Colliding builds a physical policy from a flags bitset. The bitset is
// validated by Check before the object enters the store.
func Colliding(flags Flags) Collision {
	return Collision{mode: modeColliding, flags: flags}
}

// Solid is shorthand for an immovable obstruction.
func Solid() Collision { return Colliding(FlagSolid) }

// Pushable is shorthand for a movable, non-obstructing object.
func Pushable() Collision { return Colliding(FlagPushable) }

// PushableSolid is shorthand for an object that both obstructs and moves.
func PushableSolid() Collision { return Colliding(FlagSolid | FlagPushable) }

// IsNone reports whether the object skips collision entirely.
func (c Collision) IsNone() bool { return c.mode == modeNone }

// IsTrigger reports whether the object is trigger-only.
func (c Collision) IsTrigger() bool { return c.mode == modeTrigger }

// IsColliding reports whether the object is physical.
func (c Collision) IsColliding() bool { return c.mode == modeColliding }

// Flags returns the physical bitset; zero for non-physical policies.
func (c Collision) Flags() Flags {
	if c.mode != modeColliding {
		return 0
	}
	return c.flags
}

// Check validates the policy. A colliding object with neither bit set, or
// with bits outside the mask, is a caller contract violation and panics: the
// resolver cannot produce a correct answer from a corrupt policy, so it must
// surface at creation time.
func (c Collision) Check() {
	if c.mode != modeColliding {
		return
	}
	if c.flags == 0 {
		panic("world: colliding object must be solid, pushable, or both")
	}
	if c.flags&^flagsMask != 0 {
		panic(fmt.Sprintf("world: invalid collision flags %#02x", uint8(c.flags)))
	}
}
