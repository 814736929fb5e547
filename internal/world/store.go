package world

import (
	"cmp"

	"shovebox/server/internal/geom"
)

// Store partitions simulated objects into three disjoint, independently
// indexed groups: non-colliding, trigger-only, and physical. Slots are
// append-only; kills mark a slot dead and Recycle reuses the first dead slot
// of the matching group, bounding long-run growth under churn.
type Store[T cmp.Ordered] struct {
	noCollide []Chara[T]
	triggers  []Chara[T]
	physical  []Chara[T]
	flags     []Flags
}

// NewStore returns an empty store.
func NewStore[T cmp.Ordered]() *Store[T] {
	return &Store[T]{}
}

// Create inserts a new object into the group selected by its collision
// policy and returns its handle. An invalid policy panics; see
// Collision.Check.
func (s *Store[T]) Create(tag T, aabb geom.AABB, col Collision) Handle {
	col.Check()
	chara := Chara[T]{aabb: aabb, tag: tag, live: true}
	switch {
	case col.IsNone():
		s.noCollide = append(s.noCollide, chara)
		return Handle{Group: GroupNoCollide, Slot: uint32(len(s.noCollide) - 1)}
	case col.IsTrigger():
		s.triggers = append(s.triggers, chara)
		return Handle{Group: GroupTrigger, Slot: uint32(len(s.triggers) - 1)}
	default:
		s.physical = append(s.physical, chara)
		s.flags = append(s.flags, col.Flags())
		return Handle{Group: GroupPhysical, Slot: uint32(len(s.physical) - 1)}
	}
}

// Recycle fills the first dead slot of the matching group, or appends a new
// slot if every slot is live. The policy is validated either way.
func (s *Store[T]) Recycle(tag T, aabb geom.AABB, col Collision) Handle {
	col.Check()
	chara := Chara[T]{aabb: aabb, tag: tag, live: true}
	group := s.groupSlice(groupFor(col))
	for i := range group {
		if !group[i].live {
			group[i] = chara
			if col.IsColliding() {
				s.flags[i] = col.Flags()
			}
			return Handle{Group: groupFor(col), Slot: uint32(i)}
		}
	}
	return s.Create(tag, aabb, col)
}

// Kill zeroes the slot and marks it dead. The handle stays valid; reads
// report not-found until the slot is recycled.
func (s *Store[T]) Kill(h Handle) {
	group := s.groupSlice(h.Group)
	if int(h.Slot) >= len(group) {
		return
	}
	group[h.Slot] = Chara[T]{}
}

// Get returns the object behind a handle, or false if the handle is out of
// range or the slot is dead.
func (s *Store[T]) Get(h Handle) (*Chara[T], bool) {
	group := s.groupSlice(h.Group)
	if int(h.Slot) >= len(group) {
		return nil, false
	}
	chara := &group[h.Slot]
	if !chara.live {
		return nil, false
	}
	return chara, true
}

// Flags returns the collision bitset for a live physical handle.
func (s *Store[T]) Flags(h Handle) (Flags, bool) {
	if h.Group != GroupPhysical || int(h.Slot) >= len(s.physical) {
		return 0, false
	}
	if !s.physical[h.Slot].live {
		return 0, false
	}
	return s.flags[h.Slot], true
}

// Each visits every live object across all groups. Callbacks may kill or
// recycle objects: slots killed mid-iteration are already visited or simply
// skipped by the liveness check, and a recycle that appends is seen by the
// remaining iteration, visiting the fresh object too.
func (s *Store[T]) Each(fn func(Handle, *Chara[T])) {
	s.eachGroup(GroupNoCollide, fn)
	s.eachGroup(GroupTrigger, fn)
	s.eachGroup(GroupPhysical, fn)
}

// EachTag visits live objects carrying the given tag.
func (s *Store[T]) EachTag(tag T, fn func(Handle, *Chara[T])) {
	s.Each(func(h Handle, c *Chara[T]) {
		if c.tag == tag {
			fn(h, c)
		}
	})
}

// EachPhysical visits live physical objects along with their flags.
func (s *Store[T]) EachPhysical(fn func(Handle, *Chara[T], Flags)) {
	for i := range s.physical {
		if !s.physical[i].live {
			continue
		}
		fn(Handle{Group: GroupPhysical, Slot: uint32(i)}, &s.physical[i], s.flags[i])
	}
}

// EachTrigger visits live trigger-only objects.
func (s *Store[T]) EachTrigger(fn func(Handle, *Chara[T])) {
	s.eachGroup(GroupTrigger, fn)
}

// LiveCollidable counts live objects that participate in collision testing
// (triggers plus physicals). Used to pick between the all-pairs fallback and
// the spatial index.
func (s *Store[T]) LiveCollidable() int {
	n := 0
	for i := range s.triggers {
		if s.triggers[i].live {
			n++
		}
	}
	for i := range s.physical {
		if s.physical[i].live {
			n++
		}
	}
	return n
}

func (s *Store[T]) eachGroup(g Group, fn func(Handle, *Chara[T])) {
	// Re-read the slice every step: a recycle inside fn may append and regrow
	// the group's backing array.
	for i := 0; i < len(s.groupSlice(g)); i++ {
		group := s.groupSlice(g)
		if !group[i].live {
			continue
		}
		fn(Handle{Group: g, Slot: uint32(i)}, &group[i])
	}
}

func (s *Store[T]) groupSlice(g Group) []Chara[T] {
	switch g {
	case GroupNoCollide:
		return s.noCollide
	case GroupTrigger:
		return s.triggers
	default:
		return s.physical
	}
}

func groupFor(col Collision) Group {
	switch {
	case col.IsNone():
		return GroupNoCollide
	case col.IsTrigger():
		return GroupTrigger
	default:
		return GroupPhysical
	}
}
