package collision

import (
	"cmp"
	"sort"

	"shovebox/server/internal/geom"
	"shovebox/server/internal/world"
)

// Contact reports that two objects overlap. For trigger contacts Amount is
// the per-axis overlap magnitude. Pair order is canonical and part of the
// contact's identity: trigger contacts place the smaller-or-equal tag first.
type Contact[T cmp.Ordered] struct {
	A      world.Handle
	ATag   T
	B      world.Handle
	BTag   T
	Amount geom.Vec2
}

// Displacement reports how a resolved physical contact moved each object.
// The larger-or-equal tag is always first. MoveA and MoveB are single-axis
// (or zero) vectors: the correction applied to A and B respectively.
type Displacement[T cmp.Ordered] struct {
	A     world.Handle
	ATag  T
	B     world.Handle
	BTag  T
	MoveA geom.Vec2
	MoveB geom.Vec2
}

type pendingContact[T cmp.Ordered] struct {
	a, b       world.Handle
	aTag, bTag T
	amount     geom.Vec2
}

// Contacts owns the per-tick contact buffers. The slices are reused across
// ticks; Drain hands them to game logic and Clear resets them.
type Contacts[T cmp.Ordered] struct {
	Triggers      []Contact[T]
	Displacements []Displacement[T]
	pending       []pendingContact[T]
}

// NewContacts returns contact buffers with a modest initial capacity.
func NewContacts[T cmp.Ordered]() *Contacts[T] {
	return &Contacts[T]{
		Triggers:      make([]Contact[T], 0, 32),
		Displacements: make([]Displacement[T], 0, 32),
		pending:       make([]pendingContact[T], 0, 32),
	}
}

// Clear resets all buffers without releasing their storage.
func (c *Contacts[T]) Clear() {
	c.Triggers = c.Triggers[:0]
	c.Displacements = c.Displacements[:0]
	c.pending = c.pending[:0]
}

// pushPhysical queues an overlapping physical pair for resolution with the
// larger-or-equal tag first.
func (c *Contacts[T]) pushPhysical(a world.Handle, aTag T, b world.Handle, bTag T, amount geom.Vec2) {
	if aTag > bTag {
		c.pending = append(c.pending, pendingContact[T]{a: a, aTag: aTag, b: b, bTag: bTag, amount: amount})
	} else {
		c.pending = append(c.pending, pendingContact[T]{a: b, aTag: bTag, b: a, bTag: aTag, amount: amount})
	}
}

// pushTrigger records a trigger overlap with the smaller-or-equal tag first.
func (c *Contacts[T]) pushTrigger(a world.Handle, aTag T, b world.Handle, bTag T, amount geom.Vec2) {
	if aTag > bTag {
		c.Triggers = append(c.Triggers, Contact[T]{A: b, ATag: bTag, B: a, BTag: aTag, Amount: amount})
	} else {
		c.Triggers = append(c.Triggers, Contact[T]{A: a, ATag: aTag, B: b, BTag: bTag, Amount: amount})
	}
}

// sortPending orders queued physical contacts by descending squared overlap
// so the deepest penetrations resolve first. Ties break on handles so that
// resolution order never depends on broad-phase discovery order.
func (c *Contacts[T]) sortPending() {
	sort.SliceStable(c.pending, func(i, j int) bool {
		li := c.pending[i].amount.LengthSquared()
		lj := c.pending[j].amount.LengthSquared()
		if li != lj {
			return li > lj
		}
		if c.pending[i].a != c.pending[j].a {
			return c.pending[i].a.Less(c.pending[j].a)
		}
		return c.pending[i].b.Less(c.pending[j].b)
	})
}

// sortTriggers orders trigger contacts by handle pair so the dispatched
// stream is deterministic regardless of index iteration order.
func (c *Contacts[T]) sortTriggers() {
	sort.SliceStable(c.Triggers, func(i, j int) bool {
		if c.Triggers[i].A != c.Triggers[j].A {
			return c.Triggers[i].A.Less(c.Triggers[j].A)
		}
		return c.Triggers[i].B.Less(c.Triggers[j].B)
	})
}
