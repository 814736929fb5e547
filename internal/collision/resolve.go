package collision

import (
	"cmp"
	"math"

	"shovebox/server/internal/geom"
	"shovebox/server/internal/world"
)

// DefaultEpsilon is the overlap magnitude below which a penetration counts
// as already resolved.
const DefaultEpsilon = 1e-7

// PassStats summarizes one resolution pass.
type PassStats struct {
	// Contacts is the number of overlapping physical pairs queued.
	Contacts int
	// Resolved is the number of pairs that produced a displacement.
	Resolved int
	// DegenerateSkips counts pairs dropped for zero-size or non-finite
	// geometry mid-pass.
	DegenerateSkips int
	// Moved lists the handles whose position changed, for incremental index
	// updates. Valid until the next pass.
	Moved []world.Handle
}

// Resolver runs priority-ordered displacement resolution over physical
// contact pairs.
type Resolver[T cmp.Ordered] struct {
	// Epsilon bounds the penetration depth treated as resolved.
	Epsilon float64

	moved []world.Handle
}

// NewResolver returns a resolver with the given epsilon, falling back to
// DefaultEpsilon when non-positive.
func NewResolver[T cmp.Ordered](epsilon float64) *Resolver[T] {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Resolver[T]{Epsilon: epsilon}
}

// Pass performs one generate→sort→resolve iteration over the candidate
// pairs. Pairs are narrowed with the exact overlap test, queued in canonical
// order, sorted by descending penetration, and resolved with positions
// re-fetched per contact so earlier corrections in the same pass are seen.
// Displacement records accumulate on cts.Displacements.
func (r *Resolver[T]) Pass(store *world.Store[T], cts *Contacts[T], pairs [][2]world.Handle) PassStats {
	var stats PassStats
	r.moved = r.moved[:0]
	cts.pending = cts.pending[:0]

	for _, pair := range pairs {
		ca, cb, amt, hit := physicalPair(store, pair)
		if !hit {
			continue
		}
		cts.pushPhysical(pair[0], ca.Tag(), pair[1], cb.Tag(), amt)
	}

	stats.Contacts = len(cts.pending)
	cts.sortPending()

	for _, p := range cts.pending {
		ca, ok := store.Get(p.a)
		if !ok {
			continue
		}
		cb, ok := store.Get(p.b)
		if !ok {
			continue
		}
		if ca.AABB().IsDegenerate() || cb.AABB().IsDegenerate() {
			stats.DegenerateSkips++
			continue
		}
		// Re-fetch: earlier resolutions in this pass may have moved either
		// object.
		amt, hit := geom.Overlap(ca.AABB(), cb.AABB())
		if !hit || amt.X < r.Epsilon || amt.Y < r.Epsilon {
			continue
		}
		if !amt.IsFinite() {
			stats.DegenerateSkips++
			continue
		}

		signed := amt
		if ca.Pos().X < cb.Pos().X {
			signed.X = -signed.X
		}
		if ca.Pos().Y < cb.Pos().Y {
			signed.Y = -signed.Y
		}

		fa, _ := store.Flags(p.a)
		fb, _ := store.Flags(p.b)
		var moveA, moveB geom.Vec2
		switch {
		case fa.IsPushableSolid() && fb.IsPushableSolid():
			moveA = signed.Scale(0.5)
			moveB = signed.Scale(-0.5)
		case !fa.IsPushable() && fb.IsPushable():
			moveB = signed.Scale(-1)
		default:
			moveA = signed
		}

		// Resolve along whichever axis needs the least movement; ties go to
		// x so a full-height wall pushes sideways.
		if math.Abs(signed.X) <= math.Abs(signed.Y) {
			moveA.Y = 0
			moveB.Y = 0
		} else {
			moveA.X = 0
			moveB.X = 0
		}

		if !moveA.IsZero() {
			ca.SetPos(ca.Pos().Add(moveA))
			r.moved = append(r.moved, p.a)
		}
		if !moveB.IsZero() {
			cb.SetPos(cb.Pos().Add(moveB))
			r.moved = append(r.moved, p.b)
		}
		cts.Displacements = append(cts.Displacements, Displacement[T]{
			A: p.a, ATag: p.aTag,
			B: p.b, BTag: p.bTag,
			MoveA: moveA, MoveB: moveB,
		})
		stats.Resolved++
	}

	cts.pending = cts.pending[:0]
	stats.Moved = r.moved
	return stats
}

// Residual counts candidate pairs still penetrating beyond epsilon. Resting
// contact (overlap exactly zero on an axis) does not count; a pass would
// skip it anyway.
func (r *Resolver[T]) Residual(store *world.Store[T], pairs [][2]world.Handle) int {
	n := 0
	for _, pair := range pairs {
		_, _, amt, hit := physicalPair(store, pair)
		if hit && amt.X >= r.Epsilon && amt.Y >= r.Epsilon {
			n++
		}
	}
	return n
}

// physicalPair narrows one candidate to a resolvable physical pair: both
// live, at least one solid side and at least one pushable side. A pair with
// no solid side has nothing to obstruct, and a pair with no pushable side
// has nothing that can move; two static walls overlapping is a valid steady
// state. hit reports whether the boxes intersect at all.
func physicalPair[T cmp.Ordered](store *world.Store[T], pair [2]world.Handle) (ca, cb *world.Chara[T], amt geom.Vec2, hit bool) {
	if pair[0].Group != world.GroupPhysical || pair[1].Group != world.GroupPhysical {
		return nil, nil, geom.Vec2{}, false
	}
	var ok bool
	if ca, ok = store.Get(pair[0]); !ok {
		return nil, nil, geom.Vec2{}, false
	}
	if cb, ok = store.Get(pair[1]); !ok {
		return nil, nil, geom.Vec2{}, false
	}
	fa, _ := store.Flags(pair[0])
	fb, _ := store.Flags(pair[1])
	if !fa.IsSolid() && !fb.IsSolid() {
		return nil, nil, geom.Vec2{}, false
	}
	if !fa.IsPushable() && !fb.IsPushable() {
		return nil, nil, geom.Vec2{}, false
	}
	amt, hit = geom.Overlap(ca.AABB(), cb.AABB())
	return ca, cb, amt, hit
}
