package collision

import (
	"math"

	"shovebox/server/internal/geom"
	"shovebox/server/internal/world"
)

const (
	// DefaultFineCellSize matches typical object extents.
	DefaultFineCellSize = 32.0
	// DefaultCoarseFactor is the fine-to-coarse cell size multiple.
	DefaultCoarseFactor = 4
)

type cellKey struct {
	X int32
	Y int32
}

// gridEntry is one arena slot. Live entries chain through next within their
// fine cell; free slots chain through next on the free list. Indices into
// the arena stand in for pointers.
type gridEntry struct {
	handle world.Handle
	aabb   geom.AABB
	cell   cellKey
	next   int32
	live   bool
}

type fineCell struct {
	head   int32
	count  int
	bounds geom.AABB
}

// Grid is the two-level spatial hash used to narrow all-pairs testing. Fine
// cells hold free-list-backed entry lists keyed by object center plus a
// bounding box covering every member AABB; coarse cells reference the fine
// cells whose bounds intersect them. The grid is a filter only: every
// candidate pair must still pass the exact overlap test.
type Grid struct {
	fineSize   float64
	coarseSize float64

	arena    []gridEntry
	freeHead int32
	freeLen  int

	fine   map[cellKey]*fineCell
	coarse map[cellKey]map[cellKey]struct{}
	index  map[world.Handle]int32
}

// NewGrid builds an empty index. Non-positive sizes fall back to defaults.
func NewGrid(fineSize float64, coarseFactor int) *Grid {
	if fineSize <= 0 {
		fineSize = DefaultFineCellSize
	}
	if coarseFactor < 2 {
		coarseFactor = DefaultCoarseFactor
	}
	return &Grid{
		fineSize:   fineSize,
		coarseSize: fineSize * float64(coarseFactor),
		freeHead:   -1,
		fine:       make(map[cellKey]*fineCell),
		coarse:     make(map[cellKey]map[cellKey]struct{}),
		index:      make(map[world.Handle]int32),
	}
}

// Len reports the number of indexed objects.
func (g *Grid) Len() int { return len(g.index) }

// Reset drops every entry while keeping allocated storage.
func (g *Grid) Reset() {
	g.arena = g.arena[:0]
	g.freeHead = -1
	g.freeLen = 0
	for k := range g.fine {
		delete(g.fine, k)
	}
	for k := range g.coarse {
		delete(g.coarse, k)
	}
	for k := range g.index {
		delete(g.index, k)
	}
}

// Insert adds an object keyed by the fine cell containing its AABB center.
// Inserting an already-indexed handle relocates it.
func (g *Grid) Insert(h world.Handle, aabb geom.AABB) {
	if _, ok := g.index[h]; ok {
		g.Update(h, aabb)
		return
	}
	g.insert(h, aabb)
}

// Update relocates an entry whose cell membership changed since its last
// position, or refreshes its AABB and cell bounds in place. Unknown handles
// are inserted.
func (g *Grid) Update(h world.Handle, aabb geom.AABB) {
	idx, ok := g.index[h]
	if !ok {
		g.insert(h, aabb)
		return
	}
	entry := &g.arena[idx]
	key := g.fineKey(aabb.Center)
	if key == entry.cell {
		entry.aabb = aabb
		cell := g.fine[key]
		cell.bounds = unionAABB(cell.bounds, aabb)
		g.registerCoarse(key, cell.bounds)
		return
	}
	g.Remove(h)
	g.insert(h, aabb)
}

// Remove unlinks an entry and returns its arena slot to the free list. The
// vacated cell's bounds are recomputed from the remaining members.
func (g *Grid) Remove(h world.Handle) {
	idx, ok := g.index[h]
	if !ok {
		return
	}
	entry := &g.arena[idx]
	cell := g.fine[entry.cell]
	prev := int32(-1)
	for cur := cell.head; cur >= 0; cur = g.arena[cur].next {
		if cur == idx {
			if prev < 0 {
				cell.head = g.arena[cur].next
			} else {
				g.arena[prev].next = g.arena[cur].next
			}
			break
		}
		prev = cur
	}
	cell.count--
	g.recomputeBounds(entry.cell)
	entry.live = false
	entry.next = g.freeHead
	g.freeHead = idx
	g.freeLen++
	delete(g.index, h)
}

// Shrink compacts the index: empty fine cells and stale coarse references
// are dropped, and when free-list fragmentation passes half the arena the
// whole structure is rebuilt from its live entries. Live objects are always
// preserved.
func (g *Grid) Shrink() {
	if g.freeLen*2 >= len(g.arena) && g.freeLen > 0 {
		g.rebuildFromLive()
		return
	}
	for key, cell := range g.fine {
		if cell.count <= 0 {
			delete(g.fine, key)
		}
	}
	for key, refs := range g.coarse {
		for fk := range refs {
			cell, ok := g.fine[fk]
			if !ok || cell.count <= 0 || !g.coarseCovers(key, cell.bounds) {
				delete(refs, fk)
			}
		}
		if len(refs) == 0 {
			delete(g.coarse, key)
		}
	}
}

// CandidatePairs appends every potentially overlapping pair of indexed
// objects to out and returns it. Pairs reachable through several shared
// coarse cells are emitted once. Output order is not specified; callers
// needing determinism must sort downstream.
func (g *Grid) CandidatePairs(out [][2]world.Handle) [][2]world.Handle {
	seen := make(map[[2]cellKey]struct{})
	for _, refs := range g.coarse {
		keys := make([]cellKey, 0, len(refs))
		for fk := range refs {
			if cell, ok := g.fine[fk]; ok && cell.count > 0 {
				keys = append(keys, fk)
			}
		}
		for i, ka := range keys {
			ca := g.fine[ka]
			out = g.cellSelfPairs(ka, out, seen)
			for _, kb := range keys[i+1:] {
				cb := g.fine[kb]
				pair := orderCellPair(ka, kb)
				if _, done := seen[pair]; done {
					continue
				}
				seen[pair] = struct{}{}
				if !boundsOverlap(ca.bounds, cb.bounds) {
					continue
				}
				for ae := ca.head; ae >= 0; ae = g.arena[ae].next {
					for be := cb.head; be >= 0; be = g.arena[be].next {
						out = append(out, [2]world.Handle{g.arena[ae].handle, g.arena[be].handle})
					}
				}
			}
		}
	}
	return out
}

func (g *Grid) cellSelfPairs(key cellKey, out [][2]world.Handle, seen map[[2]cellKey]struct{}) [][2]world.Handle {
	pair := [2]cellKey{key, key}
	if _, done := seen[pair]; done {
		return out
	}
	seen[pair] = struct{}{}
	cell := g.fine[key]
	for ae := cell.head; ae >= 0; ae = g.arena[ae].next {
		for be := g.arena[ae].next; be >= 0; be = g.arena[be].next {
			out = append(out, [2]world.Handle{g.arena[ae].handle, g.arena[be].handle})
		}
	}
	return out
}

func (g *Grid) insert(h world.Handle, aabb geom.AABB) {
	key := g.fineKey(aabb.Center)
	idx := g.alloc()
	cell, ok := g.fine[key]
	if !ok {
		cell = &fineCell{head: -1}
		g.fine[key] = cell
	}
	g.arena[idx] = gridEntry{handle: h, aabb: aabb, cell: key, next: cell.head, live: true}
	cell.head = idx
	if cell.count == 0 {
		cell.bounds = aabb
	} else {
		cell.bounds = unionAABB(cell.bounds, aabb)
	}
	cell.count++
	g.registerCoarse(key, cell.bounds)
	g.index[h] = idx
}

func (g *Grid) alloc() int32 {
	if g.freeHead >= 0 {
		idx := g.freeHead
		g.freeHead = g.arena[idx].next
		g.freeLen--
		return idx
	}
	g.arena = append(g.arena, gridEntry{})
	return int32(len(g.arena) - 1)
}

func (g *Grid) rebuildFromLive() {
	type liveEntry struct {
		handle world.Handle
		aabb   geom.AABB
	}
	entries := make([]liveEntry, 0, len(g.index))
	for h, idx := range g.index {
		entries = append(entries, liveEntry{handle: h, aabb: g.arena[idx].aabb})
	}
	g.Reset()
	for _, e := range entries {
		g.insert(e.handle, e.aabb)
	}
}

func (g *Grid) recomputeBounds(key cellKey) {
	cell, ok := g.fine[key]
	if !ok || cell.count <= 0 {
		return
	}
	first := true
	for cur := cell.head; cur >= 0; cur = g.arena[cur].next {
		if first {
			cell.bounds = g.arena[cur].aabb
			first = false
			continue
		}
		cell.bounds = unionAABB(cell.bounds, g.arena[cur].aabb)
	}
}

// registerCoarse records the fine cell in every coarse cell its bounds
// intersect. Stale references left by shrinking bounds are tolerated (the
// grid is a filter) and pruned by Shrink.
func (g *Grid) registerCoarse(fine cellKey, bounds geom.AABB) {
	r := bounds.Rect()
	minX := int32(math.Floor(r.Corner.X / g.coarseSize))
	maxX := int32(math.Floor((r.Corner.X + r.Size.X) / g.coarseSize))
	minY := int32(math.Floor(r.Corner.Y / g.coarseSize))
	maxY := int32(math.Floor((r.Corner.Y + r.Size.Y) / g.coarseSize))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			key := cellKey{X: x, Y: y}
			refs, ok := g.coarse[key]
			if !ok {
				refs = make(map[cellKey]struct{})
				g.coarse[key] = refs
			}
			refs[fine] = struct{}{}
		}
	}
}

func (g *Grid) coarseCovers(key cellKey, bounds geom.AABB) bool {
	r := bounds.Rect()
	minX := int32(math.Floor(r.Corner.X / g.coarseSize))
	maxX := int32(math.Floor((r.Corner.X + r.Size.X) / g.coarseSize))
	minY := int32(math.Floor(r.Corner.Y / g.coarseSize))
	maxY := int32(math.Floor((r.Corner.Y + r.Size.Y) / g.coarseSize))
	return key.X >= minX && key.X <= maxX && key.Y >= minY && key.Y <= maxY
}

func (g *Grid) fineKey(center geom.Vec2) cellKey {
	return cellKey{
		X: int32(math.Floor(center.X / g.fineSize)),
		Y: int32(math.Floor(center.Y / g.fineSize)),
	}
}

func orderCellPair(a, b cellKey) [2]cellKey {
	if a.Y < b.Y || (a.Y == b.Y && a.X <= b.X) {
		return [2]cellKey{a, b}
	}
	return [2]cellKey{b, a}
}

func unionAABB(a, b geom.AABB) geom.AABB {
	ra := a.Rect()
	rb := b.Rect()
	minX := math.Min(ra.Corner.X, rb.Corner.X)
	minY := math.Min(ra.Corner.Y, rb.Corner.Y)
	maxX := math.Max(ra.Corner.X+ra.Size.X, rb.Corner.X+rb.Size.X)
	maxY := math.Max(ra.Corner.Y+ra.Size.Y, rb.Corner.Y+rb.Size.Y)
	return geom.Rect{
		Corner: geom.Vec2{X: minX, Y: minY},
		Size:   geom.Vec2{X: maxX - minX, Y: maxY - minY},
	}.AABB()
}

// boundsOverlap is the loose cell-bounds test; touching counts so borderline
// pairs still reach the exact narrow phase.
func boundsOverlap(a, b geom.AABB) bool {
	ra := a.Rect()
	rb := b.Rect()
	return ra.Corner.X <= rb.Corner.X+rb.Size.X &&
		rb.Corner.X <= ra.Corner.X+ra.Size.X &&
		ra.Corner.Y <= rb.Corner.Y+rb.Size.Y &&
		rb.Corner.Y <= ra.Corner.Y+ra.Size.Y
}
