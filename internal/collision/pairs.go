package collision

import (
	"cmp"

	"shovebox/server/internal/world"
)

// AllPairs appends every unordered pair of live collidable objects (triggers
// and physicals) to out. It is the correct-and-simple broad phase for small
// object counts; the contract downstream (exact overlap plus canonical
// ordering) is identical to the grid's.
func AllPairs[T cmp.Ordered](store *world.Store[T], out [][2]world.Handle) [][2]world.Handle {
	handles := make([]world.Handle, 0, store.LiveCollidable())
	store.EachTrigger(func(h world.Handle, _ *world.Chara[T]) {
		handles = append(handles, h)
	})
	store.EachPhysical(func(h world.Handle, _ *world.Chara[T], _ world.Flags) {
		handles = append(handles, h)
	})
	for i := range handles {
		for j := i + 1; j < len(handles); j++ {
			out = append(out, [2]world.Handle{handles[i], handles[j]})
		}
	}
	return out
}
