package collision

import (
	"cmp"

	"shovebox/server/internal/geom"
	"shovebox/server/internal/world"
)

// GatherTriggers scans candidate pairs for trigger×trigger and
// trigger×physical overlaps and records them in canonical order (smaller
// tag first). Nothing is moved; trigger contacts never join the resolution
// queue. Call after physical resolution so trigger tests see post-resolution
// positions.
func GatherTriggers[T cmp.Ordered](store *world.Store[T], cts *Contacts[T], pairs [][2]world.Handle) {
	for _, pair := range pairs {
		if !triggerPair(pair) {
			continue
		}
		ca, ok := store.Get(pair[0])
		if !ok {
			continue
		}
		cb, ok := store.Get(pair[1])
		if !ok {
			continue
		}
		amt, hit := geom.Overlap(ca.AABB(), cb.AABB())
		if !hit {
			continue
		}
		cts.pushTrigger(pair[0], ca.Tag(), pair[1], cb.Tag(), amt)
	}
	cts.sortTriggers()
}

func triggerPair(pair [2]world.Handle) bool {
	if pair[0].Group == world.GroupNoCollide || pair[1].Group == world.GroupNoCollide {
		return false
	}
	return pair[0].Group == world.GroupTrigger || pair[1].Group == world.GroupTrigger
}
