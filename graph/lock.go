package graph

import (
	"sort"
	"sync"

	"github.com/hupe1980/hnswgo/core"
)

// lockShardCount is the number of per-node lock shards. A fixed pool
// indexed by id mod lockShardCount is an acceptable simplification of a
// true per-node lock: collisions only cost extra contention, never
// correctness, since every mutation of a given node's neighbor lists
// always maps to the same shard.
const lockShardCount = 1 << 14

// lockPool provides two locking primitives: a structural
// reader-writer lock held shared by queries and exclusive during resize,
// and a fixed pool of per-node mutexes guarding neighbor-list/label
// mutation for a single node.
type lockPool struct {
	structural sync.RWMutex
	shards     [lockShardCount]sync.Mutex
}

func newLockPool() *lockPool {
	return &lockPool{}
}

func (p *lockPool) nodeLock(id core.LocalID) *sync.Mutex {
	return &p.shards[uint32(id)%lockShardCount]
}

// lockNodesAscending locks the shards backing the given ids in ascending
// order of shard index, deduplicating repeated shards, to prevent deadlock
// when an insertion must hold its own node lock plus one or more neighbor
// locks simultaneously. Two distinct ids can map to the same shard, and
// with more than lockShardCount live nodes ascending-by-id order no longer
// implies ascending-by-shard order, so both the dedup and the sort must
// operate on the shard index, not the id.
//
// It returns an unlock function that releases every shard it acquired,
// in reverse order.
func (p *lockPool) lockNodesAscending(ids ...core.LocalID) func() {
	shardOf := make([]uint32, len(ids))
	for i, id := range ids {
		shardOf[i] = uint32(id) % lockShardCount
	}
	sort.Slice(shardOf, func(i, j int) bool { return shardOf[i] < shardOf[j] })

	unique := make([]uint32, 0, len(shardOf))
	for i, shard := range shardOf {
		if i > 0 && shard == shardOf[i-1] {
			continue
		}
		unique = append(unique, shard)
	}

	locked := make([]*sync.Mutex, 0, len(unique))
	for _, shard := range unique {
		m := &p.shards[shard]
		m.Lock()
		locked = append(locked, m)
	}

	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}
}
