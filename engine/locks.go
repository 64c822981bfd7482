package engine

import (
	"hash/fnv"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const lockShards = 64

// pairLocks serializes concurrent toggles on the same (profile, target)
// pair. Striped so unrelated pairs rarely contend; no ordering guarantee is
// needed across different pairs.
type pairLocks struct {
	shards [lockShards]sync.Mutex
}

func (l *pairLocks) lock(a, b primitive.ObjectID) func() {
	h := fnv.New32a()
	h.Write(a[:])
	h.Write(b[:])
	shard := &l.shards[h.Sum32()%lockShards]
	shard.Lock()
	return shard.Unlock
}
