package strategy

import (
	"github.com/cuemby/ringplace/pkg/hashfn"
	"github.com/cuemby/ringplace/pkg/node"
)

// JumpStrategy implements Jump consistent hashing (spec §4.4.2), grounded
// on clusterJumpData/clusterLocateJump. It holds no vnode memory: a
// bucket is simply an index into a compacted node-id array that shrinks
// when a node is removed, which is the algorithm's intrinsic movement
// trade-off versus Ketama.
type JumpStrategy struct {
	seed    uint32
	buckets []uint64 // node ids in bucket order
	dirty   bool
}

func newJump(seed uint32) *JumpStrategy {
	return &JumpStrategy{seed: seed, dirty: true}
}

func (j *JumpStrategy) Kind() Kind    { return Jump }
func (j *JumpStrategy) MarkDirty()    { j.dirty = true }
func (j *JumpStrategy) IsDirty() bool { return j.dirty }

func (j *JumpStrategy) Rebuild(nodes []*node.Node) {
	buckets := make([]uint64, len(nodes))
	for i, n := range nodes {
		buckets[i] = n.ID
	}
	j.buckets = buckets
	j.dirty = false
}

// jumpBucket is the standard jump-consistent-hash algorithm (Lamping &
// Veach): iterate a 64-bit PRNG seeded by key, tracking a candidate
// bucket, landing on the final bucket in expected O(ln N).
func jumpBucket(key uint64, numBuckets int) int {
	var b, j int64 = -1, 0
	for j < int64(numBuckets) {
		b = j
		key = key*2862933555777941757 + 1
		j = int64(float64(b+1) * (float64(int64(1)<<31) / float64((key>>33)+1)))
	}
	return int(b)
}

func (j *JumpStrategy) Locate(key []byte, maxReplicas int) []uint64 {
	if len(j.buckets) == 0 || maxReplicas <= 0 {
		return nil
	}
	out := make([]uint64, 0, maxReplicas)
	seen := make(map[uint64]bool, maxReplicas)

	h := hashfn.Hash64(key, j.seed)
	bucket := jumpBucket(h, len(j.buckets))
	id := j.buckets[bucket]
	out = append(out, id)
	seen[id] = true

	maxTries := uint32(len(j.buckets) * 8)
	for delta := uint32(1); len(out) < maxReplicas && delta <= maxTries; delta++ {
		h := hashfn.SeedPerturbed(key, j.seed, delta)
		b := jumpBucket(h, len(j.buckets))
		id := j.buckets[b]
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
