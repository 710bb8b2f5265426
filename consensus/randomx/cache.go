// Copyright 2025 The go-juno Authors
// This file is part of the go-juno library.
//
// The go-juno library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-juno library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-juno library. If not, see <http://www.gnu.org/licenses/>.

package randomx

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/junocash/go-juno/common"
)

// maxCachedSeeds bounds the registry. Honest nodes need at most two
// contexts (current and next epoch during the lag window); the remaining
// slots absorb reorgs across an epoch boundary without letting a peer
// feeding us headers from many epochs exhaust memory.
const maxCachedSeeds = 5

// Argon2id parameters for expanding a seed into context key material.
// Initialisation is deliberately expensive so the per-seed cost dominates
// over the per-hash cost, matching the asymmetry of the real dataset build.
const (
	cacheKeyLen = 64 // max key size accepted by the keyed hash

	fullMemoryKiB = 64 * 1024
	fullPasses    = 3

	lightMemoryKiB = 64
	lightPasses    = 1
)

var cacheSalt = []byte("junocash/randomx/cache/v1")

// cache is an initialised hashing context keyed by one epoch seed. The key
// material is immutable once built; refcounting tracks workers that are
// mid-hash so teardown can wait for them.
type cache struct {
	seed     common.Hash
	key      []byte
	refs     int32 // atomic
	lastUsed int64 // unix nanos, written under the registry lock
}

func newCache(seed common.Hash, light bool) *cache {
	start := time.Now()
	memory, passes := uint32(fullMemoryKiB), uint32(fullPasses)
	if light {
		memory, passes = lightMemoryKiB, lightPasses
	}
	key := argon2.IDKey(seed[:], cacheSalt, passes, memory, 1, cacheKeyLen)
	cacheBuildsCounter.Inc()
	cacheBuildTimer.Observe(time.Since(start).Seconds())
	return &cache{seed: seed, key: key, refs: 1}
}

func (c *cache) retain() {
	atomic.AddInt32(&c.refs, 1)
}

// release drops one reference and zeroes the key material once nothing
// holds the cache anymore.
func (c *cache) release() {
	if atomic.AddInt32(&c.refs, -1) == 0 {
		for i := range c.key {
			c.key[i] = 0
		}
	}
}

// registry owns every live hashing context, keyed by seed. A single mutex
// guards the map; context construction happens under it, so concurrent
// requests for the same seed block rather than building twice. That trades
// latency on the (rare, epoch-scale) build path for a design with no
// in-flight build tracking.
type registry struct {
	mu     sync.Mutex
	caches map[common.Hash]*cache
	light  bool
	closed bool
	log    logger
}

func newRegistry(light bool, log logger) *registry {
	return &registry{
		caches: make(map[common.Hash]*cache, maxCachedSeeds),
		light:  light,
		log:    log,
	}
}

// acquire returns the context for the given seed, building it on a miss.
// The returned cache carries a reference owned by the caller, who must
// release it when done hashing. Returns nil after close.
func (r *registry) acquire(seed common.Hash) *cache {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	if c, ok := r.caches[seed]; ok {
		c.lastUsed = time.Now().UnixNano()
		c.retain()
		return c
	}
	if len(r.caches) >= maxCachedSeeds {
		r.evictOldest()
	}
	r.log.Info("Building hashing context", "seed", seed.TerminalString(), "light", r.light)
	c := newCache(seed, r.light) // refs=1 held by the registry
	c.lastUsed = time.Now().UnixNano()
	r.caches[seed] = c
	cachesLiveGauge.Set(float64(len(r.caches)))
	c.retain()
	return c
}

// evictOldest drops the least recently used context. Callers hold r.mu.
// A worker still hashing against the evicted context keeps it alive
// through its own reference; only the registry's reference is released.
func (r *registry) evictOldest() {
	var (
		victim *cache
		oldest int64
	)
	for _, c := range r.caches {
		if victim == nil || c.lastUsed < oldest {
			victim, oldest = c, c.lastUsed
		}
	}
	if victim == nil {
		return
	}
	delete(r.caches, victim.seed)
	cacheEvictionsCounter.Inc()
	cachesLiveGauge.Set(float64(len(r.caches)))
	r.log.Debug("Evicted hashing context", "seed", victim.seed.TerminalString())
	victim.release()
}

// len reports the number of live contexts, for diagnostics and tests.
func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.caches)
}

// contains reports whether a context for the seed is live.
func (r *registry) contains(seed common.Hash) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.caches[seed]
	return ok
}

// seeds returns the seeds of the live contexts, for diagnostics.
func (r *registry) seeds() []common.Hash {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]common.Hash, 0, len(r.caches))
	for seed := range r.caches {
		out = append(out, seed)
	}
	return out
}

// close releases every registry-held reference and rejects further
// acquires. Workers that drained before close have already released
// theirs, so key material is zeroed here in the common case.
func (r *registry) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for seed, c := range r.caches {
		delete(r.caches, seed)
		c.release()
	}
	cachesLiveGauge.Set(0)
}
