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

	"golang.org/x/crypto/blake2b"

	"github.com/junocash/go-juno/common"
)

// vm is a hashing unit bound to one context. A vm is cheap next to its
// context and is NOT safe for concurrent use; each caller works its own.
type vm struct {
	cache *cache
}

// newVM binds a fresh vm to the given context, taking a reference on it.
func newVM(c *cache) *vm {
	c.retain()
	return &vm{cache: c}
}

// rebind points the vm at a different context, swapping references. Much
// cheaper than rebuilding the context itself.
func (v *vm) rebind(c *cache) {
	if v.cache == c {
		return
	}
	c.retain()
	v.cache.release()
	v.cache = c
}

// hash computes the proof-of-work hash of data under the vm's context key.
func (v *vm) hash(data []byte) common.Hash {
	h, err := blake2b.New256(v.cache.key)
	if err != nil {
		// Only reachable with a key over 64 bytes, which newCache
		// never produces.
		panic(err)
	}
	h.Write(data)
	var out common.Hash
	h.Sum(out[:0])
	hashesCounter.Inc()
	return out
}

// close drops the vm's context reference. The vm must not be used after.
func (v *vm) close() {
	v.cache.release()
	v.cache = nil
}

// WorkerPool holds one vm per seed for a single worker goroutine. Mining
// loops hash millions of times against a stable seed; keeping the vm
// caller-owned means the hot path takes no locks at all. A WorkerPool must
// not be shared between goroutines.
type WorkerPool struct {
	rx  *RandomX
	vms map[common.Hash]*vm
}

// NewWorkerPool returns an empty pool drawing contexts from the service.
func (rx *RandomX) NewWorkerPool() *WorkerPool {
	return &WorkerPool{rx: rx, vms: make(map[common.Hash]*vm)}
}

// Hash computes the proof-of-work hash of data under the given seed,
// creating or reusing this worker's vm for it. Returns false if the
// service is shutting down.
func (p *WorkerPool) Hash(seed common.Hash, data []byte) (common.Hash, bool) {
	if !p.rx.begin() {
		return common.Hash{}, false
	}
	defer p.rx.end()

	v, ok := p.vms[seed]
	if !ok {
		c := p.rx.registry.acquire(seed)
		if c == nil {
			return common.Hash{}, false
		}
		v = newVM(c)
		c.release() // the vm holds its own reference now
		p.vms[seed] = v
		// Old epochs accumulate here only as fast as the chain crosses
		// epoch boundaries; trim when we outgrow the registry bound.
		if len(p.vms) > maxCachedSeeds {
			p.trim(seed)
		}
	}
	return v.hash(data), true
}

// trim closes every vm except the one for keep.
func (p *WorkerPool) trim(keep common.Hash) {
	for seed, v := range p.vms {
		if seed == keep {
			continue
		}
		v.close()
		delete(p.vms, seed)
	}
}

// Close releases every vm in the pool.
func (p *WorkerPool) Close() {
	for seed, v := range p.vms {
		v.close()
		delete(p.vms, seed)
	}
}

// vmFreeList recycles vms for the service's shared hashing path, where
// verification calls arrive on arbitrary goroutines. Get hands out an
// exclusive vm already bound (or rebound) to the requested seed; Put
// returns it for reuse.
type vmFreeList struct {
	mu   sync.Mutex
	free []*vm
}

func (l *vmFreeList) get(c *cache) *vm {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.free); n > 0 {
		v := l.free[n-1]
		l.free = l.free[:n-1]
		v.rebind(c)
		return v
	}
	return newVM(c)
}

func (l *vmFreeList) put(v *vm) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.free = append(l.free, v)
}

func (l *vmFreeList) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, v := range l.free {
		v.close()
	}
	l.free = nil
}
