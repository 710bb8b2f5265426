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

// Package randomx implements the proof-of-work engine of the Juno chain:
// an epoch-seeded memory-hard hash, the registry of per-seed hashing
// contexts, difficulty retargeting and header verification.
package randomx

import (
	"errors"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	log "github.com/inconshreveable/log15"

	"github.com/junocash/go-juno/common"
)

type logger = log.Logger

// ErrServiceStopped is returned by hashing operations issued after
// Shutdown has begun.
var ErrServiceStopped = errors.New("randomx: service stopped")

// Size of the verification result caches. Covers deep reorgs without
// re-verifying, while staying small next to one hashing context.
const solutionCacheSize = 4096

// fakeMode selects how much verification a test engine skips.
type fakeMode int

const (
	modeNormal fakeMode = iota
	modeFake            // accept any well-formed solution
	modeFullFake        // accept everything
)

// Config tunes a RandomX service. The zero value is a production engine.
type Config struct {
	// LightMode shrinks context initialisation for tests and low-memory
	// verification-only nodes. Hashes differ from full mode contexts
	// in no way; only the build cost changes.
	LightMode bool

	// EpochLength and EpochLag override the production epoch geometry.
	// Zero means the network defaults. Only regression test harnesses
	// should touch these; they are consensus parameters.
	EpochLength uint64
	EpochLag    uint64

	Log logger
}

// RandomX is the proof-of-work service. One instance is shared by the
// miner, the block validator and the RPC layer; all exported methods are
// safe for concurrent use except where noted (WorkerPool).
type RandomX struct {
	epochLength uint64
	epochLag    uint64
	mode        fakeMode

	registry *registry
	free     vmFreeList

	// currentSeed caches the seed of the active tip epoch, so stateless
	// callers can verify without chain access.
	seedMu      sync.Mutex
	currentSeed common.Hash
	haveSeed    bool

	// Shutdown drains: draining stops new work, inflight counts hashes
	// already past the gate.
	draining atomic.Bool
	inflight sync.WaitGroup

	verified *lru.Cache // header hash -> struct{}
	failed   *lru.Cache // header hash -> error

	log logger
}

// New constructs a proof-of-work service with the given configuration.
func New(config Config) *RandomX {
	if config.Log == nil {
		config.Log = log.New("engine", "randomx")
	}
	if config.EpochLength == 0 {
		config.EpochLength = EpochLength
	}
	if config.EpochLag == 0 {
		config.EpochLag = EpochLag
	}
	verified, _ := lru.New(solutionCacheSize)
	failed, _ := lru.New(solutionCacheSize)
	rx := &RandomX{
		epochLength: config.EpochLength,
		epochLag:    config.EpochLag,
		verified:    verified,
		failed:      failed,
		log:         config.Log,
	}
	rx.registry = newRegistry(config.LightMode, rx.log)
	return rx
}

// NewTester creates a light-mode service for tests.
func NewTester() *RandomX {
	return New(Config{LightMode: true})
}

// NewFaker creates an engine that accepts any well-formed solution without
// hashing. The difficulty and timestamp rules still apply.
func NewFaker() *RandomX {
	rx := New(Config{LightMode: true})
	rx.mode = modeFake
	return rx
}

// NewFullFaker creates an engine that accepts every header unconditionally.
func NewFullFaker() *RandomX {
	rx := New(Config{LightMode: true})
	rx.mode = modeFullFake
	return rx
}

// Init keys the epoch-0 sentinel context eagerly, so a node that starts at
// or near genesis does not pay the build cost on its first header. Also
// primes the current-seed cell if nothing has set it yet.
func (rx *RandomX) Init() error {
	rx.seedMu.Lock()
	if !rx.haveSeed {
		rx.currentSeed = GenesisSeedHash()
		rx.haveSeed = true
	}
	rx.seedMu.Unlock()
	return rx.Warm(GenesisSeedHash())
}

// begin gates a hashing operation on the drain barrier. On success the
// caller owes an end().
func (rx *RandomX) begin() bool {
	if rx.draining.Load() {
		return false
	}
	rx.inflight.Add(1)
	if rx.draining.Load() {
		// Lost the race with Shutdown; back out so Wait can return.
		rx.inflight.Done()
		return false
	}
	return true
}

func (rx *RandomX) end() {
	rx.inflight.Done()
}

// HashWithSeed computes the proof-of-work hash of data under the given
// seed. This is the shared verification path; mining loops should use a
// WorkerPool instead to keep the per-hash cost lock-free.
func (rx *RandomX) HashWithSeed(seed common.Hash, data []byte) (common.Hash, error) {
	if !rx.begin() {
		return common.Hash{}, ErrServiceStopped
	}
	defer rx.end()

	c := rx.registry.acquire(seed)
	if c == nil {
		return common.Hash{}, ErrServiceStopped
	}
	v := rx.free.get(c)
	c.release() // the vm holds its own reference
	h := v.hash(data)
	rx.free.put(v)
	return h, nil
}

// Hash computes the proof-of-work hash of data under the current tip
// epoch seed. A service that has never been told a seed lazily adopts the
// epoch-0 sentinel, so hashing works out of the box at chain start.
func (rx *RandomX) Hash(data []byte) (common.Hash, error) {
	return rx.HashWithSeed(rx.currentOrSentinel(), data)
}

// currentOrSentinel returns the current seed, installing the epoch-0
// sentinel first if none has been announced yet.
func (rx *RandomX) currentOrSentinel() common.Hash {
	rx.seedMu.Lock()
	defer rx.seedMu.Unlock()
	if !rx.haveSeed {
		rx.currentSeed = GenesisSeedHash()
		rx.haveSeed = true
		rx.log.Debug("Defaulting to epoch-0 sentinel seed")
	}
	return rx.currentSeed
}

// VerifyWithSeed reports whether want is the proof-of-work hash of data
// under the given seed.
func (rx *RandomX) VerifyWithSeed(seed common.Hash, data []byte, want common.Hash) (bool, error) {
	got, err := rx.HashWithSeed(seed, data)
	if err != nil {
		return false, err
	}
	return got == want, nil
}

// Verify is VerifyWithSeed under the current tip epoch seed.
func (rx *RandomX) Verify(data []byte, want common.Hash) (bool, error) {
	got, err := rx.Hash(data)
	if err != nil {
		return false, err
	}
	return got == want, nil
}

// CurrentSeed returns the seed of the active tip epoch, if one has been
// announced since startup.
func (rx *RandomX) CurrentSeed() (common.Hash, bool) {
	rx.seedMu.Lock()
	defer rx.seedMu.Unlock()
	return rx.currentSeed, rx.haveSeed
}

// SetSeedHash records the seed of the active tip epoch and warms its
// context so the first verification at the new epoch does not pay the
// build cost. The chain manager calls this on startup and on every epoch
// transition of the canonical head. Re-announcing the current seed is a
// cheap no-op.
func (rx *RandomX) SetSeedHash(seed common.Hash) error {
	rx.seedMu.Lock()
	changed := !rx.haveSeed || rx.currentSeed != seed
	rx.currentSeed = seed
	rx.haveSeed = true
	rx.seedMu.Unlock()

	if !changed {
		return nil
	}
	rx.log.Info("Tip epoch seed updated", "seed", seed.TerminalString())
	return rx.Warm(seed)
}

// Warm builds the context for a seed ahead of need. Miners call this for
// the upcoming epoch's seed during the lag window.
func (rx *RandomX) Warm(seed common.Hash) error {
	if !rx.begin() {
		return ErrServiceStopped
	}
	defer rx.end()

	c := rx.registry.acquire(seed)
	if c == nil {
		return ErrServiceStopped
	}
	c.release()
	return nil
}

// Shutdown stops the service: new hashing requests fail fast, in-flight
// hashes run to completion, then every context is torn down and its key
// material zeroed. Safe to call more than once.
func (rx *RandomX) Shutdown() {
	if rx.draining.Swap(true) {
		return
	}
	rx.log.Info("Proof-of-work service draining")
	rx.inflight.Wait()
	rx.free.close()
	rx.registry.close()
	rx.log.Info("Proof-of-work service stopped")
}
