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
	"github.com/junocash/go-juno/common"
	"github.com/junocash/go-juno/consensus"
)

// Epoch geometry. The seed keying the hashing context changes every
// EpochLength blocks, and the seed block trails the tip by at least EpochLag
// blocks so miners never have to re-key at the moment the boundary block is
// found. Both values are consensus parameters fixed by the network's genesis
// configuration; EpochLength must be a power of two.
const (
	// EpochLength is the number of blocks sharing one hashing seed.
	EpochLength = 2048

	// EpochLag is how far behind the tip the seed block sits.
	EpochLag = 96
)

// GenesisSeedHash returns the sentinel seed of epoch 0, used before any
// block is old enough to serve as a seed. The first byte is 0x08 with the
// remainder zero, so a keyed-with-sentinel context is distinguishable from
// one accidentally keyed with a null hash.
func GenesisSeedHash() common.Hash {
	var seed common.Hash
	seed[0] = 0x08
	return seed
}

// SeedHeight returns the height of the ancestor block whose hash seeds the
// hashing context for a block at the given height, using the production
// epoch geometry. The result is always a multiple of EpochLength and at
// least EpochLag+1 blocks behind height; height 0 means the epoch-0
// sentinel applies.
func SeedHeight(height uint64) uint64 {
	return seedHeight(height, EpochLength, EpochLag)
}

// seedHeight is the geometry-parameterized core of SeedHeight. The bitmask
// rounds down to the nearest epoch boundary, which is exact because
// epochLength is a power of two.
func seedHeight(height, epochLength, epochLag uint64) uint64 {
	if height <= epochLength+epochLag {
		return 0
	}
	return (height - epochLag - 1) &^ (epochLength - 1)
}

// EpochNumber returns the sequential index of the epoch a block at the
// given height hashes under.
func EpochNumber(height uint64) uint64 {
	return SeedHeight(height) / EpochLength
}

// IsEpochTransition reports whether a block at the given height is the
// first to hash under a new seed.
func IsEpochTransition(height uint64) bool {
	if height == 0 {
		return true
	}
	return SeedHeight(height) != SeedHeight(height-1)
}

// NextEpochTransition returns the first height above the given one at which
// the seed changes. Miners use this to warm the next context ahead of time.
func NextEpochTransition(height uint64) uint64 {
	next := height + 1
	for !IsEpochTransition(next) {
		next++
		// The gap between transitions is exactly EpochLength, so this
		// terminates within one epoch.
	}
	return next
}

// seedHeight applies the engine's configured geometry, which the regression
// test harness may shrink; production engines use the package constants.
func (rx *RandomX) seedHeight(height uint64) uint64 {
	return seedHeight(height, rx.epochLength, rx.epochLag)
}

// SeedHashForHeight resolves the seed for a block at the given height,
// walking ancestry through parent. It returns the epoch-0 sentinel when no
// seed block applies, and ErrUnknownAncestor when the seed block should
// exist but cannot be found in the index.
func (rx *RandomX) SeedHashForHeight(parent consensus.BlockIndex, height uint64) (common.Hash, error) {
	sh := rx.seedHeight(height)
	if sh == 0 {
		return GenesisSeedHash(), nil
	}
	seedBlock := parent.Ancestor(int64(sh))
	if seedBlock == nil {
		rx.log.Error("Seed block missing from chain index", "height", height, "seedheight", sh)
		return common.Hash{}, consensus.ErrUnknownAncestor
	}
	return seedBlock.Hash(), nil
}
