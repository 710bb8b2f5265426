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

// Package consensus defines the interfaces the proof-of-work engine needs
// from the rest of the node. The chain index, header storage and fork choice
// live elsewhere; the engine only ever walks ancestry through these
// accessors.
package consensus

import (
	"errors"

	"github.com/junocash/go-juno/common"
)

var (
	// ErrUnknownAncestor is returned when validating a block requires an
	// ancestor that is unknown to the chain index.
	ErrUnknownAncestor = errors.New("unknown ancestor")

	// ErrFutureBlock is returned when a block's timestamp is ahead of the
	// permitted future drift.
	ErrFutureBlock = errors.New("block in the future")
)

// BlockIndex is a read-only handle to one validated header in the chain
// index. Implementations must answer every accessor without I/O side
// effects visible to the engine; returning nil from Parent or Ancestor
// means the requested entry is not present.
type BlockIndex interface {
	// Height returns the block's height in the chain.
	Height() int64

	// Hash returns the block's identifier hash.
	Hash() common.Hash

	// Bits returns the compact-encoded difficulty target carried by the
	// block's header.
	Bits() uint32

	// Time returns the block header's timestamp.
	Time() int64

	// MedianTimePast returns the median timestamp of the block and its
	// recent ancestors, per the chain's median-time rule.
	MedianTimePast() int64

	// Parent returns the index entry of the parent block, or nil for the
	// genesis block.
	Parent() BlockIndex

	// Ancestor returns the index entry of the ancestor at the given height,
	// or nil if the height is above this block or the entry is missing.
	Ancestor(height int64) BlockIndex
}
