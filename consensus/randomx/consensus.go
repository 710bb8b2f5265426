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
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/junocash/go-juno/common"
	"github.com/junocash/go-juno/consensus"
	"github.com/junocash/go-juno/core/types"
	"github.com/junocash/go-juno/params"
)

// Headers may run ahead of wall time by this much before being rejected.
const maxFutureSeconds = 2 * 60 * 60

var (
	// ErrBadSolutionSize rejects headers whose solution is not exactly
	// one hash output.
	ErrBadSolutionSize = errors.New("solution has wrong size")

	// ErrInvalidSolution rejects headers whose solution does not match
	// the proof-of-work hash of the header under the epoch seed.
	ErrInvalidSolution = errors.New("invalid proof-of-work solution")

	// ErrBitsMismatch rejects headers claiming a difficulty other than
	// the one the retargeting rule requires at their height.
	ErrBitsMismatch = errors.New("incorrect difficulty bits")

	// ErrTimestampTooOld rejects headers dated at or before the median
	// time of their ancestors.
	ErrTimestampTooOld = errors.New("timestamp not past median time")

	// errNoCurrentSeed means a stateless verification was attempted
	// before the service learned the tip epoch seed.
	errNoCurrentSeed = errors.New("current epoch seed not known")
)

// CheckSolution verifies the proof-of-work commitment of a header under
// the given seed: the solution field must be exactly the hash of the
// header's solutionless serialization. Difficulty is not checked here.
func (rx *RandomX) CheckSolution(header *types.Header, seed common.Hash) error {
	if len(header.Solution) != types.SolutionSize {
		return fmt.Errorf("%w: %d bytes, want %d", ErrBadSolutionSize, len(header.Solution), types.SolutionSize)
	}
	if rx.mode != modeNormal {
		return nil
	}
	powHash, err := rx.HashWithSeed(seed, header.PowPreimage())
	if err != nil {
		return err
	}
	if !bytes.Equal(header.Solution, powHash.Bytes()) {
		return ErrInvalidSolution
	}
	return nil
}

// VerifyHeader fully validates the proof of work of a header: solution
// commitment under the correct epoch seed, hash against the claimed
// target, and the claimed target against the retargeting rule. parent may
// be nil for stateless verification, in which case the tip epoch seed is
// assumed and the difficulty rule is not enforced.
func (rx *RandomX) VerifyHeader(parent consensus.BlockIndex, header *types.Header, p *params.Params) error {
	hash := header.BlockHash()
	if rx.verified.Contains(hash) {
		return nil
	}
	if err, ok := rx.failed.Get(hash); ok {
		return err.(error)
	}
	err := rx.verifyHeader(parent, header, p)
	if err == nil {
		rx.verified.Add(hash, struct{}{})
	} else if !errors.Is(err, ErrServiceStopped) && !errors.Is(err, consensus.ErrFutureBlock) &&
		!errors.Is(err, consensus.ErrUnknownAncestor) && !errors.Is(err, errNoCurrentSeed) {
		rx.failed.Add(hash, err)
	}
	return err
}

func (rx *RandomX) verifyHeader(parent consensus.BlockIndex, header *types.Header, p *params.Params) error {
	if rx.mode == modeFullFake {
		return nil
	}
	if int64(header.Time) > time.Now().Unix()+maxFutureSeconds {
		return consensus.ErrFutureBlock
	}

	var (
		seed common.Hash
		err  error
	)
	if parent != nil {
		if int64(header.Time) <= parent.MedianTimePast() {
			return fmt.Errorf("%w: %d <= %d", ErrTimestampTooOld, header.Time, parent.MedianTimePast())
		}
		height := uint64(parent.Height() + 1)
		seed, err = rx.SeedHashForHeight(parent, height)
		if err != nil {
			return err
		}
		if want := GetNextWorkRequired(parent, int64(header.Time), p); header.Bits != want {
			return fmt.Errorf("%w: have %08x, want %08x", ErrBitsMismatch, header.Bits, want)
		}
	} else {
		var ok bool
		if seed, ok = rx.CurrentSeed(); !ok {
			return errNoCurrentSeed
		}
	}

	if err := rx.CheckSolution(header, seed); err != nil {
		return err
	}
	if rx.mode != modeNormal {
		return nil
	}

	// The solution is the proof-of-work hash itself, so target
	// comparison runs against it directly.
	return CheckProofOfWork(common.BytesToHash(header.Solution), header.Bits, p)
}

// NotifyHead tells the service the canonical head advanced, so the tip
// epoch seed cell tracks the chain. parent is the new head's parent.
func (rx *RandomX) NotifyHead(parent consensus.BlockIndex, headHeight uint64) error {
	seed, err := rx.SeedHashForHeight(parent, headHeight)
	if err != nil {
		return err
	}
	return rx.SetSeedHash(seed)
}
