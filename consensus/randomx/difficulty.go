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
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/junocash/go-juno/common"
	"github.com/junocash/go-juno/consensus"
	"github.com/junocash/go-juno/params"
)

var (
	// ErrBadTargetBits is returned when a header's difficulty field does
	// not decode to a usable target.
	ErrBadTargetBits = errors.New("target bits out of range")

	// ErrHighHash is returned when a proof-of-work hash does not meet
	// the header's claimed target.
	ErrHighHash = errors.New("proof-of-work hash above target")
)

// CompactToBig decodes a target from its compact "bits" representation:
// one exponent byte followed by a 23-bit mantissa and a sign bit, the
// base-256 analogue of floating point. The sign bit is preserved so
// validation can reject negative targets explicitly.
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}
	if isNegative {
		bn = bn.Neg(bn)
	}
	return bn
}

// BigToCompact is the inverse of CompactToBig. Precision beyond the
// leading three bytes of the value is discarded.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(n.Bytes()))
	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	// A mantissa with the sign bit set shifts one byte into the
	// exponent instead.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := uint32(exponent<<24) | mantissa
	if n.Sign() < 0 {
		compact |= 0x00800000
	}
	return compact
}

// decodeTargetBits decodes a header's bits field and validates it against
// the network's minimum difficulty. It rejects negative, zero and
// overflowing encodings.
func decodeTargetBits(bits uint32, p *params.Params) (*big.Int, error) {
	target := CompactToBig(bits)
	if target.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative target %08x", ErrBadTargetBits, bits)
	}
	if target.Sign() == 0 {
		return nil, fmt.Errorf("%w: zero target %08x", ErrBadTargetBits, bits)
	}
	if target.BitLen() > 256 {
		return nil, fmt.Errorf("%w: target overflow %08x", ErrBadTargetBits, bits)
	}
	if target.Cmp(p.PowLimit) > 0 {
		return nil, fmt.Errorf("%w: target %08x below minimum difficulty", ErrBadTargetBits, bits)
	}
	return target, nil
}

// CheckProofOfWork verifies that powHash meets the target claimed by bits.
// The hash is interpreted as a little-endian 256-bit integer, matching the
// wire convention of the header hash itself.
func CheckProofOfWork(powHash common.Hash, bits uint32, p *params.Params) error {
	target, err := decodeTargetBits(bits, p)
	if err != nil {
		return err
	}
	bnTarget, overflow := uint256.FromBig(target)
	if overflow {
		return fmt.Errorf("%w: target overflow %08x", ErrBadTargetBits, bits)
	}
	hashInt := new(uint256.Int).SetBytes(powHash.Reverse().Bytes())
	if hashInt.Gt(bnTarget) {
		return ErrHighHash
	}
	return nil
}

// BlockProof returns the expected number of hashes the network performed
// to produce a block with the given bits, 2^256 / (target+1). Invalid
// encodings count as zero work.
func BlockProof(bits uint32) *big.Int {
	target := CompactToBig(bits)
	if target.Sign() <= 0 || target.BitLen() > 256 {
		return new(big.Int)
	}
	denom := new(big.Int).Add(target, big.NewInt(1))
	return new(big.Int).Div(new(big.Int).Lsh(big.NewInt(1), 256), denom)
}

// GetNextWorkRequired computes the compact target for the block following
// parent, given the new block's timestamp. Difficulty follows the mean
// target of a trailing window, scaled by the damped ratio of observed to
// expected timespan between the window endpoints' median times.
func GetNextWorkRequired(parent consensus.BlockIndex, blockTime int64, p *params.Params) uint32 {
	powLimitBits := BigToCompact(p.PowLimit)

	// Genesis has no history to retarget from.
	if parent == nil {
		return powLimitBits
	}
	height := parent.Height() + 1

	if p.PowNoRetargeting {
		return parent.Bits()
	}

	// Test networks may mine a minimum-difficulty block when the chain
	// stalls for six spacings, so a lone miner can always recover it.
	// The rule activates once the parent sits at the threshold height.
	if p.PowAllowMinDifficultyBlocksAfterHeight != nil &&
		parent.Height() >= *p.PowAllowMinDifficultyBlocksAfterHeight &&
		blockTime > parent.Time()+p.TargetSpacing(height)*6 {
		return powLimitBits
	}

	// Mean target over the averaging window. Division truncates, which
	// is part of the consensus rule.
	total := new(big.Int)
	first := parent
	var i int64
	for ; first != nil && i < p.PowAveragingWindow; i++ {
		total.Add(total, CompactToBig(first.Bits()))
		first = first.Parent()
	}
	if first == nil {
		// Not enough history yet.
		return powLimitBits
	}
	avg := total.Div(total, big.NewInt(p.PowAveragingWindow))

	return calculateNextWorkRequired(avg, parent.MedianTimePast(), first.MedianTimePast(), p, height)
}

// calculateNextWorkRequired scales the window's mean target by the damped,
// clamped actual timespan. Operation order is consensus-critical: the mean
// is divided by the expected timespan before multiplying by the actual.
func calculateNextWorkRequired(avg *big.Int, lastMTP, firstMTP int64, p *params.Params, height int64) uint32 {
	expected := p.AveragingWindowTimespan(height)

	actual := lastMTP - firstMTP
	actual = expected + (actual-expected)/4
	if actual < p.MinActualTimespan(height) {
		actual = p.MinActualTimespan(height)
	}
	if actual > p.MaxActualTimespan(height) {
		actual = p.MaxActualTimespan(height)
	}

	next := new(big.Int).Set(avg)
	next.Div(next, big.NewInt(expected))
	next.Mul(next, big.NewInt(actual))

	if next.Cmp(p.PowLimit) > 0 {
		next.Set(p.PowLimit)
	}
	return BigToCompact(next)
}
