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
	"crypto/sha256"
	"encoding/binary"
	"math/big"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/junocash/go-juno/common"
	"github.com/junocash/go-juno/consensus"
	"github.com/junocash/go-juno/params"
)

// testBlock is an in-memory chain index node for difficulty and header
// verification tests.
type testBlock struct {
	height int64
	hash   common.Hash
	bits   uint32
	time   int64
	parent *testBlock
}

func (b *testBlock) Height() int64     { return b.height }
func (b *testBlock) Hash() common.Hash { return b.hash }
func (b *testBlock) Bits() uint32      { return b.bits }
func (b *testBlock) Time() int64       { return b.time }

func (b *testBlock) Parent() consensus.BlockIndex {
	if b.parent == nil {
		return nil
	}
	return b.parent
}

func (b *testBlock) Ancestor(height int64) consensus.BlockIndex {
	cur := b
	for cur != nil && cur.height > height {
		cur = cur.parent
	}
	if cur == nil || cur.height != height {
		return nil
	}
	return cur
}

func (b *testBlock) MedianTimePast() int64 {
	var times []int64
	for cur, i := b, 0; cur != nil && i < 11; cur, i = cur.parent, i+1 {
		times = append(times, cur.time)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times[len(times)/2]
}

// newTestChain builds n blocks with constant bits and spacing, returning
// the tip. Hashes are derived from the height so ancestry lookups behave
// like a real index.
func newTestChain(n int64, bits uint32, spacing int64) *testBlock {
	const genesisTime = 1600000000
	var tip *testBlock
	for h := int64(0); h < n; h++ {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(h))
		tip = &testBlock{
			height: h,
			hash:   common.Hash(sha256.Sum256(buf[:])),
			bits:   bits,
			time:   genesisTime + h*spacing,
			parent: tip,
		}
	}
	return tip
}

// retargetTestParams keeps mainnet's adjustment limits over a short
// window so tests do not need hundreds of blocks.
var retargetTestParams = &params.Params{
	Name:                    "unittest",
	PowLimit:                params.MainNetParams.PowLimit,
	PowAveragingWindow:      17,
	PowMaxAdjustUp:          16,
	PowMaxAdjustDown:        32,
	BlossomActivationHeight: heightPtr(0),
}

func heightPtr(h int64) *int64 { return &h }

func TestCompactRoundTrip(t *testing.T) {
	for _, bits := range []uint32{
		0x1d00ffff, // bitcoin genesis
		0x2000ffff,
		0x200f0f0f, // regtest powLimit
		0x1b04864c,
		0x1f07ffff,
		0x03123456,
	} {
		n := CompactToBig(bits)
		if got := BigToCompact(n); got != bits {
			t.Errorf("round trip %08x -> %s -> %08x", bits, n, got)
		}
	}
}

func TestCompactToBigValues(t *testing.T) {
	// Exponent 3 means the mantissa is the value itself.
	require.Equal(t, big.NewInt(0x123456), CompactToBig(0x03123456))
	// Low exponents shift the mantissa down.
	require.Equal(t, big.NewInt(0x1234), CompactToBig(0x02123456))
	require.Equal(t, big.NewInt(0x12), CompactToBig(0x01123456))
	// The sign bit negates.
	require.Equal(t, big.NewInt(-0x123456), CompactToBig(0x03923456))
	// Zero mantissa is zero regardless of exponent.
	require.Equal(t, 0, CompactToBig(0x04000000).Sign())
}

func TestDecodeTargetBitsRejects(t *testing.T) {
	p := params.MainNetParams
	for _, tt := range []struct {
		name string
		bits uint32
	}{
		{"negative", 0x03923456},
		{"zero", 0x00000000},
		{"overflow", 0xff123456},
		{"above powLimit", 0x22000001},
	} {
		_, err := decodeTargetBits(tt.bits, p)
		require.ErrorIs(t, err, ErrBadTargetBits, tt.name)
	}

	_, err := decodeTargetBits(0x2000ffff, p)
	require.NoError(t, err)
}

func TestCheckProofOfWork(t *testing.T) {
	p := params.RegressionNetParams
	bits := BigToCompact(p.PowLimit)

	// The zero hash satisfies any valid target.
	require.NoError(t, CheckProofOfWork(common.Hash{}, bits, p))

	// An all-ones hash satisfies none.
	var high common.Hash
	for i := range high {
		high[i] = 0xff
	}
	require.ErrorIs(t, CheckProofOfWork(high, bits, p), ErrHighHash)

	// The hash is read little-endian: a value just under the regtest
	// limit passes, just over fails. Target is 0x0f0f...0f, so a hash
	// whose last byte (most significant) is 0x0f and rest zero is below
	// it, while 0x10 is above.
	var edge common.Hash
	edge[31] = 0x0f
	require.NoError(t, CheckProofOfWork(edge, bits, p))
	edge[31] = 0x10
	require.ErrorIs(t, CheckProofOfWork(edge, bits, p), ErrHighHash)

	require.ErrorIs(t, CheckProofOfWork(common.Hash{}, 0x03923456, p), ErrBadTargetBits)
}

func TestBlockProof(t *testing.T) {
	// Target 0x7fffff << 232 is just under 2^255, so the expected work
	// is two hashes.
	require.Equal(t, big.NewInt(2), BlockProof(0x207fffff))
	// Invalid encodings carry no work.
	require.Equal(t, 0, BlockProof(0x03923456).Sign())
	require.Equal(t, 0, BlockProof(0).Sign())
}

func TestGetNextWorkRequiredDegenerate(t *testing.T) {
	powLimitBits := BigToCompact(retargetTestParams.PowLimit)

	// No parent: easiest target.
	require.Equal(t, powLimitBits, GetNextWorkRequired(nil, 0, retargetTestParams))

	// Chain shorter than the averaging window: easiest target.
	shortTip := newTestChain(10, 0x1d00ffff, 60)
	require.Equal(t, powLimitBits, GetNextWorkRequired(shortTip, shortTip.time+60, retargetTestParams))

	// Retargeting disabled: the parent's bits carry over verbatim.
	regTip := newTestChain(40, 0x1c0fffff, 60)
	require.Equal(t, uint32(0x1c0fffff), GetNextWorkRequired(regTip, regTip.time+60, params.RegressionNetParams))
}

func TestGetNextWorkRequiredAntiStall(t *testing.T) {
	p := &params.Params{
		Name:                                   "unittest-mindiff",
		PowLimit:                               params.MainNetParams.PowLimit,
		PowAveragingWindow:                     17,
		PowMaxAdjustUp:                         16,
		PowMaxAdjustDown:                       32,
		BlossomActivationHeight:                heightPtr(0),
		PowAllowMinDifficultyBlocksAfterHeight: heightPtr(0),
	}
	tip := newTestChain(40, 0x1c0fffff, 60)

	// A block more than six spacings after its parent mines at minimum
	// difficulty.
	stalled := GetNextWorkRequired(tip, tip.time+6*60+1, p)
	require.Equal(t, BigToCompact(p.PowLimit), stalled)

	// On time, the normal rule applies.
	normal := GetNextWorkRequired(tip, tip.time+60, p)
	require.NotEqual(t, BigToCompact(p.PowLimit), normal)

	// Activation gates on the parent's height: with the threshold right
	// above the tip, a stalled block still retargets normally, and one
	// block later the rule kicks in.
	above := tip.height + 1
	p.PowAllowMinDifficultyBlocksAfterHeight = &above
	require.Equal(t, normal, GetNextWorkRequired(tip, tip.time+6*60+1, p))

	at := tip.height
	p.PowAllowMinDifficultyBlocksAfterHeight = &at
	require.Equal(t, BigToCompact(p.PowLimit), GetNextWorkRequired(tip, tip.time+6*60+1, p))
}

func TestGetNextWorkRequiredAdjusts(t *testing.T) {
	const bits = 0x1c0fffff
	steady := CompactToBig(bits)

	// Blocks at half the target spacing: difficulty must rise, meaning
	// a smaller target.
	fastTip := newTestChain(40, bits, 30)
	fast := CompactToBig(GetNextWorkRequired(fastTip, fastTip.time+30, retargetTestParams))
	require.Negative(t, fast.Cmp(steady), "fast blocks must shrink the target")

	// Blocks at double the spacing: difficulty must fall.
	slowTip := newTestChain(40, bits, 120)
	slow := CompactToBig(GetNextWorkRequired(slowTip, slowTip.time+120, retargetTestParams))
	require.Positive(t, slow.Cmp(steady), "slow blocks must grow the target")
}

func TestGetNextWorkRequiredClamps(t *testing.T) {
	const bits = 0x1c0fffff

	// Beyond the damping clamp, ever slower chains stop easing further.
	slow1 := newTestChain(40, bits, 500)
	slow2 := newTestChain(40, bits, 5000)
	got1 := GetNextWorkRequired(slow1, slow1.time+500, retargetTestParams)
	got2 := GetNextWorkRequired(slow2, slow2.time+5000, retargetTestParams)
	require.Equal(t, got1, got2, "clamped slow chains must agree")

	// Same on the fast side, including a pathological backwards clock.
	fast1 := newTestChain(40, bits, 1)
	fast2 := newTestChain(40, bits, 0)
	gotF1 := GetNextWorkRequired(fast1, fast1.time+1, retargetTestParams)
	gotF2 := GetNextWorkRequired(fast2, fast2.time, retargetTestParams)
	require.Equal(t, gotF1, gotF2, "clamped fast chains must agree")

	// The eased target never exceeds the proof-of-work limit.
	easy := newTestChain(40, BigToCompact(retargetTestParams.PowLimit), 5000)
	limit := GetNextWorkRequired(easy, easy.time+5000, retargetTestParams)
	require.LessOrEqual(t, CompactToBig(limit).Cmp(retargetTestParams.PowLimit), 0)
}
