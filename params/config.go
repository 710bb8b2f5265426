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

// Package params defines the per-network consensus parameters of the Juno
// protocol. The proof-of-work subsystem reads these values through the
// accessor methods; they are fixed by the genesis configuration of a network
// and must never be tuned at runtime.
package params

import "math/big"

// Target spacing constants. The Blossom upgrade halves the block interval,
// so the retargeter must always derive the spacing from the height under
// consideration rather than caching a single value.
const (
	PreBlossomPowTargetSpacing  = int64(120)
	PostBlossomPowTargetSpacing = int64(60)
)

// Params holds the consensus parameters of one Juno network.
type Params struct {
	// Name identifies the network for logging and config files.
	Name string

	// PowLimit is the highest (easiest) target a block may carry.
	PowLimit *big.Int

	// PowAveragingWindow is the number of ancestor blocks averaged by the
	// difficulty retargeter.
	PowAveragingWindow int64

	// PowMaxAdjustUp and PowMaxAdjustDown bound a single retarget step, in
	// percent. "Up" caps how much the difficulty may rise (timespan shrink),
	// "down" how much it may fall.
	PowMaxAdjustUp   int64
	PowMaxAdjustDown int64

	// BlossomActivationHeight is the height at which the Blossom upgrade
	// switches the target spacing. nil means the upgrade never activates.
	BlossomActivationHeight *int64

	// PowAllowMinDifficultyBlocksAfterHeight enables the testnet anti-stall
	// rule from that height on: a block arriving far behind schedule may be
	// mined at the minimum difficulty. nil disables the rule.
	PowAllowMinDifficultyBlocksAfterHeight *int64

	// PowNoRetargeting freezes difficulty at the parent's value. Used by the
	// regression test harness only.
	PowNoRetargeting bool
}

// BlossomActive reports whether the Blossom upgrade is active at height.
func (p *Params) BlossomActive(height int64) bool {
	return p.BlossomActivationHeight != nil && height >= *p.BlossomActivationHeight
}

// TargetSpacing returns the desired block interval in seconds at the given
// height.
func (p *Params) TargetSpacing(height int64) int64 {
	if p.BlossomActive(height) {
		return PostBlossomPowTargetSpacing
	}
	return PreBlossomPowTargetSpacing
}

// AveragingWindowTimespan returns the expected wall-clock duration of one
// full averaging window at the given height.
func (p *Params) AveragingWindowTimespan(height int64) int64 {
	return p.PowAveragingWindow * p.TargetSpacing(height)
}

// MinActualTimespan returns the lower clamp applied to the dampened actual
// timespan during retargeting.
func (p *Params) MinActualTimespan(height int64) int64 {
	return (p.AveragingWindowTimespan(height) * (100 - p.PowMaxAdjustUp)) / 100
}

// MaxActualTimespan returns the upper clamp applied to the dampened actual
// timespan during retargeting.
func (p *Params) MaxActualTimespan(height int64) int64 {
	return (p.AveragingWindowTimespan(height) * (100 + p.PowMaxAdjustDown)) / 100
}

func newBigFromHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("params: invalid hex constant " + s)
	}
	return n
}

func heightPtr(h int64) *int64 { return &h }

var (
	// MainNetParams are the consensus parameters of the Juno main network.
	// All network upgrades are active from genesis, so the post-Blossom
	// spacing applies everywhere.
	MainNetParams = &Params{
		Name:                    "mainnet",
		PowLimit:                newBigFromHex("00ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"),
		PowAveragingWindow:      100,
		PowMaxAdjustUp:          16,
		PowMaxAdjustDown:        32,
		BlossomActivationHeight: heightPtr(0),
	}

	// TestNetParams differ from mainnet only in allowing min-difficulty
	// blocks once the chain has passed the rule's activation height.
	TestNetParams = &Params{
		Name:                                   "testnet",
		PowLimit:                               newBigFromHex("00ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"),
		PowAveragingWindow:                     100,
		PowMaxAdjustUp:                         16,
		PowMaxAdjustDown:                       32,
		BlossomActivationHeight:                heightPtr(0),
		PowAllowMinDifficultyBlocksAfterHeight: heightPtr(299187),
	}

	// RegressionNetParams accept the easiest permissible proof of work and
	// never retarget. The powLimit is the largest value satisfying
	// maxUint256/powLimit >= PowAveragingWindow.
	RegressionNetParams = &Params{
		Name:                                   "regtest",
		PowLimit:                               newBigFromHex("0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f"),
		PowAveragingWindow:                     17,
		PowMaxAdjustUp:                         0,
		PowMaxAdjustDown:                       0,
		BlossomActivationHeight:                heightPtr(0),
		PowAllowMinDifficultyBlocksAfterHeight: heightPtr(0),
		PowNoRetargeting:                       true,
	}
)
