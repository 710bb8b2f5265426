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

package params

import "testing"

func TestTargetSpacing(t *testing.T) {
	// Mainnet activates Blossom at genesis, so the short spacing applies
	// everywhere.
	if got := MainNetParams.TargetSpacing(0); got != PostBlossomPowTargetSpacing {
		t.Errorf("mainnet spacing at 0 = %d, want %d", got, PostBlossomPowTargetSpacing)
	}

	activation := int64(500)
	p := &Params{
		Name:                    "spacing-test",
		PowLimit:                MainNetParams.PowLimit,
		PowAveragingWindow:      17,
		PowMaxAdjustUp:          16,
		PowMaxAdjustDown:        32,
		BlossomActivationHeight: &activation,
	}
	if got := p.TargetSpacing(499); got != PreBlossomPowTargetSpacing {
		t.Errorf("spacing at 499 = %d, want %d", got, PreBlossomPowTargetSpacing)
	}
	if got := p.TargetSpacing(500); got != PostBlossomPowTargetSpacing {
		t.Errorf("spacing at 500 = %d, want %d", got, PostBlossomPowTargetSpacing)
	}
	if p.BlossomActive(499) {
		t.Error("Blossom must not be active before its height")
	}
	if !p.BlossomActive(500) {
		t.Error("Blossom must be active at its height")
	}
}

func TestTimespanBounds(t *testing.T) {
	p := MainNetParams
	const height = 1000

	timespan := p.AveragingWindowTimespan(height)
	if want := p.PowAveragingWindow * PostBlossomPowTargetSpacing; timespan != want {
		t.Fatalf("window timespan = %d, want %d", timespan, want)
	}
	if got, want := p.MinActualTimespan(height), timespan*(100-p.PowMaxAdjustUp)/100; got != want {
		t.Errorf("min timespan = %d, want %d", got, want)
	}
	if got, want := p.MaxActualTimespan(height), timespan*(100+p.PowMaxAdjustDown)/100; got != want {
		t.Errorf("max timespan = %d, want %d", got, want)
	}
	if p.MinActualTimespan(height) >= p.MaxActualTimespan(height) {
		t.Error("timespan bounds inverted")
	}
}

func TestRegressionNetAdjustments(t *testing.T) {
	p := RegressionNetParams
	timespan := p.AveragingWindowTimespan(0)
	// With zero adjustment limits the clamp pins the timespan exactly.
	if p.MinActualTimespan(0) != timespan || p.MaxActualTimespan(0) != timespan {
		t.Errorf("regtest clamp [%d, %d] should pin to %d",
			p.MinActualTimespan(0), p.MaxActualTimespan(0), timespan)
	}
	if !p.PowNoRetargeting {
		t.Error("regtest must disable retargeting")
	}
}
