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
	"testing"

	"github.com/junocash/go-juno/common"
)

func TestSeedHeight(t *testing.T) {
	tests := []struct {
		height uint64
		want   uint64
	}{
		{0, 0},
		{1, 0},
		{EpochLength, 0},
		{EpochLength + EpochLag - 1, 0}, // 2143
		{EpochLength + EpochLag, 0},     // 2144, last sentinel height
		{EpochLength + EpochLag + 1, EpochLength},
		{2 * EpochLength, EpochLength},
		{2*EpochLength + EpochLag, EpochLength},
		{2*EpochLength + EpochLag + 1, 2 * EpochLength},
		{3*EpochLength + EpochLag + 1, 3 * EpochLength},
		{1000000, 999424},
	}
	for _, tt := range tests {
		if got := SeedHeight(tt.height); got != tt.want {
			t.Errorf("SeedHeight(%d) = %d, want %d", tt.height, got, tt.want)
		}
	}
}

// The seed block must always trail the block hashing under it by more
// than the lag, and never by a full epoch plus the lag.
func TestSeedHeightGap(t *testing.T) {
	for height := uint64(EpochLength + EpochLag + 1); height < 10*EpochLength; height += 131 {
		sh := SeedHeight(height)
		if sh%EpochLength != 0 {
			t.Fatalf("SeedHeight(%d) = %d, not an epoch boundary", height, sh)
		}
		gap := height - sh
		if gap <= EpochLag || gap > EpochLength+EpochLag {
			t.Fatalf("SeedHeight(%d) = %d, gap %d outside (%d, %d]", height, sh, gap, EpochLag, EpochLength+EpochLag)
		}
	}
}

func TestGenesisSeedHash(t *testing.T) {
	seed := GenesisSeedHash()
	if seed[0] != 0x08 {
		t.Errorf("sentinel first byte = %02x, want 08", seed[0])
	}
	for i := 1; i < common.HashLength; i++ {
		if seed[i] != 0 {
			t.Errorf("sentinel byte %d = %02x, want 00", i, seed[i])
		}
	}
}

func TestEpochTransitions(t *testing.T) {
	first := uint64(EpochLength + EpochLag + 1)

	if !IsEpochTransition(0) {
		t.Error("height 0 should be a transition")
	}
	if IsEpochTransition(first - 1) {
		t.Errorf("height %d should not be a transition", first-1)
	}
	if !IsEpochTransition(first) {
		t.Errorf("height %d should be a transition", first)
	}
	if !IsEpochTransition(first + EpochLength) {
		t.Errorf("height %d should be a transition", first+EpochLength)
	}
	if got := NextEpochTransition(0); got != first {
		t.Errorf("NextEpochTransition(0) = %d, want %d", got, first)
	}
	if got := NextEpochTransition(first); got != first+EpochLength {
		t.Errorf("NextEpochTransition(%d) = %d, want %d", first, got, first+EpochLength)
	}
	if got := EpochNumber(first + 3*EpochLength); got != 4 {
		t.Errorf("EpochNumber = %d, want 4", got)
	}
}

// Shrunken geometry used by the chain-level tests must behave like the
// production formula.
func TestSeedHeightCustomGeometry(t *testing.T) {
	const length, lag = 8, 4
	tests := []struct {
		height uint64
		want   uint64
	}{
		{0, 0},
		{length + lag, 0},
		{length + lag + 1, length},
		{2*length + lag, length},
		{2*length + lag + 1, 2 * length},
	}
	for _, tt := range tests {
		if got := seedHeight(tt.height, length, lag); got != tt.want {
			t.Errorf("seedHeight(%d, %d, %d) = %d, want %d", tt.height, length, lag, got, tt.want)
		}
	}
}
