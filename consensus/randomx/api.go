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
	"math/big"

	"github.com/junocash/go-juno/common"
	"github.com/junocash/go-juno/params"
)

// API exposes proof-of-work diagnostics for the RPC layer.
type API struct {
	rx *RandomX
}

// NewAPI wraps the service for RPC registration.
func NewAPI(rx *RandomX) *API {
	return &API{rx: rx}
}

// EpochInfo describes where a block height sits in the epoch schedule.
type EpochInfo struct {
	Height         uint64 `json:"height"`
	Epoch          uint64 `json:"epoch"`
	SeedHeight     uint64 `json:"seedHeight"`
	IsTransition   bool   `json:"isTransition"`
	NextTransition uint64 `json:"nextTransition"`
}

// CurrentSeed returns the seed of the active tip epoch, or nil when the
// engine has not been told one yet.
func (api *API) CurrentSeed() *common.Hash {
	if seed, ok := api.rx.CurrentSeed(); ok {
		return &seed
	}
	return nil
}

// Target decodes a compact difficulty encoding, validating it against the
// given network's minimum difficulty.
func (api *API) Target(bits uint32, network *params.Params) (*big.Int, error) {
	return decodeTargetBits(bits, network)
}

// SeedSchedule reports the epoch schedule position of the given height
// under the production geometry.
func (api *API) SeedSchedule(height uint64) EpochInfo {
	return EpochInfo{
		Height:         height,
		Epoch:          EpochNumber(height),
		SeedHeight:     SeedHeight(height),
		IsTransition:   IsEpochTransition(height),
		NextTransition: NextEpochTransition(height),
	}
}

// PowStatus is a snapshot of the service's runtime state.
type PowStatus struct {
	CurrentSeed  *common.Hash  `json:"currentSeed,omitempty"`
	LiveContexts int           `json:"liveContexts"`
	CachedSeeds  []common.Hash `json:"cachedSeeds"`
	Draining     bool          `json:"draining"`
}

// GetPowStatus reports the live hashing contexts and the tip epoch seed.
func (api *API) GetPowStatus() PowStatus {
	status := PowStatus{
		CachedSeeds: api.rx.registry.seeds(),
		Draining:    api.rx.draining.Load(),
	}
	status.LiveContexts = len(status.CachedSeeds)
	if seed, ok := api.rx.CurrentSeed(); ok {
		status.CurrentSeed = &seed
	}
	return status
}
