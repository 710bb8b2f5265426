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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheBuildsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "juno",
		Subsystem: "randomx",
		Name:      "cache_builds_total",
		Help:      "Number of hashing contexts initialised from a seed.",
	})
	cacheEvictionsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "juno",
		Subsystem: "randomx",
		Name:      "cache_evictions_total",
		Help:      "Number of hashing contexts evicted from the registry.",
	})
	cachesLiveGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "juno",
		Subsystem: "randomx",
		Name:      "caches_live",
		Help:      "Hashing contexts currently held by the registry.",
	})
	hashesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "juno",
		Subsystem: "randomx",
		Name:      "hashes_total",
		Help:      "Proof-of-work hashes computed.",
	})
	cacheBuildTimer = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "juno",
		Subsystem: "randomx",
		Name:      "cache_build_seconds",
		Help:      "Time spent initialising a hashing context.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)
