// Copyright 2025 The go-juno Authors
// This file is part of go-juno.
//
// go-juno is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-juno is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-juno. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/junocash/go-juno/consensus/randomx"
	"github.com/junocash/go-juno/params"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type junopowConfig struct {
	// Network selects the consensus parameter set: mainnet, testnet or
	// regtest.
	Network string `toml:",omitempty"`

	// LightMode shrinks hashing context initialisation, trading first
	// verification latency for memory.
	LightMode bool `toml:",omitempty"`

	// MetricsAddr, when set, serves Prometheus metrics on this address.
	MetricsAddr string `toml:",omitempty"`
}

func loadConfig(file string, cfg *junopowConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig assembles the effective configuration, command line flags
// overriding the configuration file.
func makeConfig(ctx *cli.Context) (junopowConfig, error) {
	cfg := junopowConfig{Network: "mainnet"}

	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.GlobalIsSet(networkFlag.Name) {
		cfg.Network = ctx.GlobalString(networkFlag.Name)
	}
	if ctx.GlobalIsSet(lightFlag.Name) {
		cfg.LightMode = ctx.GlobalBool(lightFlag.Name)
	}
	if ctx.GlobalIsSet(metricsAddrFlag.Name) {
		cfg.MetricsAddr = ctx.GlobalString(metricsAddrFlag.Name)
	}
	return cfg, nil
}

func (cfg *junopowConfig) chainParams() (*params.Params, error) {
	switch cfg.Network {
	case "mainnet":
		return params.MainNetParams, nil
	case "testnet":
		return params.TestNetParams, nil
	case "regtest":
		return params.RegressionNetParams, nil
	}
	return nil, fmt.Errorf("unknown network %q", cfg.Network)
}

func (cfg *junopowConfig) makeEngine() *randomx.RandomX {
	return randomx.New(randomx.Config{LightMode: cfg.LightMode})
}
