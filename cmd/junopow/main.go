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

// junopow is a command line tool around the Juno proof-of-work engine:
// epoch schedule queries, standalone header verification and a hashing
// benchmark.
package main

import (
	"bytes"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/urfave/cli.v1"

	"github.com/junocash/go-juno/common"
	"github.com/junocash/go-juno/consensus"
	"github.com/junocash/go-juno/consensus/randomx"
	"github.com/junocash/go-juno/core/types"
)

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	networkFlag = cli.StringFlag{
		Name:  "network",
		Usage: "Consensus parameters to use (mainnet, testnet, regtest)",
		Value: "mainnet",
	}
	lightFlag = cli.BoolFlag{
		Name:  "light",
		Usage: "Use light hashing contexts (less memory, slower verification)",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug",
		Value: 3,
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics.addr",
		Usage: "Serve Prometheus metrics on this address",
	}

	seedCommand = cli.Command{
		Action:    seedSchedule,
		Name:      "seed",
		Usage:     "Show the epoch schedule position of a block height",
		ArgsUsage: "<height>",
	}
	hashCommand = cli.Command{
		Action:    hashData,
		Name:      "hash",
		Usage:     "Hash hex data under an epoch seed",
		ArgsUsage: "<seed hex> <data hex>",
	}
	targetCommand = cli.Command{
		Action:    decodeTarget,
		Name:      "target",
		Usage:     "Decode and validate a compact difficulty encoding",
		ArgsUsage: "<bits hex>",
	}
	retargetCommand = cli.Command{
		Action:    retargetDemo,
		Name:      "retarget",
		Usage:     "Show the next difficulty for a synthetic constant-spacing window",
		ArgsUsage: "<bits hex> <spacing seconds>",
	}
	benchCommand = cli.Command{
		Action:    bench,
		Name:      "bench",
		Usage:     "Measure the hash rate of one worker",
		ArgsUsage: "[seconds]",
	}
	verifyCommand = cli.Command{
		Action:    verify,
		Name:      "verify",
		Usage:     "Verify the proof of work of a serialized header",
		ArgsUsage: "<header hex> <seed hex>",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "junopow"
	app.Usage = "Juno proof-of-work tool"
	app.Flags = []cli.Flag{
		configFileFlag,
		networkFlag,
		lightFlag,
		verbosityFlag,
		metricsAddrFlag,
	}
	app.Commands = []cli.Command{
		seedCommand,
		hashCommand,
		targetCommand,
		retargetCommand,
		benchCommand,
		verifyCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		lvl := log.Lvl(ctx.GlobalInt(verbosityFlag.Name))
		log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.TerminalFormat())))

		// Resolve the flag/file merge here so a file-configured metrics
		// address serves too.
		cfg, err := makeConfig(ctx)
		if err != nil {
			return err
		}
		if addr := cfg.MetricsAddr; addr != "" {
			go func() {
				log.Info("Serving metrics", "addr", addr)
				if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
					log.Error("Metrics server failed", "err", err)
				}
			}()
		}
		return nil
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func seedSchedule(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("usage: %s", ctx.Command.ArgsUsage)
	}
	height, err := strconv.ParseUint(ctx.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid height: %v", err)
	}
	info := randomx.EpochInfo{
		Height:         height,
		Epoch:          randomx.EpochNumber(height),
		SeedHeight:     randomx.SeedHeight(height),
		IsTransition:   randomx.IsEpochTransition(height),
		NextTransition: randomx.NextEpochTransition(height),
	}
	fmt.Printf("height:          %d\n", info.Height)
	fmt.Printf("epoch:           %d\n", info.Epoch)
	fmt.Printf("seed height:     %d", info.SeedHeight)
	if info.SeedHeight == 0 {
		fmt.Printf(" (sentinel seed)")
	}
	fmt.Println()
	fmt.Printf("transition:      %t\n", info.IsTransition)
	fmt.Printf("next transition: %d\n", info.NextTransition)
	return nil
}

func hashData(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return fmt.Errorf("usage: %s", ctx.Command.ArgsUsage)
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	seed := common.HexToHash(ctx.Args().Get(0))
	data := common.FromHex(ctx.Args().Get(1))

	rx := cfg.makeEngine()
	defer rx.Shutdown()

	h, err := rx.HashWithSeed(seed, data)
	if err != nil {
		return err
	}
	fmt.Println(h.Hex())
	return nil
}

func decodeTarget(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("usage: %s", ctx.Command.ArgsUsage)
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	p, err := cfg.chainParams()
	if err != nil {
		return err
	}
	bits, err := strconv.ParseUint(ctx.Args().First(), 0, 32)
	if err != nil {
		return fmt.Errorf("invalid bits: %v", err)
	}

	rx := cfg.makeEngine()
	defer rx.Shutdown()
	target, err := randomx.NewAPI(rx).Target(uint32(bits), p)
	if err != nil {
		return err
	}
	fmt.Printf("bits:   %08x\n", uint32(bits))
	fmt.Printf("target: %064x\n", target)
	fmt.Printf("work:   %s\n", randomx.BlockProof(uint32(bits)))
	return nil
}

// demoBlock is a synthetic chain index entry for the retarget command.
type demoBlock struct {
	height int64
	bits   uint32
	time   int64
	parent *demoBlock
}

func (b *demoBlock) Height() int64     { return b.height }
func (b *demoBlock) Hash() common.Hash { return common.BigToHash(big.NewInt(b.height)) }
func (b *demoBlock) Bits() uint32      { return b.bits }
func (b *demoBlock) Time() int64       { return b.time }
func (b *demoBlock) MedianTimePast() int64 {
	cur := b
	for i := 0; i < 5 && cur.parent != nil; i++ {
		cur = cur.parent
	}
	return cur.time
}
func (b *demoBlock) Parent() consensus.BlockIndex {
	if b.parent == nil {
		return nil
	}
	return b.parent
}
func (b *demoBlock) Ancestor(height int64) consensus.BlockIndex {
	cur := b
	for cur != nil && cur.height > height {
		cur = cur.parent
	}
	if cur == nil || cur.height != height {
		return nil
	}
	return cur
}

func retargetDemo(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return fmt.Errorf("usage: %s", ctx.Command.ArgsUsage)
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	p, err := cfg.chainParams()
	if err != nil {
		return err
	}
	bits, err := strconv.ParseUint(ctx.Args().Get(0), 0, 32)
	if err != nil {
		return fmt.Errorf("invalid bits: %v", err)
	}
	spacing, err := strconv.ParseInt(ctx.Args().Get(1), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid spacing: %v", err)
	}

	var tip *demoBlock
	for h := int64(0); h <= p.PowAveragingWindow+11; h++ {
		tip = &demoBlock{height: h, bits: uint32(bits), time: h * spacing, parent: tip}
	}
	next := randomx.GetNextWorkRequired(tip, tip.time+spacing, p)
	fmt.Printf("window bits: %08x at %ds spacing (%s target %ds)\n",
		uint32(bits), spacing, p.Name, p.TargetSpacing(tip.height+1))
	fmt.Printf("next bits:   %08x\n", next)
	return nil
}

func bench(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	duration := 10 * time.Second
	if ctx.NArg() > 0 {
		secs, err := strconv.Atoi(ctx.Args().First())
		if err != nil {
			return fmt.Errorf("invalid duration: %v", err)
		}
		duration = time.Duration(secs) * time.Second
	}

	rx := cfg.makeEngine()
	defer rx.Shutdown()
	pool := rx.NewWorkerPool()
	defer pool.Close()

	seed := randomx.GenesisSeedHash()
	log.Info("Building hashing context", "light", cfg.LightMode)

	var data [80]byte
	start := time.Now()
	deadline := start.Add(duration)
	var hashes uint64
	for time.Now().Before(deadline) {
		for i := 0; i < 1000; i++ {
			data[0] = byte(hashes)
			if _, ok := pool.Hash(seed, data[:]); !ok {
				return randomx.ErrServiceStopped
			}
			hashes++
		}
	}
	elapsed := time.Since(start)
	fmt.Printf("%d hashes in %s (%.0f H/s)\n", hashes, elapsed.Round(time.Millisecond), float64(hashes)/elapsed.Seconds())
	return nil
}

func verify(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return fmt.Errorf("usage: %s", ctx.Command.ArgsUsage)
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	p, err := cfg.chainParams()
	if err != nil {
		return err
	}

	raw := common.FromHex(ctx.Args().Get(0))
	var header types.Header
	if err := header.Deserialize(bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("malformed header: %v", err)
	}
	seed := common.HexToHash(ctx.Args().Get(1))

	rx := cfg.makeEngine()
	defer rx.Shutdown()

	if err := rx.CheckSolution(&header, seed); err != nil {
		return fmt.Errorf("solution check failed: %v", err)
	}
	if err := randomx.CheckProofOfWork(common.BytesToHash(header.Solution), header.Bits, p); err != nil {
		return fmt.Errorf("target check failed: %v", err)
	}
	fmt.Printf("OK: block %s meets target %08x\n", header.BlockHash().TerminalString(), header.Bits)
	return nil
}
