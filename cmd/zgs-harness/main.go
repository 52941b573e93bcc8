// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	flag "github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/offchainlabs/zgs-harness/harness"
	"github.com/offchainlabs/zgs-harness/scenarios"
)

type HarnessCLIConfig struct {
	Scenario string         `koanf:"scenario"`
	List     bool           `koanf:"list"`
	LogLevel int            `koanf:"log-level"`
	LogFile  string         `koanf:"log-file"`
	Harness  harness.Config `koanf:"harness"`
}

var HarnessCLIConfigDefault = HarnessCLIConfig{
	Scenario: "example",
	LogLevel: int(log.LvlInfo),
	Harness:  harness.DefaultConfig,
}

func HarnessCLIConfigAddOptions(f *flag.FlagSet) {
	f.String("scenario", HarnessCLIConfigDefault.Scenario, "name of the scenario to run")
	f.Bool("list", HarnessCLIConfigDefault.List, "list the available scenarios and exit")
	f.Int("log-level", HarnessCLIConfigDefault.LogLevel, "log level; 1: ERROR, 2: WARN, 3: INFO, 4: DEBUG, 5: TRACE")
	f.String("log-file", HarnessCLIConfigDefault.LogFile, "write harness logs to this file instead of stderr")
	harness.ConfigAddOptions("harness", f)
}

func printSampleUsage() {
	fmt.Printf("\n")
	fmt.Printf("Sample usage:                  %s --help \n", os.Args[0])
}

func main() {
	os.Exit(mainImpl())
}

func mainImpl() int {
	config, err := parseHarnessCLI(os.Args[1:])
	if err != nil {
		printSampleUsage()
		if !strings.Contains(err.Error(), "help requested") {
			fmt.Printf("%s\n", err.Error())
		}
		return 1
	}

	var logWriter io.Writer = os.Stderr
	if config.LogFile != "" {
		logWriter = &lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    100,
			MaxBackups: 10,
		}
	}
	glogger := log.NewGlogHandler(log.StreamHandler(logWriter, log.TerminalFormat(false)))
	glogger.Verbosity(log.Lvl(config.LogLevel))
	log.Root().SetHandler(glogger)

	if config.List {
		for _, name := range scenarios.Names() {
			fmt.Println(name)
		}
		return 0
	}

	// The conventional way deployments point the harness at an already
	// running chain.
	if endpoint := os.Getenv("ZGS_BLOCKCHAIN_RPC_ENDPOINT"); endpoint != "" && config.Harness.ChainRPC == "" {
		config.Harness.ChainRPC = endpoint
	}

	scenario, ok := scenarios.Lookup(config.Scenario)
	if !ok {
		log.Error("unknown scenario", "scenario", config.Scenario, "available", scenarios.Names())
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	params := harness.DefaultParams()
	scenario.SetupParams(&params)
	cluster, err := harness.NewCluster(&config.Harness, params)
	if err != nil {
		log.Error("could not build cluster", "err", err)
		return 1
	}

	log.Info("starting cluster", "scenario", scenario.Name(),
		"storageNodes", params.NumStorageNodes, "chainNodes", params.NumChainNodes)
	if err := cluster.StartAll(ctx); err != nil {
		log.Error("cluster startup failed", "err", err)
		return 1
	}

	runErr := scenario.Run(ctx, cluster)
	stopErr := cluster.StopAll(runErr != nil)

	if runErr != nil {
		log.Error("scenario failed", "scenario", scenario.Name(), "err", runErr)
		return 1
	}
	if stopErr != nil {
		log.Error("cluster shutdown failed", "err", stopErr)
		return 1
	}
	log.Info("scenario passed", "scenario", scenario.Name())
	return 0
}
