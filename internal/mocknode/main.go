// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package mocknode

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/BurntSushi/toml"
)

// Main runs a mock storage node as its own process. The harness tests
// re-exec the test binary through this entry so cluster lifecycle code can
// spawn, probe and stop a real OS process. The node reads the same
// config.toml the harness materializes for the real binary and serves its
// RPC on the configured listen address until terminated.
func Main(args []string) error {
	configPath := ""
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			configPath = args[i+1]
		}
	}
	if configPath == "" {
		return fmt.Errorf("mocknode: missing --config argument")
	}

	var config struct {
		RPCListenAddress string `toml:"rpc_listen_address"`
	}
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return fmt.Errorf("mocknode: reading %s: %w", configPath, err)
	}
	_, portStr, err := net.SplitHostPort(config.RPCListenAddress)
	if err != nil {
		return fmt.Errorf("mocknode: bad rpc_listen_address %q: %w", config.RPCListenAddress, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("mocknode: bad rpc port %q: %w", portStr, err)
	}

	stack, err := StartServer(port, NewStorageService())
	if err != nil {
		return err
	}
	defer stack.Close()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint
	return nil
}
