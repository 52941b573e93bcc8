// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package harness

import (
	"fmt"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/zgs-harness/rpcclient"
	"github.com/offchainlabs/zgs-harness/util/ports"
)

// Config carries everything the harness needs to bring up a cluster. The
// environment is consulted only at the cmd entry point; components read
// values from here exclusively.
type Config struct {
	RootDir       string `koanf:"root-dir"`
	StorageBinary string `koanf:"storage-binary"`
	ChainMakeDir  string `koanf:"chain-make-dir"`

	// ChainRPC overrides the blockchain RPC target. Empty means derive it
	// from the allocated chain HTTP port; the cmd layer fills it from
	// ZGS_BLOCKCHAIN_RPC_ENDPOINT when that is set.
	ChainRPC        string `koanf:"chain-rpc"`
	ContractAddress string `koanf:"contract-address"`
	ChainID         uint64 `koanf:"chain-id"`
	DevPrivateKey   string `koanf:"dev-private-key"`
	BlockchainID    uint64 `koanf:"blockchain-id"`

	// BootnodeID is the peer id of the pre-defined bootnode keypair under
	// NetworkDir, used when a scenario designates a bootnode.
	BootnodeID string `koanf:"bootnode-id"`
	NetworkDir string `koanf:"network-dir"`

	StartupTimeout  time.Duration          `koanf:"startup-timeout"`
	StopGracePeriod time.Duration          `koanf:"stop-grace-period"`
	RPC             rpcclient.ClientConfig `koanf:"rpc"`
}

var DefaultConfig = Config{
	RootDir:         "tmp",
	StorageBinary:   "zgs_node",
	ChainMakeDir:    ".",
	ChainID:         1337,
	DevPrivateKey:   "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
	BlockchainID:    0,
	BootnodeID:      "16Uiu2HAmLkGFUbNFYdhuSbTQ5hmnPjFXx2zUDtwQ2uihHpN9YNNe",
	StartupTimeout:  30 * time.Second,
	StopGracePeriod: 10 * time.Second,
	RPC:             rpcclient.DefaultClientConfig,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".root-dir", DefaultConfig.RootDir, "directory for node data dirs and captured logs")
	f.String(prefix+".storage-binary", DefaultConfig.StorageBinary, "path to the storage node binary")
	f.String(prefix+".chain-make-dir", DefaultConfig.ChainMakeDir, "directory holding the blockchain deploy Makefile")
	f.String(prefix+".chain-rpc", DefaultConfig.ChainRPC, "blockchain RPC endpoint override (default derives from the allocated port)")
	f.String(prefix+".contract-address", DefaultConfig.ContractAddress, "address of the deployed flow contract")
	f.Uint64(prefix+".chain-id", DefaultConfig.ChainID, "chain id used for transaction signing")
	f.String(prefix+".dev-private-key", DefaultConfig.DevPrivateKey, "hex private key of the funded dev account")
	f.Uint64(prefix+".blockchain-id", DefaultConfig.BlockchainID, "network identity storage nodes embed in their discovery records")
	f.String(prefix+".bootnode-id", DefaultConfig.BootnodeID, "peer id of the pre-defined bootnode keypair")
	f.String(prefix+".network-dir", DefaultConfig.NetworkDir, "directory with the pre-defined bootnode keypair")
	f.Duration(prefix+".startup-timeout", DefaultConfig.StartupTimeout, "how long one node may take to become RPC-ready")
	f.Duration(prefix+".stop-grace-period", DefaultConfig.StopGracePeriod, "how long a node may take to exit after a graceful stop")
	rpcclient.ClientConfigAddOptions(prefix+".rpc", f, &DefaultConfig.RPC)
}

// ChainRPCEndpoint resolves the blockchain RPC target: the configured
// override wins, otherwise the allocated port decides.
func (c *Config) ChainRPCEndpoint() string {
	if c.ChainRPC != "" {
		return c.ChainRPC
	}
	return fmt.Sprintf("http://127.0.0.1:%d", ports.Allocate(ports.ChainHTTP, 0))
}
