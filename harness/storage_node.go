// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/zgs-harness/rpcclient"
	"github.com/offchainlabs/zgs-harness/util/ports"
	"github.com/offchainlabs/zgs-harness/util/waitfor"
)

// StorageConfig is the recognized option surface of the storage node's
// config.toml, built once per index before process start and immutable
// afterwards.
type StorageConfig struct {
	DataDir          string `toml:"db_dir"`
	LogDir           string `toml:"log_directory"`
	RPCListenAddress string `toml:"rpc_listen_address"`

	NetworkLibp2pPort    int    `toml:"network_libp2p_port"`
	NetworkDiscoveryPort int    `toml:"network_discovery_port"`
	NetworkDir           string `toml:"network_dir,omitempty"`

	NetworkEnrAddress string `toml:"network_enr_address,omitempty"`
	NetworkEnrTcpPort int    `toml:"network_enr_tcp_port,omitempty"`
	NetworkEnrUdpPort int    `toml:"network_enr_udp_port,omitempty"`

	NetworkBootNodes   []string `toml:"network_boot_nodes"`
	NetworkLibp2pNodes []string `toml:"network_libp2p_nodes"`

	// DisableEnrNetworkID drops the network identity from the node's
	// discovery record, modelling a peer running a pre-identity version.
	DisableEnrNetworkID bool `toml:"discv5_disable_enr_network_id,omitempty"`

	BlockchainID            uint64 `toml:"blockchain_id"`
	BlockchainRPCEndpoint   string `toml:"blockchain_rpc_endpoint"`
	LogContractAddress      string `toml:"log_contract_address"`
	MerkleNodeCacheCapacity int    `toml:"merkle_node_cache_capacity,omitempty"`
}

// StorageOverride adjusts one node's configuration before it is written.
type StorageOverride func(*StorageConfig)

// StorageNode drives one storage node binary.
type StorageNode struct {
	index   int
	cfg     *Config
	conf    *StorageConfig
	dataDir string
	rpcURL  string

	proc         *process
	client       *rpcclient.StorageClient
	running      bool
	rpcConnected bool

	overrides []StorageOverride
}

func NewStorageNode(index int, cfg *Config, overrides ...StorageOverride) *StorageNode {
	return &StorageNode{
		index:     index,
		cfg:       cfg,
		dataDir:   filepath.Join(cfg.RootDir, fmt.Sprintf("node%d", index)),
		rpcURL:    fmt.Sprintf("http://127.0.0.1:%d", ports.Allocate(ports.StorageRPC, index)),
		overrides: overrides,
	}
}

func (n *StorageNode) Index() int {
	return n.index
}

func (n *StorageNode) RPCEndpoint() string {
	return n.rpcURL
}

func (n *StorageNode) Running() bool {
	return n.running && n.proc != nil && !n.proc.exited()
}

func (n *StorageNode) DataDir() string {
	return n.dataDir
}

func (n *StorageNode) configPath() string {
	return filepath.Join(n.dataDir, "config.toml")
}

func (n *StorageNode) logPath() string {
	return filepath.Join(n.dataDir, "zgs.log")
}

func (n *StorageNode) defaultConfig() *StorageConfig {
	return &StorageConfig{
		DataDir:               filepath.Join(n.dataDir, "db"),
		LogDir:                filepath.Join(n.dataDir, "log"),
		RPCListenAddress:      fmt.Sprintf("127.0.0.1:%d", ports.Allocate(ports.StorageRPC, n.index)),
		NetworkLibp2pPort:     ports.Allocate(ports.StorageP2P, n.index),
		NetworkDiscoveryPort:  ports.Allocate(ports.StorageDiscovery, n.index),
		NetworkBootNodes:      []string{},
		NetworkLibp2pNodes:    []string{},
		BlockchainID:          n.cfg.BlockchainID,
		BlockchainRPCEndpoint: n.cfg.ChainRPCEndpoint(),
		LogContractAddress:    n.cfg.ContractAddress,
	}
}

// SetupConfig materializes config.toml under the node's data directory.
// Idempotent per index and independent of any other node.
func (n *StorageNode) SetupConfig() error {
	conf := n.defaultConfig()
	for _, override := range n.overrides {
		override(conf)
	}
	n.conf = conf

	if err := os.MkdirAll(n.dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir for node %d: %w", n.index, err)
	}
	f, err := os.Create(n.configPath())
	if err != nil {
		return fmt.Errorf("writing config for node %d: %w", n.index, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(conf); err != nil {
		return fmt.Errorf("encoding config for node %d: %w", n.index, err)
	}
	return nil
}

// Config returns the materialized configuration; nil before SetupConfig.
func (n *StorageNode) Config() *StorageConfig {
	return n.conf
}

func (n *StorageNode) Start(ctx context.Context) error {
	if n.conf == nil {
		return configErrf("storage node %d started before SetupConfig", n.index)
	}
	log.Info("starting storage node", "index", n.index, "rpc", n.rpcURL)
	proc, err := startProcess(n.logPath(), n.cfg.StorageBinary, "--config", n.configPath())
	if err != nil {
		return &NodeStartupError{Node: n.name(), Err: err}
	}
	n.proc = proc
	n.running = true
	return nil
}

// WaitForRPC polls the status probe until the node answers or the startup
// timeout elapses. On success the RPC handle is cached on the node.
func (n *StorageNode) WaitForRPC(ctx context.Context) error {
	config := &rpcclient.ClientConfig{URL: n.rpcURL, Timeout: n.cfg.RPC.Timeout}
	client := rpcclient.NewStorageClient(func() *rpcclient.ClientConfig { return config })
	if err := client.Start(ctx); err != nil {
		return &NodeStartupError{Node: n.name(), LogPath: n.logPath(), Err: err}
	}

	err := waitfor.Until(ctx, func() (bool, error) {
		_, err := client.GetStatus(ctx)
		return err == nil, err
	}, waitfor.WithName(n.name()+" rpc"), waitfor.WithTimeout(n.cfg.StartupTimeout))
	if err != nil {
		client.Close()
		return &NodeStartupError{Node: n.name(), LogPath: n.logPath(), Err: err}
	}
	n.client = client
	n.rpcConnected = true
	log.Info("storage node ready", "index", n.index)
	return nil
}

// RPC returns the cached client; nil until WaitForRPC succeeded.
func (n *StorageNode) RPC() *rpcclient.StorageClient {
	return n.client
}

// Stop shuts the process down and removes the node's working directory.
// Both belong to the same transaction; missing paths are not failures.
func (n *StorageNode) Stop(force bool) error {
	if n.client != nil {
		n.client.Close()
		n.client = nil
	}
	n.rpcConnected = false

	var stopErr error
	if n.proc != nil {
		if err := n.proc.stop(n.cfg.StopGracePeriod, force); err != nil {
			stopErr = &NodeShutdownError{Node: n.name(), Err: err}
		}
		n.proc = nil
	}
	n.running = false

	// Best-effort, idempotent cleanup.
	if err := os.RemoveAll(n.dataDir); err != nil {
		log.Warn("could not clean storage node data dir", "index", n.index, "err", err)
	}
	return stopErr
}

func (n *StorageNode) name() string {
	return fmt.Sprintf("storage node %d", n.index)
}
