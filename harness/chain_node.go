// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package harness

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/offchainlabs/zgs-harness/rpcclient"
	"github.com/offchainlabs/zgs-harness/util/ports"
	"github.com/offchainlabs/zgs-harness/util/waitfor"
)

// ChainNode drives the single-validator blockchain deployment through an
// external make target set. The Makefile owns genesis, process start and
// process stop; the harness parameterizes it with the data directory and
// every port the chain stack listens on.
//
// The deployment supports exactly one chain node: requesting any other
// index is a configuration error, not something to silently ignore.
type ChainNode struct {
	index   int
	cfg     *Config
	rpcURL  string
	client  *rpcclient.ChainClient
	running bool
}

func NewChainNode(index int, cfg *Config) (*ChainNode, error) {
	if index != 0 {
		return nil, configErrf("the make deployment supports a single chain node, got index %d", index)
	}
	return &ChainNode{
		index:  index,
		cfg:    cfg,
		rpcURL: cfg.ChainRPCEndpoint(),
	}, nil
}

func (n *ChainNode) Index() int {
	return n.index
}

func (n *ChainNode) RPCEndpoint() string {
	return n.rpcURL
}

func (n *ChainNode) Running() bool {
	return n.running
}

func (n *ChainNode) dataDir() string {
	return filepath.Join(n.cfg.ChainMakeDir, "tmp", fmt.Sprintf("data_%d", ports.Allocate(ports.ChainHTTP, 0)))
}

func (n *ChainNode) makeArgs(target string) []string {
	return []string{
		target,
		fmt.Sprintf("DATA_DIR=%s", filepath.Join("tmp", fmt.Sprintf("data_%d", ports.Allocate(ports.ChainHTTP, 0)))),
		fmt.Sprintf("ETH_HTTP_PORT=%d", ports.Allocate(ports.ChainHTTP, 0)),
		fmt.Sprintf("ETH_WS_PORT=%d", ports.Allocate(ports.ChainWS, 0)),
		fmt.Sprintf("ETH_METRICS_PORT=%d", ports.Allocate(ports.ChainMetrics, 0)),
		fmt.Sprintf("AUTHRPC_PORT=%d", ports.Allocate(ports.ChainAuthRPC, 0)),
		fmt.Sprintf("CONSENSUS_RPC_PORT=%d", ports.Allocate(ports.ConsensusRPC, 0)),
		fmt.Sprintf("CONSENSUS_P2P_PORT=%d", ports.Allocate(ports.ConsensusP2P, 0)),
		fmt.Sprintf("NODE_API_PORT=%d", ports.Allocate(ports.NodeAPI, 0)),
		fmt.Sprintf("P2P_PORT=%d", ports.Allocate(ports.StorageP2P, 0)),
		fmt.Sprintf("DISCOVERY_PORT=%d", ports.Allocate(ports.StorageDiscovery, 0)),
	}
}

// runMake executes one make target with output captured to a log file.
// A non-zero exit is fatal for the run and reported with the log location.
func (n *ChainNode) runMake(target string) error {
	logPath := filepath.Join(n.cfg.RootDir, fmt.Sprintf("chain_%s.log", target))
	if err := os.MkdirAll(n.cfg.RootDir, 0o755); err != nil {
		return errors.Wrap(err, "creating harness root dir")
	}
	logFile, err := os.Create(logPath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", logPath)
	}
	defer logFile.Close()

	cmd := exec.Command("make", n.makeArgs(target)...)
	cmd.Dir = n.cfg.ChainMakeDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	log.Info("running chain make target", "target", target, "log", logPath)
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "make %s failed, see log at %s", target, logPath)
	}
	return nil
}

// SetupConfig deploys the chain genesis. Idempotent: the Makefile rebuilds
// the data directory from scratch.
func (n *ChainNode) SetupConfig() error {
	return n.runMake("deploy")
}

func (n *ChainNode) Start(ctx context.Context) error {
	if err := n.runMake("start"); err != nil {
		return &NodeStartupError{Node: n.name(), Err: err}
	}
	n.running = true
	return nil
}

// WaitForRPC polls eth_syncing until the chain reports not-syncing.
func (n *ChainNode) WaitForRPC(ctx context.Context) error {
	config := &rpcclient.ClientConfig{URL: n.rpcURL, Timeout: n.cfg.RPC.Timeout}
	client := rpcclient.NewChainClient(func() *rpcclient.ClientConfig { return config })
	if err := client.Start(ctx); err != nil {
		return &NodeStartupError{Node: n.name(), Err: err}
	}

	err := waitfor.Until(ctx, func() (bool, error) {
		syncing, err := client.Syncing(ctx)
		if err != nil {
			return false, err
		}
		return !syncing, nil
	}, waitfor.WithName("chain rpc"), waitfor.WithTimeout(n.cfg.StartupTimeout))
	if err != nil {
		client.Close()
		return &NodeStartupError{Node: n.name(), Err: err}
	}
	n.client = client
	log.Info("chain node ready", "rpc", n.rpcURL)
	return nil
}

// RPC returns the cached client; nil until WaitForRPC succeeded.
func (n *ChainNode) RPC() *rpcclient.ChainClient {
	return n.client
}

func (n *ChainNode) Stop(force bool) error {
	if n.client != nil {
		n.client.Close()
		n.client = nil
	}
	var stopErr error
	if err := n.runMake("stop"); err != nil {
		stopErr = &NodeShutdownError{Node: n.name(), Err: err}
	}
	if err := os.RemoveAll(n.dataDir()); err != nil {
		log.Warn("could not clean chain data dir", "err", err)
	}
	n.running = false
	return stopErr
}

func (n *ChainNode) name() string {
	return "chain node"
}
