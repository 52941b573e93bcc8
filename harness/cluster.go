// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package harness

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/offchainlabs/zgs-harness/util/ports"
)

// Params sizes one cluster run. Scenarios adjust these before the cluster
// is built; afterwards the topology is fixed.
type Params struct {
	NumStorageNodes int
	NumChainNodes   int
	// BootnodeIndex selects the storage node whose discovery endpoint is
	// handed to every other node as a boot node. Negative disables
	// bootstrap wiring and leaves the nodes isolated.
	BootnodeIndex int
	// StorageOverrides adjusts individual node configs by index.
	StorageOverrides map[int][]StorageOverride
}

func DefaultParams() Params {
	return Params{
		NumStorageNodes: 1,
		NumChainNodes:   1,
		BootnodeIndex:   -1,
	}
}

// Cluster owns the node set of a single run: at most one chain node, any
// number of storage nodes up to the port space, and the flow contract
// handle once the chain answers.
type Cluster struct {
	cfg     *Config
	params  Params
	chain   *ChainNode
	storage []*StorageNode

	contract Contract
	backend  *ethclient.Client
}

func NewCluster(cfg *Config, params Params) (*Cluster, error) {
	if params.NumChainNodes < 0 || params.NumChainNodes > 1 {
		return nil, configErrf("cluster supports at most one chain node, got %d", params.NumChainNodes)
	}
	if params.NumStorageNodes < 0 || params.NumStorageNodes > ports.MaxNodes {
		return nil, configErrf("storage node count %d outside the port space (max %d)", params.NumStorageNodes, ports.MaxNodes)
	}
	if params.BootnodeIndex >= params.NumStorageNodes {
		return nil, configErrf("bootnode index %d has no matching storage node", params.BootnodeIndex)
	}

	c := &Cluster{cfg: cfg, params: params}
	if params.NumChainNodes == 1 {
		chain, err := NewChainNode(0, cfg)
		if err != nil {
			return nil, err
		}
		c.chain = chain
	}
	for i := 0; i < params.NumStorageNodes; i++ {
		overrides := append([]StorageOverride{}, params.StorageOverrides[i]...)
		if params.BootnodeIndex >= 0 {
			// Discovery requires a dialable ENR on every node, not just the
			// bootnode: community nodes learn of each other through the
			// bootnode and then dial the advertised endpoints directly.
			index := i
			overrides = append(overrides, func(conf *StorageConfig) {
				conf.NetworkEnrAddress = "127.0.0.1"
				conf.NetworkEnrTcpPort = ports.Allocate(ports.StorageP2P, index)
				conf.NetworkEnrUdpPort = ports.Allocate(ports.StorageDiscovery, index)
			})
			if i == params.BootnodeIndex {
				overrides = append(overrides, func(conf *StorageConfig) {
					// The pre-defined keypair keeps the bootnode's peer
					// id stable across runs so BootnodeID stays valid.
					conf.NetworkDir = cfg.NetworkDir
				})
			} else {
				bootAddr := bootnodeMultiaddr(cfg, params.BootnodeIndex)
				overrides = append(overrides, func(conf *StorageConfig) {
					conf.NetworkBootNodes = append(conf.NetworkBootNodes, bootAddr)
				})
			}
		}
		c.storage = append(c.storage, NewStorageNode(i, cfg, overrides...))
	}
	return c, nil
}

// NewClusterFromNodes builds a cluster around externally managed nodes and
// an existing contract handle. Used when the processes are stood up by the
// caller rather than by StartAll.
func NewClusterFromNodes(cfg *Config, nodes []*StorageNode, contract Contract) *Cluster {
	return &Cluster{
		cfg:      cfg,
		params:   Params{NumStorageNodes: len(nodes), BootnodeIndex: -1},
		storage:  nodes,
		contract: contract,
	}
}

func bootnodeMultiaddr(cfg *Config, index int) string {
	return fmt.Sprintf("/ip4/127.0.0.1/udp/%d/p2p/%s",
		ports.Allocate(ports.StorageDiscovery, index), cfg.BootnodeID)
}

func (c *Cluster) NumStorageNodes() int {
	return len(c.storage)
}

// StorageNode returns the node at index; panics on a bad index the same way
// a slice would.
func (c *Cluster) StorageNode(index int) *StorageNode {
	return c.storage[index]
}

func (c *Cluster) ChainNode() *ChainNode {
	return c.chain
}

// Contract returns the flow contract handle; nil until the chain node is up
// unless one was injected.
func (c *Cluster) Contract() Contract {
	return c.contract
}

// StartAll brings the whole cluster up in order: chain node first, then the
// flow contract handle, then every storage node by index. Any failure stops
// the nodes already started before the error is returned.
func (c *Cluster) StartAll(ctx context.Context) error {
	if err := os.MkdirAll(c.cfg.RootDir, 0o755); err != nil {
		return errors.Wrap(err, "creating harness root dir")
	}
	if err := c.startAll(ctx); err != nil {
		if stopErr := c.StopAll(true); stopErr != nil {
			log.Warn("cleanup after failed start reported errors", "err", stopErr)
		}
		return err
	}
	return nil
}

func (c *Cluster) startAll(ctx context.Context) error {
	if c.chain != nil {
		if err := c.startNode(ctx, c.chain); err != nil {
			return err
		}
		if err := c.connectContract(ctx); err != nil {
			return err
		}
	}
	for _, node := range c.storage {
		if err := c.startNode(ctx, node); err != nil {
			return err
		}
	}
	log.Info("cluster started", "storageNodes", len(c.storage), "chainNodes", c.params.NumChainNodes)
	return nil
}

func (c *Cluster) startNode(ctx context.Context, node Node) error {
	if err := node.SetupConfig(); err != nil {
		return err
	}
	if err := node.Start(ctx); err != nil {
		return err
	}
	return node.WaitForRPC(ctx)
}

func (c *Cluster) connectContract(ctx context.Context) error {
	backend, err := ethclient.DialContext(ctx, c.cfg.ChainRPCEndpoint())
	if err != nil {
		return errors.Wrap(err, "dialing chain rpc for contract")
	}
	contract, err := NewFlowContract(c.cfg, backend)
	if err != nil {
		backend.Close()
		return err
	}
	c.backend = backend
	c.contract = contract
	return nil
}

// StopAll stops every node in reverse start order. Every node gets a stop
// attempt regardless of earlier failures; the errors are aggregated.
func (c *Cluster) StopAll(force bool) error {
	var result *multierror.Error
	for i := len(c.storage) - 1; i >= 0; i-- {
		if err := c.storage[i].Stop(force); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if c.backend != nil {
		c.backend.Close()
		c.backend = nil
		c.contract = nil
	}
	if c.chain != nil {
		if err := c.chain.Stop(force); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// StopStorageNode takes one node down while the rest of the cluster keeps
// running, for restart scenarios.
func (c *Cluster) StopStorageNode(index int, force bool) error {
	if index < 0 || index >= len(c.storage) {
		return configErrf("no storage node at index %d", index)
	}
	return c.storage[index].Stop(force)
}

// StartStorageNode brings a previously stopped node back. The node's data
// directory was removed on stop, so it comes back empty and re-syncs.
func (c *Cluster) StartStorageNode(ctx context.Context, index int) error {
	if index < 0 || index >= len(c.storage) {
		return configErrf("no storage node at index %d", index)
	}
	return c.startNode(ctx, c.storage[index])
}
