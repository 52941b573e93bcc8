// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package harness_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/require"

	"github.com/offchainlabs/zgs-harness/harness"
	"github.com/offchainlabs/zgs-harness/internal/mocknode"
	"github.com/offchainlabs/zgs-harness/util/ports"
	"github.com/offchainlabs/zgs-harness/util/testhelpers"
)

// TestMain doubles as a mock storage node. When the cluster spawns the test
// binary with --config, it behaves like the real node binary: read the
// config, serve the storage RPC, exit on SIGTERM.
func TestMain(m *testing.M) {
	for _, arg := range os.Args {
		if arg == "--config" {
			if err := mocknode.Main(os.Args); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			os.Exit(0)
		}
	}
	os.Exit(m.Run())
}

func testConfig(t *testing.T) *harness.Config {
	t.Helper()
	cfg := harness.DefaultConfig
	cfg.RootDir = t.TempDir()
	exe, err := os.Executable()
	require.NoError(t, err)
	cfg.StorageBinary = exe
	cfg.StartupTimeout = 20 * time.Second
	cfg.StopGracePeriod = 5 * time.Second
	return &cfg
}

func TestClusterRejectsBadTopology(t *testing.T) {
	cfg := testConfig(t)
	var confErr *harness.ConfigError

	_, err := harness.NewCluster(cfg, harness.Params{NumChainNodes: 2})
	require.True(t, errors.As(err, &confErr))

	_, err = harness.NewCluster(cfg, harness.Params{NumStorageNodes: 2, BootnodeIndex: 3})
	require.True(t, errors.As(err, &confErr))

	_, err = harness.NewCluster(cfg, harness.Params{NumStorageNodes: ports.MaxNodes + 1, BootnodeIndex: -1})
	require.True(t, errors.As(err, &confErr))
}

func TestStorageNodeConfigMaterialization(t *testing.T) {
	cfg := testConfig(t)
	params := harness.Params{
		NumStorageNodes: 3,
		BootnodeIndex:   0,
		StorageOverrides: map[int][]harness.StorageOverride{
			2: {func(conf *harness.StorageConfig) {
				conf.MerkleNodeCacheCapacity = 32
			}},
		},
	}
	cluster, err := harness.NewCluster(cfg, params)
	require.NoError(t, err)

	decoded := make([]harness.StorageConfig, params.NumStorageNodes)
	for i := 0; i < params.NumStorageNodes; i++ {
		node := cluster.StorageNode(i)
		require.NoError(t, node.SetupConfig())
		path := filepath.Join(node.DataDir(), "config.toml")
		_, err := toml.DecodeFile(path, &decoded[i])
		require.NoError(t, err)
	}

	for i, conf := range decoded {
		require.Equal(t, fmt.Sprintf("127.0.0.1:%d", ports.Allocate(ports.StorageRPC, i)), conf.RPCListenAddress)
		require.Equal(t, ports.Allocate(ports.StorageP2P, i), conf.NetworkLibp2pPort)
		require.Equal(t, ports.Allocate(ports.StorageDiscovery, i), conf.NetworkDiscoveryPort)
		require.Equal(t, cfg.ChainRPCEndpoint(), conf.BlockchainRPCEndpoint)
		require.True(t, strings.HasPrefix(conf.DataDir, cluster.StorageNode(i).DataDir()))
	}

	// Every node advertises a dialable ENR; community nodes additionally
	// point at the bootnode.
	for i, conf := range decoded {
		require.Equal(t, "127.0.0.1", conf.NetworkEnrAddress, "node %d", i)
		require.Equal(t, ports.Allocate(ports.StorageP2P, i), conf.NetworkEnrTcpPort, "node %d", i)
		require.Equal(t, ports.Allocate(ports.StorageDiscovery, i), conf.NetworkEnrUdpPort, "node %d", i)
	}
	require.Empty(t, decoded[0].NetworkBootNodes)
	bootAddr := fmt.Sprintf("/ip4/127.0.0.1/udp/%d/p2p/%s",
		ports.Allocate(ports.StorageDiscovery, 0), cfg.BootnodeID)
	for i := 1; i < params.NumStorageNodes; i++ {
		require.Equal(t, []string{bootAddr}, decoded[i].NetworkBootNodes)
	}

	require.Equal(t, 0, decoded[1].MerkleNodeCacheCapacity)
	require.Equal(t, 32, decoded[2].MerkleNodeCacheCapacity)
}

func TestClusterLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := testConfig(t)
	cluster, err := harness.NewCluster(cfg, harness.Params{
		NumStorageNodes: 2,
		BootnodeIndex:   -1,
	})
	Require(t, err)

	Require(t, cluster.StartAll(ctx))
	defer func() {
		_ = cluster.StopAll(true)
	}()

	for i := 0; i < cluster.NumStorageNodes(); i++ {
		node := cluster.StorageNode(i)
		require.True(t, node.Running())
		status, err := node.RPC().GetStatus(ctx)
		Require(t, err)
		require.Equal(t, 0, status.ConnectedPeers)
	}

	// Take node 1 down and bring it back while node 0 keeps serving.
	node1Dir := cluster.StorageNode(1).DataDir()
	Require(t, cluster.StopStorageNode(1, false))
	require.False(t, cluster.StorageNode(1).Running())
	_, err = os.Stat(node1Dir)
	require.True(t, os.IsNotExist(err))

	_, err = cluster.StorageNode(0).RPC().GetStatus(ctx)
	Require(t, err)

	Require(t, cluster.StartStorageNode(ctx, 1))
	require.True(t, cluster.StorageNode(1).Running())
	_, err = cluster.StorageNode(1).RPC().GetStatus(ctx)
	Require(t, err)

	Require(t, cluster.StopAll(false))
	for i := 0; i < cluster.NumStorageNodes(); i++ {
		require.False(t, cluster.StorageNode(i).Running())
	}
}

func TestStartAllStopsStartedNodesOnFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := testConfig(t)
	cfg.StartupTimeout = 3 * time.Second
	cluster, err := harness.NewCluster(cfg, harness.Params{
		NumStorageNodes: 3,
		BootnodeIndex:   -1,
		StorageOverrides: map[int][]harness.StorageOverride{
			// Node 2 listens somewhere the harness is not probing, so its
			// RPC never becomes reachable and startup must abort.
			2: {func(conf *harness.StorageConfig) {
				conf.RPCListenAddress = fmt.Sprintf("127.0.0.1:%d", ports.Allocate(ports.StorageRPC, 9))
			}},
		},
	})
	Require(t, err)

	err = cluster.StartAll(ctx)
	var startErr *harness.NodeStartupError
	require.True(t, errors.As(err, &startErr))

	for i := 0; i < cluster.NumStorageNodes(); i++ {
		require.False(t, cluster.StorageNode(i).Running(), "node %d still running after aborted start", i)
	}
}

func TestStopAllWithoutStartIsClean(t *testing.T) {
	cfg := testConfig(t)
	cluster, err := harness.NewCluster(cfg, harness.Params{NumStorageNodes: 2, BootnodeIndex: -1})
	Require(t, err)
	Require(t, cluster.StopAll(false))
}

func Require(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	testhelpers.RequireImpl(t, err, printables...)
}

func Fail(t *testing.T, printables ...interface{}) {
	t.Helper()
	testhelpers.FailImpl(t, printables...)
}
