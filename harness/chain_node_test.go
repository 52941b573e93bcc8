// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package harness

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/offchainlabs/zgs-harness/util/ports"
)

func TestChainNodeRejectsNonzeroIndex(t *testing.T) {
	cfg := DefaultConfig
	_, err := NewChainNode(1, &cfg)
	var confErr *ConfigError
	require.True(t, errors.As(err, &confErr))

	node, err := NewChainNode(0, &cfg)
	require.NoError(t, err)
	require.Equal(t, 0, node.Index())
}

func TestChainNodeMakeArgs(t *testing.T) {
	cfg := DefaultConfig
	node, err := NewChainNode(0, &cfg)
	require.NoError(t, err)

	args := node.makeArgs("deploy")
	require.Equal(t, "deploy", args[0])

	want := map[string]int{
		"ETH_HTTP_PORT":      ports.Allocate(ports.ChainHTTP, 0),
		"ETH_WS_PORT":        ports.Allocate(ports.ChainWS, 0),
		"ETH_METRICS_PORT":   ports.Allocate(ports.ChainMetrics, 0),
		"AUTHRPC_PORT":       ports.Allocate(ports.ChainAuthRPC, 0),
		"CONSENSUS_RPC_PORT": ports.Allocate(ports.ConsensusRPC, 0),
		"CONSENSUS_P2P_PORT": ports.Allocate(ports.ConsensusP2P, 0),
		"NODE_API_PORT":      ports.Allocate(ports.NodeAPI, 0),
		"P2P_PORT":           ports.Allocate(ports.StorageP2P, 0),
		"DISCOVERY_PORT":     ports.Allocate(ports.StorageDiscovery, 0),
	}
	got := make(map[string]string)
	for _, arg := range args[1:] {
		parts := strings.SplitN(arg, "=", 2)
		require.Len(t, parts, 2, "make argument %q", arg)
		got[parts[0]] = parts[1]
	}
	for name, port := range want {
		require.Equal(t, fmt.Sprintf("%d", port), got[name], "port variable %s", name)
	}
	require.Contains(t, got, "DATA_DIR")
}

func TestChainRPCEndpointOverride(t *testing.T) {
	cfg := DefaultConfig
	require.Equal(t,
		fmt.Sprintf("http://127.0.0.1:%d", ports.Allocate(ports.ChainHTTP, 0)),
		cfg.ChainRPCEndpoint())

	cfg.ChainRPC = "http://10.0.0.7:8545"
	require.Equal(t, "http://10.0.0.7:8545", cfg.ChainRPCEndpoint())
}
