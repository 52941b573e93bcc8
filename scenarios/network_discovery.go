// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package scenarios

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/zgs-harness/harness"
	"github.com/offchainlabs/zgs-harness/util/waitfor"
)

func init() {
	register(&networkDiscoveryScenario{})
}

const discoveryNodes = 3

// networkDiscoveryScenario starts a bootnode and two peers that only know
// the bootnode. Discovery has to spread the peer set until every node is
// connected to every other node.
type networkDiscoveryScenario struct{}

func (s *networkDiscoveryScenario) Name() string {
	return "network-discovery"
}

func (s *networkDiscoveryScenario) SetupParams(params *harness.Params) {
	params.NumStorageNodes = discoveryNodes
	params.NumChainNodes = 1
	params.BootnodeIndex = 0
}

func (s *networkDiscoveryScenario) Run(ctx context.Context, cluster *harness.Cluster) error {
	// A full mesh has every ordered pair connected.
	wantConnections := discoveryNodes * (discoveryNodes - 1)

	err := waitfor.Until(ctx, func() (bool, error) {
		total := 0
		for i := 0; i < cluster.NumStorageNodes(); i++ {
			info, err := cluster.StorageNode(i).RPC().NetworkInfo(ctx)
			if err != nil {
				return false, err
			}
			log.Info("peer summary", "node", i, "total", info.TotalPeers,
				"banned", info.BannedPeers, "connected", info.ConnectedPeers)
			total += info.ConnectedPeers
		}
		return total >= wantConnections, nil
	}, waitfor.WithName("full mesh discovered"),
		waitfor.WithInterval(time.Second), waitfor.WithTimeout(2*time.Minute))
	if err != nil {
		return err
	}

	for i := 0; i < cluster.NumStorageNodes(); i++ {
		info, err := cluster.StorageNode(i).RPC().NetworkInfo(ctx)
		if err != nil {
			return err
		}
		if info.ConnectedPeers != info.ConnectedIncomingPeers+info.ConnectedOutgoingPeers {
			return fmt.Errorf("node %d peer accounting is inconsistent: %+v", i, info)
		}
	}
	return nil
}
