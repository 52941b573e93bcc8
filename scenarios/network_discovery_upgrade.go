// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package scenarios

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/zgs-harness/harness"
	"github.com/offchainlabs/zgs-harness/util/waitfor"
)

func init() {
	register(&networkDiscoveryUpgradeScenario{})
}

// networkDiscoveryUpgradeScenario pairs a bootnode with a peer whose
// discovery record omits the network identity, the way nodes built before
// the identity field behaved. The records are incompatible, so the two must
// never establish a connection.
type networkDiscoveryUpgradeScenario struct{}

func (s *networkDiscoveryUpgradeScenario) Name() string {
	return "network-discovery-upgrade"
}

func (s *networkDiscoveryUpgradeScenario) SetupParams(params *harness.Params) {
	params.NumStorageNodes = 2
	params.NumChainNodes = 1
	params.BootnodeIndex = 0
	if params.StorageOverrides == nil {
		params.StorageOverrides = make(map[int][]harness.StorageOverride)
	}
	params.StorageOverrides[1] = append(params.StorageOverrides[1],
		func(conf *harness.StorageConfig) {
			conf.DisableEnrNetworkID = true
		})
}

func (s *networkDiscoveryUpgradeScenario) Run(ctx context.Context, cluster *harness.Cluster) error {
	// Zero connections must hold over repeated polls, not just at startup,
	// since discovery could kick in late. One observed connection is an
	// immediate failure, never something to wait out.
	err := waitfor.Never(ctx, func() (bool, error) {
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
		return total > 0, nil
	}, waitfor.WithName("cross-version connection"),
		waitfor.WithInterval(time.Second), waitfor.WithTimeout(10*time.Second))
	if err != nil {
		return err
	}
	log.Info("incompatible discovery records never connected")
	return nil
}
