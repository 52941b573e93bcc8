// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package scenarios

import (
	"context"
	"time"

	"github.com/offchainlabs/zgs-harness/harness"
	"github.com/offchainlabs/zgs-harness/util/waitfor"
)

func init() {
	register(&networkIDScenario{})
}

// networkIDScenario runs one node on a different blockchain id than the
// rest. The majority must ban the odd one out, and the odd one out must ban
// everyone it meets.
type networkIDScenario struct{}

func (s *networkIDScenario) Name() string {
	return "network-id"
}

func (s *networkIDScenario) SetupParams(params *harness.Params) {
	params.NumStorageNodes = 3
	params.NumChainNodes = 1
	params.BootnodeIndex = 0
	if params.StorageOverrides == nil {
		params.StorageOverrides = make(map[int][]harness.StorageOverride)
	}
	params.StorageOverrides[2] = append(params.StorageOverrides[2],
		func(conf *harness.StorageConfig) {
			conf.BlockchainID++
		})
}

func (s *networkIDScenario) Run(ctx context.Context, cluster *harness.Cluster) error {
	bans := func(i int) (int, error) {
		info, err := cluster.StorageNode(i).RPC().NetworkInfo(ctx)
		if err != nil {
			return 0, err
		}
		return info.BannedPeers, nil
	}

	return waitfor.Until(ctx, func() (bool, error) {
		for i := 0; i < 2; i++ {
			banned, err := bans(i)
			if err != nil {
				return false, err
			}
			if banned != 1 {
				return false, nil
			}
		}
		banned, err := bans(2)
		if err != nil {
			return false, err
		}
		return banned == 2, nil
	}, waitfor.WithName("mismatched network id banned"),
		waitfor.WithInterval(time.Second), waitfor.WithTimeout(time.Minute))
}
