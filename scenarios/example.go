// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package scenarios

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/offchainlabs/zgs-harness/harness"
	"github.com/offchainlabs/zgs-harness/submission"
)

func init() {
	register(&exampleScenario{})
}

// exampleScenario is the smoke test: submit and upload one file to a single
// node, then restart that node and push a second file through it, proving
// the node comes back to a working state from its fresh disk.
type exampleScenario struct{}

func (s *exampleScenario) Name() string {
	return "example"
}

func (s *exampleScenario) SetupParams(params *harness.Params) {
	params.NumStorageNodes = 1
	params.NumChainNodes = 1
	if params.StorageOverrides == nil {
		params.StorageOverrides = make(map[int][]harness.StorageOverride)
	}
	params.StorageOverrides[0] = append(params.StorageOverrides[0],
		func(conf *harness.StorageConfig) {
			conf.MerkleNodeCacheCapacity = 1024
		})
}

func (s *exampleScenario) Run(ctx context.Context, cluster *harness.Cluster) error {
	if err := s.submitAndFinalize(ctx, cluster, testPayload(256*1024), 1); err != nil {
		return err
	}

	log.Info("restarting node 0 with an empty disk")
	if err := cluster.StopStorageNode(0, false); err != nil {
		return err
	}
	if err := cluster.StartStorageNode(ctx, 0); err != nil {
		return err
	}

	// Two segments this time, exercising the multi-segment path after the
	// restart.
	if err := s.submitAndFinalize(ctx, cluster, testPayload(256*1029), 2); err != nil {
		return errors.Wrap(err, "after restart")
	}
	return nil
}

func (s *exampleScenario) submitAndFinalize(ctx context.Context, cluster *harness.Cluster, data []byte, wantSubmissions uint64) error {
	sub, root, err := submission.NewSubmission(data, nil)
	if err != nil {
		return err
	}
	log.Info("submitting file", "root", root, "size", len(data))
	if err := cluster.Contract().Submit(ctx, sub); err != nil {
		return err
	}
	if err := waitSubmissions(ctx, cluster.Contract(), wantSubmissions); err != nil {
		return err
	}

	client := cluster.StorageNode(0).RPC()
	if err := uploadFile(ctx, client, data); err != nil {
		return err
	}
	return waitFinalized(ctx, client, root, 2*time.Minute)
}
