// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package scenarios

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/offchainlabs/zgs-harness/harness"
	"github.com/offchainlabs/zgs-harness/submission"
	"github.com/offchainlabs/zgs-harness/util/waitfor"
)

func init() {
	register(&cacheScenario{})
}

// cacheScenario uploads a segment before the file's submission reaches the
// chain. The node has to hold the segment in its cache, adopt it once the
// submission lands, and finalize after the remaining segment arrives.
type cacheScenario struct{}

func (s *cacheScenario) Name() string {
	return "cache"
}

func (s *cacheScenario) SetupParams(params *harness.Params) {
	params.NumStorageNodes = 1
	params.NumChainNodes = 1
}

func (s *cacheScenario) Run(ctx context.Context, cluster *harness.Cluster) error {
	// 1025 chunks, one byte past a full segment, so the file spans two
	// segments with a nearly empty second one.
	data := testPayload(262400)
	sub, root, err := submission.NewSubmission(data, nil)
	if err != nil {
		return err
	}
	segments, err := submission.Split(data)
	if err != nil {
		return err
	}
	if len(segments) != 2 {
		return errors.Errorf("expected 2 segments, got %d", len(segments))
	}

	client := cluster.StorageNode(0).RPC()

	// First segment goes up before the chain knows the file exists.
	if err := client.UploadSegment(ctx, segments[0]); err != nil {
		return errors.Wrap(err, "uploading segment ahead of submission")
	}
	if err := cluster.Contract().Submit(ctx, sub); err != nil {
		return err
	}
	if err := waitSubmissions(ctx, cluster.Contract(), 1); err != nil {
		return err
	}

	// The cached segment must be adopted once the submission is seen.
	err = waitfor.Until(ctx, func() (bool, error) {
		info, err := client.GetFileInfo(ctx, root)
		if err != nil {
			return false, err
		}
		return info != nil && !info.IsCached && info.UploadedSegNum == 1, nil
	}, waitfor.WithName("cached segment adopted"), waitfor.WithTimeout(time.Minute))
	if err != nil {
		return err
	}

	if err := client.UploadSegment(ctx, segments[1]); err != nil {
		return err
	}
	return waitFinalized(ctx, client, root, 180*time.Second)
}
