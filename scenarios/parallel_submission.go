// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package scenarios

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/offchainlabs/zgs-harness/harness"
	"github.com/offchainlabs/zgs-harness/submission"
)

func init() {
	register(&parallelSubmissionScenario{})
}

const (
	parallelFiles = 16
	// One byte short of 960 full chunks, so each file pads up to a single
	// 1024 chunk subtree.
	parallelFileSize = 245759
)

// parallelSubmissionScenario races many submissions against their uploads.
// Submissions land on chain in order, but the segment uploads arrive
// concurrently and in no particular order, which is exactly the traffic a
// busy node sees.
type parallelSubmissionScenario struct{}

func (s *parallelSubmissionScenario) Name() string {
	return "parallel-submission"
}

func (s *parallelSubmissionScenario) SetupParams(params *harness.Params) {
	params.NumStorageNodes = 1
	params.NumChainNodes = 1
}

func (s *parallelSubmissionScenario) Run(ctx context.Context, cluster *harness.Cluster) error {
	payloads := make([][]byte, parallelFiles)
	roots := make([]common.Hash, parallelFiles)
	subs := make([]*submission.Submission, parallelFiles)
	for i := range payloads {
		payloads[i] = testPayload(parallelFileSize)
		sub, root, err := submission.NewSubmission(payloads[i], nil)
		if err != nil {
			return err
		}
		subs[i] = sub
		roots[i] = root
	}

	// Submissions go in sequentially so the dev account's nonces stay in
	// order; uploads run concurrently.
	for i, sub := range subs {
		if err := cluster.Contract().Submit(ctx, sub); err != nil {
			return err
		}
		log.Info("submitted", "file", i, "root", roots[i])
	}
	if err := waitSubmissions(ctx, cluster.Contract(), parallelFiles); err != nil {
		return err
	}

	client := cluster.StorageNode(0).RPC()
	group, groupCtx := errgroup.WithContext(ctx)
	for i := range payloads {
		data := payloads[i]
		group.Go(func() error {
			return uploadFile(groupCtx, client, data)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for i, root := range roots {
		if err := waitFinalized(ctx, client, root, 2*time.Minute); err != nil {
			return err
		}
		log.Info("finalized", "file", i, "root", root)
	}
	return nil
}
