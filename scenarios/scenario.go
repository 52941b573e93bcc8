// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

// Package scenarios holds the end to end checks the harness can run against
// a storage cluster. Each scenario declares the topology it needs and then
// drives the cluster through client RPCs and contract submissions only,
// the way an external user would.
package scenarios

import (
	"context"
	"crypto/rand"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/zgs-harness/harness"
	"github.com/offchainlabs/zgs-harness/rpcclient"
	"github.com/offchainlabs/zgs-harness/submission"
	"github.com/offchainlabs/zgs-harness/util/waitfor"
)

type Scenario interface {
	Name() string
	// SetupParams adjusts the cluster topology before it is built.
	SetupParams(params *harness.Params)
	Run(ctx context.Context, cluster *harness.Cluster) error
}

var registry = make(map[string]Scenario)

func register(s Scenario) {
	if _, dup := registry[s.Name()]; dup {
		panic(fmt.Sprintf("scenario %q registered twice", s.Name()))
	}
	registry[s.Name()] = s
}

func Lookup(name string) (Scenario, bool) {
	s, ok := registry[name]
	return s, ok
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// testPayload returns size random bytes. Scenario payloads are random so
// repeated runs never collide on a data root the contract already accepted.
func testPayload(size int) []byte {
	data := make([]byte, size)
	if _, err := rand.Read(data); err != nil {
		panic(err)
	}
	return data
}

// uploadFile splits the payload into segments and pushes every one to the
// node in index order.
func uploadFile(ctx context.Context, client *rpcclient.StorageClient, data []byte) error {
	segments, err := submission.Split(data)
	if err != nil {
		return err
	}
	for _, segment := range segments {
		if err := client.UploadSegment(ctx, segment); err != nil {
			return err
		}
	}
	return nil
}

// waitSubmissions blocks until the contract confirms at least want accepted
// submissions.
func waitSubmissions(ctx context.Context, contract harness.Contract, want uint64) error {
	return waitfor.Until(ctx, func() (bool, error) {
		count, err := contract.NumSubmissions(ctx)
		if err != nil {
			return false, err
		}
		return count >= want, nil
	}, waitfor.WithName(fmt.Sprintf("%d accepted submissions", want)))
}

// waitFinalized blocks until the node reports the file finalized.
func waitFinalized(ctx context.Context, client *rpcclient.StorageClient, root common.Hash, timeout time.Duration) error {
	return waitfor.Until(ctx, func() (bool, error) {
		info, err := client.GetFileInfo(ctx, root)
		if err != nil {
			return false, err
		}
		return info != nil && info.Finalized, nil
	}, waitfor.WithName(fmt.Sprintf("file %v finalized", root)), waitfor.WithTimeout(timeout))
}
