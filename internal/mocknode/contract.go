// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package mocknode

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/zgs-harness/submission"
)

// Contract is an in-memory flow contract. Each accepted submission is
// announced to the attached storage services, standing in for the log-sync
// path a real node follows.
type Contract struct {
	mu       sync.Mutex
	accepted map[common.Hash]bool
	watchers []*StorageService
}

func NewContract(watchers ...*StorageService) *Contract {
	return &Contract{
		accepted: make(map[common.Hash]bool),
		watchers: watchers,
	}
}

func (c *Contract) Submit(ctx context.Context, sub *submission.Submission) error {
	root := common.Hash(sub.DataRoot)
	c.mu.Lock()
	if c.accepted[root] {
		c.mu.Unlock()
		return fmt.Errorf("root %v already submitted", root)
	}
	c.accepted[root] = true
	watchers := c.watchers
	c.mu.Unlock()

	for _, w := range watchers {
		w.Announce(root, sub.Length.Uint64())
	}
	return nil
}

func (c *Contract) NumSubmissions(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint64(len(c.accepted)), nil
}
