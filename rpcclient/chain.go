// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
)

// ChainClient exposes the blockchain node methods the harness needs. The
// contract handle talks to the same endpoint through ethclient; this client
// only carries the readiness probe.
type ChainClient struct {
	*Client
}

func NewChainClient(config ClientConfigFetcher) *ChainClient {
	return &ChainClient{Client: NewClient(config)}
}

// Syncing reports whether the chain is still syncing. The wire result is
// either false or a progress object.
func (c *ChainClient) Syncing(ctx context.Context) (bool, error) {
	var raw json.RawMessage
	if err := c.CallContext(ctx, &raw, "eth_syncing"); err != nil {
		return false, err
	}
	return !bytes.Equal(raw, []byte("false")), nil
}
