// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package rpcclient

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/zgs-harness/submission"
)

// Status is the storage node's trivial health query, used as the readiness
// probe after process start.
type Status struct {
	ConnectedPeers int    `json:"connectedPeers"`
	LogSyncHeight  uint64 `json:"logSyncHeight"`
}

// FileInfo is the node-observed state of one submission. A file moves from
// absent to present-with-partial-segments, optionally through the cached
// pre-commit buffer, and terminally to finalized.
type FileInfo struct {
	Finalized      bool   `json:"finalized"`
	IsCached       bool   `json:"isCached"`
	UploadedSegNum uint64 `json:"uploadedSegNum"`
}

type NetworkInfo struct {
	TotalPeers             int `json:"totalPeers"`
	BannedPeers            int `json:"bannedPeers"`
	DisconnectedPeers      int `json:"disconnectedPeers"`
	ConnectedPeers         int `json:"connectedPeers"`
	ConnectedIncomingPeers int `json:"connectedIncomingPeers"`
	ConnectedOutgoingPeers int `json:"connectedOutgoingPeers"`
}

// StorageClient exposes the zgs and admin namespaces of a storage node.
type StorageClient struct {
	*Client
}

func NewStorageClient(config ClientConfigFetcher) *StorageClient {
	return &StorageClient{Client: NewClient(config)}
}

func (c *StorageClient) GetStatus(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.CallContext(ctx, &status, "zgs_getStatus"); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *StorageClient) UploadSegment(ctx context.Context, segment *submission.Segment) error {
	return c.CallContext(ctx, nil, "zgs_uploadSegment", segment)
}

// GetFileInfo returns nil without error while the node does not know the
// root yet.
func (c *StorageClient) GetFileInfo(ctx context.Context, root common.Hash) (*FileInfo, error) {
	var info *FileInfo
	if err := c.CallContext(ctx, &info, "zgs_getFileInfo", root); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *StorageClient) NetworkInfo(ctx context.Context) (*NetworkInfo, error) {
	var info NetworkInfo
	if err := c.CallContext(ctx, &info, "admin_getNetworkInfo"); err != nil {
		return nil, err
	}
	return &info, nil
}
