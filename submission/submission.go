// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

// Package submission is the pure data-transform layer of the harness. It
// splits a payload into fixed-size chunks and transport segments, folds the
// chunks into a content root, and builds the record the flow contract
// expects. Nothing in here performs I/O.
package submission

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// ChunkSize is the unit the content root is built from.
	ChunkSize = 256
	// ChunksPerSegment chunks form one transport segment.
	ChunksPerSegment = 1024
	// SegmentSize is the transport granularity of uploads.
	SegmentSize = ChunkSize * ChunksPerSegment
)

// ProtocolError indicates malformed or inconsistent submission or segment
// data. It points at a programming error in payload construction, so callers
// must treat it as fatal and never retry it.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "submission: " + e.Reason
}

func protocolErrf(format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// SubmissionNode describes one power-of-two subtree of the padded chunk
// tree. Field names follow the contract tuple components.
type SubmissionNode struct {
	Root   [32]byte
	Height *big.Int
}

// Submission is the on-chain record for one payload. Submitted to the flow
// contract exactly once per unique payload; resubmission is a contract-level
// error, not a harness concern.
type Submission struct {
	Length   *big.Int
	DataRoot [32]byte
	Tags     []byte
	Nodes    []SubmissionNode
}

// NumChunks reports how many chunks a payload of the given size occupies,
// counting the final short chunk.
func NumChunks(size uint64) uint64 {
	return (size + ChunkSize - 1) / ChunkSize
}

// NumSegments reports how many segments a payload of the given size implies.
// A node finalizes a file only once this many segments arrived.
func NumSegments(size uint64) uint64 {
	return (size + SegmentSize - 1) / SegmentSize
}

// paddedChunks rounds the chunk count the way the contract sizes its tree:
// up to the next power of two for sub-segment files, otherwise up to a whole
// number of segments.
func paddedChunks(chunks uint64) uint64 {
	if chunks == 0 {
		return 0
	}
	if chunks < ChunksPerSegment {
		return nextPowerOfTwo(chunks)
	}
	return (chunks + ChunksPerSegment - 1) / ChunksPerSegment * ChunksPerSegment
}

func nextPowerOfTwo(v uint64) uint64 {
	if v <= 1 {
		return v
	}
	return 1 << uint(bits.Len64(v-1))
}

// NewSubmission builds the contract record plus the DataRoot used for later
// file-status queries. The root is the dedup key: identical bytes always
// normalize to the identical root, regardless of any caller-supplied size
// hints. Empty payloads are rejected.
func NewSubmission(data []byte, tags []byte) (*Submission, common.Hash, error) {
	if len(data) == 0 {
		return nil, common.Hash{}, protocolErrf("empty payload")
	}
	if tags == nil {
		tags = []byte{}
	}

	leaves := chunkHashes(data)
	root := fold(leaves, 0)

	// Decompose the padded chunk count into strictly descending powers of
	// two; each becomes one aligned subtree node of the record.
	padded := paddedChunks(uint64(len(leaves)))
	var nodes []SubmissionNode
	offset := uint64(0)
	for padded > 0 {
		height := uint(bits.Len64(padded)) - 1
		span := uint64(1) << height
		nodes = append(nodes, SubmissionNode{
			Root:   subtreeRoot(leaves, offset, span),
			Height: new(big.Int).SetUint64(uint64(height)),
		})
		offset += span
		padded -= span
	}

	return &Submission{
		Length:   new(big.Int).SetUint64(uint64(len(data))),
		DataRoot: root,
		Tags:     tags,
		Nodes:    nodes,
	}, root, nil
}

// Root computes the DataRoot of a payload: the fold of its chunk tree.
func Root(data []byte) common.Hash {
	if len(data) == 0 {
		return common.Hash{}
	}
	return fold(chunkHashes(data), 0)
}
