// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package submission

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Segment is one transport-sized slice of a payload. It carries enough
// metadata for a storage node to accept segments of the same file in any
// order: the DataRoot keys the accumulation, Index places the bytes, and
// Proof ties the slice to the root.
type Segment struct {
	Root     common.Hash   `json:"root"`
	Data     hexutil.Bytes `json:"data"`
	Index    uint64        `json:"index"`
	Proof    Proof         `json:"proof"`
	FileSize uint64        `json:"fileSize"`
}

// Split re-slices the payload at transport granularity. Every returned
// segment verifies against the payload's DataRoot.
func Split(data []byte) ([]*Segment, error) {
	if len(data) == 0 {
		return nil, protocolErrf("cannot segment an empty payload")
	}

	size := uint64(len(data))
	count := NumSegments(size)
	leaves := chunkHashes(data)
	root := fold(leaves, 0)

	// A multi-segment tree pairs full height-10 subtrees, so a short tail
	// segment is zero padded up to that height. A single-segment file's tree
	// is the whole tree and its root is the DataRoot itself.
	roots := make([]common.Hash, count)
	if count == 1 {
		roots[0] = root
	} else {
		for i := uint64(0); i < count; i++ {
			roots[i] = subtreeRoot(leaves, i*ChunksPerSegment, ChunksPerSegment)
		}
	}

	segments := make([]*Segment, count)
	for i := uint64(0); i < count; i++ {
		segments[i] = &Segment{
			Root:     root,
			Data:     append(hexutil.Bytes{}, segmentBytes(data, i)...),
			Index:    i,
			Proof:    segmentProof(roots, i),
			FileSize: size,
		}
	}
	return segments, nil
}

func segmentBytes(data []byte, index uint64) []byte {
	start := index * SegmentSize
	end := start + SegmentSize
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	return data[start:end]
}

// Verify checks the segment's proof against its declared root.
func (s *Segment) Verify() error {
	count := NumSegments(s.FileSize)
	if s.Index >= count {
		return protocolErrf("segment index %d out of range for %d-byte file", s.Index, s.FileSize)
	}
	segLeaves := chunkHashes(s.Data)
	segRoot := fold(segLeaves, 0)
	if count > 1 {
		segRoot = subtreeRoot(segLeaves, 0, ChunksPerSegment)
	}
	if !verifyProof(s.Root, segRoot, s.Index, count, s.Proof) {
		return protocolErrf("segment %d proof does not reach root %v", s.Index, s.Root)
	}
	return nil
}

// Join reconstructs the payload from a full set of segments delivered in any
// order. The reconstruction is checked against the declared DataRoot, so a
// successful Join yields exactly the original bytes.
func Join(segments []*Segment) ([]byte, error) {
	if len(segments) == 0 {
		return nil, protocolErrf("no segments to join")
	}

	root := segments[0].Root
	size := segments[0].FileSize
	count := NumSegments(size)
	if uint64(len(segments)) != count {
		return nil, protocolErrf("have %d segments, %d-byte file implies %d", len(segments), size, count)
	}

	data := make([]byte, size)
	seen := make(map[uint64]bool, count)
	for _, s := range segments {
		if s.Root != root {
			return nil, protocolErrf("segment %d has root %v, want %v", s.Index, s.Root, root)
		}
		if s.FileSize != size {
			return nil, protocolErrf("segment %d declares file size %d, want %d", s.Index, s.FileSize, size)
		}
		if s.Index >= count {
			return nil, protocolErrf("segment index %d out of range", s.Index)
		}
		if seen[s.Index] {
			return nil, protocolErrf("duplicate segment %d", s.Index)
		}
		seen[s.Index] = true

		start := s.Index * SegmentSize
		want := uint64(SegmentSize)
		if s.Index == count-1 {
			want = size - start
		}
		if uint64(len(s.Data)) != want {
			return nil, protocolErrf("segment %d carries %d bytes, want %d", s.Index, len(s.Data), want)
		}
		copy(data[start:], s.Data)
	}

	if Root(data) != root {
		return nil, protocolErrf("reconstructed payload does not hash to root %v", root)
	}
	return data, nil
}
