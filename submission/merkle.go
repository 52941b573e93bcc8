// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package submission

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// The content tree is a binary keccak fold over chunk leaves. A layer with an
// odd node count is completed with the all-zero subtree hash of its height
// before pairing, so the root over n leaves equals the root over the same
// leaves zero padded to the next power of two. Any 2^k-aligned leaf range
// therefore forms a self-contained subtree, which is what lets a segment's
// root be computed from the segment bytes alone while still folding into the
// same DataRoot as the whole file.

// segmentTreeHeight is the height of a full segment subtree: a segment holds
// 2^10 chunks.
const segmentTreeHeight = 10

func leafHash(chunk []byte) common.Hash {
	if len(chunk) == ChunkSize {
		return crypto.Keccak256Hash(chunk)
	}
	padded := make([]byte, ChunkSize)
	copy(padded, chunk)
	return crypto.Keccak256Hash(padded)
}

func nodeHash(left common.Hash, right common.Hash) common.Hash {
	return crypto.Keccak256Hash(left.Bytes(), right.Bytes())
}

// zeroHashes[h] is the root of an all-zero subtree of height h. Odd layers
// pad with the entry for their own height.
var zeroHashes = buildZeroHashes()

func buildZeroHashes() [64]common.Hash {
	var table [64]common.Hash
	table[0] = crypto.Keccak256Hash(make([]byte, ChunkSize))
	for i := 1; i < len(table); i++ {
		table[i] = nodeHash(table[i-1], table[i-1])
	}
	return table
}

func chunkHashes(data []byte) []common.Hash {
	hashes := make([]common.Hash, 0, NumChunks(uint64(len(data))))
	it := Chunks(data)
	for chunk, ok := it.Next(); ok; chunk, ok = it.Next() {
		hashes = append(hashes, leafHash(chunk))
	}
	return hashes
}

func foldLevel(layer []common.Hash, height int) []common.Hash {
	next := make([]common.Hash, 0, (len(layer)+1)/2)
	for i := 0; i+1 < len(layer); i += 2 {
		next = append(next, nodeHash(layer[i], layer[i+1]))
	}
	if len(layer)%2 == 1 {
		next = append(next, nodeHash(layer[len(layer)-1], zeroHashes[height]))
	}
	return next
}

// fold reduces a layer of nodes at the given height to a single root.
func fold(layer []common.Hash, height int) common.Hash {
	for len(layer) > 1 {
		layer = foldLevel(layer, height)
		height++
	}
	return layer[0]
}

// subtreeRoot folds the aligned leaf range [offset, offset+span), extending
// past the end of the payload with zero chunks. Spans are powers of two, so
// every level pairs cleanly.
func subtreeRoot(leaves []common.Hash, offset uint64, span uint64) [32]byte {
	layer := make([]common.Hash, span)
	for i := uint64(0); i < span; i++ {
		if offset+i < uint64(len(leaves)) {
			layer[i] = leaves[offset+i]
		} else {
			layer[i] = zeroHashes[0]
		}
	}
	return fold(layer, 0)
}

// Proof is the merkle path of one segment's subtree root up to the DataRoot.
// Every level contributes one lemma entry; where the node has no real
// sibling, the lemma is the zero-subtree hash of that level. Path records,
// per level, whether the proven node was the left sibling.
type Proof struct {
	Lemma []common.Hash `json:"lemma"`
	Path  []bool        `json:"path"`
}

// segmentProof extracts the path for the segment root at index within the
// layer of all segment roots.
func segmentProof(roots []common.Hash, index uint64) Proof {
	var proof Proof
	layer := roots
	pos := index
	height := segmentTreeHeight
	for len(layer) > 1 {
		if pos%2 == 0 {
			sibling := zeroHashes[height]
			if pos+1 < uint64(len(layer)) {
				sibling = layer[pos+1]
			}
			proof.Lemma = append(proof.Lemma, sibling)
			proof.Path = append(proof.Path, true)
		} else {
			proof.Lemma = append(proof.Lemma, layer[pos-1])
			proof.Path = append(proof.Path, false)
		}
		layer = foldLevel(layer, height)
		pos /= 2
		height++
	}
	return proof
}

// verifyProof replays the fold structure for (index, count) and checks that
// the segment root reaches the expected DataRoot through the proof.
func verifyProof(root common.Hash, segRoot common.Hash, index uint64, count uint64, proof Proof) bool {
	acc := segRoot
	pos := index
	used := 0
	for count > 1 {
		if used >= len(proof.Lemma) || used >= len(proof.Path) {
			return false
		}
		if proof.Path[used] != (pos%2 == 0) {
			return false
		}
		if proof.Path[used] {
			acc = nodeHash(acc, proof.Lemma[used])
		} else {
			acc = nodeHash(proof.Lemma[used], acc)
		}
		used++
		pos /= 2
		count = (count + 1) / 2
	}
	return used == len(proof.Lemma) && acc == root
}
