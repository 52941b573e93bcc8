// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package submission

// ChunkIterator walks a payload in ChunkSize steps. It is finite, lazy and
// restartable; the final chunk may be short. Iteration order is the payload
// order, which the content root depends on.
type ChunkIterator struct {
	data []byte
	off  int
}

func Chunks(data []byte) *ChunkIterator {
	return &ChunkIterator{data: data}
}

// Next returns the next chunk, sharing the payload's backing array. The
// second result is false once the payload is exhausted.
func (it *ChunkIterator) Next() ([]byte, bool) {
	if it.off >= len(it.data) {
		return nil, false
	}
	end := it.off + ChunkSize
	if end > len(it.data) {
		end = len(it.data)
	}
	chunk := it.data[it.off:end]
	it.off = end
	return chunk, true
}

// Reset rewinds the iterator to the first chunk.
func (it *ChunkIterator) Reset() {
	it.off = 0
}
