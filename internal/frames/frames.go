// internal/frames/frames.go
// Package frames splits a payload into the ordered frame sets sent over the wire.
package frames

import "bytes"

// Set is an ordered multi-part message: the header at index 0 followed by payload chunks.
type Set [][]byte

// Count returns the number of frames in the set, header included.
func (s Set) Count() int {
	return len(s)
}

// TotalBytes returns the sum of all frame lengths.
func (s Set) TotalBytes() int {
	total := 0
	for _, f := range s {
		total += len(f)
	}
	return total
}

// Chunk returns contiguous sub-slices of payload, each size bytes long except
// possibly the last. The slices share payload's backing array. Chunk panics if
// size is not positive.
func Chunk(payload []byte, size int) [][]byte {
	if size <= 0 {
		panic("frames: chunk size must be positive")
	}
	chunks := make([][]byte, 0, (len(payload)+size-1)/size)
	for i := 0; i < len(payload); i += size {
		end := i + size
		if end > len(payload) {
			end = len(payload)
		}
		chunks = append(chunks, payload[i:end:end])
	}
	return chunks
}

// Build assembles the frame set for one exchange: header first, never split,
// then the payload chunked by size.
func Build(header, payload []byte, size int) Set {
	chunks := Chunk(payload, size)
	set := make(Set, 0, len(chunks)+1)
	set = append(set, header)
	return append(set, chunks...)
}

// Count returns the expected frame count for a payload of dataSize bytes split
// by chunkSize, header included.
func Count(dataSize, chunkSize int) int {
	return 1 + (dataSize+chunkSize-1)/chunkSize
}

// Fill returns n copies of b.
func Fill(b byte, n int) []byte {
	return bytes.Repeat([]byte{b}, n)
}
