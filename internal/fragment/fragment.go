// Package fragment slices encoded frames into self-describing datagrams and
// puts them back together on the receiving side.
//
// Every datagram carries a fixed 16 byte big-endian header followed by the
// chunk bytes:
//
//	int32 frameId | int32 totalChunks | int32 chunkIndex | int32 length | data
package fragment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	// HeaderSize is the fixed size of a chunk header on the wire.
	HeaderSize = 16
	// DefaultChunkSize keeps a datagram under the 64 KiB UDP limit.
	DefaultChunkSize = 32000
	// MaxChunkSize is the largest chunk that still fits one UDP datagram.
	MaxChunkSize = 65507 - HeaderSize

	frameIDMask = 0x0FFFFFFF
)

var (
	ErrChunkSize      = errors.New("chunk size must be positive")
	ErrMalformedChunk = errors.New("malformed chunk")
)

// Chunk is one bounded piece of a frame's encoded bytes.
type Chunk struct {
	FrameID uint32
	Total   int
	Index   int
	Data    []byte
}

// newerFrame reports whether a was issued after b, allowing for the 28-bit
// id space wrapping around.
func newerFrame(a, b uint32) bool {
	d := (a - b) & frameIDMask
	return d != 0 && d < frameIDMask/2
}

// FrameID derives a frame identifier from t. The millisecond clock is
// truncated to 28 bits, so ids wrap roughly every three days.
func FrameID(t time.Time) uint32 {
	return uint32(t.UnixMilli() & frameIDMask)
}

// Count returns how many chunks a payload of n bytes needs.
func Count(n, chunkSize int) int {
	if n <= 0 {
		return 0
	}
	return 1 + (n-1)/chunkSize
}

// Split covers payload with chunks of at most chunkSize bytes, in index
// order. An empty payload yields no chunks. Chunk data aliases payload.
func Split(frameID uint32, payload []byte, chunkSize int) ([]Chunk, error) {
	if chunkSize <= 0 {
		return nil, ErrChunkSize
	}
	total := Count(len(payload), chunkSize)
	chunks := make([]Chunk, 0, total)
	for i := 0; i < total; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, len(payload))
		chunks = append(chunks, Chunk{
			FrameID: frameID,
			Total:   total,
			Index:   i,
			Data:    payload[start:end],
		})
	}
	return chunks, nil
}

// MarshalBinary encodes the chunk as one datagram.
func (c Chunk) MarshalBinary() ([]byte, error) {
	return c.marshal(), nil
}

func (c Chunk) marshal() []byte {
	buf := make([]byte, HeaderSize+len(c.Data))
	binary.BigEndian.PutUint32(buf[0:4], c.FrameID)
	binary.BigEndian.PutUint32(buf[4:8], uint32(c.Total))
	binary.BigEndian.PutUint32(buf[8:12], uint32(c.Index))
	binary.BigEndian.PutUint32(buf[12:16], uint32(len(c.Data)))
	copy(buf[HeaderSize:], c.Data)
	return buf
}

// ParseChunk decodes a datagram. The returned chunk copies its data out of
// b so the caller may reuse its read buffer.
func ParseChunk(b []byte) (Chunk, error) {
	if len(b) < HeaderSize {
		return Chunk{}, fmt.Errorf("%w: %d byte datagram", ErrMalformedChunk, len(b))
	}
	frameID := binary.BigEndian.Uint32(b[0:4])
	total := int32(binary.BigEndian.Uint32(b[4:8]))
	index := int32(binary.BigEndian.Uint32(b[8:12]))
	length := int32(binary.BigEndian.Uint32(b[12:16]))

	if total <= 0 || index < 0 || index >= total {
		return Chunk{}, fmt.Errorf("%w: index %d of %d", ErrMalformedChunk, index, total)
	}
	if length < 0 || int(length) != len(b)-HeaderSize {
		return Chunk{}, fmt.Errorf("%w: length %d, have %d", ErrMalformedChunk, length, len(b)-HeaderSize)
	}

	data := make([]byte, length)
	copy(data, b[HeaderSize:])
	return Chunk{
		FrameID: frameID,
		Total:   int(total),
		Index:   int(index),
		Data:    data,
	}, nil
}
