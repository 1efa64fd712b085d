package command

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"
)

// Binary framing, one frame per command:
//
//	uint8 tag | uint8 length | payload[length]
//
// The tag is the negated discriminant (1..5). Codes are int32 and move
// deltas float64, both big-endian. Frames with an unknown tag are skipped
// by length, so a reader never loses its place.
const binaryHeaderSize = 2

// payloadSize is 8 bytes per float argument and 4 per int argument.
func payloadSize(k Kind) int {
	if k == Move {
		return 8 * k.Arity()
	}
	return 4 * k.Arity()
}

type BinaryEncoder struct {
	w io.Writer
}

func NewBinaryEncoder(w io.Writer) *BinaryEncoder {
	return &BinaryEncoder{w: w}
}

func (e *BinaryEncoder) Encode(c Command) error {
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(c.Kind))
	}
	size := payloadSize(c.Kind)
	buf := make([]byte, binaryHeaderSize+size)
	buf[0] = byte(-c.Kind)
	buf[1] = byte(size)
	p := buf[binaryHeaderSize:]
	if c.Kind == Move {
		binary.BigEndian.PutUint64(p[0:8], math.Float64bits(c.DX))
		binary.BigEndian.PutUint64(p[8:16], math.Float64bits(c.DY))
	} else {
		binary.BigEndian.PutUint32(p, uint32(int32(c.Code)))
	}
	_, err := e.w.Write(buf)
	return err
}

type BinaryDecoder struct {
	r       *bufio.Reader
	skipped int
}

func NewBinaryDecoder(r io.Reader) *BinaryDecoder {
	return &BinaryDecoder{r: bufio.NewReader(r)}
}

// Skipped reports how many frames with an unknown tag were dropped.
func (d *BinaryDecoder) Skipped() int { return d.skipped }

func (d *BinaryDecoder) Decode() (Command, error) {
	var hdr [binaryHeaderSize]byte
	for {
		if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
			return Command{}, err
		}
		payload := make([]byte, hdr[1])
		if _, err := io.ReadFull(d.r, payload); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return Command{}, err
		}

		k := Kind(-int(hdr[0]))
		if !k.Valid() {
			d.skipped++
			log.Printf("[command] skipping frame with unknown tag %d (%d bytes)", hdr[0], len(payload))
			continue
		}
		if len(payload) != payloadSize(k) {
			return Command{}, &ProtocolError{
				Token: fmt.Sprintf("%s frame of %d bytes", k, len(payload)),
				Err:   ErrMalformedCommand,
			}
		}

		if k == Move {
			return MoveBy(
				math.Float64frombits(binary.BigEndian.Uint64(payload[0:8])),
				math.Float64frombits(binary.BigEndian.Uint64(payload[8:16])),
			), nil
		}
		return Command{Kind: k, Code: int(int32(binary.BigEndian.Uint32(payload)))}, nil
	}
}
