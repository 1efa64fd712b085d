package command

import (
	"fmt"
	"io"
)

// Codec names accepted by NewDecoder and NewEncoder.
const (
	CodecText   = "text"
	CodecBinary = "binary"
)

func NewDecoder(codec string, r io.Reader) (Decoder, error) {
	switch codec {
	case CodecText, "":
		return NewTextDecoder(r), nil
	case CodecBinary:
		return NewBinaryDecoder(r), nil
	}
	return nil, fmt.Errorf("unknown codec %q", codec)
}

func NewEncoder(codec string, w io.Writer) (Encoder, error) {
	switch codec {
	case CodecText, "":
		return NewTextEncoder(w), nil
	case CodecBinary:
		return NewBinaryEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown codec %q", codec)
}
