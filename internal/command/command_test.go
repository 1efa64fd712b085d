package command

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, d Decoder) ([]Command, error) {
	t.Helper()
	var out []Command
	for {
		c, err := d.Decode()
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
}

func TestTextDecodeMixedArity(t *testing.T) {
	d := NewTextDecoder(strings.NewReader("-1 1 -3 65 -5 0.5 0.5"))
	got, err := decodeAll(t, d)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []Command{Press(1), KeyDown(65), MoveBy(0.5, 0.5)}, got)
}

func TestTextDecodeAllKinds(t *testing.T) {
	d := NewTextDecoder(strings.NewReader("-1 1024\n-2 1024\n-3 10\t-4 10   -5 0 1"))
	got, err := decodeAll(t, d)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []Command{
		Press(1024), Release(1024), KeyDown(10), KeyUp(10), MoveBy(0, 1),
	}, got)
}

func TestTextDecodeSkipsUnknownDiscriminant(t *testing.T) {
	// -9 is not a command; 7 and "junk" are not discriminants either. The
	// decoder drops them and resumes at the next valid discriminant.
	d := NewTextDecoder(strings.NewReader("-9 7 junk -1 1 -4 65"))
	got, err := decodeAll(t, d)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []Command{Press(1), KeyUp(65)}, got)
	assert.Equal(t, 3, d.Skipped())
}

func TestTextDecodeUnknownFollowedByDiscriminantLikeArgs(t *testing.T) {
	// An unknown command whose trailing tokens look like a command is read
	// as that command. This is the documented limit of the text grammar.
	d := NewTextDecoder(strings.NewReader("-6 -3 65"))
	got, err := decodeAll(t, d)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []Command{KeyDown(65)}, got)
}

func TestTextDecodeDropsOverlongToken(t *testing.T) {
	input := strings.Repeat("x", 70000) + " -1 1 " + strings.Repeat("7", 300) + "\n-3 65 " + strings.Repeat("y", 1000)
	for name, r := range map[string]io.Reader{
		"whole":    strings.NewReader(input),
		"one byte": iotest.OneByteReader(strings.NewReader(input)),
	} {
		t.Run(name, func(t *testing.T) {
			d := NewTextDecoder(r)
			got, err := decodeAll(t, d)
			assert.ErrorIs(t, err, io.EOF)
			assert.Equal(t, []Command{Press(1), KeyDown(65)}, got)
			assert.Equal(t, 3, d.Skipped())
		})
	}
}

func TestTextDecodeOverlongTokenAtBufferEdge(t *testing.T) {
	// The run ends exactly where a read ends, so the next read starts with
	// the separating space.
	long := strings.Repeat("z", 5000)
	d := NewTextDecoder(io.MultiReader(strings.NewReader(long), strings.NewReader(" -2 3")))
	got, err := decodeAll(t, d)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []Command{Release(3)}, got)
	assert.Equal(t, 1, d.Skipped())
}

func TestTextDecodeMalformedArgument(t *testing.T) {
	d := NewTextDecoder(strings.NewReader("-1 left -3 65 -5 0.1 NaN -2 1"))

	_, err := d.Decode()
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "left", perr.Token)
	assert.ErrorIs(t, err, ErrMalformedCommand)

	c, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, KeyDown(65), c)

	_, err = d.Decode()
	assert.ErrorIs(t, err, ErrMalformedCommand)

	c, err = d.Decode()
	require.NoError(t, err)
	assert.Equal(t, Release(1), c)
}

func TestTextDecodeShortRead(t *testing.T) {
	d := NewTextDecoder(strings.NewReader("-1 1 -5 0.5"))
	c, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, Press(1), c)

	_, err = d.Decode()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestTextEncodeRoundTrip(t *testing.T) {
	cmds := []Command{Press(1), Release(3), KeyDown(65), KeyUp(65), MoveBy(0.25, 0.125)}
	var buf bytes.Buffer
	enc := NewTextEncoder(&buf)
	for _, c := range cmds {
		require.NoError(t, enc.Encode(c))
	}
	assert.Equal(t, "-1 1\n-2 3\n-3 65\n-4 65\n-5 0.25 0.125\n", buf.String())

	got, err := decodeAll(t, NewTextDecoder(&buf))
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, cmds, got)
}

func TestEncodeRejectsUnknownKind(t *testing.T) {
	assert.ErrorIs(t, NewTextEncoder(io.Discard).Encode(Command{Kind: -7}), ErrUnknownKind)
	assert.ErrorIs(t, NewBinaryEncoder(io.Discard).Encode(Command{Kind: 0}), ErrUnknownKind)
}

func TestBinaryRoundTripSkipsUnknownTag(t *testing.T) {
	var buf bytes.Buffer
	enc := NewBinaryEncoder(&buf)
	require.NoError(t, enc.Encode(Press(1)))
	// a frame from a newer peer: tag 9 with three payload bytes
	buf.Write([]byte{9, 3, 0xFF, 0xFE, 0xFD})
	require.NoError(t, enc.Encode(KeyDown(-3)))
	require.NoError(t, enc.Encode(MoveBy(0.5, 0.75)))

	d := NewBinaryDecoder(&buf)
	got, err := decodeAll(t, d)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []Command{Press(1), KeyDown(-3), MoveBy(0.5, 0.75)}, got)
	assert.Equal(t, 1, d.Skipped())
}

func TestBinaryWrongLengthIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{1, 2, 0, 1}) // button press with a 2 byte payload
	require.NoError(t, NewBinaryEncoder(&buf).Encode(Release(2)))

	d := NewBinaryDecoder(&buf)
	_, err := d.Decode()
	assert.ErrorIs(t, err, ErrMalformedCommand)

	c, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, Release(2), c)
}

func TestBinaryTruncatedFrame(t *testing.T) {
	d := NewBinaryDecoder(bytes.NewReader([]byte{5, 16, 0, 0}))
	_, err := d.Decode()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestCodecSelection(t *testing.T) {
	d, err := NewDecoder(CodecBinary, strings.NewReader(""))
	require.NoError(t, err)
	assert.IsType(t, &BinaryDecoder{}, d)

	e, err := NewEncoder("", io.Discard)
	require.NoError(t, err)
	assert.IsType(t, &TextEncoder{}, e)

	_, err = NewDecoder("json", strings.NewReader(""))
	assert.Error(t, err)
}

func TestKindArity(t *testing.T) {
	for _, k := range []Kind{ButtonPress, ButtonRelease, KeyPress, KeyRelease} {
		assert.Equal(t, 1, k.Arity(), k.String())
		assert.True(t, k.Valid())
	}
	assert.Equal(t, 2, Move.Arity())
	assert.False(t, Kind(0).Valid())
	assert.False(t, Kind(-6).Valid())
	assert.Equal(t, "kind(-6)", Kind(-6).String())
}
