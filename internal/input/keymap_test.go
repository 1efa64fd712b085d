package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyName(t *testing.T) {
	cases := map[int]string{
		65:  "a",
		90:  "z",
		48:  "0",
		57:  "9",
		10:  "enter",
		112: "f1",
		123: "f12",
		37:  "left",
		127: "delete",
	}
	for code, want := range cases {
		got, err := KeyName(code)
		require.NoError(t, err, "code %d", code)
		assert.Equal(t, want, got, "code %d", code)
	}

	_, err := KeyName(9999)
	assert.ErrorIs(t, err, ErrUnknownCode)
}

func TestButtonName(t *testing.T) {
	for code, want := range map[int]string{1: ButtonLeft, 1024: ButtonLeft, 2048: ButtonMiddle, 3: ButtonRight, 4096: ButtonRight} {
		got, err := ButtonName(code)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ButtonName(0)
	assert.ErrorIs(t, err, ErrUnknownCode)
}
