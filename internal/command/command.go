// Package command implements the control protocol carried over the reliable
// channel: pointer and key commands, in the legacy whitespace token grammar
// and in a length-framed binary form.
package command

import (
	"errors"
	"fmt"
)

// Kind selects a command's shape. On the text wire it is the discriminant.
type Kind int

const (
	ButtonPress   Kind = -1
	ButtonRelease Kind = -2
	KeyPress      Kind = -3
	KeyRelease    Kind = -4
	Move          Kind = -5
)

var (
	ErrMalformedCommand = errors.New("malformed command")
	ErrUnknownKind      = errors.New("unknown command kind")
)

// Valid reports whether k is one of the five known kinds.
func (k Kind) Valid() bool {
	return k <= ButtonPress && k >= Move
}

// Arity is the number of argument tokens following the discriminant.
func (k Kind) Arity() int {
	switch k {
	case ButtonPress, ButtonRelease, KeyPress, KeyRelease:
		return 1
	case Move:
		return 2
	}
	return 0
}

func (k Kind) String() string {
	switch k {
	case ButtonPress:
		return "button-press"
	case ButtonRelease:
		return "button-release"
	case KeyPress:
		return "key-press"
	case KeyRelease:
		return "key-release"
	case Move:
		return "move"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Command is one unit of remote intent. Code is set for button and key
// kinds; DX and DY are normalized deltas in [0,1] for Move.
type Command struct {
	Kind Kind
	Code int
	DX   float64
	DY   float64
}

func Press(code int) Command        { return Command{Kind: ButtonPress, Code: code} }
func Release(code int) Command      { return Command{Kind: ButtonRelease, Code: code} }
func KeyDown(code int) Command      { return Command{Kind: KeyPress, Code: code} }
func KeyUp(code int) Command        { return Command{Kind: KeyRelease, Code: code} }
func MoveBy(dx, dy float64) Command { return Command{Kind: Move, DX: dx, DY: dy} }

func (c Command) String() string {
	if c.Kind == Move {
		return fmt.Sprintf("%s(%g,%g)", c.Kind, c.DX, c.DY)
	}
	return fmt.Sprintf("%s(%d)", c.Kind, c.Code)
}

// ProtocolError describes input that could not be decoded into a command.
type ProtocolError struct {
	Token string
	Err   error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Token)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Decoder reads commands from a reliable stream.
type Decoder interface {
	Decode() (Command, error)
}

// Encoder writes commands to a reliable stream.
type Encoder interface {
	Encode(Command) error
}
