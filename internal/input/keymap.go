package input

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCode = errors.New("unknown input code")
	ErrUnsupported = errors.New("input injection not supported in this build")
)

// Mouse buttons as robotgo names them.
const (
	ButtonLeft   = "left"
	ButtonMiddle = "center"
	ButtonRight  = "right"
)

// Button codes accept both plain button numbers and the classic
// BUTTONn_DOWN_MASK values older senders emit.
var buttons = map[int]string{
	1:    ButtonLeft,
	2:    ButtonMiddle,
	3:    ButtonRight,
	1024: ButtonLeft,
	2048: ButtonMiddle,
	4096: ButtonRight,
}

// Key codes use the classic virtual key numbering.
var keys = map[int]string{
	8:   "backspace",
	9:   "tab",
	10:  "enter",
	16:  "shift",
	17:  "ctrl",
	18:  "alt",
	20:  "capslock",
	27:  "esc",
	32:  "space",
	33:  "pageup",
	34:  "pagedown",
	35:  "end",
	36:  "home",
	37:  "left",
	38:  "up",
	39:  "right",
	40:  "down",
	44:  ",",
	45:  "-",
	46:  ".",
	47:  "/",
	59:  ";",
	61:  "=",
	91:  "[",
	92:  "\\",
	93:  "]",
	127: "delete",
	155: "insert",
	157: "cmd",
	192: "`",
	222: "'",
	524: "cmd",
}

func init() {
	for c := '0'; c <= '9'; c++ {
		keys[int(c)] = string(c)
	}
	for c := 'A'; c <= 'Z'; c++ {
		keys[int(c)] = string(c + 'a' - 'A')
	}
	for i := 1; i <= 12; i++ {
		keys[111+i] = fmt.Sprintf("f%d", i)
	}
}

// ButtonName maps a wire button code to a robotgo button name.
func ButtonName(code int) (string, error) {
	if b, ok := buttons[code]; ok {
		return b, nil
	}
	return "", fmt.Errorf("%w: button %d", ErrUnknownCode, code)
}

// KeyName maps a wire key code to a robotgo key name.
func KeyName(code int) (string, error) {
	if k, ok := keys[code]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: key %d", ErrUnknownCode, code)
}
