package server

import (
	"math"

	"screenlink/internal/command"
	t "screenlink/internal/types"
)

// Browser mouse buttons 0/1/2 become the classic button masks.
var buttonMasks = map[int]int{
	0: 1024,
	1: 2048,
	2: 4096,
}

// Browser keyCodes that differ from the virtual key numbering used on the
// wire. Letters, digits, arrows, F-keys and modifiers are the same.
var browserKeys = map[int]int{
	13:  10,  // enter
	45:  155, // insert
	46:  127, // delete
	91:  157, // meta
	93:  157, // right meta
	186: 59,  // ;
	187: 61,  // =
	188: 44,  // ,
	189: 45,  // -
	190: 46,  // .
	191: 47,  // /
	219: 91,  // [
	220: 92,  // \
	221: 93,  // ]
}

func keyCode(browser int) int {
	if vk, ok := browserKeys[browser]; ok {
		return vk
	}
	return browser
}

// Translate maps a browser event onto a command. Pointer positions are sent
// as the normalized coordinates of the displayed frame.
func Translate(ev t.BrowserEvent) (command.Command, bool) {
	switch ev.Type {
	case "mousemove":
		return command.MoveBy(unit(ev.X), unit(ev.Y)), true
	case "mousedown":
		if mask, ok := buttonMasks[ev.Button]; ok {
			return command.Press(mask), true
		}
	case "mouseup":
		if mask, ok := buttonMasks[ev.Button]; ok {
			return command.Release(mask), true
		}
	case "keydown":
		return command.KeyDown(keyCode(ev.KeyCode)), true
	case "keyup":
		return command.KeyUp(keyCode(ev.KeyCode)), true
	}
	return command.Command{}, false
}

func unit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
