package control

import (
	"fmt"

	"screenlink/internal/command"
	t "screenlink/internal/types"
)

// Dispatcher applies decoded commands to an injector. A zero Sensitivity
// means DefaultSensitivity.
type Dispatcher struct {
	Injector    t.InputInjector
	Geometry    t.Geometry
	Sensitivity float64
}

// Apply performs c. The pointer position for a move is read at call time.
func (d *Dispatcher) Apply(c command.Command) error {
	var err error
	switch c.Kind {
	case command.ButtonPress:
		err = d.Injector.PressButton(c.Code)
	case command.ButtonRelease:
		err = d.Injector.ReleaseButton(c.Code)
	case command.KeyPress:
		err = d.Injector.PressKey(c.Code)
	case command.KeyRelease:
		err = d.Injector.ReleaseKey(c.Code)
	case command.Move:
		s := d.Sensitivity
		if s == 0 {
			s = DefaultSensitivity
		}
		cx, cy := d.Injector.Position()
		x, y := MapRelative(c.DX, c.DY, d.Geometry, s, cx, cy)
		err = d.Injector.MoveTo(x, y)
	default:
		return fmt.Errorf("%w: %d", command.ErrUnknownKind, int(c.Kind))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", c, err)
	}
	return nil
}
