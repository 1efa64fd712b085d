//go:build cgo

package input

import (
	"fmt"

	t "screenlink/internal/types"

	"github.com/go-vgo/robotgo"
)

// Robot injects input on the local desktop through robotgo.
type Robot struct{}

func NewRobot() (*Robot, error) {
	return &Robot{}, nil
}

// Geometry reads the size of the main screen.
func (r *Robot) Geometry() (t.Geometry, error) {
	w, h := robotgo.GetScreenSize()
	if w <= 0 || h <= 0 {
		return t.Geometry{}, fmt.Errorf("screen size %dx%d", w, h)
	}
	return t.Geometry{Width: w, Height: h}, nil
}

func (r *Robot) PressButton(code int) error   { return r.button(code, "down") }
func (r *Robot) ReleaseButton(code int) error { return r.button(code, "up") }
func (r *Robot) PressKey(code int) error      { return r.key(code, "down") }
func (r *Robot) ReleaseKey(code int) error    { return r.key(code, "up") }

func (r *Robot) MoveTo(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

func (r *Robot) Position() (int, int) {
	return robotgo.GetMousePos()
}

func (r *Robot) button(code int, state string) error {
	name, err := ButtonName(code)
	if err != nil {
		return err
	}
	if err := robotgo.Toggle(name, state); err != nil {
		return fmt.Errorf("toggle %s %s: %w", name, state, err)
	}
	return nil
}

func (r *Robot) key(code int, state string) error {
	name, err := KeyName(code)
	if err != nil {
		return err
	}
	if err := robotgo.KeyToggle(name, state); err != nil {
		return fmt.Errorf("key %s %s: %w", name, state, err)
	}
	return nil
}
