//go:build !cgo

package input

import t "screenlink/internal/types"

// Pure-Go builds have no robotgo; every call reports ErrUnsupported.
type Robot struct{}

func NewRobot() (*Robot, error) { return nil, ErrUnsupported }

func (r *Robot) Geometry() (t.Geometry, error) { return t.Geometry{}, ErrUnsupported }
func (r *Robot) PressButton(code int) error    { return ErrUnsupported }
func (r *Robot) ReleaseButton(code int) error  { return ErrUnsupported }
func (r *Robot) PressKey(code int) error       { return ErrUnsupported }
func (r *Robot) ReleaseKey(code int) error     { return ErrUnsupported }
func (r *Robot) MoveTo(x, y int) error         { return ErrUnsupported }
func (r *Robot) Position() (int, int)          { return 0, 0 }
