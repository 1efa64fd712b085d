package server

import (
	"screenlink/internal/command"
	"screenlink/internal/control"
	t "screenlink/internal/types"
)

// pointer mirrors where the host's cursor is. The host maps a move as
// dx*W*S + (1-S)*cx, so the viewer runs the same mapping on its copy of cx
// to aim every move exactly. Any error in the copy would be multiplied by
// S-1 on the next move.
type pointer struct {
	geom   t.Geometry
	placed bool
	x, y   int
}

// PointTo moves the host cursor onto the pixel under the normalized
// position (nx, ny) of the host screen.
func (s *Server) PointTo(nx, ny float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enc == nil {
		return ErrNoHost
	}
	g := s.ptr.geom
	if g.Width <= 0 || g.Height <= 0 {
		return ErrNoGeometry
	}
	sens := s.sensitivity()

	if !s.ptr.placed {
		// With S >= 1 a zero move lands on the origin wherever the cursor was.
		if err := s.encodeLocked(command.MoveBy(0, 0)); err != nil {
			return err
		}
		s.ptr.x, s.ptr.y, s.ptr.placed = 0, 0, true
	}

	dx := aim(nx, g.Width, s.ptr.x, sens)
	dy := aim(ny, g.Height, s.ptr.y, sens)
	if err := s.encodeLocked(command.MoveBy(dx, dy)); err != nil {
		return err
	}
	s.ptr.x, s.ptr.y = control.MapRelative(dx, dy, g, sens, s.ptr.x, s.ptr.y)
	return nil
}

func (s *Server) sensitivity() float64 {
	if s.cfg.Sensitivity > 0 {
		return s.cfg.Sensitivity
	}
	return control.DefaultSensitivity
}

// aim returns the delta that takes a cursor at cur to the middle of the
// pixel under pos. The result stays in [0,1] for S >= 1.
func aim(pos float64, size, cur int, s float64) float64 {
	target := min(int(unit(pos)*float64(size)), size-1)
	return (float64(target) + 0.5 + (s-1)*float64(cur)) / (float64(size) * s)
}
