package control

import (
	"errors"
	"fmt"
	"io"

	t "screenlink/internal/types"
)

// ErrBadAnnouncement is returned for a host line that is not a screen size.
var ErrBadAnnouncement = errors.New("bad screen announcement")

// Announce tells the viewer the host's screen size. It is the only thing
// the host writes on the control connection, one line right after dialing.
func Announce(w io.Writer, g t.Geometry) error {
	_, err := fmt.Fprintf(w, "screen %d %d\n", g.Width, g.Height)
	return err
}

// ParseAnnouncement reads a line written by Announce, without the newline.
func ParseAnnouncement(line string) (t.Geometry, error) {
	var g t.Geometry
	var rest string
	n, _ := fmt.Sscanf(line, "screen %d %d%s", &g.Width, &g.Height, &rest)
	if n != 2 || g.Width <= 0 || g.Height <= 0 {
		return t.Geometry{}, fmt.Errorf("%w: %q", ErrBadAnnouncement, line)
	}
	return g, nil
}
