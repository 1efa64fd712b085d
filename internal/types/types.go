package types

import (
	"errors"
	"image"
)

var (
	// ErrCapture marks a failure to grab the screen for one frame.
	ErrCapture = errors.New("capture failed")
	// ErrEncode marks a failure to compress a captured frame.
	ErrEncode = errors.New("encode failed")
)

// Geometry is the size of the controlled display, read once at startup.
type Geometry struct {
	Width  int
	Height int
}

// FrameSource produces a bitmap of the current screen on demand.
type FrameSource interface {
	Capture() (image.Image, error)
}

// ImageEncoder compresses a bitmap into a byte payload.
type ImageEncoder interface {
	Encode(img image.Image) ([]byte, error)
}

// InputInjector performs OS-level pointer and key actions.
// Button and key codes are the wire codes carried by commands.
type InputInjector interface {
	PressButton(code int) error
	ReleaseButton(code int) error
	PressKey(code int) error
	ReleaseKey(code int) error
	MoveTo(x, y int) error
	Position() (x, y int)
}

// BrowserEvent is an input message sent by the viewer page.
// X and Y are normalized to [0,1] of the displayed frame.
type BrowserEvent struct {
	Type    string  `json:"type"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Button  int     `json:"button"`
	KeyCode int     `json:"keyCode"`
}

// ScreenUpdate is the outbound frame pushed to viewer pages.
type ScreenUpdate struct {
	FrameID uint32 `json:"frameId"`
	Image   string `json:"image"`
}
