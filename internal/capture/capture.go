package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"screenlink/internal/types"

	"github.com/kbinani/screenshot"
	"golang.org/x/image/draw"
)

// DefaultQuality matches the usual JPEG writer default.
const DefaultQuality = 75

// Screen captures one display. An out-of-range display index falls back to
// the primary display.
type Screen struct {
	Display int
}

func (s Screen) Capture() (image.Image, error) {
	num := screenshot.NumActiveDisplays()
	if num <= 0 {
		return nil, fmt.Errorf("%w: no active display", types.ErrCapture)
	}
	d := s.Display
	if d < 0 || d >= num {
		d = 0
	}
	img, err := screenshot.CaptureRect(screenshot.GetDisplayBounds(d))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrCapture, err)
	}
	return img, nil
}

// JPEGEncoder compresses frames as JPEG, optionally scaling them first.
type JPEGEncoder struct {
	Quality int     // 1-100
	Scale   float64 // 0 or 1 keeps the original size
}

func (e JPEGEncoder) Encode(img image.Image) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", types.ErrEncode)
	}
	q := e.Quality
	if q <= 0 || q > 100 {
		q = DefaultQuality
	}
	src := Downscale(img, e.Scale)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// Downscale resizes img by factor when 0 < factor < 1.
func Downscale(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor >= 1 {
		return img
	}
	b := img.Bounds()
	w := max(int(float64(b.Dx())*factor), 1)
	h := max(int(float64(b.Dy())*factor), 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
