package bodyscan

import (
	"image"
	"sync"

	"github.com/pkg/errors"
)

// Framebuffer is a fixed-size pixel buffer guarded by a mutex.
// Pixels are packed as 0xAARRGGBB, row by row.
type Framebuffer struct {
	mu     sync.Mutex
	width  int
	height int
	pix    []uint32
}

// NewFramebuffer creates zeroed buffer of width*height pixels
func NewFramebuffer(width, height int) (*Framebuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "framebuffer %dx%d", width, height)
	}
	return &Framebuffer{
		width:  width,
		height: height,
		pix:    make([]uint32, width*height),
	}, nil
}

// Width returns buffer's width in pixels
func (fb *Framebuffer) Width() int {
	return fb.width
}

// Height returns buffer's height in pixels
func (fb *Framebuffer) Height() int {
	return fb.height
}

// Access runs accessor with exclusive access to the pixel data.
// The slice must not be retained after accessor returns.
func (fb *Framebuffer) Access(accessor func(pix []uint32)) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	accessor(fb.pix)
}

// Snapshot copies current content into a displayable image
func (fb *Framebuffer) Snapshot() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
	fb.Access(func(pix []uint32) {
		for i, argb := range pix {
			offset := i * 4
			img.Pix[offset] = uint8(argb >> 16)
			img.Pix[offset+1] = uint8(argb >> 8)
			img.Pix[offset+2] = uint8(argb)
			img.Pix[offset+3] = uint8(argb >> 24)
		}
	})
	return img
}
