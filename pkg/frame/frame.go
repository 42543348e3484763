// Package frame holds the pixel buffers produced by one render pass.
package frame

import (
	"image"
	"image/color"
	"time"

	"github.com/chazu/projview/pkg/idcolor"
	"github.com/google/uuid"
)

// Buffer is a width x height grid of color keys stored as a flat RGBA slice
// for cache locality. Row y starts at Pix[y*Width*4].
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8 // RGBA interleaved, len = W*H*4
}

// New allocates a zeroed buffer. Negative sizes are treated as zero.
func New(w, h int) *Buffer {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Buffer{Width: w, Height: h, Pix: make([]uint8, w*h*4)}
}

// Empty reports whether the buffer has no pixels. A nil buffer is empty.
func (b *Buffer) Empty() bool {
	return b == nil || b.Width == 0 || b.Height == 0
}

// Len returns the number of pixels.
func (b *Buffer) Len() int {
	if b.Empty() {
		return 0
	}
	return b.Width * b.Height
}

// In reports whether (x, y) lies inside the buffer.
func (b *Buffer) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// At returns the key at (x, y). Out of range reads return the zero key.
func (b *Buffer) At(x, y int) idcolor.ColorKey {
	if !b.In(x, y) {
		return idcolor.ColorKey{}
	}
	i := (y*b.Width + x) * 4
	return idcolor.ColorKey{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// Set writes k at (x, y). Out of range writes are ignored.
func (b *Buffer) Set(x, y int, k idcolor.ColorKey) {
	if !b.In(x, y) {
		return
	}
	i := (y*b.Width + x) * 4
	b.Pix[i] = k.R
	b.Pix[i+1] = k.G
	b.Pix[i+2] = k.B
	b.Pix[i+3] = k.A
}

// Fill sets every pixel to k.
func (b *Buffer) Fill(k idcolor.ColorKey) {
	for i := 0; i+3 < len(b.Pix); i += 4 {
		b.Pix[i] = k.R
		b.Pix[i+1] = k.G
		b.Pix[i+2] = k.B
		b.Pix[i+3] = k.A
	}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	c := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]uint8, len(b.Pix))}
	copy(c.Pix, b.Pix)
	return c
}

// Image copies the buffer into a new NRGBA image. NRGBA keeps the color lanes
// of pixels whose alpha lane is zero, which a premultiplied image would lose.
func (b *Buffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	return img
}

// FromImage copies img into a new buffer. *image.NRGBA sources are copied
// exactly. Other images go through color.NRGBAModel, which cannot recover the
// color lanes of fully transparent pixels in premultiplied sources.
func FromImage(img image.Image) *Buffer {
	r := img.Bounds()
	b := New(r.Dx(), r.Dy())
	if n, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Height; y++ {
			src := n.Pix[n.PixOffset(r.Min.X, r.Min.Y+y):]
			copy(b.Pix[y*b.Width*4:(y+1)*b.Width*4], src[:b.Width*4])
		}
		return b
	}
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(r.Min.X+x, r.Min.Y+y)).(color.NRGBA)
			b.Set(x, y, idcolor.KeyFromNRGBA(c))
		}
	}
	return b
}

// Frame is the output of one render pass. Frames are immutable once
// published; a new display produces a new Frame with a new ID.
type Frame struct {
	ID         uuid.UUID
	RenderedAt time.Time
	Buffer     *Buffer      // id buffer, one color key per pixel
	Color      *image.NRGBA // shaded image, nil when the color pass is off
	PixelSize  float64      // world units per pixel side, 0 for perspective views
	Order      idcolor.ByteOrder
}

// NewFrame wraps an id buffer in a frame with a fresh pass ID.
func NewFrame(ids *Buffer, order idcolor.ByteOrder) *Frame {
	return &Frame{
		ID:         uuid.New(),
		RenderedAt: time.Now(),
		Buffer:     ids,
		Order:      order,
	}
}
