package models

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrInvalidBuffer is returned when a pixel slice does not match its dimensions.
var ErrInvalidBuffer = errors.New("invalid pixel buffer")

// Channels is the number of byte samples per pixel in a PixelBuffer.
const Channels = 4

// RGB is a single color sample.
type RGB struct {
	R, G, B uint8
}

// PixelBuffer is a row-major RGBA raster. len(Pix) == Width*Height*4.
type PixelBuffer struct {
	Pix    []uint8
	Width  int
	Height int
}

// NewPixelBuffer allocates a zeroed buffer of the given size.
func NewPixelBuffer(width, height int) *PixelBuffer {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &PixelBuffer{
		Pix:    make([]uint8, width*height*Channels),
		Width:  width,
		Height: height,
	}
}

// NewPixelBufferFrom wraps pix without copying after checking its length.
func NewPixelBufferFrom(pix []uint8, width, height int) (*PixelBuffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidBuffer, width, height)
	}
	if len(pix) != width*height*Channels {
		return nil, fmt.Errorf("%w: have %d bytes, want %d for %dx%d",
			ErrInvalidBuffer, len(pix), width*height*Channels, width, height)
	}
	return &PixelBuffer{Pix: pix, Width: width, Height: height}, nil
}

// Valid reports whether the slice length matches the dimensions.
func (b *PixelBuffer) Valid() bool {
	return b != nil && b.Width >= 0 && b.Height >= 0 && len(b.Pix) == b.Width*b.Height*Channels
}

// Empty reports whether the buffer has no pixels to process.
func (b *PixelBuffer) Empty() bool {
	return b == nil || b.Width <= 0 || b.Height <= 0
}

// Len returns the number of pixels.
func (b *PixelBuffer) Len() int {
	return b.Width * b.Height
}

// Offset returns the byte offset of pixel (x, y).
func (b *PixelBuffer) Offset(x, y int) int {
	return (y*b.Width + x) * Channels
}

// XY converts a byte offset back to pixel coordinates.
func (b *PixelBuffer) XY(offset int) (x, y int) {
	return offsetToXY(offset, b.Width)
}

// At returns the color of pixel (x, y).
func (b *PixelBuffer) At(x, y int) RGB {
	return b.RGBAt(b.Offset(x, y))
}

// RGBAt returns the color stored at byte offset i.
func (b *PixelBuffer) RGBAt(i int) RGB {
	return RGB{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2]}
}

// Set writes an opaque color at (x, y).
func (b *PixelBuffer) Set(x, y int, c RGB) {
	i := b.Offset(x, y)
	b.Pix[i] = c.R
	b.Pix[i+1] = c.G
	b.Pix[i+2] = c.B
	b.Pix[i+3] = 255
}

// Fill paints every pixel with an opaque color.
func (b *PixelBuffer) Fill(c RGB) {
	for i := 0; i < len(b.Pix); i += Channels {
		b.Pix[i] = c.R
		b.Pix[i+1] = c.G
		b.Pix[i+2] = c.B
		b.Pix[i+3] = 255
	}
}

// FillRect paints the half-open rectangle r, clipped to the buffer.
func (b *PixelBuffer) FillRect(r image.Rectangle, c RGB) {
	r = r.Intersect(image.Rect(0, 0, b.Width, b.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			b.Set(x, y, c)
		}
	}
}

// Clone returns a deep copy.
func (b *PixelBuffer) Clone() *PixelBuffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &PixelBuffer{Pix: pix, Width: b.Width, Height: b.Height}
}

// FloatBuffer is an un-clamped RGBA raster produced by convolution.
type FloatBuffer struct {
	Data   []float32
	Width  int
	Height int
}

// NewFloatBuffer allocates a zeroed float raster.
func NewFloatBuffer(width, height int) *FloatBuffer {
	return &FloatBuffer{
		Data:   make([]float32, width*height*Channels),
		Width:  width,
		Height: height,
	}
}

// ToPixelBuffer rounds and clamps every sample into the byte range.
func (f *FloatBuffer) ToPixelBuffer() *PixelBuffer {
	out := NewPixelBuffer(f.Width, f.Height)
	for i, v := range f.Data {
		out.Pix[i] = ClampByte(float64(v))
	}
	return out
}

// ClampByte rounds v to the nearest integer in [0, 255].
func ClampByte(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}

// GrayBuffer holds one luma sample per pixel.
type GrayBuffer struct {
	Pix    []uint8
	Width  int
	Height int
}

func offsetToXY(offset, width int) (int, int) {
	if width <= 0 {
		return 0, 0
	}
	p := offset / Channels
	return p % width, p / width
}
