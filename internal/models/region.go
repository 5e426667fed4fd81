package models

import (
	"fmt"
	"image"
)

// Kernel is an ordered list of convolution weights. Odd lengths have a center tap.
type Kernel []float64

// Validate checks that the kernel is non-empty and has a center tap.
func (k Kernel) Validate() error {
	if len(k) == 0 || len(k)%2 == 0 {
		return fmt.Errorf("kernel length must be odd, got %d", len(k))
	}
	return nil
}

// Rect is a bounding rectangle in pixel coordinates, inclusive on both ends.
type Rect struct {
	MinX, MinY int
	MaxX, MaxY int
	CenterX    float64
	CenterY    float64
}

// NewRect starts a rectangle covering a single pixel.
func NewRect(x, y int) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x, MaxY: y, CenterX: float64(x), CenterY: float64(y)}
}

// Extend grows the rectangle to include (x, y) and refreshes the center.
func (r *Rect) Extend(x, y int) {
	r.MinX = min(r.MinX, x)
	r.MinY = min(r.MinY, y)
	r.MaxX = max(r.MaxX, x)
	r.MaxY = max(r.MaxY, y)
	r.CenterX = float64(r.Width())*0.5 + float64(r.MinX)
	r.CenterY = float64(r.Height())*0.5 + float64(r.MinY)
}

// Width is MaxX-MinX.
func (r Rect) Width() int { return r.MaxX - r.MinX }

// Height is MaxY-MinY.
func (r Rect) Height() int { return r.MaxY - r.MinY }

// Rectangle converts to a half-open image.Rectangle.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.MinX, r.MinY, r.MaxX+1, r.MaxY+1)
}

// Region is a connected set of pixels found by the tracker during one frame.
type Region struct {
	ID int
	// Offsets are byte offsets into the source PixelBuffer, in discovery order.
	Offsets []int
	Depth   int
	Seed    RGB
	HasSeed bool
	Bounds  *Rect
}

// Len returns the member count.
func (r *Region) Len() int {
	return len(r.Offsets)
}

// Points converts the member offsets into coordinates for a frame of the given width.
func (r *Region) Points(width int) []image.Point {
	pts := make([]image.Point, len(r.Offsets))
	for i, off := range r.Offsets {
		x, y := offsetToXY(off, width)
		pts[i] = image.Point{X: x, Y: y}
	}
	return pts
}

// BoundingRect derives the bounding rectangle of the members.
func (r *Region) BoundingRect(width int) Rect {
	if len(r.Offsets) == 0 {
		return Rect{}
	}
	x, y := offsetToXY(r.Offsets[0], width)
	rect := NewRect(x, y)
	for _, off := range r.Offsets[1:] {
		x, y = offsetToXY(off, width)
		rect.Extend(x, y)
	}
	return rect
}
