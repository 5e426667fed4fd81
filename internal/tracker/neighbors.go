package tracker

import "pill-counter/internal/models"

type step struct{ dx, dy int }

// Color fill visiting order.
var colorSteps = [8]step{
	{-1, 0}, {-1, -1}, {0, -1}, {-1, 1}, {1, -1}, {1, 0}, {1, 1}, {0, 1},
}

// Contour walk and bounds fill order: diagonals first, then axes.
var edgeSteps = [8]step{
	{-1, -1}, {-1, 1}, {1, -1}, {1, 1}, {0, -1}, {0, 1}, {1, 0}, {-1, 0},
}

// grid resolves 8-connected neighbors of a pixel index, never wrapping across rows.
type grid struct {
	width, height int
}

func newGrid(buf *models.PixelBuffer) grid {
	return grid{width: buf.Width, height: buf.Height}
}

func (g grid) size() int {
	return g.width * g.height
}

// neighbors appends the in-frame neighbors of pixel p in the given order.
func (g grid) neighbors(dst []int, p int, order *[8]step) []int {
	x, y := p%g.width, p/g.width
	for _, s := range order {
		nx, ny := x+s.dx, y+s.dy
		if nx < 0 || ny < 0 || nx >= g.width || ny >= g.height {
			continue
		}
		dst = append(dst, ny*g.width+nx)
	}
	return dst
}

func (g grid) xy(p int) (int, int) {
	return p % g.width, p / g.width
}

func colorAt(buf *models.PixelBuffer, p int) models.RGB {
	return buf.RGBAt(p * models.Channels)
}

// offsets converts pixel indices to byte offsets in place.
func offsets(pixels []int) []int {
	for i, p := range pixels {
		pixels[i] = p * models.Channels
	}
	return pixels
}
