package tracker

import "pill-counter/internal/models"

// Overlay returns a copy of buf with the members of every region painted in c.
func Overlay(buf *models.PixelBuffer, regions []models.Region, c models.RGB) *models.PixelBuffer {
	out := buf.Clone()
	for _, r := range regions {
		for _, off := range r.Offsets {
			if off < 0 || off+3 >= len(out.Pix) {
				continue
			}
			out.Pix[off] = c.R
			out.Pix[off+1] = c.G
			out.Pix[off+2] = c.B
			out.Pix[off+3] = 255
		}
	}
	return out
}

// OverlayBounds outlines the bounding rectangle of every region that has one.
func OverlayBounds(buf *models.PixelBuffer, regions []models.Region, c models.RGB) *models.PixelBuffer {
	out := buf.Clone()
	for _, r := range regions {
		rect := r.Bounds
		if rect == nil {
			b := r.BoundingRect(buf.Width)
			rect = &b
		}
		for x := rect.MinX; x <= rect.MaxX; x++ {
			setIn(out, x, rect.MinY, c)
			setIn(out, x, rect.MaxY, c)
		}
		for y := rect.MinY; y <= rect.MaxY; y++ {
			setIn(out, rect.MinX, y, c)
			setIn(out, rect.MaxX, y, c)
		}
	}
	return out
}

func setIn(buf *models.PixelBuffer, x, y int, c models.RGB) {
	if x < 0 || y < 0 || x >= buf.Width || y >= buf.Height {
		return
	}
	buf.Set(x, y, c)
}
