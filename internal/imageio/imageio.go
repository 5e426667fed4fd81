// Package imageio moves frames between files, the standard image types and
// PixelBuffer.
package imageio

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"pill-counter/internal/models"
)

// FromImage copies img into a new PixelBuffer with non-premultiplied RGBA.
func FromImage(img image.Image) *models.PixelBuffer {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	buf := models.NewPixelBuffer(b.Dx(), b.Dy())
	rowBytes := b.Dx() * models.Channels
	for y := 0; y < b.Dy(); y++ {
		copy(buf.Pix[y*rowBytes:(y+1)*rowBytes], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+rowBytes])
	}
	return buf
}

// ToImage copies buf into an *image.NRGBA.
func ToImage(buf *models.PixelBuffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	copy(img.Pix, buf.Pix)
	return img
}

// Decode reads any registered format (png, jpeg, gif, bmp, tiff, webp).
func Decode(r io.Reader) (*models.PixelBuffer, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), format, nil
}

// Load decodes the image file at path.
func Load(path string) (*models.PixelBuffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	buf, _, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buf, nil
}

// Encode writes buf in the named format: png, jpeg, bmp or tiff.
func Encode(w io.Writer, buf *models.PixelBuffer, format string) error {
	img := ToImage(buf)
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, img)
	case "jpg", "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case "bmp":
		return bmp.Encode(w, img)
	case "tif", "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported output format: %q", format)
	}
}

// FormatFromPath maps a file extension to an Encode format name.
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Save encodes buf to path, choosing the format from the extension.
func Save(path string, buf *models.PixelBuffer) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(file, buf, FormatFromPath(path)); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}

// StillSource serves one decoded image as a single-frame source.
type StillSource struct {
	frame *models.PixelBuffer
	done  bool
}

func NewStillSource(frame *models.PixelBuffer) *StillSource {
	return &StillSource{frame: frame}
}

// OpenStill loads path as a StillSource.
func OpenStill(path string) (*StillSource, error) {
	buf, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewStillSource(buf), nil
}

func (s *StillSource) Next(ctx context.Context) (*models.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.done {
		return nil, io.EOF
	}
	s.done = true
	return s.frame, nil
}

func (s *StillSource) Close() error {
	return nil
}
