// Package integral builds summed-area tables over the luma of a frame so that
// window sums, variances and edge densities can be read in constant time.
package integral

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"pill-counter/internal/models"
	"pill-counter/internal/opencv/conversion"
	"pill-counter/internal/processing/filters"
)

// ErrNoTables is returned by Build when Options requests nothing.
var ErrNoTables = fmt.Errorf("%w: no integral table requested", filters.ErrInvalidArgument)

// Table selects one of the tables of a Set.
type Table int

const (
	Sum Table = iota
	SquareSum
	Tilted
	SobelSum
)

func (t Table) String() string {
	switch t {
	case Sum:
		return "sum"
	case SquareSum:
		return "square_sum"
	case Tilted:
		return "tilted"
	case SobelSum:
		return "sobel_sum"
	default:
		return "unknown"
	}
}

// Options chooses which tables Build computes.
type Options struct {
	Sum       bool
	SquareSum bool
	Tilted    bool
	Sobel     bool
}

func (o Options) requested() bool {
	return o.Sum || o.SquareSum || o.Tilted || o.Sobel
}

// Set holds the requested tables, each Width*Height values in row-major order.
// Tables that were not requested are nil.
type Set struct {
	Width, Height int

	Sum       []float64
	SquareSum []float64
	Tilted    []float64
	Sobel     []float64
}

// Build computes the requested tables. The plain, squared and Sobel tables
// come from OpenCV's integral over the luma and the Sobel magnitude; the
// tilted table is accumulated here. src is not modified.
func Build(src *models.PixelBuffer, opts Options) (*Set, error) {
	if !opts.requested() {
		return nil, ErrNoTables
	}
	if !src.Valid() {
		return nil, fmt.Errorf("building integral tables: %w", models.ErrInvalidBuffer)
	}

	w, h := src.Width, src.Height
	set := &Set{Width: w, Height: h}
	n := w * h
	if n == 0 {
		set.allocate(opts, 0)
		return set, nil
	}

	luma := make([]float64, n)
	for p, v := range filters.Grayscale(src, false) {
		luma[p] = float64(v)
	}

	if opts.Sum || opts.SquareSum {
		sum, sq, err := integrate(luma, w, h)
		if err != nil {
			return nil, fmt.Errorf("luma integral: %w", err)
		}
		if opts.Sum {
			set.Sum = sum
		}
		if opts.SquareSum {
			set.SquareSum = sq
		}
	}

	if opts.Sobel {
		edges, err := filters.SobelMagnitude(src)
		if err != nil {
			return nil, fmt.Errorf("sobel integral: %w", err)
		}
		mag := make([]float64, n)
		for p := range mag {
			mag[p] = float64(edges.Data[p*models.Channels])
		}
		if set.Sobel, _, err = integrate(mag, w, h); err != nil {
			return nil, fmt.Errorf("sobel integral: %w", err)
		}
	}

	if opts.Tilted {
		set.Tilted = set.tilted(luma)
	}

	return set, nil
}

func (s *Set) allocate(opts Options, n int) {
	if opts.Sum {
		s.Sum = make([]float64, n)
	}
	if opts.SquareSum {
		s.SquareSum = make([]float64, n)
	}
	if opts.Tilted {
		s.Tilted = make([]float64, n)
	}
	if opts.Sobel {
		s.Sobel = make([]float64, n)
	}
}

// integrate returns the inclusive sum and square-sum tables of a w x h raster.
// OpenCV pads its output with a leading zero row and column; those are dropped
// so that entry (x, y) covers [0, x] x [0, y].
func integrate(values []float64, w, h int) (sum, sq []float64, err error) {
	src, err := conversion.Float64ToMat(values, w, h)
	if err != nil {
		return nil, nil, err
	}
	defer src.Close()

	sumMat := gocv.NewMat()
	defer sumMat.Close()
	sqMat := gocv.NewMat()
	defer sqMat.Close()
	// OpenCV's rotated table is indexed differently from Tilted; it is not used.
	rotated := gocv.NewMat()
	defer rotated.Close()
	gocv.Integral(src, &sumMat, &sqMat, &rotated)

	if sum, err = unpad(sumMat, w, h); err != nil {
		return nil, nil, err
	}
	if sq, err = unpad(sqMat, w, h); err != nil {
		return nil, nil, err
	}
	return sum, sq, nil
}

func unpad(mat gocv.Mat, w, h int) ([]float64, error) {
	if mat.Rows() != h+1 || mat.Cols() != w+1 {
		return nil, fmt.Errorf("%w: integral is %dx%d, want %dx%d", conversion.ErrUnsupportedMat, mat.Cols(), mat.Rows(), w+1, h+1)
	}
	padded, err := conversion.MatFloat64(mat)
	if err != nil {
		return nil, err
	}
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		copy(out[y*w:(y+1)*w], padded[(y+1)*(w+1)+1:(y+2)*(w+1)])
	}
	return out, nil
}

// tilted accumulates the 45° rotated table: each entry holds the sum of the
// cone of pixels above it, widening by one pixel per row on either side.
func (s *Set) tilted(luma []float64) []float64 {
	w, h := s.Width, s.Height
	t := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			above := 0.0
			if y > 0 {
				above = luma[(y-1)*w+x]
			}
			t[y*w+x] = s.at(t, x-1, y-1) + s.at(t, x+1, y-1) - s.at(t, x, y-2) + luma[y*w+x] + above
		}
	}
	return t
}

// at reads a table, returning 0 outside the frame.
func (s *Set) at(t []float64, x, y int) float64 {
	if x < 0 || y < 0 || x >= s.Width || y >= s.Height {
		return 0
	}
	return t[y*s.Width+x]
}

func (s *Set) table(t Table) []float64 {
	switch t {
	case Sum:
		return s.Sum
	case SquareSum:
		return s.SquareSum
	case Tilted:
		return s.Tilted
	case SobelSum:
		return s.Sobel
	default:
		return nil
	}
}

// Has reports whether table t was built.
func (s *Set) Has(t Table) bool {
	return s != nil && s.table(t) != nil
}

// At returns the raw table value at (x, y), or 0 when out of range or not built.
func (s *Set) At(t Table, x, y int) float64 {
	tab := s.table(t)
	if tab == nil {
		return 0
	}
	return s.at(tab, x, y)
}

// RectSum returns the sum of an axis-aligned table over r (half-open, clipped
// to the frame). It is meaningless for the Tilted table and returns 0 for a
// table that was not built.
func (s *Set) RectSum(t Table, r image.Rectangle) float64 {
	tab := s.table(t)
	if tab == nil || t == Tilted {
		return 0
	}
	r = r.Intersect(image.Rect(0, 0, s.Width, s.Height))
	if r.Empty() {
		return 0
	}
	x0, y0 := r.Min.X-1, r.Min.Y-1
	x1, y1 := r.Max.X-1, r.Max.Y-1
	return s.at(tab, x1, y1) - s.at(tab, x0, y1) - s.at(tab, x1, y0) + s.at(tab, x0, y0)
}

func area(r image.Rectangle, w, h int) int {
	r = r.Intersect(image.Rect(0, 0, w, h))
	return r.Dx() * r.Dy()
}

// Mean returns the average luma over r, or 0 for an empty window.
func (s *Set) Mean(r image.Rectangle) float64 {
	n := area(r, s.Width, s.Height)
	if n == 0 {
		return 0
	}
	return s.RectSum(Sum, r) / float64(n)
}

// Variance returns the luma variance over r from the Sum and SquareSum tables.
func (s *Set) Variance(r image.Rectangle) float64 {
	n := area(r, s.Width, s.Height)
	if n == 0 || !s.Has(Sum) || !s.Has(SquareSum) {
		return 0
	}
	mean := s.RectSum(Sum, r) / float64(n)
	v := s.RectSum(SquareSum, r)/float64(n) - mean*mean
	if v < 0 {
		// rounding
		return 0
	}
	return v
}

// EdgeDensity is the mean Sobel magnitude over r.
func (s *Set) EdgeDensity(r image.Rectangle) float64 {
	n := area(r, s.Width, s.Height)
	if n == 0 {
		return 0
	}
	return s.RectSum(SobelSum, r) / float64(n)
}
