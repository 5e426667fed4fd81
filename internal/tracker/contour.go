package tracker

import "pill-counter/internal/models"

// ContourTracer follows thin runs of near-white pixels. Each walk is a single
// path, not a flood: at every step it moves to one unvisited edge neighbor.
type ContourTracer struct{}

func NewContourTracer() *ContourTracer {
	return &ContourTracer{}
}

func (t *ContourTracer) Name() string {
	return "contour_tracer"
}

// isEdge reports whether every color channel of pixel p exceeds the threshold.
func isEdge(buf *models.PixelBuffer, p int, threshold uint8) bool {
	i := p * models.Channels
	return buf.Pix[i] > threshold && buf.Pix[i+1] > threshold && buf.Pix[i+2] > threshold
}

func (t *ContourTracer) Find(buf *models.PixelBuffer, cfg models.TrackerConfig, visited *VisitSet) []models.Region {
	g := newGrid(buf)
	n := g.size()
	edge := func(p int) bool { return isEdge(buf, p, cfg.EdgeChannelThreshold) }

	var regions []models.Region
	nb := make([]int, 0, 8)
	ahead := make([]int, 0, 8)

	for start := 0; start < n; start++ {
		var path []int
		for p := start; p >= 0; {
			if visited.Has(p) {
				break
			}
			visited.Mark(p)
			if !edge(p) {
				break
			}
			path = append(path, p)
			p = t.advance(g, p, edge, visited, nb, ahead)
		}

		if len(path) == 0 || len(path) < cfg.MinContourLength {
			continue
		}

		x, y := g.xy(path[0])
		bounds := models.NewRect(x, y)
		for _, p := range path[1:] {
			x, y = g.xy(p)
			bounds.Extend(x, y)
		}
		regions = append(regions, models.Region{
			ID:      len(regions),
			Offsets: offsets(path),
			Depth:   len(path),
			Bounds:  &bounds,
		})
	}

	return regions
}

// advance picks the next pixel of the walk from p, or -1. It prefers a
// neighbor that can itself be continued from so the walk stays on the contour
// instead of stepping onto a spur.
func (t *ContourTracer) advance(g grid, p int, edge func(int) bool, visited *VisitSet, nb, ahead []int) int {
	first := -1
	for _, q := range g.neighbors(nb[:0], p, &edgeSteps) {
		if visited.Has(q) || !edge(q) {
			continue
		}
		if first < 0 {
			first = q
		}
		if t.continues(g, q, edge, visited, ahead) {
			return q
		}
	}
	return first
}

// continues reports whether q has an unvisited edge neighbor.
func (t *ContourTracer) continues(g grid, q int, edge func(int) bool, visited *VisitSet, buf []int) bool {
	for _, r := range g.neighbors(buf[:0], q, &edgeSteps) {
		if !visited.Has(r) && edge(r) {
			return true
		}
	}
	return false
}
