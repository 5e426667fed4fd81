package tracker

import (
	"pill-counter/internal/models"
	"pill-counter/internal/processing/color"
)

// BoundsFill floods unvisited pixels into regions summarized by a running
// bounding rectangle. Neighbors join while their Lab distance to the seed stays
// within the background threshold.
type BoundsFill struct{}

func NewBoundsFill() *BoundsFill {
	return &BoundsFill{}
}

func (b *BoundsFill) Name() string {
	return "bounds_fill"
}

func (b *BoundsFill) Find(buf *models.PixelBuffer, cfg models.TrackerConfig, visited *VisitSet) []models.Region {
	g := newGrid(buf)
	n := g.size()

	rejected := make([]int32, n)
	var gen int32

	var regions []models.Region
	queue := make([]int, 0, 64)
	nb := make([]int, 0, 8)

	for seed := 0; seed < n; seed++ {
		if visited.Has(seed) {
			continue
		}
		gen++
		seedColor := colorAt(buf, seed)
		x, y := g.xy(seed)
		rect := models.NewRect(x, y)

		queue = append(queue[:0], seed)
		var points []int
		oversized := false

		for head := 0; head < len(queue); head++ {
			p := queue[head]
			if visited.Has(p) || rejected[p] == gen {
				continue
			}
			if color.CompareRGB(seedColor, colorAt(buf, p)) > cfg.BackgroundDistanceThreshold {
				rejected[p] = gen
				continue
			}

			visited.Mark(p)
			if !oversized {
				if float64(len(points)) > cfg.MaxGroupSize {
					oversized = true
					points = nil
				} else {
					x, y = g.xy(p)
					rect.Extend(x, y)
					points = append(points, p)
				}
			}

			nb = g.neighbors(nb[:0], p, &edgeSteps)
			for _, q := range nb {
				if !visited.Has(q) && rejected[q] != gen {
					queue = append(queue, q)
				}
			}
		}

		if oversized || len(points) == 0 {
			continue
		}
		if float64(len(points)) < cfg.MinGroupSize || float64(len(points)) > cfg.MaxGroupSize {
			continue
		}
		bounds := rect
		regions = append(regions, models.Region{
			ID:      len(regions),
			Offsets: offsets(points),
			Seed:    seedColor,
			HasSeed: true,
			Bounds:  &bounds,
		})
	}

	return regions
}
