package tracker

import (
	"pill-counter/internal/models"
	"pill-counter/internal/processing/color"
)

// layerEnd separates the neighbor batches of accepted pixels in the queue.
const layerEnd = -1

// ColorFill grows regions breadth-first from every unvisited seed, accepting
// neighbors whose Lab distance to the seed color is below the threshold.
type ColorFill struct{}

func NewColorFill() *ColorFill {
	return &ColorFill{}
}

func (c *ColorFill) Name() string {
	return "color_fill"
}

func (c *ColorFill) Find(buf *models.PixelBuffer, cfg models.TrackerConfig, visited *VisitSet) []models.Region {
	g := newGrid(buf)
	n := g.size()

	// rejected[p] == gen means p already failed the test for the current seed.
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

		queue = append(queue[:0], seed, layerEnd)
		var members []int
		background := false
		depth, noMatch := 0, 0

		for head := 0; head < len(queue); head++ {
			p := queue[head]
			if p == layerEnd {
				depth++
				noMatch = 0
				continue
			}
			if visited.Has(p) || rejected[p] == gen {
				continue
			}

			if color.CompareRGB(seedColor, colorAt(buf, p)) >= cfg.ColorDistanceThreshold {
				rejected[p] = gen
				noMatch++
				if noMatch >= cfg.NoMatchDepthLimit {
					break
				}
				continue
			}

			visited.Mark(p)
			// Past the size limit the region is background: keep flooding so it
			// is consumed whole, but stop collecting.
			if !background {
				members = append(members, p)
				if float64(len(members)) > cfg.MaxGroupSize {
					background = true
					members = nil
				}
			}

			nb = g.neighbors(nb[:0], p, &colorSteps)
			for _, q := range nb {
				if !visited.Has(q) && rejected[q] != gen {
					queue = append(queue, q)
				}
			}
			queue = append(queue, layerEnd)
		}

		if background || float64(len(members)) < cfg.MinGroupSize || len(members) == 0 {
			continue
		}
		regions = append(regions, models.Region{
			ID:      len(regions),
			Offsets: offsets(members),
			Depth:   depth,
			Seed:    seedColor,
			HasSeed: true,
		})
	}

	return regions
}
