package fitness

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/Seggan/duosplit/internal/model"
)

// PartialFitness accumulates the shot-noise cost of one coefficient set over
// a contiguous pixel chunk. Per pixel, each line's noise estimate is the sum
// of squared coefficients weighted by the per-channel signal; the chunk cost
// is the sum of the squared estimates. Summation over any complete partition
// of an image equals the whole-image sum, which is what licenses the
// parallel grid below.
func PartialFitness(c model.Coefficients, chunk []model.Pixel) float64 {
	total := 0.0
	for _, p := range chunk {
		line1 := c.I*c.I*p.R + c.J*c.J*p.G + c.K*c.K*p.B
		line2 := c.X*c.X*p.R + c.Y*c.Y*p.G + c.Z*c.Z*p.B
		total += line1*line1 + line2*line2
	}
	return total
}

// TotalFitness scores one genome against the full image: the chunk sum
// normalized by image length (mean noise). A genome whose coefficients
// cannot be resolved scores +Inf rather than propagating NaN.
func TotalFitness(s Strategy, g model.Genome, qe model.QEMatrix, img model.Image) float64 {
	coeffs, err := s.Resolve(g, qe)
	if err != nil {
		return math.Inf(1)
	}
	return PartialFitness(coeffs, img) / float64(len(img))
}

// Grid evaluates a whole population as an embarrassingly parallel
// (genome x chunk) grid. Each cell writes exactly one scalar into a flat
// buffer indexed genome*ChunkCount+chunk, so no cell ever contends with
// another; a final reduction sums each genome's row. Chunk ordering cannot
// affect the result beyond floating-point rounding.
type Grid struct {
	Strategy   Strategy
	ChunkCount int
	// Workers bounds concurrent cell evaluations; values below 1 mean one.
	Workers int
}

// Evaluate returns one fitness per genome, in input order. Disqualified
// genomes score +Inf. The call blocks until every cell of the batch has
// completed; no partial results are exposed.
func (e *Grid) Evaluate(ctx context.Context, genomes []model.Genome, qe model.QEMatrix, img model.Image) ([]float64, error) {
	if e.Strategy == nil {
		return nil, fmt.Errorf("strategy is required")
	}
	if e.ChunkCount <= 0 {
		return nil, fmt.Errorf("chunk count must be > 0")
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("image is empty")
	}

	chunks := e.ChunkCount
	workers := e.Workers
	if workers < 1 {
		workers = 1
	}

	// Coefficient derivation is hoisted out of the cells: it depends only on
	// the genome, not the chunk.
	coeffs := make([]model.Coefficients, len(genomes))
	resolved := make([]bool, len(genomes))
	for i, g := range genomes {
		c, err := e.Strategy.Resolve(g, qe)
		if err != nil {
			continue
		}
		coeffs[i] = c
		resolved[i] = true
	}

	// The final chunk is ragged: its upper bound is clamped to the image
	// length, and chunks past the end are no-ops.
	chunkLen := (len(img) + chunks - 1) / chunks
	cells := make([]float64, len(genomes)*chunks)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for gi := range genomes {
		if !resolved[gi] {
			continue
		}
		gi := gi
		for ci := 0; ci < chunks; ci++ {
			start := ci * chunkLen
			if start >= len(img) {
				break
			}
			end := min(start+chunkLen, len(img))
			cell := gi*chunks + ci
			group.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				cells[cell] = PartialFitness(coeffs[gi], img[start:end])
				return nil
			})
		}
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	totals := make([]float64, len(genomes))
	for gi := range genomes {
		if !resolved[gi] {
			totals[gi] = math.Inf(1)
			continue
		}
		row := cells[gi*chunks : (gi+1)*chunks]
		totals[gi] = floats.Sum(row) / float64(len(img))
	}
	return totals, nil
}
