package evo

import (
	"fmt"
	"math/rand"

	"github.com/Seggan/duosplit/internal/model"
)

// ScoredGenome pairs a genome with its evaluated noise cost. Lower is
// better; +Inf marks a disqualified genome.
type ScoredGenome struct {
	Genome  model.Genome
	Fitness float64
}

// Selector chooses parents from ranked genomes for reproduction. The ranked
// slice is ordered ascending by fitness and qualified counts the leading
// entries with finite scores; implementations must never pick past it.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []ScoredGenome, qualified int) (model.Genome, error)
}

// TruncationSelector picks uniformly from the best surviving fraction of the
// qualified population.
type TruncationSelector struct {
	// Fraction of the qualified population eligible as parents; values
	// outside (0, 1] fall back to 0.5.
	Fraction float64
}

func (TruncationSelector) Name() string {
	return "truncation"
}

func (s TruncationSelector) PickParent(rng *rand.Rand, ranked []ScoredGenome, qualified int) (model.Genome, error) {
	if rng == nil {
		return model.Genome{}, fmt.Errorf("random source is required")
	}
	if qualified <= 0 || qualified > len(ranked) {
		return model.Genome{}, fmt.Errorf("invalid qualified count: %d", qualified)
	}

	fraction := s.Fraction
	if fraction <= 0 || fraction > 1 {
		fraction = 0.5
	}
	pool := int(fraction * float64(qualified))
	if pool < 1 {
		pool = 1
	}
	return ranked[rng.Intn(pool)].Genome, nil
}

// TournamentSelector samples candidates from the qualified population and
// picks the lowest fitness among them.
type TournamentSelector struct {
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []ScoredGenome, qualified int) (model.Genome, error) {
	if rng == nil {
		return model.Genome{}, fmt.Errorf("random source is required")
	}
	if qualified <= 0 || qualified > len(ranked) {
		return model.Genome{}, fmt.Errorf("invalid qualified count: %d", qualified)
	}

	size := s.TournamentSize
	if size <= 0 {
		size = 3
	}
	if size > qualified {
		size = qualified
	}

	best := ranked[rng.Intn(qualified)]
	for i := 1; i < size; i++ {
		candidate := ranked[rng.Intn(qualified)]
		if candidate.Fitness < best.Fitness {
			best = candidate
		}
	}
	return best.Genome, nil
}

// NewSelector resolves a selection policy by name; the empty name selects
// truncation.
func NewSelector(name string) (Selector, error) {
	switch name {
	case "", "truncation":
		return TruncationSelector{}, nil
	case "tournament":
		return TournamentSelector{TournamentSize: 3}, nil
	default:
		return nil, fmt.Errorf("unknown selection policy: %s", name)
	}
}
