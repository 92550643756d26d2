package evo

import (
	"math"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Seggan/duosplit/internal/model"
)

// GaussianMutator perturbs each free parameter independently with a
// zero-mean Gaussian offset whose standard deviation decays across
// generations: sigma(gen) = initial * exp(-decay * gen). Broad exploration
// early, narrow refinement late.
type GaussianMutator struct {
	InitialStd float64
	DecayRate  float64

	src xrand.Source
}

// NewGaussianMutator builds a mutator with its own deterministic sample
// source. Not safe for concurrent use; the generation loop owns it.
func NewGaussianMutator(initialStd, decayRate float64, seed uint64) *GaussianMutator {
	return &GaussianMutator{
		InitialStd: initialStd,
		DecayRate:  decayRate,
		src:        xrand.NewSource(seed),
	}
}

// Sigma returns the mutation standard deviation for a generation.
func (m *GaussianMutator) Sigma(generation int) float64 {
	return m.InitialStd * math.Exp(-m.DecayRate*float64(generation))
}

// Mutate produces a child of the parent for the next generation. The parent
// is never modified; both free parameters receive independent offsets drawn
// at the current generation's sigma.
func (m *GaussianMutator) Mutate(parent model.Genome, generation int) model.Genome {
	normal := distuv.Normal{Mu: 0, Sigma: m.Sigma(generation), Src: m.src}
	return model.Genome{
		I:      parent.I + normal.Rand(),
		X:      parent.X + normal.Rand(),
		Origin: generation + 1,
	}
}
