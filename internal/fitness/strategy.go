package fitness

import (
	"github.com/Seggan/duosplit/internal/calib"
	"github.com/Seggan/duosplit/internal/model"
)

// Strategy converts a genome's free parameters into a full unmixing
// coefficient set. A failed resolution disqualifies the genome.
type Strategy interface {
	Name() string
	Resolve(g model.Genome, qe model.QEMatrix) (model.Coefficients, error)
}

// Analytic is the canonical strategy: the four dependent coefficients are
// completed exactly from the two free parameters via the calibration solver.
type Analytic struct {
	// Epsilon bounds the solver minor; zero selects calib.DefaultEpsilon.
	Epsilon float64
}

func (Analytic) Name() string {
	return "analytic"
}

func (s Analytic) Resolve(g model.Genome, qe model.QEMatrix) (model.Coefficients, error) {
	return calib.Derive(g, qe, s.Epsilon)
}
