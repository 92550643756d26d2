package fitness

import (
	"github.com/Seggan/duosplit/internal/model"
)

// ConstraintViolation measures how far a full coefficient set strays from
// the exact-recovery system: each recovered line must respond with unit gain
// to its own emission and zero gain to the other. Returns the sum of squared
// residuals over all four constraints; zero means exact recovery.
func ConstraintViolation(c model.Coefficients, qe model.QEMatrix) float64 {
	ha := qe.HaResponse()
	oiii := qe.OIIIResponse()

	r1 := ha.R*c.I + ha.G*c.J + ha.B*c.K - 1
	r2 := oiii.R*c.I + oiii.G*c.J + oiii.B*c.K
	r3 := oiii.R*c.X + oiii.G*c.Y + oiii.B*c.Z - 1
	r4 := ha.R*c.X + ha.G*c.Y + ha.B*c.Z

	return r1*r1 + r2*r2 + r3*r3 + r4*r4
}

// PenaltyEvaluator scores a free six-coefficient candidate directly, trading
// the analytic completion for a quadratic constraint-violation penalty. It
// operates on full coefficient sets, never on the two-parameter genome; the
// two candidate forms stay separate on purpose.
type PenaltyEvaluator struct {
	// Lambda weighs the constraint penalty against the noise cost.
	Lambda float64
}

func (PenaltyEvaluator) Name() string {
	return "penalty"
}

// Score returns the mean noise cost plus the weighted constraint penalty.
func (e PenaltyEvaluator) Score(c model.Coefficients, qe model.QEMatrix, img model.Image) float64 {
	noise := PartialFitness(c, img) / float64(len(img))
	return noise + e.Lambda*ConstraintViolation(c, qe)
}
