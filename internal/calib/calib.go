package calib

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/Seggan/duosplit/internal/model"
)

// ErrDegenerate reports that the quantum-efficiency minor used by the
// analytic solver is too close to zero for a reliable solution.
var ErrDegenerate = errors.New("degenerate quantum-efficiency matrix")

// DefaultEpsilon bounds how small the solver minor may get before the
// matrix is treated as degenerate.
const DefaultEpsilon = 1e-9

// Complete solves the two exact-recovery constraints for one emission line's
// dependent coefficients, given the free red-channel coefficient. With
// primary the line being recovered and secondary the line being rejected,
// the returned (j, k) satisfy
//
//	primary.R·free + primary.G·j + primary.B·k = 1
//	secondary.R·free + secondary.G·j + secondary.B·k = 0
//
// Swapping the two lines' roles yields the other line's dependent pair.
// Pure function; safe for concurrent use.
func Complete(free float64, primary, secondary model.LineResponse, eps float64) (j, k float64, err error) {
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	denom := secondary.B*primary.G - primary.B*secondary.G
	if math.Abs(denom) < eps {
		return 0, 0, fmt.Errorf("solver minor %.3e below epsilon %.3e: %w", denom, eps, ErrDegenerate)
	}
	j = (secondary.B + (secondary.R*primary.B-primary.R*secondary.B)*free) / denom
	k = (-secondary.G + (primary.R*secondary.G-secondary.R*primary.G)*free) / denom
	return j, k, nil
}

// Derive completes a genome's two free parameters into the full six-value
// coefficient set for the given matrix.
func Derive(g model.Genome, qe model.QEMatrix, eps float64) (model.Coefficients, error) {
	ha := qe.HaResponse()
	oiii := qe.OIIIResponse()

	j, k, err := Complete(g.I, ha, oiii, eps)
	if err != nil {
		return model.Coefficients{}, fmt.Errorf("complete hydrogen-alpha coefficients: %w", err)
	}
	y, z, err := Complete(g.X, oiii, ha, eps)
	if err != nil {
		return model.Coefficients{}, fmt.Errorf("complete oxygen-iii coefficients: %w", err)
	}

	return model.Coefficients{I: g.I, J: j, K: k, X: g.X, Y: y, Z: z}, nil
}

// Condition reports the 2-norm condition number of the 3x2 line-response
// system. Large values warn that the capture blends the two lines almost
// identically and the recovered maps will be noise dominated.
func Condition(qe model.QEMatrix) float64 {
	ha := qe.HaResponse()
	oiii := qe.OIIIResponse()
	system := mat.NewDense(3, 2, []float64{
		ha.R, oiii.R,
		ha.G, oiii.G,
		ha.B, oiii.B,
	})

	var svd mat.SVD
	if !svd.Factorize(system, mat.SVDNone) {
		return math.Inf(1)
	}
	values := svd.Values(nil)
	if len(values) < 2 || values[len(values)-1] == 0 {
		return math.Inf(1)
	}
	return values[0] / values[len(values)-1]
}

// Split applies a coefficient set to a whole image, producing the two
// recovered emission-line rasters in pixel order.
func Split(img model.Image, c model.Coefficients) (ha, oiii []float64) {
	ha = make([]float64, len(img))
	oiii = make([]float64, len(img))
	for i, p := range img {
		ha[i], oiii[i] = c.Apply(p)
	}
	return ha, oiii
}
