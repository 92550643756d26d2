package calib

import (
	"errors"
	"math"
	"testing"

	"github.com/Seggan/duosplit/internal/model"
)

func testQE() model.QEMatrix {
	return model.QEMatrix{
		Red:   model.QuantumEfficiency{Ha: 0.82, OIII: 0.11},
		Green: model.QuantumEfficiency{Ha: 0.18, OIII: 0.74},
		Blue:  model.QuantumEfficiency{Ha: 0.05, OIII: 0.31},
	}
}

func TestCompleteSatisfiesConstraints(t *testing.T) {
	qe := testQE()
	ha := qe.HaResponse()
	oiii := qe.OIIIResponse()

	for _, free := range []float64{-3.5, -1, -0.25, 0, 0.5, 1, 2, 17.3} {
		j, k, err := Complete(free, ha, oiii, DefaultEpsilon)
		if err != nil {
			t.Fatalf("complete(%v): %v", free, err)
		}

		unit := ha.R*free + ha.G*j + ha.B*k
		zero := oiii.R*free + oiii.G*j + oiii.B*k
		if math.Abs(unit-1) > 1e-9 {
			t.Fatalf("free=%v: unit-response constraint violated: got %v", free, unit)
		}
		if math.Abs(zero) > 1e-9 {
			t.Fatalf("free=%v: rejection constraint violated: got %v", free, zero)
		}
	}
}

func TestCompleteSwappedRolesSatisfiesConstraints(t *testing.T) {
	qe := testQE()
	ha := qe.HaResponse()
	oiii := qe.OIIIResponse()

	y, z, err := Complete(0.4, oiii, ha, DefaultEpsilon)
	if err != nil {
		t.Fatalf("complete swapped: %v", err)
	}
	unit := oiii.R*0.4 + oiii.G*y + oiii.B*z
	zero := ha.R*0.4 + ha.G*y + ha.B*z
	if math.Abs(unit-1) > 1e-9 || math.Abs(zero) > 1e-9 {
		t.Fatalf("swapped constraints violated: unit=%v zero=%v", unit, zero)
	}
}

func TestCompleteDegenerate(t *testing.T) {
	// Both lines share the same green/blue response, so the solver minor is
	// exactly zero.
	line := model.LineResponse{R: 0.5, G: 0.3, B: 0.2}
	_, _, err := Complete(1.0, line, line, DefaultEpsilon)
	if err == nil {
		t.Fatal("expected degenerate error")
	}
	if !errors.Is(err, ErrDegenerate) {
		t.Fatalf("expected ErrDegenerate, got %v", err)
	}
}

func TestDeriveCarriesFreeParameters(t *testing.T) {
	qe := testQE()
	genome := model.Genome{I: 0.9, X: -0.2}

	coeffs, err := Derive(genome, qe, DefaultEpsilon)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if coeffs.I != genome.I || coeffs.X != genome.X {
		t.Fatalf("free parameters not carried: %+v", coeffs)
	}

	// Pure hydrogen-alpha light must map to exactly (1, 0) and pure
	// oxygen-iii light to exactly (0, 1).
	haPixel := model.Pixel{R: qe.Red.Ha, G: qe.Green.Ha, B: qe.Blue.Ha}
	oiiiPixel := model.Pixel{R: qe.Red.OIII, G: qe.Green.OIII, B: qe.Blue.OIII}

	l1, l2 := coeffs.Apply(haPixel)
	if math.Abs(l1-1) > 1e-9 || math.Abs(l2) > 1e-9 {
		t.Fatalf("pure Ha pixel recovered as (%v, %v)", l1, l2)
	}
	l1, l2 = coeffs.Apply(oiiiPixel)
	if math.Abs(l1) > 1e-9 || math.Abs(l2-1) > 1e-9 {
		t.Fatalf("pure OIII pixel recovered as (%v, %v)", l1, l2)
	}
}

func TestDeriveDegenerateMatrix(t *testing.T) {
	qe := model.QEMatrix{
		Red:   model.QuantumEfficiency{Ha: 1, OIII: 0.5},
		Green: model.QuantumEfficiency{Ha: 0.4, OIII: 0.2},
		Blue:  model.QuantumEfficiency{Ha: 0.6, OIII: 0.3},
	}
	_, err := Derive(model.Genome{I: 1, X: 1}, qe, DefaultEpsilon)
	if !errors.Is(err, ErrDegenerate) {
		t.Fatalf("expected ErrDegenerate, got %v", err)
	}
}

func TestConditionWellConditioned(t *testing.T) {
	cond := Condition(testQE())
	if math.IsInf(cond, 1) || cond < 1 {
		t.Fatalf("unexpected condition number: %v", cond)
	}
}

func TestConditionSingular(t *testing.T) {
	qe := model.QEMatrix{
		Red:   model.QuantumEfficiency{Ha: 0.5, OIII: 0.5},
		Green: model.QuantumEfficiency{Ha: 0.3, OIII: 0.3},
		Blue:  model.QuantumEfficiency{Ha: 0.2, OIII: 0.2},
	}
	cond := Condition(qe)
	if cond < 1e12 {
		t.Fatalf("expected huge condition number for parallel responses, got %v", cond)
	}
}

func TestSplit(t *testing.T) {
	img := model.Image{
		{R: 2, G: 3, B: 5},
		{R: 1, G: 0, B: 0},
	}
	c := model.Coefficients{I: 1, X: 0.5, Y: 1}

	ha, oiii := Split(img, c)
	if len(ha) != 2 || len(oiii) != 2 {
		t.Fatalf("unexpected raster lengths: %d, %d", len(ha), len(oiii))
	}
	if ha[0] != 2 || ha[1] != 1 {
		t.Fatalf("unexpected Ha raster: %v", ha)
	}
	if oiii[0] != 4 || oiii[1] != 0.5 {
		t.Fatalf("unexpected OIII raster: %v", oiii)
	}
}
