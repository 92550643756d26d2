package evo

import (
	"math"
	"testing"

	"github.com/Seggan/duosplit/internal/model"
)

func TestSigmaDecay(t *testing.T) {
	m := NewGaussianMutator(0.5, 0.1, 1)

	if m.Sigma(0) != 0.5 {
		t.Fatalf("sigma(0) = %v, want initial std", m.Sigma(0))
	}
	want := 0.5 * math.Exp(-0.1*10)
	if math.Abs(m.Sigma(10)-want) > 1e-12 {
		t.Fatalf("sigma(10) = %v, want %v", m.Sigma(10), want)
	}
	for gen := 1; gen < 50; gen++ {
		if m.Sigma(gen) >= m.Sigma(gen-1) {
			t.Fatalf("sigma must decay: sigma(%d)=%v sigma(%d)=%v",
				gen-1, m.Sigma(gen-1), gen, m.Sigma(gen))
		}
	}
}

func TestMutateLeavesParentIntact(t *testing.T) {
	m := NewGaussianMutator(0.5, 0.1, 99)
	parent := model.Genome{I: 0.25, X: -0.75, Origin: 3}

	child := m.Mutate(parent, 3)
	if parent.I != 0.25 || parent.X != -0.75 || parent.Origin != 3 {
		t.Fatalf("parent modified: %+v", parent)
	}
	if child.Origin != 4 {
		t.Fatalf("child origin = %d, want 4", child.Origin)
	}
	if child.I == parent.I && child.X == parent.X {
		t.Fatal("child identical to parent; offsets not applied")
	}
}

func TestMutateDeterministicPerSeed(t *testing.T) {
	parent := model.Genome{I: 0.1, X: 0.2}

	a := NewGaussianMutator(0.5, 0.1, 7).Mutate(parent, 0)
	b := NewGaussianMutator(0.5, 0.1, 7).Mutate(parent, 0)
	if a != b {
		t.Fatalf("same seed produced different children: %+v vs %+v", a, b)
	}

	c := NewGaussianMutator(0.5, 0.1, 8).Mutate(parent, 0)
	if a == c {
		t.Fatal("different seeds produced identical children")
	}
}

func TestMutateOffsetsShrinkWithGeneration(t *testing.T) {
	parent := model.Genome{}
	early := NewGaussianMutator(0.5, 0.2, 5)
	late := NewGaussianMutator(0.5, 0.2, 5)

	var earlySpread, lateSpread float64
	for i := 0; i < 500; i++ {
		e := early.Mutate(parent, 0)
		l := late.Mutate(parent, 40)
		earlySpread += math.Abs(e.I) + math.Abs(e.X)
		lateSpread += math.Abs(l.I) + math.Abs(l.X)
	}
	if lateSpread >= earlySpread {
		t.Fatalf("late-generation offsets should be narrower: early=%v late=%v", earlySpread, lateSpread)
	}
}
