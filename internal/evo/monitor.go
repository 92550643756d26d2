package evo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Seggan/duosplit/internal/fitness"
	"github.com/Seggan/duosplit/internal/model"
)

var (
	// ErrInvalidConfig reports unusable run parameters. Raised before any
	// parallel work is dispatched.
	ErrInvalidConfig = errors.New("invalid run configuration")

	// ErrOptimizationFailed reports that an entire generation was
	// disqualified, leaving no genome to select or report.
	ErrOptimizationFailed = errors.New("optimization failed: every genome disqualified")
)

// Config carries the run parameters the external collaborators supply.
type Config struct {
	QE    model.QEMatrix
	Image model.Image

	PopulationSize int
	Generations    int
	EliteCount     int
	ChunkCount     int
	Workers        int

	InitialStd float64
	DecayRate  float64
	Seed       int64

	Selector Selector
	Strategy fitness.Strategy
	Logger   *logrus.Logger
}

// Result is the terminal output of a run: the best genome ever observed
// across all generations, its derived coefficient set, and the run history.
type Result struct {
	Best             ScoredGenome
	BestCoefficients model.Coefficients
	BestGeneration   int

	// BestByGeneration holds the best fitness ever observed after each
	// generation; it never increases between entries.
	BestByGeneration []float64
	Diagnostics      []model.GenerationDiagnostics
	FinalPopulation  []ScoredGenome
}

// Monitor drives the generation loop: evaluate, rank, preserve elites,
// reproduce, repeat. A single sequential orchestrator owns all population
// state; parallelism lives entirely inside the batched fitness grid.
type Monitor struct {
	cfg     Config
	rng     *rand.Rand
	mutator *GaussianMutator
	grid    *fitness.Grid
	log     *logrus.Logger
}

func NewMonitor(cfg Config) (*Monitor, error) {
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("%w: population size must be > 0", ErrInvalidConfig)
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("%w: generation count must be > 0", ErrInvalidConfig)
	}
	if cfg.EliteCount < 0 || cfg.EliteCount > cfg.PopulationSize {
		return nil, fmt.Errorf("%w: elite count must be in [0, population size]", ErrInvalidConfig)
	}
	if cfg.ChunkCount <= 0 {
		return nil, fmt.Errorf("%w: chunk count must be > 0", ErrInvalidConfig)
	}
	if len(cfg.Image) == 0 {
		return nil, fmt.Errorf("%w: image is empty", ErrInvalidConfig)
	}
	if cfg.InitialStd <= 0 {
		return nil, fmt.Errorf("%w: initial mutation std must be > 0", ErrInvalidConfig)
	}
	if cfg.DecayRate < 0 {
		return nil, fmt.Errorf("%w: decay rate must be >= 0", ErrInvalidConfig)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Selector == nil {
		cfg.Selector = TruncationSelector{}
	}
	if cfg.Strategy == nil {
		cfg.Strategy = fitness.Analytic{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
		cfg.Logger.SetOutput(io.Discard)
	}

	return &Monitor{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		mutator: NewGaussianMutator(cfg.InitialStd, cfg.DecayRate, uint64(cfg.Seed)),
		grid: &fitness.Grid{
			Strategy:   cfg.Strategy,
			ChunkCount: cfg.ChunkCount,
			Workers:    cfg.Workers,
		},
		log: cfg.Logger,
	}, nil
}

// SeedPopulation draws an initial population with both free parameters
// uniform in [-1, 1).
func (m *Monitor) SeedPopulation() []model.Genome {
	population := make([]model.Genome, m.cfg.PopulationSize)
	for i := range population {
		population[i] = model.Genome{
			I: m.rng.Float64()*2 - 1,
			X: m.rng.Float64()*2 - 1,
		}
	}
	return population
}

// Run executes the full generation loop. A nil initial population is seeded
// internally; otherwise its length must match the configured size. The
// population size stays constant across all generations.
func (m *Monitor) Run(ctx context.Context, initial []model.Genome) (Result, error) {
	if initial == nil {
		initial = m.SeedPopulation()
	}
	if len(initial) != m.cfg.PopulationSize {
		return Result{}, fmt.Errorf("%w: initial population mismatch: got=%d want=%d",
			ErrInvalidConfig, len(initial), m.cfg.PopulationSize)
	}

	population := make([]model.Genome, len(initial))
	copy(population, initial)

	best := ScoredGenome{Fitness: math.Inf(1)}
	bestGeneration := 0
	bestHistory := make([]float64, 0, m.cfg.Generations)
	diagnostics := make([]model.GenerationDiagnostics, 0, m.cfg.Generations)
	var scored []ScoredGenome

	for gen := 0; gen < m.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		start := time.Now()

		totals, err := m.grid.Evaluate(ctx, population, m.cfg.QE, m.cfg.Image)
		if err != nil {
			return Result{}, fmt.Errorf("generation %d: %w", gen, err)
		}

		scored = rank(population, totals)
		qualified := countQualified(scored)
		if qualified == 0 {
			return Result{}, fmt.Errorf("generation %d: %w", gen, ErrOptimizationFailed)
		}

		if scored[0].Fitness < best.Fitness {
			best = scored[0]
			bestGeneration = gen
		}
		bestHistory = append(bestHistory, best.Fitness)

		diag := summarize(scored, qualified, gen, m.mutator.Sigma(gen), time.Since(start))
		diagnostics = append(diagnostics, diag)
		m.log.WithFields(logrus.Fields{
			"generation":   diag.Generation,
			"best":         diag.BestFitness,
			"mean":         diag.MeanFitness,
			"disqualified": diag.Disqualified,
			"sigma":        diag.Sigma,
			"elapsed_ms":   diag.ElapsedMS,
		}).Info("generation complete")

		if gen == m.cfg.Generations-1 {
			break
		}
		population, err = m.nextGeneration(scored, qualified, gen)
		if err != nil {
			return Result{}, fmt.Errorf("generation %d: %w", gen, err)
		}
	}

	coeffs, err := m.cfg.Strategy.Resolve(best.Genome, m.cfg.QE)
	if err != nil {
		return Result{}, fmt.Errorf("resolve winning coefficients: %w", err)
	}

	return Result{
		Best:             best,
		BestCoefficients: coeffs,
		BestGeneration:   bestGeneration,
		BestByGeneration: bestHistory,
		Diagnostics:      diagnostics,
		FinalPopulation:  scored,
	}, nil
}

// nextGeneration copies the elite genomes unchanged and fills the remaining
// slots with mutated children of selected parents.
func (m *Monitor) nextGeneration(scored []ScoredGenome, qualified, gen int) ([]model.Genome, error) {
	next := make([]model.Genome, 0, m.cfg.PopulationSize)

	elites := m.cfg.EliteCount
	if elites > qualified {
		elites = qualified
	}
	for i := 0; i < elites; i++ {
		next = append(next, scored[i].Genome)
	}

	for len(next) < m.cfg.PopulationSize {
		parent, err := m.cfg.Selector.PickParent(m.rng, scored, qualified)
		if err != nil {
			return nil, fmt.Errorf("pick parent: %w", err)
		}
		next = append(next, m.mutator.Mutate(parent, gen))
	}
	return next, nil
}

// rank pairs genomes with their scores and orders them ascending. NaN and
// -Inf never enter the comparison: they are normalized to +Inf first, so
// disqualified genomes sort last under a total order.
func rank(population []model.Genome, totals []float64) []ScoredGenome {
	scored := make([]ScoredGenome, len(population))
	for i := range population {
		f := totals[i]
		if math.IsNaN(f) || math.IsInf(f, -1) {
			f = math.Inf(1)
		}
		scored[i] = ScoredGenome{Genome: population[i], Fitness: f}
	}
	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Fitness < scored[j].Fitness
	})
	return scored
}

func countQualified(scored []ScoredGenome) int {
	n := 0
	for _, s := range scored {
		if !math.IsInf(s.Fitness, 1) {
			n++
		}
	}
	return n
}

func summarize(scored []ScoredGenome, qualified, gen int, sigma float64, elapsed time.Duration) model.GenerationDiagnostics {
	total := 0.0
	for _, s := range scored[:qualified] {
		total += s.Fitness
	}
	return model.GenerationDiagnostics{
		Generation:   gen,
		BestFitness:  scored[0].Fitness,
		MeanFitness:  total / float64(qualified),
		WorstFitness: scored[qualified-1].Fitness,
		Disqualified: len(scored) - qualified,
		Sigma:        sigma,
		ElapsedMS:    elapsed.Milliseconds(),
	}
}
