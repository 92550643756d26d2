// Package duosplit exposes the public surface of the emission-line unmixing
// core: configure a run, drive the evolutionary search, and query the run
// archive.
package duosplit

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Seggan/duosplit/internal/calib"
	"github.com/Seggan/duosplit/internal/evo"
	"github.com/Seggan/duosplit/internal/fitness"
	"github.com/Seggan/duosplit/internal/model"
	"github.com/Seggan/duosplit/internal/storage"
)

const (
	defaultDBPath = "duosplit.db"

	// Beyond this condition number the two lines are blended nearly
	// identically and the recovered maps will be mostly amplified noise.
	conditionWarnThreshold = 1e3
)

// Defaults mirror the reference command-line tool.
const (
	DefaultPopulationSize = 100
	DefaultGenerations    = 250
	DefaultEliteCount     = 5
	DefaultInitialStd     = 0.5
	DefaultDecayRate      = 0.1
	DefaultChunkCount     = 64
)

type Options struct {
	// StoreKind selects the archive backend: "memory" (default) or "sqlite".
	StoreKind string
	DBPath    string
	Logger    *logrus.Logger
}

type Client struct {
	store storage.Store
	log   *logrus.Logger
}

// RunRequest carries the run parameters owned by external collaborators:
// the six QE scalars and the evolutionary-search knobs.
type RunRequest struct {
	RunID string
	QE    model.QEMatrix

	PopulationSize int
	Generations    int
	EliteCount     int
	ChunkCount     int
	Workers        int

	InitialStd float64
	DecayRate  float64
	Seed       int64
	Selection  string
}

// RunSummary is the terminal result of a run.
type RunSummary struct {
	RunID            string
	Best             model.Genome
	Coefficients     model.Coefficients
	BestFitness      float64
	BestGeneration   int
	BestByGeneration []float64
	Condition        float64
	Elapsed          time.Duration
}

func New(opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}

	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	return &Client{store: store, log: logger}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Run executes one full optimization over the image and archives the
// outcome. Invalid parameters fail before any parallel work starts.
func (c *Client) Run(ctx context.Context, req RunRequest, img model.Image) (RunSummary, error) {
	req = withDefaults(req)

	selector, err := evo.NewSelector(req.Selection)
	if err != nil {
		return RunSummary{}, err
	}

	condition := calib.Condition(req.QE)
	if condition > conditionWarnThreshold {
		c.log.WithField("condition", condition).
			Warn("quantum-efficiency matrix is poorly conditioned; expect noisy separation")
	}

	monitor, err := evo.NewMonitor(evo.Config{
		QE:             req.QE,
		Image:          img,
		PopulationSize: req.PopulationSize,
		Generations:    req.Generations,
		EliteCount:     req.EliteCount,
		ChunkCount:     req.ChunkCount,
		Workers:        req.Workers,
		InitialStd:     req.InitialStd,
		DecayRate:      req.DecayRate,
		Seed:           req.Seed,
		Selector:       selector,
		Strategy:       fitness.Analytic{},
		Logger:         c.log,
	})
	if err != nil {
		return RunSummary{}, err
	}

	started := time.Now()
	result, err := monitor.Run(ctx, nil)
	if err != nil {
		return RunSummary{}, err
	}
	elapsed := time.Since(started)

	if err := c.archive(ctx, req, img, result); err != nil {
		return RunSummary{}, fmt.Errorf("archive run %s: %w", req.RunID, err)
	}

	c.log.WithFields(logrus.Fields{
		"run_id":     req.RunID,
		"best":       result.Best.Fitness,
		"generation": result.BestGeneration,
		"elapsed":    elapsed,
	}).Info("run complete")

	return RunSummary{
		RunID:            req.RunID,
		Best:             result.Best.Genome,
		Coefficients:     result.BestCoefficients,
		BestFitness:      result.Best.Fitness,
		BestGeneration:   result.BestGeneration,
		BestByGeneration: result.BestByGeneration,
		Condition:        condition,
		Elapsed:          elapsed,
	}, nil
}

func (c *Client) archive(ctx context.Context, req RunRequest, img model.Image, result evo.Result) error {
	run := model.RunRecord{
		VersionedRecord: storage.Stamp(),
		RunID:           req.RunID,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339),
		PopulationSize:  req.PopulationSize,
		Generations:     req.Generations,
		EliteCount:      req.EliteCount,
		ChunkCount:      req.ChunkCount,
		Seed:            req.Seed,
		InitialStd:      req.InitialStd,
		DecayRate:       req.DecayRate,
		Selection:       req.Selection,
		QE:              req.QE,
		ImageLength:     len(img),
		BestFitness:     result.Best.Fitness,
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return err
	}
	if err := c.store.SaveFitnessHistory(ctx, req.RunID, result.BestByGeneration); err != nil {
		return err
	}
	if err := c.store.SaveDiagnostics(ctx, req.RunID, result.Diagnostics); err != nil {
		return err
	}
	return c.store.SaveBestGenome(ctx, model.BestGenomeRecord{
		VersionedRecord: storage.Stamp(),
		RunID:           req.RunID,
		Genome:          result.Best.Genome,
		Coefficients:    result.BestCoefficients,
		Fitness:         result.Best.Fitness,
	})
}

// Runs lists archived runs, newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]model.RunRecord, error) {
	return c.store.ListRuns(ctx, limit)
}

// FitnessHistory returns a run's best-so-far trajectory.
func (c *Client) FitnessHistory(ctx context.Context, runID string) ([]float64, error) {
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no fitness history for run %s", runID)
	}
	return history, nil
}

// Diagnostics returns a run's per-generation summaries.
func (c *Client) Diagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, error) {
	diagnostics, ok, err := c.store.GetDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no diagnostics for run %s", runID)
	}
	return diagnostics, nil
}

// Best returns a run's archived winning genome and coefficient set.
func (c *Client) Best(ctx context.Context, runID string) (model.BestGenomeRecord, error) {
	best, ok, err := c.store.GetBestGenome(ctx, runID)
	if err != nil {
		return model.BestGenomeRecord{}, err
	}
	if !ok {
		return model.BestGenomeRecord{}, fmt.Errorf("no best genome for run %s", runID)
	}
	return best, nil
}

// Split applies a run's archived winning coefficients to an image, producing
// the two recovered emission-line rasters.
func (c *Client) Split(ctx context.Context, runID string, img model.Image) (ha, oiii []float64, err error) {
	best, err := c.Best(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	ha, oiii = calib.Split(img, best.Coefficients)
	return ha, oiii, nil
}

func withDefaults(req RunRequest) RunRequest {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if req.PopulationSize == 0 {
		req.PopulationSize = DefaultPopulationSize
	}
	if req.Generations == 0 {
		req.Generations = DefaultGenerations
	}
	if req.EliteCount == 0 {
		req.EliteCount = DefaultEliteCount
	}
	if req.ChunkCount == 0 {
		req.ChunkCount = DefaultChunkCount
	}
	if req.Workers == 0 {
		req.Workers = runtime.NumCPU()
	}
	if req.InitialStd == 0 {
		req.InitialStd = DefaultInitialStd
	}
	if req.DecayRate == 0 {
		req.DecayRate = DefaultDecayRate
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}
	return req
}
