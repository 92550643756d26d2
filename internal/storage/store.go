package storage

import (
	"context"

	"github.com/Seggan/duosplit/internal/model"
)

// Store defines persistence operations for the run archive: run metadata,
// per-generation fitness history and diagnostics, and the winning genome.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, runID string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
	SaveBestGenome(ctx context.Context, best model.BestGenomeRecord) error
	GetBestGenome(ctx context.Context, runID string) (model.BestGenomeRecord, bool, error)
}
