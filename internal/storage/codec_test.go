package storage

import (
	"errors"
	"testing"

	"github.com/Seggan/duosplit/internal/model"
)

func TestRunRecordRoundTrip(t *testing.T) {
	run := model.RunRecord{
		VersionedRecord: Stamp(),
		RunID:           "run-1",
		CreatedAtUTC:    "2026-01-02T03:04:05Z",
		PopulationSize:  100,
		Generations:     250,
		EliteCount:      5,
		ChunkCount:      64,
		Seed:            42,
		InitialStd:      0.5,
		DecayRate:       0.1,
		Selection:       "truncation",
		QE: model.QEMatrix{
			Red:   model.QuantumEfficiency{Ha: 0.82, OIII: 0.11},
			Green: model.QuantumEfficiency{Ha: 0.18, OIII: 0.74},
			Blue:  model.QuantumEfficiency{Ha: 0.05, OIII: 0.31},
		},
		ImageLength: 4096,
		BestFitness: 12.5,
	}

	payload, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeRun(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != run {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, run)
	}
}

func TestBestGenomeRecordRoundTrip(t *testing.T) {
	best := model.BestGenomeRecord{
		VersionedRecord: Stamp(),
		RunID:           "run-1",
		Genome:          model.Genome{I: 0.9, X: -0.2, Origin: 17},
		Coefficients:    model.Coefficients{I: 0.9, J: 0.1, K: -0.3, X: -0.2, Y: 1.4, Z: 0.2},
		Fitness:         3.25,
	}

	payload, err := EncodeBestGenome(best)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeBestGenome(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != best {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, best)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	run := model.RunRecord{RunID: "run-1"}
	run.SchemaVersion = CurrentSchemaVersion + 1
	run.CodecVersion = CurrentCodecVersion

	payload, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRun(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}
