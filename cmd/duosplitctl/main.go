package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/Seggan/duosplit/internal/calib"
	"github.com/Seggan/duosplit/internal/model"
	"github.com/Seggan/duosplit/pkg/duosplit"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "best":
		return runBest(ctx, args[1:])
	case "split":
		return runSplit(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(message string) error {
	return fmt.Errorf("%s\nusage: duosplitctl <run|runs|fitness|diagnostics|best|split> [flags]", message)
}

func newLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func newClient(cfg Config, logger *logrus.Logger) (*duosplit.Client, error) {
	return duosplit.New(duosplit.Options{
		StoreKind: cfg.Store,
		DBPath:    cfg.DBPath,
		Logger:    logger,
	})
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to TOML run configuration")
	input := fs.String("input", "", "path to flattened RGB pixel CSV")
	output := fs.String("output", ".", "output directory for the recovered rasters")
	runID := fs.String("run-id", "", "run identifier (generated when empty)")
	population := fs.Int("population", 0, "population size")
	generations := fs.Int("generations", 0, "generation count")
	elitism := fs.Int("elitism", 0, "elite individuals carried over per generation")
	chunks := fs.Int("chunks", 0, "image chunks per fitness batch")
	workers := fs.Int("workers", 0, "parallel evaluator workers")
	initialStd := fs.Float64("initial-std", 0, "initial mutation standard deviation")
	decayRate := fs.Float64("decay-rate", 0, "mutation standard deviation decay rate")
	seed := fs.Int64("seed", 0, "random seed (time-based when zero)")
	selection := fs.String("selection", "", "selection policy: truncation or tournament")
	camera := fs.String("camera", "", "camera preset name from the configuration")
	qrh := fs.Float64("qrh", 0, "red channel QE at the hydrogen-alpha wavelength (656.3 nm)")
	qgh := fs.Float64("qgh", 0, "green channel QE at the hydrogen-alpha wavelength (656.3 nm)")
	qbh := fs.Float64("qbh", 0, "blue channel QE at the hydrogen-alpha wavelength (656.3 nm)")
	qro := fs.Float64("qro", 0, "red channel QE at the OIII wavelength (500.7 nm)")
	qgo := fs.Float64("qgo", 0, "green channel QE at the OIII wavelength (500.7 nm)")
	qbo := fs.Float64("qbo", 0, "blue channel QE at the OIII wavelength (500.7 nm)")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return usageError("run: -input is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *camera != "" {
		cfg.Camera = *camera
	}

	qe, err := resolveRunQE(cfg, [6]float64{*qrh, *qgh, *qbh, *qro, *qgo, *qbo})
	if err != nil {
		return err
	}

	req := duosplit.RunRequest{
		RunID:          *runID,
		QE:             qe,
		PopulationSize: firstInt(*population, cfg.PopulationSize),
		Generations:    firstInt(*generations, cfg.Generations),
		EliteCount:     firstInt(*elitism, cfg.EliteCount),
		ChunkCount:     firstInt(*chunks, cfg.ChunkCount),
		Workers:        firstInt(*workers, cfg.Workers),
		InitialStd:     firstFloat(*initialStd, cfg.InitialStd),
		DecayRate:      firstFloat(*decayRate, cfg.DecayRate),
		Seed:           firstInt64(*seed, cfg.Seed),
		Selection:      firstString(*selection, cfg.Selection),
	}

	logger := newLogger(*verbose)
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	img, err := readImage(*input)
	if err != nil {
		return err
	}

	summary, err := client.Run(ctx, req, img)
	if err != nil {
		return err
	}

	fmt.Printf("run %s finished in %s\n", summary.RunID, summary.Elapsed.Round(0))
	fmt.Printf("best fitness %.6g (generation %d)\n", summary.BestFitness, summary.BestGeneration)
	printCoefficients(summary.Coefficients)

	return writeRasters(*output, img, summary.Coefficients)
}

// resolveRunQE prefers a complete set of the six QE flags over the
// configuration file.
func resolveRunQE(cfg Config, flags [6]float64) (model.QEMatrix, error) {
	any, all := false, true
	for _, value := range flags {
		if value != 0 {
			any = true
		} else {
			all = false
		}
	}
	if any && !all {
		return model.QEMatrix{}, fmt.Errorf("partial QE flags; provide all of -qrh -qgh -qbh -qro -qgo -qbo")
	}
	if all {
		return model.QEMatrix{
			Red:   model.QuantumEfficiency{Ha: flags[0], OIII: flags[3]},
			Green: model.QuantumEfficiency{Ha: flags[1], OIII: flags[4]},
			Blue:  model.QuantumEfficiency{Ha: flags[2], OIII: flags[5]},
		}, nil
	}
	return cfg.resolveQE()
}

func writeRasters(dir string, img model.Image, coeffs model.Coefficients) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	ha, oiii := calib.Split(img, coeffs)
	if err := writeRaster(filepath.Join(dir, "ha.csv"), ha); err != nil {
		return err
	}
	return writeRaster(filepath.Join(dir, "oiii.csv"), oiii)
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to TOML run configuration")
	limit := fs.Int("limit", 10, "maximum runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, newLogger(false))
	if err != nil {
		return err
	}
	defer client.Close()

	runs, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no archived runs")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("%s  %s  pop=%d gens=%d pixels=%d best=%.6g\n",
			run.RunID, run.CreatedAtUTC, run.PopulationSize, run.Generations,
			run.ImageLength, run.BestFitness)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to TOML run configuration")
	runID := fs.String("run-id", "", "run identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("fitness: -run-id is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, newLogger(false))
	if err != nil {
		return err
	}
	defer client.Close()

	history, err := client.FitnessHistory(ctx, *runID)
	if err != nil {
		return err
	}
	for generation, best := range history {
		fmt.Printf("%d\t%.9g\n", generation, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to TOML run configuration")
	runID := fs.String("run-id", "", "run identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("diagnostics: -run-id is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, newLogger(false))
	if err != nil {
		return err
	}
	defer client.Close()

	diagnostics, err := client.Diagnostics(ctx, *runID)
	if err != nil {
		return err
	}
	for _, diag := range diagnostics {
		fmt.Printf("gen=%d best=%.6g mean=%.6g worst=%.6g disqualified=%d sigma=%.4g elapsed=%dms\n",
			diag.Generation, diag.BestFitness, diag.MeanFitness, diag.WorstFitness,
			diag.Disqualified, diag.Sigma, diag.ElapsedMS)
	}
	return nil
}

func runBest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("best", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to TOML run configuration")
	runID := fs.String("run-id", "", "run identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("best: -run-id is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, newLogger(false))
	if err != nil {
		return err
	}
	defer client.Close()

	best, err := client.Best(ctx, *runID)
	if err != nil {
		return err
	}
	fmt.Printf("genome i=%.9g x=%.9g (origin generation %d)\n",
		best.Genome.I, best.Genome.X, best.Genome.Origin)
	fmt.Printf("fitness %.9g\n", best.Fitness)
	printCoefficients(best.Coefficients)
	return nil
}

func runSplit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to TOML run configuration")
	runID := fs.String("run-id", "", "run identifier")
	input := fs.String("input", "", "path to flattened RGB pixel CSV")
	output := fs.String("output", ".", "output directory for the recovered rasters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" || *input == "" {
		return usageError("split: -run-id and -input are required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, newLogger(false))
	if err != nil {
		return err
	}
	defer client.Close()

	img, err := readImage(*input)
	if err != nil {
		return err
	}
	best, err := client.Best(ctx, *runID)
	if err != nil {
		return err
	}
	return writeRasters(*output, img, best.Coefficients)
}

func printCoefficients(c model.Coefficients) {
	fmt.Printf("Ha   = %.9g*R + %.9g*G + %.9g*B\n", c.I, c.J, c.K)
	fmt.Printf("OIII = %.9g*R + %.9g*G + %.9g*B\n", c.X, c.Y, c.Z)
}

func firstInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstInt64(values ...int64) int64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstFloat(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
