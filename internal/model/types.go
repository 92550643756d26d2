package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Genome is a candidate unmixing solution. Only the two free parameters are
// carried; the four dependent coefficients are derived analytically from the
// quantum-efficiency matrix. Origin records the generation that produced the
// genome; reproduction always builds new values, never mutates in place.
type Genome struct {
	I      float64 `json:"i"`
	X      float64 `json:"x"`
	Origin int     `json:"origin"`
}

// Coefficients is a full unmixing transform: line1 = I·R + J·G + K·B and
// line2 = X·R + Y·G + Z·B per pixel.
type Coefficients struct {
	I float64 `json:"i"`
	J float64 `json:"j"`
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Apply unmixes a single pixel into its two emission-line intensities.
func (c Coefficients) Apply(p Pixel) (line1, line2 float64) {
	line1 = c.I*p.R + c.J*p.G + c.K*p.B
	line2 = c.X*p.R + c.Y*p.G + c.Z*p.B
	return line1, line2
}

// Pixel is one RGB sample with non-negative intensities.
type Pixel struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Image is a raster flattened to an ordered pixel sequence. It is read-only
// for the duration of a run and safe to share across evaluator workers.
type Image []Pixel

// QuantumEfficiency holds one sensor channel's sensitivity to each of the two
// emission lines.
type QuantumEfficiency struct {
	Ha   float64 `json:"ha" toml:"ha"`
	OIII float64 `json:"oiii" toml:"oiii"`
}

// LineResponse holds one emission line's quantum efficiency across the three
// sensor channels.
type LineResponse struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// QEMatrix is the full six-scalar quantum-efficiency matrix, arranged per
// channel the way the capture hardware reports it. Immutable input.
type QEMatrix struct {
	Red   QuantumEfficiency `json:"red" toml:"red"`
	Green QuantumEfficiency `json:"green" toml:"green"`
	Blue  QuantumEfficiency `json:"blue" toml:"blue"`
}

// HaResponse returns the hydrogen-alpha row of the matrix.
func (m QEMatrix) HaResponse() LineResponse {
	return LineResponse{R: m.Red.Ha, G: m.Green.Ha, B: m.Blue.Ha}
}

// OIIIResponse returns the doubly-ionized-oxygen row of the matrix.
func (m QEMatrix) OIIIResponse() LineResponse {
	return LineResponse{R: m.Red.OIII, G: m.Green.OIII, B: m.Blue.OIII}
}

// Camera is a named quantum-efficiency preset.
type Camera struct {
	Name string   `json:"name" toml:"name"`
	QE   QEMatrix `json:"qe" toml:"qe"`
}

// GenerationDiagnostics summarizes one generation of the optimizer for
// logging and persistence.
type GenerationDiagnostics struct {
	Generation   int     `json:"generation"`
	BestFitness  float64 `json:"best_fitness"`
	MeanFitness  float64 `json:"mean_fitness"`
	WorstFitness float64 `json:"worst_fitness"`
	Disqualified int     `json:"disqualified"`
	Sigma        float64 `json:"sigma"`
	ElapsedMS    int64   `json:"elapsed_ms"`
}

// RunRecord is the persisted description of one optimization run.
type RunRecord struct {
	VersionedRecord
	RunID          string   `json:"run_id"`
	CreatedAtUTC   string   `json:"created_at_utc"`
	PopulationSize int      `json:"population_size"`
	Generations    int      `json:"generations"`
	EliteCount     int      `json:"elite_count"`
	ChunkCount     int      `json:"chunk_count"`
	Seed           int64    `json:"seed"`
	InitialStd     float64  `json:"initial_std"`
	DecayRate      float64  `json:"decay_rate"`
	Selection      string   `json:"selection"`
	QE             QEMatrix `json:"qe"`
	ImageLength    int      `json:"image_length"`
	BestFitness    float64  `json:"best_fitness"`
}

// BestGenomeRecord is the persisted terminal result of a run: the winning
// genome, its derived coefficient set, and its fitness.
type BestGenomeRecord struct {
	VersionedRecord
	RunID        string       `json:"run_id"`
	Genome       Genome       `json:"genome"`
	Coefficients Coefficients `json:"coefficients"`
	Fitness      float64      `json:"fitness"`
}
