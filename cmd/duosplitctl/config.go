package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/Seggan/duosplit/internal/model"
)

// Config is the TOML run-parameter file. Every field can be overridden by a
// command-line flag; the QE matrix can come from an inline [qe] table or a
// named camera preset.
type Config struct {
	Store  string `toml:"store"`
	DBPath string `toml:"db_path"`

	PopulationSize int     `toml:"population_size"`
	Generations    int     `toml:"generations"`
	EliteCount     int     `toml:"elite_count"`
	ChunkCount     int     `toml:"chunk_count"`
	Workers        int     `toml:"workers"`
	InitialStd     float64 `toml:"initial_std"`
	DecayRate      float64 `toml:"decay_rate"`
	Seed           int64   `toml:"seed"`
	Selection      string  `toml:"selection"`

	Camera  string         `toml:"camera"`
	QE      model.QEMatrix `toml:"qe"`
	Cameras []model.Camera `toml:"cameras"`
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// resolveQE picks the matrix to use: a named camera preset wins over the
// inline table.
func (c Config) resolveQE() (model.QEMatrix, error) {
	if c.Camera != "" {
		for _, camera := range c.Cameras {
			if camera.Name == c.Camera {
				return camera.QE, nil
			}
		}
		return model.QEMatrix{}, fmt.Errorf("unknown camera preset: %s", c.Camera)
	}
	if zeroQE(c.QE) {
		return model.QEMatrix{}, fmt.Errorf("no quantum efficiencies configured; set [qe] or a camera preset")
	}
	return c.QE, nil
}

func zeroQE(qe model.QEMatrix) bool {
	return qe == model.QEMatrix{}
}
