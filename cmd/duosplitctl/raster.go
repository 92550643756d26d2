package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/Seggan/duosplit/internal/model"
)

// readImage loads a flattened raster dump: one CSV record per pixel holding
// the R, G, B intensities. Raw-capture decoding belongs to the upstream
// tooling that produces these dumps.
func readImage(path string) (model.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s holds no pixels", path)
	}

	img := make(model.Image, len(records))
	for i, record := range records {
		var values [3]float64
		for j, field := range record {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: pixel %d channel %d: %w", path, i, j, err)
			}
			if value < 0 {
				return nil, fmt.Errorf("%s: pixel %d channel %d: negative intensity %v", path, i, j, value)
			}
			values[j] = value
		}
		img[i] = model.Pixel{R: values[0], G: values[1], B: values[2]}
	}
	return img, nil
}

// writeRaster dumps one recovered emission-line raster, one value per line.
func writeRaster(path string, values []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	for _, value := range values {
		if err := writer.Write([]string{strconv.FormatFloat(value, 'g', -1, 64)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
