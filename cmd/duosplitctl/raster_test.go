package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seggan/duosplit/internal/model"
)

func writeTempCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pixels.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadImage(t *testing.T) {
	path := writeTempCSV(t, "1.5,2,3\n0,0.25,10\n")

	img, err := readImage(path)
	require.NoError(t, err)
	require.Len(t, img, 2)
	assert.Equal(t, model.Pixel{R: 1.5, G: 2, B: 3}, img[0])
	assert.Equal(t, model.Pixel{R: 0, G: 0.25, B: 10}, img[1])
}

func TestReadImageRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"empty":             "",
		"wrong field count": "1,2\n",
		"non-numeric":       "1,two,3\n",
		"negative":          "1,-2,3\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := readImage(writeTempCSV(t, body))
			assert.Error(t, err)
		})
	}
}

func TestReadImageMissingFile(t *testing.T) {
	_, err := readImage(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestWriteRaster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ha.csv")
	require.NoError(t, writeRaster(path, []float64{1.25, 0, -3.5}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Equal(t, []string{"1.25", "0", "-3.5"}, lines)
}

func TestWriteRasters(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	img := model.Image{{R: 2, G: 3, B: 5}, {R: 1, G: 1, B: 1}}
	coeffs := model.Coefficients{I: 1, Y: 1}

	require.NoError(t, writeRasters(dir, img, coeffs))

	ha, err := os.ReadFile(filepath.Join(dir, "ha.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"},
		strings.Split(strings.TrimSpace(string(ha)), "\n"))

	oiii, err := os.ReadFile(filepath.Join(dir, "oiii.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1"},
		strings.Split(strings.TrimSpace(string(oiii)), "\n"))
}
