package raster

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadGrid(t *testing.T) {
	g := testGrid(3, 2, func(x, y int) bool { return x == 0 })

	path := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, WriteGrid(g, path))

	got, err := ReadGrid(path)
	require.NoError(t, err)

	assert.Equal(t, g.Width, got.Width)
	assert.Equal(t, g.Height, got.Height)
	assert.Equal(t, g.OriginLon, got.OriginLon)
	assert.Equal(t, g.PixelHeight, got.PixelHeight)
	assert.Equal(t, g.Green, got.Green)
	assert.Equal(t, g.SWIR, got.SWIR)
	assert.Equal(t, g.Valid, got.Valid)
	assert.Equal(t, "scene.json", got.Source)
}

func writeHeader(t *testing.T, dir string, hdr map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(hdr)
	require.NoError(t, err)
	path := filepath.Join(dir, "scene.json")
	require.NoError(t, os.WriteFile(path, raw, 0644))
	return path
}

func TestReadGridMissingBands(t *testing.T) {
	dir := t.TempDir()
	path := writeHeader(t, dir, map[string]any{
		"width": 2, "height": 2,
		"bands": []string{"green"},
		"data":  "scene.bin",
	})

	_, err := ReadGrid(path)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"mask", "swir"}, schemaErr.Missing)
}

func TestReadGridInvalidDimensions(t *testing.T) {
	dir := t.TempDir()
	path := writeHeader(t, dir, map[string]any{
		"width": 0, "height": 2,
		"bands": []string{"green", "swir", "mask"},
		"data":  "scene.bin",
	})

	_, err := ReadGrid(path)
	assert.Error(t, err)
}

func TestReadGridTruncatedData(t *testing.T) {
	dir := t.TempDir()
	path := writeHeader(t, dir, map[string]any{
		"width": 2, "height": 2,
		"bands": []string{"green", "swir", "mask"},
		"data":  "scene.bin",
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.bin"), make([]byte, 7), 0644))

	_, err := ReadGrid(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bytes")
}

func TestReadGridMissingHeader(t *testing.T) {
	_, err := ReadGrid(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
