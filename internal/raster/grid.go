// Package raster extracts surface-water polygons from two-band reflectance
// rasters via a spectral water index.
package raster

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Band names required in a grid header.
var requiredBands = []string{"green", "swir", "mask"}

// SchemaError reports required bands missing from a raster header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("raster: missing required bands: %s", strings.Join(e.Missing, ", "))
}

// Grid is a georeferenced, north-up, EPSG:4326 raster with three co-registered
// float32 bands: green reflectance, SWIR reflectance, and a validity mask.
// Bands are row-major with the first row at the northern edge.
type Grid struct {
	Width  int
	Height int

	// Affine georeferencing: the (lon, lat) of the top-left corner and the
	// signed pixel size in degrees. PixelHeight is negative for north-up.
	OriginLon   float64
	OriginLat   float64
	PixelWidth  float64
	PixelHeight float64

	Green []float32
	SWIR  []float32
	Valid []float32

	Source string
}

// gridHeader is the JSON sidecar describing a band-sequential data file.
// GeoTIFF decoding is out of scope for the acquisition boundary; upstream
// download jobs write this flat format instead.
type gridHeader struct {
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	OriginLon   float64  `json:"origin_lon"`
	OriginLat   float64  `json:"origin_lat"`
	PixelWidth  float64  `json:"pixel_width"`
	PixelHeight float64  `json:"pixel_height"`
	Bands       []string `json:"bands"`
	Data        string   `json:"data"`
}

// ReadGrid loads a grid from its JSON header. The data file is float32
// little-endian, band-sequential, in header band order, resolved relative to
// the header's directory.
func ReadGrid(headerPath string) (*Grid, error) {
	raw, err := os.ReadFile(headerPath)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: read header %s", headerPath)
	}
	var hdr gridHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return nil, eris.Wrapf(err, "raster: parse header %s", headerPath)
	}
	if hdr.Width <= 0 || hdr.Height <= 0 {
		return nil, eris.Errorf("raster: invalid dimensions %dx%d in %s", hdr.Width, hdr.Height, headerPath)
	}

	bandOrder := make(map[string]int, len(hdr.Bands))
	for i, name := range hdr.Bands {
		bandOrder[strings.ToLower(name)] = i
	}
	var missing []string
	for _, name := range requiredBands {
		if _, ok := bandOrder[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &SchemaError{Missing: missing}
	}

	dataPath := hdr.Data
	if !filepath.IsAbs(dataPath) {
		dataPath = filepath.Join(filepath.Dir(headerPath), dataPath)
	}
	data, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: read data %s", dataPath)
	}

	pixels := hdr.Width * hdr.Height
	want := pixels * len(hdr.Bands) * 4
	if len(data) != want {
		return nil, eris.Errorf("raster: %s is %d bytes, want %d", dataPath, len(data), want)
	}

	g := &Grid{
		Width:       hdr.Width,
		Height:      hdr.Height,
		OriginLon:   hdr.OriginLon,
		OriginLat:   hdr.OriginLat,
		PixelWidth:  hdr.PixelWidth,
		PixelHeight: hdr.PixelHeight,
		Green:       decodeBand(data, bandOrder["green"], pixels),
		SWIR:        decodeBand(data, bandOrder["swir"], pixels),
		Valid:       decodeBand(data, bandOrder["mask"], pixels),
		Source:      filepath.Base(headerPath),
	}
	return g, nil
}

// WriteGrid writes a grid as a JSON header plus band-sequential data file.
func WriteGrid(g *Grid, headerPath string) error {
	dataName := strings.TrimSuffix(filepath.Base(headerPath), filepath.Ext(headerPath)) + ".bin"
	hdr := gridHeader{
		Width:       g.Width,
		Height:      g.Height,
		OriginLon:   g.OriginLon,
		OriginLat:   g.OriginLat,
		PixelWidth:  g.PixelWidth,
		PixelHeight: g.PixelHeight,
		Bands:       requiredBands,
		Data:        dataName,
	}

	raw, err := json.MarshalIndent(hdr, "", "  ")
	if err != nil {
		return eris.Wrap(err, "raster: marshal header")
	}
	if err := os.WriteFile(headerPath, raw, 0o644); err != nil {
		return eris.Wrapf(err, "raster: write header %s", headerPath)
	}

	pixels := g.Width * g.Height
	data := make([]byte, 0, pixels*3*4)
	for _, band := range [][]float32{g.Green, g.SWIR, g.Valid} {
		for _, v := range band {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
		}
	}
	dataPath := filepath.Join(filepath.Dir(headerPath), dataName)
	if err := os.WriteFile(dataPath, data, 0o644); err != nil {
		return eris.Wrapf(err, "raster: write data %s", dataPath)
	}
	return nil
}

func decodeBand(data []byte, index, pixels int) []float32 {
	band := make([]float32, pixels)
	off := index * pixels * 4
	for i := range band {
		bits := binary.LittleEndian.Uint32(data[off+i*4:])
		band[i] = math.Float32frombits(bits)
	}
	return band
}

// vertexLonLat converts a grid vertex (corner coordinate, not pixel center)
// to geographic coordinates.
func (g *Grid) vertexLonLat(col, row float64) (lon, lat float64) {
	return g.OriginLon + col*g.PixelWidth, g.OriginLat + row*g.PixelHeight
}
