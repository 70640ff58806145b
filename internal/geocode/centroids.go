// Package geocode maps province names to fixed centroid coordinates and
// provides deterministic jitter for dense point-cloud rendering.
package geocode

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed centroids.yaml
var centroidsYAML []byte

// Point is a WGS84 coordinate pair.
type Point struct {
	Lon float64 `yaml:"lon" json:"lon"`
	Lat float64 `yaml:"lat" json:"lat"`
}

// Table is an immutable province → centroid lookup. Lookups tolerate case and
// surrounding whitespace; unknown provinces are reported, never defaulted.
type Table struct {
	centroids map[string]Point
	caser     cases.Caser
}

// LoadTable parses the embedded centroid reference data. Call once at startup.
func LoadTable() (*Table, error) {
	var raw map[string]Point
	if err := yaml.Unmarshal(centroidsYAML, &raw); err != nil {
		return nil, eris.Wrap(err, "geocode: parse centroid table")
	}
	t := &Table{
		centroids: make(map[string]Point, len(raw)),
		caser:     cases.Title(language.Und),
	}
	for name, p := range raw {
		t.centroids[t.canonical(name)] = p
	}
	return t, nil
}

// Locate resolves a province name to its centroid. ok is false for unknown
// names; callers must drop the record rather than substitute a default.
func (t *Table) Locate(province string) (lon, lat float64, ok bool) {
	p, ok := t.centroids[t.canonical(province)]
	return p.Lon, p.Lat, ok
}

// Provinces returns the known province names in no particular order.
func (t *Table) Provinces() []string {
	names := make([]string, 0, len(t.centroids))
	for name := range t.centroids {
		names = append(names, name)
	}
	return names
}

func (t *Table) canonical(name string) string {
	return t.caser.String(strings.ToLower(strings.TrimSpace(name)))
}
