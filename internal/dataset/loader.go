// Package dataset loads and validates raw flood observation tables.
package dataset

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/siamhydro/floodwatch/internal/model"
)

// requiredColumns must all be present in the source header.
var requiredColumns = []string{
	"date",
	"province",
	"rainfall_mm",
	"water_level_m",
	"temperature_c",
	"humidity_percent",
	"is_flood",
}

// fallbackWindowDays is the trailing window substituted when the requested
// range matches nothing: the 7 days ending at the newest date in the dataset.
const fallbackWindowDays = 7

// SchemaError reports required columns missing from the source header. It is
// fatal: no rows are processed when the schema is invalid.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset: missing required columns: %s", strings.Join(e.Missing, ", "))
}

// LoadResult carries the filtered samples and the effective window, which
// differs from the requested window when the fallback kicked in.
type LoadResult struct {
	Samples        []model.RawSample
	EffectiveStart time.Time
	EffectiveEnd   time.Time
	Dropped        int // rows discarded during coercion
}

// Load reads a tabular dataset (CSV or XLSX by extension), validates the
// schema, coerces row values, and filters to the closed interval
// [start, end] by date. Rows whose timestamp, province, rainfall, water level,
// or flood flag cannot be coerced are dropped; temperature and humidity are
// optional per row and become NaN when absent. If the requested window yields
// zero rows but the dataset is non-empty, the window falls back to the
// trailing 7 days ending at the newest available date.
func Load(path string, start, end time.Time) (*LoadResult, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSX(path)
	default:
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("dataset: %s is empty", path)
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	all := make([]model.RawSample, 0, len(rows)-1)
	dropped := 0
	for _, row := range rows[1:] {
		sample, ok := coerceRow(row, cols)
		if !ok {
			dropped++
			continue
		}
		all = append(all, sample)
	}
	if dropped > 0 {
		zap.L().Info("dataset: dropped rows during coercion",
			zap.String("path", path),
			zap.Int("dropped", dropped),
		)
	}

	result := &LoadResult{
		EffectiveStart: dateOnly(start),
		EffectiveEnd:   dateOnly(end),
		Dropped:        dropped,
	}
	result.Samples = filterWindow(all, result.EffectiveStart, result.EffectiveEnd)

	if len(result.Samples) == 0 && len(all) > 0 {
		latest := all[0].Timestamp
		for _, s := range all[1:] {
			if s.Timestamp.After(latest) {
				latest = s.Timestamp
			}
		}
		result.EffectiveEnd = dateOnly(latest)
		result.EffectiveStart = result.EffectiveEnd.AddDate(0, 0, -(fallbackWindowDays - 1))
		result.Samples = filterWindow(all, result.EffectiveStart, result.EffectiveEnd)
		zap.L().Info("dataset: requested window empty, using trailing fallback",
			zap.Time("effective_start", result.EffectiveStart),
			zap.Time("effective_end", result.EffectiveEnd),
		)
	}

	return result, nil
}

// headerIndex maps required column names to positions, or returns a
// SchemaError naming everything that is absent.
func headerIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &SchemaError{Missing: missing}
	}
	return cols, nil
}

// coerceRow converts one raw row into a RawSample. ok is false when a
// required field fails coercion; such rows are dropped, not fatal.
func coerceRow(row []string, cols map[string]int) (model.RawSample, bool) {
	var s model.RawSample

	ts, err := parseDate(cell(row, cols["date"]))
	if err != nil {
		return s, false
	}
	s.Timestamp = ts

	s.Province = strings.TrimSpace(cell(row, cols["province"]))
	if s.Province == "" {
		return s, false
	}

	if s.RainfallMM, err = strconv.ParseFloat(strings.TrimSpace(cell(row, cols["rainfall_mm"])), 64); err != nil {
		return s, false
	}
	if s.WaterLevelM, err = strconv.ParseFloat(strings.TrimSpace(cell(row, cols["water_level_m"])), 64); err != nil {
		return s, false
	}

	flag, err := strconv.ParseFloat(strings.TrimSpace(cell(row, cols["is_flood"])), 64)
	if err != nil {
		return s, false
	}
	s.FloodFlag = clampFlag(int(flag))

	// Optional signals: missing values become NaN and are skipped by the
	// normalizer and the aggregate means.
	s.TempC = parseOptional(cell(row, cols["temperature_c"]))
	s.HumidityPct = parseOptional(cell(row, cols["humidity_percent"]))

	return s, true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func parseOptional(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func clampFlag(v int) int {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, eris.Errorf("dataset: unparseable date %q", raw)
}

// dateOnly truncates a timestamp to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// filterWindow keeps samples whose date lies in the closed interval [start, end].
func filterWindow(samples []model.RawSample, start, end time.Time) []model.RawSample {
	var out []model.RawSample
	for _, s := range samples {
		d := dateOnly(s.Timestamp)
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, s)
	}
	return out
}
