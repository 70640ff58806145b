package risk

import (
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/siamhydro/floodwatch/internal/model"
)

// Region-level risk weights. Note these differ from the event-level weights:
// region risk is scored relative to the other regions in the current run, with
// the observed flood rate taking the place of the per-event flood flag.
const (
	regionWaterWeight    = 0.40
	regionRainWeight     = 0.30
	regionFloodWeight    = 0.20
	regionHumidityWeight = 0.10
)

// Locator resolves a province name to centroid coordinates. Unknown provinces
// must be reported via ok=false, never substituted with default coordinates.
type Locator interface {
	Locate(province string) (lon, lat float64, ok bool)
}

// Aggregate groups samples by province and produces one RegionSummary per
// province that has at least minSamples rows. Provinces below the threshold
// are excluded entirely. Provinces with no known centroid are dropped after
// scoring; the dropped count is returned so callers can surface it.
// DetectedAt is stamped once from clock for all summaries in the run.
func Aggregate(samples []model.RawSample, minSamples int, source string, loc Locator, clock clockwork.Clock) ([]model.RegionSummary, int) {
	groups := make(map[string][]model.RawSample)
	for _, s := range samples {
		groups[s.Province] = append(groups[s.Province], s)
	}

	var kept []model.RegionSummary
	for province, rows := range groups {
		if len(rows) < minSamples {
			continue
		}

		summary := model.RegionSummary{
			Province:      province,
			SampleCount:   len(rows),
			SourceDataset: source,
			EventStart:    rows[0].Timestamp,
			EventEnd:      rows[0].Timestamp,
		}

		rain := make([]float64, len(rows))
		water := make([]float64, len(rows))
		temp := make([]float64, len(rows))
		humidity := make([]float64, len(rows))
		for i, r := range rows {
			rain[i] = r.RainfallMM
			water[i] = r.WaterLevelM
			temp[i] = r.TempC
			humidity[i] = r.HumidityPct
			summary.FloodEvents += r.FloodFlag
			if r.Timestamp.Before(summary.EventStart) {
				summary.EventStart = r.Timestamp
			}
			if r.Timestamp.After(summary.EventEnd) {
				summary.EventEnd = r.Timestamp
			}
		}
		summary.RainfallMMMean = nanMean(rain)
		summary.WaterLevelMMean = nanMean(water)
		summary.TempCMean = nanMean(temp)
		summary.HumidityPctMean = nanMean(humidity)
		summary.FloodRate = float64(summary.FloodEvents) / float64(summary.SampleCount)

		kept = append(kept, summary)
	}

	if len(kept) == 0 {
		return nil, 0
	}

	// Deterministic ordering before cross-region normalization and output.
	sort.Slice(kept, func(i, j int) bool { return kept[i].Province < kept[j].Province })

	scoreRegions(kept)

	detectedAt := clock.Now().UTC()
	out := kept[:0]
	unresolved := 0
	for _, s := range kept {
		lon, lat, ok := loc.Locate(s.Province)
		if !ok {
			unresolved++
			zap.L().Warn("risk: dropping region with unknown centroid",
				zap.String("province", s.Province),
				zap.Int("sample_count", s.SampleCount),
			)
			continue
		}
		s.Lon, s.Lat = lon, lat
		s.DetectedAt = detectedAt
		out = append(out, s)
	}
	return out, unresolved
}

// scoreRegions fills RiskScore in place. Normalization is across the regions
// that survived the sample-count filter, so scores are relative to the run.
func scoreRegions(regions []model.RegionSummary) {
	rain := make([]float64, len(regions))
	water := make([]float64, len(regions))
	humidity := make([]float64, len(regions))
	for i, r := range regions {
		rain[i] = r.RainfallMMMean
		water[i] = r.WaterLevelMMean
		humidity[i] = r.HumidityPctMean
	}
	rainN := MinMax(rain)
	waterN := MinMax(water)
	humidityN := MinMax(humidity)

	for i := range regions {
		score := regionWaterWeight*orZero(waterN[i]) +
			regionRainWeight*orZero(rainN[i]) +
			regionFloodWeight*regions[i].FloodRate +
			regionHumidityWeight*orZero(humidityN[i])
		regions[i].RiskScore = clip01(score)
	}
}

// Window reports the closed date interval covered by a set of samples.
func Window(samples []model.RawSample) (start, end time.Time) {
	if len(samples) == 0 {
		return time.Time{}, time.Time{}
	}
	start, end = samples[0].Timestamp, samples[0].Timestamp
	for _, s := range samples[1:] {
		if s.Timestamp.Before(start) {
			start = s.Timestamp
		}
		if s.Timestamp.After(end) {
			end = s.Timestamp
		}
	}
	return start, end
}
