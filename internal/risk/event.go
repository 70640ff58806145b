package risk

import (
	"github.com/siamhydro/floodwatch/internal/model"
)

// Event-level risk weights. These are fixed design constants, not tunables:
// downstream consumers compare scores across runs, so changing a weight is a
// breaking behavior change. The flood flag enters unnormalized ({0,1} already).
const (
	eventWaterWeight    = 0.42
	eventRainWeight     = 0.30
	eventFloodWeight    = 0.15
	eventHumidityWeight = 0.08
	eventTempWeight     = 0.05
)

// ScoreEvents computes the composite risk score for every sample in the batch.
// Normalization is across the whole batch, so a record's score is relative to
// the other events in the same run. Scores are clipped to [0,1] after the
// weighted sum.
func ScoreEvents(samples []model.RawSample) []model.EventRisk {
	if len(samples) == 0 {
		return nil
	}

	water := make([]float64, len(samples))
	rain := make([]float64, len(samples))
	humidity := make([]float64, len(samples))
	temp := make([]float64, len(samples))
	for i, s := range samples {
		water[i] = s.WaterLevelM
		rain[i] = s.RainfallMM
		humidity[i] = s.HumidityPct
		temp[i] = s.TempC
	}

	waterN := MinMax(water)
	rainN := MinMax(rain)
	humidityN := MinMax(humidity)
	tempN := MinMax(temp)

	out := make([]model.EventRisk, len(samples))
	for i, s := range samples {
		score := eventWaterWeight*orZero(waterN[i]) +
			eventRainWeight*orZero(rainN[i]) +
			eventFloodWeight*float64(s.FloodFlag) +
			eventHumidityWeight*orZero(humidityN[i]) +
			eventTempWeight*orZero(tempN[i])
		out[i] = model.EventRisk{
			RawSample: s,
			RiskScore: clip01(score),
		}
	}
	return out
}

// orZero treats a NaN signal (missing optional field) as contributing nothing.
func orZero(v float64) float64 {
	if v != v {
		return 0
	}
	return v
}
