package risk

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siamhydro/floodwatch/internal/model"
)

func sample(province string, rain, water, temp, humidity float64, flag int) model.RawSample {
	return model.RawSample{
		Timestamp:   time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Province:    province,
		RainfallMM:  rain,
		WaterLevelM: water,
		TempC:       temp,
		HumidityPct: humidity,
		FloodFlag:   flag,
	}
}

func TestScoreEventsWeights(t *testing.T) {
	// Two-sample batch: after min-max the second sample holds the maximum of
	// every signal, so its score is exactly the sum of the weights.
	samples := []model.RawSample{
		sample("Bangkok", 0, 0, 20, 40, 0),
		sample("Bangkok", 100, 5, 35, 90, 1),
	}

	got := ScoreEvents(samples)
	require.Len(t, got, 2)

	assert.InDelta(t, 0.0, got[0].RiskScore, 1e-12)
	assert.InDelta(t, 0.42+0.30+0.15+0.08+0.05, got[1].RiskScore, 1e-12)
}

func TestScoreEventsFloodFlagContribution(t *testing.T) {
	// Identical signals except the flag: the score difference is the flag weight.
	samples := []model.RawSample{
		sample("Bangkok", 50, 2, 30, 70, 0),
		sample("Bangkok", 50, 2, 30, 70, 1),
		sample("Bangkok", 80, 3, 31, 75, 0),
	}

	got := ScoreEvents(samples)
	require.Len(t, got, 3)
	assert.InDelta(t, 0.15, got[1].RiskScore-got[0].RiskScore, 1e-12)
}

func TestScoreEventsConstantBatch(t *testing.T) {
	// A degenerate batch normalizes every signal to zero; only the flag remains.
	samples := []model.RawSample{
		sample("Bangkok", 50, 2, 30, 70, 1),
		sample("Bangkok", 50, 2, 30, 70, 1),
	}

	got := ScoreEvents(samples)
	for _, e := range got {
		assert.InDelta(t, 0.15, e.RiskScore, 1e-12)
	}
}

func TestScoreEventsMissingOptionalSignals(t *testing.T) {
	samples := []model.RawSample{
		sample("Bangkok", 0, 0, math.NaN(), math.NaN(), 0),
		sample("Bangkok", 100, 5, math.NaN(), math.NaN(), 0),
	}

	got := ScoreEvents(samples)
	require.Len(t, got, 2)
	assert.InDelta(t, 0.0, got[0].RiskScore, 1e-12)
	assert.InDelta(t, 0.42+0.30, got[1].RiskScore, 1e-12)
}

func TestScoreEventsScoresStayInUnitInterval(t *testing.T) {
	samples := []model.RawSample{
		sample("Bangkok", 300, 9, 40, 100, 1),
		sample("Chiang Mai", 0, 0, 15, 10, 0),
		sample("Phuket", 150, 4, 28, 60, 1),
	}

	for _, e := range ScoreEvents(samples) {
		assert.GreaterOrEqual(t, e.RiskScore, 0.0)
		assert.LessOrEqual(t, e.RiskScore, 1.0)
	}
}

func TestScoreEventsEmpty(t *testing.T) {
	assert.Nil(t, ScoreEvents(nil))
}
