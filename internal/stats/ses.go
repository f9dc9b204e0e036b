package stats

import (
	"errors"
	"math"
)

// SES is a fitted single exponential smoothing model.
type SES struct {
	Alpha float64
	Level float64 // smoothed level after the last observation
	SSE   float64
}

var ErrSESInsufficientData = errors.New("ses: need at least two observations")

// FitSES fits a single exponential smoothing model by grid-searching the
// smoothing factor over (0, 1) and minimizing the one-step-ahead sum of
// squared errors. The initial level is estimated as the mean of the first
// observations, which is robust for the short monthly series seen here.
func FitSES(values []float64) (*SES, error) {
	if len(values) < 2 {
		return nil, ErrSESInsufficientData
	}

	initLevel := Mean(values[:minInt(4, len(values))])

	best := &SES{Alpha: math.NaN(), SSE: math.Inf(1)}
	for a := 0.01; a < 1.0; a += 0.01 {
		level := initLevel
		sse := 0.0
		for _, v := range values {
			err := v - level
			sse += err * err
			level += a * err
		}
		if sse < best.SSE {
			best = &SES{Alpha: a, Level: level, SSE: sse}
		}
	}

	if math.IsNaN(best.Alpha) || math.IsNaN(best.Level) || math.IsInf(best.Level, 0) {
		return nil, errors.New("ses: fit did not converge")
	}
	return best, nil
}

// Forecast returns the h-step-ahead prediction. SES is a flat-line
// forecaster, so every horizon gets the final smoothed level.
func (m *SES) Forecast(h int) float64 {
	return m.Level
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
