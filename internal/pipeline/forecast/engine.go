// Package forecast turns sanitized weekly demand into a monthly forecast
// series. Each SKU gets a method picked once from its usable history length
// and six months of expanding-window, one-step-ahead projection.
package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GabrielHeyne/planity-backend/internal/domain"
	"github.com/GabrielHeyne/planity-backend/internal/stats"
	"github.com/GabrielHeyne/planity-backend/internal/timeutil"
)

const (
	projectionMonths = 6
	minUsableMonths  = 2
	sesMinHistory    = 6
	movingAvgWindow  = 4
	upperBoundWindow = 4
)

type monthlyPoint struct {
	month   time.Time
	actual  float64
	cleaned float64
}

// Generate aggregates sanitized demand to monthly buckets and emits one
// historical record per observed month plus up to six projected months per
// SKU. SKUs with fewer than two months of positive cleaned demand are
// skipped entirely; that is an expected condition, not an error.
func Generate(sanitized []domain.SanitizedDemandRecord) []domain.ForecastRecord {
	bySKU := aggregateMonthly(sanitized)

	skus := make([]string, 0, len(bySKU))
	for sku := range bySKU {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	var out []domain.ForecastRecord
	skipped := 0
	for _, sku := range skus {
		records := forecastSKU(sku, bySKU[sku])
		if records == nil {
			skipped++
			continue
		}
		out = append(out, records...)
	}

	log.Info().
		Int("skus", len(skus)).
		Int("skipped_insufficient_history", skipped).
		Int("records", len(out)).
		Msg("forecast generation completed")

	return out
}

// aggregateMonthly sums actual and cleaned demand onto the month of each
// week's Monday, returning per-SKU series in chronological order.
func aggregateMonthly(sanitized []domain.SanitizedDemandRecord) map[string][]monthlyPoint {
	type key struct {
		sku   string
		month time.Time
	}
	sums := make(map[key]*monthlyPoint)
	for _, rec := range sanitized {
		k := key{rec.SKU, timeutil.MonthStart(rec.WeekStart)}
		pt := sums[k]
		if pt == nil {
			pt = &monthlyPoint{month: k.month}
			sums[k] = pt
		}
		pt.actual += float64(rec.RawQuantity)
		pt.cleaned += rec.OutlierCapped
	}

	bySKU := make(map[string][]monthlyPoint)
	for k, pt := range sums {
		bySKU[k.sku] = append(bySKU[k.sku], *pt)
	}
	for sku := range bySKU {
		pts := bySKU[sku]
		sort.Slice(pts, func(i, j int) bool { return pts[i].month.Before(pts[j].month) })
		bySKU[sku] = pts
	}
	return bySKU
}

func forecastSKU(sku string, monthly []monthlyPoint) []domain.ForecastRecord {
	valid := make([]monthlyPoint, 0, len(monthly))
	for _, pt := range monthly {
		if pt.cleaned > 0 {
			valid = append(valid, pt)
		}
	}
	if len(valid) < minUsableMonths {
		return nil
	}

	method := domain.MethodExpSmoothing
	if len(valid) < sesMinHistory {
		method = domain.MethodMovingAverage
	}

	records := make([]domain.ForecastRecord, 0, len(monthly)+projectionMonths)
	for _, pt := range monthly {
		records = append(records, domain.ForecastRecord{
			SKU:           sku,
			Month:         pt.month,
			PeriodKind:    domain.PeriodHistorical,
			Method:        method,
			ActualDemand:  ptr(pt.actual),
			CleanedDemand: ptr(pt.cleaned),
		})
	}

	cleanedValues := make([]float64, len(valid))
	for i, pt := range valid {
		cleanedValues[i] = pt.cleaned
	}
	stdDev := stats.StdDev(stats.Tail(cleanedValues, upperBoundWindow))

	lastObserved := valid[len(valid)-1].month
	for h := 1; h <= projectionMonths; h++ {
		target := timeutil.AddMonths(lastObserved, h)

		// refit on data strictly before the target month only
		var window []float64
		for _, pt := range valid {
			if pt.month.Before(target) {
				window = append(window, pt.cleaned)
			}
		}
		if len(window) < minUsableMonths {
			continue
		}

		pred := safeForecast(window, method)
		upper := pred
		if !math.IsNaN(stdDev) {
			upper = math.Round(pred + stdDev)
		}

		records = append(records, domain.ForecastRecord{
			SKU:           sku,
			Month:         target,
			PeriodKind:    domain.PeriodProjected,
			Method:        method,
			Forecast:      ptr(pred),
			ForecastUpper: ptr(upper),
		})
	}

	return records
}

// safeForecast produces a one-step-ahead prediction with the degeneracy
// fallback chain: fit failure falls back to a 4-month trailing mean, any
// NaN/Inf/negative result to a 3-month trailing mean, then to zero.
func safeForecast(values []float64, method domain.ForecastMethod) float64 {
	var pred float64
	switch method {
	case domain.MethodExpSmoothing:
		model, err := stats.FitSES(values)
		if err != nil {
			pred = stats.Mean(stats.Tail(values, 4))
		} else {
			pred = model.Forecast(1)
		}
	default:
		pred = stats.Mean(stats.Tail(values, movingAvgWindow))
	}

	if degenerate(pred) {
		pred = stats.Mean(stats.Tail(values, 3))
	}
	if degenerate(pred) {
		pred = 0
	}
	return math.Round(pred)
}

func degenerate(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || v < 0
}

func ptr(v float64) *float64 {
	return &v
}
