// Package inventory derives purchasing policy from the forecast and decides
// whether a SKU needs an order placed now.
package inventory

import (
	"math"
	"sort"
	"time"

	"github.com/GabrielHeyne/planity-backend/internal/domain"
	"github.com/GabrielHeyne/planity-backend/internal/stats"
	"github.com/GabrielHeyne/planity-backend/internal/timeutil"
)

const (
	// LeadTimeMonths is the fixed months between placing and receiving an order.
	LeadTimeMonths = 5

	// serviceFactor is the z-score for a 95% service level under the
	// normal-demand assumption.
	serviceFactor = 1.65

	demandWindowMonths  = 4
	volatilityMonths    = 12
	eoqDemandMultiplier = 3
)

// ComputePolicy derives safety stock, reorder point and EOQ for one SKU.
//
// Monthly demand is the rounded mean of up to the next four projected
// forecast months at or after referenceMonth. Volatility comes from the
// sample standard deviation of the trailing twelve positive cleaned monthly
// demand sums. Returns nil when the SKU has no projected forecast; callers
// must skip such SKUs.
func ComputePolicy(forecast []domain.ForecastRecord, sku string, referenceMonth time.Time, sanitized []domain.SanitizedDemandRecord) *domain.InventoryPolicy {
	projected := projectedForSKU(forecast, sku)
	if len(projected) == 0 {
		return nil
	}

	demand := MonthlyDemandEstimate(projected, referenceMonth)

	stdDev := stats.StdDev(trailingCleanedMonths(sanitized, sku))
	if math.IsNaN(stdDev) {
		stdDev = 0
	}

	safety := math.Round(stdDev * serviceFactor)
	ropBase := float64(demand * LeadTimeMonths)

	return &domain.InventoryPolicy{
		SKU:              sku,
		MonthlyDemand:    demand,
		SafetyStock:      safety,
		ReorderPointBase: ropBase,
		ReorderPoint:     ropBase + safety,
		EconomicOrderQty: float64(demand * eoqDemandMultiplier),
	}
}

// MonthlyDemandEstimate is the rounded mean of up to the next four
// projected forecasts from referenceMonth onward, 0 when none exist.
func MonthlyDemandEstimate(projected []domain.ForecastRecord, referenceMonth time.Time) int {
	ref := timeutil.MonthStart(referenceMonth)
	var values []float64
	for _, rec := range projected {
		if rec.Month.Before(ref) || rec.Forecast == nil {
			continue
		}
		values = append(values, *rec.Forecast)
		if len(values) == demandWindowMonths {
			break
		}
	}
	if len(values) == 0 {
		return 0
	}
	return int(math.Round(stats.Mean(values)))
}

func projectedForSKU(forecast []domain.ForecastRecord, sku string) []domain.ForecastRecord {
	var out []domain.ForecastRecord
	for _, rec := range forecast {
		if rec.SKU == sku && rec.PeriodKind == domain.PeriodProjected {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// trailingCleanedMonths sums positive cleaned weekly demand per month and
// returns the last twelve monthly totals in chronological order.
func trailingCleanedMonths(sanitized []domain.SanitizedDemandRecord, sku string) []float64 {
	sums := make(map[time.Time]float64)
	for _, rec := range sanitized {
		if rec.SKU != sku || rec.OutlierCapped <= 0 {
			continue
		}
		sums[timeutil.MonthStart(rec.WeekStart)] += rec.OutlierCapped
	}

	months := make([]time.Time, 0, len(sums))
	for m := range sums {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	if len(months) > volatilityMonths {
		months = months[len(months)-volatilityMonths:]
	}

	values := make([]float64, len(months))
	for i, m := range months {
		values[i] = sums[m]
	}
	return values
}
