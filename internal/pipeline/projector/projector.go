// Package projector simulates the month-by-month stock trajectory each SKU
// will follow under the forecast, given its opening stock and the
// replenishments already on order.
package projector

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GabrielHeyne/planity-backend/internal/domain"
	"github.com/GabrielHeyne/planity-backend/internal/timeutil"
)

// Project runs the sequential stock simulation for every SKU that has both
// a positive projected forecast and a stock seed. Each month consumes the
// forecast after applying that month's replenishments; demand that cannot
// be served is accounted as lost units, valued at the SKU's sale price
// (zero when the SKU is absent from the master). SKUs missing either input
// are skipped.
func Project(forecast []domain.ForecastRecord, stock []domain.MonthlyStockRecord, replenishments []domain.ReplenishmentRecord, master []domain.ProductMasterRecord) []domain.StockProjectionRecord {
	forecastBySKU := make(map[string][]domain.ForecastRecord)
	for _, rec := range forecast {
		if rec.PeriodKind != domain.PeriodProjected || rec.Forecast == nil || *rec.Forecast <= 0 {
			continue
		}
		forecastBySKU[rec.SKU] = append(forecastBySKU[rec.SKU], rec)
	}

	type seed struct {
		month time.Time
		stock float64
	}
	seeds := make(map[string]seed)
	for _, rec := range stock {
		month := timeutil.MonthStart(rec.MonthStart)
		if s, ok := seeds[rec.SKU]; !ok || month.Before(s.month) {
			seeds[rec.SKU] = seed{month: month, stock: rec.OnHand}
		}
	}

	replByMonth := make(map[string]map[time.Time]float64)
	for _, rec := range replenishments {
		month := timeutil.MonthStart(rec.MonthStart)
		if replByMonth[rec.SKU] == nil {
			replByMonth[rec.SKU] = make(map[time.Time]float64)
		}
		replByMonth[rec.SKU][month] += rec.Quantity
	}

	prices := make(map[string]float64, len(master))
	for _, rec := range master {
		prices[rec.SKU] = rec.SalePrice
	}

	skus := make([]string, 0, len(forecastBySKU))
	for sku := range forecastBySKU {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	var out []domain.StockProjectionRecord
	for _, sku := range skus {
		s, ok := seeds[sku]
		if !ok {
			continue
		}

		months := forecastBySKU[sku]
		sort.Slice(months, func(i, j int) bool { return months[i].Month.Before(months[j].Month) })

		opening := s.stock
		for _, rec := range months {
			if rec.Month.Before(s.month) {
				continue
			}
			applied := replByMonth[sku][rec.Month]
			consumed := *rec.Forecast

			closing := opening + applied - consumed
			lost := math.Max(0, -closing)
			closing = math.Max(0, closing)

			out = append(out, domain.StockProjectionRecord{
				SKU:                  sku,
				Month:                rec.Month,
				OpeningStock:         opening,
				ReplenishmentApplied: applied,
				ForecastConsumed:     consumed,
				ClosingStock:         closing,
				LostUnits:            lost,
				LostValue:            math.Round(lost*prices[sku]*10) / 10,
			})

			opening = closing
		}
	}

	log.Info().Int("skus", len(skus)).Int("records", len(out)).Msg("stock projection completed")
	return out
}
