// Package sanitizer turns noisy weekly sales into a stockout-free,
// outlier-free demand series. Weeks whose observed sales were suppressed by
// missing stock are imputed from the SKU's own trailing distribution, then
// the whole series is capped at its 95th percentile.
package sanitizer

import (
	"context"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/GabrielHeyne/planity-backend/internal/domain"
	"github.com/GabrielHeyne/planity-backend/internal/stats"
	"github.com/GabrielHeyne/planity-backend/internal/timeutil"
)

const (
	// stock at or above this level in every key month means sales were not
	// supply-constrained and the raw figure stands
	minStockLevel = 4

	trailingWindowWeeks = 24
	imputeFloorPct      = 15
	imputeValuePct      = 60
	historicalFloorPct  = 10
	outlierCapPct       = 95

	obsoleteWindowMonths = 12
	futureStockMonths    = 6
	recentMonthsCount    = 3
)

// Options tunes the per-SKU fan-out.
type Options struct {
	// Workers bounds the worker pool; <= 0 falls back to the core count.
	Workers int
}

// Clean sanitizes raw weekly demand against monthly stock history.
//
// Demand dates are floored to the Monday of their week and reindexed over
// the full cross-product of observed SKUs and observed weeks, so no week is
// silently dropped. Stock dates are floored to month start and summed per
// (sku, month). Each SKU is processed independently on a bounded worker
// pool; the merged result is sorted by (sku, week) regardless of completion
// order. A SKU with no history yields an all-zero series, never an error.
func Clean(ctx context.Context, demand []domain.DemandRow, stock []domain.StockRow, opts Options) ([]domain.SanitizedDemandRecord, error) {
	start := time.Now()

	weekly, skus, weeks := reindexWeekly(demand)
	stockIdx := indexStock(stock)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([][]domain.SanitizedDemandRecord, len(skus))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, sku := range skus {
		i, sku := i, sku
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = cleanSKU(sku, weeks, weekly[sku], stockIdx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.SanitizedDemandRecord, 0, len(skus)*len(weeks))
	for _, rows := range results {
		out = append(out, rows...)
	}

	log.Info().
		Int("skus", len(skus)).
		Int("weeks", len(weeks)).
		Int("rows", len(out)).
		Dur("elapsed", time.Since(start)).
		Msg("demand sanitization completed")

	return out, nil
}

// stockIndex holds the monthly stock view the per-week classification needs.
type stockIndex struct {
	byMonth      map[string]map[time.Time]float64
	hasMonth     map[string]map[time.Time]bool
	recentMonths map[time.Time]bool
	obsolete     map[string]bool
}

func (s *stockIndex) level(sku string, month time.Time) float64 {
	return s.byMonth[sku][month]
}

// reindexWeekly buckets demand into Monday weeks and fills the full
// {sku} x {week} grid with zeros.
func reindexWeekly(demand []domain.DemandRow) (map[string]map[time.Time]int, []string, []time.Time) {
	bySKU := make(map[string]map[time.Time]int)
	weekSet := make(map[time.Time]bool)
	for _, row := range demand {
		week := timeutil.WeekStart(row.Date)
		weekSet[week] = true
		if bySKU[row.SKU] == nil {
			bySKU[row.SKU] = make(map[time.Time]int)
		}
		bySKU[row.SKU][week] += int(row.Quantity)
	}

	skus := make([]string, 0, len(bySKU))
	for sku := range bySKU {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	weeks := make([]time.Time, 0, len(weekSet))
	for w := range weekSet {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	return bySKU, skus, weeks
}

// indexStock aggregates raw stock rows to (sku, month) sums and derives the
// obsolete-SKU set: zero stock recorded in every one of the trailing twelve
// months relative to the latest observed month.
func indexStock(stock []domain.StockRow) *stockIndex {
	idx := &stockIndex{
		byMonth:      make(map[string]map[time.Time]float64),
		hasMonth:     make(map[string]map[time.Time]bool),
		recentMonths: make(map[time.Time]bool),
		obsolete:     make(map[string]bool),
	}

	var allMonths []time.Time
	for _, row := range stock {
		month := timeutil.MonthStart(row.Date)
		if idx.byMonth[row.SKU] == nil {
			idx.byMonth[row.SKU] = make(map[time.Time]float64)
			idx.hasMonth[row.SKU] = make(map[time.Time]bool)
		}
		idx.byMonth[row.SKU][month] += row.Quantity
		idx.hasMonth[row.SKU][month] = true
		allMonths = append(allMonths, month)
	}
	if len(allMonths) == 0 {
		return idx
	}

	for _, m := range timeutil.LatestMonths(allMonths, recentMonthsCount) {
		idx.recentMonths[m] = true
	}

	latest := timeutil.LatestMonths(allMonths, 1)[0]
	windowStart := timeutil.AddMonths(latest, -(obsoleteWindowMonths - 1))
	for sku, months := range idx.byMonth {
		zeroMonths := 0
		for m := windowStart; !m.After(latest); m = timeutil.AddMonths(m, 1) {
			if idx.hasMonth[sku][m] && months[m] == 0 {
				zeroMonths++
			}
		}
		if zeroMonths == obsoleteWindowMonths {
			idx.obsolete[sku] = true
		}
	}

	return idx
}

// cleanSKU processes one SKU's full weekly series in chronological order.
func cleanSKU(sku string, weeks []time.Time, raw map[time.Time]int, stock *stockIndex) []domain.SanitizedDemandRecord {
	series := make([]float64, len(weeks))
	for i, w := range weeks {
		series[i] = float64(raw[w])
	}

	p10Total := stats.Percentile(stats.Positive(series), historicalFloorPct)
	obsolete := stock.obsolete[sku]

	adjusted := make([]float64, len(weeks))
	for i, week := range weeks {
		adjusted[i] = adjustWeek(sku, week, series, i, p10Total, stock)
	}

	capValue := math.NaN()
	if positives := stats.Positive(adjusted); len(positives) > 0 {
		capValue = stats.Percentile(positives, outlierCapPct)
	}

	out := make([]domain.SanitizedDemandRecord, len(weeks))
	for i, week := range weeks {
		capped := adjusted[i]
		if !math.IsNaN(capValue) && capped > capValue {
			capped = math.Round(capValue)
		}
		out[i] = domain.SanitizedDemandRecord{
			SKU:              sku,
			WeekStart:        week,
			RawQuantity:      int(series[i]),
			StockoutAdjusted: adjusted[i],
			OutlierCapped:    capped,
			IsObsoleteSKU:    obsolete,
		}
	}
	return out
}

// adjustWeek classifies a single week and imputes a corrected quantity when
// the observed figure looks stockout-suppressed.
func adjustWeek(sku string, week time.Time, series []float64, i int, p10Total float64, stock *stockIndex) float64 {
	current := series[i]

	monthCur := timeutil.MonthStart(week)
	monthPrev := timeutil.MonthOfWeekShift(week, -4)
	monthNext := timeutil.MonthOfWeekShift(week, 4)

	// with healthy stock around the week, observed sales are trusted as-is
	if stock.level(sku, monthPrev) >= minStockLevel &&
		stock.level(sku, monthCur) >= minStockLevel &&
		stock.level(sku, monthNext) >= minStockLevel {
		return current
	}

	windowStart := i - trailingWindowWeeks
	if windowStart < 0 {
		windowStart = 0
	}
	window := series[windowStart:i]
	windowPositives := stats.Positive(window)
	p15 := stats.Percentile(windowPositives, imputeFloorPct)
	p60 := stats.Percentile(windowPositives, imputeValuePct)

	stockCur := stock.level(sku, monthCur)
	stockPrev := stock.level(sku, monthPrev)

	futureStock := 0.0
	for m := 1; m <= futureStockMonths; m++ {
		futureStock += stock.level(sku, timeutil.AddMonths(monthCur, m))
	}

	eligible := false

	// a stock gap now or just before, with the SKU still alive afterwards
	if (stockCur < minStockLevel || stockPrev < minStockLevel) &&
		(futureStock > 0 || stock.recentMonths[monthCur]) {
		eligible = true
	}

	// any key month short on stock
	if stockPrev < minStockLevel ||
		stockCur < minStockLevel ||
		stock.level(sku, monthNext) < minStockLevel {
		eligible = true
	}

	// the trailing window itself shows more movement than the historical floor
	if stats.Sum(window) > p10Total {
		eligible = true
	}

	if !eligible {
		return current
	}
	if current < p15 {
		return math.Round(p60)
	}
	return current
}
