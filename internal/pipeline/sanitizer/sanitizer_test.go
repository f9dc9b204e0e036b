package sanitizer

import (
	"context"
	"testing"
	"time"

	"github.com/GabrielHeyne/planity-backend/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func demandRows(sku string, start time.Time, quantities ...float64) []domain.DemandRow {
	rows := make([]domain.DemandRow, len(quantities))
	for i, q := range quantities {
		rows[i] = domain.DemandRow{SKU: sku, Date: start.AddDate(0, 0, 7*i), Quantity: q}
	}
	return rows
}

func monthlyStock(sku string, start time.Time, months int, qty float64) []domain.StockRow {
	rows := make([]domain.StockRow, months)
	for i := range rows {
		rows[i] = domain.StockRow{SKU: sku, Date: start.AddDate(0, i, 0), Quantity: qty}
	}
	return rows
}

func bySKU(records []domain.SanitizedDemandRecord, sku string) []domain.SanitizedDemandRecord {
	var out []domain.SanitizedDemandRecord
	for _, r := range records {
		if r.SKU == sku {
			out = append(out, r)
		}
	}
	return out
}

func TestCleanHealthyStockKeepsRawSeries(t *testing.T) {
	// stock at or above the threshold in every key month: a zero-sales week
	// is genuine no-demand, not a stockout
	demand := demandRows("A", day(2025, time.June, 2), 10, 10, 10, 0, 10)
	stock := monthlyStock("A", day(2025, time.May, 1), 3, 10)

	got, err := Clean(context.Background(), demand, stock, Options{Workers: 2})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d records, want 5", len(got))
	}
	want := []float64{10, 10, 10, 0, 10}
	for i, rec := range got {
		if rec.StockoutAdjusted != want[i] {
			t.Errorf("week %d: adjusted = %v, want %v", i, rec.StockoutAdjusted, want[i])
		}
		if rec.OutlierCapped != want[i] {
			t.Errorf("week %d: capped = %v, want %v", i, rec.OutlierCapped, want[i])
		}
		if rec.IsObsoleteSKU {
			t.Errorf("week %d: SKU flagged obsolete with live stock", i)
		}
	}
}

func TestCleanImputesStockoutWeek(t *testing.T) {
	// steady sales of 10 a week, then a zero week with no stock on record:
	// the zero is imputed from the trailing distribution
	quantities := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 0}
	demand := demandRows("B", day(2025, time.March, 3), quantities...)

	got, err := Clean(context.Background(), demand, nil, Options{})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(got) != len(quantities) {
		t.Fatalf("got %d records, want %d", len(got), len(quantities))
	}

	last := got[len(got)-1]
	if last.RawQuantity != 0 {
		t.Fatalf("raw quantity = %d, want 0", last.RawQuantity)
	}
	if last.StockoutAdjusted != 10 {
		t.Errorf("adjusted = %v, want 10 (p60 of trailing positives)", last.StockoutAdjusted)
	}
	for i, rec := range got[:len(got)-1] {
		if rec.StockoutAdjusted != 10 {
			t.Errorf("week %d: adjusted = %v, want 10 (already at trailing level)", i, rec.StockoutAdjusted)
		}
	}
}

func TestCleanCapsOutlierAtPercentile(t *testing.T) {
	// healthy stock everywhere, one spike: adjustment leaves it, the cap
	// pulls it down to round(p95) of the adjusted positives
	quantities := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 100}
	demand := demandRows("C", day(2025, time.March, 3), quantities...)
	stock := monthlyStock("C", day(2025, time.February, 1), 5, 10)

	got, err := Clean(context.Background(), demand, stock, Options{})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	last := got[len(got)-1]
	if last.StockoutAdjusted != 100 {
		t.Errorf("adjusted = %v, want 100 (spike untouched by stockout pass)", last.StockoutAdjusted)
	}
	// the p95 rank 0.95*9 lands at 8.549999... in float64, so the
	// interpolated cap is 59.4999... and rounds down
	if last.OutlierCapped != 59 {
		t.Errorf("capped = %v, want 59 (round of p95)", last.OutlierCapped)
	}
	for i, rec := range got[:len(got)-1] {
		if rec.OutlierCapped != 10 {
			t.Errorf("week %d: capped = %v, want 10", i, rec.OutlierCapped)
		}
	}
}

func TestCleanAdjustmentIsFixedPoint(t *testing.T) {
	// feeding the stockout-adjusted series back through with the same stock
	// produces no further corrections. Only the adjustment pass has this
	// property; the percentile cap re-shrinks on every run by construction.
	quantities := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 0}
	demand := demandRows("B", day(2025, time.March, 3), quantities...)

	first, err := Clean(context.Background(), demand, nil, Options{})
	if err != nil {
		t.Fatalf("first Clean: %v", err)
	}

	rerun := make([]domain.DemandRow, len(first))
	for i, rec := range first {
		rerun[i] = domain.DemandRow{SKU: rec.SKU, Date: rec.WeekStart, Quantity: rec.StockoutAdjusted}
	}

	second, err := Clean(context.Background(), rerun, nil, Options{})
	if err != nil {
		t.Fatalf("second Clean: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("second run has %d records, want %d", len(second), len(first))
	}
	for i := range first {
		if second[i].StockoutAdjusted != first[i].StockoutAdjusted {
			t.Errorf("week %d: adjusted changed on re-run: %v -> %v",
				i, first[i].StockoutAdjusted, second[i].StockoutAdjusted)
		}
	}
}

func TestCleanFlagsObsoleteSKU(t *testing.T) {
	demand := []domain.DemandRow{
		{SKU: "OBS", Date: day(2025, time.June, 2), Quantity: 5},
		{SKU: "LIVE", Date: day(2025, time.June, 2), Quantity: 5},
	}

	// OBS records zero stock in each of the twelve trailing months; LIVE is
	// missing one month of records, which is not proof of obsolescence
	stock := monthlyStock("OBS", day(2024, time.July, 1), 12, 0)
	stock = append(stock, monthlyStock("LIVE", day(2024, time.July, 1), 11, 0)...)

	got, err := Clean(context.Background(), demand, stock, Options{})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	for _, rec := range bySKU(got, "OBS") {
		if !rec.IsObsoleteSKU {
			t.Errorf("OBS not flagged obsolete")
		}
	}
	for _, rec := range bySKU(got, "LIVE") {
		if rec.IsObsoleteSKU {
			t.Errorf("LIVE flagged obsolete with an incomplete stock record")
		}
	}
}

func TestCleanReindexesFullGrid(t *testing.T) {
	// two SKUs observed in disjoint weeks: the grid fills the gaps with zeros
	demand := []domain.DemandRow{
		{SKU: "A", Date: day(2025, time.June, 2), Quantity: 3},
		{SKU: "B", Date: day(2025, time.June, 9), Quantity: 7},
	}

	got, err := Clean(context.Background(), demand, nil, Options{})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d records, want 4 (2 SKUs x 2 weeks)", len(got))
	}

	index := make(map[string]map[time.Time]int)
	for _, rec := range got {
		if index[rec.SKU] == nil {
			index[rec.SKU] = make(map[time.Time]int)
		}
		index[rec.SKU][rec.WeekStart] = rec.RawQuantity
	}
	if index["A"][day(2025, time.June, 9)] != 0 {
		t.Errorf("A in B's week = %d, want 0", index["A"][day(2025, time.June, 9)])
	}
	if index["B"][day(2025, time.June, 2)] != 0 {
		t.Errorf("B in A's week = %d, want 0", index["B"][day(2025, time.June, 2)])
	}
	if index["A"][day(2025, time.June, 2)] != 3 || index["B"][day(2025, time.June, 9)] != 7 {
		t.Errorf("observed quantities lost in reindexing: %v", index)
	}
}

func TestCleanSortsOutputDeterministically(t *testing.T) {
	demand := []domain.DemandRow{
		{SKU: "Z", Date: day(2025, time.June, 2), Quantity: 1},
		{SKU: "A", Date: day(2025, time.June, 9), Quantity: 1},
		{SKU: "M", Date: day(2025, time.June, 2), Quantity: 1},
	}

	got, err := Clean(context.Background(), demand, nil, Options{Workers: 3})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if prev.SKU > cur.SKU || (prev.SKU == cur.SKU && prev.WeekStart.After(cur.WeekStart)) {
			t.Fatalf("output not sorted by (sku, week) at %d: %s/%v after %s/%v",
				i, cur.SKU, cur.WeekStart, prev.SKU, prev.WeekStart)
		}
	}
}

func TestCleanSumsDuplicateWeekRows(t *testing.T) {
	// two raw rows landing on the same Monday bucket are summed
	demand := []domain.DemandRow{
		{SKU: "A", Date: day(2025, time.June, 3), Quantity: 4},
		{SKU: "A", Date: day(2025, time.June, 5), Quantity: 6},
	}
	stock := monthlyStock("A", day(2025, time.May, 1), 3, 10)

	got, err := Clean(context.Background(), demand, stock, Options{})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].RawQuantity != 10 {
		t.Errorf("raw quantity = %d, want 10", got[0].RawQuantity)
	}
	if !got[0].WeekStart.Equal(day(2025, time.June, 2)) {
		t.Errorf("week start = %v, want Monday 2025-06-02", got[0].WeekStart)
	}
}

func TestCleanEmptyInput(t *testing.T) {
	got, err := Clean(context.Background(), nil, nil, Options{})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d records, want 0", len(got))
	}
}
