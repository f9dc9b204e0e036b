package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/GabrielHeyne/planity-backend/internal/domain"
	"github.com/GabrielHeyne/planity-backend/internal/service"
	"github.com/GabrielHeyne/planity-backend/internal/summary"
)

const (
	dateFormat  = "2006-01-02"
	monthFormat = "2006-01"
)

func writeResults(outDir string, result *service.PlanningResult, review *service.InventoryReview, global summary.GlobalContext, perSKU []summary.SKUContext) error {
	writers := []struct {
		name  string
		write func(*csv.Writer) error
	}{
		{"sanitized_demand.csv", func(w *csv.Writer) error { return writeSanitized(w, result.Sanitized) }},
		{"forecast.csv", func(w *csv.Writer) error { return writeForecast(w, result.Forecast) }},
		{"stock_projection.csv", func(w *csv.Writer) error { return writeProjection(w, result.Projection) }},
		{"inventory_review.csv", func(w *csv.Writer) error { return writeReview(w, review) }},
		{"summary.csv", func(w *csv.Writer) error { return writeSummary(w, global, perSKU) }},
	}

	for _, out := range writers {
		if err := writeCSV(filepath.Join(outDir, out.name), out.write); err != nil {
			return fmt.Errorf("write %s: %w", out.name, err)
		}
	}
	return nil
}

func writeCSV(path string, write func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := write(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writeSanitized(w *csv.Writer, rows []domain.SanitizedDemandRecord) error {
	if err := w.Write([]string{"sku", "week_start", "raw_quantity", "stockout_adjusted_quantity", "outlier_capped_quantity", "is_obsolete_sku"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.SKU,
			r.WeekStart.Format(dateFormat),
			strconv.Itoa(r.RawQuantity),
			formatFloat(r.StockoutAdjusted),
			formatFloat(r.OutlierCapped),
			strconv.FormatBool(r.IsObsoleteSKU),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeForecast(w *csv.Writer, rows []domain.ForecastRecord) error {
	if err := w.Write([]string{"sku", "month", "period_kind", "method", "actual_demand", "cleaned_demand", "forecast", "forecast_upper"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.SKU,
			r.Month.Format(monthFormat),
			string(r.PeriodKind),
			string(r.Method),
			formatOptional(r.ActualDemand),
			formatOptional(r.CleanedDemand),
			formatOptional(r.Forecast),
			formatOptional(r.ForecastUpper),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeProjection(w *csv.Writer, rows []domain.StockProjectionRecord) error {
	if err := w.Write([]string{"sku", "month", "opening_stock", "replenishment_applied", "forecast_consumed", "closing_stock", "lost_units", "lost_value"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.SKU,
			r.Month.Format(monthFormat),
			formatFloat(r.OpeningStock),
			formatFloat(r.ReplenishmentApplied),
			formatFloat(r.ForecastConsumed),
			formatFloat(r.ClosingStock),
			formatFloat(r.LostUnits),
			formatFloat(r.LostValue),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeReview(w *csv.Writer, review *service.InventoryReview) error {
	if err := w.Write([]string{"sku", "current_stock", "pending_units", "monthly_demand_estimate", "safety_stock", "reorder_point", "economic_order_quantity", "action", "suggested_quantity", "simulated_ending_stock", "manufacturing_cost"}); err != nil {
		return err
	}
	for _, e := range review.Entries {
		record := []string{
			e.SKU,
			formatFloat(e.CurrentStock),
			formatFloat(e.PendingUnits),
			strconv.Itoa(e.Policy.MonthlyDemand),
			formatFloat(e.Policy.SafetyStock),
			formatFloat(e.Policy.ReorderPoint),
			formatFloat(e.Policy.EconomicOrderQty),
			string(e.Decision.Action),
			formatFloat(e.Decision.SuggestedQuantity),
			formatFloat(e.Decision.SimulatedEndingStock),
			formatFloat(e.ManufacturingCost),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(w *csv.Writer, global summary.GlobalContext, perSKU []summary.SKUContext) error {
	if err := w.Write([]string{"sku", "units_sold_12m", "revenue_12m", "lost_units_12m", "lost_value_12m", "monthly_demand_3m", "breakage_rate", "buy", "units_to_buy", "manufacturing_cost"}); err != nil {
		return err
	}
	for _, r := range perSKU {
		record := []string{
			r.SKU,
			formatFloat(r.UnitsSold12M),
			formatFloat(r.Revenue12M),
			formatFloat(r.LostUnits12M),
			formatFloat(r.LostValue12M),
			formatFloat(r.MonthlyDemand3M),
			formatFloat(r.BreakageRate),
			strconv.FormatBool(r.Buy),
			formatFloat(r.UnitsToBuy),
			formatFloat(r.ManufacturingCost),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	// trailing global row keeps the roll-up next to its detail
	return w.Write([]string{
		"TOTAL",
		formatFloat(global.UnitsSold12M),
		formatFloat(global.Revenue12M),
		formatFloat(global.LostUnits12M),
		formatFloat(global.LostValue12M),
		formatFloat(global.MonthlyDemand3M),
		formatFloat(global.BreakageRate),
		strconv.Itoa(global.SKUsToBuy),
		formatFloat(global.UnitsToBuy),
		formatFloat(global.PurchaseCost),
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

