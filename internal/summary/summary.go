// Package summary rolls pipeline output up into the monthly history and the
// business KPIs the reporting surface serves. It consumes pipeline records
// only; nothing here feeds back into the pipeline.
package summary

import (
	"math"
	"sort"
	"time"

	"github.com/GabrielHeyne/planity-backend/internal/domain"
	"github.com/GabrielHeyne/planity-backend/internal/timeutil"
)

// MonthlyHistoryRecord is the consolidated (sku, month) view of demand and
// stockout losses, priced from the product master.
type MonthlyHistoryRecord struct {
	SKU           string    `json:"sku"`
	Month         time.Time `json:"month"`
	ActualDemand  float64   `json:"actual_demand"`
	CleanedDemand float64   `json:"cleaned_demand"`
	LostUnits     float64   `json:"lost_units"`
	LostValue     float64   `json:"lost_value"`
}

// SKUContext is the per-SKU row of the business summary.
type SKUContext struct {
	SKU               string  `json:"sku"`
	MonthlyDemand     int     `json:"monthly_demand_estimate"`
	SafetyStock       float64 `json:"safety_stock"`
	ReorderPoint      float64 `json:"reorder_point"`
	EconomicOrderQty  float64 `json:"economic_order_quantity"`
	Buy               bool    `json:"buy"`
	UnitsToBuy        float64 `json:"units_to_buy"`
	ManufacturingCost float64 `json:"manufacturing_cost"`
	SimulatedStock    float64 `json:"simulated_ending_stock"`
	PendingUnits      float64 `json:"pending_units"`
	UnitsSold12M      float64 `json:"units_sold_12m"`
	Revenue12M        float64 `json:"revenue_12m"`
	LostUnits12M      float64 `json:"lost_units_12m"`
	LostValue12M      float64 `json:"lost_value_12m"`
	MonthlyDemand3M   float64 `json:"monthly_demand_3m"`
	BreakageRate      float64 `json:"breakage_rate"`
}

// GlobalContext aggregates the per-SKU rows into headline KPIs.
type GlobalContext struct {
	UnitsSold12M    float64 `json:"units_sold_12m"`
	Revenue12M      float64 `json:"revenue_12m"`
	LostUnits12M    float64 `json:"lost_units_12m"`
	LostValue12M    float64 `json:"lost_value_12m"`
	MonthlyDemand3M float64 `json:"monthly_demand_3m"`
	BreakageRate    float64 `json:"breakage_rate"`
	SKUsToBuy       int     `json:"skus_to_buy"`
	UnitsToBuy      float64 `json:"units_to_buy"`
	PurchaseCost    float64 `json:"purchase_cost"`
	PendingUnits    float64 `json:"pending_units"`
}

// ConsolidateHistory aggregates sanitized weekly demand to (sku, month)
// rows. A week's lost units are the imputation uplift (adjusted minus raw)
// when positive; lost value prices them at the SKU's sale price, 0 for SKUs
// absent from the master.
func ConsolidateHistory(sanitized []domain.SanitizedDemandRecord, master []domain.ProductMasterRecord) []MonthlyHistoryRecord {
	prices := make(map[string]float64, len(master))
	for _, rec := range master {
		prices[rec.SKU] = rec.SalePrice
	}

	type key struct {
		sku   string
		month time.Time
	}
	sums := make(map[key]*MonthlyHistoryRecord)
	for _, rec := range sanitized {
		k := key{rec.SKU, timeutil.MonthStart(rec.WeekStart)}
		row := sums[k]
		if row == nil {
			row = &MonthlyHistoryRecord{SKU: k.sku, Month: k.month}
			sums[k] = row
		}
		row.ActualDemand += float64(rec.RawQuantity)
		row.CleanedDemand += rec.OutlierCapped
		if uplift := rec.StockoutAdjusted - float64(rec.RawQuantity); uplift > 0 {
			row.LostUnits += uplift
		}
	}

	out := make([]MonthlyHistoryRecord, 0, len(sums))
	for _, row := range sums {
		row.LostValue = row.LostUnits * prices[row.SKU]
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SKU != out[j].SKU {
			return out[i].SKU < out[j].SKU
		}
		return out[i].Month.Before(out[j].Month)
	})
	return out
}

// ReviewRow couples one SKU's policy and decision for the summary build.
type ReviewRow struct {
	Policy   domain.InventoryPolicy
	Decision domain.PurchaseDecision
}

// BuildBusinessContext merges the inventory review with trailing-12-month
// and trailing-3-month KPIs from the consolidated history.
func BuildBusinessContext(review []ReviewRow, history []MonthlyHistoryRecord, master []domain.ProductMasterRecord, replenishments []domain.ReplenishmentRecord) (GlobalContext, []SKUContext) {
	costs := make(map[string]float64, len(master))
	prices := make(map[string]float64, len(master))
	for _, rec := range master {
		costs[rec.SKU] = rec.ManufacturingCost
		prices[rec.SKU] = rec.SalePrice
	}

	pending := make(map[string]float64)
	for _, rec := range replenishments {
		pending[rec.SKU] += rec.Quantity
	}

	var latest time.Time
	for _, row := range history {
		if row.Month.After(latest) {
			latest = row.Month
		}
	}
	cutoff12 := timeutil.AddMonths(latest, -12)
	cutoff3 := timeutil.AddMonths(latest, -3)

	type hist struct {
		sold, lost, lostValue, revenue float64
		demand3m                       float64
		months3m                       map[time.Time]bool
	}
	perSKU := make(map[string]*hist)
	months3m := make(map[time.Time]bool)
	var global hist
	for _, row := range history {
		if !row.Month.After(cutoff12) {
			continue
		}
		h := perSKU[row.SKU]
		if h == nil {
			h = &hist{months3m: make(map[time.Time]bool)}
			perSKU[row.SKU] = h
		}
		revenue := row.ActualDemand * prices[row.SKU]
		h.sold += row.ActualDemand
		h.lost += row.LostUnits
		h.lostValue += row.LostValue
		h.revenue += revenue
		global.sold += row.ActualDemand
		global.lost += row.LostUnits
		global.lostValue += row.LostValue
		global.revenue += revenue

		if row.Month.After(cutoff3) {
			h.demand3m += row.ActualDemand
			h.months3m[row.Month] = true
			global.demand3m += row.ActualDemand
			months3m[row.Month] = true
		}
	}
	monthSpan := math.Max(1, float64(len(months3m)))

	global.demand3m /= monthSpan

	rows := make([]SKUContext, 0, len(review))
	gctx := GlobalContext{
		UnitsSold12M:    global.sold,
		Revenue12M:      global.revenue,
		LostUnits12M:    global.lost,
		LostValue12M:    global.lostValue,
		MonthlyDemand3M: global.demand3m,
		BreakageRate:    breakageRate(global.lost, global.sold),
	}

	for _, r := range review {
		sku := r.Policy.SKU
		row := SKUContext{
			SKU:              sku,
			MonthlyDemand:    r.Policy.MonthlyDemand,
			SafetyStock:      r.Policy.SafetyStock,
			ReorderPoint:     r.Policy.ReorderPointBase,
			EconomicOrderQty: r.Policy.EconomicOrderQty,
			Buy:              r.Decision.Action == domain.ActionBuy,
			SimulatedStock:   r.Decision.SimulatedEndingStock,
			PendingUnits:     pending[sku],
		}
		if row.Buy {
			row.UnitsToBuy = r.Decision.SuggestedQuantity
		}
		row.ManufacturingCost = row.UnitsToBuy * costs[sku]
		if h := perSKU[sku]; h != nil {
			row.UnitsSold12M = h.sold
			row.Revenue12M = h.revenue
			row.LostUnits12M = h.lost
			row.LostValue12M = h.lostValue
			row.MonthlyDemand3M = h.demand3m / math.Max(1, float64(len(h.months3m)))
			row.BreakageRate = breakageRate(h.lost, h.sold)
		}

		gctx.PendingUnits += row.PendingUnits
		gctx.UnitsToBuy += row.UnitsToBuy
		gctx.PurchaseCost += row.ManufacturingCost
		if row.Buy {
			gctx.SKUsToBuy++
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].SKU < rows[j].SKU })
	return gctx, rows
}

// breakageRate is the share of desired demand that was lost, in percent,
// rounded to one decimal.
func breakageRate(lost, sold float64) float64 {
	total := lost + sold
	if total <= 0 {
		return 0
	}
	return math.Round(lost/total*1000) / 10
}
