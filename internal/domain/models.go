package domain

import "time"

// PeriodKind distinguishes historical months from projected ones in a
// forecast series. The two are mutually exclusive per record: historical
// rows carry actuals, projected rows carry forecasts.
type PeriodKind string

const (
	PeriodHistorical PeriodKind = "historical"
	PeriodProjected  PeriodKind = "projected"
)

// ForecastMethod identifies how a SKU's projection was produced. The method
// is selected once per SKU and fixed for the whole run.
type ForecastMethod string

const (
	MethodMovingAverage ForecastMethod = "moving_average"
	MethodExpSmoothing  ForecastMethod = "exponential_smoothing"
)

// PurchaseAction is the outcome of a purchase evaluation.
type PurchaseAction string

const (
	ActionBuy   PurchaseAction = "buy"
	ActionNoBuy PurchaseAction = "no_buy"
)

// DemandRow is a raw demand observation as ingested, before any week
// normalization. Dates may fall on any weekday.
type DemandRow struct {
	SKU      string    `json:"sku"`
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
}

// StockRow is a raw stock observation (per location/date) as ingested.
type StockRow struct {
	SKU      string    `json:"sku"`
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
}

// WeeklyDemandRecord is one demand observation normalized to the Monday of
// its week. After reindexing there is exactly one record per (sku, week);
// gaps are filled with zero.
type WeeklyDemandRecord struct {
	SKU         string    `json:"sku"`
	WeekStart   time.Time `json:"week_start"`
	RawQuantity int       `json:"raw_quantity"`
}

// SanitizedDemandRecord is the canonical cleaned demand row used by every
// downstream stage. Immutable once produced.
type SanitizedDemandRecord struct {
	SKU              string    `json:"sku"`
	WeekStart        time.Time `json:"week_start"`
	RawQuantity      int       `json:"raw_quantity"`
	StockoutAdjusted float64   `json:"stockout_adjusted_quantity"`
	OutlierCapped    float64   `json:"outlier_capped_quantity"`
	IsObsoleteSKU    bool      `json:"is_obsolete_sku"`
}

// MonthlyStockRecord is stock aggregated onto a single month bucket per SKU.
type MonthlyStockRecord struct {
	SKU        string    `json:"sku"`
	MonthStart time.Time `json:"month_start"`
	OnHand     float64   `json:"on_hand_quantity"`
}

// ReplenishmentRecord represents a purchase order already scheduled to
// arrive in a given month.
type ReplenishmentRecord struct {
	SKU        string    `json:"sku"`
	MonthStart time.Time `json:"month_start"`
	Quantity   float64   `json:"quantity"`
}

// ProductMasterRecord is static reference data, read-only to the pipeline.
type ProductMasterRecord struct {
	SKU               string  `json:"sku"`
	ManufacturingCost float64 `json:"manufacturing_cost"`
	SalePrice         float64 `json:"sale_price"`
}

// ForecastRecord is one (sku, month) of the forecast series.
type ForecastRecord struct {
	SKU           string         `json:"sku"`
	Month         time.Time      `json:"month"`
	PeriodKind    PeriodKind     `json:"period_kind"`
	Method        ForecastMethod `json:"method"`
	ActualDemand  *float64       `json:"actual_demand"`
	CleanedDemand *float64       `json:"cleaned_demand"`
	Forecast      *float64       `json:"forecast"`
	ForecastUpper *float64       `json:"forecast_upper"`
}

// StockProjectionRecord is one simulated month of a SKU's stock trajectory.
// Records chain sequentially: the opening stock of month t+1 equals the
// closing stock of month t.
type StockProjectionRecord struct {
	SKU                  string    `json:"sku"`
	Month                time.Time `json:"month"`
	OpeningStock         float64   `json:"opening_stock"`
	ReplenishmentApplied float64   `json:"replenishment_applied"`
	ForecastConsumed     float64   `json:"forecast_consumed"`
	ClosingStock         float64   `json:"closing_stock"`
	LostUnits            float64   `json:"lost_units"`
	LostValue            float64   `json:"lost_value"`
}

// InventoryPolicy holds the derived purchasing policy for a SKU. It is
// stateless and recomputed on demand, never persisted apart from its inputs.
type InventoryPolicy struct {
	SKU              string  `json:"sku"`
	MonthlyDemand    int     `json:"monthly_demand_estimate"`
	SafetyStock      float64 `json:"safety_stock"`
	ReorderPointBase float64 `json:"reorder_point_base"`
	ReorderPoint     float64 `json:"reorder_point"`
	EconomicOrderQty float64 `json:"economic_order_quantity"`
}

// PurchaseDecision is the buy/no-buy outcome of the 5-month forward
// simulation, consumed immediately by reporting.
type PurchaseDecision struct {
	SKU                  string         `json:"sku"`
	Action               PurchaseAction `json:"action"`
	SuggestedQuantity    float64        `json:"suggested_quantity"`
	SimulatedEndingStock float64        `json:"simulated_ending_stock"`
	DecisionThreshold    float64        `json:"decision_threshold"`
}
