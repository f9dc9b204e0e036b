// Package service wires the pipeline stages into the operations the API and
// CLI expose. All state flows through explicit result objects; the only
// cross-request state is the optional result cache.
package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GabrielHeyne/planity-backend/internal/cache"
	"github.com/GabrielHeyne/planity-backend/internal/domain"
	"github.com/GabrielHeyne/planity-backend/internal/pipeline/forecast"
	"github.com/GabrielHeyne/planity-backend/internal/pipeline/inventory"
	"github.com/GabrielHeyne/planity-backend/internal/pipeline/projector"
	"github.com/GabrielHeyne/planity-backend/internal/pipeline/sanitizer"
	"github.com/GabrielHeyne/planity-backend/internal/storage"
	"github.com/GabrielHeyne/planity-backend/internal/summary"
)

// PlanningResult is the output of one full pipeline run over a dataset.
type PlanningResult struct {
	Sanitized  []domain.SanitizedDemandRecord `json:"sanitized_demand"`
	Forecast   []domain.ForecastRecord        `json:"forecast"`
	Projection []domain.StockProjectionRecord `json:"stock_projection"`
	History    []summary.MonthlyHistoryRecord `json:"monthly_history"`
}

// ReviewEntry is one SKU's inventory review line.
type ReviewEntry struct {
	SKU               string                  `json:"sku"`
	CurrentStock      float64                 `json:"current_stock"`
	PendingUnits      float64                 `json:"pending_units"`
	Policy            domain.InventoryPolicy  `json:"policy"`
	Decision          domain.PurchaseDecision `json:"decision"`
	ManufacturingCost float64                 `json:"manufacturing_cost"`
}

// ReviewKPIs aggregates the buy list.
type ReviewKPIs struct {
	SKUsToBuy    int     `json:"skus_to_buy"`
	UnitsToBuy   float64 `json:"units_to_buy"`
	PurchaseCost float64 `json:"purchase_cost"`
}

// InventoryReview is the full purchasing view over one planning run.
type InventoryReview struct {
	Entries []ReviewEntry `json:"entries"`
	KPIs    ReviewKPIs    `json:"kpis"`
}

type PlanningService struct {
	cache   cache.ResultCache
	workers int
}

func NewPlanningService(resultCache cache.ResultCache, workers int) *PlanningService {
	if resultCache == nil {
		resultCache = cache.NewNoopResultCache()
	}
	return &PlanningService{cache: resultCache, workers: workers}
}

// SanitizeDemand runs only the sanitization stage, for callers that bring
// their own raw batches.
func (s *PlanningService) SanitizeDemand(ctx context.Context, demand []domain.DemandRow, stock []domain.StockRow) ([]domain.SanitizedDemandRecord, error) {
	return sanitizer.Clean(ctx, demand, stock, sanitizer.Options{Workers: s.workers})
}

// GenerateForecast runs only the forecast stage over sanitized demand.
func (s *PlanningService) GenerateForecast(sanitized []domain.SanitizedDemandRecord) []domain.ForecastRecord {
	return forecast.Generate(sanitized)
}

// RunPipeline executes sanitize -> forecast -> project -> consolidate over
// the dataset, consulting the result cache first.
func (s *PlanningService) RunPipeline(ctx context.Context, ds *storage.Dataset) (*PlanningResult, error) {
	fingerprint := cache.Fingerprint(ds)

	var cached PlanningResult
	if ok, err := s.cache.Get(ctx, fingerprint, &cached); err == nil && ok {
		log.Debug().Str("fingerprint", fingerprint).Msg("planning result served from cache")
		return &cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("planning result cache get failed")
	}

	sanitized, err := sanitizer.Clean(ctx, ds.Demand, ds.StockHistory, sanitizer.Options{Workers: s.workers})
	if err != nil {
		return nil, err
	}

	forecastRecords := forecast.Generate(sanitized)
	projection := projector.Project(forecastRecords, ds.CurrentStock, ds.Replenishments, ds.Master)
	history := summary.ConsolidateHistory(sanitized, ds.Master)

	result := &PlanningResult{
		Sanitized:  sanitized,
		Forecast:   forecastRecords,
		Projection: projection,
		History:    history,
	}

	if err := s.cache.Set(ctx, fingerprint, result); err != nil {
		log.Warn().Err(err).Msg("planning result cache set failed")
	}

	return result, nil
}

// InvalidateCache drops every memoized planning result, forcing the next
// run over any dataset to recompute.
func (s *PlanningService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

// InventoryReview computes policy and purchase decision per forecasted SKU.
// SKUs without a policy (no projected forecast) are skipped, never errors.
func (s *PlanningService) InventoryReview(result *PlanningResult, ds *storage.Dataset, referenceMonth time.Time) *InventoryReview {
	currentStock := make(map[string]float64)
	for _, rec := range ds.CurrentStock {
		if _, ok := currentStock[rec.SKU]; !ok {
			currentStock[rec.SKU] = rec.OnHand
		}
	}

	pending := make(map[string]float64)
	for _, rec := range ds.Replenishments {
		pending[rec.SKU] += rec.Quantity
	}

	costs := make(map[string]float64)
	for _, rec := range ds.Master {
		costs[rec.SKU] = rec.ManufacturingCost
	}

	skuSet := make(map[string]bool)
	for _, rec := range result.Forecast {
		if rec.PeriodKind == domain.PeriodProjected {
			skuSet[rec.SKU] = true
		}
	}
	skus := make([]string, 0, len(skuSet))
	for sku := range skuSet {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	review := &InventoryReview{Entries: make([]ReviewEntry, 0, len(skus))}
	for _, sku := range skus {
		policy := inventory.ComputePolicy(result.Forecast, sku, referenceMonth, result.Sanitized)
		if policy == nil {
			continue
		}

		eoq := policy.EconomicOrderQty
		decision := inventory.EvaluatePurchase(
			sku,
			currentStock[sku],
			referenceMonth,
			float64(policy.MonthlyDemand),
			policy.SafetyStock,
			&eoq,
			ds.Replenishments,
		)

		entry := ReviewEntry{
			SKU:          sku,
			CurrentStock: currentStock[sku],
			PendingUnits: pending[sku],
			Policy:       *policy,
			Decision:     decision,
		}
		if decision.Action == domain.ActionBuy {
			entry.ManufacturingCost = decision.SuggestedQuantity * costs[sku]
			review.KPIs.SKUsToBuy++
			review.KPIs.UnitsToBuy += decision.SuggestedQuantity
			review.KPIs.PurchaseCost += entry.ManufacturingCost
		}
		review.Entries = append(review.Entries, entry)
	}

	return review
}

// BusinessSummary builds the KPI context reporting consumes.
func (s *PlanningService) BusinessSummary(result *PlanningResult, review *InventoryReview, ds *storage.Dataset) (summary.GlobalContext, []summary.SKUContext) {
	rows := make([]summary.ReviewRow, 0, len(review.Entries))
	for _, entry := range review.Entries {
		rows = append(rows, summary.ReviewRow{Policy: entry.Policy, Decision: entry.Decision})
	}
	return summary.BuildBusinessContext(rows, result.History, ds.Master, ds.Replenishments)
}
