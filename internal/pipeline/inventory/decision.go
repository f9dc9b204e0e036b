package inventory

import (
	"math"
	"time"

	"github.com/GabrielHeyne/planity-backend/internal/domain"
	"github.com/GabrielHeyne/planity-backend/internal/timeutil"
)

const simulationMonths = 5

// EvaluatePurchase runs the five-month forward simulation and applies the
// buy/no-buy rule.
//
// Each simulated month first receives the replenishments scheduled for that
// month bucket, then consumes the constant monthly demand estimate. With
// replenishments pending, the simulated ending stock is compared against
// safety stock; with none pending, the current stock is compared against
// five months of demand plus safety stock. Below the threshold the
// suggested quantity is the EOQ, or the threshold gap when no EOQ is
// available.
func EvaluatePurchase(sku string, currentStock float64, referenceMonth time.Time, monthlyDemand float64, safetyStock float64, eoq *float64, replenishments []domain.ReplenishmentRecord) domain.PurchaseDecision {
	ref := timeutil.MonthStart(referenceMonth)

	arrivals := make([]float64, simulationMonths)
	for _, rec := range replenishments {
		if rec.SKU != sku {
			continue
		}
		month := timeutil.MonthStart(rec.MonthStart)
		for i := 0; i < simulationMonths; i++ {
			if month.Equal(timeutil.AddMonths(ref, i)) {
				arrivals[i] += rec.Quantity
			}
		}
	}

	stock := currentStock
	pending := 0.0
	for i := 0; i < simulationMonths; i++ {
		stock += arrivals[i]
		stock -= monthlyDemand
		pending += arrivals[i]
	}

	var threshold, compared float64
	if pending > 0 {
		threshold = safetyStock
		compared = stock
	} else {
		threshold = monthlyDemand*simulationMonths + safetyStock
		compared = currentStock
	}

	decision := domain.PurchaseDecision{
		SKU:                  sku,
		Action:               domain.ActionNoBuy,
		SimulatedEndingStock: math.Round(stock),
		DecisionThreshold:    threshold,
	}
	if compared < threshold {
		decision.Action = domain.ActionBuy
		if eoq != nil {
			decision.SuggestedQuantity = math.Round(*eoq)
		} else {
			decision.SuggestedQuantity = math.Round(threshold - compared)
		}
	}
	return decision
}
