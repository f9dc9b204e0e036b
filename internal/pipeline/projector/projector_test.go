package projector

import (
	"testing"
	"time"

	"github.com/GabrielHeyne/planity-backend/internal/domain"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func projectedRecord(sku string, mo time.Time, forecast float64) domain.ForecastRecord {
	return domain.ForecastRecord{
		SKU:        sku,
		Month:      mo,
		PeriodKind: domain.PeriodProjected,
		Method:     domain.MethodMovingAverage,
		Forecast:   &forecast,
	}
}

func TestProjectChainsMonths(t *testing.T) {
	forecast := []domain.ForecastRecord{
		projectedRecord("A", month(2025, time.July), 30),
		projectedRecord("A", month(2025, time.August), 30),
		projectedRecord("A", month(2025, time.September), 40),
	}
	stock := []domain.MonthlyStockRecord{
		{SKU: "A", MonthStart: month(2025, time.July), OnHand: 50},
	}
	replenishments := []domain.ReplenishmentRecord{
		{SKU: "A", MonthStart: month(2025, time.August), Quantity: 40},
	}
	master := []domain.ProductMasterRecord{
		{SKU: "A", SalePrice: 2},
	}

	got := Project(forecast, stock, replenishments, master)
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}

	// July: 50 - 30 = 20
	if got[0].OpeningStock != 50 || got[0].ClosingStock != 20 || got[0].LostUnits != 0 {
		t.Errorf("July = %+v, want opening 50 closing 20 lost 0", got[0])
	}
	// August: 20 + 40 - 30 = 30
	if got[1].ReplenishmentApplied != 40 || got[1].ClosingStock != 30 {
		t.Errorf("August = %+v, want applied 40 closing 30", got[1])
	}
	// September: 30 - 40 = -10, floored to 0 with 10 lost at price 2
	if got[2].ClosingStock != 0 || got[2].LostUnits != 10 || got[2].LostValue != 20 {
		t.Errorf("September = %+v, want closing 0 lost 10 value 20", got[2])
	}

	// opening stock of each month equals the closing stock of the previous
	for i := 1; i < len(got); i++ {
		if got[i].OpeningStock != got[i-1].ClosingStock {
			t.Errorf("month %d opening %v != month %d closing %v",
				i, got[i].OpeningStock, i-1, got[i-1].ClosingStock)
		}
	}
}

func TestProjectSkipsSKUWithoutSeed(t *testing.T) {
	forecast := []domain.ForecastRecord{
		projectedRecord("A", month(2025, time.July), 30),
	}
	if got := Project(forecast, nil, nil, nil); len(got) != 0 {
		t.Errorf("got %d records for a SKU without stock, want 0", len(got))
	}
}

func TestProjectIgnoresHistoricalAndZeroForecasts(t *testing.T) {
	ten := 10.0
	forecast := []domain.ForecastRecord{
		{SKU: "A", Month: month(2025, time.June), PeriodKind: domain.PeriodHistorical, ActualDemand: &ten},
		projectedRecord("A", month(2025, time.July), 0),
	}
	stock := []domain.MonthlyStockRecord{
		{SKU: "A", MonthStart: month(2025, time.June), OnHand: 50},
	}
	if got := Project(forecast, stock, nil, nil); len(got) != 0 {
		t.Errorf("got %d records, want 0 (historical and zero forecasts excluded)", len(got))
	}
}

func TestProjectSeedsFromEarliestStockMonth(t *testing.T) {
	forecast := []domain.ForecastRecord{
		projectedRecord("A", month(2025, time.June), 10),
		projectedRecord("A", month(2025, time.July), 10),
	}
	// two stock snapshots; the earliest one seeds the simulation and
	// months before it are not simulated
	stock := []domain.MonthlyStockRecord{
		{SKU: "A", MonthStart: month(2025, time.July), OnHand: 99},
		{SKU: "A", MonthStart: month(2025, time.June), OnHand: 30},
	}

	got := Project(forecast, stock, nil, nil)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].OpeningStock != 30 {
		t.Errorf("opening = %v, want 30 (earliest snapshot wins)", got[0].OpeningStock)
	}
	if got[1].OpeningStock != 20 {
		t.Errorf("July opening = %v, want 20 (chained, later snapshot ignored)", got[1].OpeningStock)
	}
}

func TestProjectMissingMasterPricesLossAtZero(t *testing.T) {
	forecast := []domain.ForecastRecord{
		projectedRecord("A", month(2025, time.July), 80),
	}
	stock := []domain.MonthlyStockRecord{
		{SKU: "A", MonthStart: month(2025, time.July), OnHand: 50},
	}

	got := Project(forecast, stock, nil, nil)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].LostUnits != 30 || got[0].LostValue != 0 {
		t.Errorf("got lost %v value %v, want 30 units at zero value", got[0].LostUnits, got[0].LostValue)
	}
}
