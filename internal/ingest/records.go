package ingest

import (
	"io"

	"github.com/GabrielHeyne/planity-backend/internal/domain"
	"github.com/GabrielHeyne/planity-backend/internal/timeutil"
)

// ParseDemand reads raw weekly demand rows (sku, fecha/date, demanda/demand).
func ParseDemand(r io.Reader, filename string) ([]domain.DemandRow, error) {
	t, err := ReadTable(r, filename)
	if err != nil {
		return nil, err
	}
	skuIdx, err := t.require("sku", "sku")
	if err != nil {
		return nil, err
	}
	dateIdx, err := t.require("fecha", "fecha", "date")
	if err != nil {
		return nil, err
	}
	qtyIdx, err := t.require("demanda", "demanda", "demand", "quantity")
	if err != nil {
		return nil, err
	}

	out := make([]domain.DemandRow, 0, len(t.rows))
	for _, row := range t.rows {
		sku := t.cell(row, skuIdx)
		date, ok := t.date(row, dateIdx)
		if sku == "" || !ok {
			continue
		}
		out = append(out, domain.DemandRow{
			SKU:      sku,
			Date:     date,
			Quantity: t.float(row, qtyIdx),
		})
	}
	return out, nil
}

// ParseStock reads raw stock history rows (sku, fecha/date, stock).
func ParseStock(r io.Reader, filename string) ([]domain.StockRow, error) {
	t, err := ReadTable(r, filename)
	if err != nil {
		return nil, err
	}
	skuIdx, err := t.require("sku", "sku")
	if err != nil {
		return nil, err
	}
	dateIdx, err := t.require("fecha", "fecha", "date")
	if err != nil {
		return nil, err
	}
	qtyIdx, err := t.require("stock", "stock", "on_hand_quantity")
	if err != nil {
		return nil, err
	}

	out := make([]domain.StockRow, 0, len(t.rows))
	for _, row := range t.rows {
		sku := t.cell(row, skuIdx)
		date, ok := t.date(row, dateIdx)
		if sku == "" || !ok {
			continue
		}
		out = append(out, domain.StockRow{
			SKU:      sku,
			Date:     date,
			Quantity: t.float(row, qtyIdx),
		})
	}
	return out, nil
}

// ParseCurrentStock reads current stock rows onto month buckets.
func ParseCurrentStock(r io.Reader, filename string) ([]domain.MonthlyStockRecord, error) {
	rows, err := ParseStock(r, filename)
	if err != nil {
		return nil, err
	}
	out := make([]domain.MonthlyStockRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.MonthlyStockRecord{
			SKU:        row.SKU,
			MonthStart: timeutil.MonthStart(row.Date),
			OnHand:     row.Quantity,
		})
	}
	return out, nil
}

// ParseReplenishments reads scheduled arrivals (sku, fecha, cantidad).
func ParseReplenishments(r io.Reader, filename string) ([]domain.ReplenishmentRecord, error) {
	t, err := ReadTable(r, filename)
	if err != nil {
		return nil, err
	}
	skuIdx, err := t.require("sku", "sku")
	if err != nil {
		return nil, err
	}
	dateIdx, err := t.require("fecha", "fecha", "date")
	if err != nil {
		return nil, err
	}
	qtyIdx, err := t.require("cantidad", "cantidad", "quantity")
	if err != nil {
		return nil, err
	}

	out := make([]domain.ReplenishmentRecord, 0, len(t.rows))
	for _, row := range t.rows {
		sku := t.cell(row, skuIdx)
		date, ok := t.date(row, dateIdx)
		if sku == "" || !ok {
			continue
		}
		out = append(out, domain.ReplenishmentRecord{
			SKU:        sku,
			MonthStart: timeutil.MonthStart(date),
			Quantity:   t.float(row, qtyIdx),
		})
	}
	return out, nil
}

// ParseMaster reads the product master (sku, costo_fabricacion, precio_venta).
// Prices are optional columns; absent ones default every row to zero,
// which downstream stages treat as "no reference data" rather than an error.
func ParseMaster(r io.Reader, filename string) ([]domain.ProductMasterRecord, error) {
	t, err := ReadTable(r, filename)
	if err != nil {
		return nil, err
	}
	skuIdx, err := t.require("sku", "sku")
	if err != nil {
		return nil, err
	}
	costIdx, hasCost := t.column("costo_fabricacion", "manufacturing_cost")
	priceIdx, hasPrice := t.column("precio_venta", "sale_price")

	out := make([]domain.ProductMasterRecord, 0, len(t.rows))
	for _, row := range t.rows {
		sku := t.cell(row, skuIdx)
		if sku == "" {
			continue
		}
		rec := domain.ProductMasterRecord{SKU: sku}
		if hasCost {
			rec.ManufacturingCost = t.float(row, costIdx)
		}
		if hasPrice {
			rec.SalePrice = t.float(row, priceIdx)
		}
		out = append(out, rec)
	}
	return out, nil
}
