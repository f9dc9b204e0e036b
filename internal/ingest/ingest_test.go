package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDemandSpanishHeaders(t *testing.T) {
	csv := "sku,fecha,demanda\nA,2025-01-06,10\nB,2025-01-07,\"3,5\"\n"
	rows, err := ParseDemand(strings.NewReader(csv), "demanda.csv")
	if err != nil {
		t.Fatalf("ParseDemand: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].SKU != "A" || rows[0].Quantity != 10 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if !rows[0].Date.Equal(time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("row 0 date = %v", rows[0].Date)
	}
	// comma decimal separator is accepted
	if rows[1].Quantity != 3.5 {
		t.Errorf("row 1 quantity = %v, want 3.5", rows[1].Quantity)
	}
}

func TestParseDemandNumberSeparators(t *testing.T) {
	csv := "sku,fecha,demanda\n" +
		"A,2025-01-06,\"1,234.5\"\n" +
		"B,2025-01-06,\"1,234,567\"\n" +
		"C,2025-01-06,\"0,75\"\n"
	rows, err := ParseDemand(strings.NewReader(csv), "demanda.csv")
	if err != nil {
		t.Fatalf("ParseDemand: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].Quantity != 1234.5 {
		t.Errorf("dot-decimal with grouping comma = %v, want 1234.5", rows[0].Quantity)
	}
	if rows[1].Quantity != 1234567 {
		t.Errorf("grouped integer = %v, want 1234567", rows[1].Quantity)
	}
	if rows[2].Quantity != 0.75 {
		t.Errorf("comma decimal = %v, want 0.75", rows[2].Quantity)
	}
}

func TestParseDemandEnglishHeaders(t *testing.T) {
	csv := "SKU,Date,Demand\nA,2025-01-06,4\n"
	rows, err := ParseDemand(strings.NewReader(csv), "demand.csv")
	if err != nil {
		t.Fatalf("ParseDemand: %v", err)
	}
	if len(rows) != 1 || rows[0].Quantity != 4 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestParseDemandMissingColumn(t *testing.T) {
	csv := "sku,fecha\nA,2025-01-06\n"
	_, err := ParseDemand(strings.NewReader(csv), "demanda.csv")
	var missing *MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingColumnError", err)
	}
	if missing.Column != "demanda" {
		t.Errorf("column = %q, want demanda", missing.Column)
	}
}

func TestParseDemandSkipsMalformedRows(t *testing.T) {
	csv := "sku,fecha,demanda\nA,not-a-date,10\n,2025-01-06,10\nB,2025-01-06,xx\n"
	rows, err := ParseDemand(strings.NewReader(csv), "demanda.csv")
	if err != nil {
		t.Fatalf("ParseDemand: %v", err)
	}
	// bad date and empty sku are dropped; an unparseable quantity coerces to 0
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].SKU != "B" || rows[0].Quantity != 0 {
		t.Errorf("row = %+v, want B with quantity 0", rows[0])
	}
}

func TestParseStock(t *testing.T) {
	csv := "sku,fecha,stock\nA,2025-01-15,42\n"
	rows, err := ParseStock(strings.NewReader(csv), "stock_historico.csv")
	if err != nil {
		t.Fatalf("ParseStock: %v", err)
	}
	if len(rows) != 1 || rows[0].Quantity != 42 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestParseCurrentStockFloorsToMonth(t *testing.T) {
	csv := "sku,fecha,stock\nA,2025-01-15,42\n"
	rows, err := ParseCurrentStock(strings.NewReader(csv), "stock_actual.csv")
	if err != nil {
		t.Fatalf("ParseCurrentStock: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if !rows[0].MonthStart.Equal(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("month = %v, want 2025-01-01", rows[0].MonthStart)
	}
	if rows[0].OnHand != 42 {
		t.Errorf("on hand = %v, want 42", rows[0].OnHand)
	}
}

func TestParseReplenishments(t *testing.T) {
	csv := "sku,fecha,cantidad\nA,2025-03-20,120\n"
	rows, err := ParseReplenishments(strings.NewReader(csv), "reposiciones.csv")
	if err != nil {
		t.Fatalf("ParseReplenishments: %v", err)
	}
	if len(rows) != 1 || rows[0].Quantity != 120 {
		t.Fatalf("rows = %+v", rows)
	}
	if !rows[0].MonthStart.Equal(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("month = %v, want 2025-03-01", rows[0].MonthStart)
	}
}

func TestParseMaster(t *testing.T) {
	csv := "sku,costo_fabricacion,precio_venta\nA,3,2\n"
	rows, err := ParseMaster(strings.NewReader(csv), "maestro_productos.csv")
	if err != nil {
		t.Fatalf("ParseMaster: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].ManufacturingCost != 3 || rows[0].SalePrice != 2 {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestParseMasterPriceColumnsOptional(t *testing.T) {
	csv := "sku\nA\n"
	rows, err := ParseMaster(strings.NewReader(csv), "maestro_productos.csv")
	if err != nil {
		t.Fatalf("ParseMaster: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].ManufacturingCost != 0 || rows[0].SalePrice != 0 {
		t.Errorf("row = %+v, want zero prices", rows[0])
	}
}

func TestReadTableEmptyFile(t *testing.T) {
	if _, err := ReadTable(strings.NewReader(""), "demanda.csv"); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestTableDateLayouts(t *testing.T) {
	cases := []string{"2025-01-06", "2025-01-06 10:30:00", "06/01/2025", "2025-01"}
	for _, c := range cases {
		csv := "sku,fecha,demanda\nA," + c + ",1\n"
		rows, err := ParseDemand(strings.NewReader(csv), "demanda.csv")
		if err != nil {
			t.Fatalf("ParseDemand(%q): %v", c, err)
		}
		if len(rows) != 1 {
			t.Errorf("date %q not accepted", c)
		}
	}
}
