package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeObject(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDatasetFullBucket(t *testing.T) {
	dir := t.TempDir()
	writeObject(t, dir, ObjectDemand, "sku,fecha,demanda\nA,2025-01-06,10\n")
	writeObject(t, dir, ObjectStockHistory, "sku,fecha,stock\nA,2025-01-01,5\n")
	writeObject(t, dir, ObjectCurrentStock, "sku,fecha,stock\nA,2025-06-01,40\n")
	writeObject(t, dir, ObjectReplenish, "sku,fecha,cantidad\nA,2025-07-10,100\n")
	writeObject(t, dir, ObjectMaster, "sku,costo_fabricacion,precio_venta\nA,3,2\n")

	ds, err := LoadDataset(context.Background(), LocalDir{Dir: dir})
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if len(ds.Demand) != 1 || len(ds.StockHistory) != 1 {
		t.Errorf("demand/stock = %d/%d rows, want 1/1", len(ds.Demand), len(ds.StockHistory))
	}
	if len(ds.CurrentStock) != 1 || len(ds.Replenishments) != 1 || len(ds.Master) != 1 {
		t.Errorf("optional objects = %d/%d/%d rows, want 1/1/1",
			len(ds.CurrentStock), len(ds.Replenishments), len(ds.Master))
	}
}

func TestLoadDatasetOptionalObjectsMayBeMissing(t *testing.T) {
	dir := t.TempDir()
	writeObject(t, dir, ObjectDemand, "sku,fecha,demanda\nA,2025-01-06,10\n")
	writeObject(t, dir, ObjectStockHistory, "sku,fecha,stock\nA,2025-01-01,5\n")

	ds, err := LoadDataset(context.Background(), LocalDir{Dir: dir})
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if len(ds.CurrentStock) != 0 || len(ds.Replenishments) != 0 || len(ds.Master) != 0 {
		t.Errorf("optional objects should be empty, got %d/%d/%d",
			len(ds.CurrentStock), len(ds.Replenishments), len(ds.Master))
	}
}

func TestLoadDatasetRequiresDemand(t *testing.T) {
	dir := t.TempDir()
	writeObject(t, dir, ObjectStockHistory, "sku,fecha,stock\nA,2025-01-01,5\n")

	if _, err := LoadDataset(context.Background(), LocalDir{Dir: dir}); err == nil {
		t.Fatal("expected error when demand object is missing")
	}
}

func TestLoadDatasetRequiresStockHistory(t *testing.T) {
	dir := t.TempDir()
	writeObject(t, dir, ObjectDemand, "sku,fecha,demanda\nA,2025-01-06,10\n")

	if _, err := LoadDataset(context.Background(), LocalDir{Dir: dir}); err == nil {
		t.Fatal("expected error when stock history object is missing")
	}
}
