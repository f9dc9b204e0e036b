package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/GabrielHeyne/planity-backend/internal/domain"
	"github.com/GabrielHeyne/planity-backend/internal/ingest"
)

// Dataset is one complete batch of pipeline inputs.
type Dataset struct {
	Demand         []domain.DemandRow
	StockHistory   []domain.StockRow
	CurrentStock   []domain.MonthlyStockRecord
	Replenishments []domain.ReplenishmentRecord
	Master         []domain.ProductMasterRecord
}

// LoadDataset pulls and parses the five canonical objects. Demand and stock
// history are mandatory; the remaining objects degrade to empty sets so a
// partial bucket still supports sanitize+forecast runs.
func LoadDataset(ctx context.Context, store ObjectStorage) (*Dataset, error) {
	ds := &Dataset{}

	err := loadObject(ctx, store, ObjectDemand, func(r io.Reader) (err error) {
		ds.Demand, err = ingest.ParseDemand(r, ObjectDemand)
		return
	})
	if err != nil {
		return nil, err
	}

	err = loadObject(ctx, store, ObjectStockHistory, func(r io.Reader) (err error) {
		ds.StockHistory, err = ingest.ParseStock(r, ObjectStockHistory)
		return
	})
	if err != nil {
		return nil, err
	}

	optional := []struct {
		key   string
		parse func(io.Reader) error
	}{
		{ObjectCurrentStock, func(r io.Reader) (err error) {
			ds.CurrentStock, err = ingest.ParseCurrentStock(r, ObjectCurrentStock)
			return
		}},
		{ObjectReplenish, func(r io.Reader) (err error) {
			ds.Replenishments, err = ingest.ParseReplenishments(r, ObjectReplenish)
			return
		}},
		{ObjectMaster, func(r io.Reader) (err error) {
			ds.Master, err = ingest.ParseMaster(r, ObjectMaster)
			return
		}},
	}
	for _, obj := range optional {
		if err := loadObject(ctx, store, obj.key, obj.parse); err != nil {
			log.Warn().Err(err).Str("object", obj.key).Msg("optional dataset object not loaded")
		}
	}

	return ds, nil
}

func loadObject(ctx context.Context, store ObjectStorage, key string, parse func(io.Reader) error) error {
	rc, err := store.GetObject(ctx, key)
	if err != nil {
		return fmt.Errorf("load dataset object %s: %w", key, err)
	}
	defer rc.Close()

	if err := parse(rc); err != nil {
		return fmt.Errorf("parse dataset object %s: %w", key, err)
	}
	return nil
}
