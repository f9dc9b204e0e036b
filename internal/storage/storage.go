// Package storage loads planning datasets from an S3-compatible bucket or a
// local directory. A dataset is the five canonical CSV objects the pipeline
// runs on.
package storage

import (
	"context"
	"io"
)

// ObjectStorage captures the minimal object operations the dataset loader needs.
type ObjectStorage interface {
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
}

// Canonical dataset object names, matching the original cloud folder layout.
const (
	ObjectDemand       = "demanda.csv"
	ObjectStockHistory = "stock_historico.csv"
	ObjectCurrentStock = "stock_actual.csv"
	ObjectReplenish    = "reposiciones.csv"
	ObjectMaster       = "maestro_productos.csv"
)
