// Command pipeline runs the full planning chain over a dataset directory or
// an S3-compatible bucket and writes the results as CSV files.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/GabrielHeyne/planity-backend/internal/cache"
	"github.com/GabrielHeyne/planity-backend/internal/config"
	"github.com/GabrielHeyne/planity-backend/internal/service"
	"github.com/GabrielHeyne/planity-backend/internal/storage"
	"github.com/GabrielHeyne/planity-backend/internal/timeutil"
	"github.com/GabrielHeyne/planity-backend/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "pipeline",
		Usage: "run the demand planning pipeline over a dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "local directory holding the dataset CSVs (takes precedence over object storage)",
			},
			&cli.StringFlag{
				Name:  "out-dir",
				Value: "./data/output",
				Usage: "directory for result CSVs",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "sanitizer worker count (defaults to configured value)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "log level (trace, debug, info, warn, error)",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("pipeline run failed")
	}
}

func run(c *cli.Context) error {
	logger.SetLevel(c.String("log-level"))
	cfg := config.Load()

	workers := cfg.Pipeline.WorkerCount
	if c.Int("workers") > 0 {
		workers = c.Int("workers")
	}

	var store storage.ObjectStorage
	if dir := c.String("data-dir"); dir != "" {
		store = storage.LocalDir{Dir: dir}
	} else {
		s3, err := storage.NewS3Client(cfg.Storage)
		if err != nil {
			return fmt.Errorf("no data-dir given and object storage unavailable: %w", err)
		}
		store = s3
	}

	ctx := context.Background()
	start := time.Now()

	ds, err := storage.LoadDataset(ctx, store)
	if err != nil {
		return err
	}

	svc := service.NewPlanningService(cache.NewNoopResultCache(), workers)
	result, err := svc.RunPipeline(ctx, ds)
	if err != nil {
		return err
	}

	referenceMonth := timeutil.MonthStart(time.Now().UTC())
	review := svc.InventoryReview(result, ds, referenceMonth)
	global, perSKU := svc.BusinessSummary(result, review, ds)

	outDir := c.String("out-dir")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeResults(outDir, result, review, global, perSKU); err != nil {
		return err
	}

	logger.Log.Info().
		Int("sanitized_rows", len(result.Sanitized)).
		Int("forecast_rows", len(result.Forecast)).
		Int("projection_rows", len(result.Projection)).
		Int("review_rows", len(review.Entries)).
		Dur("elapsed", time.Since(start)).
		Str("out_dir", outDir).
		Msg("pipeline completed")

	return nil
}
