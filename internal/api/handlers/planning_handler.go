package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GabrielHeyne/planity-backend/internal/domain"
	"github.com/GabrielHeyne/planity-backend/internal/ingest"
	"github.com/GabrielHeyne/planity-backend/internal/service"
	"github.com/GabrielHeyne/planity-backend/internal/storage"
	"github.com/GabrielHeyne/planity-backend/internal/summary"
	"github.com/GabrielHeyne/planity-backend/internal/timeutil"
)

// PlanningHandler exposes the demand-planning pipeline over HTTP. All
// endpoints operate on complete in-memory batches; parsing and field
// normalization happen here, at the boundary, never mid-pipeline.
type PlanningHandler struct {
	svc   *service.PlanningService
	store storage.ObjectStorage
}

func NewPlanningHandler(svc *service.PlanningService, store storage.ObjectStorage) *PlanningHandler {
	return &PlanningHandler{svc: svc, store: store}
}

// CleanDemand accepts multipart "demand" and "stock" CSV/XLSX uploads and
// returns the sanitized weekly series.
func (h *PlanningHandler) CleanDemand(c *gin.Context) {
	var demandRows []domain.DemandRow
	if err := withUpload(c, "demand", func(f multipart.File, name string) (err error) {
		demandRows, err = ingest.ParseDemand(f, name)
		return
	}); err != nil {
		respondIngestError(c, err)
		return
	}

	var stockRows []domain.StockRow
	if err := withUpload(c, "stock", func(f multipart.File, name string) (err error) {
		stockRows, err = ingest.ParseStock(f, name)
		return
	}); err != nil {
		respondIngestError(c, err)
		return
	}

	sanitized, err := h.svc.SanitizeDemand(c.Request.Context(), demandRows, stockRows)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, sanitized)
}

// GenerateForecast takes sanitized demand records and returns the forecast
// series.
func (h *PlanningHandler) GenerateForecast(c *gin.Context) {
	var sanitized []domain.SanitizedDemandRecord
	if err := c.ShouldBindJSON(&sanitized); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid sanitized demand payload: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, h.svc.GenerateForecast(sanitized))
}

type reviewRequest struct {
	Forecast       []domain.ForecastRecord        `json:"forecast"`
	Sanitized      []domain.SanitizedDemandRecord `json:"sanitized_demand"`
	CurrentStock   []domain.MonthlyStockRecord    `json:"current_stock"`
	Replenishments []domain.ReplenishmentRecord   `json:"replenishments"`
	Master         []domain.ProductMasterRecord   `json:"master"`
}

// InventoryReview computes policy and purchase decisions per SKU.
func (h *PlanningHandler) InventoryReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid review payload: "+err.Error())
		return
	}
	if len(req.Forecast) == 0 {
		errorResponse(c, http.StatusBadRequest, "forecast records are required")
		return
	}

	result := &service.PlanningResult{Forecast: req.Forecast, Sanitized: req.Sanitized}
	ds := &storage.Dataset{
		CurrentStock:   req.CurrentStock,
		Replenishments: req.Replenishments,
		Master:         req.Master,
	}
	review := h.svc.InventoryReview(result, ds, timeutil.MonthStart(time.Now().UTC()))
	c.JSON(http.StatusOK, review)
}

type summaryRequest struct {
	Sanitized []domain.SanitizedDemandRecord `json:"sanitized_demand"`
	Master    []domain.ProductMasterRecord   `json:"master"`
}

// BusinessSummary returns the consolidated monthly history for reporting.
func (h *PlanningHandler) BusinessSummary(c *gin.Context) {
	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid summary payload: "+err.Error())
		return
	}
	if len(req.Sanitized) == 0 {
		errorResponse(c, http.StatusBadRequest, "sanitized demand records are required")
		return
	}

	c.JSON(http.StatusOK, summary.ConsolidateHistory(req.Sanitized, req.Master))
}

// RunFromCloud loads the canonical dataset from object storage and runs the
// whole chain, mirroring the original cloud loading flow.
func (h *PlanningHandler) RunFromCloud(c *gin.Context) {
	if h.store == nil {
		errorResponse(c, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}

	ds, err := storage.LoadDataset(c.Request.Context(), h.store)
	if err != nil {
		respondIngestError(c, err)
		return
	}

	result, err := h.svc.RunPipeline(c.Request.Context(), ds)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	review := h.svc.InventoryReview(result, ds, timeutil.MonthStart(time.Now().UTC()))
	global, perSKU := h.svc.BusinessSummary(result, review, ds)

	c.JSON(http.StatusOK, gin.H{
		"sanitized_demand": result.Sanitized,
		"forecast":         result.Forecast,
		"stock_projection": result.Projection,
		"monthly_history":  result.History,
		"review":           review,
		"summary":          gin.H{"global": global, "skus": perSKU},
	})
}

// InvalidateCache drops all memoized planning results.
func (h *PlanningHandler) InvalidateCache(c *gin.Context) {
	if err := h.svc.InvalidateCache(c.Request.Context()); err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cache invalidated"})
}

func withUpload(c *gin.Context, field string, parse func(multipart.File, string) error) error {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return &ingest.MissingColumnError{Column: field}
	}
	f, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	return parse(f, fileHeader.Filename)
}

func respondIngestError(c *gin.Context, err error) {
	var missing *ingest.MissingColumnError
	if errors.As(err, &missing) {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	errorResponse(c, http.StatusUnprocessableEntity, err.Error())
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}
