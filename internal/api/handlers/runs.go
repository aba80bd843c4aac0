package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pvbess-model/internal/api/models"
	"pvbess-model/internal/dispatch"
	"pvbess-model/internal/lifetime"
	"pvbess-model/internal/model"
	"pvbess-model/internal/store"
)

// RunHandler serves stored simulation runs.
type RunHandler struct {
	store store.Store
}

func NewRunHandler(s store.Store) *RunHandler {
	return &RunHandler{store: s}
}

// GetLedger handles GET /api/v1/runs/:id/ledger (?format=csv for CSV)
func (h *RunHandler) GetLedger(c *gin.Context) {
	run, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="`+run.ID+`_hourly.csv"`)
		c.Status(http.StatusOK)
		if err := dispatch.EncodeHourlyCSV(c.Writer, run.Hourly); err != nil {
			_ = c.Error(err)
		}
		return
	}
	ledger := run.Hourly
	if ledger == nil {
		ledger = []dispatch.HourlyResult{}
	}
	c.JSON(http.StatusOK, models.LedgerResponse{ID: run.ID, Name: run.Name, Totals: run.Totals, Ledger: ledger})
}

// GetYearly handles GET /api/v1/runs/:id/yearly (?format=csv for CSV)
func (h *RunHandler) GetYearly(c *gin.Context) {
	run, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="`+run.ID+`_yearly.csv"`)
		c.Status(http.StatusOK)
		if err := lifetime.EncodeYearlyCSV(c.Writer, run.Yearly); err != nil {
			_ = c.Error(err)
		}
		return
	}
	yearly := run.Yearly
	if yearly == nil {
		yearly = []model.YearlyRecord{}
	}
	c.JSON(http.StatusOK, models.YearlyResponse{
		ID:      run.ID,
		Name:    run.Name,
		Summary: lifetime.Summarize(yearly),
		Yearly:  yearly,
	})
}

// DeleteRun handles DELETE /api/v1/runs/:id
func (h *RunHandler) DeleteRun(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
