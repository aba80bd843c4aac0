package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pvbess-model/internal/api/models"
	"pvbess-model/internal/finance"
)

// FinanceHandler runs the project finance model on a supplied yearly table.
type FinanceHandler struct{}

func NewFinanceHandler() *FinanceHandler {
	return &FinanceHandler{}
}

// RunFinance handles POST /api/v1/finance
func (h *FinanceHandler) RunFinance(c *gin.Context) {
	req := models.NewFinanceRequest()
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	if req.Config.MRAByYear == nil {
		req.Config.MRAByYear = finance.DefaultMRA()
	}

	res, err := finance.Run(req.Yearly, req.RevenuePerMWh, req.Config)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, models.FinanceResponse{
		Summary: *models.NewFinanceSummary(res),
		Results: res,
	})
}
