package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pvbess-model/internal/api/models"
	"pvbess-model/internal/strategy"
)

var tariffWeights = []models.ParameterInfo{
	{Name: "ca_peak", Type: "float", Description: "Weight of the peak tariff period"},
	{Name: "ca_normal", Type: "float", Description: "Weight of the normal tariff period"},
	{Name: "ca_offpeak", Type: "float", Description: "Weight of the off-peak tariff period"},
}

// strategyParameters lists the plant fields each mode reads.
var strategyParameters = map[int][]models.ParameterInfo{
	int(strategy.ModeTopTier):      tariffWeights,
	int(strategy.ModeSkipCheapest): tariffWeights,
	int(strategy.ModeWindow): {
		{Name: "discharge_window.start", Type: "string", Description: "Window start (HH:MM)", Default: "17:00"},
		{Name: "discharge_window.end", Type: "string", Description: "Window end (HH:MM); may be before start to wrap midnight", Default: "22:00"},
	},
}

// StrategyHandler handles strategy-related requests
type StrategyHandler struct{}

func NewStrategyHandler() *StrategyHandler {
	return &StrategyHandler{}
}

// ListStrategies handles GET /api/v1/strategies
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	entries := strategy.Entries()
	strategies := make([]models.StrategyInfo, 0, len(entries))
	for _, e := range entries {
		params := strategyParameters[int(e.Mode)]
		if params == nil {
			params = []models.ParameterInfo{}
		}
		strategies = append(strategies, models.StrategyInfo{
			Mode:        int(e.Mode),
			Name:        e.Name,
			Description: e.Description,
			Parameters:  params,
		})
	}
	c.JSON(http.StatusOK, gin.H{"strategies": strategies})
}
