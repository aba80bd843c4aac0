package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pvbess-model/internal/api/models"
	"pvbess-model/internal/model"
	"pvbess-model/internal/store"
)

// ErrorHandler middleware handles panics
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		msg := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			msg = s
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INTERNAL_ERROR", Message: msg},
		})
	})
}

// Errors renders the last error a handler attached with c.Error, unless the
// handler already wrote a response.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		status, detail := Classify(c.Errors.Last().Err)
		c.JSON(status, models.ErrorResponse{Error: detail})
	}
}

// Classify maps an error to an HTTP status and error envelope.
func Classify(err error) (int, models.ErrorDetail) {
	var ce *model.ConfigurationError
	var ie *model.InternalConsistencyError
	switch {
	case errors.As(err, &ce):
		details := map[string]any{"field": ce.Field}
		if ce.Index >= 0 {
			details["index"] = ce.Index
		}
		return http.StatusBadRequest, models.ErrorDetail{Code: "INVALID_CONFIG", Message: err.Error(), Details: details}
	case errors.As(err, &ie):
		return http.StatusInternalServerError, models.ErrorDetail{
			Code:    "INTERNAL_CONSISTENCY",
			Message: err.Error(),
			Details: map[string]any{"year": ie.Year, "hour": ie.Hour, "invariant": ie.Invariant},
		}
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, models.ErrorDetail{Code: "NOT_FOUND", Message: err.Error()}
	default:
		return http.StatusInternalServerError, models.ErrorDetail{Code: "INTERNAL_ERROR", Message: err.Error()}
	}
}
