package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error. A
// handler that already wrote its response keeps it.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		WriteError(c, c.Errors.Last().Err)
	}
}

// WriteError aborts the request with {"error": {code, message}}. Errors
// outside the AppError set are answered as INTERNAL_ERROR. Internal causes
// are logged with the route and budget and never sent to the client.
func WriteError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.Internal != nil {
		logger.Named("http").Errorw("request failed",
			"code", appErr.Code,
			"error", appErr.Internal.Error(),
			"method", c.Request.Method,
			"route", c.FullPath(),
			"budget_id", c.Param("budget_id"),
		)
	}
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{"error": appErr})
}
