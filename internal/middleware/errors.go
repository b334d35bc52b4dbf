package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/persistorai/kbequiv/internal/httputil"
	"github.com/persistorai/kbequiv/internal/metrics"
)

// reject aborts the request with a JSON error and counts it under errCode.
func reject(c *gin.Context, status int, errCode, message string) {
	metrics.ErrorsTotal.WithLabelValues(errCode).Inc()
	httputil.RespondError(c, status, errCode, message)
}
