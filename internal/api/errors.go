package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/kbequiv/internal/httputil"
	"github.com/persistorai/kbequiv/internal/metrics"
)

// respondError writes a standardized JSON error response and counts it by code.
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondResolveError maps a resolution error onto the REST error contract.
// Internal errors are logged and their detail withheld from the client.
func respondResolveError(c *gin.Context, log *logrus.Logger, err error) {
	status, code := httputil.Classify(err)

	message := err.Error()
	if code == httputil.CodeInternal {
		log.WithError(err).WithField("path", c.FullPath()).Error("resolve.internal")
		message = "internal server error"
	}

	respondError(c, status, code, message)
}
