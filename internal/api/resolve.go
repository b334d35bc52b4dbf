package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/kbequiv/internal/domain"
	"github.com/persistorai/kbequiv/internal/httputil"
	"github.com/persistorai/kbequiv/internal/models"
)

// ResolveHandler serves the equivalence-resolution endpoints.
type ResolveHandler struct {
	svc domain.EquivalenceService
	log *logrus.Logger
}

// NewResolveHandler creates a ResolveHandler backed by svc.
func NewResolveHandler(svc domain.EquivalenceService, log *logrus.Logger) *ResolveHandler {
	return &ResolveHandler{svc: svc, log: log}
}

// Resolve handles POST /api/v1/resolve.
func (h *ResolveHandler) Resolve(c *gin.Context) {
	var req models.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, httputil.CodeInvalidRequest, "invalid request body")

		return
	}

	h.resolve(c, req)
}

// ResolveQuery handles GET /api/v1/resolve. Edge classes may be repeated or comma separated.
func (h *ResolveHandler) ResolveQuery(c *gin.Context) {
	var req models.ResolveRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, httputil.CodeInvalidRequest, "invalid query parameters")

		return
	}

	req.EquivalencyEdges = splitClasses(req.EquivalencyEdges)
	req.DirectionalEdges = splitClasses(req.DirectionalEdges)

	h.resolve(c, req)
}

func (h *ResolveHandler) resolve(c *gin.Context, req models.ResolveRequest) {
	res, err := h.svc.Resolve(c.Request.Context(), req)
	if err != nil {
		respondResolveError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, res)
}

// Features handles GET /api/v1/features/:name/equivalents.
func (h *ResolveHandler) Features(c *gin.Context) {
	res, err := h.svc.EquivalentFeatures(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondResolveError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, res)
}

// Terms handles GET /api/v1/terms/:name/tree.
func (h *ResolveHandler) Terms(c *gin.Context) {
	res, err := h.svc.TermTree(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondResolveError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, res)
}

// Diseases handles GET /api/v1/diseases/:name/tree.
func (h *ResolveHandler) Diseases(c *gin.Context) {
	res, err := h.svc.DiseaseTree(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondResolveError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, res)
}

// splitClasses flattens comma-separated entries and drops blanks.
func splitClasses(in []string) []string {
	var out []string

	for _, entry := range in {
		for _, class := range strings.Split(entry, ",") {
			if class = strings.TrimSpace(class); class != "" {
				out = append(out, class)
			}
		}
	}

	return out
}
