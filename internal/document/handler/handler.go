package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docserve/docserve/internal/document"
	"github.com/docserve/docserve/internal/document/coordinator"
	"github.com/docserve/docserve/internal/health"
)

// RegisterDocumentRoutes maps the document endpoints onto the
// coordinator. The mapping is deliberately thin: no business decisions
// happen here.
func RegisterDocumentRoutes(r *gin.Engine, co *coordinator.Coordinator) {
	r.PUT("/documents/:id", func(c *gin.Context) {
		id := c.Param("id")
		var req struct {
			Content string `json:"content" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := co.Store(c.Request.Context(), id, []byte(req.Content)); err != nil {
			status, msg := mapError(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "status": "stored", "size": len(req.Content)})
	})

	r.GET("/documents/:id", func(c *gin.Context) {
		id := c.Param("id")
		content, err := co.Fetch(c.Request.Context(), id)
		if err != nil {
			status, msg := mapError(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "content": string(content)})
	})
}

// RegisterHealthRoute exposes the aggregated health report. Degraded
// still answers 200: only loss of durable storage takes the service out
// of rotation.
func RegisterHealthRoute(r *gin.Engine, agg *health.Aggregator) {
	r.GET("/health", func(c *gin.Context) {
		rep := agg.Check(c.Request.Context())
		code := http.StatusOK
		if !rep.Available() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  rep.Overall,
			"service": "document-service",
			"storage": rep.Storage,
			"cache":   rep.Cache,
		})
	})
}

func mapError(err error) (int, string) {
	if errors.Is(err, document.ErrNotFound) {
		return http.StatusNotFound, "document not found"
	}
	switch document.KindOf(err) {
	case document.KindInvalid:
		return http.StatusBadRequest, err.Error()
	case document.KindPermission:
		return http.StatusInternalServerError, "storage access denied"
	default:
		return http.StatusServiceUnavailable, "storage unavailable"
	}
}
