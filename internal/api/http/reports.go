package http

import (
	"errors"
	"net/http"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/sandbox"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListReports lists persisted session logs, newest first
func (h *Handlers) ListReports(c *gin.Context) {
	files, err := h.reports.List()
	if err != nil {
		h.logger.Error("Failed to list reports", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": files,
		"count":   len(files),
	})
}

// GetReport returns one persisted session log
func (h *Handlers) GetReport(c *gin.Context) {
	name := c.Param("name")

	report, err := h.reports.Load(name)
	if errors.Is(err, sandbox.ErrReportNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found", "name": name})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load report", zap.String("name", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}

	c.JSON(http.StatusOK, report)
}
