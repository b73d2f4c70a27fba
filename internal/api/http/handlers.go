package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/sandbox"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Analyzer runs one sandbox scan
type Analyzer interface {
	Analyze(ctx context.Context, url string) sandbox.Report
}

// ReportStore reads persisted session logs
type ReportStore interface {
	List() ([]sandbox.ReportFile, error)
	Load(name string) (sandbox.Report, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	analyzer Analyzer
	reports  ReportStore
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandlers creates a new handler set. metrics may be nil.
func NewHandlers(analyzer Analyzer, reports ReportStore, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		analyzer: analyzer,
		reports:  reports,
		metrics:  metrics,
		logger:   logger,
	}
}

// AnalyzeRequest is the body of POST /analyze
type AnalyzeRequest struct {
	URL string `json:"url" binding:"required"`
}

// AnalyzeResponse wraps the finished report
type AnalyzeResponse struct {
	SandboxReport sandbox.Report `json:"sandbox_report"`
}

// Root handles the liveness message
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Sandbox service is up and running!"})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{"status": "healthy"}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// Analyze scans a URL in the sandbox and returns the report
func (h *Handlers) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: url is required"})
		return
	}

	url := strings.TrimSpace(req.URL)
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: url is required"})
		return
	}

	report, err := h.analyze(c.Request.Context(), url)
	if err != nil {
		h.logger.Error("Sandbox analysis failed", zap.String("url", url), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Sandbox analysis failed: %v", err)})
		return
	}

	c.JSON(http.StatusOK, AnalyzeResponse{SandboxReport: report})
}

// analyze converts a panic escaping the service into an error
func (h *Handlers) analyze(ctx context.Context, url string) (report sandbox.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return h.analyzer.Analyze(ctx, url), nil
}
