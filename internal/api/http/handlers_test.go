package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/sandbox"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	gotURL string
	panic  bool
}

func (a *stubAnalyzer) Analyze(_ context.Context, url string) sandbox.Report {
	if a.panic {
		panic("browser pool exhausted")
	}
	a.gotURL = url
	report := sandbox.NewReport(url)
	report.Title = "Example Domain"
	report.HeuristicScore = 3
	return report
}

type stubStore struct {
	files   []sandbox.ReportFile
	reports map[string]sandbox.Report
	err     error
}

func (s *stubStore) List() ([]sandbox.ReportFile, error) { return s.files, s.err }

func (s *stubStore) Load(name string) (sandbox.Report, error) {
	if s.err != nil {
		return sandbox.Report{}, s.err
	}
	r, ok := s.reports[name]
	if !ok {
		return sandbox.Report{}, sandbox.ErrReportNotFound
	}
	return r, nil
}

func setupRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.POST("/analyze", h.Analyze)
	router.GET("/reports", h.ListReports)
	router.GET("/reports/:name", h.GetReport)
	return router
}

func serve(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRoot(t *testing.T) {
	router := setupRouter(NewHandlers(&stubAnalyzer{}, &stubStore{}, nil, nil))

	w := serve(router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message": "Sandbox service is up and running!"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	metrics.ScanFinished(monitoring.OutcomeCompleted, time.Second, 2)
	router := setupRouter(NewHandlers(&stubAnalyzer{}, &stubStore{}, metrics, nil))

	w := serve(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status  string              `json:"status"`
		Metrics monitoring.Snapshot `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, int64(1), resp.Metrics.ScansCompleted)
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantURL    string
	}{
		{
			name:       "valid url",
			body:       `{"url": "http://example.com"}`,
			wantStatus: http.StatusOK,
			wantURL:    "http://example.com",
		},
		{
			name:       "surrounding whitespace trimmed",
			body:       `{"url": "  http://example.com  "}`,
			wantStatus: http.StatusOK,
			wantURL:    "http://example.com",
		},
		{
			name:       "missing url",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "blank url",
			body:       `{"url": "   "}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"url":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &stubAnalyzer{}
			router := setupRouter(NewHandlers(analyzer, &stubStore{}, nil, nil))

			w := serve(router, http.MethodPost, "/analyze", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Contains(t, w.Body.String(), `"error"`)
				assert.Empty(t, analyzer.gotURL)
				return
			}

			var resp struct {
				SandboxReport map[string]any `json:"sandbox_report"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantURL, analyzer.gotURL)
			assert.Equal(t, tt.wantURL, resp.SandboxReport["url"])
			assert.Equal(t, "Example Domain", resp.SandboxReport["title"])
			assert.Equal(t, float64(3), resp.SandboxReport["heuristic_score"])
			assert.Nil(t, resp.SandboxReport["error"])
		})
	}
}

func TestAnalyzePanicBecomes500(t *testing.T) {
	router := setupRouter(NewHandlers(&stubAnalyzer{panic: true}, &stubStore{}, nil, nil))

	w := serve(router, http.MethodPost, "/analyze", `{"url": "http://example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail": "Sandbox analysis failed: browser pool exhausted"}`, w.Body.String())
}

func TestListReports(t *testing.T) {
	store := &stubStore{files: []sandbox.ReportFile{
		{Name: "session_20240102_030405.json", Size: 120},
		{Name: "session_20240101_030405.json", Size: 80},
	}}
	router := setupRouter(NewHandlers(&stubAnalyzer{}, store, nil, nil))

	w := serve(router, http.MethodGet, "/reports", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Reports []sandbox.ReportFile `json:"reports"`
		Count   int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "session_20240102_030405.json", resp.Reports[0].Name)

	store.err = errors.New("permission denied")
	w = serve(router, http.MethodGet, "/reports", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetReport(t *testing.T) {
	report := sandbox.NewReport("http://example.com")
	report.HeuristicScore = 5
	store := &stubStore{reports: map[string]sandbox.Report{"session_20240102_030405.json": report}}
	router := setupRouter(NewHandlers(&stubAnalyzer{}, store, nil, nil))

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"existing report", "/reports/session_20240102_030405.json", http.StatusOK},
		{"unknown report", "/reports/session_20990101_000000.json", http.StatusNotFound},
		{"malformed name", "/reports/config.json", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	w := serve(router, http.MethodGet, "/reports/session_20240102_030405.json", "")
	var got sandbox.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 5, got.HeuristicScore)
	assert.Equal(t, "http://example.com", got.URL)
}
