package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens/internal/analysis"
	"github.com/pagelens/pagelens/internal/classifier"
	"github.com/pagelens/pagelens/internal/config"
	"github.com/pagelens/pagelens/internal/orchestrator"
	"github.com/pagelens/pagelens/internal/pool"
	"github.com/pagelens/pagelens/internal/sections"
	"github.com/pagelens/pagelens/internal/textmetrics"
)

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	orch, err := orchestrator.New(orchestrator.Config{
		Pool: pool.Config{MinWorkers: 1, MaxWorkers: 2, MaxQueue: 16},
	}, orchestrator.Deps{
		Analyzer:   textmetrics.New(),
		Classifier: classifier.New(classifier.Config{}, nil),
		Detector:   sections.New(nil, nil),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = orch.Destroy()
	})
	return NewServer(orch, fakeStore{}, cfg, nil)
}

type fakeStore struct{}

func (fakeStore) SaveRun(context.Context, analysis.Run) error { return nil }

func (fakeStore) SaveResult(context.Context, string, *analysis.Result) error { return nil }

func (fakeStore) GetResults(_ context.Context, runID string) ([]*analysis.Result, error) {
	if runID == "run-known" {
		return []*analysis.Result{{URL: "https://example.com", PageType: analysis.PageTypeHome}}, nil
	}
	return []*analysis.Result{}, nil
}

func (fakeStore) Close() error { return nil }

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, config.Config{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, config.Config{})
	body, err := json.Marshal(analyzeRequest{Pages: []analysis.Page{
		{
			URL:      "https://example.com/pricing",
			Title:    "Pricing Plans",
			Markdown: "# Plans\n\nStarting at $29/month per user. Compare our pricing tiers.",
		},
	}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewReader(body))
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Submitted)
	require.Equal(t, 1, resp.Completed)
	require.Len(t, resp.Results, 1)
	require.Equal(t, analysis.PageTypePricing, resp.Results[0].PageType)
}

func TestAnalyzeEndpointRejectsBadRequests(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, config.Config{})

	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", "{", http.StatusBadRequest},
		{"no pages", `{"pages":[]}`, http.StatusBadRequest},
		{"missing url", `{"pages":[{"title":"x","markdown":"y"}]}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewBufferString(tc.body))
			srv.Handler().ServeHTTP(rec, req)
			require.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestCacheStatsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, config.Config{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/cache/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats analysis.CacheStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Zero(t, stats.Entries)
}

func TestControlEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, config.Config{})
	for path, state := range map[string]string{
		"/v1/control/pause":  "paused",
		"/v1/control/resume": "running",
		"/v1/control/stop":   "stopped",
	} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, state, resp["state"], path)
	}
}

func TestRunResultsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, config.Config{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/run-known/results", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RunID   string             `json:"run_id"`
		Results []*analysis.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "run-known", resp.RunID)
	require.Len(t, resp.Results, 1)
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, config.Config{
		Auth: config.AuthConfig{Enabled: true, APIKey: "secret"},
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-API-Key", "secret")
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz?api_key=secret", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, config.Config{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
