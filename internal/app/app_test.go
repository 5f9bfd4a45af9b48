package app_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens/internal/analysis"
	"github.com/pagelens/pagelens/internal/app"
	"github.com/pagelens/pagelens/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestNewBuildsWorkingContainer(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), testConfig(t), app.Options{
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Logger())
	require.NotNil(t, a.Store())
	require.NotNil(t, a.Hub())

	results, err := a.Orchestrator().Analyze(context.Background(), []analysis.Page{
		{
			URL:      "https://example.com/docs/install",
			Title:    "Installation Guide",
			Markdown: "# Install\n\nRun the installer and follow the steps.\n\n```\ninstall --all\n```",
		},
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Contains(t, analysis.PageTypes, results[0].PageType)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Analysis.BatchSize = -1
	_, err := app.New(context.Background(), cfg, app.Options{
		Registerer: prometheus.NewRegistry(),
	})
	require.Error(t, err)
}

func TestCloseIsSafe(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), testConfig(t), app.Options{
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	a.Close()

	_, err = a.Orchestrator().Analyze(context.Background(), []analysis.Page{{URL: "https://example.com"}}, nil)
	require.Error(t, err)
}
