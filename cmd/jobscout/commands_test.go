package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avlloyd/jobscout/internal/alerts"
	"github.com/avlloyd/jobscout/internal/config"
	"github.com/avlloyd/jobscout/internal/scout"
	"github.com/avlloyd/jobscout/internal/service"
)

func TestNewServiceUsesProvidedAlertsStore(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	// Point the config at a file that does not exist so the test fails
	// if the service builds its own store from config instead of using
	// the one handed to it.
	cfg.Alerts.File = filepath.Join(t.TempDir(), "unused", "alerts.yaml")
	cfg.DB.DSN = ""

	store := alerts.NewStore(filepath.Join(t.TempDir(), "alerts.yaml"))
	require.NoError(t, store.Create(alerts.Alert{
		Name:     "paused",
		Criteria: scout.Criteria{Keywords: "go"},
		Enabled:  false,
	}))

	svc, cleanup, err := newService(context.Background(), cfg, nil, store)
	require.NoError(t, err)
	defer cleanup()

	// A disabled alert resolves without touching the network, so this
	// only succeeds when the service reads the shared store.
	result, err := svc.RunAlert(context.Background(), "paused", service.SearchOptions{})
	require.NoError(t, err)
	require.Empty(t, result.Jobs)
}
