package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Server.Addr = ":9090"
	cfg.Matching.MinConfidence = 0.8
	cfg.Workers = 4

	path := filepath.Join(t.TempDir(), "reconcile.yaml")
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", got.Server.Addr)
	assert.InDelta(t, 0.8, got.Matching.MinConfidence, 0.001)
	assert.Equal(t, 4, got.Workers)
	assert.InDelta(t, 1.0, got.Matching.Weights.Sum(), 1e-9)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 1, cfg.Workers)
	assert.InDelta(t, 0.7, cfg.Matching.MinConfidence, 0.001)
	assert.InDelta(t, 0.5, cfg.Matching.Weights.Exact, 0.001)
	assert.Equal(t, 7, cfg.Matching.WindowDays)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reconcile.yaml")
	partial := "matching:\n  min_confidence: 0.85\n"
	require.NoError(t, os.WriteFile(path, []byte(partial), 0o644))

	got, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.85, got.Matching.MinConfidence, 0.001)
	assert.Equal(t, ":8080", got.Server.Addr, "untouched keys keep defaults")
	assert.InDelta(t, 0.3, got.Matching.Weights.Fuzzy, 0.001)
}

func TestLoadRejectsBadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reconcile.yaml")
	bad := "matching:\n  weights:\n    exact: 0.9\n    fuzzy: 0.9\n"
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOrDefaultEmptyPath(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
