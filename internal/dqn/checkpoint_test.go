package dqn

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmai/trictrac/internal/randutil"
)

func TestCheckpointRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	net := NewNetwork(cfg.StateSize, cfg.HiddenSize, cfg.ActionSize, randutil.New(5))
	path := filepath.Join(t.TempDir(), "model")

	require.NoError(t, SaveCheckpoint(path, net, cfg))

	loaded, loadedCfg, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loadedCfg)

	input := make([]float64, cfg.StateSize)
	for i := range input {
		input[i] = float64(i%7) - 3
	}
	assert.Equal(t, net.Infer(input), loaded.Infer(input))
}

func TestCheckpointRefusesMismatchedConfig(t *testing.T) {
	cfg := DefaultConfig()
	net := NewNetwork(cfg.StateSize, cfg.HiddenSize, cfg.ActionSize, randutil.New(5))
	path := filepath.Join(t.TempDir(), "model")
	require.NoError(t, SaveCheckpoint(path, net, cfg))

	// A config claiming a different environment must be refused.
	bad := cfg
	bad.StateSize = 40
	require.NoError(t, SaveCheckpoint(path+"-bad", net, bad))
	_, _, err := LoadCheckpoint(path + "-bad")
	assert.Error(t, err)
}

func TestCheckpointRejectsCorruptData(t *testing.T) {
	_, _, err := LoadCheckpoint(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
