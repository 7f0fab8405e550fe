package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 3333, cfg.DebugPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, uint16(0xF000), cfg.Flash.Base)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	want := Config{
		DebugPort: 4444,
		Image:     "firmware.hex",
		LogLevel:  "debug",
		NoHarness: true,
		Flash:     MemoryWindow{Base: 0xE000, Size: 0x2000},
		RAM:       MemoryWindow{Base: 0x0200, Size: 0x0200},
	}

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}
