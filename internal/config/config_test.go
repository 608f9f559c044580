package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()

	assert.Equal(t, 0.78, cfg.MatchThreshold)
	assert.Equal(t, 5, cfg.EnrollmentCaptures)
	assert.Equal(t, 3*time.Second, cfg.CountdownDuration)
	assert.Equal(t, 100_000, cfg.PBKDF2Iterations)
	assert.True(t, cfg.LivenessFailOpen)
	assert.Equal(t, "facelock.db", cfg.StoragePath)
}

func TestLoadConfig_NoFlags(t *testing.T) {
	orig := os.Args
	defer func() { os.Args = orig }()
	os.Args = []string{"facelock"}

	cfg := LoadConfig()
	assert.Equal(t, 0.78, cfg.MatchThreshold)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"match_threshold": 0.85,
		"countdown_duration": "5s",
		"liveness_fail_open": false
	}`), 0o600))

	orig := os.Args
	defer func() { os.Args = orig }()
	os.Args = []string{"facelock", "-c", path}

	cfg := LoadConfig()

	// Overlaid values.
	assert.Equal(t, 0.85, cfg.MatchThreshold)
	assert.Equal(t, 5*time.Second, cfg.CountdownDuration)
	assert.False(t, cfg.LivenessFailOpen)

	// Values absent from the file keep their defaults.
	assert.Equal(t, 5, cfg.EnrollmentCaptures)
	assert.Equal(t, 100_000, cfg.PBKDF2Iterations)
}

func TestLoadConfig_BadJsonPanics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	orig := os.Args
	defer func() { os.Args = orig }()
	os.Args = []string{"facelock", "-c", path}

	assert.Panics(t, func() { LoadConfig() })
}
