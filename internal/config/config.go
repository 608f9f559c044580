package config

import "time"

// Config holds the runtime tunables of the biometric core.
//
// MatchThreshold is the inclusive acceptance threshold for the gallery-mean
// similarity. PBKDF2Iterations is the key-stretching cost for template
// encryption. LivenessFailOpen preserves the documented skip-on-indeterminate
// policy; set it to false to fail verification when the detector cannot
// measure eye state.
type Config struct {
	MatchThreshold     float64
	EnrollmentCaptures int
	CountdownDuration  time.Duration
	PBKDF2Iterations   int
	LivenessFailOpen   bool
	MaxYaw             float64
	MaxRoll            float64
	StoragePath        string
}

// LoadDefaults populates c with the standard operating parameters.
func (c *Config) LoadDefaults() {
	c.MatchThreshold = 0.78
	c.EnrollmentCaptures = 5
	c.CountdownDuration = 3 * time.Second
	c.PBKDF2Iterations = 100_000
	c.LivenessFailOpen = true
	c.MaxYaw = 20
	c.MaxRoll = 15
	c.StoragePath = "facelock.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from a JSON file when one was named on the command line (-c / --config).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	return cfg
}
