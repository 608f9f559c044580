package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/facelock/internal/flagx"
	"github.com/dmitrijs2005/facelock/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration so the file can say "3s" or integer nanoseconds. Pointer
// fields distinguish "absent" from zero so the overlay only touches what the
// file actually sets.
type JsonConfig struct {
	MatchThreshold     *float64        `json:"match_threshold"`
	EnrollmentCaptures *int            `json:"enrollment_captures"`
	CountdownDuration  *timex.Duration `json:"countdown_duration"`
	PBKDF2Iterations   *int            `json:"pbkdf2_iterations"`
	LivenessFailOpen   *bool           `json:"liveness_fail_open"`
	MaxYaw             *float64        `json:"max_yaw"`
	MaxRoll            *float64        `json:"max_roll"`
	StoragePath        *string         `json:"storage_path"`
}

// parseJson overlays cfg with values from the JSON file named by -c/--config.
// Missing flag means no overlay. Read or unmarshal errors panic; the caller
// may recover if a softer failure mode is wanted.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	applyJson(cfg, &jc)
}

func applyJson(cfg *Config, jc *JsonConfig) {
	if jc.MatchThreshold != nil {
		cfg.MatchThreshold = *jc.MatchThreshold
	}
	if jc.EnrollmentCaptures != nil {
		cfg.EnrollmentCaptures = *jc.EnrollmentCaptures
	}
	if jc.CountdownDuration != nil {
		cfg.CountdownDuration = jc.CountdownDuration.Duration
	}
	if jc.PBKDF2Iterations != nil {
		cfg.PBKDF2Iterations = *jc.PBKDF2Iterations
	}
	if jc.LivenessFailOpen != nil {
		cfg.LivenessFailOpen = *jc.LivenessFailOpen
	}
	if jc.MaxYaw != nil {
		cfg.MaxYaw = *jc.MaxYaw
	}
	if jc.MaxRoll != nil {
		cfg.MaxRoll = *jc.MaxRoll
	}
	if jc.StoragePath != nil {
		cfg.StoragePath = *jc.StoragePath
	}
}
