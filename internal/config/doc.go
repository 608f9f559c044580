// Package config loads runtime configuration for the facelock CLI and the
// biometric core.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via flags: -c or --config.
//  3. Command-line flags on the individual CLI subcommands, which override
//     earlier values.
//
// # JSON schema
//
// Durations accept either strings like "3s" or integer nanoseconds:
//
//	{
//	  "match_threshold": 0.78,
//	  "enrollment_captures": 5,
//	  "countdown_duration": "3s",
//	  "pbkdf2_iterations": 100000,
//	  "liveness_fail_open": true,
//	  "max_yaw": 20,
//	  "max_roll": 15,
//	  "storage_path": "facelock.db"
//	}
//
// Note: this package does not read environment variables; use the JSON file
// or flags to configure values.
package config
