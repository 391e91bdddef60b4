// Package config provides centralized configuration management for the
// flight data preparation pipeline. It handles loading configuration from
// multiple sources, validation, and provides a type-safe API for the rest
// of the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Built-in defaults (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern FLIGHTPREP_* for namespacing:
//
//	FLIGHTPREP_PIPELINE_INPUT_DIR=data/raw
//	FLIGHTPREP_PIPELINE_ARTIFACT_PATH=data/clean/flights.arrow
//	FLIGHTPREP_POLICY_TARGET_COLUMN=ArrDel15
//	FLIGHTPREP_POLICY_GATE_DIMENSIONS=OriginState,Month
//	FLIGHTPREP_LOGGING_LEVEL=debug
//
// # Configuration File
//
// When no explicit path is given, Load looks for flightprep.yaml in the
// working directory and under configs/. A minimal file:
//
//	pipeline:
//	  input_dir: data/raw
//	policy:
//	  column_drop_threshold: 0.05
//
// # Policy Validation
//
// Column names referenced by the policy (the target column and the gate
// dimensions) are checked against the dataset dictionary at load time, so
// a misspelled column aborts the run before any archive is opened.
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
