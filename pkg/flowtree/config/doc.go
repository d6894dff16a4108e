/*
Package config loads the settings that control how flows are run.

# Overview

Settings cover the run logger, OpenTelemetry tracing and metrics, the
default bound on parallel branches and the report archive. Files are read
over Defaults, so a file only needs the fields it changes.

# File Format

	logging:
	  level: debug        # debug, info, warn, error, off
	  format: json        # text, json
	tracing: true
	metrics: false
	parallel:
	  max_concurrency: 8  # 0 = unbounded
	archive:
	  driver: sqlite      # "", memory, sqlite
	  path: ./runs.db

# Basic Usage

	settings, err := config.FromFile("flowtree.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	// Or load from bytes
	settings, err = config.FromYAML(yamlBytes)
	settings, err = config.FromJSON(jsonBytes)

	logger, err := settings.NewLogger(os.Stderr)

flowtree.OptionsFromSettings turns Settings into run options, and
archive.Open opens the configured archive.

# Validation

FromFile, FromYAML and FromJSON reject unknown fields and validate the
result; Validate reports every invalid field at once.
*/
package config
