// Package config provides configuration structures and utilities for flightdash.
// It defines the runtime options, the optional YAML settings file, the JSON
// search query file and the environment lookup for the RapidAPI key.
package config
