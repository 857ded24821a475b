// Package config handles configuration loading and merging for buildchain.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--job, --jobs-file, --base-url, --format, --no-color, etc.)
//  2. Environment variables (BUILDCHAIN_*, NO_COLOR), including those loaded from .env
//  3. YAML config file (.buildchain.yaml in the working directory or ~/.config/buildchain/)
//  4. Hardcoded defaults
//
// When a higher-priority source sets a value, it overrides any lower-priority values.
// Relative paths in the config file are resolved against the file's directory.
//
// # Environment Variables
//
//   - BUILDCHAIN_JOBS_FILE, BUILDCHAIN_JENKINS_HOME: job name sources
//   - BUILDCHAIN_BASE_URL: prefix for generated links
//   - BUILDCHAIN_CAPTURE: last-digit (default) or first-number
//   - BUILDCHAIN_FORMAT, BUILDCHAIN_THEME: output format and theme
//   - BUILDCHAIN_NO_COLOR or NO_COLOR: disable colors
//   - BUILDCHAIN_DEBUG: enable debug logging
//   - BUILDCHAIN_METRICS_FILE: write Prometheus metrics to this file on exit
package config
