// Package config handles configuration loading and merging for dotrep.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--base-dir, --format, --theme, --no-color, --log-level, --concurrency)
//  2. Environment variables (DOTREP_BASE_DIR, DOTREP_FORMAT, DOTREP_THEME,
//     DOTREP_NO_COLOR or NO_COLOR, DOTREP_LOG_LEVEL, DOTREP_CONCURRENCY,
//     DOTREP_IGNORE_THIRD_PARTY), then the same keys in <base_dir>/.env
//  3. YAML config file (.dotrep.yaml in the local directory or ~/.config/dotrep/.dotrep.yaml)
//  4. Hardcoded defaults
//
// The YAML file is validated against an embedded JSON schema before it is
// decoded; unknown keys are rejected.
//
// # Paths
//
// Report paths, protobuf directories and the method file map are resolved
// against base_dir. Test report globs stay relative to base_dir.
package config
