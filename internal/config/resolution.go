package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Priority order (highest to lowest):
//  1. CLI flags (--base-dir, --format, --theme, --no-color, --log-level, --concurrency)
//  2. Environment variables (DOTREP_*, NO_COLOR), then a .env file in the base directory
//  3. .dotrep.yaml
//  4. Defaults
const (
	SourceCLI     = "cli"
	SourceEnv     = "env"
	SourceFile    = "file"
	SourceDefault = "default"
)

// CliFlags holds the values of command-line flags.
type CliFlags struct {
	ConfigFile  string
	BaseDir     string
	Format      string
	Theme       string
	LogLevel    string
	NoColor     bool
	Concurrency int

	// NoColorSet tracks whether --no-color was given explicitly.
	NoColorSet bool
}

// ResolvedConfig is the configuration after applying every source. Paths
// are absolute.
type ResolvedConfig struct {
	AppConfig

	ConfigFile string

	BaseDirSource  string
	FormatSource   string
	ThemeSource    string
	NoColorSource  string
	LogLevelSource string
}

// env looks variables up in the process environment, then in the .env file.
type env struct {
	dotenv map[string]string
}

func (e env) get(keys ...string) (string, bool) {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val, true
		}
	}
	for _, key := range keys {
		if val := e.dotenv[key]; val != "" {
			return val, true
		}
	}
	return "", false
}

// getBool returns nil unless one of keys holds a valid boolean.
func (e env) getBool(keys ...string) *bool {
	val, ok := e.get(keys...)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}
	return &b
}

// ResolveConfig resolves configuration from all sources.
func ResolveConfig(flags CliFlags) (*ResolvedConfig, error) {
	appCfg, path, err := LoadConfig(flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	fileSet := path != ""
	source := func() string {
		if fileSet {
			return SourceFile
		}
		return SourceDefault
	}

	resolved := &ResolvedConfig{
		AppConfig:      *appCfg,
		ConfigFile:     path,
		BaseDirSource:  source(),
		FormatSource:   source(),
		ThemeSource:    source(),
		NoColorSource:  source(),
		LogLevelSource: source(),
	}

	// The base directory is resolved first: it locates the .env file.
	e := env{}
	switch {
	case flags.BaseDir != "":
		resolved.BaseDir, resolved.BaseDirSource = flags.BaseDir, SourceCLI
	case os.Getenv("DOTREP_BASE_DIR") != "":
		resolved.BaseDir, resolved.BaseDirSource = os.Getenv("DOTREP_BASE_DIR"), SourceEnv
	}
	base, err := filepath.Abs(resolved.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving base_dir %s: %w", resolved.BaseDir, err)
	}
	resolved.BaseDir = base
	dotenv, err := godotenv.Read(filepath.Join(base, ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", filepath.Join(base, ".env"), err)
	}
	e.dotenv = dotenv

	resolveString(&resolved.Output.Format, &resolved.FormatSource, flags.Format, e, "DOTREP_FORMAT")
	resolveString(&resolved.Output.Theme, &resolved.ThemeSource, flags.Theme, e, "DOTREP_THEME")
	resolveString(&resolved.LogLevel, &resolved.LogLevelSource, flags.LogLevel, e, "DOTREP_LOG_LEVEL")

	if flags.NoColorSet {
		resolved.Output.NoColor = flags.NoColor
		resolved.NoColorSource = SourceCLI
	} else if b := e.getBool("DOTREP_NO_COLOR", "NO_COLOR"); b != nil {
		resolved.Output.NoColor = *b
		resolved.NoColorSource = SourceEnv
	}
	if b := e.getBool("DOTREP_IGNORE_THIRD_PARTY"); b != nil {
		resolved.Rules.IgnoreThirdParty = *b
	}

	if flags.Concurrency > 0 {
		resolved.Concurrency = flags.Concurrency
	} else if v, ok := e.get("DOTREP_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DOTREP_CONCURRENCY value %q: %w", v, err)
		}
		resolved.Concurrency = n
	}

	resolved.absPaths()
	if err := validateResolvedConfig(resolved); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return resolved, nil
}

func resolveString(dst, src *string, flag string, e env, keys ...string) {
	if flag != "" {
		*dst, *src = flag, SourceCLI
		return
	}
	if v, ok := e.get(keys...); ok {
		*dst, *src = v, SourceEnv
	}
}

// Abs resolves p against the base directory.
func (c *ResolvedConfig) Abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

func (c *ResolvedConfig) absPaths() {
	reports := make([]RoslynReport, len(c.RoslynReports))
	for i, r := range c.RoslynReports {
		reports[i] = RoslynReport{Path: c.Abs(r.Path), Project: r.Project}
	}
	c.RoslynReports = reports
	dirs := make([]string, len(c.ProtobufDirs))
	for i, d := range c.ProtobufDirs {
		dirs[i] = c.Abs(d)
	}
	c.ProtobufDirs = dirs
	c.MethodFileMap = c.Abs(c.MethodFileMap)
}

var (
	validFormats = []string{"terminal", "json", "sarif"}
	validThemes  = []string{"default", "orca", "mono"}
	validLevels  = []string{"debug", "info", "warn", "error"}
)

func oneOf(name, value string, valid []string) error {
	for _, v := range valid {
		if v == value {
			return nil
		}
	}
	return fmt.Errorf("invalid %s value: %s (must be: %s)", name, value, strings.Join(valid, ", "))
}

// validateResolvedConfig checks values that environment variables and flags
// may have introduced after schema validation.
func validateResolvedConfig(cfg *ResolvedConfig) error {
	if err := oneOf("format", cfg.Output.Format, validFormats); err != nil {
		return err
	}
	if err := oneOf("theme", cfg.Output.Theme, validThemes); err != nil {
		return err
	}
	if err := oneOf("log_level", cfg.LogLevel, validLevels); err != nil {
		return err
	}
	if cfg.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got: %d", cfg.Concurrency)
	}
	return nil
}
