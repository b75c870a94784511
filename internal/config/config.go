package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory and
// in the user configuration directory.
const FileName = ".dotrep.yaml"

// Constants for default values.
const (
	DefaultFormat      = "terminal"
	DefaultTheme       = "default"
	DefaultLogLevel    = "info"
	DefaultConcurrency = 4
)

// RoslynReport is one SARIF report and the project that produced it.
type RoslynReport struct {
	Path    string `yaml:"path"`
	Project string `yaml:"project,omitempty"`
}

// Tests lists test report globs per report kind.
type Tests struct {
	NUnit  []string `yaml:"nunit,omitempty"`
	XUnit  []string `yaml:"xunit,omitempty"`
	VSTest []string `yaml:"vstest,omitempty"`
}

// Files selects the indexed sources.
type Files struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
	Tests   []string `yaml:"tests,omitempty"`
}

// Rules configures issue reconciliation.
type Rules struct {
	Repositories            map[string]string `yaml:"repositories,omitempty"`
	IgnoreThirdParty        bool              `yaml:"ignore_third_party"`
	OmitImpacts             bool              `yaml:"omit_impacts"`
	BugCategories           []string          `yaml:"bug_categories,omitempty"`
	CodeSmellCategories     []string          `yaml:"code_smell_categories,omitempty"`
	VulnerabilityCategories []string          `yaml:"vulnerability_categories,omitempty"`
}

// Output configures rendering.
type Output struct {
	Format  string `yaml:"format"`
	Theme   string `yaml:"theme"`
	NoColor bool   `yaml:"no_color"`
}

// AppConfig represents the contents of .dotrep.yaml.
type AppConfig struct {
	BaseDir       string         `yaml:"base_dir"`
	RoslynReports []RoslynReport `yaml:"roslyn_reports,omitempty"`
	ProtobufDirs  []string       `yaml:"protobuf_dirs,omitempty"`
	Tests         Tests          `yaml:"tests"`
	MethodFileMap string         `yaml:"method_file_map,omitempty"`
	Files         Files          `yaml:"files"`
	Rules         Rules          `yaml:"rules"`
	Output        Output         `yaml:"output"`
	LogLevel      string         `yaml:"log_level"`
	Concurrency   int            `yaml:"concurrency"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		BaseDir: ".",
		Output: Output{
			Format: DefaultFormat,
			Theme:  DefaultTheme,
		},
		LogLevel:    DefaultLogLevel,
		Concurrency: DefaultConcurrency,
	}
}

// LoadConfig reads the configuration at path, or the discovered
// configuration file when path is empty. It returns the file actually read,
// "" when the defaults are used.
func LoadConfig(path string) (*AppConfig, string, error) {
	if path == "" {
		path = getConfigPath()
		if path == "" {
			return DefaultConfig(), "", nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading config file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, "", fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, path, nil
}

// Parse validates YAML data and decodes it over the defaults.
func Parse(data []byte) (*AppConfig, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}
	return cfg, nil
}

// getConfigPath tries to find the configuration file.
// It checks the local directory first, then the user config dir.
func getConfigPath() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	configHome, err := os.UserConfigDir()
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	xdgPath := filepath.Join(configHome, "dotrep", FileName)
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}
	return ""
}

//go:embed schema.json
var schemaJSON []byte

var (
	configSchema *jsonschema.Schema
	compileOnce  sync.Once
	compileErr   error
)

func compileSchema() error {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal config schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("schema.json", doc); err != nil {
			compileErr = fmt.Errorf("add config schema resource: %w", err)
			return
		}
		configSchema, compileErr = compiler.Compile("schema.json")
	})
	return compileErr
}

// ErrInvalidConfig wraps every schema violation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks YAML data against the configuration schema.
func Validate(data []byte) error {
	if err := compileSchema(); err != nil {
		return err
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding YAML: %w", err)
	}
	if raw == nil {
		return nil
	}
	// The schema validator expects JSON values.
	js, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(js))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := configSchema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
