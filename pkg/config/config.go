// Package config loads the workspace configuration (config.yaml): remote
// end, application URL, credentials, locator files and artifact policy.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

// Duration wraps time.Duration for YAML values like "30s" or "2m".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Browser session
	RemoteURL string `yaml:"remoteUrl" validate:"required,url"`
	BaseURL   string `yaml:"baseUrl" validate:"required,url"`
	Browser   string `yaml:"browser" validate:"omitempty,oneof=chrome firefox edge safari"`
	Headless  bool   `yaml:"headless"`
	Window    Window `yaml:"window"`

	// Application credentials
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Bootstrap and wait settings
	Retries int      `yaml:"retries" validate:"gte=0,lte=10"` // extra bootstrap attempts
	Timeout Duration `yaml:"timeout"`                         // default wait timeout

	// Locator YAML files, loaded in order so later files override.
	Locators []string `yaml:"locators"`

	// Artifacts
	OutputDir string              `yaml:"outputDir"`
	Artifacts core.ArtifactConfig `yaml:"artifacts"`

	// Rest is the management REST endpoint for fixture setup/teardown,
	// distinct from the UI base URL.
	Rest Rest `yaml:"rest"`
}

// Window is the initial browser window size. Zero keeps the browser default.
type Window struct {
	Width  int `yaml:"width" validate:"gte=0,lte=7680"`
	Height int `yaml:"height" validate:"gte=0,lte=4320"`
}

// Rest configures the management REST endpoint.
type Rest struct {
	URL      string `yaml:"url" validate:"omitempty,url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Default returns the configuration defaults applied before YAML decoding.
func Default() *Config {
	return &Config{
		Browser:   "chrome",
		Retries:   2,
		Timeout:   Duration(10 * time.Second),
		OutputDir: "artifacts",
		Artifacts: core.DefaultArtifactConfig(),
	}
}

// Load loads and validates configuration from a file. YAML values override
// the defaults field by field.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
// A missing file is not an error; validation then runs on pure defaults
// and reports the required fields.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and wraps violations in the config
// error code so callers can branch on errors.Is.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return core.ErrInvalidConfig.WithCause(err)
	}
	return nil
}
