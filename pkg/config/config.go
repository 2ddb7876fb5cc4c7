package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/osv-scan-agent/pkg/osv"
	"github.com/osv-scan-agent/pkg/severity"
)

type Config struct {
	Severity  string `yaml:"severity"`
	Output    string `yaml:"output"`
	OSVServer string `yaml:"osv_server"`
	Model     string `yaml:"model"`
	Ignore    Ignore `yaml:"ignore"`

	// flag-only inputs
	APIKey     string `yaml:"-"`
	OutputFile string `yaml:"-"`
	FailOnVuln bool   `yaml:"-"`

	// invocation-mode inputs, mutually exclusive (flag-only)
	Package         string `yaml:"-"`
	Ecosystem       string `yaml:"-"`
	Version         string `yaml:"-"`
	Packages        string `yaml:"-"`
	PackagesFile    string `yaml:"-"`
	VulnerabilityID string `yaml:"-"`
}

type Ignore struct {
	Advisories []string `yaml:"advisories"`
	Packages   []string `yaml:"packages"`
}

// Mode is the invocation shape selected by which inputs are present.
type Mode int

const (
	ModeInvalid Mode = iota
	ModeSinglePackage
	ModeBatchInline
	ModeBatchFile
	ModeVulnerabilityLookup
)

func Default() *Config {
	return &Config{
		Severity:  string(severity.Low),
		Output:    "text",
		OSVServer: osv.DefaultServerURL,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeFlags overlays CLI flags onto the config; flags win over file values.
func MergeFlags(cfg *Config, flags *pflag.FlagSet) *Config {
	if v, err := flags.GetString("severity-threshold"); err == nil && v != "" {
		cfg.Severity = v
	}
	if v, err := flags.GetString("output-format"); err == nil && v != "" {
		cfg.Output = v
	}
	if v, err := flags.GetString("output-file"); err == nil && v != "" {
		cfg.OutputFile = v
	}
	if v, err := flags.GetString("osv-server"); err == nil && v != "" {
		cfg.OSVServer = v
	}
	if v, err := flags.GetString("model"); err == nil && v != "" {
		cfg.Model = v
	}
	if v, err := flags.GetString("api-key"); err == nil && v != "" {
		cfg.APIKey = v
	}
	if v, err := flags.GetBool("fail-on-vulnerabilities"); err == nil {
		cfg.FailOnVuln = v
	}
	if v, err := flags.GetString("package"); err == nil && v != "" {
		cfg.Package = v
	}
	if v, err := flags.GetString("ecosystem"); err == nil && v != "" {
		cfg.Ecosystem = v
	}
	if v, err := flags.GetString("version"); err == nil && v != "" {
		cfg.Version = v
	}
	if v, err := flags.GetString("packages"); err == nil && v != "" {
		cfg.Packages = v
	}
	if v, err := flags.GetString("packages-file"); err == nil && v != "" {
		cfg.PackagesFile = v
	}
	if v, err := flags.GetString("vulnerability-id"); err == nil && v != "" {
		cfg.VulnerabilityID = v
	}
	return cfg
}

// Mode returns the single active invocation mode, or an error when zero or
// more than one is selected. A partially specified package triple is invalid.
func (c *Config) Mode() (Mode, error) {
	singleAny := c.Package != "" || c.Ecosystem != "" || c.Version != ""
	singleAll := c.Package != "" && c.Ecosystem != "" && c.Version != ""
	if singleAny && !singleAll {
		return ModeInvalid, fmt.Errorf("single-package mode needs --package, --ecosystem and --version together")
	}

	var (
		mode  Mode
		count int
	)
	if singleAll {
		mode = ModeSinglePackage
		count++
	}
	if c.Packages != "" {
		mode = ModeBatchInline
		count++
	}
	if c.PackagesFile != "" {
		mode = ModeBatchFile
		count++
	}
	if c.VulnerabilityID != "" {
		mode = ModeVulnerabilityLookup
		count++
	}

	switch count {
	case 0:
		return ModeInvalid, fmt.Errorf("specify exactly one of: single package, --packages, --packages-file, or --vulnerability-id")
	case 1:
		return mode, nil
	default:
		return ModeInvalid, fmt.Errorf("conflicting scan modes: specify exactly one of single package, --packages, --packages-file, or --vulnerability-id")
	}
}

// Validate checks everything that must hold before any remote call is made.
func (c *Config) Validate() error {
	if _, err := c.Mode(); err != nil {
		return err
	}
	if !severity.Valid(c.Severity) {
		return fmt.Errorf("invalid severity threshold %q: want low, medium, high or critical", c.Severity)
	}
	switch c.Output {
	case "json", "text", "sarif":
	default:
		return fmt.Errorf("invalid output format %q: want json, text or sarif", c.Output)
	}
	if c.APIKey == "" {
		return fmt.Errorf("model API key required: pass --api-key or set OPENAI_API_KEY")
	}
	return nil
}

// IsIgnoredAdvisory reports whether an advisory ID (or one of its aliases)
// appears in the ignore list.
func (c *Config) IsIgnoredAdvisory(id string, aliases []string) bool {
	for _, ignored := range c.Ignore.Advisories {
		if ignored == id {
			return true
		}
		for _, alias := range aliases {
			if ignored == alias {
				return true
			}
		}
	}
	return false
}

func (c *Config) IsIgnoredPackage(name string) bool {
	for _, pkg := range c.Ignore.Packages {
		if pkg == name {
			return true
		}
	}
	return false
}
