package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("package", "", "")
	flags.String("ecosystem", "", "")
	flags.String("version", "", "")
	flags.String("packages", "", "")
	flags.String("packages-file", "", "")
	flags.String("vulnerability-id", "", "")
	flags.String("osv-server", "", "")
	flags.String("api-key", "", "")
	flags.String("model", "", "")
	flags.String("output-format", "", "")
	flags.String("output-file", "", "")
	flags.String("severity-threshold", "", "")
	flags.Bool("fail-on-vulnerabilities", false, "")
	return flags
}

func validScanConfig() *Config {
	cfg := Default()
	cfg.Package = "requests"
	cfg.Ecosystem = "PyPI"
	cfg.Version = "2.25.0"
	cfg.APIKey = "test-key"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "low", cfg.Severity)
	assert.Equal(t, "text", cfg.Output)
	assert.Equal(t, "http://localhost:8080", cfg.OSVServer)
}

func TestMode(t *testing.T) {
	t.Run("single package", func(t *testing.T) {
		mode, err := validScanConfig().Mode()
		require.NoError(t, err)
		assert.Equal(t, ModeSinglePackage, mode)
	})

	t.Run("partial triple is invalid", func(t *testing.T) {
		cfg := Default()
		cfg.Package = "requests"
		cfg.APIKey = "k"
		_, err := cfg.Mode()
		assert.Error(t, err)
	})

	t.Run("no mode selected", func(t *testing.T) {
		_, err := Default().Mode()
		assert.Error(t, err)
	})

	t.Run("vulnerability id and package conflict", func(t *testing.T) {
		cfg := validScanConfig()
		cfg.VulnerabilityID = "GHSA-9hjg-9r4m-mvj7"
		_, err := cfg.Mode()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "conflicting")
	})

	t.Run("each batch mode", func(t *testing.T) {
		cfg := Default()
		cfg.Packages = "requests:PyPI:2.25.0"
		mode, err := cfg.Mode()
		require.NoError(t, err)
		assert.Equal(t, ModeBatchInline, mode)

		cfg = Default()
		cfg.PackagesFile = "packages.json"
		mode, err = cfg.Mode()
		require.NoError(t, err)
		assert.Equal(t, ModeBatchFile, mode)

		cfg = Default()
		cfg.VulnerabilityID = "CVE-2021-23337"
		mode, err = cfg.Mode()
		require.NoError(t, err)
		assert.Equal(t, ModeVulnerabilityLookup, mode)
	})
}

func TestValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, validScanConfig().Validate())
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := validScanConfig()
		cfg.APIKey = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key")
	})

	t.Run("bad severity", func(t *testing.T) {
		cfg := validScanConfig()
		cfg.Severity = "severe"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad output format", func(t *testing.T) {
		cfg := validScanConfig()
		cfg.Output = "xml"
		assert.Error(t, cfg.Validate())
	})
}

func TestMergeFlags(t *testing.T) {
	flags := testFlags()
	require.NoError(t, flags.Set("severity-threshold", "high"))
	require.NoError(t, flags.Set("output-format", "json"))
	require.NoError(t, flags.Set("api-key", "from-flag"))
	require.NoError(t, flags.Set("fail-on-vulnerabilities", "true"))
	require.NoError(t, flags.Set("vulnerability-id", "GHSA-9hjg-9r4m-mvj7"))

	cfg := MergeFlags(Default(), flags)
	assert.Equal(t, "high", cfg.Severity)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "from-flag", cfg.APIKey)
	assert.True(t, cfg.FailOnVuln)
	assert.Equal(t, "GHSA-9hjg-9r4m-mvj7", cfg.VulnerabilityID)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".osv-scan.yml")
	content := []byte("severity: high\nosv_server: http://localhost:3000\nignore:\n  advisories:\n    - GHSA-aaaa-bbbb-cccc\n  packages:\n    - leftpad\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "high", cfg.Severity)
	assert.Equal(t, "http://localhost:3000", cfg.OSVServer)
	assert.Equal(t, "text", cfg.Output) // default survives partial file
	assert.True(t, cfg.IsIgnoredAdvisory("GHSA-aaaa-bbbb-cccc", nil))
	assert.True(t, cfg.IsIgnoredPackage("leftpad"))
}

func TestIsIgnoredAdvisoryAliases(t *testing.T) {
	cfg := Default()
	cfg.Ignore.Advisories = []string{"CVE-2021-23337"}
	assert.True(t, cfg.IsIgnoredAdvisory("GHSA-35jh-r3h4-6jhm", []string{"CVE-2021-23337"}))
	assert.False(t, cfg.IsIgnoredAdvisory("GHSA-other", []string{"CVE-2020-0001"}))
}
