package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/osv-scan-agent/pkg/analysis"
	"github.com/osv-scan-agent/pkg/config"
	"github.com/osv-scan-agent/pkg/exitcode"
	"github.com/osv-scan-agent/pkg/osv"
	"github.com/osv-scan-agent/pkg/packlist"
	"github.com/osv-scan-agent/pkg/reporter"
	"github.com/osv-scan-agent/pkg/scanner"
	"github.com/osv-scan-agent/pkg/severity"
)

// scanExit is set by run and consumed by main once every deferred release
// (MCP session, output file) has unwound.
var scanExit = exitcode.Success

func main() {
	// .env loading must happen before flag registration: several flag
	// defaults are read from the environment.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "osv-scan-agent",
		Short: "Scan packages for known vulnerabilities via an OSV tool server",
		Long: `Queries an OSV (Open Source Vulnerabilities) MCP tool server for known
vulnerabilities in packages, classifies the results with a language model,
and emits a report. Exit codes: 0 clean, 1 findings at or above the
threshold with --fail-on-vulnerabilities set, 2 configuration error.`,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.Flags()
	flags.String("package", "", "Package name to scan (with --ecosystem and --version)")
	flags.String("ecosystem", "", "Package ecosystem (PyPI, npm, Go, Maven, ...)")
	flags.String("version", "", "Package version to scan")
	flags.String("packages", "", "Comma-separated packages as name:ecosystem:version")
	flags.String("packages-file", "", "JSON file with packages to scan")
	flags.String("vulnerability-id", "", "Look up a single vulnerability by ID")
	flags.String("osv-server", os.Getenv("OSV_MCP_SERVER"), fmt.Sprintf("OSV MCP server URL (default %s)", osv.DefaultServerURL))
	flags.String("api-key", os.Getenv("OPENAI_API_KEY"), "Model API key (or OPENAI_API_KEY env var)")
	flags.String("model", "", "Model used for classification")
	flags.String("output-format", "", "Output format: json | text | sarif")
	flags.String("output-file", "", "Write the report to a file instead of stdout")
	flags.String("severity-threshold", "", "Minimum severity to report: low | medium | high | critical")
	flags.Bool("fail-on-vulnerabilities", false, "Exit 1 when findings meet the threshold (CI gate)")
	flags.String("config", ".osv-scan.yml", "Path to config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitcode.ConfigError)
	}
	os.Exit(scanExit)
}

func run(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	cfgPath, _ := flags.GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if flags.Changed("config") {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = config.Default() // the default config file is optional
	}
	cfg = config.MergeFlags(cfg, flags)

	if err := cfg.Validate(); err != nil {
		return err
	}
	mode, _ := cfg.Mode()
	threshold := severity.Normalize(cfg.Severity)

	// Resolve every input before the first remote call.
	var (
		queries   []osv.PackageQuery
		inputErrs []string
	)
	switch mode {
	case config.ModeSinglePackage:
		queries = []osv.PackageQuery{{Name: cfg.Package, Ecosystem: cfg.Ecosystem, Version: cfg.Version}}
	case config.ModeBatchInline:
		queries, err = packlist.ParseInline(cfg.Packages)
		if err != nil {
			return err
		}
	case config.ModeBatchFile:
		queries, inputErrs, err = packlist.ParseFile(cfg.PackagesFile)
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	client := osv.NewClient(cfg.OSVServer)
	sc := scanner.New(client, analysis.NewOpenAIClassifier(cfg.APIKey, cfg.Model), cfg)

	var result *scanner.ScanResult
	if err := client.Connect(ctx); err != nil {
		// Transport failures are visibility, not process failure: report
		// them per query and keep the exit-code contract intact.
		result = &scanner.ScanResult{}
		if mode == config.ModeVulnerabilityLookup {
			result.Queries = []string{cfg.VulnerabilityID}
			result.AddError(cfg.VulnerabilityID, scanner.StageQuery, err.Error())
		} else {
			for _, q := range queries {
				result.Queries = append(result.Queries, q.Label())
				result.AddError(q.Label(), scanner.StageQuery, err.Error())
			}
		}
	} else {
		defer client.Close()
		if mode == config.ModeVulnerabilityLookup {
			result = sc.LookupID(ctx, cfg.VulnerabilityID)
		} else {
			result = sc.ScanBatch(ctx, queries)
		}
	}

	for _, msg := range inputErrs {
		result.AddError(cfg.PackagesFile, scanner.StageInput, msg)
	}

	out := io.Writer(os.Stdout)
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := reporter.New(cfg.Output, out).Report(result, threshold); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if cfg.OutputFile != "" {
		fmt.Printf("Results written to %s\n", cfg.OutputFile)
	}

	scanExit = exitcode.ForScan(cfg.FailOnVuln, len(reporter.Filter(result, threshold)))
	if scanExit == exitcode.VulnerabilitiesFound {
		fmt.Fprintf(os.Stderr, "vulnerabilities found at or above the %s severity threshold\n", threshold)
	}
	return nil
}
