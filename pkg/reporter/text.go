package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/osv-scan-agent/pkg/scanner"
	"github.com/osv-scan-agent/pkg/severity"
)

type TextReporter struct {
	out io.Writer
}

func (r *TextReporter) Report(result *scanner.ScanResult, threshold severity.Severity) error {
	filtered := Filter(result, threshold)
	counts := CountBySeverity(filtered)

	fmt.Fprintln(r.out, "Vulnerability Scan Report")
	fmt.Fprintln(r.out, "=========================")
	fmt.Fprintf(r.out, "Scanned %d target(s), severity threshold: %s\n", len(result.Queries), threshold)

	if len(filtered) == 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, "No vulnerabilities at or above the threshold.")
	}

	// Sections highest severity first; discovery order within a section.
	for _, level := range severity.LevelsDescending() {
		if counts[level] == 0 {
			continue
		}
		header := strings.ToUpper(string(level))
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, header)
		fmt.Fprintln(r.out, strings.Repeat("-", len(header)))
		for _, v := range filtered {
			if v.Severity != level {
				continue
			}
			fmt.Fprintf(r.out, "%s  %s@%s (%s)\n", v.ID, v.AffectedPackage, versionDisplay(v.AffectedVersions), v.AffectedEcosystem)
			if v.Description != "" {
				fmt.Fprintf(r.out, "  %s\n", v.Description)
			} else if v.Summary != "" {
				fmt.Fprintf(r.out, "  %s\n", v.Summary)
			}
			fmt.Fprintf(r.out, "  Recommendation: %s\n", v.Recommendation)
		}
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, "Errors")
		fmt.Fprintln(r.out, "------")
		for _, e := range result.Errors {
			fmt.Fprintf(r.out, "%s: %s: %s\n", e.Query, e.Stage, e.Message)
		}
	}

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "Total: %d (critical: %d, high: %d, medium: %d, low: %d)\n",
		len(filtered),
		counts[severity.Critical],
		counts[severity.High],
		counts[severity.Medium],
		counts[severity.Low],
	)
	return nil
}

func versionDisplay(versions []string) string {
	if len(versions) == 0 {
		return "?"
	}
	if len(versions) == 1 {
		return versions[0]
	}
	return versions[0] + ".." + versions[len(versions)-1]
}
