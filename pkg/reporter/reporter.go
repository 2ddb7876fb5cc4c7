package reporter

import (
	"io"

	"github.com/osv-scan-agent/pkg/analysis"
	"github.com/osv-scan-agent/pkg/scanner"
	"github.com/osv-scan-agent/pkg/severity"
)

type Reporter interface {
	Report(result *scanner.ScanResult, threshold severity.Severity) error
}

func New(format string, out io.Writer) Reporter {
	switch format {
	case "json":
		return &JSONReporter{out: out}
	case "sarif":
		return &SARIFReporter{out: out}
	default:
		return &TextReporter{out: out}
	}
}

// Filter returns the findings at or above threshold, preserving discovery
// order. The fail-on-vulnerabilities gate uses the same filter, so the exit
// code and the report always agree.
func Filter(result *scanner.ScanResult, threshold severity.Severity) []analysis.VulnerabilityInfo {
	var kept []analysis.VulnerabilityInfo
	for _, v := range result.Vulnerabilities {
		if severity.MeetsOrExceeds(v.Severity, threshold) {
			kept = append(kept, v)
		}
	}
	return kept
}

// CountBySeverity tallies findings per level; every reportable level is
// present in the map, zero or not.
func CountBySeverity(infos []analysis.VulnerabilityInfo) map[severity.Severity]int {
	counts := make(map[severity.Severity]int, 4)
	for _, level := range severity.Levels() {
		counts[level] = 0
	}
	for _, v := range infos {
		counts[v.Severity]++
	}
	return counts
}
