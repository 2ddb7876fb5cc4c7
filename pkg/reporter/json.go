package reporter

import (
	"encoding/json"
	"io"

	"github.com/osv-scan-agent/pkg/analysis"
	"github.com/osv-scan-agent/pkg/scanner"
	"github.com/osv-scan-agent/pkg/severity"
)

type JSONReporter struct {
	out io.Writer
}

// summaryBlock and jsonOutput are the stable machine-readable contract:
// top-level "summary" and "vulnerabilities" keys, "errors" only when
// non-empty.
type summaryBlock struct {
	TotalScanned              int                       `json:"total_scanned"`
	TotalVulnerabilitiesFound int                       `json:"total_vulnerabilities_found"`
	CountsBySeverity          map[severity.Severity]int `json:"counts_by_severity"`
}

type jsonOutput struct {
	Summary         summaryBlock                 `json:"summary"`
	Vulnerabilities []analysis.VulnerabilityInfo `json:"vulnerabilities"`
	Errors          []scanner.QueryError         `json:"errors,omitempty"`
}

func (r *JSONReporter) Report(result *scanner.ScanResult, threshold severity.Severity) error {
	filtered := Filter(result, threshold)
	if filtered == nil {
		filtered = []analysis.VulnerabilityInfo{} // serialize as [], never null
	}

	out := jsonOutput{
		Summary: summaryBlock{
			TotalScanned:              len(result.Queries),
			TotalVulnerabilitiesFound: len(filtered),
			CountsBySeverity:          CountBySeverity(filtered),
		},
		Vulnerabilities: filtered,
		Errors:          result.Errors,
	}

	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
