package reporter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/osv-scan-agent/pkg/analysis"
	"github.com/osv-scan-agent/pkg/scanner"
	"github.com/osv-scan-agent/pkg/severity"
)

// SARIFReporter renders findings as SARIF 2.1.0 for CI code-scanning
// ingestion. Per-query errors become tool notifications.
type SARIFReporter struct {
	out io.Writer
}

func (r *SARIFReporter) Report(result *scanner.ScanResult, threshold severity.Severity) error {
	filtered := Filter(result, threshold)

	sarif := map[string]interface{}{
		"$schema": "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		"version": "2.1.0",
		"runs": []map[string]interface{}{
			{
				"tool": map[string]interface{}{
					"driver": map[string]interface{}{
						"name":           "osv-scan-agent",
						"informationUri": "https://osv.dev",
						"rules":          buildRules(filtered),
					},
				},
				"results":     buildResults(filtered),
				"invocations": buildInvocations(result.Errors),
			},
		},
	}

	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(sarif)
}

func buildRules(filtered []analysis.VulnerabilityInfo) []map[string]interface{} {
	rules := make([]map[string]interface{}, 0, len(filtered))
	for _, v := range filtered {
		rules = append(rules, map[string]interface{}{
			"id":               v.ID,
			"shortDescription": map[string]string{"text": v.Summary},
		})
	}
	return rules
}

func buildResults(filtered []analysis.VulnerabilityInfo) []map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(filtered))
	for _, v := range filtered {
		results = append(results, map[string]interface{}{
			"ruleId": v.ID,
			"level":  sarifLevel(v.Severity),
			"message": map[string]string{
				"text": fmt.Sprintf("%s affects %s (%s). %s", v.ID, v.AffectedPackage, v.AffectedEcosystem, v.Recommendation),
			},
		})
	}
	return results
}

func buildInvocations(errs []scanner.QueryError) []map[string]interface{} {
	notifications := make([]map[string]interface{}, 0, len(errs))
	for _, e := range errs {
		notifications = append(notifications, map[string]interface{}{
			"level":   "error",
			"message": map[string]string{"text": fmt.Sprintf("%s (%s): %s", e.Query, e.Stage, e.Message)},
		})
	}
	return []map[string]interface{}{
		{
			"executionSuccessful":        true,
			"toolExecutionNotifications": notifications,
		},
	}
}

func sarifLevel(s severity.Severity) string {
	switch s {
	case severity.Critical, severity.High:
		return "error"
	case severity.Medium:
		return "warning"
	default:
		return "note"
	}
}
