package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/osv-scan-agent/pkg/osv"
)

const systemPrompt = `You are a security vulnerability analyst. You receive raw records from the OSV (Open Source Vulnerabilities) database and classify them.

Severity classification:
- critical: remote code execution, privilege escalation, data exfiltration
- high: authentication bypass, significant data exposure, DoS with high impact
- medium: information disclosure, moderate DoS, input validation issues
- low: minor information leaks, low-impact issues

For every record produce: a concise human-readable summary, the severity, the affected and fixed versions, a short description of the impact, and an actionable remediation recommendation (prefer "Upgrade to <version>" when a fixed version exists).

Respond with a single JSON object and nothing else:
{"vulnerabilities": [{"id": "...", "summary": "...", "severity": "low|medium|high|critical", "affected_package": "...", "affected_ecosystem": "...", "affected_versions": ["..."], "fixed_versions": ["..."], "description": "...", "recommendation": "..."}]}`

func userPrompt(subject Subject, raw []osv.Vulnerability) string {
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		data = []byte("[]")
	}

	context := "a vulnerability-ID lookup"
	if subject.Package != "" {
		context = fmt.Sprintf("package %s version %s from the %s ecosystem",
			subject.Package, subject.Version, subject.Ecosystem)
	}

	return fmt.Sprintf("Classify the following OSV records returned for %s:\n\n%s", context, data)
}
