package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/osv-scan-agent/pkg/osv"
	"github.com/osv-scan-agent/pkg/severity"
)

type modelFinding struct {
	ID                string   `json:"id"`
	Summary           string   `json:"summary"`
	Severity          string   `json:"severity"`
	AffectedPackage   string   `json:"affected_package"`
	AffectedEcosystem string   `json:"affected_ecosystem"`
	AffectedVersions  []string `json:"affected_versions"`
	FixedVersions     []string `json:"fixed_versions"`
	Description       string   `json:"description"`
	Recommendation    string   `json:"recommendation"`
}

// parseModelResponse turns the model's reply into findings. The model is not
// trusted: unknown severities fall back to medium, missing attribution and
// version data is backfilled from the raw records, and only a reply that
// cannot be decoded at all is an error.
func parseModelResponse(subject Subject, raw []osv.Vulnerability, content string) ([]VulnerabilityInfo, error) {
	findings, err := decodeFindings(content)
	if err != nil {
		return nil, fmt.Errorf("unparseable model response: %w", err)
	}

	byID := make(map[string]osv.Vulnerability, len(raw))
	for _, v := range raw {
		byID[v.ID] = v
	}

	infos := make([]VulnerabilityInfo, 0, len(findings))
	for i, f := range findings {
		if f.ID == "" && i < len(raw) {
			f.ID = raw[i].ID
		}
		if f.ID == "" {
			continue // nothing to attribute the finding to
		}

		sev := severity.Normalize(f.Severity)
		if sev == severity.Unknown {
			sev = severity.Medium
		}

		info := VulnerabilityInfo{
			ID:                f.ID,
			Summary:           f.Summary,
			Severity:          sev,
			AffectedPackage:   f.AffectedPackage,
			AffectedEcosystem: f.AffectedEcosystem,
			AffectedVersions:  f.AffectedVersions,
			FixedVersions:     f.FixedVersions,
			Description:       f.Description,
			Recommendation:    f.Recommendation,
		}
		backfill(&info, subject, byID)
		infos = append(infos, info)
	}
	return infos, nil
}

// decodeFindings accepts the requested object shape, a bare array, or either
// wrapped in a markdown code fence.
func decodeFindings(content string) ([]modelFinding, error) {
	content = stripFence(content)

	var wrapped struct {
		Vulnerabilities []modelFinding `json:"vulnerabilities"`
	}
	if err := json.Unmarshal([]byte(content), &wrapped); err == nil && wrapped.Vulnerabilities != nil {
		return wrapped.Vulnerabilities, nil
	}

	var bare []modelFinding
	if err := json.Unmarshal([]byte(content), &bare); err != nil {
		return nil, err
	}
	return bare, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func backfill(info *VulnerabilityInfo, subject Subject, byID map[string]osv.Vulnerability) {
	rawRecord, haveRaw := byID[info.ID]

	if info.AffectedPackage == "" {
		info.AffectedPackage = subject.Package
	}
	if info.AffectedEcosystem == "" {
		info.AffectedEcosystem = subject.Ecosystem
	}
	if haveRaw && info.AffectedPackage == "" {
		info.AffectedPackage, info.AffectedEcosystem = rawRecord.AffectedPackageName()
	}

	if haveRaw {
		if len(info.FixedVersions) == 0 {
			info.FixedVersions = rawRecord.FixedVersions()
		}
		if len(info.AffectedVersions) == 0 {
			info.AffectedVersions = rawRecord.AffectedVersions()
		}
		if info.Summary == "" {
			info.Summary = rawRecord.Summary
		}
	}

	if info.Recommendation == "" {
		if len(info.FixedVersions) > 0 {
			info.Recommendation = fmt.Sprintf("Upgrade to version %s or later.", info.FixedVersions[len(info.FixedVersions)-1])
		} else {
			info.Recommendation = "No fixed version is available yet; monitor the advisory for updates."
		}
	}
}
