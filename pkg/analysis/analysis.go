package analysis

import (
	"context"

	"github.com/osv-scan-agent/pkg/osv"
	"github.com/osv-scan-agent/pkg/severity"
)

// VulnerabilityInfo is one classified finding. The JSON tags are part of the
// machine-readable output contract and must stay stable.
type VulnerabilityInfo struct {
	ID                string            `json:"id"`
	Summary           string            `json:"summary"`
	Severity          severity.Severity `json:"severity"`
	AffectedPackage   string            `json:"affected_package"`
	AffectedEcosystem string            `json:"affected_ecosystem"`
	AffectedVersions  []string          `json:"affected_versions"`
	FixedVersions     []string          `json:"fixed_versions"`
	Description       string            `json:"description"`
	Recommendation    string            `json:"recommendation"`
}

// Subject is the thing the raw records were queried for. Package fields are
// empty for vulnerability-ID lookups.
type Subject struct {
	Package   string
	Ecosystem string
	Version   string
}

// Summarizer classifies raw OSV records into findings. Implementations may
// call a remote model; test doubles return canned results.
type Summarizer interface {
	Classify(ctx context.Context, subject Subject, raw []osv.Vulnerability) ([]VulnerabilityInfo, error)
}
