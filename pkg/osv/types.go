package osv

import "context"

// PackageQuery identifies one name+ecosystem+version triple to look up.
// Ecosystem is deliberately an open string: OSV accepts identifiers beyond
// the well-known set (PyPI, npm, Go, Maven, ...).
type PackageQuery struct {
	Name      string
	Ecosystem string
	Version   string
}

// Label renders the triple in the inline-list form, used to tag per-query
// errors in reports.
func (q PackageQuery) Label() string {
	return q.Name + ":" + q.Ecosystem + ":" + q.Version
}

// Lookup is the narrow capability the orchestrator depends on. Swap it for a
// test double or a different advisory backend without touching callers.
type Lookup interface {
	// QueryPackage returns the raw vulnerability records affecting the given
	// package version. An empty slice means no known vulnerabilities.
	QueryPackage(ctx context.Context, q PackageQuery) ([]Vulnerability, error)

	// GetVulnerability returns the single record for an advisory ID, or
	// ErrNotFound.
	GetVulnerability(ctx context.Context, id string) (*Vulnerability, error)
}

// Vulnerability is the raw OSV record shape as returned by the tool server.
// Only the fields the analysis stage consumes are declared; unknown fields
// are ignored on decode.
type Vulnerability struct {
	ID         string      `json:"id"`
	Aliases    []string    `json:"aliases,omitempty"`
	Summary    string      `json:"summary,omitempty"`
	Details    string      `json:"details,omitempty"`
	Severity   []Score     `json:"severity,omitempty"`
	Published  string      `json:"published,omitempty"`
	Modified   string      `json:"modified,omitempty"`
	Affected   []Affected  `json:"affected,omitempty"`
	References []Reference `json:"references,omitempty"`
}

type Score struct {
	Type  string `json:"type"`
	Score string `json:"score"`
}

type Affected struct {
	Package  AffectedPackage `json:"package"`
	Ranges   []Range         `json:"ranges,omitempty"`
	Versions []string        `json:"versions,omitempty"`
}

type AffectedPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

type Range struct {
	Type   string  `json:"type"`
	Events []Event `json:"events,omitempty"`
}

type Event struct {
	Introduced string `json:"introduced,omitempty"`
	Fixed      string `json:"fixed,omitempty"`
}

type Reference struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// FixedVersions collects every fixed-version event across the record's
// ecosystem and semver ranges, in declaration order.
func (v Vulnerability) FixedVersions() []string {
	var fixed []string
	seen := make(map[string]bool)
	for _, a := range v.Affected {
		for _, r := range a.Ranges {
			if r.Type == "GIT" {
				continue // commit SHAs, not installable versions
			}
			for _, e := range r.Events {
				if e.Fixed != "" && !seen[e.Fixed] {
					seen[e.Fixed] = true
					fixed = append(fixed, e.Fixed)
				}
			}
		}
	}
	return fixed
}

// AffectedVersions collects the explicitly enumerated affected versions.
func (v Vulnerability) AffectedVersions() []string {
	var versions []string
	seen := make(map[string]bool)
	for _, a := range v.Affected {
		for _, ver := range a.Versions {
			if !seen[ver] {
				seen[ver] = true
				versions = append(versions, ver)
			}
		}
	}
	return versions
}

// AffectedPackageName returns the package name of the first affected entry,
// the best available attribution for ID lookups where no query triple exists.
func (v Vulnerability) AffectedPackageName() (name, ecosystem string) {
	if len(v.Affected) == 0 {
		return "", ""
	}
	return v.Affected[0].Package.Name, v.Affected[0].Package.Ecosystem
}
