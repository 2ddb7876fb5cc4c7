package scanner

import (
	"context"
	"errors"

	"github.com/osv-scan-agent/pkg/analysis"
	"github.com/osv-scan-agent/pkg/config"
	"github.com/osv-scan-agent/pkg/osv"
)

// Stages a per-query error can originate from.
const (
	StageInput    = "input"
	StageQuery    = "query"
	StageAnalysis = "analysis"
)

// QueryError is one recorded per-query failure. Errors are visibility, not
// failure: they appear in reports but never abort the batch or set the exit
// code.
type QueryError struct {
	Query   string `json:"query"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// ScanResult accumulates one run. Append-only while scanning, read-only once
// handed to a reporter.
type ScanResult struct {
	Queries         []string                     `json:"queries"`
	Vulnerabilities []analysis.VulnerabilityInfo `json:"vulnerabilities"`
	Errors          []QueryError                 `json:"errors"`
}

func (r *ScanResult) AddError(query, stage, message string) {
	r.Errors = append(r.Errors, QueryError{Query: query, Stage: stage, Message: message})
}

// Scanner drives one lookup plus, when the lookup returned records, one
// classification per query. Queries run sequentially in input order; a
// failing query is recorded and the batch moves on.
type Scanner struct {
	lookup     osv.Lookup
	summarizer analysis.Summarizer
	cfg        *config.Config
}

func New(lookup osv.Lookup, summarizer analysis.Summarizer, cfg *config.Config) *Scanner {
	return &Scanner{lookup: lookup, summarizer: summarizer, cfg: cfg}
}

func (s *Scanner) ScanPackage(ctx context.Context, q osv.PackageQuery) *ScanResult {
	return s.ScanBatch(ctx, []osv.PackageQuery{q})
}

func (s *Scanner) ScanBatch(ctx context.Context, queries []osv.PackageQuery) *ScanResult {
	result := &ScanResult{}
	for _, q := range queries {
		result.Queries = append(result.Queries, q.Label())

		if s.cfg.IsIgnoredPackage(q.Name) {
			continue
		}

		raw, err := s.lookup.QueryPackage(ctx, q)
		if err != nil {
			result.AddError(q.Label(), StageQuery, err.Error())
			continue
		}

		raw = s.dropIgnored(raw)
		if len(raw) == 0 {
			continue
		}

		subject := analysis.Subject{Package: q.Name, Ecosystem: q.Ecosystem, Version: q.Version}
		infos, err := s.summarizer.Classify(ctx, subject, raw)
		if err != nil {
			result.AddError(q.Label(), StageAnalysis, err.Error())
			continue
		}
		// Duplicate IDs across queries are kept: two dependency entries hit
		// by the same advisory are two findings.
		result.Vulnerabilities = append(result.Vulnerabilities, infos...)
	}
	return result
}

// LookupID fetches a single advisory by ID. A miss is an empty result, not a
// recorded error.
func (s *Scanner) LookupID(ctx context.Context, id string) *ScanResult {
	result := &ScanResult{Queries: []string{id}}

	vuln, err := s.lookup.GetVulnerability(ctx, id)
	if err != nil {
		if errors.Is(err, osv.ErrNotFound) {
			return result
		}
		result.AddError(id, StageQuery, err.Error())
		return result
	}

	if s.cfg.IsIgnoredAdvisory(vuln.ID, vuln.Aliases) {
		return result
	}

	infos, err := s.summarizer.Classify(ctx, analysis.Subject{}, []osv.Vulnerability{*vuln})
	if err != nil {
		result.AddError(id, StageAnalysis, err.Error())
		return result
	}
	result.Vulnerabilities = append(result.Vulnerabilities, infos...)
	return result
}

func (s *Scanner) dropIgnored(raw []osv.Vulnerability) []osv.Vulnerability {
	kept := raw[:0:0]
	for _, v := range raw {
		if s.cfg.IsIgnoredAdvisory(v.ID, v.Aliases) {
			continue
		}
		kept = append(kept, v)
	}
	return kept
}
