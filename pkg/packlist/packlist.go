// Package packlist turns user-supplied package lists into queries: the
// inline comma-separated name:ecosystem:version form, or a JSON file of
// {package_name, ecosystem, version} objects.
package packlist

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/osv-scan-agent/pkg/osv"
)

// ParseInline parses "name:ecosystem:version,name:ecosystem:version,...".
// Any malformed triple fails the whole flag; inline lists are typed by hand
// and a silent skip would hide the typo.
func ParseInline(s string) ([]osv.PackageQuery, error) {
	var queries []osv.PackageQuery
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("invalid package %q: expected name:ecosystem:version", entry)
		}
		queries = append(queries, osv.PackageQuery{
			Name:      parts[0],
			Ecosystem: parts[1],
			Version:   parts[2],
		})
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no packages given")
	}
	return queries, nil
}

type fileEntry struct {
	PackageName string `json:"package_name"`
	Ecosystem   string `json:"ecosystem"`
	Version     string `json:"version"`
}

// ParseFile reads a JSON array of package objects. An unreadable or
// non-JSON file is a fatal error; individual entries missing required keys
// are returned as skip messages so the rest of the batch still runs.
func ParseFile(path string) (queries []osv.PackageQuery, skipped []string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read packages file: %w", err)
	}

	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil, fmt.Errorf("parse packages file %s: %w", path, err)
	}

	for i, e := range entries {
		if e.PackageName == "" || e.Ecosystem == "" || e.Version == "" {
			skipped = append(skipped, fmt.Sprintf("entry %d: missing package_name, ecosystem or version", i))
			continue
		}
		queries = append(queries, osv.PackageQuery{
			Name:      e.PackageName,
			Ecosystem: e.Ecosystem,
			Version:   e.Version,
		})
	}
	return queries, skipped, nil
}
