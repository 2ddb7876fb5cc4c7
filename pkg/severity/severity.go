package severity

import "strings"

// Severity is the fixed classification taxonomy. The zero-value ordering is
// low < medium < high < critical; Unknown only appears while normalizing
// untrusted input and is never emitted in reports.
type Severity string

const (
	Unknown  Severity = "unknown"
	Low      Severity = "low"
	Medium   Severity = "medium"
	High     Severity = "high"
	Critical Severity = "critical"
)

var rank = map[Severity]int{
	Unknown:  0,
	Low:      1,
	Medium:   2,
	High:     3,
	Critical: 4,
}

// Normalize maps free-form severity strings onto the taxonomy.
func Normalize(input string) Severity {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "critical":
		return Critical
	case "high":
		return High
	case "medium", "med", "moderate":
		return Medium
	case "low", "negligible", "none":
		return Low
	default:
		return Unknown
	}
}

// Valid reports whether input names one of the four reportable levels.
func Valid(input string) bool {
	s := Normalize(input)
	return s != Unknown && strings.ToLower(strings.TrimSpace(input)) == string(s)
}

// MeetsOrExceeds reports whether sev is at or above threshold.
func MeetsOrExceeds(sev, threshold Severity) bool {
	return rank[sev] >= rank[threshold]
}

// Rank returns the position of sev in the total order (low=1 .. critical=4).
func Rank(sev Severity) int {
	return rank[sev]
}

// Levels returns the reportable levels in ascending order.
func Levels() []Severity {
	return []Severity{Low, Medium, High, Critical}
}

// LevelsDescending returns the reportable levels critical-first, the order
// text reports group their sections in.
func LevelsDescending() []Severity {
	return []Severity{Critical, High, Medium, Low}
}
