// Package exitcode defines the CI exit-code contract. Vulnerability findings
// and configuration errors must be distinguishable by the caller.
package exitcode

const (
	Success              = 0
	VulnerabilitiesFound = 1
	ConfigError          = 2
)

// ForScan decides the process exit code from the fail gate: 1 only when the
// gate is armed and at least one post-filter finding was reported. Per-query
// errors never factor in.
func ForScan(failOnVuln bool, reported int) int {
	if failOnVuln && reported > 0 {
		return VulnerabilitiesFound
	}
	return Success
}

// String returns a human-readable description of the exit code.
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case VulnerabilitiesFound:
		return "Vulnerabilities found at or above threshold"
	case ConfigError:
		return "Configuration error"
	default:
		return "Unknown error"
	}
}
