// Package doctor runs diagnostics for a nasmon setup: the config file, the
// path to the NAS, the SSH login and its privilege, and the tools each
// extractor shells out to.
package doctor

import (
	"context"
	"fmt"

	"github.com/rileyhilliard/nasmon/internal/util"
)

// CheckStatus represents the result status of a check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
	StatusSkip
)

// Check categories, in report order.
const (
	CategoryConfig = "CONFIG"
	CategorySSH    = "SSH"
	CategoryTools  = "TOOLS"
)

// Categories lists every category in the order reports show them.
var Categories = []string{CategoryConfig, CategorySSH, CategoryTools}

// String returns a human-readable status string.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	case StatusSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status as its name in JSON reports.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText reads a status name back. Unknown names are an error.
func (s *CheckStatus) UnmarshalText(text []byte) error {
	for _, st := range []CheckStatus{StatusPass, StatusWarn, StatusFail, StatusSkip} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown check status %q", text)
}

// CheckResult contains the outcome of running a check.
type CheckResult struct {
	Name       string      `json:"name"`
	Category   string      `json:"category"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Check defines the interface for diagnostic checks.
type Check interface {
	// Name returns the check's identifier.
	Name() string

	// Category returns the check's category (CONFIG, SSH or TOOLS).
	Category() string

	// Run executes the check and returns the result.
	Run(ctx context.Context) CheckResult
}

// Blocker is a check whose failure makes the checks after it pointless,
// such as reachability before login.
type Blocker interface {
	Blocks() bool
}

// RunAll runs checks in order. After a failing Blocker the remaining checks
// are reported as skipped without running.
func RunAll(ctx context.Context, checks []Check) []CheckResult {
	results := make([]CheckResult, len(checks))
	blockedBy := ""

	for i, check := range checks {
		if blockedBy != "" {
			results[i] = CheckResult{
				Name:     check.Name(),
				Category: check.Category(),
				Status:   StatusSkip,
				Message:  fmt.Sprintf("Skipped because %s failed", blockedBy),
			}
			continue
		}

		r := check.Run(ctx)
		r.Name = check.Name()
		r.Category = check.Category()
		results[i] = r

		if b, ok := check.(Blocker); ok && b.Blocks() && r.Status == StatusFail {
			blockedBy = check.Name()
		}
	}
	return results
}

// GroupByCategory organizes results by their category.
func GroupByCategory(results []CheckResult) map[string][]CheckResult {
	grouped := make(map[string][]CheckResult)
	for _, r := range results {
		grouped[r.Category] = append(grouped[r.Category], r)
	}
	return grouped
}

// CountByStatus counts results by status.
func CountByStatus(results []CheckResult) map[CheckStatus]int {
	counts := make(map[CheckStatus]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

// HasFailures returns true if any result has a fail status.
func HasFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

// HasIssues returns true if any result has a fail or warn status.
func HasIssues(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == StatusFail || r.Status == StatusWarn {
			return true
		}
	}
	return false
}

// Summary returns a summary string of the check results.
func Summary(results []CheckResult) string {
	counts := CountByStatus(results)
	warn := counts[StatusWarn]
	fail := counts[StatusFail]

	if fail == 0 && warn == 0 {
		return "Everything looks good"
	}

	total := warn + fail
	return fmt.Sprintf("%d %s found", total, util.Pluralize(total, "issue", "issues"))
}
