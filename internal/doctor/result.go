// Package doctor runs read-only health checks over manifests, config layers,
// and plugin takeover state. Checks never mutate anything; remediation is a
// separate, explicitly invoked operation.
package doctor

// Status is the outcome of one check.
type Status string

const (
	StatusOK   Status = "OK"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

// Result is one reported finding.
type Result struct {
	Status         Status `json:"status"`
	CheckName      string `json:"checkName"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation,omitempty"`
}

// Summary counts results by status and collects the distinct recommendations
// of every warning and failure, in report order.
type Summary struct {
	OK          int      `json:"ok"`
	Warn        int      `json:"warn"`
	Fail        int      `json:"fail"`
	Remediation []string `json:"remediation,omitempty"`
}

// Healthy reports whether nothing warned or failed.
func (s Summary) Healthy() bool {
	return s.Warn == 0 && s.Fail == 0
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	var summary Summary
	seen := map[string]struct{}{}
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			summary.OK++
			continue
		case StatusWarn:
			summary.Warn++
		case StatusFail:
			summary.Fail++
		}
		if r.Recommendation == "" {
			continue
		}
		if _, ok := seen[r.Recommendation]; ok {
			continue
		}
		seen[r.Recommendation] = struct{}{}
		summary.Remediation = append(summary.Remediation, r.Recommendation)
	}
	return summary
}
