// Package validator cross-checks extraction outputs and financial metrics
// against range rules and inter-source consistency, producing severity-tagged
// issues and an aggregate confidence score.
package validator

import (
	"time"

	"underwriter/internal/domain"
)

// Issue is one validation finding.
type Issue struct {
	Severity       domain.Severity `json:"severity"`
	Field          string          `json:"field"`
	Message        string          `json:"message"`
	CurrentValue   any             `json:"current_value"`
	SuggestedValue any             `json:"suggested_value,omitempty"`
	Rule           string          `json:"rule,omitempty"`
}

// Result is the outcome of one validation pass. IsValid means no critical
// issues were recorded.
type Result struct {
	IsValid         bool      `json:"is_valid"`
	Issues          []Issue   `json:"issues"`
	ConfidenceScore float64   `json:"confidence_score"`
	ValidatedAt     time.Time `json:"validated_at"`
}

func newResult() *Result {
	return &Result{
		IsValid:         true,
		ConfidenceScore: 1.0,
		ValidatedAt:     time.Now().UTC(),
	}
}

// AddIssue records an issue and recalculates validity.
func (r *Result) AddIssue(issue Issue) {
	r.Issues = append(r.Issues, issue)
	if issue.Severity == domain.SeverityCritical {
		r.IsValid = false
	}
}

func (r *Result) countBySeverity(s domain.Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// Summary buckets the issues by severity for reporting.
type Summary struct {
	IsValid         bool               `json:"is_valid"`
	TotalIssues     int                `json:"total_issues"`
	BySeverity      map[string][]Issue `json:"by_severity"`
	ConfidenceScore float64            `json:"confidence_score"`
}

// Summarize converts a result into its report form.
func (r *Result) Summarize() Summary {
	by := map[string][]Issue{
		string(domain.SeverityCritical): {},
		string(domain.SeverityWarning):  {},
		string(domain.SeverityInfo):     {},
	}
	for _, issue := range r.Issues {
		by[string(issue.Severity)] = append(by[string(issue.Severity)], issue)
	}
	return Summary{
		IsValid:         r.IsValid,
		TotalIssues:     len(r.Issues),
		BySeverity:      by,
		ConfidenceScore: r.ConfidenceScore,
	}
}
