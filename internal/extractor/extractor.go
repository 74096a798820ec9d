// Package extractor implements pattern-based extraction of structured
// financial and occupancy data from commercial real-estate document text.
//
// Extractors are stateless strategy objects: all per-document state lives in
// the Result returned by Extract, so one instance is safe to share across
// documents and goroutines.
package extractor

import (
	"time"

	"underwriter/internal/domain"
)

// MinHandleConfidence is the applicability threshold for CanHandle.
const MinHandleConfidence = 0.3

// Extractor is the capability contract implemented by each document-type
// extractor.
type Extractor interface {
	// Name identifies the extractor in results and logs.
	Name() string

	// CanHandle is a cheap applicability test. The confidence is a weighted
	// sum of filename keyword matches (30%) and content indicator matches
	// (70%); the document is handleable iff confidence >= MinHandleConfidence.
	CanHandle(content, filename string) (bool, float64)

	// Extract parses the document text and returns a fresh Result. It never
	// returns an error: internal failures are folded into the Result as a
	// validation error with Success=false.
	Extract(content string) *Result
}

// Result is the outcome of one Extract call. Owned by the caller; the
// extractor keeps no reference to it.
type Result struct {
	Extractor         string             `json:"extractor"`
	Data              any                `json:"data"`
	FieldConfidence   map[string]float64 `json:"confidence_scores"`
	OverallConfidence float64            `json:"overall_confidence"`
	ValidationErrors  []string           `json:"validation_errors"`
	RiskProfile       domain.RiskProfile `json:"risk_profile"`
	Success           bool               `json:"success"`
	Timestamp         time.Time          `json:"timestamp"`
}

func newResult(name string) *Result {
	return &Result{
		Extractor:       name,
		FieldConfidence: map[string]float64{},
		Timestamp:       time.Now().UTC(),
	}
}

// fail records a hard extraction failure on the result.
func (r *Result) fail(msg string) *Result {
	r.ValidationErrors = append(r.ValidationErrors, msg)
	r.Success = false
	return r
}
