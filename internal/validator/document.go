package validator

import (
	"fmt"
	"math"
	"time"

	"underwriter/internal/domain"
	"underwriter/internal/extractor"
	"underwriter/internal/finance"
)

// rule is a per-field numeric range; critical rules produce critical issues
// on violation, the rest produce warnings. A nil bound is unbounded.
type rule struct {
	min, max *float64
	critical bool
}

func bound(v float64) *float64 { return &v }

// Rules is the fixed per-field range table.
var Rules = map[string]rule{
	"occupancy_rate":     {min: bound(0), max: bound(100), critical: true},
	"dscr":               {min: bound(0), max: bound(10)},
	"cap_rate":           {min: bound(0), max: bound(20)},
	"ltv":                {min: bound(0), max: bound(100)},
	"expense_ratio":      {min: bound(0), max: bound(100)},
	"noi":                {min: bound(0), critical: true},
	"gross_income":       {min: bound(0), critical: true},
	"total_expenses":     {min: bound(0), critical: true},
	"total_units":        {min: bound(0)},
	"total_monthly_rent": {min: bound(0)},
}

// DocumentValidator is a stateless rule engine over extracted data and
// derived metrics.
type DocumentValidator struct{}

// New builds a DocumentValidator.
func New() *DocumentValidator {
	return &DocumentValidator{}
}

// ValidateRentRoll checks the rent roll summary ranges and every tenant
// record.
func (v *DocumentValidator) ValidateRentRoll(data extractor.RentRollData) *Result {
	result := newResult()

	if len(data.Tenants) == 0 {
		result.AddIssue(Issue{
			Severity:       domain.SeverityCritical,
			Field:          "tenants",
			Message:        "no tenant data found",
			SuggestedValue: "expected tenant records",
		})
		result.ConfidenceScore = 0
		return result
	}

	v.checkRange(result, "total_units", float64(data.Summary.TotalUnits))
	v.checkRange(result, "occupancy_rate", data.Summary.OccupancyRate)
	v.checkRange(result, "total_monthly_rent", data.Summary.TotalMonthlyRent)

	for i, t := range data.Tenants {
		v.validateTenant(result, t, i)
	}

	result.ConfidenceScore = confidenceFromIssues(result)
	return result
}

func (v *DocumentValidator) validateTenant(result *Result, t extractor.TenantRecord, index int) {
	unit := t.Unit
	if unit == "" {
		unit = fmt.Sprintf("index_%d", index)
	}

	if t.Tenant == "" && t.Occupied {
		result.AddIssue(Issue{
			Severity: domain.SeverityWarning,
			Field:    fmt.Sprintf("tenant_%d_name", index),
			Message:  fmt.Sprintf("missing tenant name for unit %s", unit),
		})
	}
	if t.SquareFootage <= 0 {
		result.AddIssue(Issue{
			Severity:       domain.SeverityCritical,
			Field:          fmt.Sprintf("tenant_%d_square_footage", index),
			Message:        fmt.Sprintf("invalid square footage for unit %s", unit),
			CurrentValue:   t.SquareFootage,
			SuggestedValue: "expected > 0",
		})
	}
	if t.CurrentRent < 0 {
		result.AddIssue(Issue{
			Severity:       domain.SeverityCritical,
			Field:          fmt.Sprintf("tenant_%d_rent", index),
			Message:        fmt.Sprintf("negative rent for unit %s", unit),
			CurrentValue:   t.CurrentRent,
			SuggestedValue: "expected >= 0",
		})
	}
}

// ValidatePLStatement checks the derived P&L summary figures.
func (v *DocumentValidator) ValidatePLStatement(data extractor.PLData) *Result {
	result := newResult()
	s := data.Summary

	v.checkRange(result, "gross_income", s.GrossIncome)
	v.checkRange(result, "total_expenses", s.TotalExpenses)
	v.checkRange(result, "noi", s.NOI)

	if s.TotalExpenses > s.GrossIncome {
		result.AddIssue(Issue{
			Severity:       domain.SeverityCritical,
			Field:          "noi",
			Message:        "expenses exceed revenue",
			CurrentValue:   s.NOI,
			SuggestedValue: "expected: revenue - expenses",
			Rule:           "noi = revenue - expenses",
		})
	}

	v.checkRange(result, "expense_ratio", s.ExpenseRatio)
	if s.ExpenseRatio > 80 {
		result.AddIssue(Issue{
			Severity:       domain.SeverityWarning,
			Field:          "expense_ratio",
			Message:        fmt.Sprintf("high expense ratio: %.1f%%", s.ExpenseRatio),
			CurrentValue:   s.ExpenseRatio,
			SuggestedValue: "expected < 80%",
		})
	}

	result.ConfidenceScore = confidenceFromIssues(result)
	return result
}

// ValidateFinancialMetrics checks the derived underwriting ratios against
// both the range table and the fixed domain thresholds: DSCR below 1.0 is
// critical and below 1.25 a warning, LTV above 80 critical and above 75 a
// warning, occupancy below 70 critical and below 85 a warning.
func (v *DocumentValidator) ValidateFinancialMetrics(m finance.Metrics) *Result {
	result := newResult()

	v.checkRange(result, "noi", m.NOI)
	v.checkRange(result, "dscr", m.DSCR)
	v.checkRange(result, "cap_rate", m.CapRate)
	v.checkRange(result, "ltv", m.LTV)
	v.checkRange(result, "occupancy_rate", m.OccupancyRate)

	switch {
	case m.DSCR < 1.0:
		result.AddIssue(Issue{
			Severity:       domain.SeverityCritical,
			Field:          "dscr",
			Message:        fmt.Sprintf("DSCR below 1.0, negative cash flow: %.2f", m.DSCR),
			CurrentValue:   m.DSCR,
			SuggestedValue: "expected > 1.0",
			Rule:           "DSCR >= 1.0",
		})
	case m.DSCR < 1.25:
		result.AddIssue(Issue{
			Severity:       domain.SeverityWarning,
			Field:          "dscr",
			Message:        fmt.Sprintf("DSCR below 1.25, tight coverage: %.2f", m.DSCR),
			CurrentValue:   m.DSCR,
			SuggestedValue: "expected > 1.25",
		})
	}

	switch {
	case m.LTV > 80:
		result.AddIssue(Issue{
			Severity:       domain.SeverityCritical,
			Field:          "ltv",
			Message:        fmt.Sprintf("LTV above 80%%, excessive leverage: %.1f%%", m.LTV),
			CurrentValue:   m.LTV,
			SuggestedValue: "expected < 80%",
		})
	case m.LTV > 75:
		result.AddIssue(Issue{
			Severity:     domain.SeverityWarning,
			Field:        "ltv",
			Message:      fmt.Sprintf("LTV above 75%%, high leverage: %.1f%%", m.LTV),
			CurrentValue: m.LTV,
		})
	}

	switch {
	case m.OccupancyRate < 70:
		result.AddIssue(Issue{
			Severity:     domain.SeverityCritical,
			Field:        "occupancy_rate",
			Message:      fmt.Sprintf("occupancy below 70%%, high vacancy risk: %.1f%%", m.OccupancyRate),
			CurrentValue: m.OccupancyRate,
		})
	case m.OccupancyRate < 85:
		result.AddIssue(Issue{
			Severity:     domain.SeverityWarning,
			Field:        "occupancy_rate",
			Message:      fmt.Sprintf("occupancy below 85%%: %.1f%%", m.OccupancyRate),
			CurrentValue: m.OccupancyRate,
		})
	}

	result.ConfidenceScore = confidenceFromIssues(result)
	return result
}

// ValidateCrossFieldConsistency flags when rent-roll-derived occupancy and
// metrics-derived occupancy diverge by more than 10 percentage points.
func (v *DocumentValidator) ValidateCrossFieldConsistency(rentRoll extractor.RentRollData, m finance.Metrics) *Result {
	result := newResult()

	rrOccupancy := rentRoll.Summary.OccupancyRate
	if rrOccupancy != 0 && m.OccupancyRate != 0 {
		if diff := math.Abs(rrOccupancy - m.OccupancyRate); diff > 10 {
			result.AddIssue(Issue{
				Severity: domain.SeverityWarning,
				Field:    "occupancy_rate",
				Message: fmt.Sprintf("occupancy mismatch between rent roll (%.1f%%) and metrics (%.1f%%)",
					rrOccupancy, m.OccupancyRate),
				CurrentValue:   m.OccupancyRate,
				SuggestedValue: rrOccupancy,
			})
		}
	}
	return result
}

func (v *DocumentValidator) checkRange(result *Result, field string, value float64) {
	r, ok := Rules[field]
	if !ok {
		return
	}

	severity := domain.SeverityWarning
	if r.critical {
		severity = domain.SeverityCritical
	}

	if r.min != nil && value < *r.min {
		result.AddIssue(Issue{
			Severity:       severity,
			Field:          field,
			Message:        fmt.Sprintf("value below minimum: %v < %v", value, *r.min),
			CurrentValue:   value,
			SuggestedValue: *r.min,
		})
	}
	if r.max != nil && value > *r.max {
		result.AddIssue(Issue{
			Severity:       severity,
			Field:          field,
			Message:        fmt.Sprintf("value above maximum: %v > %v", value, *r.max),
			CurrentValue:   value,
			SuggestedValue: *r.max,
		})
	}
}

// confidenceFromIssues is 1.0 minus weighted issue penalties (0.1 per
// critical, 0.05 per warning, 0.01 per info), floored at 0.
func confidenceFromIssues(result *Result) float64 {
	confidence := 1.0 -
		0.1*float64(result.countBySeverity(domain.SeverityCritical)) -
		0.05*float64(result.countBySeverity(domain.SeverityWarning)) -
		0.01*float64(result.countBySeverity(domain.SeverityInfo))
	if confidence < 0 {
		return 0
	}
	return math.Round(confidence*100) / 100
}

// Report is the aggregate validation report over all four validators.
type Report struct {
	OverallValid     bool      `json:"overall_valid"`
	ConfidenceScore  float64   `json:"confidence_score"`
	RentRollResult   Summary   `json:"rent_roll_validation"`
	PLResult         Summary   `json:"pl_validation"`
	MetricsResult    Summary   `json:"metrics_validation"`
	CrossFieldResult Summary   `json:"cross_validation"`
	AllIssues        []Issue   `json:"all_issues"`
	RiskFlags        []string  `json:"risk_flags"`
	ValidatedAt      time.Time `json:"validated_at"`
}

// BuildReport runs all four validators and aggregates their results. The
// report confidence averages the three primary scores; the cross-field pass
// contributes issues but no score.
func (v *DocumentValidator) BuildReport(rentRoll extractor.RentRollData, pl extractor.PLData, m finance.Metrics) Report {
	rentRollResult := v.ValidateRentRoll(rentRoll)
	plResult := v.ValidatePLStatement(pl)
	metricsResult := v.ValidateFinancialMetrics(m)
	crossResult := v.ValidateCrossFieldConsistency(rentRoll, m)

	allIssues := make([]Issue, 0,
		len(rentRollResult.Issues)+len(plResult.Issues)+len(metricsResult.Issues)+len(crossResult.Issues))
	allIssues = append(allIssues, rentRollResult.Issues...)
	allIssues = append(allIssues, plResult.Issues...)
	allIssues = append(allIssues, metricsResult.Issues...)
	allIssues = append(allIssues, crossResult.Issues...)

	avg := (rentRollResult.ConfidenceScore + plResult.ConfidenceScore + metricsResult.ConfidenceScore) / 3

	return Report{
		OverallValid:     rentRollResult.IsValid && plResult.IsValid && metricsResult.IsValid,
		ConfidenceScore:  math.Round(avg*100) / 100,
		RentRollResult:   rentRollResult.Summarize(),
		PLResult:         plResult.Summarize(),
		MetricsResult:    metricsResult.Summarize(),
		CrossFieldResult: crossResult.Summarize(),
		AllIssues:        allIssues,
		RiskFlags:        riskFlagsFrom(metricsResult),
		ValidatedAt:      time.Now().UTC(),
	}
}

// riskFlagsFrom surfaces critical and warning metric issues as flag strings.
func riskFlagsFrom(metricsResult *Result) []string {
	var flags []string
	for _, issue := range metricsResult.Issues {
		switch issue.Severity {
		case domain.SeverityCritical:
			flags = append(flags, fmt.Sprintf("CRITICAL: %s - %s", issue.Field, issue.Message))
		case domain.SeverityWarning:
			flags = append(flags, fmt.Sprintf("WARNING: %s - %s", issue.Field, issue.Message))
		}
	}
	return flags
}
