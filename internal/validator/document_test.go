package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriter/internal/domain"
	"underwriter/internal/extractor"
	"underwriter/internal/finance"
	"underwriter/internal/validator"
)

func healthyRentRoll() extractor.RentRollData {
	return extractor.RentRollData{
		Tenants: []extractor.TenantRecord{
			{Unit: "101", Tenant: "Acme Coffee", SquareFootage: 1200, CurrentRent: 2400, Occupied: true},
			{Unit: "102", Tenant: "Blue Dental", SquareFootage: 1500, CurrentRent: 3300, Occupied: true},
		},
		Summary: extractor.RentRollSummary{
			TotalUnits:            2,
			TotalSquareFootage:    2700,
			OccupiedSquareFootage: 2700,
			OccupancyRate:         100,
			TotalMonthlyRent:      5700,
			AverageRentPSF:        25.33,
		},
	}
}

func healthyPL() extractor.PLData {
	return extractor.PLData{
		Summary: extractor.PLSummary{
			GrossIncome:   110000,
			TotalExpenses: 25000,
			NOI:           85000,
			ExpenseRatio:  22.73,
		},
	}
}

func healthyMetrics() finance.Metrics {
	return finance.Metrics{
		NOI:           85000,
		CapRate:       8.0,
		DSCR:          1.5,
		LTV:           70,
		OccupancyRate: 95,
	}
}

func TestValidateRentRoll_Healthy(t *testing.T) {
	v := validator.New()

	result := v.ValidateRentRoll(healthyRentRoll())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Issues)
	assert.Equal(t, 1.0, result.ConfidenceScore)
}

func TestValidateRentRoll_NoTenants(t *testing.T) {
	v := validator.New()

	result := v.ValidateRentRoll(extractor.RentRollData{})

	assert.False(t, result.IsValid)
	assert.Equal(t, 0.0, result.ConfidenceScore)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, domain.SeverityCritical, result.Issues[0].Severity)
}

func TestValidateRentRoll_BadTenantFields(t *testing.T) {
	v := validator.New()

	data := healthyRentRoll()
	data.Tenants[0].SquareFootage = 0
	data.Tenants[1].CurrentRent = -100

	result := v.ValidateRentRoll(data)

	assert.False(t, result.IsValid)
	assert.Len(t, result.Issues, 2)
}

func TestValidatePLStatement_ExpensesExceedRevenue(t *testing.T) {
	v := validator.New()

	result := v.ValidatePLStatement(extractor.PLData{
		Summary: extractor.PLSummary{
			GrossIncome:   50000,
			TotalExpenses: 80000,
			NOI:           -30000,
			ExpenseRatio:  160,
		},
	})

	assert.False(t, result.IsValid)

	fields := make([]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		fields = append(fields, issue.Field)
	}
	assert.Contains(t, fields, "noi")
	assert.Contains(t, fields, "expense_ratio")
}

func TestValidateFinancialMetrics_DSCRBelowOne(t *testing.T) {
	v := validator.New()

	m := healthyMetrics()
	m.DSCR = 0.9

	result := v.ValidateFinancialMetrics(m)

	assert.False(t, result.IsValid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "dscr", result.Issues[0].Field)
	assert.Equal(t, domain.SeverityCritical, result.Issues[0].Severity)
}

func TestValidateFinancialMetrics_WarningThresholds(t *testing.T) {
	v := validator.New()

	m := healthyMetrics()
	m.DSCR = 1.1
	m.LTV = 78
	m.OccupancyRate = 80

	result := v.ValidateFinancialMetrics(m)

	// Warnings only, still valid.
	assert.True(t, result.IsValid)
	assert.Len(t, result.Issues, 3)
	for _, issue := range result.Issues {
		assert.Equal(t, domain.SeverityWarning, issue.Severity)
	}
}

func TestValidateCrossFieldConsistency(t *testing.T) {
	v := validator.New()

	rr := healthyRentRoll()
	rr.Summary.OccupancyRate = 95

	m := healthyMetrics()
	m.OccupancyRate = 80

	result := v.ValidateCrossFieldConsistency(rr, m)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "occupancy_rate", result.Issues[0].Field)

	m.OccupancyRate = 90
	result = v.ValidateCrossFieldConsistency(rr, m)
	assert.Empty(t, result.Issues)
}

func TestBuildReport_Healthy(t *testing.T) {
	v := validator.New()

	report := v.BuildReport(healthyRentRoll(), healthyPL(), healthyMetrics())

	assert.True(t, report.OverallValid)
	assert.Equal(t, 1.0, report.ConfidenceScore)
	assert.Empty(t, report.AllIssues)
	assert.Empty(t, report.RiskFlags)
	assert.False(t, report.ValidatedAt.IsZero())
}

func TestBuildReport_CriticalMetrics(t *testing.T) {
	v := validator.New()

	m := healthyMetrics()
	m.DSCR = 0.9
	m.LTV = 85
	m.OccupancyRate = 60

	report := v.BuildReport(healthyRentRoll(), healthyPL(), m)

	assert.False(t, report.OverallValid)
	assert.NotEmpty(t, report.AllIssues)
	require.NotEmpty(t, report.RiskFlags)
	for _, flag := range report.RiskFlags {
		assert.Contains(t, flag, "CRITICAL")
	}
}
