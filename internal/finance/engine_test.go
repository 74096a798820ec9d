package finance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"underwriter/internal/finance"
)

func TestFindAmounts(t *testing.T) {
	text := `Underwriting Summary
Net Operating Income: $851,250
Occupancy: 92.5%
Property Value: $10,000,000
Loan Amount: $7,000,000
Annual Debt Service: $560,000
Gross Income: $1,200,000
Total Operating Expenses: $348,750
`

	noi, ok := finance.FindNOI(text)
	assert.True(t, ok)
	assert.Equal(t, 851250.0, noi)

	occ, ok := finance.FindOccupancy(text)
	assert.True(t, ok)
	assert.Equal(t, 92.5, occ)

	value, ok := finance.FindPropertyValue(text)
	assert.True(t, ok)
	assert.Equal(t, 10000000.0, value)

	loan, ok := finance.FindLoanAmount(text)
	assert.True(t, ok)
	assert.Equal(t, 7000000.0, loan)

	debt, ok := finance.FindDebtService(text)
	assert.True(t, ok)
	assert.Equal(t, 560000.0, debt)

	gross, ok := finance.FindGrossIncome(text)
	assert.True(t, ok)
	assert.Equal(t, 1200000.0, gross)

	expenses, ok := finance.FindTotalExpenses(text)
	assert.True(t, ok)
	assert.Equal(t, 348750.0, expenses)
}

func TestFindNOI_NotFound(t *testing.T) {
	_, ok := finance.FindNOI("no labeled figures here")
	assert.False(t, ok)
}

func TestCalculators(t *testing.T) {
	assert.InDelta(t, 8.5125, finance.CalculateCapRate(851250, 10000000), 1e-9)
	assert.InDelta(t, 1.52, finance.CalculateDSCR(851250, 560000), 0.01)
	assert.Equal(t, 70.0, finance.CalculateLTV(7000000, 10000000))
	assert.InDelta(t, 29.06, finance.CalculateExpenseRatio(348750, 1200000), 0.01)
	assert.InDelta(t, 12.16, finance.CalculateDebtYield(851250, 7000000), 0.01)
	assert.Equal(t, 24.0, finance.CalculateRentPSF(2000, 1000))
	assert.InDelta(t, 8.33, finance.CalculateGRM(10000000, 1200000), 0.01)
	assert.Equal(t, 10.0, finance.CalculateVariance(110, 100))
}

// Every ratio guards its denominator: zero in, zero out.
func TestCalculators_ZeroDenominator(t *testing.T) {
	assert.Equal(t, 0.0, finance.CalculateDSCR(851250, 0))
	assert.Equal(t, 0.0, finance.CalculateCapRate(851250, 0))
	assert.Equal(t, 0.0, finance.CalculateLTV(7000000, 0))
	assert.Equal(t, 0.0, finance.CalculateExpenseRatio(348750, 0))
	assert.Equal(t, 0.0, finance.CalculateDebtYield(851250, 0))
	assert.Equal(t, 0.0, finance.CalculateRentPSF(2000, 0))
	assert.Equal(t, 0.0, finance.CalculateGRM(10000000, 0))
	assert.Equal(t, 0.0, finance.CalculateVariance(110, 0))
}

func TestEngine_Analyze_LabeledFigures(t *testing.T) {
	e := finance.NewEngine(finance.DefaultOptions())

	m := e.Analyze(`NOI: $851,250
Occupancy: 92.5%
Property Value: $10,000,000
Loan Amount: $7,000,000
Annual Debt Service: $560,000
Gross Income: $1,200,000
Total Expenses: $348,750`)

	assert.Equal(t, 851250.0, m.NOI)
	assert.Equal(t, 92.5, m.OccupancyRate)
	assert.Equal(t, 10000000.0, m.PropertyValue)
	assert.Equal(t, 7000000.0, m.LoanAmount)
	assert.InDelta(t, 8.5125, m.CapRate, 1e-9)
	assert.Equal(t, 70.0, m.LTV)
	assert.InDelta(t, 1.52, m.DSCR, 0.01)
}

// Without labeled figures the engine estimates from the largest number found.
func TestEngine_Analyze_HeuristicFallback(t *testing.T) {
	e := finance.NewEngine(finance.DefaultOptions())

	m := e.Analyze("the property brought in 1,200,000 this year")

	assert.Equal(t, 100000.0, m.NOI)
	assert.Equal(t, 2400000.0, m.PropertyValue)
	assert.Equal(t, 1680000.0, m.LoanAmount)
	assert.InDelta(t, 134400.0, m.DebtService, 1e-9)
}

func TestEngine_AnalyzePL(t *testing.T) {
	e := finance.NewEngine(finance.DefaultOptions())

	m := e.AnalyzePL(500000, 200000, 90)

	assert.Equal(t, 300000.0, m.NOI)
	assert.Equal(t, 90.0, m.OccupancyRate)
	assert.Equal(t, 7200000.0, m.PropertyValue)
	assert.Equal(t, 5040000.0, m.LoanAmount)
	assert.Equal(t, 70.0, m.LTV)
	assert.Equal(t, 40.0, m.ExpenseRatio)
	assert.InDelta(t, 4.17, m.CapRate, 0.01)
}

func TestGenerateRiskFlags(t *testing.T) {
	flags := finance.GenerateRiskFlags(finance.Metrics{
		DSCR:          1.1,
		OccupancyRate: 80,
		LTV:           78,
		ExpenseRatio:  65,
		CapRate:       3.5,
	})
	assert.Len(t, flags, 5)

	flags = finance.GenerateRiskFlags(finance.Metrics{
		DSCR:          1.5,
		OccupancyRate: 95,
		LTV:           65,
		ExpenseRatio:  40,
		CapRate:       7,
	})
	assert.Empty(t, flags)
}
