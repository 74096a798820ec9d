package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriter/internal/extractor"
)

func opStatementText() string {
	return `Operating Statement - Maple Plaza
Period January 1, 2024 to March 31, 2024

Revenue
Base Rent                                       100,000.00
Parking Fees                                     10,000.00

Expenses
Utilities                                         5,000.00
Property Taxes                                   12,000.00
Repairs and Maintenance                           8,000.00

Net Income                                       85,000.00
`
}

func TestOperatingStatement_Extract(t *testing.T) {
	e := extractor.NewOperatingStatement(extractor.NoopMarketData{})

	res := e.Extract(opStatementText())

	require.NotNil(t, res)
	assert.Equal(t, "operating_statement", res.Extractor)
	assert.True(t, res.Success)

	data, ok := res.Data.(extractor.OperatingStatementData)
	require.True(t, ok)

	assert.Equal(t, "2024-01-01", data.Period.StartDate)
	assert.Equal(t, "2024-03-31", data.Period.EndDate)
	assert.Equal(t, "quarterly", data.Period.PeriodType)

	require.NotNil(t, data.Financials)
	assert.Equal(t, 110000.0, data.Financials.Summary.GrossIncome)
	assert.Equal(t, 85000.0, data.Financials.Summary.NOI)

	assert.Equal(t, 85000.0, data.Metrics.NOI)
	assert.InDelta(t, 22.73, data.Metrics.ExpenseRatio, 0.01)
}

func TestOperatingStatement_Extract_NoFinancials(t *testing.T) {
	e := extractor.NewOperatingStatement(extractor.NoopMarketData{})

	res := e.Extract("a note dated April 3, 2024 about roof repairs")

	assert.False(t, res.Success)
	assert.Contains(t, res.ValidationErrors, "no financial data extracted")
}

func TestOperatingStatement_CanHandle(t *testing.T) {
	e := extractor.NewOperatingStatement(extractor.NoopMarketData{})

	ok, confidence := e.CanHandle(opStatementText(), "maple_operating_statement.pdf")
	assert.True(t, ok)
	assert.GreaterOrEqual(t, confidence, extractor.MinHandleConfidence)

	ok, _ = e.CanHandle("grocery list", "notes.txt")
	assert.False(t, ok)
}
