package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriter/internal/extractor"
)

// plText builds a small statement: gross 110,000, expenses 25,000, NOI 85,000.
// Line descriptions deliberately avoid section header terms so they are not
// skipped as headers.
func plText() string {
	return `Profit and Loss Statement
Maple Plaza, Q3

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

func TestPLStatement_Extract(t *testing.T) {
	e := extractor.NewPLStatement(extractor.NoopMarketData{})

	res := e.Extract(plText())

	require.NotNil(t, res)
	assert.Equal(t, "pl_statement", res.Extractor)
	assert.True(t, res.Success)

	data, ok := res.Data.(extractor.PLData)
	require.True(t, ok)

	require.Len(t, data.RevenueItems, 2)
	assert.Equal(t, "Base Rent", data.RevenueItems[0].Description)
	assert.Equal(t, 100000.0, data.RevenueItems[0].Amount)
	assert.Equal(t, 10000.0, data.RevenueItems[1].Amount)

	require.Len(t, data.ExpenseItems, 3)
	assert.Equal(t, 5000.0, data.ExpenseItems[0].Amount)
	assert.Equal(t, "utilities", data.ExpenseItems[0].Category)

	assert.Equal(t, 110000.0, data.Summary.GrossIncome)
	assert.Equal(t, 25000.0, data.Summary.TotalExpenses)
	assert.Equal(t, 85000.0, data.Summary.NOI)
	assert.InDelta(t, 22.73, data.Summary.ExpenseRatio, 0.01)
}

// NOI must always equal gross income minus total expenses.
func TestPLStatement_NOIIdentity(t *testing.T) {
	e := extractor.NewPLStatement(extractor.NoopMarketData{})

	res := e.Extract(plText())
	data := res.Data.(extractor.PLData)

	assert.Equal(t, data.Summary.GrossIncome-data.Summary.TotalExpenses, data.Summary.NOI)
}

func TestPLStatement_Extract_NoFinancialData(t *testing.T) {
	e := extractor.NewPLStatement(extractor.NoopMarketData{})

	res := e.Extract("a letter about the property with no figures")

	assert.False(t, res.Success)
	assert.Contains(t, res.ValidationErrors, "no financial data extracted")
}

func TestPLStatement_CanHandle(t *testing.T) {
	e := extractor.NewPLStatement(extractor.NoopMarketData{})

	ok, confidence := e.CanHandle(plText(), "profit_and_loss_q3.pdf")
	assert.True(t, ok)
	assert.GreaterOrEqual(t, confidence, extractor.MinHandleConfidence)

	ok, _ = e.CanHandle("grocery list", "notes.txt")
	assert.False(t, ok)
}
