package extractor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriter/internal/extractor"
)

// pad right-pads s with spaces to width w, matching the fixed-width layout
// the rent roll parser anchors on.
func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

// rentRollText builds a four-unit rent roll with one vacant unit. Occupied
// square footage is 4,700 of 5,700 total, an occupancy rate of ~82.46%.
func rentRollText() string {
	header := pad("Unit", 10) + pad("Tenant", 30) + pad("SF", 15) +
		pad("Rent", 15) + pad("Start", 12) + pad("End", 12) + "Deposit"
	row := func(unit, tenant, sf, rent, start, end, deposit string) string {
		return pad(unit, 10) + pad(tenant, 30) + pad(sf, 15) +
			pad(rent, 15) + pad(start, 12) + pad(end, 12) + deposit
	}
	return strings.Join([]string{
		"Rent Roll - Maple Plaza",
		"",
		header,
		row("101", "Acme Coffee", "1,200", "2,400.00", "2023-01-01", "2025-12-31", "2,400.00"),
		row("102", "Blue Dental", "1,500", "3,300.00", "2022-06-01", "2027-05-31", "3,300.00"),
		row("103", "VACANT", "1,000", "", "", "", ""),
		row("104", "Zed Law Group", "2,000", "4,800.00", "2024-03-01", "2029-02-28", "4,800.00"),
	}, "\n")
}

func TestRentRoll_Extract(t *testing.T) {
	e := extractor.NewRentRoll(extractor.NoopMarketData{})

	res := e.Extract(rentRollText())

	require.NotNil(t, res)
	assert.Equal(t, "rent_roll", res.Extractor)
	assert.True(t, res.Success)
	assert.Empty(t, res.ValidationErrors)

	data, ok := res.Data.(extractor.RentRollData)
	require.True(t, ok)
	require.Len(t, data.Tenants, 4)

	assert.Equal(t, "101", data.Tenants[0].Unit)
	assert.Equal(t, "Acme Coffee", data.Tenants[0].Tenant)
	assert.Equal(t, 1200.0, data.Tenants[0].SquareFootage)
	assert.Equal(t, 2400.0, data.Tenants[0].CurrentRent)
	assert.Equal(t, "2023-01-01", data.Tenants[0].StartDate)
	assert.Equal(t, "2025-12-31", data.Tenants[0].EndDate)
	assert.True(t, data.Tenants[0].Occupied)

	assert.False(t, data.Tenants[2].Occupied)
	assert.Equal(t, 0.0, data.Tenants[2].CurrentRent)

	assert.Equal(t, 4, data.Summary.TotalUnits)
	assert.Equal(t, 5700.0, data.Summary.TotalSquareFootage)
	assert.Equal(t, 4700.0, data.Summary.OccupiedSquareFootage)
	assert.InDelta(t, 82.46, data.Summary.OccupancyRate, 0.01)
	assert.Equal(t, 10500.0, data.Summary.TotalMonthlyRent)
	assert.InDelta(t, 22.11, data.Summary.AverageRentPSF, 0.01)

	assert.Greater(t, res.OverallConfidence, 0.0)
	assert.NotEmpty(t, res.RiskProfile)
}

func TestRentRoll_Extract_NoHeader(t *testing.T) {
	e := extractor.NewRentRoll(extractor.NoopMarketData{})

	res := e.Extract("quarterly memo with no tabular content")

	assert.False(t, res.Success)
	assert.Contains(t, res.ValidationErrors, "no tenant records extracted")

	data, ok := res.Data.(extractor.RentRollData)
	require.True(t, ok)
	assert.Empty(t, data.Tenants)
	assert.Equal(t, 0, data.Summary.TotalUnits)
}

// Extract must be stateless: two runs over the same content produce
// identical data and independent results.
func TestRentRoll_Extract_Stateless(t *testing.T) {
	e := extractor.NewRentRoll(extractor.NoopMarketData{})
	content := rentRollText()

	first := e.Extract(content)
	second := e.Extract(content)

	assert.NotSame(t, first, second)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, first.OverallConfidence, second.OverallConfidence)

	first.ValidationErrors = append(first.ValidationErrors, "mutated")
	assert.Empty(t, second.ValidationErrors)
}

func TestRentRoll_CanHandle(t *testing.T) {
	e := extractor.NewRentRoll(extractor.NoopMarketData{})

	ok, confidence := e.CanHandle(rentRollText(), "q3_rent_roll.pdf")
	assert.True(t, ok)
	assert.GreaterOrEqual(t, confidence, extractor.MinHandleConfidence)

	ok, confidence = e.CanHandle("unrelated correspondence", "memo.pdf")
	assert.False(t, ok)
	assert.Less(t, confidence, extractor.MinHandleConfidence)
}
