package csvexport_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriter/internal/csvexport"
	"underwriter/internal/extractor"
)

func sampleTenants() []extractor.TenantRecord {
	return []extractor.TenantRecord{
		{
			Unit:            "101",
			Tenant:          "Acme Coffee",
			SquareFootage:   1200,
			CurrentRent:     2400,
			StartDate:       "2023-01-01",
			EndDate:         "2025-12-31",
			SecurityDeposit: 2400,
			Occupied:        true,
		},
		{
			Unit:          "103",
			Tenant:        "VACANT",
			SquareFootage: 1000,
			Occupied:      false,
		},
	}
}

func TestWriter_TenantSchedule(t *testing.T) {
	var buf bytes.Buffer
	w := csvexport.NewWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteTenants(sampleTenants()))
	w.Flush()
	require.NoError(t, w.Error())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Unit", rows[0][0])
	assert.Equal(t, "Occupied", rows[0][8])

	occupied := rows[1]
	assert.Equal(t, "101", occupied[0])
	assert.Equal(t, "Acme Coffee", occupied[1])
	assert.Equal(t, "1200.00", occupied[2])
	assert.Equal(t, "2400.00", occupied[3])
	assert.Equal(t, "24.00", occupied[4])
	assert.Equal(t, "2023-01-01", occupied[5])
	assert.Equal(t, "Yes", occupied[8])

	vacant := rows[2]
	assert.Equal(t, "103", vacant[0])
	assert.Equal(t, "", vacant[3])
	assert.Equal(t, "", vacant[4])
	assert.Equal(t, "No", vacant[8])
}

func TestWriter_Summary(t *testing.T) {
	var buf bytes.Buffer
	w := csvexport.NewWriter(&buf)

	require.NoError(t, w.WriteSummary(extractor.RentRollSummary{
		TotalUnits:         2,
		TotalSquareFootage: 2200,
		TotalMonthlyRent:   2400,
		AverageRentPSF:     13.09,
		OccupancyRate:      54.55,
	}))
	w.Flush()
	require.NoError(t, w.Error())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	total := rows[1]
	assert.Equal(t, "TOTAL", total[0])
	assert.Equal(t, "2 units", total[1])
	assert.Equal(t, "2200.00", total[2])
	assert.Equal(t, "54.55%", total[8])
}

func TestRentRollFromExtractions(t *testing.T) {
	data := extractor.RentRollData{
		Tenants: sampleTenants(),
		Summary: extractor.RentRollSummary{TotalUnits: 2},
	}
	payload, err := json.Marshal([]map[string]any{
		{"extractor": "lease", "success": true, "data": map[string]any{}},
		{"extractor": "rent_roll", "success": true, "data": data},
	})
	require.NoError(t, err)

	got, found, err := csvexport.RentRollFromExtractions(payload)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, got.Summary.TotalUnits)
	require.Len(t, got.Tenants, 2)
	assert.Equal(t, "101", got.Tenants[0].Unit)
}

func TestRentRollFromExtractions_SkipsFailed(t *testing.T) {
	payload := []byte(`[{"extractor":"rent_roll","success":false,"data":{}}]`)

	_, found, err := csvexport.RentRollFromExtractions(payload)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRentRollFromExtractions_InvalidJSON(t *testing.T) {
	_, _, err := csvexport.RentRollFromExtractions([]byte("not json"))
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "My_Report_2024", csvexport.SanitizeFilename("My Report! 2024"))
	assert.Equal(t, "a_b", csvexport.SanitizeFilename("__a///b__"))
}

func TestBuildFilename(t *testing.T) {
	name := csvexport.BuildFilename("maple plaza.pdf")
	date := time.Now().Format("2006-01-02")
	assert.Equal(t, "maple_plaza_pdf_rent_roll_"+date+".csv", name)
}
