package csvexport

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"underwriter/internal/extractor"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row for a tenant schedule export.
var columns = []string{
	"Unit",
	"Tenant",
	"Square Footage",
	"Monthly Rent",
	"Rent PSF (Annual)",
	"Lease Start",
	"Lease End",
	"Security Deposit",
	"Occupied",
}

// Writer wraps csv.Writer for exporting rent roll data as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the tenant schedule header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteTenants converts tenant records to CSV rows and writes them.
func (w *Writer) WriteTenants(tenants []extractor.TenantRecord) error {
	for i := range tenants {
		if err := w.csv.Write(tenantToRow(&tenants[i])); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary appends a blank spacer row followed by portfolio totals.
func (w *Writer) WriteSummary(s extractor.RentRollSummary) error {
	rows := [][]string{
		make([]string, len(columns)),
		{"TOTAL", strconv.Itoa(s.TotalUnits) + " units",
			formatMoney(s.TotalSquareFootage),
			formatMoney(s.TotalMonthlyRent),
			formatMoney(s.AverageRentPSF),
			"", "", "",
			formatMoney(s.OccupancyRate) + "%"},
	}
	for _, row := range rows {
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// tenantToRow converts a single tenant record to a row. Vacant units keep
// their size and deposit columns but leave rent empty.
func tenantToRow(t *extractor.TenantRecord) []string {
	row := make([]string, len(columns))
	row[0] = t.Unit
	row[1] = t.Tenant
	row[2] = formatMoney(t.SquareFootage)
	if t.Occupied {
		row[3] = formatMoney(t.CurrentRent)
		if t.SquareFootage > 0 {
			row[4] = formatMoney(t.CurrentRent * 12 / t.SquareFootage)
		}
	}
	row[5] = t.StartDate
	row[6] = t.EndDate
	row[7] = formatMoney(t.SecurityDeposit)
	row[8] = formatBool(t.Occupied)
	return row
}

// RentRollFromExtractions pulls the first successful rent roll payload out of
// a stored extractions array. Returns false when no extractor produced one.
func RentRollFromExtractions(raw json.RawMessage) (extractor.RentRollData, bool, error) {
	var entries []struct {
		Extractor string          `json:"extractor"`
		Data      json.RawMessage `json:"data"`
		Success   bool            `json:"success"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return extractor.RentRollData{}, false, fmt.Errorf("csvexport: decode extractions: %w", err)
	}
	for _, e := range entries {
		if e.Extractor != "rent_roll" || !e.Success {
			continue
		}
		var data extractor.RentRollData
		if err := json.Unmarshal(e.Data, &data); err != nil {
			return extractor.RentRollData{}, false, fmt.Errorf("csvexport: decode rent roll: %w", err)
		}
		return data, true, nil
	}
	return extractor.RentRollData{}, false, nil
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a document name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_document_name}_rent_roll_{YYYY-MM-DD}.csv
func BuildFilename(docName string) string {
	sanitized := SanitizeFilename(docName)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_rent_roll_%s.csv", sanitized, date)
}
