package extractor

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"underwriter/internal/port"
)

// RentRoll parses the fixed-width-ish tabular layout of rent roll documents
// into tenant records plus an occupancy summary.
type RentRoll struct {
	market port.MarketDataProvider
}

// NewRentRoll builds a rent roll extractor. market may be NoopMarketData.
func NewRentRoll(market port.MarketDataProvider) *RentRoll {
	return &RentRoll{market: market}
}

// Name implements Extractor.
func (e *RentRoll) Name() string { return "rent_roll" }

var rentRollFilenameIndicators = []string{"rent", "roll", "tenant"}

var rentRollContentIndicators = []struct {
	pattern *regexp.Regexp
	weight  float64
}{
	{regexp.MustCompile(`rent\s*roll`), 0.2},
	{regexp.MustCompile(`tenant\s*schedule`), 0.1},
	{regexp.MustCompile(`lease\s*schedule`), 0.1},
	{regexp.MustCompile(`unit\s*number`), 0.1},
	{regexp.MustCompile(`tenant\s*name`), 0.1},
	{regexp.MustCompile(`monthly\s*rent`), 0.1},
}

// CanHandle implements Extractor.
func (e *RentRoll) CanHandle(content, filename string) (bool, float64) {
	filenameLower := strings.ToLower(filename)
	matches := 0
	for _, term := range rentRollFilenameIndicators {
		if strings.Contains(filenameLower, term) {
			matches++
		}
	}
	confidence := min(float64(matches)/float64(len(rentRollFilenameIndicators)), 1.0) * 0.3

	contentLower := strings.ToLower(content)
	for _, ind := range rentRollContentIndicators {
		if ind.pattern.MatchString(contentLower) {
			confidence += ind.weight
		}
	}

	confidence = round3(confidence)
	return confidence >= MinHandleConfidence, confidence
}

// columnSpec anchors a column at the header position of one of its synonyms
// and reads a fixed character width from there. The widths are heuristic and
// will misalign on layouts whose columns differ.
type columnSpec struct {
	name     string
	synonyms []string
	width    int
}

var rentRollColumns = []columnSpec{
	{"unit", []string{"unit", "suite", "space"}, 10},
	{"tenant", []string{"tenant", "occupant", "customer"}, 30},
	{"square_footage", []string{"sf", "sqft", "square feet", "size"}, 15},
	{"rent", []string{"rent", "rate", "amount"}, 15},
	{"start_date", []string{"start", "commence", "begin"}, 12},
	{"end_date", []string{"end", "expir", "term"}, 12},
	{"security_deposit", []string{"deposit", "security"}, 15},
}

var rentRollHeaderIndicators = []string{"unit", "tenant", "square feet", "sf", "rent", "lease"}

var vacancyTerms = []string{"vacant", "empty", "available"}

// Extract implements Extractor.
func (e *RentRoll) Extract(content string) *Result {
	res := newResult(e.Name())

	tenants := e.extractTenants(content)

	var totalSF, totalRent, occupiedSF float64
	for _, t := range tenants {
		totalSF += t.SquareFootage
		totalRent += t.CurrentRent
		if t.Occupied {
			occupiedSF += t.SquareFootage
		}
	}

	summary := RentRollSummary{
		TotalUnits:            len(tenants),
		TotalSquareFootage:    totalSF,
		OccupiedSquareFootage: occupiedSF,
		TotalMonthlyRent:      totalRent,
	}
	if totalSF > 0 {
		summary.OccupancyRate = occupiedSF / totalSF * 100
		summary.AverageRentPSF = totalRent * 12 / totalSF
	}

	data := RentRollData{Tenants: tenants, Summary: summary}
	res.Data = data

	e.scoreConfidence(res, data)
	critical := e.validate(res, data)
	res.Success = critical == 0
	res.RiskProfile = riskProfile(e.assessRisk(data).combine())
	return res
}

func (e *RentRoll) extractTenants(content string) []TenantRecord {
	lines := strings.Split(content, "\n")

	header := findRentRollHeader(lines)
	if header == "" {
		log.Printf("extractor.RentRoll: no header line found")
		return nil
	}

	columns := locateColumns(header)

	var tenants []TenantRecord
	processing := false
	for _, line := range lines {
		if strings.TrimSpace(line) == strings.TrimSpace(header) {
			processing = true
			continue
		}
		if processing && strings.TrimSpace(line) != "" {
			if t, ok := parseTenantLine(line, columns); ok {
				tenants = append(tenants, t)
			}
		}
	}
	return tenants
}

// findRentRollHeader picks the first line containing at least three of the
// known header terms.
func findRentRollHeader(lines []string) string {
	for _, line := range lines {
		lower := strings.ToLower(line)
		n := 0
		for _, ind := range rentRollHeaderIndicators {
			if strings.Contains(lower, ind) {
				n++
			}
		}
		if n >= 3 {
			return line
		}
	}
	return ""
}

// locateColumns maps each known column to its [start,end) slice of a data
// line, anchored by substring search of header synonyms.
func locateColumns(header string) map[string][2]int {
	positions := map[string][2]int{}
	headerLower := strings.ToLower(header)

	for _, col := range rentRollColumns {
		for _, syn := range col.synonyms {
			if pos := strings.Index(headerLower, syn); pos != -1 {
				positions[col.name] = [2]int{pos, pos + col.width}
				break
			}
		}
	}
	return positions
}

func parseTenantLine(line string, columns map[string][2]int) (TenantRecord, bool) {
	if strings.TrimSpace(line) == "" {
		return TenantRecord{}, false
	}

	var t TenantRecord
	for _, col := range rentRollColumns {
		span, ok := columns[col.name]
		if !ok || span[0] >= len(line) {
			continue
		}
		value := strings.TrimSpace(line[span[0]:min(span[1], len(line))])

		switch col.name {
		case "unit":
			t.Unit = value
		case "tenant":
			t.Tenant = value
		case "square_footage":
			t.SquareFootage = ParseAmountOr(value, 0)
		case "rent":
			t.CurrentRent = ParseAmountOr(value, 0)
		case "start_date":
			t.StartDate = ParseDate(value, "")
		case "end_date":
			t.EndDate = ParseDate(value, "")
		case "security_deposit":
			t.SecurityDeposit = ParseAmountOr(value, 0)
		}
	}

	t.Occupied = true
	tenantLower := strings.ToLower(t.Tenant)
	for _, term := range vacancyTerms {
		if strings.Contains(tenantLower, term) {
			t.Occupied = false
			break
		}
	}
	return t, true
}

var rentRollFieldRules = map[string]fieldRule{
	"unit":           {format: regexp.MustCompile(`^[A-Za-z0-9\-\.]+$`)},
	"tenant":         {},
	"square_footage": {format: regexp.MustCompile(`^\d+(\.\d{1,2})?$`), min: 100, max: 1000000, hasRange: true},
	"current_rent":   {format: regexp.MustCompile(`^\d+(\.\d{1,2})?$`), min: 0, max: 1000000, hasRange: true},
}

func (e *RentRoll) scoreConfidence(res *Result, data RentRollData) {
	var tenantScores []float64
	for _, t := range data.Tenants {
		values := map[string]any{
			"unit":           t.Unit,
			"tenant":         t.Tenant,
			"square_footage": t.SquareFootage,
			"current_rent":   t.CurrentRent,
		}

		var sum float64
		n := 0
		for field, value := range values {
			score := fieldConfidence(field, value, rentRollFieldRules[field], e.market)
			res.FieldConfidence["tenant."+field] = round3(score)
			sum += score
			n++
		}

		risk := tenantRisk(t, data.Summary.TotalSquareFootage)
		sum += 1 - risk
		n++

		score := sum / float64(n)
		tenantScores = append(tenantScores, score)
		unit := t.Unit
		if unit == "" {
			unit = "unknown"
		}
		res.FieldConfidence["tenant_"+unit] = round3(score)
	}

	summaryScore := e.summaryConfidence(data.Summary)
	res.FieldConfidence["summary"] = round3(summaryScore)

	tenantAvg := 0.0
	if len(tenantScores) > 0 {
		for _, s := range tenantScores {
			tenantAvg += s
		}
		tenantAvg /= float64(len(tenantScores))
	}

	marketScore := 1.0
	if r, ok := e.market.RangeFor("average_rent_psf"); ok {
		marketScore = rangeFit(data.Summary.AverageRentPSF, r.Low, r.High)
	}

	res.OverallConfidence = round3(tenantAvg*0.6 + summaryScore*0.2 + marketScore*0.2)
}

func (e *RentRoll) summaryConfidence(s RentRollSummary) float64 {
	scores := []float64{0}
	if s.OccupancyRate >= 0 && s.OccupancyRate <= 100 {
		scores[0] = 1.0
	}
	if r, ok := e.market.RangeFor("average_rent_psf"); ok {
		scores = append(scores, rangeFit(s.AverageRentPSF, r.Low, r.High))
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}

// tenantRisk scores one tenant in [0,1]: lease term 30%, credit 30% (neutral,
// no credit data source), size concentration 20%, industry 20% (neutral).
func tenantRisk(t TenantRecord, totalSF float64) float64 {
	term := 0.8
	if t.StartDate != "" && t.EndDate != "" {
		months := leaseTermMonths(t.StartDate, t.EndDate)
		switch {
		case months <= 12:
			term = 0.8
		case months <= 36:
			term = 0.5
		default:
			term = 0.2
		}
	}

	size := 0.5
	if totalSF > 0 {
		concentration := t.SquareFootage / totalSF
		switch {
		case concentration > 0.3:
			size = 0.8
		case concentration > 0.1:
			size = 0.5
		default:
			size = 0.3
		}
	}

	return term*0.3 + 0.5*0.3 + size*0.2 + 0.5*0.2
}

func leaseTermMonths(start, end string) int {
	s, err1 := time.Parse("2006-01-02", start)
	t, err2 := time.Parse("2006-01-02", end)
	if err1 != nil || err2 != nil {
		return 0
	}
	days := int(t.Sub(s).Hours() / 24)
	return (days + 30) / 30
}

// validate records validation errors on the result and returns the number of
// critical findings.
func (e *RentRoll) validate(res *Result, data RentRollData) int {
	critical := 0

	if len(data.Tenants) == 0 {
		res.ValidationErrors = append(res.ValidationErrors, "no tenant records extracted")
		return 1
	}

	if data.Summary.OccupancyRate > 100 {
		res.ValidationErrors = append(res.ValidationErrors,
			fmt.Sprintf("invalid occupancy rate > 100%%: %.2f", data.Summary.OccupancyRate))
	}

	for i, t := range data.Tenants {
		unit := t.Unit
		if unit == "" {
			unit = fmt.Sprintf("index_%d", i)
			res.ValidationErrors = append(res.ValidationErrors,
				fmt.Sprintf("missing unit identifier at row %d", i))
		}
		if t.SquareFootage <= 0 {
			res.ValidationErrors = append(res.ValidationErrors,
				fmt.Sprintf("invalid square footage for unit %s", unit))
		}
		if t.CurrentRent < 0 {
			res.ValidationErrors = append(res.ValidationErrors,
				fmt.Sprintf("negative rent for unit %s", unit))
		}
	}
	return critical
}

// assessRisk estimates document-level risk: property risk tracks vacancy,
// tenant risk averages the per-tenant scores, market and financial stay
// neutral without external data.
func (e *RentRoll) assessRisk(data RentRollData) riskFactors {
	r := neutralRisk()
	if data.Summary.TotalSquareFootage > 0 {
		r.property = clamp01(1 - data.Summary.OccupancyRate/100)
	}
	if len(data.Tenants) > 0 {
		var sum float64
		for _, t := range data.Tenants {
			sum += tenantRisk(t, data.Summary.TotalSquareFootage)
		}
		r.tenant = clamp01(sum / float64(len(data.Tenants)))
	}
	return r
}
