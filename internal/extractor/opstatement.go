package extractor

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"underwriter/internal/port"
)

// OperatingStatement extracts operating statements, which often combine
// elements of both rent rolls and P&L statements. It composes the two
// specialized extractors and merges their outputs with a reporting period and
// a budget-vs-actual comparison.
type OperatingStatement struct {
	rentRoll *RentRoll
	pl       *PLStatement
}

// NewOperatingStatement builds an operating statement extractor.
func NewOperatingStatement(market port.MarketDataProvider) *OperatingStatement {
	return &OperatingStatement{
		rentRoll: NewRentRoll(market),
		pl:       NewPLStatement(market),
	}
}

// Name implements Extractor.
func (e *OperatingStatement) Name() string { return "operating_statement" }

var opFilenameIndicators = []string{"operating", "statement", "performance", "actual"}

var opContentIndicators = []struct {
	pattern *regexp.Regexp
	weight  float64
}{
	{regexp.MustCompile(`operating\s*statement`), 0.25},
	{regexp.MustCompile(`property\s*performance`), 0.15},
	{regexp.MustCompile(`actual\s*vs\s*budget`), 0.15},
	{regexp.MustCompile(`variance\s*report`), 0.1},
	{regexp.MustCompile(`year\s*to\s*date`), 0.05},
}

// CanHandle implements Extractor.
func (e *OperatingStatement) CanHandle(content, filename string) (bool, float64) {
	filenameLower := strings.ToLower(filename)
	matches := 0
	for _, term := range opFilenameIndicators {
		if strings.Contains(filenameLower, term) {
			matches++
		}
	}
	confidence := min(float64(matches)/float64(len(opFilenameIndicators)), 1.0) * 0.3

	contentLower := strings.ToLower(content)
	for _, ind := range opContentIndicators {
		if ind.pattern.MatchString(contentLower) {
			confidence += ind.weight
		}
	}

	confidence = round3(confidence)
	return confidence >= MinHandleConfidence, confidence
}

var (
	periodRangeRe  = regexp.MustCompile(`(?i)period(?:\s+from)?\s+(\w+\s+\d{1,2},?\s+\d{4})\s+(?:to|through)\s+(\w+\s+\d{1,2},?\s+\d{4})`)
	periodSlashRe  = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{2,4})\s*-\s*(\d{1,2}/\d{1,2}/\d{2,4})`)
	periodAsOfRe   = regexp.MustCompile(`(?i)(?:as\s+of\s+)?(\w+\s+\d{1,2},?\s+\d{4})`)
	budgetLineRe   = regexp.MustCompile(`([\w\s]+?)\s*\$?([\d,]+\.?\d*)\s*\$?([\d,]+\.?\d*)\s*\$?(-?[\d,]+\.?\d*)`)
	budgetStart    = []*regexp.Regexp{
		regexp.MustCompile(`budget\s*comparison`),
		regexp.MustCompile(`variance\s*analysis`),
		regexp.MustCompile(`actual\s*vs\s*budget`),
	}
	budgetEnd = []*regexp.Regexp{
		regexp.MustCompile(`notes`),
		regexp.MustCompile(`summary`),
		regexp.MustCompile(`end\s*of\s*report`),
	}
)

// Extract implements Extractor.
func (e *OperatingStatement) Extract(content string) *Result {
	res := newResult(e.Name())

	data := OperatingStatementData{
		Period: extractPeriod(content),
		Budget: extractBudget(content),
	}

	var rentRollConfidence float64
	if ok, _ := e.rentRoll.CanHandle(content, ""); ok {
		rrRes := e.rentRoll.Extract(content)
		if rrRes.Success {
			rr := rrRes.Data.(RentRollData)
			data.Occupancy = &rr.Summary
			rentRollConfidence = rrRes.OverallConfidence
		}
	}

	var plConfidence float64
	plRes := e.pl.Extract(content)
	if plRes.Success {
		pl := plRes.Data.(PLData)
		data.Financials = &pl
		plConfidence = plRes.OverallConfidence
	}

	data.Metrics = mergeMetrics(data.Financials, data.Occupancy, data.Budget)
	res.Data = data

	e.scoreConfidence(res, data, plConfidence, rentRollConfidence)
	critical := e.validate(res, data)
	res.Success = critical == 0
	res.RiskProfile = riskProfile(e.assessRisk(data).combine())
	return res
}

// extractPeriod finds a date range or single "as of" date and infers the
// period type from the day span: <=31 days monthly, <=92 quarterly, else
// annual.
func extractPeriod(content string) Period {
	var p Period

	if m := periodRangeRe.FindStringSubmatch(content); m != nil {
		p.StartDate = ParseDate(m[1], "")
		p.EndDate = ParseDate(m[2], "")
	} else if m := periodSlashRe.FindStringSubmatch(content); m != nil {
		p.StartDate = ParseDate(m[1], "")
		p.EndDate = ParseDate(m[2], "")
	} else if m := periodAsOfRe.FindStringSubmatch(content); m != nil {
		p.EndDate = ParseDate(m[1], "")
	}

	if p.StartDate != "" && p.EndDate != "" {
		start, err1 := time.Parse("2006-01-02", p.StartDate)
		end, err2 := time.Parse("2006-01-02", p.EndDate)
		if err1 == nil && err2 == nil {
			days := int(end.Sub(start).Hours() / 24)
			switch {
			case days <= 31:
				p.PeriodType = "monthly"
			case days <= 92:
				p.PeriodType = "quarterly"
			default:
				p.PeriodType = "annual"
			}
		}
	}
	return p
}

// extractBudget parses the budget comparison section: lines carrying a
// description plus actual, budget, and variance amounts.
func extractBudget(content string) *BudgetComparison {
	section, ok := extractSection(content, budgetStart, budgetEnd)
	if !ok {
		return nil
	}

	budget := &BudgetComparison{}
	for _, line := range strings.Split(section, "\n") {
		for _, m := range budgetLineRe.FindAllStringSubmatch(line, -1) {
			item := BudgetItem{
				Description: strings.TrimSpace(m[1]),
				Actual:      ParseAmountOr(m[2], 0),
				Budget:      ParseAmountOr(m[3], 0),
				Variance:    ParseAmountOr(m[4], 0),
			}
			if item.Budget != 0 {
				item.VariancePercent = item.Variance / item.Budget * 100
			}
			budget.Items = append(budget.Items, item)
		}
	}

	if len(budget.Items) == 0 {
		return nil
	}

	var totalActual, totalBudget float64
	for _, item := range budget.Items {
		totalActual += item.Actual
		totalBudget += item.Budget
	}
	budget.TotalVariance = totalActual - totalBudget
	if totalBudget != 0 {
		budget.VariancePercent = (totalActual - totalBudget) / totalBudget * 100
	}
	return budget
}

func mergeMetrics(pl *PLData, occupancy *RentRollSummary, budget *BudgetComparison) StatementMetrics {
	var m StatementMetrics
	if pl != nil {
		m.NOI = pl.Summary.NOI
		m.ExpenseRatio = pl.Summary.ExpenseRatio
	}
	if occupancy != nil {
		m.OccupancyRate = occupancy.OccupancyRate
		m.AvgRentPSF = occupancy.AverageRentPSF
	}
	if budget != nil {
		m.BudgetVariance = budget.TotalVariance
		m.BudgetVariancePercent = budget.VariancePercent
	}
	return m
}

func (e *OperatingStatement) scoreConfidence(res *Result, data OperatingStatementData, plScore, rentRollScore float64) {
	var scores []float64

	if data.Financials != nil {
		scores = append(scores, plScore)
	}
	if data.Occupancy != nil {
		scores = append(scores, rentRollScore)
	}

	budgetScore := 0.0
	if data.Budget != nil && len(data.Budget.Items) > 0 {
		budgetScore = 1.0
		scores = append(scores, budgetScore)
	}

	periodScore := 0.0
	if data.Period.EndDate != "" {
		periodScore = 1.0
	}
	scores = append(scores, periodScore)

	res.FieldConfidence["pl_data"] = round3(plScore)
	res.FieldConfidence["rent_roll_data"] = round3(rentRollScore)
	res.FieldConfidence["budget_data"] = round3(budgetScore)
	res.FieldConfidence["period_info"] = round3(periodScore)

	var sum float64
	for _, s := range scores {
		sum += s
	}
	res.OverallConfidence = round3(sum / float64(len(scores)))
}

func (e *OperatingStatement) validate(res *Result, data OperatingStatementData) int {
	critical := 0

	if data.Financials == nil {
		res.ValidationErrors = append(res.ValidationErrors, "no financial data extracted")
		critical++
	}
	if data.Period.EndDate == "" {
		res.ValidationErrors = append(res.ValidationErrors, "missing reporting period end date")
	}
	if data.Metrics.ExpenseRatio > 100 {
		res.ValidationErrors = append(res.ValidationErrors,
			fmt.Sprintf("invalid expense ratio > 100%%: %.2f", data.Metrics.ExpenseRatio))
	}
	if data.Metrics.OccupancyRate > 100 {
		res.ValidationErrors = append(res.ValidationErrors,
			fmt.Sprintf("invalid occupancy rate > 100%%: %.2f", data.Metrics.OccupancyRate))
	}

	if data.Budget != nil {
		for _, item := range data.Budget.Items {
			if abs(item.Variance) > max(item.Actual, item.Budget) {
				res.ValidationErrors = append(res.ValidationErrors,
					fmt.Sprintf("suspicious variance for %s: %.2f", item.Description, item.Variance))
			}
		}
	}
	return critical
}

func (e *OperatingStatement) assessRisk(data OperatingStatementData) riskFactors {
	r := neutralRisk()
	if data.Occupancy != nil && data.Occupancy.TotalSquareFootage > 0 {
		r.property = clamp01(1 - data.Occupancy.OccupancyRate/100)
	}
	if data.Financials != nil {
		r.financial = e.pl.assessRisk(*data.Financials).financial
	}
	return r
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
