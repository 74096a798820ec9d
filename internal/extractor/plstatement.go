package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"underwriter/internal/port"
)

// PLStatement parses profit and loss statements: it locates the revenue and
// expense sections, scans line items with trailing amounts, and derives
// NOI and expense ratio.
type PLStatement struct {
	market port.MarketDataProvider
}

// NewPLStatement builds a P&L statement extractor.
func NewPLStatement(market port.MarketDataProvider) *PLStatement {
	return &PLStatement{market: market}
}

// Name implements Extractor.
func (e *PLStatement) Name() string { return "pl_statement" }

var plFilenameIndicators = []struct {
	term   string
	weight float64
}{
	{"p&l", 0.3},
	{"profit", 0.2},
	{"loss", 0.2},
	{"income", 0.2},
	{"operating", 0.1},
}

var plContentIndicators = []struct {
	pattern *regexp.Regexp
	weight  float64
}{
	{regexp.MustCompile(`profit\s*(?:and|&)\s*loss`), 0.2},
	{regexp.MustCompile(`income\s*statement`), 0.15},
	{regexp.MustCompile(`operating\s*statement`), 0.1},
	{regexp.MustCompile(`revenues?`), 0.1},
	{regexp.MustCompile(`expenses?`), 0.05},
	{regexp.MustCompile(`net\s*operating\s*income`), 0.05},
	{regexp.MustCompile(`gross\s*income`), 0.05},
}

// CanHandle implements Extractor.
func (e *PLStatement) CanHandle(content, filename string) (bool, float64) {
	confidence := 0.0

	filenameLower := strings.ToLower(filename)
	for _, ind := range plFilenameIndicators {
		if strings.Contains(filenameLower, ind.term) {
			confidence += ind.weight
		}
	}

	contentLower := strings.ToLower(content)
	for _, ind := range plContentIndicators {
		if ind.pattern.MatchString(contentLower) {
			confidence += ind.weight
		}
	}

	confidence = round3(confidence)
	return confidence >= MinHandleConfidence, confidence
}

var revenueCategories = []*regexp.Regexp{
	regexp.MustCompile(`rental\s*income`),
	regexp.MustCompile(`parking\s*income`),
	regexp.MustCompile(`other\s*income`),
	regexp.MustCompile(`recovery\s*income`),
	regexp.MustCompile(`utility\s*reimbursement`),
	regexp.MustCompile(`late\s*fees?`),
	regexp.MustCompile(`miscellaneous\s*income`),
}

var expenseCategories = []*regexp.Regexp{
	regexp.MustCompile(`utilities`),
	regexp.MustCompile(`repairs?\s*(?:and|&)?\s*maintenance`),
	regexp.MustCompile(`property\s*tax(?:es)?`),
	regexp.MustCompile(`insurance`),
	regexp.MustCompile(`management\s*fees?`),
	regexp.MustCompile(`payroll`),
	regexp.MustCompile(`marketing`),
	regexp.MustCompile(`administrative`),
	regexp.MustCompile(`professional\s*fees?`),
	regexp.MustCompile(`landscaping`),
	regexp.MustCompile(`security`),
	regexp.MustCompile(`cleaning`),
	regexp.MustCompile(`supplies`),
}

var (
	revenueSectionStart = []*regexp.Regexp{
		regexp.MustCompile(`revenue`),
		regexp.MustCompile(`income`),
		regexp.MustCompile(`receipts`),
	}
	revenueSectionEnd = []*regexp.Regexp{
		regexp.MustCompile(`expenses`),
		regexp.MustCompile(`costs`),
		regexp.MustCompile(`deductions`),
	}
	expenseSectionStart = revenueSectionEnd
	expenseSectionEnd   = []*regexp.Regexp{
		regexp.MustCompile(`net\s*income`),
		regexp.MustCompile(`total`),
		regexp.MustCompile(`summary`),
	}

	trailingAmountRe = regexp.MustCompile(`\$?\s*([\d,]+\.?\d*)\s*$`)
	anyAmountRe      = regexp.MustCompile(`\$?\s*([\d,]+\.?\d*)`)
	trailingJunkRe   = regexp.MustCompile(`[\s\-_\.]+$`)
)

// Extract implements Extractor.
func (e *PLStatement) Extract(content string) *Result {
	res := newResult(e.Name())

	revenue := extractLineItems(content, revenueSectionStart, revenueSectionEnd,
		[]string{"revenue", "income", "total"}, revenueCategories)
	expenses := extractLineItems(content, expenseSectionStart, expenseSectionEnd,
		[]string{"expense", "cost", "total"}, expenseCategories)

	var totalRevenue, totalExpenses float64
	for _, item := range revenue {
		totalRevenue += item.Amount
	}
	for _, item := range expenses {
		totalExpenses += item.Amount
	}

	summary := PLSummary{
		GrossIncome:   totalRevenue,
		TotalExpenses: totalExpenses,
		NOI:           totalRevenue - totalExpenses,
	}
	if totalRevenue > 0 {
		summary.ExpenseRatio = totalExpenses / totalRevenue * 100
	}

	data := PLData{RevenueItems: revenue, ExpenseItems: expenses, Summary: summary}
	res.Data = data

	e.scoreConfidence(res, data)
	critical := e.validate(res, data)
	res.Success = critical == 0
	res.RiskProfile = riskProfile(e.assessRisk(data).combine())
	return res
}

// extractLineItems pulls categorized line items out of one document section.
// Lines without an amount, blank lines, and section headers are skipped.
func extractLineItems(content string, start, end []*regexp.Regexp, headerTerms []string, categories []*regexp.Regexp) []LineItem {
	section, ok := extractSection(content, start, end)
	if !ok {
		return nil
	}

	var items []LineItem
	for _, line := range strings.Split(section, "\n") {
		if strings.TrimSpace(line) == "" || containsAny(strings.ToLower(line), headerTerms) {
			continue
		}

		amount, ok := extractLineAmount(line)
		if !ok {
			continue
		}

		description := cleanDescription(line, amount)
		items = append(items, LineItem{
			Description: description,
			Amount:      amount,
			Category:    categorize(description, categories),
		})
	}
	return items
}

// extractLineAmount prefers a trailing dollar amount, falling back to the
// first amount anywhere in the line.
func extractLineAmount(line string) (float64, bool) {
	m := trailingAmountRe.FindStringSubmatch(line)
	if m == nil {
		m = anyAmountRe.FindStringSubmatch(line)
	}
	if m == nil {
		return 0, false
	}
	return ParseAmount(m[1])
}

// cleanDescription strips the amount and trailing separators from a line.
func cleanDescription(line string, amount float64) string {
	formatted := formatAmount(amount)
	description := strings.Replace(line, "$"+formatted, "", 1)
	description = strings.Replace(description, formatted, "", 1)
	description = trailingJunkRe.ReplaceAllString(description, "")
	return strings.TrimSpace(description)
}

// formatAmount renders an amount with thousands separators and two decimals,
// matching the common statement layout.
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	dot := strings.Index(s, ".")
	intPart, frac := s[:dot], s[dot:]

	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

func categorize(description string, categories []*regexp.Regexp) string {
	lower := strings.ToLower(description)
	for _, cat := range categories {
		if cat.MatchString(lower) {
			name := strings.ReplaceAll(cat.String(), `\s*`, " ")
			return strings.TrimSpace(name)
		}
	}
	return "other"
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func (e *PLStatement) scoreConfidence(res *Result, data PLData) {
	revenueAvg := e.itemConfidence(res, "revenue", data.RevenueItems)
	expenseAvg := e.itemConfidence(res, "expense", data.ExpenseItems)
	res.FieldConfidence["revenue"] = round3(revenueAvg)
	res.FieldConfidence["expenses"] = round3(expenseAvg)

	metrics := e.metricsConfidence(data.Summary)
	res.FieldConfidence["metrics"] = round3(metrics)

	risk := e.assessRisk(data).combine()
	riskAdjusted := 1 - risk
	res.FieldConfidence["risk_adjusted"] = round3(riskAdjusted)

	res.OverallConfidence = round3(revenueAvg*0.3 + expenseAvg*0.3 + metrics*0.2 + riskAdjusted*0.2)
}

// itemConfidence scores each categorized line: a recognized category scores
// higher than the "other" fallback, blended with market alignment when the
// provider has a range for the category.
func (e *PLStatement) itemConfidence(res *Result, kind string, items []LineItem) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, item := range items {
		base := 1.0
		if item.Category == "other" {
			base = 0.7
		}
		market := 1.0
		if r, ok := e.market.RangeFor(strings.ReplaceAll(item.Category, " ", "_")); ok {
			market = rangeFit(item.Amount, r.Low, r.High)
		}
		score := base*0.7 + market*0.3
		sum += score
		res.FieldConfidence[kind+"."+item.Category] = round3(score)
	}
	return sum / float64(len(items))
}

// metricsConfidence checks the derived summary figures for internal
// plausibility, blending in market ranges when available.
func (e *PLStatement) metricsConfidence(s PLSummary) float64 {
	var scores []float64

	if s.ExpenseRatio >= 0 && s.ExpenseRatio <= 100 {
		scores = append(scores, 1.0)
	} else {
		scores = append(scores, 0.0)
	}
	if s.NOI <= s.GrossIncome {
		scores = append(scores, 1.0)
	} else {
		scores = append(scores, 0.0)
	}

	if r, ok := e.market.RangeFor("expense_ratio"); ok {
		scores = append(scores, rangeFit(s.ExpenseRatio, r.Low, r.High))
	}
	if r, ok := e.market.RangeFor("noi"); ok {
		scores = append(scores, rangeFit(s.NOI, r.Low, r.High))
	}

	var sum float64
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}

func (e *PLStatement) validate(res *Result, data PLData) int {
	if len(data.RevenueItems) == 0 && len(data.ExpenseItems) == 0 {
		res.ValidationErrors = append(res.ValidationErrors, "no financial data extracted")
		return 1
	}

	if data.Summary.ExpenseRatio > 100 {
		res.ValidationErrors = append(res.ValidationErrors,
			fmt.Sprintf("invalid expense ratio > 100%%: %.2f", data.Summary.ExpenseRatio))
	}
	if data.Summary.NOI > data.Summary.GrossIncome {
		res.ValidationErrors = append(res.ValidationErrors, "NOI cannot exceed gross income")
	}

	for _, item := range append(append([]LineItem{}, data.RevenueItems...), data.ExpenseItems...) {
		if item.Amount < 0 {
			res.ValidationErrors = append(res.ValidationErrors,
				fmt.Sprintf("negative amount found: %s", item.Description))
		}
	}
	return 0
}

// assessRisk estimates financial risk from the expense ratio; the other
// factors stay neutral without external data.
func (e *PLStatement) assessRisk(data PLData) riskFactors {
	r := neutralRisk()
	switch ratio := data.Summary.ExpenseRatio; {
	case data.Summary.GrossIncome == 0:
		r.financial = 0.8
	case ratio > 80:
		r.financial = 0.8
	case ratio > 60:
		r.financial = 0.6
	case ratio > 40:
		r.financial = 0.4
	default:
		r.financial = 0.2
	}
	return r
}
