// Package finance derives underwriting metrics from raw document text. It is
// independent of the extractor framework: the find functions are pure regex
// scans and the calculators are plain arithmetic with zero-denominator
// guards.
package finance

import (
	"log"
	"regexp"
	"strconv"
	"strings"
)

// Metrics is the derived financial picture of one document. Rates are
// percentages. Recomputed per document; no independent lifecycle.
type Metrics struct {
	NOI           float64 `json:"noi"`
	CapRate       float64 `json:"capRate"`
	DSCR          float64 `json:"dscr"`
	LTV           float64 `json:"ltv"`
	OccupancyRate float64 `json:"occupancyRate"`
	GrossIncome   float64 `json:"grossIncome"`
	TotalExpenses float64 `json:"totalExpenses"`
	ExpenseRatio  float64 `json:"expenseRatio"`
	DebtYield     float64 `json:"debtYield"`
	LoanAmount    float64 `json:"loanAmount"`
	PropertyValue float64 `json:"propertyValue"`
	DebtService   float64 `json:"debtService"`
}

// Options tune the estimation heuristics used when a figure is absent from
// the document.
type Options struct {
	// AnnualIncomeThreshold marks the largest found number as an annual
	// figure when it exceeds this, so the NOI fallback divides it by 12.
	AnnualIncomeThreshold float64
	// ValueMultiplier estimates property value as largest-number × multiplier.
	ValueMultiplier float64
	// DefaultLTV estimates the loan amount as value × ratio.
	DefaultLTV float64
	// DebtServiceRate estimates annual debt service as loan × rate.
	DebtServiceRate float64
}

// DefaultOptions returns the standard heuristic parameters.
func DefaultOptions() Options {
	return Options{
		AnnualIncomeThreshold: 100000,
		ValueMultiplier:       2.0,
		DefaultLTV:            0.7,
		DebtServiceRate:       0.08,
	}
}

// Engine analyzes document text into Metrics.
type Engine struct {
	opts Options
}

// NewEngine builds an engine. Zero-valued options fall back to defaults.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.AnnualIncomeThreshold == 0 {
		opts.AnnualIncomeThreshold = def.AnnualIncomeThreshold
	}
	if opts.ValueMultiplier == 0 {
		opts.ValueMultiplier = def.ValueMultiplier
	}
	if opts.DefaultLTV == 0 {
		opts.DefaultLTV = def.DefaultLTV
	}
	if opts.DebtServiceRate == 0 {
		opts.DebtServiceRate = def.DebtServiceRate
	}
	return &Engine{opts: opts}
}

const amountGroup = `\$?(\d+(?:,\d{3})*(?:\.\d{2})?)`

var numberRe = regexp.MustCompile(amountGroup)

// The find functions each try an ordered list of label patterns; the first
// match wins. Ordering prefers specific labels over generic ones and must be
// preserved.
var (
	noiPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)NOI[:|\s]+` + amountGroup),
		regexp.MustCompile(`(?i)Net\s*Operating\s*Income[:|\s]+` + amountGroup),
	}
	occupancyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Occupancy[:|\s]+(\d+(?:\.\d{1,2})?)\s*%`),
		regexp.MustCompile(`(?i)Occupied[:|\s]+(\d+(?:\.\d{1,2})?)\s*%`),
	}
	propertyValuePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Property\s*Value[:|\s]+` + amountGroup),
		regexp.MustCompile(`(?i)Appraised\s*Value[:|\s]+` + amountGroup),
		regexp.MustCompile(`(?i)Market\s*Value[:|\s]+` + amountGroup),
	}
	loanAmountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Loan\s*Amount[:|\s]+` + amountGroup),
		regexp.MustCompile(`(?i)Mortgage\s*Amount[:|\s]+` + amountGroup),
	}
	debtServicePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Annual\s*Debt\s*Service[:|\s]+` + amountGroup),
		regexp.MustCompile(`(?i)Debt\s*Service[:|\s]+` + amountGroup),
	}
	grossIncomePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Effective\s*Gross\s*Income[:|\s]+` + amountGroup),
		regexp.MustCompile(`(?i)Gross\s*Income[:|\s]+` + amountGroup),
		regexp.MustCompile(`(?i)Total\s*Revenue[:|\s]+` + amountGroup),
	}
	totalExpensesPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Total\s*(?:Operating\s*)?Expenses[:|\s]+` + amountGroup),
		regexp.MustCompile(`(?i)Operating\s*Expenses[:|\s]+` + amountGroup),
	}
)

// ExtractNumbers returns every dollar-style number found in the text.
func ExtractNumbers(text string) []float64 {
	var out []float64
	for _, m := range numberRe.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func findAmount(text string, patterns []*regexp.Regexp) (float64, bool) {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
			if err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// FindNOI extracts net operating income from document text.
func FindNOI(text string) (float64, bool) { return findAmount(text, noiPatterns) }

// FindOccupancy extracts the occupancy percentage from document text.
func FindOccupancy(text string) (float64, bool) { return findAmount(text, occupancyPatterns) }

// FindPropertyValue extracts the property value from document text.
func FindPropertyValue(text string) (float64, bool) { return findAmount(text, propertyValuePatterns) }

// FindLoanAmount extracts the loan amount from document text.
func FindLoanAmount(text string) (float64, bool) { return findAmount(text, loanAmountPatterns) }

// FindDebtService extracts the annual debt service from document text.
func FindDebtService(text string) (float64, bool) { return findAmount(text, debtServicePatterns) }

// FindGrossIncome extracts the gross income from document text.
func FindGrossIncome(text string) (float64, bool) { return findAmount(text, grossIncomePatterns) }

// FindTotalExpenses extracts the total operating expenses from document text.
func FindTotalExpenses(text string) (float64, bool) { return findAmount(text, totalExpensesPatterns) }

// CalculateDSCR is NOI / annual debt service.
func CalculateDSCR(noi, debtService float64) float64 {
	if debtService == 0 {
		return 0
	}
	return noi / debtService
}

// CalculateCapRate is NOI / property value as a percentage.
func CalculateCapRate(noi, propertyValue float64) float64 {
	if propertyValue == 0 {
		return 0
	}
	return noi / propertyValue * 100
}

// CalculateLTV is loan amount / property value as a percentage.
func CalculateLTV(loanAmount, propertyValue float64) float64 {
	if propertyValue == 0 {
		return 0
	}
	return loanAmount / propertyValue * 100
}

// CalculateExpenseRatio is total expenses / gross income as a percentage.
func CalculateExpenseRatio(totalExpenses, grossIncome float64) float64 {
	if grossIncome == 0 {
		return 0
	}
	return totalExpenses / grossIncome * 100
}

// CalculateDebtYield is NOI / loan amount as a percentage.
func CalculateDebtYield(noi, loanAmount float64) float64 {
	if loanAmount == 0 {
		return 0
	}
	return noi / loanAmount * 100
}

// CalculateRentPSF is annualized rent per square foot.
func CalculateRentPSF(monthlyRent, squareFootage float64) float64 {
	if squareFootage == 0 {
		return 0
	}
	return monthlyRent * 12 / squareFootage
}

// CalculateGRM is the gross rent multiplier: property value over annual
// gross income.
func CalculateGRM(propertyValue, annualGrossIncome float64) float64 {
	if annualGrossIncome == 0 {
		return 0
	}
	return propertyValue / annualGrossIncome
}

// CalculateVariance is the percentage change from prior to current.
func CalculateVariance(current, prior float64) float64 {
	if prior == 0 {
		return 0
	}
	return (current - prior) / prior * 100
}

// Analyze scans raw document text for financial figures, estimates the
// missing ones via the configured heuristics, and computes derived ratios.
func (e *Engine) Analyze(text string) Metrics {
	noi, noiFound := FindNOI(text)
	occupancy, _ := FindOccupancy(text)
	propertyValue, valueFound := FindPropertyValue(text)
	loanAmount, loanFound := FindLoanAmount(text)
	debtService, debtFound := FindDebtService(text)
	grossIncome, _ := FindGrossIncome(text)
	totalExpenses, _ := FindTotalExpenses(text)

	if !noiFound || noi == 0 {
		// Assume the largest number found is the annual income figure.
		log.Printf("finance.Engine: NOI not labeled, falling back to extracted numbers")
		if numbers := ExtractNumbers(text); len(numbers) > 0 {
			m := maxOf(numbers)
			if m > e.opts.AnnualIncomeThreshold {
				noi = m / 12
			} else {
				noi = m
			}
		}
	}

	if !valueFound {
		if numbers := ExtractNumbers(text); len(numbers) > 0 {
			if m := maxOf(numbers); m > e.opts.AnnualIncomeThreshold {
				propertyValue = m * e.opts.ValueMultiplier
			}
		}
	}

	if !loanFound && propertyValue > 0 {
		loanAmount = propertyValue * e.opts.DefaultLTV
	}
	if !debtFound && loanAmount > 0 {
		debtService = loanAmount * e.opts.DebtServiceRate
	}

	return Metrics{
		NOI:           noi,
		CapRate:       CalculateCapRate(noi, propertyValue),
		DSCR:          CalculateDSCR(noi, debtService),
		LTV:           CalculateLTV(loanAmount, propertyValue),
		OccupancyRate: occupancy,
		GrossIncome:   grossIncome,
		TotalExpenses: totalExpenses,
		ExpenseRatio:  CalculateExpenseRatio(totalExpenses, grossIncome),
		DebtYield:     CalculateDebtYield(noi, loanAmount),
		LoanAmount:    loanAmount,
		PropertyValue: propertyValue,
		DebtService:   debtService,
	}
}

// AnalyzePL derives metrics from P&L-extracted figures instead of raw text.
func (e *Engine) AnalyzePL(grossIncome, totalExpenses, occupancy float64) Metrics {
	noi := grossIncome - totalExpenses

	var propertyValue float64
	if noi > e.opts.AnnualIncomeThreshold/12 {
		propertyValue = noi * 12 * e.opts.ValueMultiplier
	}
	loanAmount := propertyValue * e.opts.DefaultLTV
	debtService := loanAmount * e.opts.DebtServiceRate

	return Metrics{
		NOI:           noi,
		CapRate:       CalculateCapRate(noi, propertyValue),
		DSCR:          CalculateDSCR(noi, debtService),
		LTV:           CalculateLTV(loanAmount, propertyValue),
		OccupancyRate: occupancy,
		GrossIncome:   grossIncome,
		TotalExpenses: totalExpenses,
		ExpenseRatio:  CalculateExpenseRatio(totalExpenses, grossIncome),
		DebtYield:     CalculateDebtYield(noi, loanAmount),
		LoanAmount:    loanAmount,
		PropertyValue: propertyValue,
		DebtService:   debtService,
	}
}

// GenerateRiskFlags emits a human-readable flag for each fixed threshold the
// metrics violate.
func GenerateRiskFlags(m Metrics) []string {
	var flags []string
	if m.DSCR < 1.25 {
		flags = append(flags, "DSCR below 1.25 indicates tight debt coverage")
	}
	if m.OccupancyRate < 85 {
		flags = append(flags, "Occupancy below 85% indicates elevated vacancy")
	}
	if m.LTV > 75 {
		flags = append(flags, "LTV above 75% indicates high leverage")
	}
	if m.ExpenseRatio > 60 {
		flags = append(flags, "Expense ratio above 60% indicates heavy operating costs")
	}
	if m.CapRate < 4 {
		flags = append(flags, "Cap rate below 4% indicates aggressive pricing")
	}
	return flags
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
