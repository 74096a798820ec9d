package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"underwriter/internal/port"
)

// Lease extracts detailed terms from lease documents. It is pure regex and
// section work with no sub-extractor composition.
type Lease struct {
	market port.MarketDataProvider
}

// NewLease builds a lease extractor.
func NewLease(market port.MarketDataProvider) *Lease {
	return &Lease{market: market}
}

// Name implements Extractor.
func (e *Lease) Name() string { return "lease" }

var leaseFilenameIndicators = []string{"lease", "tenant", "agreement", "contract"}

var leaseContentIndicators = []struct {
	pattern *regexp.Regexp
	weight  float64
}{
	{regexp.MustCompile(`lease\s*agreement`), 0.2},
	{regexp.MustCompile(`tenant\s*lease`), 0.1},
	{regexp.MustCompile(`rental\s*agreement`), 0.1},
	{regexp.MustCompile(`landlord\s*and\s*tenant`), 0.1},
	{regexp.MustCompile(`premises\s*lease`), 0.1},
	{regexp.MustCompile(`term\s*of\s*lease`), 0.1},
}

// CanHandle implements Extractor.
func (e *Lease) CanHandle(content, filename string) (bool, float64) {
	filenameLower := strings.ToLower(filename)
	matches := 0
	for _, term := range leaseFilenameIndicators {
		if strings.Contains(filenameLower, term) {
			matches++
		}
	}
	confidence := min(float64(matches)/float64(len(leaseFilenameIndicators)), 1.0) * 0.3

	contentLower := strings.ToLower(content)
	for _, ind := range leaseContentIndicators {
		if ind.pattern.MatchString(contentLower) {
			confidence += ind.weight
		}
	}

	confidence = round3(confidence)
	return confidence >= MinHandleConfidence, confidence
}

// Extract implements Extractor.
func (e *Lease) Extract(content string) *Result {
	res := newResult(e.Name())

	data := LeaseData{
		BasicInfo:         extractLeaseBasicInfo(content),
		FinancialTerms:    extractLeaseFinancialTerms(content),
		KeyDates:          extractLeaseKeyDates(content),
		TenantInfo:        extractLeaseTenantInfo(content),
		PropertyInfo:      extractLeasePropertyInfo(content),
		SpecialProvisions: extractSpecialProvisions(content),
	}
	res.Data = data

	e.scoreConfidence(res, data)
	critical := e.validate(res, data)
	res.Success = critical == 0
	res.RiskProfile = riskProfile(e.assessRisk(data).combine())
	return res
}

var leaseTypePatterns = []struct {
	leaseType string
	pattern   *regexp.Regexp
}{
	{"Commercial", regexp.MustCompile(`(?i)commercial\s*lease`)},
	{"Retail", regexp.MustCompile(`(?i)retail\s*lease`)},
	{"Office", regexp.MustCompile(`(?i)office\s*lease`)},
	{"Industrial", regexp.MustCompile(`(?i)industrial\s*lease`)},
	{"Warehouse", regexp.MustCompile(`(?i)warehouse\s*lease`)},
}

var leaseTermPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:term|period)\s*of\s*(\d+)\s*(year|month)s?`),
	regexp.MustCompile(`(?i)(\d+)[\-\s](year)\s*(?:term|lease)`),
	regexp.MustCompile(`(?i)(\d+)[\-\s](month)\s*(?:term|lease)`),
}

var leaseExecutionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)executed\s*(?:on|as\s*of)\s*(\w+\s+\d{1,2},?\s+\d{4})`),
	regexp.MustCompile(`(?i)dated\s*(?:this)?\s*(\d{1,2}(?:st|nd|rd|th)?\s+\w+,?\s+\d{4})`),
	regexp.MustCompile(`(?i)effective\s*date[:\s]+(\w+\s+\d{1,2},?\s+\d{4})`),
}

func extractLeaseBasicInfo(content string) LeaseBasicInfo {
	var info LeaseBasicInfo

	for _, lt := range leaseTypePatterns {
		if lt.pattern.MatchString(content) {
			info.LeaseType = lt.leaseType
			break
		}
	}

	for _, p := range leaseTermPatterns {
		if m := p.FindStringSubmatch(content); m != nil {
			term, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if strings.EqualFold(m[2], "year") {
				term *= 12
			}
			info.TermMonths = term
			break
		}
	}

	for _, p := range leaseExecutionPatterns {
		if m := p.FindStringSubmatch(content); m != nil {
			info.ExecutionDate = ParseDate(m[1], "")
			break
		}
	}
	return info
}

var (
	baseRentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)base\s*rent[:\s]+\$?\s*([\d,]+\.?\d*)\s*(?:per\s*(?:month|year|annum))?`),
		regexp.MustCompile(`(?i)monthly\s*rent[:\s]+\$?\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`(?i)annual\s*rent[:\s]+\$?\s*([\d,]+\.?\d*)`),
	}
	securityDepositPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)security\s*deposit[:\s]+\$?\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`(?i)deposit[:\s]+\$?\s*([\d,]+\.?\d*)\s*(?:as\s*security)?`),
	}
	escalationStart = []*regexp.Regexp{
		regexp.MustCompile(`rent\s*escalation`),
		regexp.MustCompile(`rent\s*increase`),
		regexp.MustCompile(`rental\s*adjustment`),
	}
	escalationEnd = []*regexp.Regexp{
		regexp.MustCompile(`security\s*deposit`),
		regexp.MustCompile(`operating\s*expenses`),
		regexp.MustCompile(`utilities`),
	}
	escalationRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?%|\$\s*[\d,]+\.?\d*)\s*(?:increase|adjustment)\s*(?:in|on|at)\s*(?:year|month)\s*(\d+)`)

	opexStart = []*regexp.Regexp{
		regexp.MustCompile(`operating\s*expenses`),
		regexp.MustCompile(`additional\s*rent`),
	}
	opexEnd = []*regexp.Regexp{
		regexp.MustCompile(`utilities`),
		regexp.MustCompile(`maintenance`),
		regexp.MustCompile(`insurance`),
	}
	opexBaseYearRe = regexp.MustCompile(`(?i)base\s*year[:\s]+(\d{4})`)
	opexShareRe    = regexp.MustCompile(`(?i)tenant'?s?\s*(?:share|portion|percentage)[:\s]+(\d+(?:\.\d+)?)\s*%`)
	opexCapRe      = regexp.MustCompile(`(?i)(?:increase|escalation)\s*cap[:\s]+(\d+(?:\.\d+)?)\s*%`)
)

func extractLeaseFinancialTerms(content string) LeaseFinancialTerms {
	var terms LeaseFinancialTerms

	for _, p := range baseRentPatterns {
		if m := p.FindStringSubmatch(content); m != nil {
			if v, ok := ParseAmount(m[1]); ok {
				terms.BaseRent = &v
			}
			break
		}
	}

	if section, ok := extractSection(content, escalationStart, escalationEnd); ok {
		for _, m := range escalationRe.FindAllStringSubmatch(section, -1) {
			amount := m[1]
			year, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			escType := "fixed"
			if strings.Contains(amount, "%") {
				escType = "percentage"
			}
			terms.Escalations = append(terms.Escalations, RentEscalation{
				Year:   year,
				Amount: amount,
				Type:   escType,
			})
		}
	}

	for _, p := range securityDepositPatterns {
		if m := p.FindStringSubmatch(content); m != nil {
			if v, ok := ParseAmount(m[1]); ok {
				terms.SecurityDeposit = &v
			}
			break
		}
	}

	if section, ok := extractSection(content, opexStart, opexEnd); ok {
		if m := opexBaseYearRe.FindStringSubmatch(section); m != nil {
			terms.OperatingExpenses.BaseYear, _ = strconv.Atoi(m[1])
		}
		if m := opexShareRe.FindStringSubmatch(section); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				terms.OperatingExpenses.TenantShare = &v
			}
		}
		if m := opexCapRe.FindStringSubmatch(section); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				terms.OperatingExpenses.Cap = &v
			}
		}
	}
	return terms
}

var (
	commencementPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)commencement\s*date[:\s]+(\w+\s+\d{1,2},?\s+\d{4})`),
		regexp.MustCompile(`(?i)lease\s*(?:shall\s*)?commence[:\s]+(\w+\s+\d{1,2},?\s+\d{4})`),
		regexp.MustCompile(`(?i)beginning\s*(?:on|date)[:\s]+(\w+\s+\d{1,2},?\s+\d{4})`),
	}
	expirationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)expiration\s*date[:\s]+(\w+\s+\d{1,2},?\s+\d{4})`),
		regexp.MustCompile(`(?i)lease\s*(?:shall\s*)?(?:terminate|end)[:\s]+(\w+\s+\d{1,2},?\s+\d{4})`),
		regexp.MustCompile(`(?i)ending\s*(?:on|date)[:\s]+(\w+\s+\d{1,2},?\s+\d{4})`),
	}
	rentCommencementPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)rent\s*commencement\s*date[:\s]+(\w+\s+\d{1,2},?\s+\d{4})`),
		regexp.MustCompile(`(?i)rent\s*(?:shall\s*)?commence[:\s]+(\w+\s+\d{1,2},?\s+\d{4})`),
	}
)

func extractLeaseKeyDates(content string) LeaseKeyDates {
	var dates LeaseKeyDates
	dates.CommencementDate = firstDateMatch(content, commencementPatterns)
	dates.ExpirationDate = firstDateMatch(content, expirationPatterns)
	dates.RentCommencementDate = firstDateMatch(content, rentCommencementPatterns)
	return dates
}

func firstDateMatch(content string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(content); m != nil {
			return ParseDate(m[1], "")
		}
	}
	return ""
}

var (
	tenantNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)tenant[:\s]+([^,\n]+)(?:\s*,\s*(?:an?|the)\s+([^,\n]+))?`),
		regexp.MustCompile(`(?i)lessee[:\s]+([^,\n]+)(?:\s*,\s*(?:an?|the)\s+([^,\n]+))?`),
	}
	tenantAddressStart = []*regexp.Regexp{
		regexp.MustCompile(`tenant'?s?\s*address`),
		regexp.MustCompile(`notice\s*address`),
		regexp.MustCompile(`address\s*for\s*notices`),
	}
	tenantAddressEnd = []*regexp.Regexp{
		regexp.MustCompile(`phone`),
		regexp.MustCompile(`email`),
		regexp.MustCompile(`contact`),
	}
	streetAddressRe = regexp.MustCompile(`(?i)([\d\w\s,.-]+(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|circle|cir|court|ct|way)[,\s]+(?:suite|ste|unit)?\s*[\d\w-]*[,\s]+[\w\s]+,\s*[A-Z]{2}\s*\d{5}(?:-\d{4})?)`)
	phoneRe         = regexp.MustCompile(`(?i)(?:phone|tel|telephone)[:\s]+(\+?\d{1,2}[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4})`)
	emailRe         = regexp.MustCompile(`(?i)(?:email|e-mail)[:\s]+([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
	guarantorStart  = []*regexp.Regexp{
		regexp.MustCompile(`guarantor`),
		regexp.MustCompile(`guarantee`),
	}
	guarantorEnd = []*regexp.Regexp{
		regexp.MustCompile(`term`),
		regexp.MustCompile(`rent`),
		regexp.MustCompile(`security`),
	}
	guarantorRe = regexp.MustCompile(`([^,\n]+)(?:\s*,\s*(?:an?|the)\s+([^,\n]+))?`)
)

func extractLeaseTenantInfo(content string) LeaseTenantInfo {
	var info LeaseTenantInfo

	for _, p := range tenantNamePatterns {
		if m := p.FindStringSubmatch(content); m != nil {
			info.Name = strings.TrimSpace(m[1])
			if len(m) > 2 {
				info.EntityType = strings.TrimSpace(m[2])
			}
			break
		}
	}

	if section, ok := extractSection(content, tenantAddressStart, tenantAddressEnd); ok {
		if m := streetAddressRe.FindStringSubmatch(section); m != nil {
			info.Contact.Address = strings.TrimSpace(m[1])
		}
	}
	if m := phoneRe.FindStringSubmatch(content); m != nil {
		info.Contact.Phone = m[1]
	}
	if m := emailRe.FindStringSubmatch(content); m != nil {
		info.Contact.Email = m[1]
	}

	if section, ok := extractSection(content, guarantorStart, guarantorEnd); ok {
		for _, m := range guarantorRe.FindAllStringSubmatch(section, -1) {
			name := strings.TrimSpace(m[1])
			if name == "" {
				continue
			}
			g := Guarantor{Name: name}
			if len(m) > 2 {
				g.EntityType = strings.TrimSpace(m[2])
			}
			info.Guarantors = append(info.Guarantors, g)
		}
	}
	return info
}

var (
	premisesStart = []*regexp.Regexp{
		regexp.MustCompile(`premises\s*(?:is|are)\s*located`),
		regexp.MustCompile(`property\s*address`),
		regexp.MustCompile(`leased\s*premises`),
	}
	premisesEnd = []*regexp.Regexp{
		regexp.MustCompile(`square\s*footage`),
		regexp.MustCompile(`permitted\s*use`),
		regexp.MustCompile(`tenant`),
	}
	squareFootagePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+(?:,\d{3})*(?:\.\d+)?)\s*(?:square\s*feet|sq\.\s*ft\.|sf)`),
		regexp.MustCompile(`(?i)premises\s*contains?\s*(\d+(?:,\d{3})*(?:\.\d+)?)\s*(?:square\s*feet|sq\.\s*ft\.|sf)`),
	}
	unitNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)unit\s*(?:number|#)?\s*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)suite\s*(?:number|#)?\s*([A-Z0-9-]+)`),
	}
	propertyTypeVocabulary = []string{
		"office", "retail", "industrial", "warehouse",
		"manufacturing", "mixed-use", "restaurant",
	}
	propertyTypeRes = func() []*regexp.Regexp {
		res := make([]*regexp.Regexp, len(propertyTypeVocabulary))
		for i, t := range propertyTypeVocabulary {
			res[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b`)
		}
		return res
	}()
	permittedUseStart = []*regexp.Regexp{
		regexp.MustCompile(`permitted\s*use`),
		regexp.MustCompile(`use\s*of\s*premises`),
	}
	permittedUseEnd = []*regexp.Regexp{
		regexp.MustCompile(`maintenance`),
		regexp.MustCompile(`alterations`),
		regexp.MustCompile(`term`),
	}
)

func extractLeasePropertyInfo(content string) LeasePropertyInfo {
	var info LeasePropertyInfo

	if section, ok := extractSection(content, premisesStart, premisesEnd); ok {
		if m := streetAddressRe.FindStringSubmatch(section); m != nil {
			info.Address = strings.TrimSpace(m[1])
		}
	}

	for _, p := range squareFootagePatterns {
		if m := p.FindStringSubmatch(content); m != nil {
			if v, ok := ParseAmount(m[1]); ok {
				info.SquareFootage = &v
			}
			break
		}
	}

	for _, p := range unitNumberPatterns {
		if m := p.FindStringSubmatch(content); m != nil {
			info.UnitNumber = m[1]
			break
		}
	}

	lower := strings.ToLower(content)
	for i, re := range propertyTypeRes {
		if re.MatchString(lower) {
			propType := propertyTypeVocabulary[i]
			info.PropertyType = strings.ToUpper(propType[:1]) + propType[1:]
			break
		}
	}

	if section, ok := extractSection(content, permittedUseStart, permittedUseEnd); ok {
		lines := strings.Split(section, "\n")
		for _, line := range lines[1:] {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && !containsAny(strings.ToLower(line), []string{"permitted", "use", "premises"}) {
				info.PermittedUse = trimmed
				break
			}
		}
	}
	return info
}

var provisionSections = []struct {
	provisionType string
	pattern       *regexp.Regexp
}{
	{"option_to_extend", regexp.MustCompile(`option\s*to\s*(?:extend|renew)`)},
	{"early_termination", regexp.MustCompile(`early\s*termination`)},
	{"right_of_first_refusal", regexp.MustCompile(`right\s*of\s*first\s*refusal`)},
	{"tenant_improvements", regexp.MustCompile(`tenant\s*improvements?`)},
	{"exclusivity", regexp.MustCompile(`exclusive\s*use`)},
	{"sublease_rights", regexp.MustCompile(`sublease|assignment`)},
	{"parking", regexp.MustCompile(`parking`)},
	{"signage", regexp.MustCompile(`signage|sign`)},
}

var provisionEnd = []*regexp.Regexp{
	regexp.MustCompile(`\d+\.`),
	regexp.MustCompile(`section`),
	regexp.MustCompile(`article`),
}

var (
	legalBoilerplateRe = regexp.MustCompile(`(?:provided|however|notwithstanding|whereas|therefore)\s*,?\s*`)
	sentenceSplitRe    = regexp.MustCompile(`[.!?]`)
)

func extractSpecialProvisions(content string) []SpecialProvision {
	var provisions []SpecialProvision
	for _, ps := range provisionSections {
		section, ok := extractSection(content, []*regexp.Regexp{ps.pattern}, provisionEnd)
		if !ok {
			continue
		}
		provisions = append(provisions, SpecialProvision{
			Type:    ps.provisionType,
			Content: strings.TrimSpace(section),
			Summary: summarizeProvision(section),
		})
	}
	return provisions
}

// summarizeProvision strips common legal boilerplate and keeps the first
// sentence, capped at 100 characters.
func summarizeProvision(text string) string {
	cleaned := legalBoilerplateRe.ReplaceAllString(strings.ToLower(text), "")
	summary := strings.TrimSpace(sentenceSplitRe.Split(cleaned, 2)[0])
	if len(summary) > 100 {
		summary = summary[:97] + "..."
	}
	if summary == "" {
		return summary
	}
	return strings.ToUpper(summary[:1]) + summary[1:]
}

// scoreConfidence rates each sub-object by the fraction of its fields that
// were populated.
func (e *Lease) scoreConfidence(res *Result, data LeaseData) {
	basicFields := []bool{
		data.BasicInfo.LeaseType != "",
		data.BasicInfo.TermMonths != 0,
		data.BasicInfo.ExecutionDate != "",
	}
	res.FieldConfidence["basic_info"] = round3(populatedFraction(basicFields))

	financialFields := []bool{
		data.FinancialTerms.BaseRent != nil,
		data.FinancialTerms.SecurityDeposit != nil,
	}
	res.FieldConfidence["financial_terms"] = round3(populatedFraction(financialFields))

	dateFields := []bool{
		data.KeyDates.CommencementDate != "",
		data.KeyDates.ExpirationDate != "",
	}
	res.FieldConfidence["key_dates"] = round3(populatedFraction(dateFields))

	tenantScore := 0.0
	if data.TenantInfo.Name != "" {
		tenantScore = 1.0
	}
	res.FieldConfidence["tenant_info"] = tenantScore

	propertyFields := []bool{
		data.PropertyInfo.Address != "",
		data.PropertyInfo.SquareFootage != nil,
	}
	res.FieldConfidence["property_info"] = round3(populatedFraction(propertyFields))

	total := res.FieldConfidence["basic_info"] +
		res.FieldConfidence["financial_terms"] +
		res.FieldConfidence["key_dates"] +
		res.FieldConfidence["tenant_info"] +
		res.FieldConfidence["property_info"]
	res.OverallConfidence = round3(total / 5)
}

func populatedFraction(fields []bool) float64 {
	n := 0
	for _, present := range fields {
		if present {
			n++
		}
	}
	return float64(n) / float64(len(fields))
}

func (e *Lease) validate(res *Result, data LeaseData) int {
	missing := 0
	check := func(present bool, msg string) {
		if !present {
			res.ValidationErrors = append(res.ValidationErrors, msg)
			missing++
		}
	}

	check(data.BasicInfo.LeaseType != "", "missing lease type")
	check(data.KeyDates.CommencementDate != "", "missing commencement date")
	check(data.KeyDates.ExpirationDate != "", "missing expiration date")
	check(data.FinancialTerms.BaseRent != nil, "missing base rent")
	check(data.TenantInfo.Name != "", "missing tenant name")
	check(data.PropertyInfo.Address != "", "missing property address")
	check(data.PropertyInfo.SquareFootage != nil, "missing square footage")

	// Only a document yielding nothing at all is a hard failure; individual
	// missing fields are informational.
	if data.TenantInfo.Name == "" && data.FinancialTerms.BaseRent == nil &&
		data.KeyDates.CommencementDate == "" {
		res.ValidationErrors = append(res.ValidationErrors, "no lease data extracted")
		return 1
	}
	return 0
}

// assessRisk estimates tenant risk from guarantor presence and lease length;
// the other factors stay neutral.
func (e *Lease) assessRisk(data LeaseData) riskFactors {
	r := neutralRisk()

	tenant := 0.5
	if len(data.TenantInfo.Guarantors) > 0 {
		tenant -= 0.2
	}
	if data.TenantInfo.Name == "" {
		tenant += 0.3
	}
	r.tenant = clamp01(tenant)

	switch months := data.BasicInfo.TermMonths; {
	case months == 0:
		r.property = 0.6
	case months <= 12:
		r.property = 0.8
	case months <= 36:
		r.property = 0.5
	default:
		r.property = 0.2
	}
	return r
}
