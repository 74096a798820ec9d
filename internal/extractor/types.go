package extractor

// TenantRecord is one parsed rent roll line.
type TenantRecord struct {
	Unit            string  `json:"unit"`
	Tenant          string  `json:"tenant"`
	SquareFootage   float64 `json:"square_footage"`
	CurrentRent     float64 `json:"current_rent"`
	StartDate       string  `json:"start_date,omitempty"`
	EndDate         string  `json:"end_date,omitempty"`
	SecurityDeposit float64 `json:"security_deposit"`
	Occupied        bool    `json:"occupied"`
}

// RentRollSummary aggregates tenant records into portfolio-level figures.
type RentRollSummary struct {
	TotalUnits            int     `json:"total_units"`
	TotalSquareFootage    float64 `json:"total_square_footage"`
	OccupiedSquareFootage float64 `json:"occupied_square_footage"`
	OccupancyRate         float64 `json:"occupancy_rate"`
	TotalMonthlyRent      float64 `json:"total_monthly_rent"`
	AverageRentPSF        float64 `json:"average_rent_psf"`
}

// RentRollData is the structured payload of a rent roll extraction.
type RentRollData struct {
	Tenants []TenantRecord  `json:"tenants"`
	Summary RentRollSummary `json:"summary"`
}

// LineItem is one categorized revenue or expense line of a P&L statement.
type LineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
}

// PLSummary holds the derived P&L figures. NOI is always
// GrossIncome - TotalExpenses.
type PLSummary struct {
	GrossIncome   float64 `json:"gross_income"`
	TotalExpenses float64 `json:"total_expenses"`
	NOI           float64 `json:"noi"`
	ExpenseRatio  float64 `json:"expense_ratio"`
}

// PLData is the structured payload of a P&L statement extraction.
type PLData struct {
	RevenueItems []LineItem `json:"revenue_items"`
	ExpenseItems []LineItem `json:"expense_items"`
	Summary      PLSummary  `json:"summary"`
}

// Period is the reporting period of an operating statement.
type Period struct {
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	PeriodType string `json:"period_type,omitempty"` // monthly, quarterly, annual
}

// BudgetItem is one actual-vs-budget comparison line.
type BudgetItem struct {
	Description     string  `json:"description"`
	Actual          float64 `json:"actual"`
	Budget          float64 `json:"budget"`
	Variance        float64 `json:"variance"`
	VariancePercent float64 `json:"variance_percentage"`
}

// BudgetComparison is the parsed budget-vs-actual table.
type BudgetComparison struct {
	Items           []BudgetItem `json:"items"`
	TotalVariance   float64      `json:"total_variance"`
	VariancePercent float64      `json:"variance_percentage"`
}

// StatementMetrics merges figures from the composed sub-extractions.
type StatementMetrics struct {
	NOI                   float64 `json:"noi"`
	ExpenseRatio          float64 `json:"expense_ratio"`
	OccupancyRate         float64 `json:"occupancy_rate"`
	AvgRentPSF            float64 `json:"avg_rent_psf"`
	BudgetVariance        float64 `json:"budget_variance"`
	BudgetVariancePercent float64 `json:"budget_variance_percentage"`
}

// OperatingStatementData is the structured payload of an operating statement
// extraction.
type OperatingStatementData struct {
	Period     Period            `json:"period"`
	Financials *PLData           `json:"financial_data"`
	Occupancy  *RentRollSummary  `json:"occupancy_data"`
	Budget     *BudgetComparison `json:"budget_comparison"`
	Metrics    StatementMetrics  `json:"metrics"`
}

// LeaseBasicInfo holds basic lease metadata.
type LeaseBasicInfo struct {
	LeaseType     string `json:"lease_type,omitempty"`
	TermMonths    int    `json:"term_length,omitempty"`
	ExecutionDate string `json:"execution_date,omitempty"`
}

// RentEscalation is one scheduled rent increase.
type RentEscalation struct {
	Year   int    `json:"year"`
	Amount string `json:"amount"`
	Type   string `json:"type"` // percentage or fixed
}

// OperatingExpenseTerms holds the opex pass-through terms of a lease.
type OperatingExpenseTerms struct {
	BaseYear    int      `json:"base_year,omitempty"`
	TenantShare *float64 `json:"tenant_share,omitempty"`
	Cap         *float64 `json:"caps,omitempty"`
}

// LeaseFinancialTerms holds the financial terms of a lease.
type LeaseFinancialTerms struct {
	BaseRent          *float64              `json:"base_rent,omitempty"`
	Escalations       []RentEscalation      `json:"rent_escalations"`
	SecurityDeposit   *float64              `json:"security_deposit,omitempty"`
	OperatingExpenses OperatingExpenseTerms `json:"operating_expenses"`
}

// LeaseKeyDates holds the key dates of a lease.
type LeaseKeyDates struct {
	CommencementDate     string `json:"commencement_date,omitempty"`
	ExpirationDate       string `json:"expiration_date,omitempty"`
	RentCommencementDate string `json:"rent_commencement_date,omitempty"`
}

// ContactInfo holds contact details extracted from lease text.
type ContactInfo struct {
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Guarantor is a lease guarantor.
type Guarantor struct {
	Name       string `json:"name"`
	EntityType string `json:"entity_type,omitempty"`
}

// LeaseTenantInfo holds tenant details extracted from lease text.
type LeaseTenantInfo struct {
	Name       string      `json:"name,omitempty"`
	EntityType string      `json:"entity_type,omitempty"`
	Contact    ContactInfo `json:"contact_info"`
	Guarantors []Guarantor `json:"guarantors"`
}

// LeasePropertyInfo holds premises details extracted from lease text.
type LeasePropertyInfo struct {
	Address       string   `json:"address,omitempty"`
	SquareFootage *float64 `json:"square_footage,omitempty"`
	UnitNumber    string   `json:"unit_number,omitempty"`
	PropertyType  string   `json:"property_type,omitempty"`
	PermittedUse  string   `json:"permitted_use,omitempty"`
}

// SpecialProvision is one recognized lease clause with a short summary.
type SpecialProvision struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Summary string `json:"summary"`
}

// LeaseData is the structured payload of a lease extraction.
type LeaseData struct {
	BasicInfo         LeaseBasicInfo      `json:"basic_info"`
	FinancialTerms    LeaseFinancialTerms `json:"financial_terms"`
	KeyDates          LeaseKeyDates       `json:"key_dates"`
	TenantInfo        LeaseTenantInfo     `json:"tenant_info"`
	PropertyInfo      LeasePropertyInfo   `json:"property_info"`
	SpecialProvisions []SpecialProvision  `json:"special_provisions"`
}
