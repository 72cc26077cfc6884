package proposal

// Proposal is the set of seven page models consumed by the print layout
type Proposal struct {
	Cover         CoverPage         `json:"cover"`
	Summary       SummaryPage       `json:"summary"`
	RiskAnalysis  RiskAnalysisPage  `json:"risk_analysis"`
	AgencyListing AgencyListingPage `json:"agency_listing"`
	Timeline      TimelinePage      `json:"timeline"`
	Conclusion    ConclusionPage    `json:"conclusion"`
	ThankYou      ThankYouPage      `json:"thank_you"`
}

// CoverPage is page 1
type CoverPage struct {
	Title          string `json:"title"`
	CompanyName    string `json:"company_name"`
	Representative string `json:"representative"`
	IssuedAt       string `json:"issued_at"`
	ManagerName    string `json:"manager_name"`
}

// SalesRow is one year of the sales history table
type SalesRow struct {
	Year   int    `json:"year"`
	Amount Amount `json:"amount"`
}

// SummaryPage is page 2
type SummaryPage struct {
	CompanyName        string      `json:"company_name"`
	Representative     string      `json:"representative"`
	RegistrationNumber string      `json:"registration_number"`
	Industry           string      `json:"industry"`
	Address            string      `json:"address"`
	FoundingDate       string      `json:"founding_date"`
	BusinessAgeYears   int         `json:"business_age_years"`
	Over7Years         bool        `json:"over_7_years"`
	LatestSales        Amount      `json:"latest_sales"`
	SalesHistory       []SalesRow  `json:"sales_history"`
	DesiredAmount      Amount      `json:"desired_amount"`
	Credit             CreditGrade `json:"credit"`
}

// ObligationRow is one line of the obligation table
type ObligationRow struct {
	Institution string `json:"institution"`
	Kind        string `json:"kind"`
	Balance     Amount `json:"balance"`
	MaturityAt  string `json:"maturity_at"`
}

// RiskAnalysisPage is page 3
type RiskAnalysisPage struct {
	TotalObligation Amount          `json:"total_obligation"`
	LoanTotal       Amount          `json:"loan_total"`
	GuaranteeTotal  Amount          `json:"guarantee_total"`
	DTI             int             `json:"dti"`
	DTILevel        string          `json:"dti_level"`
	Credit          CreditGrade     `json:"credit"`
	Obligations     []ObligationRow `json:"obligations"`
	Findings        []string        `json:"findings"`
}

// AgencyRow is one funding agency on the listing page
type AgencyRow struct {
	Order        int    `json:"order"`
	Name         string `json:"name"`
	Program      string `json:"program"`
	Amount       Amount `json:"amount"`
	InterestRate string `json:"interest_rate"`
	Term         string `json:"term"`
	Note         string `json:"note"`
}

// AgencyListingPage is page 4
type AgencyListingPage struct {
	Agencies    []AgencyRow `json:"agencies"`
	TotalAmount Amount      `json:"total_amount"`
}

// TimelineStep is one scheduled stage
type TimelineStep struct {
	Order       int    `json:"order"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// TimelinePage is page 5
type TimelinePage struct {
	Steps         []TimelineStep `json:"steps"`
	ExpectedWeeks int            `json:"expected_weeks"`
}

// ConclusionPage is page 6
type ConclusionPage struct {
	Headline       string   `json:"headline"`
	Points         []string `json:"points"`
	ExpectedAmount Amount   `json:"expected_amount"`
}

// ThankYouPage is page 7
type ThankYouPage struct {
	Message      string `json:"message"`
	ManagerName  string `json:"manager_name"`
	ManagerPhone string `json:"manager_phone"`
	ManagerEmail string `json:"manager_email"`
}
