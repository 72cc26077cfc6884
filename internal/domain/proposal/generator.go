// Package proposal turns a customer record and a manager-selected list of
// funding agencies into the page models of a funding proposal. Everything
// here is a pure function of its input.
package proposal

import (
	"fmt"
	"strings"
	"time"

	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Agency is a funding program the manager proposes
type Agency struct {
	Name         string          `json:"name"`
	Program      string          `json:"program"`
	Amount       decimal.Decimal `json:"amount"` // 만원
	InterestRate string          `json:"interest_rate"`
	Term         string          `json:"term"`
	Note         string          `json:"note"`
}

// Manager is the contact printed on the proposal
type Manager struct {
	Name  string
	Phone string
	Email string
}

// Input is everything the generator needs
type Input struct {
	Customer      *customer.Customer
	Agencies      []Agency
	DesiredAmount decimal.Decimal // 만원; falls back to the customer's desired amount when zero
	Manager       Manager
	IssuedAt      time.Time
}

const dateLayout = "2006년 01월 02일"

// Generate builds the seven proposal pages
func Generate(in Input) (*Proposal, error) {
	c := in.Customer
	if c == nil {
		return nil, shared.NewDomainError("INVALID_PROPOSAL", "Customer is required")
	}
	for i, a := range in.Agencies {
		if strings.TrimSpace(a.Name) == "" {
			return nil, shared.NewDomainError("INVALID_PROPOSAL", fmt.Sprintf("Agency #%d has no name", i+1))
		}
		if a.Amount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_PROPOSAL", fmt.Sprintf("Agency %s has a negative amount", a.Name))
		}
	}
	issued := in.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	desired := in.DesiredAmount
	if !desired.IsPositive() {
		desired = c.DesiredAmount
	}

	credit := GradeFor(c.CreditScore)
	revenue := decimal.Zero
	if latest, ok := c.LatestSales(); ok {
		revenue = latest.AmountEok
	}
	balance := c.TotalObligationBalance()
	dti := DTI(balance, revenue)

	p := &Proposal{
		Cover:         buildCover(c, in.Manager, issued),
		Summary:       buildSummary(c, desired, credit, issued),
		RiskAnalysis:  buildRisk(c, balance, dti, credit),
		AgencyListing: buildAgencies(in.Agencies),
		Timeline:      BuildTimeline(issued, len(in.Agencies)),
	}
	expected := decimal.Zero
	for _, a := range in.Agencies {
		expected = expected.Add(a.Amount)
	}
	if !expected.IsPositive() {
		expected = desired
	}
	p.Conclusion = buildConclusion(c, p, expected, issued)
	p.ThankYou = ThankYouPage{
		Message:      fmt.Sprintf("%s의 성장을 위한 최적의 자금 조달을 약속드립니다.", displayCompany(c)),
		ManagerName:  in.Manager.Name,
		ManagerPhone: in.Manager.Phone,
		ManagerEmail: in.Manager.Email,
	}
	return p, nil
}

func buildCover(c *customer.Customer, m Manager, issued time.Time) CoverPage {
	return CoverPage{
		Title:          "정책자금 조달 제안서",
		CompanyName:    displayCompany(c),
		Representative: c.Representative,
		IssuedAt:       issued.Format(dateLayout),
		ManagerName:    m.Name,
	}
}

func buildSummary(c *customer.Customer, desired decimal.Decimal, credit CreditGrade, issued time.Time) SummaryPage {
	s := SummaryPage{
		CompanyName:        displayCompany(c),
		Representative:     c.Representative,
		RegistrationNumber: c.RegistrationNumber,
		Industry:           c.Industry,
		Address:            c.Address,
		DesiredAmount:      FormatAmount(desired),
		Credit:             credit,
	}
	if c.FoundingDate != nil {
		s.FoundingDate = c.FoundingDate.Format(dateLayout)
		s.BusinessAgeYears = customer.BusinessAge(*c.FoundingDate, issued)
		s.Over7Years = customer.IsOver7Years(*c.FoundingDate, issued)
	}
	for _, y := range c.YearlySales {
		s.SalesHistory = append(s.SalesHistory, SalesRow{Year: y.Year, Amount: FormatAmount(y.AmountEok.Mul(tenThousand))})
	}
	if latest, ok := c.LatestSales(); ok {
		s.LatestSales = FormatAmount(latest.AmountEok.Mul(tenThousand))
	} else {
		s.LatestSales = FormatAmount(decimal.Zero)
	}
	return s
}

func buildRisk(c *customer.Customer, balance decimal.Decimal, dti int, credit CreditGrade) RiskAnalysisPage {
	loans, guarantees := decimal.Zero, decimal.Zero
	rows := make([]ObligationRow, 0, len(c.Obligations))
	for _, o := range c.Obligations {
		kind := "대출"
		if o.Kind == customer.ObligationKindGuarantee {
			kind = "보증"
			guarantees = guarantees.Add(o.Balance)
		} else {
			loans = loans.Add(o.Balance)
		}
		row := ObligationRow{Institution: o.Institution, Kind: kind, Balance: FormatWon(o.Balance)}
		if o.MaturityAt != nil {
			row.MaturityAt = o.MaturityAt.Format("2006-01-02")
		}
		rows = append(rows, row)
	}

	var findings []string
	level := DTILevel(dti)
	findings = append(findings, fmt.Sprintf("매출 대비 부채비율(DTI) %d%%로 %s 수준입니다.", dti, level))
	if credit.Grade > 0 {
		findings = append(findings, fmt.Sprintf("신용점수 %d점, %d등급(%s)입니다.", credit.Score, credit.Grade, credit.Label))
	} else {
		findings = append(findings, "신용점수 정보가 없어 추가 확인이 필요합니다.")
	}
	if guarantees.IsPositive() {
		findings = append(findings, fmt.Sprintf("보증기관 이용 잔액 %s이 있어 추가 보증 한도를 확인해야 합니다.", FormatWon(guarantees)))
	}

	return RiskAnalysisPage{
		TotalObligation: FormatWon(balance),
		LoanTotal:       FormatWon(loans),
		GuaranteeTotal:  FormatWon(guarantees),
		DTI:             dti,
		DTILevel:        level,
		Credit:          credit,
		Obligations:     rows,
		Findings:        findings,
	}
}

func buildAgencies(agencies []Agency) AgencyListingPage {
	total := decimal.Zero
	rows := make([]AgencyRow, 0, len(agencies))
	for i, a := range agencies {
		total = total.Add(a.Amount)
		rows = append(rows, AgencyRow{
			Order:        i + 1,
			Name:         a.Name,
			Program:      a.Program,
			Amount:       FormatAmount(a.Amount),
			InterestRate: a.InterestRate,
			Term:         a.Term,
			Note:         a.Note,
		})
	}
	return AgencyListingPage{Agencies: rows, TotalAmount: FormatAmount(total)}
}

// timelineStages are (title, description, start offset days, end offset days)
var timelineStages = []struct {
	title, desc string
	from, to    int
}{
	{"사전 상담 및 진단", "기업 현황 분석과 필요 자금 규모 확정", 0, 7},
	{"서류 준비", "재무제표, 부가세 과세표준증명원 등 제출 서류 취합", 7, 14},
	{"기관 신청", "선정 기관별 신청서 접수", 14, 21},
	{"심사 및 실사", "기관 심사, 현장 실사 대응", 21, 45},
	{"승인 및 약정", "승인 통보 후 약정 체결", 45, 55},
	{"자금 집행", "약정 조건에 따른 자금 집행", 55, 60},
}

// BuildTimeline lays out the standard schedule from the issue date. Each
// additional agency beyond the first extends the review stage by a week.
func BuildTimeline(issued time.Time, agencies int) TimelinePage {
	extra := 0
	if agencies > 1 {
		extra = (agencies - 1) * 7
	}
	steps := make([]TimelineStep, 0, len(timelineStages))
	for i, st := range timelineStages {
		from, to := st.from, st.to
		if i >= 3 {
			if i > 3 {
				from += extra
			}
			to += extra
		}
		steps = append(steps, TimelineStep{
			Order:       i + 1,
			Title:       st.title,
			Description: st.desc,
			StartDate:   issued.AddDate(0, 0, from).Format("2006-01-02"),
			EndDate:     issued.AddDate(0, 0, to).Format("2006-01-02"),
		})
	}
	lastDay := timelineStages[len(timelineStages)-1].to + extra
	return TimelinePage{Steps: steps, ExpectedWeeks: (lastDay + 6) / 7}
}

func buildConclusion(c *customer.Customer, p *Proposal, expected decimal.Decimal, issued time.Time) ConclusionPage {
	points := []string{}
	if p.Summary.Over7Years {
		points = append(points, "업력 7년 초과 기업으로 성장기업 대상 자금 활용이 가능합니다.")
	} else if c.FoundingDate != nil {
		points = append(points, fmt.Sprintf("업력 %d년 기업으로 창업·초기기업 전용 자금 활용이 가능합니다.", customer.BusinessAge(*c.FoundingDate, issued)))
	}
	if p.RiskAnalysis.DTI <= 70 {
		points = append(points, "부채 수준이 관리 가능한 범위로 추가 조달 여력이 있습니다.")
	} else {
		points = append(points, "부채비율이 높아 보증기관 연계 상품을 우선 검토합니다.")
	}
	if n := len(p.AgencyListing.Agencies); n > 0 {
		points = append(points, fmt.Sprintf("%d개 기관을 병행 신청하여 승인 가능성을 높입니다.", n))
	}

	return ConclusionPage{
		Headline:       fmt.Sprintf("%s 맞춤 자금 조달 전략", displayCompany(c)),
		Points:         points,
		ExpectedAmount: FormatAmount(expected),
	}
}

func displayCompany(c *customer.Customer) string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return c.Name
}
