package ocr

import "github.com/bizconsult/crm/internal/domain/customer"

const systemPrompt = `You read scanned Korean business documents and answer with a single JSON object.
Use null or an empty string for anything you cannot read. Never guess numbers.
Dates use YYYY-MM-DD. Money amounts are integers in KRW (원) without separators.`

var kindPrompts = map[customer.DocumentKind]string{
	customer.DocumentKindBusinessRegistration: `This is a 사업자등록증. Return:
{"company_name": "상호", "registration_number": "000-00-00000", "corporate_number": "법인등록번호 or empty",
 "representative": "대표자", "address": "사업장 소재지", "industry": "업태/종목", "founding_date": "개업연월일"}`,

	customer.DocumentKindVATCertificate: `This is a 부가가치세 과세표준증명 or 표준재무제표증명. Return the 과세표준 (sales) per year:
{"sales": [{"year": 2023, "amount_won": 123456789}]}`,

	customer.DocumentKindCreditReport: `This is a 신용정보조회서. List every 대출 and 보증 line:
{"obligations": [{"institution": "기관명", "kind": "loan or guarantee", "balance_won": 50000000,
 "opened_at": "YYYY-MM-DD", "maturity_at": "YYYY-MM-DD"}]}`,
}
