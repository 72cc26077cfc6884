// Package export renders settlement data as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	settlementapp "github.com/bizconsult/crm/internal/application/settlement"
	"github.com/bizconsult/crm/internal/domain/settlement"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	defaultDetailSheet = "정산내역"
	summarySheet       = "담당자별 합계"

	// excelize built-in number format "#,##0"
	numFmtThousands = 3
)

var _ settlementapp.Exporter = (*SettlementWorkbook)(nil)

var detailHeader = []any{
	"구분", "정산월", "고객명", "상호", "담당자", "계약유형",
	"계약일", "계약금액", "수수료율(%)", "집행일", "집행금액", "집행수수료율(%)", "처리기관",
	"총수수료", "원천세(3.3%)", "실지급액", "환수금액",
}

var summaryHeader = []any{
	"담당자", "정산기간", "계약건수", "계약금액", "집행건수", "집행금액",
	"총수수료", "원천세", "실지급 합계", "환수건수", "환수금액", "최종지급액",
}

var kindLabels = map[settlement.ItemKind]string{
	settlement.KindContract:  "계약",
	settlement.KindExecution: "집행",
	settlement.KindClawback:  "환수",
}

// SettlementWorkbook writes a detail sheet and a per-manager summary sheet
type SettlementWorkbook struct {
	detailSheet string
}

// NewSettlementWorkbook creates an exporter. An empty sheet name uses the default.
func NewSettlementWorkbook(detailSheet string) *SettlementWorkbook {
	if detailSheet == "" {
		detailSheet = defaultDetailSheet
	}
	return &SettlementWorkbook{detailSheet: detailSheet}
}

// Write renders the workbook to w
func (b *SettlementWorkbook) Write(w io.Writer, period string, items []settlement.Item, summaries []settlement.MonthlySettlementSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", b.detailSheet); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("export: create summary sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := b.writeDetail(f, styles, items); err != nil {
		return err
	}
	if err := writeSummary(f, styles, period, summaries); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

type sheetStyles struct {
	header int
	amount int
	total  int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E7ECF5"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("export: header style: %w", err)
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: numFmtThousands})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("export: amount style: %w", err)
	}
	total, err := f.NewStyle(&excelize.Style{NumFmt: numFmtThousands, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("export: total style: %w", err)
	}
	return sheetStyles{header: header, amount: amount, total: total}, nil
}

func (b *SettlementWorkbook) writeDetail(f *excelize.File, styles sheetStyles, items []settlement.Item) error {
	sheet := b.detailSheet
	if err := writeHeader(f, sheet, detailHeader, styles.header); err != nil {
		return err
	}

	for i, it := range items {
		row := i + 2
		values := []any{
			kindLabels[it.Kind], it.Period, it.CustomerName, it.CompanyName, it.ManagerName, it.ContractType,
			formatDate(it.ContractDate), won(it.ContractAmount), rate(it.CommissionRate),
			formatDate(it.ExecutionDate), won(it.ExecutionAmount), rate(it.FeeRate), it.ProcessingOrg,
		}
		if it.IsClawback {
			// reversal amounts are reported only in the clawback column, as a positive figure
			values = append(values, nil, nil, nil, won(it.NetCommission.Abs()))
		} else {
			values = append(values, won(it.GrossCommission), won(it.TaxAmount), won(it.NetCommission), nil)
		}
		if err := setRow(f, sheet, row, values); err != nil {
			return err
		}
	}

	if len(items) > 0 {
		last := len(items) + 1
		if err := styleRange(f, sheet, "H2", fmt.Sprintf("H%d", last), styles.amount); err != nil {
			return err
		}
		if err := styleRange(f, sheet, "K2", fmt.Sprintf("K%d", last), styles.amount); err != nil {
			return err
		}
		if err := styleRange(f, sheet, "N2", fmt.Sprintf("Q%d", last), styles.amount); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(sheet, "A", "B", 10)
	_ = f.SetColWidth(sheet, "C", "F", 16)
	_ = f.SetColWidth(sheet, "G", "Q", 14)
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeSummary(f *excelize.File, styles sheetStyles, period string, summaries []settlement.MonthlySettlementSummary) error {
	if err := writeHeader(f, summarySheet, summaryHeader, styles.header); err != nil {
		return err
	}

	rows := append([]settlement.MonthlySettlementSummary{}, summaries...)
	rows = append(rows, settlement.Total(summaries, "합계", period))

	for i, s := range rows {
		row := i + 2
		values := []any{
			s.ManagerName, s.Period,
			s.ContractCount, won(s.ContractAmountSum),
			s.ExecutionCount, won(s.ExecutionAmountSum),
			won(s.GrossCommissionSum), won(s.TaxAmountSum), won(s.NetCommissionSum),
			s.ClawbackCount, won(s.ClawbackAmountSum), won(s.FinalPayment),
		}
		if err := setRow(f, summarySheet, row, values); err != nil {
			return err
		}
	}

	last := len(rows) + 1
	if len(summaries) > 0 {
		if err := styleRange(f, summarySheet, "C2", fmt.Sprintf("L%d", last-1), styles.amount); err != nil {
			return err
		}
	}
	if err := styleRange(f, summarySheet, fmt.Sprintf("A%d", last), fmt.Sprintf("L%d", last), styles.total); err != nil {
		return err
	}
	_ = f.SetColWidth(summarySheet, "A", "B", 14)
	_ = f.SetColWidth(summarySheet, "C", "L", 14)
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []any, style int) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("export: header range: %w", err)
	}
	return styleRange(f, sheet, "A1", end, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("export: cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("export: write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func styleRange(f *excelize.File, sheet, from, to string, style int) error {
	if err := f.SetCellStyle(sheet, from, to, style); err != nil {
		return fmt.Errorf("export: style %s:%s: %w", from, to, err)
	}
	return nil
}

func won(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

func rate(d decimal.Decimal) any {
	if d.IsZero() {
		return nil
	}
	return d.InexactFloat64()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
