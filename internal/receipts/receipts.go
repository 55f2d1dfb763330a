// Package receipts renders delivery receipts and site ledgers as xlsx files.
package receipts

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/sitestock-backend/internal/deliveries"
	"github.com/angelmondragon/sitestock-backend/internal/ledger"
	"github.com/angelmondragon/sitestock-backend/pkg/config"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of every workbook produced here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	deliverySheet = "Entrega"
	summarySheet  = "Resumo"
	dateLayout    = "02/01/2006"
	maxSheetName  = 31
)

var ledgerHeaders = []any{"Data", "Movimentação", "Saldo", "Dias", "RM * DIAS", "VALOR"}

// DeliveryReceipt renders the printable receipt handed over with a delivery.
func DeliveryReceipt(delivery *deliveries.DeliveryDTO, company config.CompanyConfig) ([]byte, error) {
	if delivery == nil {
		return nil, fmt.Errorf("delivery is required")
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", deliverySheet); err != nil {
		return nil, err
	}
	w := &sheetWriter{f: f, sheet: deliverySheet}
	bold, err := boldStyle(f)
	if err != nil {
		return nil, err
	}

	row := w.companyHeader(1, company)
	row++

	var clientName, siteAddress, phone string
	if site := delivery.BuildingSite; site != nil {
		clientName, siteAddress, phone = site.ClientName, site.Address, site.ClientPhone
	}
	for _, line := range [][]any{
		{"Cliente", clientName},
		{"Endereço da obra", siteAddress},
		{"Telefone", phone},
		{"Data", delivery.Date.Format(dateLayout)},
	} {
		w.row(row, line...)
		row++
	}
	row++

	w.row(row, "#", "Item", "Quantidade", "Tipo")
	w.style(row, 4, bold)
	row++
	for i, unit := range delivery.Units {
		w.row(row, i+1, unit.RentableName, abs(unit.Count), typeLabel(unit.DeliveryType))
		row++
	}
	row += 2
	w.row(row, "Assinatura:", "______________________________")
	w.row(row+1, "Recebido por:", "______________________________")

	if err := f.SetColWidth(deliverySheet, "A", "A", 18); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(deliverySheet, "B", "B", 36); err != nil {
		return nil, err
	}
	return w.bytes()
}

// LedgerWorkbook renders a summary sheet plus one ledger sheet per rentable.
func LedgerWorkbook(report *ledger.Report, company config.CompanyConfig) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("report is required")
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	bold, err := boldStyle(f)
	if err != nil {
		return nil, err
	}

	summary := &sheetWriter{f: f, sheet: summarySheet}
	row := summary.companyHeader(1, company)
	row++
	summary.row(row, "Obra", report.BuildingSiteName)
	summary.row(row+1, "Cliente", report.ClientName)
	summary.row(row+2, "Gerado em", report.GeneratedAt.Format(dateLayout))
	row += 4
	summary.row(row, "Item", "Saldo", "RM * DIAS", "VALOR")
	summary.style(row, 4, bold)
	row++

	names := newSheetNames(summarySheet)
	for _, item := range report.Items {
		summary.row(row, item.RentableName, item.Totals.Balance, item.Totals.BalanceDays, item.Totals.Value.InexactFloat64())
		row++

		name := names.take(item.RentableName)
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
		if err := writeItemSheet(&sheetWriter{f: f, sheet: name}, item, bold); err != nil {
			return nil, err
		}
	}
	summary.row(row, "Total", nil, nil, report.TotalValue.InexactFloat64())
	summary.style(row, 4, bold)

	return summary.bytes()
}

func writeItemSheet(w *sheetWriter, item ledger.ItemLedger, bold int) error {
	w.row(1, ledgerHeaders...)
	w.style(1, len(ledgerHeaders), bold)
	row := 2
	for _, r := range item.Rows {
		w.row(row, r.Date.Format(dateLayout), r.Movement, r.Balance, r.Days, r.BalanceDays, r.Value.InexactFloat64())
		row++
	}
	w.row(row, "Total", nil, item.Totals.Balance, nil, item.Totals.BalanceDays, item.Totals.Value.InexactFloat64())
	w.style(row, len(ledgerHeaders), bold)
	return w.err
}

// sheetWriter keeps the first error so call sites can write rows freely.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) row(n int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.sheet, cell, &values)
}

func (w *sheetWriter) style(n, cols, styleID int) {
	if w.err != nil {
		return
	}
	from, _ := excelize.CoordinatesToCellName(1, n)
	to, _ := excelize.CoordinatesToCellName(cols, n)
	w.err = w.f.SetCellStyle(w.sheet, from, to, styleID)
}

// companyHeader writes the company block and returns the next free row.
func (w *sheetWriter) companyHeader(start int, company config.CompanyConfig) int {
	row := start
	for _, line := range []string{company.Name, company.Address, company.Phone} {
		if strings.TrimSpace(line) == "" {
			continue
		}
		w.row(row, line)
		row++
	}
	return row
}

func (w *sheetWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.f.SetActiveSheet(0)
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func boldStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
}

// sheetNames hands out unique sheet names. Excel compares sheet names
// without regard to case, so keys are lower-cased.
type sheetNames map[string]struct{}

func newSheetNames(reserved ...string) sheetNames {
	names := sheetNames{}
	for _, name := range reserved {
		names[strings.ToLower(name)] = struct{}{}
	}
	return names
}

// take strips characters excel rejects, truncates and de-duplicates.
func (n sheetNames) take(raw string) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(raw))
	if clean == "" {
		clean = "Item"
	}
	clean = truncate(clean, maxSheetName)

	name := clean
	for i := 2; ; i++ {
		if _, taken := n[strings.ToLower(name)]; !taken {
			break
		}
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncate(clean, maxSheetName-len(suffix)) + suffix
	}
	n[strings.ToLower(name)] = struct{}{}
	return name
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func typeLabel(t enums.DeliveryType) string {
	if t == enums.DeliveryTypeReturn {
		return "Devolução"
	}
	return "Entrega"
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Filename builds an attachment name such as entrega-2024-01-31.xlsx.
func Filename(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", prefix, at.Format("2006-01-02"))
}
