package receipts

import (
	"bytes"
	"testing"
	"time"

	"github.com/angelmondragon/sitestock-backend/internal/deliveries"
	"github.com/angelmondragon/sitestock-backend/internal/ledger"
	"github.com/angelmondragon/sitestock-backend/pkg/config"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var company = config.CompanyConfig{Name: "Sitestock Locações", Phone: "41 3000-0000"}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, axis string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, axis)
	if err != nil {
		t.Fatalf("read %s!%s: %v", sheet, axis, err)
	}
	return v
}

func TestDeliveryReceipt(t *testing.T) {
	delivery := &deliveries.DeliveryDTO{
		ID:   uuid.New(),
		Date: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		BuildingSite: &deliveries.SiteSummary{
			Address: "Rua das Flores, 10", ClientName: "Construtora Alfa", ClientPhone: "41999990000",
		},
		Units: []deliveries.UnitDTO{
			{RentableName: "Andaime", Count: 40, DeliveryType: enums.DeliveryTypeDelivery},
			{RentableName: "Prancha", Count: -3, DeliveryType: enums.DeliveryTypeReturn},
		},
	}

	data, err := DeliveryReceipt(delivery, company)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	f := open(t, data)

	if got := f.GetSheetList(); len(got) != 1 || got[0] != "Entrega" {
		t.Fatalf("unexpected sheets %v", got)
	}
	// rows: 1 name, 2 phone, 4..7 details, 9 header, 10.. units
	checks := map[string]string{
		"A1":  "Sitestock Locações",
		"B4":  "Construtora Alfa",
		"B5":  "Rua das Flores, 10",
		"B7":  "05/03/2024",
		"A9":  "#",
		"D9":  "Tipo",
		"B10": "Andaime",
		"C10": "40",
		"C11": "3",
		"D11": "Devolução",
	}
	for axis, want := range checks {
		if got := cell(t, f, "Entrega", axis); got != want {
			t.Fatalf("%s: expected %q, got %q", axis, want, got)
		}
	}
}

func TestLedgerWorkbook(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := ledger.Build([]ledger.Movement{
		{Date: start, Count: 10},
		{Date: start.AddDate(0, 0, 3), Count: -4},
	}, decimal.NewFromInt(2), start.AddDate(0, 0, 10))
	item := ledger.ItemLedger{RentableName: "Andaime: 1,5m", UnitPrice: decimal.NewFromInt(2), Rows: rows, Totals: ledger.Summarize(rows)}
	report := &ledger.Report{
		BuildingSiteName: "Obra Centro",
		ClientName:       "Construtora Alfa",
		GeneratedAt:      start.AddDate(0, 0, 10),
		Items:            []ledger.ItemLedger{item},
		TotalValue:       item.Totals.Value,
	}

	data, err := LedgerWorkbook(report, company)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	f := open(t, data)

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Resumo" || sheets[1] != "Andaime- 1,5m" {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	checks := map[string]string{
		"A1": "Data",
		"E1": "RM * DIAS",
		"A2": "01/01/2024",
		"C3": "6",
		"D3": "7",
		"E4": "72",
		"F4": "144",
	}
	for axis, want := range checks {
		if got := cell(t, f, sheets[1], axis); got != want {
			t.Fatalf("%s: expected %q, got %q", axis, want, got)
		}
	}
	if got := cell(t, f, "Resumo", "B5"); got != "Construtora Alfa" {
		t.Fatalf("unexpected client cell %q", got)
	}
}

func TestSheetNamesDeduplicate(t *testing.T) {
	names := newSheetNames("Resumo")
	if first := names.take("resumo"); first != "resumo (2)" {
		t.Fatalf("unexpected name %q", first)
	}
	long := names.take("Escora metálica regulável de aço galvanizado")
	if len([]rune(long)) > maxSheetName {
		t.Fatalf("name too long: %q", long)
	}
}

func TestLedgerWorkbookKeepsItemsDifferingOnlyInCase(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	item := func(name string, count int) ledger.ItemLedger {
		rows := ledger.Build([]ledger.Movement{{Date: start, Count: count}}, decimal.NewFromInt(1), start.AddDate(0, 0, 2))
		return ledger.ItemLedger{RentableName: name, UnitPrice: decimal.NewFromInt(1), Rows: rows, Totals: ledger.Summarize(rows)}
	}
	report := &ledger.Report{
		BuildingSiteName: "Obra Centro",
		ClientName:       "Construtora Alfa",
		GeneratedAt:      start.AddDate(0, 0, 2),
		Items:            []ledger.ItemLedger{item("Andaime", 10), item("ANDAIME", 3)},
	}

	data, err := LedgerWorkbook(report, company)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	f := open(t, data)

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[1] != "Andaime" || sheets[2] != "ANDAIME (2)" {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	if got := cell(t, f, "Andaime", "B2"); got != "10" {
		t.Fatalf("first item ledger overwritten, B2=%q", got)
	}
	if got := cell(t, f, "ANDAIME (2)", "B2"); got != "3" {
		t.Fatalf("second item ledger missing, B2=%q", got)
	}
}
