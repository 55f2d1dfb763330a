package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// Movement is one signed change of a rentable's on-site count. Positive
// counts were delivered, negative counts were returned.
type Movement struct {
	DeliveryID uuid.UUID `json:"delivery_id"`
	Date       time.Time `json:"date"`
	Count      int       `json:"count"`
}

// Row is a ledger line: the movement, the balance after it and how long that
// balance stayed on site.
type Row struct {
	Date        time.Time       `json:"date"`
	DeliveryID  uuid.UUID       `json:"delivery_id"`
	Movement    int             `json:"movement"`
	Balance     int             `json:"balance"`
	Days        int             `json:"days"`
	BalanceDays int             `json:"balance_days"`
	Value       decimal.Decimal `json:"value"`
}

// Totals aggregates a set of rows.
type Totals struct {
	Balance     int             `json:"balance"`
	BalanceDays int             `json:"balance_days"`
	Value       decimal.Decimal `json:"value"`
}

// Build folds movements into ledger rows ordered by date. The input slice is
// left untouched and movements on the same date keep their input order.
// Each row's days run until the next movement, or until now for the last one.
func Build(movements []Movement, unitPrice decimal.Decimal, now time.Time) []Row {
	ordered := make([]Movement, len(movements))
	copy(ordered, movements)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	rows := make([]Row, 0, len(ordered))
	balance := 0
	for i, m := range ordered {
		balance += m.Count

		until := now
		if i+1 < len(ordered) {
			until = ordered[i+1].Date
		}
		days := wholeDays(m.Date, until)

		rows = append(rows, Row{
			Date:        m.Date,
			DeliveryID:  m.DeliveryID,
			Movement:    m.Count,
			Balance:     balance,
			Days:        days,
			BalanceDays: balance * days,
			Value:       unitPrice.Mul(decimal.NewFromInt(int64(balance * days))),
		})
	}
	return rows
}

// Summarize totals rows. Balance is the balance after the last row.
func Summarize(rows []Row) Totals {
	totals := Totals{Value: decimal.Zero}
	for _, row := range rows {
		totals.BalanceDays += row.BalanceDays
		totals.Value = totals.Value.Add(row.Value)
	}
	if len(rows) > 0 {
		totals.Balance = rows[len(rows)-1].Balance
	}
	return totals
}

// wholeDays truncates toward zero; spans ending before they start count as 0.
func wholeDays(from, to time.Time) int {
	span := to.Sub(from)
	if span <= 0 {
		return 0
	}
	return int(span / day)
}
