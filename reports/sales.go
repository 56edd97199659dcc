// Package reports aggregates saved bills into the sales summary shown to the shop owner.
package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"posbilling/billing"
	"posbilling/models"
)

type ModeTotal struct {
	Mode      models.PaymentMode `json:"mode"`
	BillCount int                `json:"bill_count"`
	Amount    decimal.Decimal    `json:"amount"`
}

type DayTotal struct {
	Date         string          `json:"date"`
	BillCount    int             `json:"bill_count"`
	CurrentTotal decimal.Decimal `json:"current_total"`
}

type ProductTotal struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

type SalesReport struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	BillCount     int             `json:"bill_count"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	Transport     decimal.Decimal `json:"transport"`
	CurrentTotal  decimal.Decimal `json:"current_total"`
	Collected     decimal.Decimal `json:"collected"`
	CreditAdded   decimal.Decimal `json:"credit_added"`
	ByPaymentMode []ModeTotal     `json:"by_payment_mode"`
	ByDay         []DayTotal      `json:"by_day"`
	TopProducts   []ProductTotal  `json:"top_products"`
}

const topProducts = 10

// Summarize totals the bills dated in [from, to). A zero bound is open.
// Collected is what was kept at the counter: amount paid less change returned.
// CreditAdded is the net change in customer credit over the range. Each bill's
// balance due already includes the credit it carried in, so only the difference counts.
func Summarize(bills []*models.Bill, from, to time.Time) SalesReport {
	r := SalesReport{
		From: from, To: to,
		Subtotal: decimal.Zero, TaxTotal: decimal.Zero, Transport: decimal.Zero,
		CurrentTotal: decimal.Zero, Collected: decimal.Zero, CreditAdded: decimal.Zero,
		ByPaymentMode: []ModeTotal{}, ByDay: []DayTotal{}, TopProducts: []ProductTotal{},
	}

	modes := map[models.PaymentMode]*ModeTotal{}
	days := map[string]*DayTotal{}
	products := map[string]*ProductTotal{}

	for _, b := range bills {
		if !from.IsZero() && b.BillDate.Before(from) {
			continue
		}
		if !to.IsZero() && !b.BillDate.Before(to) {
			continue
		}
		r.BillCount++
		r.Subtotal = billing.Round2(r.Subtotal.Add(b.Totals.Subtotal))
		r.TaxTotal = billing.Round2(r.TaxTotal.Add(b.Totals.TaxTotal))
		r.Transport = billing.Round2(r.Transport.Add(b.Totals.TransportCharge))
		r.CurrentTotal = billing.Round2(r.CurrentTotal.Add(b.Totals.CurrentBillTotal))

		kept := billing.Round2(b.Payment.AmountPaid.Sub(b.Payment.ChangeReturned))
		r.Collected = billing.Round2(r.Collected.Add(kept))
		r.CreditAdded = billing.Round2(r.CreditAdded.Add(b.CreditChange()))

		m, ok := modes[b.Payment.Mode]
		if !ok {
			m = &ModeTotal{Mode: b.Payment.Mode, Amount: decimal.Zero}
			modes[b.Payment.Mode] = m
		}
		m.BillCount++
		m.Amount = billing.Round2(m.Amount.Add(kept))

		key := b.BillDate.Format("2006-01-02")
		day, ok := days[key]
		if !ok {
			day = &DayTotal{Date: key, CurrentTotal: decimal.Zero}
			days[key] = day
		}
		day.BillCount++
		day.CurrentTotal = billing.Round2(day.CurrentTotal.Add(b.Totals.CurrentBillTotal))

		for _, it := range b.Items {
			p, ok := products[it.Code]
			if !ok {
				p = &ProductTotal{Code: it.Code, Name: it.Name, Quantity: decimal.Zero, Amount: decimal.Zero}
				products[it.Code] = p
			}
			p.Quantity = p.Quantity.Add(it.Quantity)
			p.Amount = billing.Round2(p.Amount.Add(it.Price))
		}
	}

	for _, m := range modes {
		r.ByPaymentMode = append(r.ByPaymentMode, *m)
	}
	sort.Slice(r.ByPaymentMode, func(i, j int) bool { return r.ByPaymentMode[i].Mode < r.ByPaymentMode[j].Mode })

	for _, day := range days {
		r.ByDay = append(r.ByDay, *day)
	}
	sort.Slice(r.ByDay, func(i, j int) bool { return r.ByDay[i].Date < r.ByDay[j].Date })

	for _, p := range products {
		r.TopProducts = append(r.TopProducts, *p)
	}
	sort.Slice(r.TopProducts, func(i, j int) bool {
		a, b := r.TopProducts[i], r.TopProducts[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Code < b.Code
	})
	if len(r.TopProducts) > topProducts {
		r.TopProducts = r.TopProducts[:topProducts]
	}
	return r
}
