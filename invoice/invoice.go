// Package invoice turns a saved bill into the printed invoice: HTML first, then an A4 PDF.
package invoice

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"posbilling/billing"
	"posbilling/models"
	"posbilling/utils"
)

// CopyTitles are printed in this order, one copy per page.
var CopyTitles = []string{"Customer Copy", "Shop Copy"}

var ErrNoShopProfile = errors.New("shop profile not set up")

type Line struct {
	No int
	billing.LineItem
}

// Data is what the invoice template renders.
type Data struct {
	Shop       *models.ShopProfile
	Contacts   string
	InvoiceNo  string
	Date       string
	Customer   *models.Customer
	Cashier    string
	Lines      []Line
	Totals     billing.Totals
	Payment    models.Payment
	TotalWords string
	CopyTitle  string
}

// BuildData prepares the template data. Totals are derived again from the bill lines so the
// printed figures always match what the calculator produces.
func BuildData(shop *models.ShopProfile, bill *models.Bill) (*Data, error) {
	if shop == nil {
		return nil, ErrNoShopProfile
	}
	totals, err := billing.Compute(bill.Items, bill.Totals.TransportCharge, bill.Totals.PreviousOutstandingCredit)
	if err != nil {
		return nil, err
	}

	date := "-"
	if !bill.BillDate.IsZero() {
		date = bill.BillDate.Format("02-Jan-2006")
	}

	data := &Data{
		Shop:       shop,
		Contacts:   shop.ContactLine(),
		InvoiceNo:  fmt.Sprintf("%s%d", shop.InvoicePrefix, bill.BillNo),
		Date:       date,
		Customer:   bill.Customer,
		Totals:     totals,
		Payment:    bill.Payment,
		TotalWords: utils.NumberToCurrencyWords(totals.GrandTotal),
	}
	if bill.Cashier != nil {
		data.Cashier = bill.Cashier.Name
	}
	for i, it := range bill.Items {
		data.Lines = append(data.Lines, Line{No: i + 1, LineItem: it})
	}
	return data, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func quantity(d decimal.Decimal) string {
	return d.String()
}
