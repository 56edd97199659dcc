package invoice

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posbilling/billing"
	"posbilling/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleBill() *models.Bill {
	cid := int64(4)
	return &models.Bill{
		ID:         12,
		BillNo:     12,
		BillDate:   time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		CashierID:  1,
		Cashier:    &models.AppUser{ID: 1, Name: "Counter 1"},
		CustomerID: &cid,
		Customer:   &models.Customer{ID: cid, Name: "Ravi <Traders>", Phone: "9800000001"},
		Items: []billing.LineItem{
			{ID: "l1", Code: "A", Name: "Rice 1kg", BasicPrice: d("100"), MRPPrice: d("100"), GSTAmount: d("9"),
				SGSTAmount: d("9"), GSTPercent: d("18"), Quantity: d("2"), Unit: "pcs", Price: d("236")},
		},
		// stored totals are ignored in favour of a fresh computation
		Totals:  billing.Totals{TransportCharge: d("20"), PreviousOutstandingCredit: d("50"), GrandTotal: d("1")},
		Payment: models.Payment{Mode: models.PaymentCash, AmountPaid: d("300"), BalanceDue: d("6"), ChangeReturned: decimal.Zero},
	}
}

func sampleShop() *models.ShopProfile {
	return &models.ShopProfile{
		ShopName:      "Sri Lakshmi Stores",
		Address:       "12 Market Road",
		City:          "Pune",
		GSTIN:         "27ABCDE1234F1Z5",
		InvoicePrefix: "SLS-",
		Footnote:      "Goods once sold will not be taken back.",
		Contacts:      []models.ContactNumber{{Number: "9800011111", Label: "Shop"}, {Number: "9800022222"}},
	}
}

func TestBuildData(t *testing.T) {
	data, err := BuildData(sampleShop(), sampleBill())
	require.NoError(t, err)

	assert.Equal(t, "SLS-12", data.InvoiceNo)
	assert.Equal(t, "14-Mar-2026", data.Date)
	assert.Equal(t, "9800011111(Shop), 9800022222", data.Contacts)
	assert.Equal(t, "Counter 1", data.Cashier)
	assert.Equal(t, "256.00", data.Totals.CurrentBillTotal.StringFixed(2))
	assert.Equal(t, "306.00", data.Totals.GrandTotal.StringFixed(2))
	assert.Equal(t, "Three Hundred Six Rupees Only", data.TotalWords)
	require.Len(t, data.Lines, 1)
	assert.Equal(t, 1, data.Lines[0].No)
}

func TestBuildDataNeedsShop(t *testing.T) {
	_, err := BuildData(nil, sampleBill())
	require.ErrorIs(t, err, ErrNoShopProfile)
}

func TestBuildDataRejectsBadLines(t *testing.T) {
	bill := sampleBill()
	bill.Items[0].Quantity = d("-1")
	_, err := BuildData(sampleShop(), bill)
	require.ErrorIs(t, err, billing.ErrInvalidQuantity)
}

func TestHTMLRendersEveryCopy(t *testing.T) {
	data, err := BuildData(sampleShop(), sampleBill())
	require.NoError(t, err)

	out, err := HTML(data, CopyTitles)
	require.NoError(t, err)
	html := string(out)

	assert.Equal(t, 2, strings.Count(html, "class='invoice-copy'"))
	assert.Contains(t, html, "Customer Copy")
	assert.Contains(t, html, "Shop Copy")
	assert.Contains(t, html, "Ravi &lt;Traders&gt;")
	assert.Contains(t, html, "306.00")
	assert.Contains(t, html, "Balance Due")
	assert.NotContains(t, html, "Change Returned")
	assert.Contains(t, html, "Goods once sold will not be taken back.")
}

func TestHTMLWalkInCustomer(t *testing.T) {
	bill := sampleBill()
	bill.Customer, bill.CustomerID = nil, nil
	bill.Totals.PreviousOutstandingCredit = decimal.Zero

	data, err := BuildData(sampleShop(), bill)
	require.NoError(t, err)
	out, err := HTML(data, CopyTitles[:1])
	require.NoError(t, err)
	assert.Contains(t, string(out), "Walk-in")
	assert.NotContains(t, string(out), "Previous Outstanding")
}
