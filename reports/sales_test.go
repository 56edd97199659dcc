package reports

import (
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

func bill(day int, mode models.PaymentMode, paid, change, due string, items ...billing.LineItem) *models.Bill {
	totals, err := billing.Compute(items, decimal.Zero, decimal.Zero)
	if err != nil {
		panic(err)
	}
	return &models.Bill{
		BillDate: time.Date(2026, 3, day, 11, 0, 0, 0, time.UTC),
		Items:    items,
		Totals:   totals,
		Payment:  models.Payment{Mode: mode, AmountPaid: d(paid), ChangeReturned: d(change), BalanceDue: d(due)},
	}
}

func line(code string, qty, basic, price string) billing.LineItem {
	return billing.LineItem{Code: code, Name: code, BasicPrice: d(basic), Quantity: d(qty), Price: d(price)}
}

func TestSummarize(t *testing.T) {
	bills := []*models.Bill{
		bill(1, models.PaymentCash, "100", "20", "0", line("A", "2", "40", "80")),
		bill(1, models.PaymentUPI, "50", "0", "0", line("B", "1", "50", "50")),
		bill(2, models.PaymentCash, "10", "0", "30", line("A", "1", "40", "40")),
		bill(9, models.PaymentCash, "999", "0", "0", line("C", "1", "999", "999")),
	}

	r := Summarize(bills, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 3, r.BillCount)
	assert.Equal(t, "170.00", r.Subtotal.StringFixed(2))
	assert.Equal(t, "170.00", r.CurrentTotal.StringFixed(2))
	assert.Equal(t, "140.00", r.Collected.StringFixed(2))
	assert.Equal(t, "30.00", r.CreditAdded.StringFixed(2))

	require.Len(t, r.ByPaymentMode, 2)
	assert.Equal(t, models.PaymentCash, r.ByPaymentMode[0].Mode)
	assert.Equal(t, 2, r.ByPaymentMode[0].BillCount)
	assert.Equal(t, "90.00", r.ByPaymentMode[0].Amount.StringFixed(2))

	require.Len(t, r.ByDay, 2)
	assert.Equal(t, "2026-03-01", r.ByDay[0].Date)
	assert.Equal(t, "130.00", r.ByDay[0].CurrentTotal.StringFixed(2))

	require.Len(t, r.TopProducts, 2)
	assert.Equal(t, "A", r.TopProducts[0].Code)
	assert.True(t, r.TopProducts[0].Quantity.Equal(d("3")))
	assert.Equal(t, "120.00", r.TopProducts[0].Amount.StringFixed(2))
}

func TestSummarizeEmpty(t *testing.T) {
	r := Summarize(nil, time.Time{}, time.Time{})
	assert.Zero(t, r.BillCount)
	assert.True(t, r.CurrentTotal.IsZero())
	assert.True(t, r.CreditAdded.IsZero())
	assert.NotNil(t, r.ByPaymentMode)
	assert.NotNil(t, r.TopProducts)
}

func TestSummarizeChainedCreditCountsOnce(t *testing.T) {
	// A customer starting at 50 takes two unpaid bills of 40 each.
	first, err := billing.Compute([]billing.LineItem{line("B", "1", "40", "40")}, decimal.Zero, d("50"))
	require.NoError(t, err)
	second, err := billing.Compute([]billing.LineItem{line("B", "1", "40", "40")}, decimal.Zero, d("90"))
	require.NoError(t, err)
	bills := []*models.Bill{
		{BillDate: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), Totals: first,
			Payment: models.Payment{Mode: models.PaymentCredit, AmountPaid: d("0"), ChangeReturned: d("0"), BalanceDue: first.GrandTotal}},
		{BillDate: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), Totals: second,
			Payment: models.Payment{Mode: models.PaymentCredit, AmountPaid: d("0"), ChangeReturned: d("0"), BalanceDue: second.GrandTotal}},
	}

	r := Summarize(bills, time.Time{}, time.Time{})

	assert.Equal(t, "90.00", first.GrandTotal.StringFixed(2))
	assert.Equal(t, "130.00", second.GrandTotal.StringFixed(2))
	assert.Equal(t, "80.00", r.CreditAdded.StringFixed(2))
	assert.Equal(t, "80.00", r.CurrentTotal.StringFixed(2))
	require.Len(t, r.ByDay, 1)
	assert.Equal(t, "80.00", r.ByDay[0].CurrentTotal.StringFixed(2))
}
