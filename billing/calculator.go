// Package billing derives bill totals and line prices. It performs no I/O.
package billing

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest amount the bill store can hold (NUMERIC(14,2)).
var MaxAmount = decimal.RequireFromString("999999999999.99")

var half = decimal.New(5, -1)

// LineItem is one priced product line of a working bill.
type LineItem struct {
	ID         string          `json:"id" db:"line_id" bson:"id"`
	Code       string          `json:"code" db:"code" bson:"code"`
	Name       string          `json:"name" db:"name" bson:"name"`
	BasicPrice decimal.Decimal `json:"basic_price" db:"basic_price" bson:"basic_price"`
	MRPPrice   decimal.Decimal `json:"mrp_price" db:"mrp_price" bson:"mrp_price"`
	GSTAmount  decimal.Decimal `json:"gst_amount" db:"gst_amount" bson:"gst_amount"`
	SGSTAmount decimal.Decimal `json:"sgst_amount" db:"sgst_amount" bson:"sgst_amount"`
	GSTPercent decimal.Decimal `json:"gst_percent" db:"gst_percent" bson:"gst_percent"`
	Discount   decimal.Decimal `json:"discount" db:"discount" bson:"discount"`
	Quantity   decimal.Decimal `json:"quantity" db:"quantity" bson:"quantity"`
	Unit       string          `json:"unit" db:"unit" bson:"unit"`
	Price      decimal.Decimal `json:"price" db:"price" bson:"price"`
}

// Totals summarises a bill. Every value is rounded to two places.
type Totals struct {
	Subtotal                  decimal.Decimal `json:"subtotal" bson:"subtotal"`
	GSTTotal                  decimal.Decimal `json:"gst_total" bson:"gst_total"`
	SGSTTotal                 decimal.Decimal `json:"sgst_total" bson:"sgst_total"`
	TaxTotal                  decimal.Decimal `json:"tax_total" bson:"tax_total"`
	TransportCharge           decimal.Decimal `json:"transport_charge" bson:"transport_charge"`
	PreviousOutstandingCredit decimal.Decimal `json:"previous_outstanding_credit" bson:"previous_outstanding_credit"`
	CurrentBillTotal          decimal.Decimal `json:"current_bill_total" bson:"current_bill_total"`
	GrandTotal                decimal.Decimal `json:"grand_total" bson:"grand_total"`
}

// TaxField selects one of the per-unit tax components of a line.
type TaxField int

const (
	GST TaxField = iota
	SGST
)

func (f TaxField) String() string {
	if f == SGST {
		return "sgst_amount"
	}
	return "gst_amount"
}

func (f TaxField) of(it LineItem) decimal.Decimal {
	if f == SGST {
		return it.SGSTAmount
	}
	return it.GSTAmount
}

// Round2 rounds half up to two decimal places. Ties go toward positive infinity,
// so -2.345 becomes -2.34 rather than -2.35. Amounts passed in are non-negative.
func Round2(x decimal.Decimal) decimal.Decimal {
	return x.Shift(2).Add(half).Floor().Shift(-2)
}

// FromFloat converts a float amount, rejecting NaN and infinities.
func FromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, &Error{Kind: RoundingOverflow, Field: "amount"}
	}
	return decimal.NewFromFloat(f), nil
}

// Subtotal is the sum of BasicPrice * Quantity, each line rounded before summation.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(Round2(it.BasicPrice.Mul(it.Quantity)))
	}
	return Round2(sum)
}

// Tax is the sum of field * Quantity, each line rounded before summation.
func Tax(items []LineItem, field TaxField) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(Round2(field.of(it).Mul(it.Quantity)))
	}
	return Round2(sum)
}

func TaxTotal(items []LineItem) decimal.Decimal {
	return Round2(Tax(items, GST).Add(Tax(items, SGST)))
}

// CurrentBillTotal adds both tax components and the transport charge to the subtotal.
// A zero transport charge means none was entered.
func CurrentBillTotal(items []LineItem, transport decimal.Decimal) (decimal.Decimal, error) {
	if transport.IsNegative() {
		return decimal.Zero, newError(InvalidCharge, "transport_charge", transport)
	}
	total := Round2(Subtotal(items).Add(Tax(items, GST)).Add(Tax(items, SGST)).Add(transport))
	if err := checkRange("current_bill_total", total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// GrandTotal carries the customer's previous outstanding credit into the bill.
func GrandTotal(current, credit decimal.Decimal) (decimal.Decimal, error) {
	if credit.IsNegative() {
		return decimal.Zero, newError(InvalidCharge, "previous_outstanding_credit", credit)
	}
	total := Round2(current.Add(credit))
	if err := checkRange("grand_total", total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// Validate rejects non-positive quantities, negative prices or tax amounts, a negative
// gst_percent and a discount outside 0..100.
func Validate(items []LineItem) error {
	for _, it := range items {
		if !it.Quantity.IsPositive() {
			return newError(InvalidQuantity, "quantity["+it.Code+"]", it.Quantity)
		}
		for _, f := range []struct {
			name string
			v    decimal.Decimal
		}{
			{"basic_price", it.BasicPrice},
			{"mrp_price", it.MRPPrice},
			{"gst_amount", it.GSTAmount},
			{"sgst_amount", it.SGSTAmount},
			{"gst_percent", it.GSTPercent},
			{"discount", it.Discount},
		} {
			if f.v.IsNegative() {
				return newError(InvalidCharge, f.name+"["+it.Code+"]", f.v)
			}
		}
		if it.Discount.GreaterThan(hundred) {
			return newError(InvalidCharge, "discount["+it.Code+"]", it.Discount)
		}
	}
	return nil
}

// Compute validates the inputs and derives the full set of totals.
func Compute(items []LineItem, transport, credit decimal.Decimal) (Totals, error) {
	if err := Validate(items); err != nil {
		return Totals{}, err
	}
	current, err := CurrentBillTotal(items, transport)
	if err != nil {
		return Totals{}, err
	}
	grand, err := GrandTotal(current, credit)
	if err != nil {
		return Totals{}, err
	}

	t := Totals{
		Subtotal:                  Subtotal(items),
		GSTTotal:                  Tax(items, GST),
		SGSTTotal:                 Tax(items, SGST),
		TaxTotal:                  TaxTotal(items),
		TransportCharge:           Round2(transport),
		PreviousOutstandingCredit: Round2(credit),
		CurrentBillTotal:          current,
		GrandTotal:                grand,
	}
	if err := checkRange("subtotal", t.Subtotal); err != nil {
		return Totals{}, err
	}
	return t, nil
}

func checkRange(field string, v decimal.Decimal) error {
	if v.Abs().GreaterThan(MaxAmount) {
		return newError(RoundingOverflow, field, v)
	}
	return nil
}
