package models

import (
	"time"

	"github.com/shopspring/decimal"

	"posbilling/billing"
)

type PaymentMode string

const (
	PaymentCash   PaymentMode = "CASH"
	PaymentCard   PaymentMode = "CARD"
	PaymentUPI    PaymentMode = "UPI"
	PaymentCredit PaymentMode = "CREDIT"
)

// Payment records how a bill was settled at the counter.
type Payment struct {
	Mode           PaymentMode     `json:"mode" db:"payment_mode" bson:"mode"`
	AmountPaid     decimal.Decimal `json:"amount_paid" db:"amount_paid" bson:"amount_paid"`
	BalanceDue     decimal.Decimal `json:"balance_due" db:"balance_due" bson:"balance_due"`
	ChangeReturned decimal.Decimal `json:"change_returned" db:"change_returned" bson:"change_returned"`
	Reference      *string         `json:"reference,omitempty" db:"payment_reference" bson:"reference,omitempty"`
}

type Bill struct {
	ID           int64              `json:"id" db:"id" bson:"_id"`
	BillNo       int64              `json:"bill_no" db:"bill_no" bson:"bill_no"`
	CustomerID   *int64             `json:"customer_id,omitempty" db:"customer_id" bson:"customer_id,omitempty"`
	CashierID    int64              `json:"cashier_id" db:"cashier_id" bson:"cashier_id"`
	BillDate     time.Time          `json:"bill_date" db:"bill_date" bson:"bill_date"`
	Items        []billing.LineItem `json:"items" bson:"items"`
	Totals       billing.Totals     `json:"totals" bson:"totals"`
	Payment      Payment            `json:"payment" bson:"payment"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at" bson:"created_at"`
	PdfCreatedAt *time.Time         `json:"pdf_created_at,omitempty" db:"pdf_created_at" bson:"pdf_created_at,omitempty"`
	PdfPath      *string            `json:"pdf_path,omitempty" db:"pdf_path" bson:"pdf_path,omitempty"`

	// Nested objects for responses (denormalized)
	Customer *Customer `json:"customer,omitempty" bson:"-"`
	Cashier  *AppUser  `json:"cashier,omitempty" bson:"-"`
}

// CreditChange is how much the bill moves the customer's outstanding credit: the
// balance left on this bill less the earlier credit it carried in. Applied as a delta,
// bills saved concurrently for one customer all count.
func (b *Bill) CreditChange() decimal.Decimal {
	return b.Payment.BalanceDue.Sub(b.Totals.PreviousOutstandingCredit)
}

// BillFilter narrows bill listings. Zero values are ignored.
type BillFilter struct {
	From        time.Time
	To          time.Time
	CustomerID  *int64
	PaymentMode PaymentMode
	Limit       int
}
