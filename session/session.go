// Package session holds the working bill a cashier edits at the counter until checkout.
package session

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"posbilling/billing"
	"posbilling/models"
)

var (
	ErrSessionNotFound  = errors.New("billing session not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrLineNotFound     = errors.New("bill line not found")
	ErrEmptyBill        = errors.New("bill has no items")
	ErrInvalidPayment   = errors.New("invalid payment")
)

// Session is one open bill. It is owned by a single cashier and never shared between counters.
type Session struct {
	ID              string             `json:"id"`
	CashierID       int64              `json:"cashier_id"`
	Customer        *models.Customer   `json:"customer,omitempty"`
	Items           []billing.LineItem `json:"items"`
	TransportCharge decimal.Decimal    `json:"transport_charge"`
	PreviousCredit  decimal.Decimal    `json:"previous_credit"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Totals recomputes the bill summary from the current lines.
func (s *Session) Totals() (billing.Totals, error) {
	return billing.Compute(s.Items, s.TransportCharge, s.PreviousCredit)
}

func (s *Session) clone() *Session {
	c := *s
	c.Items = append([]billing.LineItem(nil), s.Items...)
	if s.Customer != nil {
		cust := *s.Customer
		c.Customer = &cust
	}
	return &c
}

// quantityOf sums the quantity already on the bill for a product code.
func (s *Session) quantityOf(code string) decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		if it.Code == code {
			total = total.Add(it.Quantity)
		}
	}
	return total
}

// PaymentRequest is what the cashier enters at checkout.
type PaymentRequest struct {
	Mode       models.PaymentMode
	AmountPaid decimal.Decimal
	Reference  *string
}

// Settle splits the amount paid against the grand total into balance due and change.
func Settle(grandTotal decimal.Decimal, req PaymentRequest) (models.Payment, error) {
	switch req.Mode {
	case models.PaymentCash, models.PaymentCard, models.PaymentUPI, models.PaymentCredit:
	default:
		return models.Payment{}, ErrInvalidPayment
	}
	if req.AmountPaid.IsNegative() {
		return models.Payment{}, ErrInvalidPayment
	}
	paid := billing.Round2(req.AmountPaid)

	p := models.Payment{
		Mode:           req.Mode,
		AmountPaid:     paid,
		BalanceDue:     decimal.Zero,
		ChangeReturned: decimal.Zero,
		Reference:      req.Reference,
	}
	if paid.LessThan(grandTotal) {
		p.BalanceDue = grandTotal.Sub(paid)
	} else {
		p.ChangeReturned = paid.Sub(grandTotal)
	}
	return p, nil
}
