package repository

import (
	"context"
	"errors"
	"time"

	"posbilling/models"
)

var (
	// ErrInsufficientStock is returned when a sale would take stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrBillNotFound is returned by mutations addressed to a bill that does not exist.
	ErrBillNotFound = errors.New("bill not found")
)

// BillRepository persists completed bills.
type BillRepository interface {
	// CreateBill stores the bill and its lines, takes the sold quantities out of stock
	// and applies the bill's CreditChange to the customer's outstanding credit, all or nothing.
	// It assigns ID, BillNo and CreatedAt.
	CreateBill(ctx context.Context, bill *models.Bill) error
	GetBills(ctx context.Context, filter models.BillFilter) ([]*models.Bill, error)
	GetBillByID(ctx context.Context, id int64) (*models.Bill, error)
	UpdatePDFInfo(ctx context.Context, id int64, path string, createdAt time.Time) error
	DeleteBill(ctx context.Context, id int64) error
}
