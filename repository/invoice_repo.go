package repository

import (
	"context"

	"posbilling/models"
)

// InvoiceRepository gathers everything an invoice needs from the other repositories
type InvoiceRepository struct {
	BillRepo     BillRepository
	ShopRepo     ShopRepository
	CustomerRepo CustomerRepository
	UserRepo     UserRepository
}

func NewInvoiceRepository(bills BillRepository, shop ShopRepository, customers CustomerRepository, users UserRepository) *InvoiceRepository {
	return &InvoiceRepository{
		BillRepo:     bills,
		ShopRepo:     shop,
		CustomerRepo: customers,
		UserRepo:     users,
	}
}

// GetBillForInvoice fetches a bill with its customer and cashier filled in.
// It returns nil, nil when the bill does not exist.
func (r *InvoiceRepository) GetBillForInvoice(ctx context.Context, id int64) (*models.Bill, error) {
	bill, err := r.BillRepo.GetBillByID(ctx, id)
	if err != nil || bill == nil {
		return nil, err
	}
	if bill.Customer == nil && bill.CustomerID != nil && r.CustomerRepo != nil {
		if bill.Customer, err = r.CustomerRepo.GetCustomerByID(ctx, *bill.CustomerID); err != nil {
			return nil, err
		}
	}
	if bill.Cashier == nil && bill.CashierID != 0 && r.UserRepo != nil {
		if bill.Cashier, err = r.UserRepo.GetUserByID(ctx, bill.CashierID); err != nil {
			return nil, err
		}
	}
	if bill.Cashier != nil {
		bill.Cashier.Password = ""
	}
	return bill, nil
}

// GetShopForInvoice fetches the latest shop profile
func (r *InvoiceRepository) GetShopForInvoice(ctx context.Context) (*models.ShopProfile, error) {
	return r.ShopRepo.GetShop(ctx)
}
