package repository

import (
	"context"

	"posbilling/models"
)

type CustomerRepository interface {
	GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error)
	GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	SaveCustomer(ctx context.Context, customer *models.Customer) error
	ListCustomers(ctx context.Context, query string, limit int) ([]*models.Customer, error)
}
