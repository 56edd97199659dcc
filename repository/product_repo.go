package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"posbilling/models"
)

type ProductRepository interface {
	GetProductByCode(ctx context.Context, code string) (*models.Product, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]*models.Product, error)
	SaveProduct(ctx context.Context, product *models.Product) error
	// AdjustStock adds delta (negative to remove) to the product's stock.
	AdjustStock(ctx context.Context, code string, delta decimal.Decimal) error
}
