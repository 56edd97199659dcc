package repository

import (
	"context"

	"posbilling/models"
)

type ShopRepository interface {
	SaveShop(ctx context.Context, shop *models.ShopProfile) error
	GetShop(ctx context.Context) (*models.ShopProfile, error)
}
