package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"posbilling/models"
)

type MongoShopRepo struct {
	DB *mongo.Database
}

func NewMongoShopRepo(db *mongo.Database) *MongoShopRepo {
	return &MongoShopRepo{DB: db}
}

func (r *MongoShopRepo) SaveShop(ctx context.Context, shop *models.ShopProfile) error {
	if shop.CreatedAt.IsZero() {
		shop.CreatedAt = time.Now().UTC()
	}
	if shop.ID == 0 {
		id, err := nextSequence(ctx, r.DB, "shop_profile")
		if err != nil {
			return err
		}
		shop.ID = id
	}
	_, err := r.DB.Collection("shop_profile").ReplaceOne(ctx,
		bson.M{"_id": shop.ID}, shop, options.Replace().SetUpsert(true))
	return err
}

func (r *MongoShopRepo) GetShop(ctx context.Context) (*models.ShopProfile, error) {
	var shop models.ShopProfile
	err := r.DB.Collection("shop_profile").
		FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.M{"_id": -1})).
		Decode(&shop)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}
