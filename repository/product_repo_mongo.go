package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"posbilling/models"
)

type MongoProductRepo struct {
	DB *mongo.Database
}

func NewMongoProductRepo(db *mongo.Database) *MongoProductRepo {
	return &MongoProductRepo{DB: db}
}

func (r *MongoProductRepo) GetProductByCode(ctx context.Context, code string) (*models.Product, error) {
	var p models.Product
	err := r.DB.Collection("products").FindOne(ctx, bson.M{"code": code}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *MongoProductRepo) SearchProducts(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	prefix := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(query)), Options: "i"}
	cur, err := r.DB.Collection("products").Find(ctx,
		bson.M{"$or": bson.A{bson.M{"code": prefix}, bson.M{"name": prefix}}},
		options.Find().SetSort(bson.M{"name": 1}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*models.Product
	for cur.Next(ctx) {
		var p models.Product
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}

// SaveProduct upserts by code, allocating an id for new codes
func (r *MongoProductRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now().UTC()
	existing, err := r.GetProductByCode(ctx, p.Code)
	if err != nil {
		return err
	}
	if existing != nil {
		p.ID = existing.ID
	} else {
		if p.ID, err = nextSequence(ctx, r.DB, "products"); err != nil {
			return err
		}
	}
	_, err = r.DB.Collection("products").ReplaceOne(ctx,
		bson.M{"_id": p.ID}, p, options.Replace().SetUpsert(true))
	return err
}

func (r *MongoProductRepo) AdjustStock(ctx context.Context, code string, delta decimal.Decimal) error {
	res, err := r.DB.Collection("products").UpdateOne(ctx,
		bson.M{"code": code, "stock": bson.M{"$gte": delta.Neg()}},
		bson.M{"$inc": bson.M{"stock": delta}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, code)
	}
	return nil
}
