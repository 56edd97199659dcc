package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"posbilling/models"
)

type MongoCustomerRepo struct {
	DB *mongo.Database
}

func NewMongoCustomerRepo(db *mongo.Database) *MongoCustomerRepo {
	return &MongoCustomerRepo{DB: db}
}

func (r *MongoCustomerRepo) getOne(ctx context.Context, filter bson.M) (*models.Customer, error) {
	var c models.Customer
	err := r.DB.Collection("customers").FindOne(ctx, filter).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *MongoCustomerRepo) GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return r.getOne(ctx, bson.M{"phone": strings.TrimSpace(phone)})
}

func (r *MongoCustomerRepo) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	return r.getOne(ctx, bson.M{"_id": id})
}

// SaveCustomer upserts by phone; an existing customer keeps its outstanding credit
func (r *MongoCustomerRepo) SaveCustomer(ctx context.Context, c *models.Customer) error {
	existing, err := r.GetCustomerByPhone(ctx, c.Phone)
	if err != nil {
		return err
	}
	if existing != nil {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		c.OutstandingCredit = existing.OutstandingCredit
		_, err = r.DB.Collection("customers").UpdateOne(ctx,
			bson.M{"_id": c.ID},
			bson.M{"$set": bson.M{"name": c.Name, "gstin": c.GSTIN, "address": c.Address}},
		)
		return err
	}

	if c.ID, err = nextSequence(ctx, r.DB, "customers"); err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err = r.DB.Collection("customers").InsertOne(ctx, c)
	return err
}

func (r *MongoCustomerRepo) ListCustomers(ctx context.Context, query string, limit int) ([]*models.Customer, error) {
	if limit <= 0 {
		limit = 50
	}
	filter := bson.M{}
	if q := strings.TrimSpace(query); q != "" {
		prefix := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{bson.M{"name": prefix}, bson.M{"phone": prefix}}
	}
	cur, err := r.DB.Collection("customers").Find(ctx, filter,
		options.Find().SetSort(bson.M{"name": 1}).SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*models.Customer
	for cur.Next(ctx) {
		var c models.Customer
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, cur.Err()
}
