package repository

import (
	"context"
	"time"

	"posbilling/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoUserRepo struct {
	DB *mongo.Database
}

func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{DB: db}
}

func (r *MongoUserRepo) CreateUser(ctx context.Context, user *models.AppUser) error {
	existing, err := r.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailTaken
	}
	if err := hashPassword(user); err != nil {
		return err
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.ID, err = nextSequence(ctx, r.DB, "app_user"); err != nil {
		return err
	}

	_, err = r.DB.Collection("app_user").InsertOne(ctx, user)
	return err
}

func (r *MongoUserRepo) getOne(ctx context.Context, filter bson.M) (*models.AppUser, error) {
	user := &models.AppUser{}
	err := r.DB.Collection("app_user").FindOne(ctx, filter).Decode(user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *MongoUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.AppUser, error) {
	return r.getOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepo) GetUserByID(ctx context.Context, id int64) (*models.AppUser, error) {
	return r.getOne(ctx, bson.M{"_id": id})
}
