package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
	URL      string
	Name     string
}

func NewMongoDB(url, name string) *MongoDB {
	return &MongoDB{URL: url, Name: name}
}

func (m *MongoDB) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.URL).SetRegistry(NewRegistry()))
	if err != nil {
		return err
	}
	m.Client = client
	m.Database = client.Database(m.Name)
	if err := m.Client.Ping(ctx, nil); err != nil {
		return err
	}
	return m.ensureIndexes(ctx)
}

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	for coll, key := range map[string]string{
		"products":  "code",
		"customers": "phone",
		"app_user":  "email",
	} {
		if _, err := m.Database.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: key, Value: 1}},
			Options: unique,
		}); err != nil {
			return err
		}
	}
	_, err := m.Database.Collection("bills").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "bill_date", Value: -1}},
	})
	return err
}

func (m *MongoDB) Disconnect() error {
	if m.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}
