package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"posbilling/billing"
	"posbilling/models"
)

type MongoBillRepo struct {
	DB *mongo.Database
}

func NewMongoBillRepo(db *mongo.Database) *MongoBillRepo {
	return &MongoBillRepo{DB: db}
}

// CreateBill inserts the bill document with its lines embedded. Without a replica set there
// are no transactions, so every completed step registers an undo that runs if a later one fails.
func (r *MongoBillRepo) CreateBill(ctx context.Context, bill *models.Bill) (err error) {
	if bill.CashierID == 0 {
		return errors.New("cashier_id cannot be empty")
	}

	var undo []func()
	defer func() {
		if err == nil {
			return
		}
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}()

	products := r.DB.Collection("products")
	for _, it := range bill.Items {
		res, uerr := products.UpdateOne(ctx,
			bson.M{"code": it.Code, "stock": bson.M{"$gte": it.Quantity}},
			bson.M{"$inc": bson.M{"stock": it.Quantity.Neg()}, "$set": bson.M{"updated_at": time.Now().UTC()}},
		)
		if uerr != nil {
			return uerr
		}
		if res.MatchedCount == 0 {
			return fmt.Errorf("%w: %s", ErrInsufficientStock, it.Code)
		}
		undo = append(undo, r.restockFunc(it))
	}

	id, err := nextSequence(ctx, r.DB, "bill")
	if err != nil {
		return err
	}
	bill.ID = id
	bill.BillNo = id
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now().UTC()
	}

	if _, err = r.DB.Collection("bills").InsertOne(ctx, bill); err != nil {
		return err
	}
	undo = append(undo, func() {
		if _, derr := r.DB.Collection("bills").DeleteOne(context.Background(), bson.M{"_id": id}); derr != nil {
			log.Error().Err(derr).Int64("bill_id", id).Msg("undo bill insert failed")
		}
	})

	if bill.CustomerID != nil {
		_, err = r.DB.Collection("customers").UpdateOne(ctx,
			bson.M{"_id": *bill.CustomerID},
			bson.M{"$inc": bson.M{"outstanding_credit": bill.CreditChange()}},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *MongoBillRepo) restockFunc(it billing.LineItem) func() {
	return func() {
		_, err := r.DB.Collection("products").UpdateOne(context.Background(),
			bson.M{"code": it.Code},
			bson.M{"$inc": bson.M{"stock": it.Quantity}},
		)
		if err != nil {
			log.Error().Err(err).Str("code", it.Code).Msg("restock failed")
		}
	}
}

// GetBills fetches bills newest first with customer and cashier populated
func (r *MongoBillRepo) GetBills(ctx context.Context, filter models.BillFilter) ([]*models.Bill, error) {
	q := bson.M{}
	date := bson.M{}
	if !filter.From.IsZero() {
		date["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		date["$lt"] = filter.To
	}
	if len(date) > 0 {
		q["bill_date"] = date
	}
	if filter.CustomerID != nil {
		q["customer_id"] = *filter.CustomerID
	}
	if filter.PaymentMode != "" {
		q["payment.mode"] = filter.PaymentMode
	}

	opts := options.Find().SetSort(bson.D{{Key: "bill_date", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cur, err := r.DB.Collection("bills").Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*models.Bill
	for cur.Next(ctx) {
		var b models.Bill
		if err := cur.Decode(&b); err != nil {
			return nil, err
		}
		out = append(out, r.populateNested(ctx, &b))
	}
	return out, cur.Err()
}

func (r *MongoBillRepo) GetBillByID(ctx context.Context, id int64) (*models.Bill, error) {
	var b models.Bill
	err := r.DB.Collection("bills").FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return r.populateNested(ctx, &b), nil
}

// populateNested loads the customer and cashier of a bill
func (r *MongoBillRepo) populateNested(ctx context.Context, b *models.Bill) *models.Bill {
	if b.CustomerID != nil && *b.CustomerID != 0 {
		var c models.Customer
		if err := r.DB.Collection("customers").FindOne(ctx, bson.M{"_id": *b.CustomerID}).Decode(&c); err == nil {
			b.Customer = &c
		}
	}
	if b.CashierID != 0 {
		var u models.AppUser
		if err := r.DB.Collection("app_user").FindOne(ctx, bson.M{"_id": b.CashierID}).Decode(&u); err == nil {
			u.Password = ""
			b.Cashier = &u
		}
	}
	return b
}

func (r *MongoBillRepo) UpdatePDFInfo(ctx context.Context, id int64, path string, createdAt time.Time) error {
	res, err := r.DB.Collection("bills").UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"pdf_path": path, "pdf_created_at": createdAt}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrBillNotFound
	}
	return nil
}

// DeleteBill voids a bill and puts its lines back into stock
func (r *MongoBillRepo) DeleteBill(ctx context.Context, id int64) error {
	var b models.Bill
	if err := r.DB.Collection("bills").FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrBillNotFound
		}
		return err
	}
	for _, it := range b.Items {
		r.restockFunc(it)()
	}
	return nil
}
