package models

import (
	"time"

	"github.com/shopspring/decimal"

	"posbilling/billing"
)

// Product is a catalogue entry with its current stock on hand.
type Product struct {
	ID         int64           `json:"id" db:"id" bson:"_id"`
	Code       string          `json:"code" db:"code" bson:"code"`
	Name       string          `json:"name" db:"name" bson:"name"`
	BasicPrice decimal.Decimal `json:"basic_price" db:"basic_price" bson:"basic_price"`
	MRPPrice   decimal.Decimal `json:"mrp_price" db:"mrp_price" bson:"mrp_price"`
	GSTPercent decimal.Decimal `json:"gst_percent" db:"gst_percent" bson:"gst_percent"`
	GSTAmount  decimal.Decimal `json:"gst_amount" db:"gst_amount" bson:"gst_amount"`
	SGSTAmount decimal.Decimal `json:"sgst_amount" db:"sgst_amount" bson:"sgst_amount"`
	Discount   decimal.Decimal `json:"discount" db:"discount" bson:"discount"`
	Unit       string          `json:"unit" db:"unit" bson:"unit"`
	Stock      decimal.Decimal `json:"stock" db:"stock" bson:"stock"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at" bson:"updated_at"`
}

// LineItem turns the product into a bill line of the given quantity.
func (p *Product) LineItem(quantity decimal.Decimal) billing.LineItem {
	return billing.LineItem{
		Code:       p.Code,
		Name:       p.Name,
		BasicPrice: p.BasicPrice,
		MRPPrice:   p.MRPPrice,
		GSTAmount:  p.GSTAmount,
		SGSTAmount: p.SGSTAmount,
		GSTPercent: p.GSTPercent,
		Discount:   p.Discount,
		Quantity:   quantity,
		Unit:       p.Unit,
	}
}
