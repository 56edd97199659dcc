package models

import "time"

type ContactNumber struct {
	Number string `json:"number" bson:"number"`
	Label  string `json:"label" bson:"label"`
}

// ShopProfile is the seller header printed on every invoice. Only the latest row is used.
type ShopProfile struct {
	ID            int64           `json:"id" bson:"_id" db:"id"`
	ShopName      string          `json:"shop_name" bson:"shop_name" db:"shop_name"`
	Address       string          `json:"address" bson:"address" db:"address"`
	City          string          `json:"city" bson:"city" db:"city"`
	State         string          `json:"state" bson:"state" db:"state"`
	Pincode       string          `json:"pincode" bson:"pincode" db:"pincode"`
	GSTIN         string          `json:"gstin" bson:"gstin" db:"gstin"`
	InvoicePrefix string          `json:"invoice_prefix" bson:"invoice_prefix" db:"invoice_prefix"`
	Footnote      string          `json:"footnote" bson:"footnote" db:"footnote"`
	Contacts      []ContactNumber `json:"contacts" bson:"contacts" db:"contacts"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at" db:"created_at"`
}

// ContactLine joins the contact numbers the way they are printed on the invoice header.
func (s *ShopProfile) ContactLine() string {
	line := ""
	for i, c := range s.Contacts {
		if i > 0 {
			line += ", "
		}
		line += c.Number
		if c.Label != "" {
			line += "(" + c.Label + ")"
		}
	}
	return line
}
