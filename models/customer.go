package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID                int64           `json:"id" db:"id" bson:"_id"`
	Name              string          `json:"name" db:"name" bson:"name"`
	Phone             string          `json:"phone" db:"phone" bson:"phone"`
	GSTIN             *string         `json:"gstin,omitempty" db:"gstin" bson:"gstin,omitempty"`
	Address           string          `json:"address" db:"address" bson:"address"`
	OutstandingCredit decimal.Decimal `json:"outstanding_credit" db:"outstanding_credit" bson:"outstanding_credit"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at" bson:"created_at"`
}
