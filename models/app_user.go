package models

import "time"

// AppUser is a cashier or shop admin allowed to run the billing counter.
type AppUser struct {
	ID        int64     `json:"id" db:"id" bson:"_id"`
	Name      string    `json:"name" db:"name" bson:"name"`
	Email     string    `json:"email" db:"email" bson:"email"`
	Role      string    `json:"role" db:"role" bson:"role"` // cashier | admin
	Counter   string    `json:"counter,omitempty" db:"counter" bson:"counter,omitempty"`
	Password  string    `json:"password,omitempty" db:"password_hash" bson:"password_hash"`
	CreatedAt time.Time `json:"created_at" db:"created_at" bson:"created_at"`
}
