package repository

import (
	"context"
	"errors"

	"posbilling/models"
)

// ErrEmailTaken is returned when signing up with an email that already has an account.
var ErrEmailTaken = errors.New("email already exists")

// UserRepository defines the interface for cashier accounts
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.AppUser) error
	GetUserByEmail(ctx context.Context, email string) (*models.AppUser, error)
	GetUserByID(ctx context.Context, id int64) (*models.AppUser, error)
}
