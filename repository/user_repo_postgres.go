package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"posbilling/models"

	"golang.org/x/crypto/bcrypt"
)

type PostgresUserRepo struct {
	DB *sql.DB
}

func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{DB: db}
}

// hashPassword replaces the plain password with its bcrypt hash
func hashPassword(user *models.AppUser) error {
	if user.Password == "" {
		return errors.New("password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	return nil
}

// CreateUser creates a cashier after validating email uniqueness and hashing password
func (r *PostgresUserRepo) CreateUser(ctx context.Context, user *models.AppUser) error {
	existingUser, err := r.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if existingUser != nil {
		return ErrEmailTaken
	}

	if err := hashPassword(user); err != nil {
		return err
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	return r.DB.QueryRowContext(ctx, `
		INSERT INTO app_user (name, email, password_hash, role, counter, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, user.Name, user.Email, user.Password, user.Role, user.Counter, user.CreatedAt).Scan(&user.ID)
}

func (r *PostgresUserRepo) getOne(ctx context.Context, where string, arg interface{}) (*models.AppUser, error) {
	user := &models.AppUser{}
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, counter, created_at
		FROM app_user
		WHERE `+where, arg).Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.Role, &user.Counter, &user.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetUserByEmail fetches user by email
func (r *PostgresUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.AppUser, error) {
	return r.getOne(ctx, "email=$1", email)
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, id int64) (*models.AppUser, error) {
	return r.getOne(ctx, "id=$1", id)
}
