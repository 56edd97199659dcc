package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"posbilling/models"
)

type PostgresCustomerRepo struct {
	DB *sql.DB
}

func NewPostgresCustomerRepo(db *sql.DB) *PostgresCustomerRepo {
	return &PostgresCustomerRepo{DB: db}
}

const customerColumns = `id, name, phone, gstin, address, outstanding_credit, created_at`

func scanCustomer(row interface{ Scan(...interface{}) error }) (*models.Customer, error) {
	c := &models.Customer{}
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.GSTIN, &c.Address, &c.OutstandingCredit, &c.CreatedAt)
	return c, err
}

func (r *PostgresCustomerRepo) getOne(ctx context.Context, where string, arg interface{}) (*models.Customer, error) {
	c, err := scanCustomer(r.DB.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customer WHERE `+where, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *PostgresCustomerRepo) GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return r.getOne(ctx, "phone = $1", strings.TrimSpace(phone))
}

func (r *PostgresCustomerRepo) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	return r.getOne(ctx, "id = $1", id)
}

// SaveCustomer inserts a customer or updates the one with the same phone number.
// Outstanding credit is only written on insert; bills own it afterwards.
func (r *PostgresCustomerRepo) SaveCustomer(ctx context.Context, c *models.Customer) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return r.DB.QueryRowContext(ctx, `
		INSERT INTO customer(name, phone, gstin, address, outstanding_credit, created_at)
		VALUES($1,$2,$3,$4,$5,$6)
		ON CONFLICT(phone) DO UPDATE SET name=EXCLUDED.name, gstin=EXCLUDED.gstin, address=EXCLUDED.address
		RETURNING id, outstanding_credit, created_at
	`, c.Name, c.Phone, c.GSTIN, c.Address, c.OutstandingCredit, c.CreatedAt).
		Scan(&c.ID, &c.OutstandingCredit, &c.CreatedAt)
}

func (r *PostgresCustomerRepo) ListCustomers(ctx context.Context, query string, limit int) ([]*models.Customer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+customerColumns+` FROM customer
		WHERE $1 = '' OR lower(name) LIKE $1 || '%' OR phone LIKE $1 || '%'
		ORDER BY name
		LIMIT $2
	`, strings.ToLower(strings.TrimSpace(query)), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
