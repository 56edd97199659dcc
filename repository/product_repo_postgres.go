package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"posbilling/models"
)

type PostgresProductRepo struct {
	DB *sql.DB
}

func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{DB: db}
}

const productColumns = `id, code, name, basic_price, mrp_price, gst_percent, gst_amount, sgst_amount, discount, unit, stock, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.BasicPrice, &p.MRPPrice, &p.GSTPercent,
		&p.GSTAmount, &p.SGSTAmount, &p.Discount, &p.Unit, &p.Stock, &p.UpdatedAt)
	return p, err
}

// GetProductByCode fetches a product and its stock on hand
func (r *PostgresProductRepo) GetProductByCode(ctx context.Context, code string) (*models.Product, error) {
	p, err := scanProduct(r.DB.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM product WHERE code = $1`, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// SearchProducts matches code or name prefixes, case-insensitively
func (r *PostgresProductRepo) SearchProducts(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := strings.ToLower(strings.TrimSpace(query)) + "%"
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM product
		WHERE lower(code) LIKE $1 OR lower(name) LIKE $1
		ORDER BY name
		LIMIT %d
	`, productColumns, limit), pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveProduct inserts a product or updates the one with the same code
func (r *PostgresProductRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now().UTC()
	return r.DB.QueryRowContext(ctx, `
		INSERT INTO product(code, name, basic_price, mrp_price, gst_percent, gst_amount, sgst_amount, discount, unit, stock, updated_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT(code) DO UPDATE SET
			name=EXCLUDED.name, basic_price=EXCLUDED.basic_price, mrp_price=EXCLUDED.mrp_price,
			gst_percent=EXCLUDED.gst_percent, gst_amount=EXCLUDED.gst_amount, sgst_amount=EXCLUDED.sgst_amount,
			discount=EXCLUDED.discount, unit=EXCLUDED.unit, stock=EXCLUDED.stock, updated_at=EXCLUDED.updated_at
		RETURNING id
	`, p.Code, p.Name, p.BasicPrice, p.MRPPrice, p.GSTPercent, p.GSTAmount, p.SGSTAmount,
		p.Discount, p.Unit, p.Stock, p.UpdatedAt).Scan(&p.ID)
}

func (r *PostgresProductRepo) AdjustStock(ctx context.Context, code string, delta decimal.Decimal) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE product SET stock = stock + $1, updated_at = $2
		WHERE code = $3 AND stock + $1 >= 0
	`, delta, time.Now().UTC(), code)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, code)
	}
	return nil
}
