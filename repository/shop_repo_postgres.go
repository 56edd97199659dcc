package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"posbilling/models"
)

type PostgresShopRepo struct {
	DB *sql.DB
}

func NewPostgresShopRepo(db *sql.DB) *PostgresShopRepo {
	return &PostgresShopRepo{DB: db}
}

// SaveShop inserts or updates the shop profile
func (r *PostgresShopRepo) SaveShop(ctx context.Context, shop *models.ShopProfile) error {
	if shop.CreatedAt.IsZero() {
		shop.CreatedAt = time.Now().UTC()
	}

	contactsJSON, err := json.Marshal(shop.Contacts)
	if err != nil {
		return err
	}

	// If ID is passed → UPDATE, else INSERT
	if shop.ID > 0 {
		_, err = r.DB.ExecContext(ctx, `
			UPDATE shop_profile
			SET shop_name=$1, gstin=$2, address=$3, city=$4, state=$5,
				pincode=$6, contacts=$7, footnote=$8, invoice_prefix=$9
			WHERE id=$10
		`, shop.ShopName, shop.GSTIN, shop.Address, shop.City, shop.State,
			shop.Pincode, contactsJSON, shop.Footnote, shop.InvoicePrefix, shop.ID)
		return err
	}

	return r.DB.QueryRowContext(ctx, `
		INSERT INTO shop_profile
		(shop_name, gstin, address, city, state, pincode, contacts, footnote, invoice_prefix, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`, shop.ShopName, shop.GSTIN, shop.Address, shop.City, shop.State,
		shop.Pincode, contactsJSON, shop.Footnote, shop.InvoicePrefix, shop.CreatedAt).Scan(&shop.ID)
}

// GetShop fetches the latest shop profile
func (r *PostgresShopRepo) GetShop(ctx context.Context) (*models.ShopProfile, error) {
	shop := &models.ShopProfile{}
	var contactsJSON []byte

	err := r.DB.QueryRowContext(ctx, `
		SELECT id, shop_name, address, city, state, pincode, gstin, footnote, invoice_prefix, contacts, created_at
		FROM shop_profile
		ORDER BY id DESC LIMIT 1
	`).Scan(&shop.ID, &shop.ShopName, &shop.Address, &shop.City, &shop.State,
		&shop.Pincode, &shop.GSTIN, &shop.Footnote, &shop.InvoicePrefix, &contactsJSON, &shop.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	// Decode JSONB to Go slice
	if len(contactsJSON) > 0 {
		if err := json.Unmarshal(contactsJSON, &shop.Contacts); err != nil {
			return nil, err
		}
	}

	return shop, nil
}
