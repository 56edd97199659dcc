package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"posbilling/billing"
	"posbilling/models"
)

type PostgresBillRepo struct {
	DB *sql.DB
}

func NewPostgresBillRepo(db *sql.DB) *PostgresBillRepo {
	return &PostgresBillRepo{DB: db}
}

// ------------------------ Helper Functions ------------------------

// Take sold quantities out of stock, refusing to go below zero
func (r *PostgresBillRepo) decrementStock(ctx context.Context, tx *sql.Tx, items []billing.LineItem) error {
	for _, it := range items {
		res, err := tx.ExecContext(ctx, `
			UPDATE product SET stock = stock - $1, updated_at = $2
			WHERE code = $3 AND stock >= $1
		`, it.Quantity, time.Now().UTC(), it.Code)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrInsufficientStock, it.Code)
		}
	}
	return nil
}

// Insert bill lines
func (r *PostgresBillRepo) insertItems(ctx context.Context, tx *sql.Tx, billID int64, items []billing.LineItem) error {
	for _, it := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bill_item(bill_id,line_id,code,name,basic_price,mrp_price,gst_amount,sgst_amount,
				gst_percent,discount,quantity,unit,price)
			VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		`, billID, it.ID, it.Code, it.Name, it.BasicPrice, it.MRPPrice, it.GSTAmount, it.SGSTAmount,
			it.GSTPercent, it.Discount, it.Quantity, it.Unit, it.Price)
		if err != nil {
			return err
		}
	}
	return nil
}

// Insert bill header
func (r *PostgresBillRepo) insertBillMain(ctx context.Context, tx *sql.Tx, b *models.Bill) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	t := b.Totals
	return tx.QueryRowContext(ctx, `
		INSERT INTO bill(
			customer_id,cashier_id,bill_date,
			subtotal,gst_total,sgst_total,tax_total,transport_charge,previous_credit,current_total,grand_total,
			payment_mode,amount_paid,balance_due,change_returned,payment_reference,created_at
		)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING id,bill_no
	`,
		b.CustomerID, b.CashierID, b.BillDate,
		t.Subtotal, t.GSTTotal, t.SGSTTotal, t.TaxTotal, t.TransportCharge, t.PreviousOutstandingCredit,
		t.CurrentBillTotal, t.GrandTotal,
		string(b.Payment.Mode), b.Payment.AmountPaid, b.Payment.BalanceDue, b.Payment.ChangeReturned,
		b.Payment.Reference, b.CreatedAt,
	).Scan(&b.ID, &b.BillNo)
}

// ------------------------ Create Bill ------------------------

func (r *PostgresBillRepo) CreateBill(ctx context.Context, bill *models.Bill) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if bill.CashierID == 0 {
		return fmt.Errorf("cashier_id cannot be empty")
	}

	if err := r.decrementStock(ctx, tx, bill.Items); err != nil {
		return err
	}
	if err := r.insertBillMain(ctx, tx, bill); err != nil {
		return err
	}
	if err := r.insertItems(ctx, tx, bill.ID, bill.Items); err != nil {
		return err
	}

	if bill.CustomerID != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE customer SET outstanding_credit = outstanding_credit + $1 WHERE id = $2`,
			bill.CreditChange(), *bill.CustomerID,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ------------------------ GetBills ------------------------

const billSelect = `
	SELECT
		b.id, b.bill_no, b.customer_id, b.cashier_id, b.bill_date,
		b.subtotal, b.gst_total, b.sgst_total, b.tax_total, b.transport_charge, b.previous_credit,
		b.current_total, b.grand_total,
		b.payment_mode, b.amount_paid, b.balance_due, b.change_returned, b.payment_reference,
		b.created_at, b.pdf_created_at, b.pdf_path,

		-- Customer
		c.id, c.name, c.phone, c.gstin, c.address,
		-- Cashier
		u.id, u.name, u.email, u.role
	FROM bill b
	LEFT JOIN customer c ON b.customer_id = c.id
	LEFT JOIN app_user u ON b.cashier_id = u.id
`

func (r *PostgresBillRepo) GetBills(ctx context.Context, filter models.BillFilter) ([]*models.Bill, error) {
	query := billSelect
	args := []interface{}{}
	where := []string{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if !filter.From.IsZero() {
		add("b.bill_date >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("b.bill_date < $%d", filter.To)
	}
	if filter.CustomerID != nil {
		add("b.customer_id = $%d", *filter.CustomerID)
	}
	if filter.PaymentMode != "" {
		add("b.payment_mode = $%d", string(filter.PaymentMode))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY b.bill_date DESC, b.id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	return r.queryBills(ctx, query, args...)
}

func (r *PostgresBillRepo) GetBillByID(ctx context.Context, id int64) (*models.Bill, error) {
	list, err := r.queryBills(ctx, billSelect+" WHERE b.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (r *PostgresBillRepo) queryBills(ctx context.Context, query string, args ...interface{}) ([]*models.Bill, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.Bill
	for rows.Next() {
		var b models.Bill
		var mode string
		var custID, userID sql.NullInt64
		var custName, custPhone, custGSTIN, custAddress sql.NullString
		var userName, userEmail, userRole sql.NullString

		err := rows.Scan(
			&b.ID, &b.BillNo, &b.CustomerID, &b.CashierID, &b.BillDate,
			&b.Totals.Subtotal, &b.Totals.GSTTotal, &b.Totals.SGSTTotal, &b.Totals.TaxTotal,
			&b.Totals.TransportCharge, &b.Totals.PreviousOutstandingCredit,
			&b.Totals.CurrentBillTotal, &b.Totals.GrandTotal,
			&mode, &b.Payment.AmountPaid, &b.Payment.BalanceDue, &b.Payment.ChangeReturned, &b.Payment.Reference,
			&b.CreatedAt, &b.PdfCreatedAt, &b.PdfPath,

			&custID, &custName, &custPhone, &custGSTIN, &custAddress,
			&userID, &userName, &userEmail, &userRole,
		)
		if err != nil {
			return nil, err
		}
		b.Payment.Mode = models.PaymentMode(mode)

		if custID.Valid {
			b.Customer = &models.Customer{ID: custID.Int64, Name: custName.String, Phone: custPhone.String, Address: custAddress.String}
			if custGSTIN.Valid {
				b.Customer.GSTIN = &custGSTIN.String
			}
		}
		if userID.Valid {
			b.Cashier = &models.AppUser{ID: userID.Int64, Name: userName.String, Email: userEmail.String, Role: userRole.String}
		}

		result = append(result, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Load all lines in one go (to avoid N+1)
func (r *PostgresBillRepo) loadItems(ctx context.Context, bills []*models.Bill) error {
	if len(bills) == 0 {
		return nil
	}
	ids := make([]interface{}, len(bills))
	idStrs := make([]string, len(bills))
	byID := make(map[int64]*models.Bill, len(bills))
	for i, b := range bills {
		ids[i] = b.ID
		idStrs[i] = fmt.Sprintf("$%d", i+1)
		byID[b.ID] = b
	}
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT bill_id, line_id, code, name, basic_price, mrp_price, gst_amount, sgst_amount,
			gst_percent, discount, quantity, unit, price
		FROM bill_item
		WHERE bill_id IN (%s)
		ORDER BY id
	`, strings.Join(idStrs, ",")), ids...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var billID int64
		var it billing.LineItem
		if err := rows.Scan(&billID, &it.ID, &it.Code, &it.Name, &it.BasicPrice, &it.MRPPrice,
			&it.GSTAmount, &it.SGSTAmount, &it.GSTPercent, &it.Discount, &it.Quantity, &it.Unit, &it.Price); err != nil {
			return err
		}
		if b, ok := byID[billID]; ok {
			b.Items = append(b.Items, it)
		}
	}
	return rows.Err()
}

// ------------------------ PDF Helpers ------------------------

func (r *PostgresBillRepo) UpdatePDFInfo(ctx context.Context, id int64, path string, createdAt time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE bill
		SET pdf_path = $1, pdf_created_at = $2
		WHERE id = $3
	`, path, createdAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBillNotFound
	}
	return nil
}

// ------------------------ Delete Bill ------------------------

// DeleteBill voids a bill: its lines go back into stock before the rows are removed.
// The customer's outstanding credit is left as is.
func (r *PostgresBillRepo) DeleteBill(ctx context.Context, id int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE product p SET stock = p.stock + i.quantity, updated_at = $2
		FROM bill_item i
		WHERE i.bill_id = $1 AND i.code = p.code
	`, id, time.Now().UTC()); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bill_item WHERE bill_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM bill WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBillNotFound
	}

	return tx.Commit()
}
