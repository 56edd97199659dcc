package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posbilling/billing"
	"posbilling/models"
	"posbilling/obs"
	"posbilling/repository"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Equal(t, want, got.StringFixed(2))
}

type fixture struct {
	svc *Service
	db  *repository.MemoryDB
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := repository.NewMemoryDB()

	require.NoError(t, db.CreateUser(ctx, &models.AppUser{Name: "Counter 1", Email: "c1@shop.test", Password: "secret"}))
	require.NoError(t, db.SaveProduct(ctx, &models.Product{
		Code: "A", Name: "Rice 1kg", BasicPrice: d("100"), MRPPrice: d("100"),
		GSTPercent: d("18"), GSTAmount: d("9"), SGSTAmount: d("9"), Unit: "pcs", Stock: d("5"),
	}))
	require.NoError(t, db.SaveProduct(ctx, &models.Product{
		Code: "B", Name: "Sugar 1kg", BasicPrice: d("40"), MRPPrice: d("40"), Unit: "pcs", Stock: d("10"),
	}))
	require.NoError(t, db.SaveCustomer(ctx, &models.Customer{Name: "Ravi", Phone: "9800000001", OutstandingCredit: d("50")}))

	fixed := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	svc := &Service{
		Products:  db,
		Customers: db,
		Bills:     db,
		Store:     NewMemoryStore(),
		Metrics:   obs.NewMetrics("test", prometheus.NewRegistry()),
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return fixed },
	}
	return fixture{svc: svc, db: db}
}

func TestCheckoutWorkedExample(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, sess.ID, "A", d("1"))
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, sess.ID, "A", d("1"))
	require.NoError(t, err)
	_, err = f.svc.SetTransportCharge(ctx, sess.ID, d("20"))
	require.NoError(t, err)
	sess, err = f.svc.AttachCustomer(ctx, sess.ID, "9800000001")
	require.NoError(t, err)
	require.Len(t, sess.Items, 1)

	totals, err := f.svc.Totals(ctx, sess.ID)
	require.NoError(t, err)
	requireAmount(t, "200.00", totals.Subtotal)
	requireAmount(t, "36.00", totals.TaxTotal)
	requireAmount(t, "256.00", totals.CurrentBillTotal)
	requireAmount(t, "306.00", totals.GrandTotal)

	bill, err := f.svc.Checkout(ctx, sess.ID, PaymentRequest{Mode: models.PaymentCash, AmountPaid: d("300")})
	require.NoError(t, err)
	assert.NotZero(t, bill.BillNo)
	requireAmount(t, "6.00", bill.Payment.BalanceDue)
	requireAmount(t, "0.00", bill.Payment.ChangeReturned)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.Metrics.BillsTotal.WithLabelValues("CASH")))

	p, err := f.db.GetProductByCode(ctx, "A")
	require.NoError(t, err)
	assert.True(t, p.Stock.Equal(d("3")))

	c, err := f.db.GetCustomerByPhone(ctx, "9800000001")
	require.NoError(t, err)
	requireAmount(t, "6.00", c.OutstandingCredit)

	_, err = f.svc.Get(ctx, sess.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCheckoutOverpaymentGivesChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, sess.ID, "B", d("2"))
	require.NoError(t, err)

	bill, err := f.svc.Checkout(ctx, sess.ID, PaymentRequest{Mode: models.PaymentUPI, AmountPaid: d("100")})
	require.NoError(t, err)
	assert.Nil(t, bill.CustomerID)
	requireAmount(t, "80.00", bill.Totals.GrandTotal)
	requireAmount(t, "0.00", bill.Payment.BalanceDue)
	requireAmount(t, "20.00", bill.Payment.ChangeReturned)
}

func TestAddProductStockCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, sess.ID, "A", d("4"))
	require.NoError(t, err)

	_, err = f.svc.AddProduct(ctx, sess.ID, "A", d("2"))
	require.ErrorIs(t, err, repository.ErrInsufficientStock)

	sess, err = f.svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, sess.Items, 1)
	assert.True(t, sess.Items[0].Quantity.Equal(d("4")))

	_, err = f.svc.AddProduct(ctx, sess.ID, "ZZZ", d("1"))
	require.ErrorIs(t, err, ErrProductNotFound)
	assert.True(t, IsNotFound(err))
}

func TestAddProductRejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, sess.ID, "A", d("0"))
	require.ErrorIs(t, err, billing.ErrInvalidQuantity)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.Metrics.CalcErrorsTotal.WithLabelValues("InvalidQuantity")))
}

func TestSetQuantityRechecksStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)
	sess, err = f.svc.AddProduct(ctx, sess.ID, "B", d("1"))
	require.NoError(t, err)
	lineID := sess.Items[0].ID

	sess, err = f.svc.SetQuantity(ctx, sess.ID, lineID, d("10"))
	require.NoError(t, err)
	requireAmount(t, "400.00", sess.Items[0].Price)

	_, err = f.svc.SetQuantity(ctx, sess.ID, lineID, d("11"))
	require.ErrorIs(t, err, repository.ErrInsufficientStock)

	_, err = f.svc.SetQuantity(ctx, sess.ID, "missing", d("1"))
	require.ErrorIs(t, err, ErrLineNotFound)

	sess, err = f.svc.RemoveLine(ctx, sess.ID, lineID)
	require.NoError(t, err)
	assert.Empty(t, sess.Items)

	_, err = f.svc.RemoveLine(ctx, sess.ID, lineID)
	require.ErrorIs(t, err, ErrLineNotFound)
}

func TestNegativeTransportLeavesSessionUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)
	_, err = f.svc.SetTransportCharge(ctx, sess.ID, d("15"))
	require.NoError(t, err)

	_, err = f.svc.SetTransportCharge(ctx, sess.ID, d("-5"))
	require.ErrorIs(t, err, billing.ErrInvalidCharge)

	sess, err = f.svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	requireAmount(t, "15.00", sess.TransportCharge)
}

func TestAttachAndDetachCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)

	_, err = f.svc.AttachCustomer(ctx, sess.ID, "0000")
	require.ErrorIs(t, err, ErrCustomerNotFound)

	sess, err = f.svc.AttachCustomer(ctx, sess.ID, "9800000001")
	require.NoError(t, err)
	requireAmount(t, "50.00", sess.PreviousCredit)

	sess, err = f.svc.DetachCustomer(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, sess.Customer)
	assert.True(t, sess.PreviousCredit.IsZero())
}

func TestCheckoutValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, sess.ID, PaymentRequest{Mode: models.PaymentCash})
	require.ErrorIs(t, err, ErrEmptyBill)

	_, err = f.svc.AddProduct(ctx, sess.ID, "B", d("1"))
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, sess.ID, PaymentRequest{Mode: models.PaymentCash, AmountPaid: d("-1")})
	require.ErrorIs(t, err, ErrInvalidPayment)

	_, err = f.svc.Checkout(ctx, sess.ID, PaymentRequest{Mode: "CHEQUE", AmountPaid: d("40")})
	require.ErrorIs(t, err, ErrInvalidPayment)

	_, err = f.svc.Checkout(ctx, sess.ID, PaymentRequest{Mode: models.PaymentCredit})
	require.ErrorIs(t, err, ErrInvalidPayment)

	_, err = f.svc.Get(ctx, sess.ID)
	require.NoError(t, err)
}

type failingBills struct {
	repository.BillRepository
}

func (failingBills) CreateBill(context.Context, *models.Bill) error {
	return errors.New("connection reset")
}

func TestCheckoutFailureKeepsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.Bills = failingBills{f.db}

	sess, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, sess.ID, "A", d("2"))
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, sess.ID, PaymentRequest{Mode: models.PaymentCash, AmountPaid: d("236")})
	require.Error(t, err)

	kept, err := f.svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, kept.Items, 1)

	p, err := f.db.GetProductByCode(ctx, "A")
	require.NoError(t, err)
	assert.True(t, p.Stock.Equal(d("5")))

	f.svc.Bills = f.db
	bill, err := f.svc.Checkout(ctx, sess.ID, PaymentRequest{Mode: models.PaymentCash, AmountPaid: d("236")})
	require.NoError(t, err)
	requireAmount(t, "236.00", bill.Totals.GrandTotal)
}

func TestDiscard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.Metrics.ActiveSessions))

	require.NoError(t, f.svc.Discard(ctx, sess.ID))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.svc.Metrics.ActiveSessions))
	require.ErrorIs(t, f.svc.Discard(ctx, sess.ID), ErrSessionNotFound)
}

func TestConcurrentAddsMergeIntoOneLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddProduct(ctx, sess.ID, "B", d("1"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sess, err = f.svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, sess.Items, 1)
	assert.True(t, sess.Items[0].Quantity.Equal(d("10")))
}

func TestSettle(t *testing.T) {
	p, err := Settle(d("306"), PaymentRequest{Mode: models.PaymentCard, AmountPaid: d("306.004")})
	require.NoError(t, err)
	requireAmount(t, "306.00", p.AmountPaid)
	assert.True(t, p.BalanceDue.IsZero())
	assert.True(t, p.ChangeReturned.IsZero())
}

func TestConcurrentCreditBillsForOneCustomerBothCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 2; i++ {
		sess, err := f.svc.Start(ctx, 1)
		require.NoError(t, err)
		_, err = f.svc.AddProduct(ctx, sess.ID, "B", d("1"))
		require.NoError(t, err)
		sess, err = f.svc.AttachCustomer(ctx, sess.ID, "9800000001")
		require.NoError(t, err)
		requireAmount(t, "50.00", sess.PreviousCredit)
		ids = append(ids, sess.ID)
	}

	for _, id := range ids {
		bill, err := f.svc.Checkout(ctx, id, PaymentRequest{Mode: models.PaymentCredit, AmountPaid: d("0")})
		require.NoError(t, err)
		requireAmount(t, "90.00", bill.Payment.BalanceDue)
	}

	c, err := f.db.GetCustomerByPhone(ctx, "9800000001")
	require.NoError(t, err)
	requireAmount(t, "130.00", c.OutstandingCredit)
}

func TestSessionLocksAreReleased(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	held := func() int {
		f.svc.mu.Lock()
		defer f.svc.mu.Unlock()
		return len(f.svc.locks)
	}

	for i := 0; i < 1000; i++ {
		_, err := f.svc.SetTransportCharge(ctx, uuid.NewString(), d("5"))
		require.ErrorIs(t, err, ErrSessionNotFound)
	}
	assert.Zero(t, held())

	sess, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.SetTransportCharge(ctx, sess.ID, d("5"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Zero(t, held())

	require.NoError(t, f.svc.Discard(ctx, sess.ID))
	assert.Zero(t, held())
}
