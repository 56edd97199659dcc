package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"posbilling/billing"
	"posbilling/models"
	"posbilling/obs"
	"posbilling/repository"
)

// Service runs the counter workflow: lines are added to an open session, the
// customer and transport charge are attached, and checkout persists the bill.
type Service struct {
	Products  repository.ProductRepository
	Customers repository.CustomerRepository
	Bills     repository.BillRepository
	Store     Store
	Metrics   *obs.Metrics
	Logger    zerolog.Logger
	Now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// lock serialises mutations of one session within this process. The entry is
// dropped once no caller holds or waits on it.
func (s *Service) lock(id string) func() {
	s.mu.Lock()
	if s.locks == nil {
		s.locks = map[string]*sessionLock{}
	}
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// Start opens an empty bill for the cashier.
func (s *Service) Start(ctx context.Context, cashierID int64) (*Session, error) {
	now := s.now()
	sess := &Session{
		ID:              uuid.NewString(),
		CashierID:       cashierID,
		Items:           []billing.LineItem{},
		TransportCharge: decimal.Zero,
		PreviousCredit:  decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.Metrics.SessionOpened()
	return sess, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.Store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// update loads the session, applies fn and saves the result. When fn fails nothing is saved.
func (s *Service) update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		s.countBillingError(err)
		return nil, err
	}
	sess.UpdatedAt = s.now()
	if err := s.Store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

func (s *Service) countBillingError(err error) {
	if kind := billing.KindOf(err); kind != 0 {
		s.Metrics.BillingError(kind.String())
	}
}

func (s *Service) product(ctx context.Context, code string) (*models.Product, error) {
	p, err := s.Products.GetProductByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, code)
	}
	return p, nil
}

func checkStock(p *models.Product, want decimal.Decimal) error {
	if want.GreaterThan(p.Stock) {
		return fmt.Errorf("%w: %s has %s, bill needs %s", repository.ErrInsufficientStock, p.Code, p.Stock, want)
	}
	return nil
}

// AddProduct puts quantity of the product on the bill, merging with an existing line of the same code.
func (s *Service) AddProduct(ctx context.Context, id, code string, quantity decimal.Decimal) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		p, err := s.product(ctx, code)
		if err != nil {
			return err
		}
		if quantity.IsPositive() {
			if err := checkStock(p, sess.quantityOf(code).Add(quantity)); err != nil {
				return err
			}
		}
		items, err := billing.MergeOrAppend(sess.Items, p.LineItem(quantity))
		if err != nil {
			return err
		}
		sess.Items = items
		return nil
	})
}

func (s *Service) RemoveLine(ctx context.Context, id, lineID string) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		items, ok := billing.RemoveLine(sess.Items, lineID)
		if !ok {
			return ErrLineNotFound
		}
		sess.Items = items
		return nil
	})
}

// SetQuantity changes the quantity of one line. The new quantity is checked against stock again.
func (s *Service) SetQuantity(ctx context.Context, id, lineID string, quantity decimal.Decimal) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		items, ok, err := billing.SetQuantity(sess.Items, lineID, quantity)
		if err != nil {
			return err
		}
		if !ok {
			return ErrLineNotFound
		}
		for _, it := range items {
			if it.ID != lineID {
				continue
			}
			p, err := s.product(ctx, it.Code)
			if err != nil {
				return err
			}
			if err := checkStock(p, quantity); err != nil {
				return err
			}
		}
		sess.Items = items
		return nil
	})
}

// AttachCustomer links the session to a customer; their outstanding credit is carried into the bill.
func (s *Service) AttachCustomer(ctx context.Context, id, phone string) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		c, err := s.Customers.GetCustomerByPhone(ctx, phone)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("%w: %s", ErrCustomerNotFound, phone)
		}
		if c.OutstandingCredit.IsNegative() {
			return &billing.Error{Kind: billing.InvalidCharge, Field: "previous_outstanding_credit", Value: c.OutstandingCredit.String()}
		}
		sess.Customer = c
		sess.PreviousCredit = c.OutstandingCredit
		return nil
	})
}

// DetachCustomer turns the session back into a walk-in bill.
func (s *Service) DetachCustomer(ctx context.Context, id string) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		sess.Customer = nil
		sess.PreviousCredit = decimal.Zero
		return nil
	})
}

func (s *Service) SetTransportCharge(ctx context.Context, id string, amount decimal.Decimal) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		if amount.IsNegative() {
			return &billing.Error{Kind: billing.InvalidCharge, Field: "transport_charge", Value: amount.String()}
		}
		sess.TransportCharge = amount
		return nil
	})
}

func (s *Service) Totals(ctx context.Context, id string) (billing.Totals, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return billing.Totals{}, err
	}
	t, err := sess.Totals()
	if err != nil {
		s.countBillingError(err)
	}
	return t, err
}

// Checkout saves the bill and closes the session. If saving fails the session is kept as it was.
func (s *Service) Checkout(ctx context.Context, id string, req PaymentRequest) (*models.Bill, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(sess.Items) == 0 {
		return nil, ErrEmptyBill
	}
	totals, err := sess.Totals()
	if err != nil {
		s.countBillingError(err)
		return nil, err
	}
	payment, err := Settle(totals.GrandTotal, req)
	if err != nil {
		return nil, err
	}
	if payment.Mode == models.PaymentCredit && payment.BalanceDue.IsPositive() && sess.Customer == nil {
		return nil, fmt.Errorf("%w: credit needs a customer", ErrInvalidPayment)
	}

	now := s.now()
	bill := &models.Bill{
		CashierID: sess.CashierID,
		BillDate:  now,
		Items:     append([]billing.LineItem(nil), sess.Items...),
		Totals:    totals,
		Payment:   payment,
		CreatedAt: now,
	}
	if sess.Customer != nil {
		cid := sess.Customer.ID
		bill.CustomerID = &cid
	}

	if err := s.Bills.CreateBill(ctx, bill); err != nil {
		s.Logger.Error().Err(err).Str("session_id", id).Msg("checkout failed")
		return nil, fmt.Errorf("save bill: %w", err)
	}

	if err := s.Store.Delete(ctx, id); err != nil {
		s.Logger.Warn().Err(err).Str("session_id", id).Int64("bill_no", bill.BillNo).Msg("session not removed after checkout")
	}
	s.Metrics.SessionClosed()
	s.Metrics.ObserveBill(string(payment.Mode), totals.GrandTotal)
	s.Logger.Info().Int64("bill_no", bill.BillNo).Str("grand_total", totals.GrandTotal.StringFixed(2)).Msg("bill saved")
	return bill, nil
}

// Discard drops an open session without saving a bill.
func (s *Service) Discard(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.Metrics.SessionClosed()
	return nil
}

// IsNotFound reports errors that mean the addressed session, line, product or customer is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrLineNotFound) ||
		errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrCustomerNotFound)
}
