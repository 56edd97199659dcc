package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"posbilling/models"
)

// MemoryDB keeps every record in process memory. It backs DB_TYPE=memory and the tests,
// and implements all of the repository interfaces.
type MemoryDB struct {
	mu        sync.Mutex
	seq       map[string]int64
	bills     map[int64]models.Bill
	products  map[string]models.Product
	customers map[int64]models.Customer
	users     map[int64]models.AppUser
	shop      *models.ShopProfile
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		seq:       map[string]int64{},
		bills:     map[int64]models.Bill{},
		products:  map[string]models.Product{},
		customers: map[int64]models.Customer{},
		users:     map[int64]models.AppUser{},
	}
}

func (m *MemoryDB) next(name string) int64 {
	m.seq[name]++
	return m.seq[name]
}

// ------------------------ Bills ------------------------

func (m *MemoryDB) CreateBill(_ context.Context, bill *models.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if bill.CashierID == 0 {
		return fmt.Errorf("cashier_id cannot be empty")
	}
	for _, it := range bill.Items {
		p, ok := m.products[it.Code]
		if !ok || p.Stock.LessThan(it.Quantity) {
			return fmt.Errorf("%w: %s", ErrInsufficientStock, it.Code)
		}
	}
	if bill.CustomerID != nil {
		if _, ok := m.customers[*bill.CustomerID]; !ok {
			return fmt.Errorf("customer %d not found", *bill.CustomerID)
		}
	}

	for _, it := range bill.Items {
		p := m.products[it.Code]
		p.Stock = p.Stock.Sub(it.Quantity)
		p.UpdatedAt = time.Now().UTC()
		m.products[it.Code] = p
	}
	if bill.CustomerID != nil {
		c := m.customers[*bill.CustomerID]
		c.OutstandingCredit = c.OutstandingCredit.Add(bill.CreditChange())
		m.customers[c.ID] = c
	}

	bill.ID = m.next("bill")
	bill.BillNo = bill.ID
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now().UTC()
	}
	stored := *bill
	stored.Items = append(stored.Items[:0:0], bill.Items...)
	stored.Customer, stored.Cashier = nil, nil
	m.bills[bill.ID] = stored
	return nil
}

func (m *MemoryDB) populate(b models.Bill) *models.Bill {
	if b.CustomerID != nil {
		if c, ok := m.customers[*b.CustomerID]; ok {
			b.Customer = &c
		}
	}
	if u, ok := m.users[b.CashierID]; ok {
		u.Password = ""
		b.Cashier = &u
	}
	return &b
}

func (m *MemoryDB) GetBills(_ context.Context, f models.BillFilter) ([]*models.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Bill
	for _, b := range m.bills {
		if !f.From.IsZero() && b.BillDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !b.BillDate.Before(f.To) {
			continue
		}
		if f.CustomerID != nil && (b.CustomerID == nil || *b.CustomerID != *f.CustomerID) {
			continue
		}
		if f.PaymentMode != "" && b.Payment.Mode != f.PaymentMode {
			continue
		}
		out = append(out, m.populate(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BillDate.Equal(out[j].BillDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].BillDate.After(out[j].BillDate)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryDB) GetBillByID(_ context.Context, id int64) (*models.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok {
		return nil, nil
	}
	return m.populate(b), nil
}

func (m *MemoryDB) UpdatePDFInfo(_ context.Context, id int64, path string, createdAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok {
		return ErrBillNotFound
	}
	b.PdfPath, b.PdfCreatedAt = &path, &createdAt
	m.bills[id] = b
	return nil
}

func (m *MemoryDB) DeleteBill(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok {
		return ErrBillNotFound
	}
	for _, it := range b.Items {
		if p, ok := m.products[it.Code]; ok {
			p.Stock = p.Stock.Add(it.Quantity)
			m.products[it.Code] = p
		}
	}
	delete(m.bills, id)
	return nil
}

// ------------------------ Products ------------------------

func (m *MemoryDB) GetProductByCode(_ context.Context, code string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[code]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryDB) SearchProducts(_ context.Context, query string, limit int) ([]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	var out []*models.Product
	for _, p := range m.products {
		if strings.HasPrefix(strings.ToLower(p.Code), q) || strings.HasPrefix(strings.ToLower(p.Name), q) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryDB) SaveProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.products[p.Code]; ok {
		p.ID = existing.ID
	} else {
		p.ID = m.next("product")
	}
	p.UpdatedAt = time.Now().UTC()
	m.products[p.Code] = *p
	return nil
}

func (m *MemoryDB) AdjustStock(_ context.Context, code string, delta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[code]
	if !ok || p.Stock.Add(delta).IsNegative() {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, code)
	}
	p.Stock = p.Stock.Add(delta)
	p.UpdatedAt = time.Now().UTC()
	m.products[code] = p
	return nil
}

// ------------------------ Customers ------------------------

func (m *MemoryDB) GetCustomerByPhone(_ context.Context, phone string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	phone = strings.TrimSpace(phone)
	for _, c := range m.customers {
		if c.Phone == phone {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MemoryDB) GetCustomerByID(_ context.Context, id int64) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MemoryDB) SaveCustomer(_ context.Context, c *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.customers {
		if existing.Phone == c.Phone {
			c.ID = existing.ID
			c.CreatedAt = existing.CreatedAt
			c.OutstandingCredit = existing.OutstandingCredit
			m.customers[c.ID] = *c
			return nil
		}
	}
	c.ID = m.next("customer")
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.customers[c.ID] = *c
	return nil
}

func (m *MemoryDB) ListCustomers(_ context.Context, query string, limit int) ([]*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	var out []*models.Customer
	for _, c := range m.customers {
		if strings.HasPrefix(strings.ToLower(c.Name), q) || strings.HasPrefix(c.Phone, q) {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ------------------------ Shop & users ------------------------

func (m *MemoryDB) SaveShop(_ context.Context, shop *models.ShopProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if shop.ID == 0 {
		shop.ID = m.next("shop")
	}
	if shop.CreatedAt.IsZero() {
		shop.CreatedAt = time.Now().UTC()
	}
	s := *shop
	m.shop = &s
	return nil
}

func (m *MemoryDB) GetShop(_ context.Context) (*models.ShopProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shop == nil {
		return nil, nil
	}
	s := *m.shop
	return &s, nil
}

func (m *MemoryDB) CreateUser(_ context.Context, user *models.AppUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrEmailTaken
		}
	}
	if err := hashPassword(user); err != nil {
		return err
	}
	user.ID = m.next("user")
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryDB) GetUserByEmail(_ context.Context, email string) (*models.AppUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *MemoryDB) GetUserByID(_ context.Context, id int64) (*models.AppUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

var (
	_ BillRepository     = (*MemoryDB)(nil)
	_ ProductRepository  = (*MemoryDB)(nil)
	_ CustomerRepository = (*MemoryDB)(nil)
	_ ShopRepository     = (*MemoryDB)(nil)
	_ UserRepository     = (*MemoryDB)(nil)

	_ BillRepository     = (*PostgresBillRepo)(nil)
	_ ProductRepository  = (*PostgresProductRepo)(nil)
	_ CustomerRepository = (*PostgresCustomerRepo)(nil)
	_ ShopRepository     = (*PostgresShopRepo)(nil)
	_ UserRepository     = (*PostgresUserRepo)(nil)

	_ BillRepository     = (*MongoBillRepo)(nil)
	_ ProductRepository  = (*MongoProductRepo)(nil)
	_ CustomerRepository = (*MongoCustomerRepo)(nil)
	_ ShopRepository     = (*MongoShopRepo)(nil)
	_ UserRepository     = (*MongoUserRepo)(nil)
)
