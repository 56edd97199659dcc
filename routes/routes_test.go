package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posbilling/handlers"
	"posbilling/obs"
	"posbilling/repository"
	"posbilling/session"
	"posbilling/utils"
)

type fakeRenderer struct {
	html []byte
}

func (f *fakeRenderer) PDF(_ context.Context, html []byte) ([]byte, error) {
	f.html = html
	return []byte("%PDF-1.4 fake"), nil
}

type testServer struct {
	t        *testing.T
	handler  http.Handler
	db       *repository.MemoryDB
	renderer *fakeRenderer
	pdfDir   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := repository.NewMemoryDB()
	reg := prometheus.NewRegistry()
	metrics := obs.NewMetrics("pos", reg)
	renderer := &fakeRenderer{}
	files := utils.DiskStore{Dir: t.TempDir()}

	svc := &session.Service{
		Products:  db,
		Customers: db,
		Bills:     db,
		Store:     session.NewMemoryStore(),
		Metrics:   metrics,
		Logger:    zerolog.Nop(),
	}
	h := Handlers{
		User:     &handlers.UserHandler{Repo: db},
		Session:  &handlers.SessionHandler{Service: svc, Users: db},
		Bill:     &handlers.BillHandler{Repo: db, Files: files},
		PDF:      &handlers.PDFHandler{Repo: repository.NewInvoiceRepository(db, db, db, db), Renderer: renderer, Files: files},
		Product:  &handlers.ProductHandler{Repo: db},
		Customer: &handlers.CustomerHandler{Repo: db},
		Initial:  &handlers.InitialHandler{Repo: db},
		Report:   &handlers.ReportHandler{Repo: db},
	}
	return &testServer{
		t:        t,
		handler:  SetupRoutes(h, Options{Logger: zerolog.Nop(), Metrics: metrics, Gatherer: reg}),
		db:       db,
		renderer: renderer,
		pdfDir:   files.Dir,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(method, path string, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (s *testServer) mustDo(method, path string, body interface{}, wantStatus int, into interface{}) {
	s.t.Helper()
	status, env := s.do(method, path, body)
	require.Equal(s.t, wantStatus, status, "%s %s: %s", method, path, env.Message)
	if into != nil {
		require.NoError(s.t, json.Unmarshal(env.Data, into))
	}
}

func (s *testServer) seed() (cashierID int64) {
	var user struct {
		ID int64 `json:"id"`
	}
	s.mustDo(http.MethodPost, "/signup", map[string]string{
		"name": "Counter 1", "email": "c1@shop.test", "password": "secret1", "role": "cashier",
	}, http.StatusCreated, &user)

	s.mustDo(http.MethodPost, "/products", map[string]interface{}{
		"code": "A", "name": "Rice 1kg", "basic_price": "100", "mrp_price": "100", "gst_percent": "18",
		"gst_amount": "9", "sgst_amount": "9", "unit": "pcs", "stock": "5",
	}, http.StatusCreated, nil)
	s.mustDo(http.MethodPost, "/customers", map[string]string{
		"name": "Ravi", "phone": "9800000001",
	}, http.StatusCreated, nil)
	s.mustDo(http.MethodPost, "/initial", map[string]interface{}{
		"shop_name": "Sri Lakshmi Stores", "address": "12 Market Road", "invoice_prefix": "SLS-",
		"contacts": []map[string]string{{"number": "9800011111", "label": "Shop"}},
	}, http.StatusCreated, nil)
	return user.ID
}

type sessionJSON struct {
	ID    string `json:"id"`
	Items  []struct {
		ID       string `json:"id"`
		Quantity string `json:"quantity"`
		Price    string `json:"price"`
	} `json:"items"`
	Totals struct {
		GrandTotal string `json:"grand_total"`
	} `json:"totals"`
}

func TestBillingFlow(t *testing.T) {
	s := newTestServer(t)
	cashier := s.seed()

	var sess sessionJSON
	s.mustDo(http.MethodPost, "/sessions", map[string]int64{"cashier_id": cashier}, http.StatusCreated, &sess)
	base := "/sessions/" + sess.ID

	s.mustDo(http.MethodPost, base+"/items", map[string]string{"code": "A", "quantity": "1"}, http.StatusOK, nil)
	s.mustDo(http.MethodPost, base+"/items", map[string]string{"code": "A", "quantity": "1"}, http.StatusOK, &sess)
	require.Len(t, sess.Items, 1)
	assert.Equal(t, "2", sess.Items[0].Quantity)

	s.mustDo(http.MethodPut, base+"/transport", map[string]string{"amount": "20"}, http.StatusOK, nil)
	status, env := s.do(http.MethodPut, base+"/transport", map[string]string{"amount": "-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(env.Data), `"kind":"InvalidCharge"`)

	s.mustDo(http.MethodPut, base+"/customer", map[string]string{"phone": "9800000001"}, http.StatusOK, &sess)
	assert.Equal(t, "256", sess.Totals.GrandTotal)

	var bill struct {
		ID     int64 `json:"id"`
		BillNo int64 `json:"bill_no"`
		Totals struct {
			GrandTotal string `json:"grand_total"`
		} `json:"totals"`
		Payment struct {
			BalanceDue string `json:"balance_due"`
		} `json:"payment"`
	}
	s.mustDo(http.MethodPost, base+"/checkout", map[string]string{"mode": "CASH", "amount_paid": "250"}, http.StatusCreated, &bill)
	assert.Equal(t, "256", bill.Totals.GrandTotal)
	assert.Equal(t, "6", bill.Payment.BalanceDue)

	status, _ = s.do(http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, status)

	var customer struct {
		OutstandingCredit string `json:"outstanding_credit"`
	}
	s.mustDo(http.MethodGet, "/customers/9800000001", nil, http.StatusOK, &customer)
	assert.Equal(t, "6", customer.OutstandingCredit)

	var pdf struct {
		File string `json:"file"`
	}
	s.mustDo(http.MethodGet, fmt.Sprintf("/bills/%d/pdf", bill.ID), nil, http.StatusOK, &pdf)
	assert.True(t, strings.HasPrefix(pdf.File, s.pdfDir))
	assert.Contains(t, string(s.renderer.html), "SLS-1")
	assert.Contains(t, string(s.renderer.html), "Shop Copy")

	stored, err := s.db.GetBillByID(context.Background(), bill.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PdfPath)
	assert.Equal(t, pdf.File, *stored.PdfPath)

	var report struct {
		BillCount    int    `json:"bill_count"`
		CurrentTotal string `json:"current_total"`
		CreditAdded  string `json:"credit_added"`
	}
	today := time.Now().UTC().Format("2006-01-02")
	s.mustDo(http.MethodGet, "/reports/sales?from="+today+"&to="+today, nil, http.StatusOK, &report)
	assert.Equal(t, 1, report.BillCount)
	assert.Equal(t, "256", report.CurrentTotal)
	assert.Equal(t, "6", report.CreditAdded)

	s.mustDo(http.MethodDelete, fmt.Sprintf("/bills/%d", bill.ID), nil, http.StatusOK, nil)
	_, err = os.Stat(pdf.File)
	assert.True(t, os.IsNotExist(err))

	var product struct {
		Stock string `json:"stock"`
	}
	s.mustDo(http.MethodGet, "/products/A", nil, http.StatusOK, &product)
	assert.Equal(t, "5", product.Stock)
}

func TestStockAndValidationErrors(t *testing.T) {
	s := newTestServer(t)
	cashier := s.seed()

	status, _ := s.do(http.MethodPost, "/sessions", map[string]int64{"cashier_id": 999})
	assert.Equal(t, http.StatusBadRequest, status)

	var sess sessionJSON
	s.mustDo(http.MethodPost, "/sessions", map[string]int64{"cashier_id": cashier}, http.StatusCreated, &sess)
	base := "/sessions/" + sess.ID

	status, _ = s.do(http.MethodPost, base+"/items", map[string]string{"code": "A", "quantity": "6"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(http.MethodPost, base+"/items", map[string]string{"code": "NOPE", "quantity": "1"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(http.MethodPost, base+"/items", map[string]string{"quantity": "1"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(http.MethodPost, base+"/checkout", map[string]string{"mode": "CASH", "amount_paid": "0"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(http.MethodPost, base+"/checkout", map[string]string{"mode": "BARTER", "amount_paid": "0"})
	assert.Equal(t, http.StatusBadRequest, status)

	s.mustDo(http.MethodDelete, base, nil, http.StatusOK, nil)
	status, _ = s.do(http.MethodGet, base+"/totals", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(http.MethodPost, "/signup", map[string]string{
		"name": "Counter 1", "email": "c1@shop.test", "password": "secret1", "role": "cashier",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(http.MethodPost, "/login", map[string]string{"email": "c1@shop.test", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	s.mustDo(http.MethodPost, "/login", map[string]string{"email": "c1@shop.test", "password": "secret1"}, http.StatusOK, nil)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	s.mustDo(http.MethodGet, "/healthz", nil, http.StatusOK, nil)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pos_http_requests_total")
}
