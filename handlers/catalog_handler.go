package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"posbilling/billing"
	"posbilling/models"
	"posbilling/repository"
)

func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return 50
	}
	return n
}

// ------------------------ Products ------------------------

type ProductHandler struct {
	Repo repository.ProductRepository
}

type productRequest struct {
	Code       string          `json:"code" validate:"required"`
	Name       string          `json:"name" validate:"required"`
	BasicPrice decimal.Decimal `json:"basic_price"`
	MRPPrice   decimal.Decimal `json:"mrp_price"`
	GSTPercent decimal.Decimal `json:"gst_percent"`
	GSTAmount  decimal.Decimal `json:"gst_amount"`
	SGSTAmount decimal.Decimal `json:"sgst_amount"`
	Discount   decimal.Decimal `json:"discount"`
	Unit       string          `json:"unit" validate:"required"`
	Stock      decimal.Decimal `json:"stock"`
}

func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.SearchProducts(r.Context(), r.URL.Query().Get("q"), queryLimit(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Product{}
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: list})
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Repo.GetProductByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if p == nil {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: p})
}

// SaveProduct creates or updates a product by code
func (h *ProductHandler) SaveProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p := &models.Product{
		Code:       req.Code,
		Name:       req.Name,
		BasicPrice: req.BasicPrice,
		MRPPrice:   req.MRPPrice,
		GSTPercent: req.GSTPercent,
		GSTAmount:  req.GSTAmount,
		SGSTAmount: req.SGSTAmount,
		Discount:   req.Discount,
		Unit:       req.Unit,
		Stock:      req.Stock,
	}
	// a product must be sellable as a one-unit line
	if err := billing.Validate([]billing.LineItem{p.LineItem(decimal.NewFromInt(1))}); err != nil {
		writeError(w, r, err)
		return
	}
	if p.Stock.IsNegative() {
		writeMessage(w, http.StatusBadRequest, "stock cannot be negative")
		return
	}
	if err := h.Repo.SaveProduct(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ApiResponse{Success: true, Message: "Product saved", Data: p})
}

// ------------------------ Customers ------------------------

type CustomerHandler struct {
	Repo repository.CustomerRepository
}

type customerRequest struct {
	Name    string  `json:"name" validate:"required"`
	Phone   string  `json:"phone" validate:"required,numeric,min=6,max=15"`
	GSTIN   *string `json:"gstin" validate:"omitempty,len=15"`
	Address string  `json:"address"`
}

func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.ListCustomers(r.Context(), r.URL.Query().Get("q"), queryLimit(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Customer{}
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: list})
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.Repo.GetCustomerByPhone(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if c == nil {
		writeMessage(w, http.StatusNotFound, "Customer not found")
		return
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: c})
}

// SaveCustomer creates or updates a customer by phone. Outstanding credit is only changed by checkout.
func (h *CustomerHandler) SaveCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c := &models.Customer{
		Name:              req.Name,
		Phone:             req.Phone,
		GSTIN:             req.GSTIN,
		Address:           req.Address,
		OutstandingCredit: decimal.Zero,
	}
	if err := h.Repo.SaveCustomer(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ApiResponse{Success: true, Message: "Customer saved", Data: c})
}
