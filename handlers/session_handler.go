package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"posbilling/billing"
	"posbilling/models"
	"posbilling/repository"
	"posbilling/session"
)

type SessionHandler struct {
	Service *session.Service
	Users   repository.UserRepository
}

// sessionView is a session together with its current totals.
type sessionView struct {
	*session.Session
	Totals *billing.Totals `json:"totals,omitempty"`
}

func view(s *session.Session) sessionView {
	v := sessionView{Session: s}
	if t, err := s.Totals(); err == nil {
		v.Totals = &t
	}
	return v
}

func (h *SessionHandler) writeSession(w http.ResponseWriter, status int, msg string, s *session.Session) {
	writeJSON(w, status, ApiResponse{Success: true, Message: msg, Data: view(s)})
}

type startSessionRequest struct {
	CashierID int64 `json:"cashier_id" validate:"required,gt=0"`
}

// StartSession handler
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if h.Users != nil {
		user, err := h.Users.GetUserByID(r.Context(), req.CashierID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if user == nil {
			writeMessage(w, http.StatusBadRequest, "unknown cashier")
			return
		}
	}

	s, err := h.Service.Start(r.Context(), req.CashierID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSession(w, http.StatusCreated, "Billing session started", s)
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSession(w, http.StatusOK, "", s)
}

func (h *SessionHandler) DiscardSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Billing session discarded")
}

type addItemRequest struct {
	Code     string          `json:"code" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// AddItem scans a product onto the bill
func (h *SessionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.Service.AddProduct(r.Context(), chi.URLParam(r, "id"), req.Code, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSession(w, http.StatusOK, "Item added", s)
}

type setQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

func (h *SessionHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.Service.SetQuantity(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "lineID"), req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSession(w, http.StatusOK, "Quantity updated", s)
}

func (h *SessionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, err := h.Service.RemoveLine(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "lineID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSession(w, http.StatusOK, "Item removed", s)
}

type attachCustomerRequest struct {
	Phone string `json:"phone" validate:"required"`
}

func (h *SessionHandler) AttachCustomer(w http.ResponseWriter, r *http.Request) {
	var req attachCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.Service.AttachCustomer(r.Context(), chi.URLParam(r, "id"), req.Phone)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSession(w, http.StatusOK, "Customer attached", s)
}

func (h *SessionHandler) DetachCustomer(w http.ResponseWriter, r *http.Request) {
	s, err := h.Service.DetachCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSession(w, http.StatusOK, "Customer removed", s)
}

type transportRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *SessionHandler) SetTransport(w http.ResponseWriter, r *http.Request) {
	var req transportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.Service.SetTransportCharge(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSession(w, http.StatusOK, "Transport charge updated", s)
}

func (h *SessionHandler) Totals(w http.ResponseWriter, r *http.Request) {
	t, err := h.Service.Totals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: t})
}

type checkoutRequest struct {
	Mode       models.PaymentMode `json:"mode" validate:"required,oneof=CASH CARD UPI CREDIT"`
	AmountPaid decimal.Decimal    `json:"amount_paid"`
	Reference  *string            `json:"reference"`
}

// Checkout saves the bill and closes the session
func (h *SessionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	bill, err := h.Service.Checkout(r.Context(), chi.URLParam(r, "id"), session.PaymentRequest{
		Mode:       req.Mode,
		AmountPaid: req.AmountPaid,
		Reference:  req.Reference,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ApiResponse{Success: true, Message: "Bill saved", Data: bill})
}
