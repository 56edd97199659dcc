package handlers

import (
	"net/http"

	"posbilling/models"
	"posbilling/repository"
)

// InitialHandler serves the shop profile printed on invoices.
type InitialHandler struct {
	Repo repository.ShopRepository
}

type shopRequest struct {
	ShopName      string                 `json:"shop_name" validate:"required"`
	Address       string                 `json:"address" validate:"required"`
	City          string                 `json:"city"`
	State         string                 `json:"state"`
	Pincode       string                 `json:"pincode" validate:"omitempty,numeric,len=6"`
	GSTIN         string                 `json:"gstin" validate:"omitempty,len=15"`
	InvoicePrefix string                 `json:"invoice_prefix"`
	Footnote      string                 `json:"footnote"`
	Contacts      []models.ContactNumber `json:"contacts" validate:"dive"`
}

func (h *InitialHandler) SaveInitial(w http.ResponseWriter, r *http.Request) {
	var req shopRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	shop := &models.ShopProfile{
		ShopName:      req.ShopName,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		Pincode:       req.Pincode,
		GSTIN:         req.GSTIN,
		InvoicePrefix: req.InvoicePrefix,
		Footnote:      req.Footnote,
		Contacts:      req.Contacts,
	}
	if shop.Contacts == nil {
		shop.Contacts = []models.ContactNumber{}
	}
	if err := h.Repo.SaveShop(r.Context(), shop); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ApiResponse{Success: true, Message: "Shop profile saved", Data: shop})
}

func (h *InitialHandler) GetInitial(w http.ResponseWriter, r *http.Request) {
	shop, err := h.Repo.GetShop(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if shop == nil {
		writeMessage(w, http.StatusNotFound, "Initial details not found")
		return
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: shop})
}
