package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"posbilling/models"
	"posbilling/repository"
	"posbilling/utils"
)

type BillHandler struct {
	Repo  repository.BillRepository
	Files utils.FileStore
}

const dateLayout = "2006-01-02"

// parseBillFilter reads from/to (YYYY-MM-DD, to inclusive), customer_id, payment_mode and limit.
func parseBillFilter(r *http.Request) (models.BillFilter, error) {
	q := r.URL.Query()
	var f models.BillFilter
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, err
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, err
		}
		f.To = t.AddDate(0, 0, 1)
	}
	if v := q.Get("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, err
		}
		f.CustomerID = &id
	}
	if v := q.Get("payment_mode"); v != "" {
		f.PaymentMode = models.PaymentMode(strings.ToUpper(v))
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, err
		}
		f.Limit = n
	}
	return f, nil
}

// GetBills handler
func (h *BillHandler) GetBills(w http.ResponseWriter, r *http.Request) {
	filter, err := parseBillFilter(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid filter: "+err.Error())
		return
	}
	list, err := h.Repo.GetBills(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Bill{}
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: list})
}

// GetBillByID handler
func (h *BillHandler) GetBillByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bill, err := h.Repo.GetBillByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if bill == nil {
		writeMessage(w, http.StatusNotFound, "Bill not found")
		return
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: bill})
}

// DeleteBill cancels a bill, returns its stock and removes its stored PDF
func (h *BillHandler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bill, err := h.Repo.GetBillByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if bill == nil {
		writeMessage(w, http.StatusNotFound, "Bill not found")
		return
	}
	if err := h.Repo.DeleteBill(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if bill.PdfPath != nil && h.Files != nil {
		if err := h.Files.Delete(r.Context(), *bill.PdfPath); err != nil {
			log.Warn().Err(err).Int64("bill_id", id).Msg("failed to delete bill pdf")
		}
	}
	writeMessage(w, http.StatusOK, "Bill deleted successfully")
}
