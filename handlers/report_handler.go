package handlers

import (
	"net/http"

	"posbilling/reports"
	"posbilling/repository"
)

type ReportHandler struct {
	Repo repository.BillRepository
}

// SalesReport summarises bills in the requested date range
func (h *ReportHandler) SalesReport(w http.ResponseWriter, r *http.Request) {
	filter, err := parseBillFilter(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid filter: "+err.Error())
		return
	}
	filter.Limit = 0

	bills, err := h.Repo.GetBills(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: reports.Summarize(bills, filter.From, filter.To)})
}
