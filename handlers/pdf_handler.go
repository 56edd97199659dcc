package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"posbilling/invoice"
	"posbilling/repository"
	"posbilling/utils"
)

type PDFHandler struct {
	Repo     *repository.InvoiceRepository
	Renderer invoice.PDFRenderer
	Files    utils.FileStore
	Now      func() time.Time
}

func (h *PDFHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

// BillPDF generates the invoice PDF for a bill, stores it and records where it went.
// With ?download=true the PDF itself is returned.
func (h *PDFHandler) BillPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()

	bill, err := h.Repo.GetBillForInvoice(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if bill == nil {
		writeMessage(w, http.StatusNotFound, "Bill not found")
		return
	}
	shop, err := h.Repo.GetShopForInvoice(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data, err := invoice.BuildData(shop, bill)
	if err != nil {
		writeError(w, r, err)
		return
	}
	html, err := invoice.HTML(data, invoice.CopyTitles)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pdfBytes, err := h.Renderer.PDF(ctx, html)
	if err != nil {
		writeError(w, r, fmt.Errorf("failed to generate PDF: %w", err))
		return
	}

	createdAt := h.now()
	filename := fmt.Sprintf("bill_%d_%d.pdf", bill.BillNo, createdAt.Unix())
	location, err := h.Files.Put(ctx, filename, pdfBytes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Repo.BillRepo.UpdatePDFInfo(ctx, id, location, createdAt); err != nil {
		// the file is stored; the bill just won't point at it
		log.Error().Err(err).Int64("bill_id", id).Msg("failed to update pdf info")
	}

	if r.URL.Query().Get("download") == "true" {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pdfBytes)
		return
	}
	writeJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Invoice generated",
		Data:    map[string]string{"file": location},
	})
}
