package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"posbilling/billing"
	"posbilling/invoice"
	"posbilling/repository"
	"posbilling/session"
)

// ApiResponse is the envelope every JSON endpoint answers with.
type ApiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, resp ApiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ApiResponse{Success: status < 400, Message: msg})
}

// decodeJSON reads and validates a request body. It writes the 400 itself and reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var be *billing.Error
	switch {
	case errors.As(err, &be):
		writeJSON(w, http.StatusUnprocessableEntity, ApiResponse{Message: be.Error(), Data: be})
	case billing.KindOf(err) != 0:
		writeMessage(w, http.StatusUnprocessableEntity, err.Error())
	case session.IsNotFound(err), errors.Is(err, repository.ErrBillNotFound), errors.Is(err, invoice.ErrNoShopProfile):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrInsufficientStock), errors.Is(err, repository.ErrEmailTaken):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrEmptyBill), errors.Is(err, session.ErrInvalidPayment):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}
