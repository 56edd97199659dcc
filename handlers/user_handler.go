package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"posbilling/models"
	"posbilling/repository"
)

type UserHandler struct {
	Repo repository.UserRepository
}

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=cashier admin"`
	Counter  string `json:"counter"`
}

// Signup handler
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := models.AppUser{
		Name:     req.Name,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Role:     req.Role,
		Counter:  req.Counter,
		Password: req.Password,
	}
	if err := h.Repo.CreateUser(r.Context(), &user); err != nil {
		writeError(w, r, err)
		return
	}

	user.Password = "" // hide password

	writeJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "User signed up successfully",
		Data:    user,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handler
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds loginRequest
	if !decodeJSON(w, r, &creds) {
		return
	}

	user, err := h.Repo.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(creds.Email)))
	if err != nil || user == nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	user.Password = "" // hide password hash

	writeJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Login successful",
		Data:    user,
	})
}
