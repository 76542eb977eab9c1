package handlers

import (
	"errors"
	"net/http"

	"github.com/trailbliss/trailbliss-api/internal/domain"
	"github.com/trailbliss/trailbliss-api/pkg/logger"
)

type LoginResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Role    domain.Role `json:"role"`
	Token   string      `json:"token"`
}

type VerificationRequest struct {
	Email string `json:"email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.Credentials
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "Registration failed")
		return
	}

	account, err := h.accounts.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, "Registration failed")
		return
	}

	logger.InfoContext(r.Context(), "Account registered", "email", account.Email, "role", account.Role)
	writeSuccess(w, "Registration successful! Please login.")
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.Credentials
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "Login failed")
		return
	}

	res, err := h.accounts.Authenticate(r.Context(), &req)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusBadRequest, "User not found")
		return
	}
	if err != nil {
		writeServiceError(w, r, err, "Login failed")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		Message: "Login successful",
		Role:    res.Role,
		Token:   res.Token,
	})
}

func (h *Handlers) SendVerification(w http.ResponseWriter, r *http.Request) {
	var req VerificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "Could not send email.")
		return
	}

	if err := h.verification.IssueChallenge(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err, "Could not send email.")
		return
	}
	writeSuccess(w, "Code sent")
}

func (h *Handlers) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or Expired Code")
		return
	}

	if err := h.verification.VerifyChallenge(r.Context(), req.Email, req.Code); err != nil {
		writeServiceError(w, r, err, "Verification failed")
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
