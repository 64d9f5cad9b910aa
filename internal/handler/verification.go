package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloxstake-trading-api/internal/service"
	"bloxstake-trading-api/pkg/apierror"
	"bloxstake-trading-api/pkg/response"
)

// VerificationHandler exposes the link-and-prove flow to the bot frontend.
type VerificationHandler struct {
	verification *service.VerificationService
}

// NewVerificationHandler creates a new verification handler.
func NewVerificationHandler(verification *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

// StartRequest is the body for POST /api/v1/verify/start.
type StartRequest struct {
	DiscordID string `json:"discord_id"`
	Username  string `json:"username"`
}

// Start handles POST /api/v1/verify/start - issues a verification code the
// user must place in their Roblox bio.
func (h *VerificationHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	result, err := h.verification.Start(r.Context(), req.DiscordID, req.Username)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, result)
}

// CheckRequest is the body for POST /api/v1/verify/check.
type CheckRequest struct {
	DiscordID string `json:"discord_id"`
}

// Check handles POST /api/v1/verify/check - re-reads the bio and finalizes
// the binding when the code is present.
func (h *VerificationHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	binding, err := h.verification.Check(r.Context(), req.DiscordID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, binding)
}

// Account handles GET /api/v1/verify/{discord_id} - returns the verified
// account summary.
func (h *VerificationHandler) Account(w http.ResponseWriter, r *http.Request) {
	discordID := chi.URLParam(r, "discord_id")
	if discordID == "" {
		response.Error(w, apierror.BadRequest("discord_id is required"))
		return
	}

	info, err := h.verification.Account(r.Context(), discordID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, info)
}
