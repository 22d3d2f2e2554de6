package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"fixmyad/internal/util"
	"fixmyad/pkg/billing"
)

// Webhook payloads are small; cap reads defensively.
const maxWebhookBody = 256 << 10

type checkoutRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.billing == nil {
		writeError(w, http.StatusInternalServerError, "billing not configured")
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Missing email")
		return
	}
	url, err := s.billing.CreateCheckoutSession(req.Email)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("checkout session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create checkout session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.billing == nil {
		writeError(w, http.StatusInternalServerError, "billing not configured")
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read payload")
		return
	}
	sub, ok, err := s.billing.ParseCompletedCheckout(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, billing.ErrBadSignature) || errors.Is(err, billing.ErrMissingEmail) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}
	if ok {
		if err := s.store.UpsertSubscription(sub); err != nil {
			util.LoggerFromContext(r.Context()).Error("subscription upsert failed", "error", err, "email", sub.UserEmail)
			writeError(w, http.StatusInternalServerError, "could not record subscription")
			return
		}
		util.LoggerFromContext(r.Context()).Info("subscription activated", "email", sub.UserEmail)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (s *Server) handleAccess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "Missing email")
		return
	}
	if !s.authorizeAccount(w, r, email) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"pro": s.app.IsPro(r.Context(), email)})
}
