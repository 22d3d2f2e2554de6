package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"fixmyad/pkg/domain"
)

type feedbackRequest struct {
	UserEmail   string `json:"userEmail"`
	Message     string `json:"message"`
	Personality string `json:"personality"`
	Feedback    string `json:"feedback"`
	Title       string `json:"title"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserEmail == "" || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if req.Feedback != domain.FeedbackThumbsUp && req.Feedback != domain.FeedbackThumbsDown {
		writeError(w, http.StatusBadRequest, "feedback must be thumbs_up or thumbs_down")
		return
	}
	if !s.authorizeAccount(w, r, req.UserEmail) {
		return
	}
	persona, _ := domain.ParsePersonality(req.Personality)
	err := s.store.SaveFeedback(domain.Feedback{
		UserEmail:   req.UserEmail,
		Message:     req.Message,
		Personality: persona,
		Feedback:    req.Feedback,
		Title:       req.Title,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not save feedback")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type waitlistRequest struct {
	Email  string `json:"email"`
	UserID string `json:"userId"`
}

func (s *Server) handleJoinWaitlist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req waitlistRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Missing email")
		return
	}
	if err := s.store.AddWaitlistEntry(strings.TrimSpace(req.Email), req.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, "could not join waitlist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleJoinPublicWaitlist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req waitlistRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Missing email")
		return
	}
	if err := s.store.AddPublicWaitlistEntry(strings.TrimSpace(req.Email)); err != nil {
		writeError(w, http.StatusInternalServerError, "could not join waitlist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
