package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"fixmyad/pkg/domain"
)

const defaultSessionListLimit = 50

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListSessions(w, r)
	case http.MethodPost:
		s.handleSaveSession(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "Missing email")
		return
	}
	if !s.authorizeAccount(w, r, email) {
		return
	}
	limit := defaultSessionListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	sessions, err := s.store.ListSessionsByAccount(email, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": sessions,
		"count": len(sessions),
	})
}

type saveSessionRequest struct {
	UserEmail   string           `json:"userEmail"`
	Personality string           `json:"personality"`
	Title       string           `json:"title"`
	Messages    []domain.Message `json:"messages"`
	ProjectID   string           `json:"projectId"`
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	var req saveSessionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserEmail == "" || len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !s.authorizeAccount(w, r, req.UserEmail) {
		return
	}
	persona, _ := domain.ParsePersonality(req.Personality)
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled"
	}
	sess := domain.Session{
		ID:          uuid.NewString(),
		UserEmail:   req.UserEmail,
		Personality: persona,
		Title:       title,
		Messages:    req.Messages,
		ProjectID:   req.ProjectID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.SaveSession(sess); err != nil {
		writeError(w, http.StatusInternalServerError, "could not save session")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	// Handle /api/sessions/{id}/project
	if len(parts) == 2 && parts[1] == "project" {
		s.handleAssignProject(w, r, id)
		return
	}
	if len(parts) == 2 {
		http.NotFound(w, r)
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

	switch r.Method {
	case http.MethodGet:
		sess, ok, err := s.store.GetSession(id, email)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not load session")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeJSON(w, http.StatusOK, sess)
	case http.MethodDelete:
		ok, err := s.store.DeleteSession(id, email)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not delete session")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		methodNotAllowed(w)
	}
}

type assignProjectRequest struct {
	UserEmail string `json:"userEmail"`
	ProjectID string `json:"projectId"`
}

func (s *Server) handleAssignProject(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req assignProjectRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserEmail == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !s.authorizeAccount(w, r, req.UserEmail) {
		return
	}
	ok, err := s.store.AssignSessionProject(sessionID, req.UserEmail, req.ProjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not assign project")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		email := strings.TrimSpace(r.URL.Query().Get("email"))
		if email == "" {
			writeError(w, http.StatusBadRequest, "Missing email")
			return
		}
		if !s.authorizeAccount(w, r, email) {
			return
		}
		projects, err := s.store.ListProjectsByAccount(email)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not list projects")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": projects,
			"count": len(projects),
		})
	case http.MethodPost:
		var req struct {
			UserEmail string `json:"userEmail"`
			Name      string `json:"name"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.UserEmail == "" || strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "Missing required fields")
			return
		}
		if !s.authorizeAccount(w, r, req.UserEmail) {
			return
		}
		project := domain.Project{
			ID:        uuid.NewString(),
			UserEmail: req.UserEmail,
			Name:      strings.TrimSpace(req.Name),
			CreatedAt: time.Now().UTC(),
		}
		if err := s.store.SaveProject(project); err != nil {
			writeError(w, http.StatusInternalServerError, "could not save project")
			return
		}
		writeJSON(w, http.StatusCreated, project)
	default:
		methodNotAllowed(w)
	}
}

type profileRequest struct {
	UserEmail string `json:"userEmail"`
	Platform  string `json:"platform"`
	AdType    string `json:"adType"`
	Tone      string `json:"tone"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		email := strings.TrimSpace(r.URL.Query().Get("email"))
		if email == "" {
			writeError(w, http.StatusBadRequest, "Missing email")
			return
		}
		if !s.authorizeAccount(w, r, email) {
			return
		}
		writeJSON(w, http.StatusOK, s.app.ResolveProfile(r.Context(), email))
	case http.MethodPost:
		var req profileRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.UserEmail == "" {
			writeError(w, http.StatusBadRequest, "Missing required fields")
			return
		}
		if !s.authorizeAccount(w, r, req.UserEmail) {
			return
		}
		now := time.Now().UTC()
		prof := domain.Profile{
			UserEmail: req.UserEmail,
			Platform:  strings.TrimSpace(req.Platform),
			AdType:    strings.TrimSpace(req.AdType),
			Tone:      strings.TrimSpace(req.Tone),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.store.UpsertProfile(prof); err != nil {
			writeError(w, http.StatusInternalServerError, "could not save profile")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		methodNotAllowed(w)
	}
}
