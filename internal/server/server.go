// Package server exposes the HTTP API: critique flows, speech synthesis,
// billing, uploads, and session management.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"fixmyad/internal/app"
	"fixmyad/internal/convertclient"
	"fixmyad/internal/identity"
	"fixmyad/internal/util"
	"fixmyad/pkg/ai"
	"fixmyad/pkg/billing"
	"fixmyad/pkg/storage"
	"fixmyad/pkg/store"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App               *app.App
	Store             store.Store
	Speech            *ai.SpeechClient
	Billing           *billing.Client
	Objects           storage.ObjectStore
	Convert           *convertclient.Client
	TokenVerifier     *identity.Verifier
	TrustedProxies    *util.TrustedProxies
	MaxUploadBytes    int64
	AllowedExtensions []string
	FreeMaxAdSeconds  float64
	ProMaxAdSeconds   float64
}

// Server exposes HTTP endpoints for the backend.
type Server struct {
	app               *app.App
	store             store.Store
	speech            *ai.SpeechClient
	billing           *billing.Client
	objects           storage.ObjectStore
	convert           *convertclient.Client
	tokenVerifier     *identity.Verifier
	trustedProxies    *util.TrustedProxies
	mux               *http.ServeMux
	maxUploadBytes    int64
	allowedExtensions map[string]struct{}
	freeMaxAdSeconds  float64
	proMaxAdSeconds   float64
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:               cfg.App,
		store:             cfg.Store,
		speech:            cfg.Speech,
		billing:           cfg.Billing,
		objects:           cfg.Objects,
		convert:           cfg.Convert,
		tokenVerifier:     cfg.TokenVerifier,
		trustedProxies:    cfg.TrustedProxies,
		mux:               http.NewServeMux(),
		maxUploadBytes:    normalizeMaxBytes(cfg.MaxUploadBytes),
		allowedExtensions: normalizeExtensions(cfg.AllowedExtensions),
		freeMaxAdSeconds:  cfg.FreeMaxAdSeconds,
		proMaxAdSeconds:   cfg.ProMaxAdSeconds,
	}
	if s.freeMaxAdSeconds <= 0 {
		s.freeMaxAdSeconds = 30
	}
	if s.proMaxAdSeconds <= 0 {
		s.proMaxAdSeconds = 60
	}
	s.routes()
	return s
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(s.trustedProxies, util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// critique family
	s.mux.HandleFunc("/api/critique", s.handleCritique)
	s.mux.HandleFunc("/api/revised-critique", s.handleRevisedCritique)
	s.mux.HandleFunc("/api/ab-compare", s.handleABCompare)
	s.mux.HandleFunc("/api/performance-predict", s.handlePredict)
	s.mux.HandleFunc("/api/tts", s.handleTTS)

	// billing
	s.mux.HandleFunc("/api/create-checkout-session", s.handleCreateCheckoutSession)
	s.mux.HandleFunc("/api/stripe/webhook", s.handleStripeWebhook)
	s.mux.HandleFunc("/api/access", s.handleAccess)

	// uploads
	s.mux.HandleFunc("/api/convert", s.handleConvert)

	// session/project management
	s.mux.HandleFunc("/api/sessions", s.handleSessions)
	s.mux.HandleFunc("/api/sessions/", s.handleSessionByID)
	s.mux.HandleFunc("/api/projects", s.handleProjects)
	s.mux.HandleFunc("/api/profile", s.handleProfile)

	// feedback + waitlists
	s.mux.HandleFunc("/api/feedback", s.handleFeedback)
	s.mux.HandleFunc("/api/join-waitlist", s.handleJoinWaitlist)
	s.mux.HandleFunc("/api/join-public-waitlist", s.handleJoinPublicWaitlist)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authorizeAccount checks the bearer token's email claim against the account
// being operated on. With no verifier configured the check is skipped.
func (s *Server) authorizeAccount(w http.ResponseWriter, r *http.Request, email string) bool {
	if s.tokenVerifier == nil {
		return true
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	claimEmail, err := s.tokenVerifier.VerifyEmail(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	if !strings.EqualFold(claimEmail, email) {
		writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps application sentinels to HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrPersonalityLocked):
		writeError(w, http.StatusForbidden, "This personality requires an active subscription")
	case errors.Is(err, app.ErrFollowupLimit):
		writeError(w, http.StatusTooManyRequests, "Follow-up limit reached. Upgrade to ask more questions.")
	case errors.Is(err, app.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, app.ErrUpstream):
		writeError(w, http.StatusInternalServerError, "Something went wrong")
	default:
		writeError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func normalizeMaxBytes(value int64) int64 {
	if value <= 0 {
		return 64 << 20
	}
	return value
}

func normalizeExtensions(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = []string{".mp4", ".gif"}
	}
	out := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = struct{}{}
	}
	return out
}
