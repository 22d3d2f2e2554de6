package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

type ttsRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.speech == nil {
		writeError(w, http.StatusInternalServerError, "speech client not configured")
		return
	}
	var req ttsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Missing text")
		return
	}
	audio, err := s.speech.Synthesize(r.Context(), req.Text, req.Voice, req.Speed)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "speech synthesis failed")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}
