package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"fixmyad/internal/app"
	"fixmyad/internal/util"
	"fixmyad/pkg/domain"
)

const maxJSONBody = 1 << 20

type adPayload struct {
	Transcript string  `json:"transcript"`
	FileType   string  `json:"fileType"`
	Duration   float64 `json:"duration"`
	PreviewURL string  `json:"previewUrl"`
}

func (a adPayload) meta() domain.AdMeta {
	return domain.AdMeta{
		Transcript:      a.Transcript,
		FileType:        a.FileType,
		DurationSeconds: a.Duration,
		PreviewURL:      a.PreviewURL,
	}
}

type critiqueRequest struct {
	UserEmail   string  `json:"userEmail"`
	Personality string  `json:"personality"`
	AssetID     string  `json:"assetId"`
	Transcript  string  `json:"transcript"`
	FileType    string  `json:"fileType"`
	Duration    float64 `json:"duration"`
	PreviewURL  string  `json:"previewUrl"`
	FileName    string  `json:"fileName"`
	ProjectID   string  `json:"projectId"`

	// follow-up fields
	SessionID string `json:"sessionId"`
	Question  string `json:"question"`
	Prompt    string `json:"prompt"`
}

type critiqueResponse struct {
	Result    string   `json:"result"`
	RedFlags  []string `json:"redFlags,omitempty"`
	SessionID string   `json:"sessionId,omitempty"`
}

func (s *Server) handleCritique(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req critiqueRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	persona, _ := domain.ParsePersonality(req.Personality)

	// A prompt or question marks a follow-up against an existing session.
	if req.Prompt != "" || req.Question != "" {
		if req.UserEmail == "" || req.SessionID == "" {
			writeError(w, http.StatusBadRequest, "Missing required fields")
			return
		}
		res, err := s.app.FollowUp(r.Context(), app.FollowUpInput{
			UserEmail:   req.UserEmail,
			SessionID:   req.SessionID,
			Personality: persona,
			Question:    req.Question,
			RawPrompt:   req.Prompt,
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, critiqueResponse{Result: res.Result, SessionID: res.SessionID})
		return
	}

	// Transcript and the other ad fields are optional here: the composer
	// degrades missing fields to placeholders, and the profile alone is
	// enough context for a first critique.
	if req.UserEmail == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	ad := domain.AdMeta{
		Transcript:      req.Transcript,
		FileType:        req.FileType,
		DurationSeconds: req.Duration,
		PreviewURL:      req.PreviewURL,
	}
	fileName := req.FileName
	if req.AssetID != "" {
		asset, ok, err := s.store.GetAsset(req.AssetID, req.UserEmail)
		if err != nil {
			util.LoggerFromContext(r.Context()).Error("asset lookup failed", "error", err, "asset_id", req.AssetID)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "asset not found")
			return
		}
		ad = mergeAssetMeta(ad, asset)
		if fileName == "" {
			fileName = asset.FileName
		}
	}
	res, err := s.app.Critique(r.Context(), app.CritiqueInput{
		UserEmail:   req.UserEmail,
		Personality: persona,
		Ad:          ad,
		ProjectID:   req.ProjectID,
		FileName:    fileName,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, critiqueResponse{
		Result:    res.Result,
		RedFlags:  res.RedFlags,
		SessionID: res.SessionID,
	})
}

// mergeAssetMeta fills ad fields the client left empty from the stored
// upload record. Explicit request fields win over the record.
func mergeAssetMeta(ad domain.AdMeta, asset domain.Asset) domain.AdMeta {
	if strings.TrimSpace(ad.Transcript) == "" {
		ad.Transcript = asset.Transcript
	}
	if strings.TrimSpace(ad.FileType) == "" {
		ad.FileType = string(asset.Kind)
	}
	if ad.DurationSeconds <= 0 {
		ad.DurationSeconds = asset.DurationSeconds
	}
	if strings.TrimSpace(ad.PreviewURL) == "" {
		ad.PreviewURL = asset.PreviewURL
	}
	return ad
}

func (s *Server) handleRevisedCritique(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req critiqueRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserEmail == "" || strings.TrimSpace(req.Transcript) == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	persona, _ := domain.ParsePersonality(req.Personality)
	res, err := s.app.RevisedCritique(r.Context(), app.CritiqueInput{
		UserEmail:   req.UserEmail,
		Personality: persona,
		Ad: domain.AdMeta{
			Transcript:      req.Transcript,
			FileType:        req.FileType,
			DurationSeconds: req.Duration,
			PreviewURL:      req.PreviewURL,
		},
		ProjectID: req.ProjectID,
		FileName:  req.FileName,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, critiqueResponse{Result: res.Result, SessionID: res.SessionID})
}

type compareRequest struct {
	UserEmail   string     `json:"userEmail"`
	Personality string     `json:"personality"`
	Original    *adPayload `json:"original"`
	Revised     *adPayload `json:"revised"`
}

func (s *Server) handleABCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req compareRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// Both descriptors must be present; their fields may be empty, the
	// composer substitutes placeholders.
	if req.UserEmail == "" || req.Original == nil || req.Revised == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	persona, _ := domain.ParsePersonality(req.Personality)
	res, err := s.app.ABCompare(r.Context(), app.CompareInput{
		UserEmail:   req.UserEmail,
		Personality: persona,
		Original:    req.Original.meta(),
		Revised:     req.Revised.meta(),
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, critiqueResponse{Result: res.Result, SessionID: res.SessionID})
}

type predictRequest struct {
	UserEmail  string  `json:"userEmail"`
	Transcript string  `json:"transcript"`
	Platform   string  `json:"platform"`
	AdType     string  `json:"adType"`
	Tone       string  `json:"tone"`
	Duration   float64 `json:"duration"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req predictRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserEmail == "" || strings.TrimSpace(req.Transcript) == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	result, err := s.app.Predict(r.Context(), app.PredictInput{
		UserEmail: req.UserEmail,
		Platform:  req.Platform,
		AdType:    req.AdType,
		Tone:      req.Tone,
		Ad: domain.AdMeta{
			Transcript:      req.Transcript,
			DurationSeconds: req.Duration,
		},
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}
