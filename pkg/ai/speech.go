package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SpeechClient calls an OpenAI-compatible /v1/audio/speech endpoint and
// returns raw mp3 bytes.
type SpeechClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewSpeechClient builds a speech-synthesis client.
func NewSpeechClient(baseURL, apiKey, model string) *SpeechClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(model) == "" {
		model = "tts-1"
	}
	return &SpeechClient{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		model:   strings.TrimSpace(model),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	Speed          float64 `json:"speed,omitempty"`
	ResponseFormat string  `json:"response_format"`
}

// Synthesize renders text to mp3 audio. The provider only accepts
// lower-case voice names, so voice is normalized before forwarding.
func (c *SpeechClient) Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	voice = strings.ToLower(strings.TrimSpace(voice))
	if voice == "" {
		voice = "nova"
	}
	body, err := json.Marshal(speechRequest{
		Model:          c.model,
		Input:          text,
		Voice:          voice,
		Speed:          speed,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/audio/speech"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("speech api error: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("speech read: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio from speech api")
	}
	return audio, nil
}
