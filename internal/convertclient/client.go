// Package convertclient calls the external video/GIF conversion service
// that derives a transcript, duration, and preview from an uploaded ad.
package convertclient

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

// Client calls the conversion service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a conversion service error response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs a conversion service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Result holds the fields derived from one uploaded ad.
type Result struct {
	Transcript string  `json:"transcript"`
	Duration   float64 `json:"duration"`
	GifURL     string  `json:"gifUrl"`
}

type convertRequest struct {
	SourceURL string `json:"sourceUrl"`
	FileName  string `json:"fileName"`
	Kind      string `json:"kind"`
}

// Convert submits one uploaded ad (by presigned source URL) for conversion.
// Single attempt; failures surface to the caller unretried.
func (c *Client) Convert(ctx context.Context, sourceURL, fileName, kind string) (Result, error) {
	body, err := json.Marshal(convertRequest{
		SourceURL: sourceURL,
		FileName:  fileName,
		Kind:      kind,
	})
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/convert", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("convert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := strings.TrimSpace(string(detail))
		if msg == "" {
			msg = resp.Status
		}
		return Result{}, &APIError{Status: resp.StatusCode, Message: msg}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("convert decode: %w", err)
	}
	return result, nil
}
