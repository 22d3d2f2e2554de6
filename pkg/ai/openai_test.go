package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateTextReturnsFirstChoice(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		var req oaiChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %#v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  the critique  "}},
				{"message": map[string]string{"role": "assistant", "content": "ignored"}},
			},
		})
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(srv.URL, "secret", "gpt-4o")
	got, err := gen.GenerateText(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "the critique" {
		t.Fatalf("unexpected text: %q", got)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
}

func TestGenerateTextEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(srv.URL, "", "gpt-4o")
	if _, err := gen.GenerateText(context.Background(), "", "user prompt"); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestGenerateTextUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "model overloaded"},
		})
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(srv.URL, "", "gpt-4o")
	_, err := gen.GenerateText(context.Background(), "", "user prompt")
	if err == nil {
		t.Fatal("expected upstream error")
	}
}

func TestSynthesizeLowercasesVoice(t *testing.T) {
	var gotReq speechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	client := NewSpeechClient(srv.URL, "secret", "tts-1")
	audio, err := client.Synthesize(context.Background(), "hello", "Nova", 1)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if len(audio) == 0 {
		t.Fatal("expected audio bytes")
	}
	if gotReq.Voice != "nova" {
		t.Fatalf("expected lower-cased voice, got %q", gotReq.Voice)
	}
	if gotReq.ResponseFormat != "mp3" {
		t.Fatalf("expected mp3 response format, got %q", gotReq.ResponseFormat)
	}
}

func TestSynthesizeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad voice", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewSpeechClient(srv.URL, "", "")
	if _, err := client.Synthesize(context.Background(), "hello", "nova", 1); err == nil {
		t.Fatal("expected error on upstream failure")
	}
}
