package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"fixmyad/internal/convertclient"
	"fixmyad/pkg/domain"
)

// fakeObjectStore keeps uploads in memory and presigns fake URLs.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.test/" + key, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func newConvertUpstream(t *testing.T, duration float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/convert" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			SourceURL string `json:"sourceUrl"`
			FileName  string `json:"fileName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SourceURL == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"transcript": "spoken words",
			"duration":   duration,
			"gifUrl":     "https://cdn.test/preview.gif",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func multipartUpload(t *testing.T, url, email, fileName string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("email", email); err != nil {
		t.Fatalf("write field: %v", err)
	}
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	mw.Close()

	resp, err := http.Post(url+"/api/convert", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post convert: %v", err)
	}
	return resp
}

func TestConvertHappyPath(t *testing.T) {
	objects := newFakeObjectStore()
	upstream := newConvertUpstream(t, 12)
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Objects = objects
		cfg.Convert = convertclient.NewClient(upstream.URL)
	})

	resp := multipartUpload(t, env.srv.URL, "u@x.com", "ad.mp4", []byte("video-bytes"))
	var body convertResponse
	decodeJSON(t, resp, &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body.AssetID == "" || body.Transcript != "spoken words" || body.Duration != 12 {
		t.Fatalf("body = %+v", body)
	}
	if objects.count() != 1 {
		t.Fatalf("stored objects = %d, want 1", objects.count())
	}

	asset, ok, _ := env.st.GetAsset(body.AssetID, "u@x.com")
	if !ok || asset.Kind != domain.MediaVideo || asset.Transcript != "spoken words" {
		t.Fatalf("asset = %+v ok=%v", asset, ok)
	}
}

func TestConvertRejectsUnsupportedExtension(t *testing.T) {
	objects := newFakeObjectStore()
	upstream := newConvertUpstream(t, 10)
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Objects = objects
		cfg.Convert = convertclient.NewClient(upstream.URL)
	})
	resp := multipartUpload(t, env.srv.URL, "u@x.com", "ad.exe", []byte("nope"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if objects.count() != 0 {
		t.Fatal("rejected upload must not be stored")
	}
}

func TestConvertEnforcesDurationTier(t *testing.T) {
	objects := newFakeObjectStore()
	upstream := newConvertUpstream(t, 45)
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Objects = objects
		cfg.Convert = convertclient.NewClient(upstream.URL)
	})

	// 45s exceeds the 30s free cap; the upload is cleaned up.
	resp := multipartUpload(t, env.srv.URL, "free@x.com", "long.mp4", []byte("video"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("free status = %d, want 403", resp.StatusCode)
	}
	if objects.count() != 0 {
		t.Fatal("over-limit upload must be deleted")
	}

	// The same ad fits the 60s pro cap.
	_ = env.st.UpsertSubscription(domain.Subscription{UserEmail: "pro@x.com", Active: true})
	resp = multipartUpload(t, env.srv.URL, "pro@x.com", "long.mp4", []byte("video"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pro status = %d, want 200", resp.StatusCode)
	}
}

func TestConvertGIFKind(t *testing.T) {
	objects := newFakeObjectStore()
	upstream := newConvertUpstream(t, 5)
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Objects = objects
		cfg.Convert = convertclient.NewClient(upstream.URL)
	})
	resp := multipartUpload(t, env.srv.URL, "u@x.com", "ad.gif", []byte("gif-bytes"))
	var body convertResponse
	decodeJSON(t, resp, &body)
	asset, ok, _ := env.st.GetAsset(body.AssetID, "u@x.com")
	if !ok || asset.Kind != domain.MediaGIF {
		t.Fatalf("asset = %+v ok=%v", asset, ok)
	}
}

func TestConvertUpstreamFailure(t *testing.T) {
	objects := newFakeObjectStore()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "converter exploded", http.StatusInternalServerError)
	}))
	defer broken.Close()
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Objects = objects
		cfg.Convert = convertclient.NewClient(broken.URL)
	})
	resp := multipartUpload(t, env.srv.URL, "u@x.com", "ad.mp4", []byte("video"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}
