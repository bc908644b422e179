package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"powerbi-capture/internal/config"
	"powerbi-capture/internal/observability"
)

func testConfig(endpoint string, retries int) *config.Config {
	cfg := &config.Config{
		Upload: config.UploadConfig{
			Endpoint:     endpoint,
			MaxRetries:   retries,
			BackoffMinMS: 1,
			BackoffMaxMS: 5,
			JitterPct:    20,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBackoffCalculation(t *testing.T) {
	cfg := &config.Config{
		Upload: config.UploadConfig{
			BackoffMinMS: 250,
			BackoffMaxMS: 2000,
			JitterPct:    20,
		},
	}

	uploader := NewUploader(cfg, observability.Nop())

	for attempt := 1; attempt <= 5; attempt++ {
		backoff := uploader.calculateBackoff(attempt)
		if backoff < cfg.GetUploadBackoffMin() || backoff > cfg.GetUploadBackoffMax()*2 {
			t.Errorf("Backoff out of expected range: %v", backoff)
		}
	}
}

func TestUploadReturnsLink(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = io.WriteString(w, "https://transfer.example/abc/r2p.png\n")
	}))
	defer srv.Close()

	path := writeArtifact(t, "r2p.png", "png bytes")
	u := NewUploader(testConfig(srv.URL+"/", 0), observability.Nop())

	link, err := u.Upload(context.Background(), path)
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if link != "https://transfer.example/abc/r2p.png" {
		t.Errorf("link = %q", link)
	}
	if gotPath != "/r2p.png" {
		t.Errorf("path = %q, want /r2p.png", gotPath)
	}
	if gotBody != "png bytes" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestUploadRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, "https://transfer.example/ok.png")
	}))
	defer srv.Close()

	path := writeArtifact(t, "oepe.png", "x")
	u := NewUploader(testConfig(srv.URL, 2), observability.Nop())

	link, err := u.Upload(context.Background(), path)
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if link != "https://transfer.example/ok.png" {
		t.Errorf("link = %q", link)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestUploadDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	path := writeArtifact(t, "r2p.png", "x")
	u := NewUploader(testConfig(srv.URL, 3), observability.Nop())

	if _, err := u.Upload(context.Background(), path); err == nil {
		t.Fatalf("expected error on 403")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestUploadMissingFile(t *testing.T) {
	u := NewUploader(testConfig("http://127.0.0.1:1", 0), observability.Nop())
	if _, err := u.Upload(context.Background(), filepath.Join(t.TempDir(), "none.png")); err == nil {
		t.Errorf("expected error for missing file")
	}
}
