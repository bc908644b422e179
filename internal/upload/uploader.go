package upload

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"powerbi-capture/internal/config"
	"powerbi-capture/internal/observability"
)

// Uploader отдаёт файл во временное публичное хранилище (transfer.sh и совместимые)
// и возвращает ссылку на него.
type Uploader struct {
	client *http.Client
	cfg    *config.Config
	logger *observability.Logger
}

func NewUploader(cfg *config.Config, logger *observability.Logger) *Uploader {
	client := &http.Client{
		Timeout: cfg.GetUploadTimeout(),
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Uploader{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Upload загружает файл методом PUT на <endpoint>/<имя файла>.
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	target, err := u.targetURL(path)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt <= u.cfg.Upload.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := u.calculateBackoff(attempt)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		link, retryable, err := u.uploadOnce(ctx, target, path)
		if err == nil {
			return link, nil
		}
		lastErr = err
		u.logger.Warn("Upload attempt failed",
			"path", path,
			"attempt", attempt+1,
			"error", err.Error(),
		)
		if !retryable {
			break
		}
	}

	return "", fmt.Errorf("upload %s failed: %w", path, lastErr)
}

func (u *Uploader) targetURL(path string) (string, error) {
	base := strings.TrimRight(u.cfg.Upload.Endpoint, "/")
	if _, err := url.ParseRequestURI(base); err != nil {
		return "", fmt.Errorf("invalid upload endpoint: %w", err)
	}
	return base + "/" + url.PathEscape(filepath.Base(path)), nil
}

func (u *Uploader) uploadOnce(ctx context.Context, target, path string) (link string, retryable bool, err error) {
	file, err := os.Open(path)
	if err != nil {
		return "", false, err
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return "", false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, file)
	if err != nil {
		return "", false, err
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "image/png")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", true, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", true, err
	}

	// Повторяем на 5xx и 429
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return "", true, fmt.Errorf("server error: %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	link = strings.TrimSpace(string(body))
	if link == "" {
		return "", false, fmt.Errorf("empty response body")
	}
	return link, false, nil
}

func (u *Uploader) calculateBackoff(attempt int) time.Duration {
	minMS := u.cfg.Upload.BackoffMinMS
	maxMS := u.cfg.Upload.BackoffMaxMS
	jitterPct := u.cfg.Upload.JitterPct

	// Экспоненциально: min * 2^(attempt-1)
	exponential := minMS * (1 << uint(attempt-1))
	if exponential > maxMS || exponential <= 0 {
		exponential = maxMS
	}

	// Джиттер: ±jitterPct%
	jitterRange := float64(exponential) * float64(jitterPct) / 100
	jitter := (rand.Float64() - 0.5) * 2 * jitterRange
	finalMS := float64(exponential) + jitter

	if finalMS < float64(minMS) {
		finalMS = float64(minMS)
	}

	return time.Duration(math.Max(finalMS, 0)) * time.Millisecond
}
