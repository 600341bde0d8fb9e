package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// MediaStore is the external storage holding contest hero assets. Upload and
// serving live outside this service; deletion is asked for during contest
// removal and its failure is tolerated but recorded.
type MediaStore interface {
	DeleteAsset(ctx context.Context, key string) error
}

// NoopMediaStore is used when no media backend is configured.
type NoopMediaStore struct{}

func (s *NoopMediaStore) DeleteAsset(ctx context.Context, key string) error {
	log.Printf("[MediaStore] noop delete asset key=%s", key)
	return nil
}

// HTTPMediaStore talks to the media backend over its REST API.
type HTTPMediaStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPMediaStore creates a media store client.
func NewHTTPMediaStore(baseURL, apiKey string) (*HTTPMediaStore, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("media store base URL is required")
	}
	return &HTTPMediaStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// DeleteAsset removes a stored asset by key. 404 counts as success — the
// asset is gone either way.
func (s *HTTPMediaStore) DeleteAsset(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	endpoint := fmt.Sprintf("%s/assets/%s", s.baseURL, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build media delete request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("media delete request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("media delete returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
