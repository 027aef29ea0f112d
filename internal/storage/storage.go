package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Fetcher retrieves a document's raw bytes by its stable path. The path is
// the document's identity; it never embeds an expiring access URL.
type Fetcher interface {
	Fetch(ctx context.Context, documentPath string) ([]byte, error)
}

// LocalStore serves documents from a directory tree rooted at baseDir.
type LocalStore struct {
	baseDir string
}

func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{baseDir: baseDir}
}

func (s *LocalStore) Fetch(ctx context.Context, documentPath string) ([]byte, error) {
	full := filepath.Join(s.baseDir, filepath.FromSlash(documentPath))
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", documentPath, err)
	}
	return data, nil
}

const (
	accessCheckAttempts = 3
	accessCheckDelay    = 500 * time.Millisecond
)

// HTTPStore fetches documents over HTTP from an object-storage base URL
// that serves signed or public links. Before downloading it probes the URL
// with a HEAD request, retrying with backoff, since freshly uploaded
// objects can take a moment to become accessible.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *HTTPStore) Fetch(ctx context.Context, documentPath string) ([]byte, error) {
	u := s.baseURL + "/" + strings.TrimPrefix(documentPath, "/")

	if err := s.waitAccessible(ctx, u); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch document: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *HTTPStore) waitAccessible(ctx context.Context, u string) error {
	delay := accessCheckDelay
	var lastErr error

	for attempt := 1; attempt <= accessCheckAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
		if err != nil {
			return err
		}
		resp, err := s.client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
		} else {
			lastErr = err
		}

		if attempt < accessCheckAttempts {
			log.Debug().Int("attempt", attempt).Msg("Document not accessible yet, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return fmt.Errorf("document not accessible: %v", lastErr)
}
