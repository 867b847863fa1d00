package kvstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// httpStore reads keys relative to a base URL. It cannot be written.
type httpStore struct {
	base   string
	client *http.Client
}

var _ Store = (*httpStore)(nil)

// OpenHTTP returns a read-only store rooted at baseURL. A nil client uses
// http.DefaultClient.
func OpenHTTP(baseURL string, client *http.Client) (Store, error) {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("not an http url: %q", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &httpStore{base: strings.TrimRight(baseURL, "/"), client: client}, nil
}

func (s *httpStore) Name() string   { return s.base }
func (s *httpStore) Driver() Driver { return HTTP }

func (s *httpStore) Get(ctx context.Context, key string) ([]byte, error) {
	u := s.base + "/" + strings.TrimLeft(key, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, u)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", u, err)
	}
	return data, nil
}

func (s *httpStore) Put(ctx context.Context, key string, val []byte) error {
	return fmt.Errorf("%w: %s", ErrReadOnly, s.base)
}

func (s *httpStore) Close() error { return nil }
