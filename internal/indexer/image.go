package indexer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// fetchImage downloads an image over http or https, refusing bodies larger than maxBytes.
func (idx *Indexer) fetchImage(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse image url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported image url scheme %q", u.Scheme)
	}

	if idx.config.ImageFetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, idx.config.ImageFetchTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := idx.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, idx.config.MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > idx.config.MaxImageBytes {
		return nil, fmt.Errorf("image larger than %d bytes", idx.config.MaxImageBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	return data, nil
}
