// Package lookup holds the HTTP clients for the third-party services used to
// enrich visits: country metadata, reverse geocoding and user-agent
// detection.
package lookup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "iptrack/pkg/errors"

	json "github.com/goccy/go-json"
)

const maxResponseBytes = 1 << 20

// httpClient is the shared transport for all lookups.
type httpClient struct {
	http    *http.Client
	timeout time.Duration
}

func newHTTPClient(timeout time.Duration) httpClient {
	return httpClient{
		// The client timeout backs up the per-call context deadline.
		http:    &http.Client{Timeout: timeout + time.Second},
		timeout: timeout,
	}
}

// getJSON performs a GET bounded by the client timeout and decodes a 2xx
// body into dest. A 404 returns notFound when it is non-nil.
func (c httpClient) getJSON(ctx context.Context, rawURL string, dest interface{}, notFound error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrLookupFailed, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrLookupFailed, "read body: "+err.Error())
	}

	if resp.StatusCode == http.StatusNotFound && notFound != nil {
		return notFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.Wrap(apperrors.ErrLookupFailed, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return apperrors.Wrap(apperrors.ErrLookupFailed, "decode body: "+err.Error())
	}
	return nil
}
