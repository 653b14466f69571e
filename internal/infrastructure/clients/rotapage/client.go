// Package rotapage fetches raw rota pages from the clinic portals. The
// pages are third-party HTML over plain GET with no auth; every request is
// bounded by its own timeout so a slow portal cannot delay another
// clinic's fetch.
package rotapage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/pkg/errors"
)

// maxBodyBytes caps how much of a response is read; rota pages are small
// and anything beyond this is junk.
const maxBodyBytes = 10 << 20

// Client fetches rota pages over HTTP.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

// NewClient creates a page client with a fixed per-request timeout.
func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{},
		timeout:    timeout,
		userAgent:  userAgent,
	}
}

// FetchPage performs one GET against the clinic's rota URL and returns the
// body. Timeouts, transport errors, and non-2xx statuses all come back as
// errors for the caller to fold into its result record.
func (c *Client) FetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, apperrors.NewExternalError(fmt.Sprintf("failed to build request for %s", pageURL), err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError(fmt.Sprintf("failed to fetch %s", pageURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("rota page %s returned %d %s", pageURL, resp.StatusCode, http.StatusText(resp.StatusCode)), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.NewExternalError(fmt.Sprintf("failed to read %s", pageURL), err)
	}
	return body, nil
}
