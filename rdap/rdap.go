// Package rdap implements the HTTPS transport for RDAP domain queries.
// Body interpretation lives in the parser package; this client only
// moves bytes and maps HTTP status onto error kinds.
package rdap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dap-ware/whodis/models"
)

const acceptHeader = "application/rdap+json, application/json"

// maxRedirects bounds redirect following within one query.
const maxRedirects = 3

// Client issues RDAP domain queries against a base URL.
type Client struct {
	http    *http.Client
	maxSize int64
	log     *zap.Logger
}

// NewClient builds an RDAP client with the given per-query timeout and
// response size cap. Redirects are followed up to three hops and only
// within the authority of the original base.
func NewClient(timeout time.Duration, maxSize int, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				if req.URL.Host != via[0].URL.Host {
					return fmt.Errorf("redirect leaves authority %s", via[0].URL.Host)
				}
				return nil
			},
		},
		maxSize: int64(maxSize),
		log:     log,
	}
}

// Fetch GETs <base>/domain/<domain> and returns the raw body. 404 maps
// to ErrNotFound; any other non-2xx status, oversize body, or transport
// failure is a recoverable error for the coordinator's fallthrough.
func (c *Client) Fetch(ctx context.Context, baseURL, domain string) (string, error) {
	u, err := buildDomainURL(baseURL, domain)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("build rdap request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return "", fmt.Errorf("%w: rdap query %s", models.ErrTimeout, u)
		}
		return "", fmt.Errorf("rdap query %s: %w", u, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s has no record for %s", models.ErrNotFound, baseURL, domain)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("rdap query %s: unexpected status %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return "", fmt.Errorf("%w: rdap body read %s", models.ErrTimeout, u)
		}
		return "", fmt.Errorf("rdap body read %s: %w", u, err)
	}
	if int64(len(body)) > c.maxSize {
		return "", fmt.Errorf("%w: %s sent over %d bytes", models.ErrTooLarge, u, c.maxSize)
	}

	c.log.Debug("rdap response",
		zap.String("url", u),
		zap.Int("bytes", len(body)),
		zap.Int("status", resp.StatusCode))

	return strings.ToValidUTF8(string(body), "�"), nil
}

func buildDomainURL(baseURL, domain string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return "", fmt.Errorf("invalid rdap base %q: %v", baseURL, err)
	}
	joined := base.JoinPath("domain", domain)
	return joined.String(), nil
}

func isTimeout(err error) bool {
	var nerr interface{ Timeout() bool }
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	return false
}
