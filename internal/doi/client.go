// Package doi resolves DOIs to BibTeX through content negotiation on doi.org.
package doi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// BaseURL is the DOI resolver.
	BaseURL = "https://doi.org"

	// BibTeXContentType is the Accept header value for BibTeX.
	BibTeXContentType = "application/x-bibtex"

	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 1 << 20
)

// Response is the status and body of one resolver request.
type Response struct {
	StatusCode int
	Body       string
}

// IsBibTeX reports whether the response is a 200 whose trimmed body starts with '@'.
func (r *Response) IsBibTeX() bool {
	return r.StatusCode == http.StatusOK && strings.HasPrefix(strings.TrimSpace(r.Body), "@")
}

// Client issues DOI resolver requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// NewClient creates a resolver client. Timeouts come from the caller's context.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch requests the BibTeX rendering of doi. Any HTTP status is returned
// as a Response; only transport failures produce an error.
func (c *Client) Fetch(ctx context.Context, doi string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+doi, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", BibTeXContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: string(body)}, nil
}
