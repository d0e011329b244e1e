package s2

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Semantic Scholar Academic Graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// RateLimit is one request per second, the unauthenticated allowance.
	RateLimit = 1.0

	// SearchFields are requested with every search so the first result can
	// usually be converted without a second call.
	SearchFields = "title,year,venue,authors,externalIds,citationStyles"

	// DefaultPageSize is the number of results fetched per search page.
	DefaultPageSize = 10
)

// Client is a rate-limited HTTP client for the Semantic Scholar API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	pageSize   int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

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

// WithRateLimit overrides the request rate (requests per second).
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithPageSize sets the number of results fetched per page.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// NewClient creates a new Semantic Scholar client.
// Request deadlines come from the caller's context.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		pageSize:   DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns the results of a title search as a lazy sequence. Pages are
// fetched only as the caller keeps iterating; an error ends the sequence.
func (c *Client) Search(ctx context.Context, title string) iter.Seq2[Paper, error] {
	return func(yield func(Paper, error) bool) {
		offset := 0
		for {
			page, err := c.searchPage(ctx, title, offset)
			if err != nil {
				yield(Paper{}, err)
				return
			}
			for _, p := range page.Data {
				if !yield(p, nil) {
					return
				}
			}
			if page.Next <= offset || len(page.Data) == 0 {
				return
			}
			offset = page.Next
		}
	}
}

// BibTeX returns the BibTeX rendering of paper, fetching the paper record
// when the search result didn't include it.
func (c *Client) BibTeX(ctx context.Context, paper Paper) (string, error) {
	if paper.CitationStyles.BibTeX != "" {
		return normalizeEntryType(paper.CitationStyles.BibTeX), nil
	}
	if paper.PaperID == "" {
		return "", nil
	}

	var full Paper
	path := "/paper/" + url.PathEscape(paper.PaperID) + "?fields=citationStyles"
	if err := c.get(ctx, path, &full); err != nil {
		return "", err
	}
	return normalizeEntryType(full.CitationStyles.BibTeX), nil
}

func (c *Client) searchPage(ctx context.Context, title string, offset int) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("query", title)
	q.Set("fields", SearchFields)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(c.pageSize))

	var resp SearchResponse
	if err := c.get(ctx, "/paper/search?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// get performs a rate-limited GET and decodes the JSON body into v.
func (c *Client) get(ctx context.Context, path string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return nil
}
