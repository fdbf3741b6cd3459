// Package duckduckgo implements search.Engine by scraping the DuckDuckGo
// HTML endpoint. It needs no credential.
package duckduckgo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/poiesic/originality/search"
	"golang.org/x/net/html"
)

// DefaultBaseURL is the DuckDuckGo HTML search endpoint.
const DefaultBaseURL = "https://html.duckduckgo.com/html/"

const (
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxResponseSize = 1 << 20
)

// Client counts DuckDuckGo web results.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ search.Engine = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the endpoint, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client. Default is http.DefaultClient.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.With("component", "duckduckgo")
		}
	}
}

// New creates a client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		logger:     slog.Default().With("component", "duckduckgo"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns "duckduckgo".
func (c *Client) Name() string {
	return "duckduckgo"
}

// Search returns the number of web results for query, capped at limit.
func (c *Client) Search(ctx context.Context, query string, limit int) (int, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return 0, search.Permanent(fmt.Errorf("duckduckgo: invalid base url: %w", err))
	}
	base.RawQuery = url.Values{"q": {query}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return 0, search.Permanent(fmt.Errorf("duckduckgo: create request: %w", err))
	}

	// Set headers to look like a browser
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("duckduckgo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("duckduckgo: HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, fmt.Errorf("duckduckgo: parse html: %w", err)
	}

	count := countResults(doc, limit)
	c.logger.Debug("search finished", "results", count)
	return count, nil
}

// countResults counts result containers that carry a link, stopping at limit.
func countResults(doc *html.Node, limit int) int {
	count := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if limit > 0 && count >= limit {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && isResult(n) {
			if hasResultLink(n) {
				count++
			}
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)
	return count
}

func isResult(n *html.Node) bool {
	class := attr(n, "class")
	return strings.Contains(class, "result") && strings.Contains(class, "results_links")
}

func hasResultLink(n *html.Node) bool {
	if n.Type == html.ElementNode && n.Data == "a" &&
		strings.Contains(attr(n, "class"), "result__a") && attr(n, "href") != "" {
		return true
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if hasResultLink(ch) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
