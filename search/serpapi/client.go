package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/poiesic/originality/search"
)

const (
	// DefaultBaseURL is the SerpAPI search endpoint.
	DefaultBaseURL = "https://serpapi.com/search"

	// DefaultEngine is the SerpAPI backend queried.
	DefaultEngine = "google"

	maxResponseSize = 4 << 20

	noResultsMessage = "hasn't returned any results"
)

// ErrAPIKeyRequired is returned when a client is created without a key.
var ErrAPIKeyRequired = errors.New("serpapi: api key required")

// Client queries SerpAPI.
type Client struct {
	apiKey     string
	baseURL    string
	engine     string
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

// WithEngine selects the SerpAPI backend. Default is "google".
func WithEngine(engine string) Option {
	return func(c *Client) {
		c.engine = engine
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
			c.logger = logger.With("component", "serpapi")
		}
	}
}

// New creates a client authenticated with apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrAPIKeyRequired
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		engine:     DefaultEngine,
		httpClient: http.DefaultClient,
		logger:     slog.Default().With("component", "serpapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns "serpapi".
func (c *Client) Name() string {
	return "serpapi"
}

type response struct {
	OrganicResults []json.RawMessage `json:"organic_results"`
	Error          string            `json:"error"`
}

// Search returns the number of organic results for query, capped at limit.
func (c *Client) Search(ctx context.Context, query string, limit int) (int, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("engine", c.engine)
	params.Set("num", strconv.Itoa(limit))
	params.Set("api_key", c.apiKey)

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return 0, search.Permanent(fmt.Errorf("serpapi: invalid base url: %w", err))
	}
	base.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return 0, search.Permanent(fmt.Errorf("serpapi: create request: %w", c.redact(err)))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("serpapi: request failed: %w", c.redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, fmt.Errorf("serpapi: read response: %w", err)
	}

	var data response
	decodeErr := json.Unmarshal(body, &data)

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("serpapi: HTTP %d: %s", resp.StatusCode, c.scrub(data.Error))
		switch {
		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
			return 0, err
		default:
			return 0, search.Permanent(err)
		}
	}

	if decodeErr != nil {
		return 0, fmt.Errorf("serpapi: malformed response: %w", decodeErr)
	}

	if data.Error != "" {
		if strings.Contains(data.Error, noResultsMessage) {
			return 0, nil
		}
		return 0, search.Permanent(fmt.Errorf("serpapi: %s", c.scrub(data.Error)))
	}

	count := len(data.OrganicResults)
	if limit > 0 && count > limit {
		count = limit
	}
	c.logger.Debug("search finished", "results", count)
	return count, nil
}

// redact strips the API key from URLs embedded in transport errors.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{Op: urlErr.Op, URL: c.scrub(urlErr.URL), Err: urlErr.Err}
	}
	return errors.New(c.scrub(err.Error()))
}

func (c *Client) scrub(s string) string {
	s = strings.ReplaceAll(s, url.QueryEscape(c.apiKey), "REDACTED")
	return strings.ReplaceAll(s, c.apiKey, "REDACTED")
}
