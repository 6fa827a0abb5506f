package catchpy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
	"github.com/custodia-labs/annomigrate/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.SearchClient = (*Client)(nil)

// maxErrorBody caps how much of an error response is kept in FetchError.
const maxErrorBody = 512

// Client queries a Catch search endpoint.
type Client struct {
	http          *http.Client
	endpoint      *url.URL
	param         string
	tokenProvider driven.TokenProvider
	rateLimiter   *RateLimiter
}

// NewClient creates a search client. The token provider and base URL are
// injected; nothing is discovered.
func NewClient(cfg Config, tokenProvider driven.TokenProvider) (*Client, error) {
	if tokenProvider == nil {
		return nil, fmt.Errorf("%w: token provider is required", domain.ErrInvalidConfig)
	}
	if v := cfg.version(); !v.IsValid() {
		return nil, fmt.Errorf("%w: unknown api version %q", domain.ErrInvalidConfig, v)
	}
	endpoint, err := cfg.endpoint()
	if err != nil {
		return nil, err
	}
	return &Client{
		http:          &http.Client{Timeout: cfg.timeout()},
		endpoint:      endpoint,
		param:         cfg.param(),
		tokenProvider: tokenProvider,
		rateLimiter:   NewRateLimiter(cfg.RateLimit),
	}, nil
}

// Endpoint returns the resolved search URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Size returns the total reported by a one-row request.
func (c *Client) Size(ctx context.Context, filter domain.SearchFilter) (int, error) {
	page, err := c.search(ctx, "size", filter, 0, 1)
	if err != nil {
		return 0, err
	}
	return page.Total, nil
}

// Page returns up to limit rows starting at offset.
func (c *Client) Page(ctx context.Context, filter domain.SearchFilter, offset, limit int) (*domain.Page, error) {
	if offset < 0 || limit <= 0 {
		return nil, fmt.Errorf("%w: offset %d limit %d", domain.ErrInvalidInput, offset, limit)
	}
	return c.search(ctx, "page", filter, offset, limit)
}

// ValidateCredentials checks the token is accepted with a size request.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	_, err := c.Size(ctx, domain.SearchFilter{})
	return err
}

func (c *Client) search(ctx context.Context, op string, filter domain.SearchFilter, offset, limit int) (*domain.Page, error) {
	u := *c.endpoint
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if filter.ContextID != "" {
		q.Set(c.param, filter.ContextID)
	}
	u.RawQuery = q.Encode()
	target := u.String()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	token, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Op: op, URL: target, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderAuthToken, token)

	logger.Debug("GET %s", target)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Op: op, URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Op: op, URL: target, StatusCode: 0, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(body)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &FetchError{Op: op, URL: target, StatusCode: resp.StatusCode, Message: msg}
	}

	page, err := decodePage(body)
	if err != nil {
		return nil, &FetchError{Op: op, URL: target, Message: "malformed response", Err: err}
	}
	if len(page.Rows) > limit {
		return nil, &FetchError{
			Op:      op,
			URL:     target,
			Message: fmt.Sprintf("returned %d rows for limit %d", len(page.Rows), limit),
		}
	}
	return page, nil
}

// decodePage parses a search response. total and rows are required; size
// falls back to the number of rows. A row with mistyped members does not fail
// the page: it decodes with its raw bytes kept for the rejection buckets.
func decodePage(body []byte) (*domain.Page, error) {
	var envelope struct {
		Rows  *[]domain.LegacyAnnotation `json:"rows"`
		Size  *int                       `json:"size"`
		Total *int                       `json:"total"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Rows == nil {
		return nil, errors.New("missing rows")
	}
	if envelope.Total == nil {
		return nil, errors.New("missing total")
	}
	page := &domain.Page{
		Rows:  *envelope.Rows,
		Total: *envelope.Total,
		Size:  len(*envelope.Rows),
		Raw:   json.RawMessage(body),
	}
	for i := range page.Rows {
		if err := page.Rows[i].DecodeError(); err != nil {
			logger.Debug("row %s does not fit the schema: %v", page.Rows[i].ID, err)
		}
	}
	if envelope.Size != nil && *envelope.Size != page.Size {
		logger.Debug("search reported size %d for %d rows", *envelope.Size, page.Size)
	}
	return page, nil
}
