// Package cosmic is a minimal client for the hosted Cosmic bucket API.
// It covers exactly what the application needs: fluent find/findOne
// queries over object kinds and a single insert call for signup.
package cosmic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cosmic-community/community-support-hub/internal/config"
)

// Object is the generic shape every bucket object shares. Entity-specific
// metadata stays raw here; typed decoding happens in the data package.
type Object struct {
	ID         string          `json:"id"`
	Slug       string          `json:"slug"`
	Title      string          `json:"title"`
	Type       string          `json:"type"`
	Content    string          `json:"content,omitempty"`
	CreatedAt  time.Time       `json:"created_at,omitzero"`
	ModifiedAt time.Time       `json:"modified_at,omitzero"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// ObjectDraft is the payload for creating a new object.
type ObjectDraft struct {
	Title    string                 `json:"title"`
	Slug     string                 `json:"slug"`
	Type     string                 `json:"type"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Response is the bucket API envelope. Multi-object queries fill Objects,
// single-object queries fill Object.
type Response struct {
	Objects []Object `json:"objects"`
	Object  *Object  `json:"object"`
	Total   int      `json:"total"`
}

// APIError carries the numeric status of a failed bucket API call.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cosmic: request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("cosmic: %s (status %d)", e.Message, e.StatusCode)
}

// HasStatus reports the numeric status carried by err, if any.
func HasStatus(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}

// IsNotFound reports whether err is a bucket API 404. Not-found is the one
// failure the application treats as a normal outcome.
func IsNotFound(err error) bool {
	status, ok := HasStatus(err)
	return ok && status == http.StatusNotFound
}

// Filter is an exact-match predicate set. Keys are top-level fields or
// dotted metadata paths, e.g. {"type": "questions", "metadata.is_featured": true}.
type Filter map[string]interface{}

// Client is a configured handle to one bucket. It is created once at
// startup and shared for the lifetime of the process; it holds no mutable
// state after construction.
type Client struct {
	cfg    config.CosmicConfig
	base   *url.URL
	client *http.Client
}

// New creates a bucket client. The bucket slug and read key are mandatory;
// a missing write key only disables inserts.
func New(cfg config.CosmicConfig, httpClient *http.Client) (*Client, error) {
	if cfg.BucketSlug == "" || cfg.ReadKey == "" {
		return nil, errors.New("cosmic: bucket slug and read key are required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("cosmic: invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, base: base, client: httpClient}, nil
}

// Find starts a multi-object query.
func (c *Client) Find(filter Filter) *Query {
	return &Query{client: c, filter: filter}
}

// FindOne starts a single-object query. An empty result surfaces as a 404
// APIError, matching the bucket API's own behavior.
func (c *Client) FindOne(filter Filter) *Query {
	return &Query{client: c, filter: filter, single: true}
}

// InsertOne creates a new object in the bucket using the write key.
func (c *Client) InsertOne(ctx context.Context, draft ObjectDraft) (*Object, error) {
	if c.cfg.WriteKey == "" {
		return nil, errors.New("cosmic: write key not configured")
	}

	body, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("cosmic: failed to encode draft: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectsURL().String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.WriteKey)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if resp.Object == nil {
		return nil, errors.New("cosmic: insert response contained no object")
	}
	return resp.Object, nil
}

func (c *Client) objectsURL() *url.URL {
	return c.base.ResolveReference(&url.URL{Path: fmt.Sprintf("/v3/buckets/%s/objects", c.cfg.BucketSlug)})
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cosmic: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("cosmic: failed to decode response: %w", err)
	}
	return &out, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
			apiErr.Message = payload.Message
		}
	}
	return apiErr
}

// Query accumulates modifiers for one bucket API call. Modifiers return
// the query itself so call sites read like the queries they issue.
type Query struct {
	client *Client
	filter Filter
	props  []string
	depth  *int
	sort   string
	limit  int
	single bool
}

// Props restricts the returned fields.
func (q *Query) Props(props ...string) *Query {
	q.props = props
	return q
}

// Depth sets the relationship-expansion depth: 0 leaves references as raw
// ids, 1 resolves one level, 2 resolves two.
func (q *Query) Depth(depth int) *Query {
	q.depth = &depth
	return q
}

// Sort sets the sort key; a leading '-' means descending.
func (q *Query) Sort(field string) *Query {
	q.sort = field
	return q
}

// Limit caps the number of returned objects.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Do issues the query. Exactly one request goes out; there are no retries.
func (q *Query) Do(ctx context.Context) (*Response, error) {
	query, err := json.Marshal(q.filter)
	if err != nil {
		return nil, fmt.Errorf("cosmic: failed to encode filter: %w", err)
	}

	u := q.client.objectsURL()
	params := url.Values{}
	params.Set("query", string(query))
	params.Set("read_key", q.client.cfg.ReadKey)
	if len(q.props) > 0 {
		params.Set("props", strings.Join(q.props, ","))
	}
	if q.depth != nil {
		params.Set("depth", strconv.Itoa(*q.depth))
	}
	if q.sort != "" {
		params.Set("sort", q.sort)
	}
	if q.limit > 0 {
		params.Set("limit", strconv.Itoa(q.limit))
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := q.client.do(req)
	if err != nil {
		return nil, err
	}

	if q.single {
		if resp.Object == nil {
			if len(resp.Objects) > 0 {
				resp.Object = &resp.Objects[0]
			} else {
				return nil, &APIError{StatusCode: http.StatusNotFound, Message: "object not found"}
			}
		}
	}
	return resp, nil
}
