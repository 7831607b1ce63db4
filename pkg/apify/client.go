// Package apify provides a client for the Apify social-post crawl actor.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Default base URL for the Apify v2 API.
const defaultBaseURL = "https://api.apify.com/v2"

// defaultActor is the LinkedIn company-posts actor used when none is configured.
const defaultActor = "apimaestro~linkedin-company-posts"

// ErrorKind classifies provider failures for the orchestrator's retry policy.
type ErrorKind string

const (
	// KindRateLimited is retryable with backoff.
	KindRateLimited ErrorKind = "rate_limited"
	// KindTimeout is retried once, then fails the fetch.
	KindTimeout ErrorKind = "timeout"
	// KindNotFound means the profile handle does not exist. Not retried.
	KindNotFound ErrorKind = "not_found"
	// KindMalformed means the provider response failed schema validation. Not retried.
	KindMalformed ErrorKind = "malformed_response"
)

// Error is the provider error taxonomy surface.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("apify: %s (HTTP %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("apify: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the provider error kind from an error chain. The second
// return is false when err is not a provider error.
func KindOf(err error) (ErrorKind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// RawPost is one post record as returned by the crawl provider, already
// validated against the actor's schema.
type RawPost struct {
	UID       string `json:"uid"`
	URL       string `json:"url"`
	Text      string `json:"text"`
	PostedAt  string `json:"posted_at"`
	Reactions int    `json:"reactions"`
	Comments  int    `json:"comments"`
	Reposts   int    `json:"reposts"`
}

// FetchRequest asks the provider for the latest posts of one profile handle.
type FetchRequest struct {
	Handle string
	// Since narrows the fetch to posts after the cursor; zero means all
	// the actor returns within Limit.
	Since time.Time
	// Limit bounds the page size. The returned sequence is finite and
	// not restartable.
	Limit int
}

// Client fetches raw posts from the external crawl provider.
type Client interface {
	FetchPosts(ctx context.Context, req FetchRequest) ([]RawPost, error)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithActor overrides the default actor ID.
func WithActor(actor string) Option {
	return func(c *httpClient) {
		c.actor = actor
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing actor calls at r per second with the given
// burst. Zero disables client-side limiting.
func WithRateLimit(r float64, burst int) Option {
	return func(c *httpClient) {
		if r > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(r), burst)
		}
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	token   string
	baseURL string
	actor   string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new Apify client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		actor:   defaultActor,
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// actorInput is the body for run-sync-get-dataset-items.
type actorInput struct {
	CompanyName string `json:"company_name"`
	PageNumber  int    `json:"page_number"`
	Limit       int    `json:"limit,omitempty"`
	Sort        string `json:"sort"`
	PostedAfter string `json:"posted_after,omitempty"`
}

// apifyItem is the wire shape of one dataset item. Decoding is strict about
// structure; unknown uid variants are tolerated because the actor has
// renamed the field across versions.
type apifyItem struct {
	FullURN  string     `json:"full_urn"`
	PostURN  string     `json:"postUrn"`
	URN      string     `json:"urn"`
	PostURL  string     `json:"postUrl"`
	Text     string     `json:"text"`
	PostedAt string     `json:"postedAt"`
	Comments int        `json:"commentsCount"`
	Stats    apifyStats `json:"stats"`
}

type apifyStats struct {
	TotalReactions int `json:"total_reactions"`
	Reposts        int `json:"reposts"`
}

func (i apifyItem) uid() string {
	switch {
	case i.FullURN != "":
		return i.FullURN
	case i.PostURN != "":
		return i.PostURN
	default:
		return i.URN
	}
}

// FetchPosts runs the actor synchronously and returns its dataset items as
// a finite page of raw posts, newest first as the actor emits them.
func (c *httpClient) FetchPosts(ctx context.Context, req FetchRequest) ([]RawPost, error) {
	if req.Handle == "" {
		return nil, &Error{Kind: KindNotFound, Err: eris.New("empty profile handle")}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindTimeout, Err: eris.Wrap(err, "rate limiter wait")}
		}
	}

	input := actorInput{
		CompanyName: req.Handle,
		PageNumber:  1,
		Limit:       req.Limit,
		Sort:        "recent",
	}
	if !req.Since.IsZero() {
		input.PostedAfter = req.Since.UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, &Error{Kind: KindMalformed, Err: eris.Wrap(err, "marshal actor input")}
	}

	endpoint := fmt.Sprintf("%s/acts/%s/run-sync-get-dataset-items?token=%s",
		c.baseURL, url.PathEscape(c.actor), url.QueryEscape(c.token))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindMalformed, Err: eris.Wrap(err, "create request")}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindMalformed, Err: eris.Wrap(err, "read response body")}
	}

	if kindErr := classifyStatus(resp.StatusCode, data); kindErr != nil {
		return nil, kindErr
	}

	var items []apifyItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &Error{Kind: KindMalformed, StatusCode: resp.StatusCode, Err: eris.Wrap(err, "decode dataset items")}
	}

	posts := make([]RawPost, 0, len(items))
	for _, item := range items {
		posts = append(posts, RawPost{
			UID:       item.uid(),
			URL:       item.PostURL,
			Text:      item.Text,
			PostedAt:  item.PostedAt,
			Reactions: item.Stats.TotalReactions,
			Comments:  item.Comments,
			Reposts:   item.Stats.Reposts,
		})
	}
	return posts, nil
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, StatusCode: status, Err: eris.Errorf("provider rate limit: %s", truncate(body))}
	case status == http.StatusNotFound:
		return &Error{Kind: KindNotFound, StatusCode: status, Err: eris.Errorf("actor or handle not found: %s", truncate(body))}
	case status == http.StatusRequestTimeout || status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout:
		return &Error{Kind: KindTimeout, StatusCode: status, Err: eris.Errorf("provider unavailable: %s", truncate(body))}
	default:
		return &Error{Kind: KindMalformed, StatusCode: status, Err: eris.Errorf("unexpected provider response: %s", truncate(body))}
	}
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindMalformed, Err: eris.Wrap(err, "execute request")}
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
