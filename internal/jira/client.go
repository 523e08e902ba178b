package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/zjrosen/jqlboard/internal/log"
)

const (
	DefaultAPIVersion = "3"
	DefaultTimeout    = 30 * time.Second

	maxErrorBody    = 4 * 1024
	maxResponseBody = 32 * 1024 * 1024
)

// ErrMissingCredentials is returned by NewClient when the base URL, email or
// token is empty.
var ErrMissingCredentials = errors.New("jira credentials missing: set JIRA_BASE_URL, JIRA_EMAIL and JIRA_TOKEN")

// APIError is a non-2xx response from Jira.
type APIError struct {
	StatusCode int
	Messages   []string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	parts := append([]string(nil), e.Messages...)
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, field+": "+e.Fields[field])
	}
	if len(parts) == 0 {
		return fmt.Sprintf("jira: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("jira: HTTP %d: %s", e.StatusCode, strings.Join(parts, "; "))
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Email      string
	Token      string
	APIVersion string
	Timeout    time.Duration
	// RequestsPerSecond throttles outgoing calls. Zero disables throttling.
	RequestsPerSecond float64
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the Jira Cloud REST API with basic auth (email + API token).
type Client struct {
	apiURL  string
	email   string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient validates cfg and returns a ready Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" || cfg.Email == "" || cfg.Token == "" {
		return nil, ErrMissingCredentials
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid jira base url %q: %w", cfg.BaseURL, err)
	}

	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		apiURL:  strings.TrimRight(cfg.BaseURL, "/") + "/rest/api/" + version,
		email:   cfg.Email,
		token:   cfg.Token,
		http:    httpClient,
		limiter: limiter,
	}, nil
}

// Search runs one page of a JQL search.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	fields := req.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}

	params := url.Values{}
	params.Set("jql", req.JQL)
	params.Set("maxResults", strconv.Itoa(req.MaxResults))
	params.Set("startAt", strconv.Itoa(req.StartAt))
	params.Set("fields", strings.Join(fields, ","))

	var result SearchResult
	if err := c.get(ctx, "/search/jql", params, &result); err != nil {
		log.ErrorErr(log.CatJira, "search failed", err, "jql", req.JQL, "startAt", req.StartAt)
		return nil, err
	}
	if result.Issues == nil {
		result.Issues = []Issue{}
	}

	log.Debug(log.CatJira, "search",
		"jql", req.JQL,
		"startAt", result.StartAt,
		"maxResults", result.MaxResults,
		"returned", len(result.Issues),
		"total", result.Total)
	return &result, nil
}

// Myself returns the authenticated user. Used as a connection check.
func (c *Client) Myself(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/myself", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Projects lists the projects visible to the authenticated user.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.get(ctx, "/project", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	endpoint := c.apiURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	log.Debug(log.CatJira, "response", "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Messages = payload.ErrorMessages
		if len(payload.Errors) > 0 {
			apiErr.Fields = payload.Errors
		}
	} else if text := strings.TrimSpace(string(body)); text != "" {
		apiErr.Messages = []string{text}
	}
	return apiErr
}
