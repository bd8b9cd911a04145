package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
)

// Ensure Client implements the repository host port.
var _ driven.RepositoryHost = (*Client)(nil)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the GitHub connector.
type Config struct {
	// Token is the personal access token (required).
	Token string

	// Username is the account owning created repositories. It also
	// determines the public Pages URL (required).
	Username string

	// Timeout is the API request timeout (default: 30s).
	Timeout time.Duration
}

// Client wraps the go-github client with publishing helpers.
type Client struct {
	gh          *gh.Client
	username    string
	rateLimiter *RateLimiter
}

// New creates a new GitHub connector authenticated with a static token.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github: token is required")
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("github: username is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = cfg.Timeout

	return &Client{
		gh:          gh.NewClient(tc),
		username:    cfg.Username,
		rateLimiter: NewRateLimiter(),
	}, nil
}

// NewWithClient wraps a pre-configured go-github client. Used by tests
// to point the connector at a stub server.
func NewWithClient(ghc *gh.Client, username string) *Client {
	return &Client{
		gh:          ghc,
		username:    username,
		rateLimiter: NewRateLimiter(),
	}
}

// Username returns the configured account name.
func (c *Client) Username() string {
	return c.username
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// ValidateCredentials checks if the configured token is valid by
// making a lightweight API call.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, resp, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return c.wrapError(err, "validate credentials")
	}

	c.updateRateLimitFromResponse(resp)
	return nil
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Check for GitHub error response
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		return &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
			URL:        ghErr.Response.Request.URL.String(),
		}
	}

	// Check for rate limit error
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   c.rateLimiter.ResetTime(),
			Remaining: c.rateLimiter.Remaining(),
			Limit:     c.rateLimiter.Limit(),
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}
