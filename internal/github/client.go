// Package github fetches repository trees and raw file content from GitHub.
package github

import (
	"net/http"
	"os"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// Client wraps the GitHub API client with rate limiting support, plus a plain
// HTTP client for raw.githubusercontent.com downloads (which bypass the API).
type Client struct {
	*github.Client
	httpClient *http.Client
	token      string
}

// NewClient creates a GitHub client with optional authentication.
// If GITHUB_TOKEN is set, API requests are authenticated for the higher rate
// limit and raw downloads carry the same token. Secondary rate limits on the
// API are handled by the rate-limit-waiter transport.
func NewClient() (*Client, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	ghClient := github.NewClient(rateLimiter)

	token := os.Getenv("GITHUB_TOKEN")
	if token != "" {
		ghClient = ghClient.WithAuthToken(token)
	}

	return &Client{
		Client:     ghClient,
		httpClient: &http.Client{},
		token:      token,
	}, nil
}
