package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// TreeEntry is one blob in a repository tree listing.
type TreeEntry struct {
	Path string // Path relative to the repository root
	Size int    // Blob size in bytes
}

// Fetcher lists repository trees and downloads raw file content.
type Fetcher struct {
	client *Client
}

// NewFetcher creates a new tree/file fetcher.
func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{client: client}
}

// FetchTree retrieves the full recursive file listing for a branch and
// filters it to blob entries.
// Uses: GET /repos/{owner}/{repo}/git/trees/{branch}?recursive=1
func (f *Fetcher) FetchTree(ctx context.Context, owner, repo, branch string) ([]TreeEntry, error) {
	tree, _, err := f.client.Git.GetTree(ctx, owner, repo, branch, true)
	if err != nil {
		return nil, fmt.Errorf("fetch tree %s/%s@%s: %w", owner, repo, branch, err)
	}

	var entries []TreeEntry
	for _, item := range tree.Entries {
		if item.GetType() != "blob" {
			continue
		}
		entries = append(entries, TreeEntry{
			Path: item.GetPath(),
			Size: item.GetSize(),
		})
	}
	return entries, nil
}

// DownloadRaw downloads a single file's content from
// https://raw.githubusercontent.com/{owner}/{repo}/{branch}/{path}.
func (f *Fetcher) DownloadRaw(ctx context.Context, owner, repo, branch, path string) (string, error) {
	url := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", owner, repo, branch, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if f.client.token != "" {
		req.Header.Set("Authorization", "token "+f.client.token)
	}

	resp, err := f.client.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %s", path, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", path, err)
	}
	return string(body), nil
}
