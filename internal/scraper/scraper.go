// Package scraper mirrors documentation subtrees from GitHub to local storage.
package scraper

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/semrag/semrag/internal/github"
	"github.com/semrag/semrag/internal/registry"
)

// MaxFileSize is the upper bound on downloaded files. Larger blobs are
// excluded from the download set without error.
const MaxFileSize = 500_000

// DefaultDelay is the fixed pause between successive downloads, a blunt
// rate-limit mitigation rather than an adaptive backoff policy.
const DefaultDelay = 100 * time.Millisecond

// RepoSource lists repository trees and downloads raw files. Implemented by
// github.Fetcher; tests substitute a fake.
type RepoSource interface {
	FetchTree(ctx context.Context, owner, repo, branch string) ([]github.TreeEntry, error)
	DownloadRaw(ctx context.Context, owner, repo, branch, path string) (string, error)
}

// Scraper downloads documentation files from GitHub repos into a local
// directory tree, one subdirectory per library.
type Scraper struct {
	source    RepoSource
	outputDir string
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewScraper creates a scraper writing under outputDir. A zero delay disables
// the inter-download pause (used by tests).
func NewScraper(source RepoSource, outputDir string, delay time.Duration, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Scraper{
		source:    source,
		outputDir: outputDir,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
}

// FetchLibraryDocs downloads all docs for one library and returns the number
// of files written. Existing files are left untouched unless force is set.
// Per-file download errors are logged and skipped; a tree fetch failure is
// fatal for the library's run.
func (s *Scraper) FetchLibraryDocs(ctx context.Context, src registry.Source, force bool) (int, error) {
	libDir := filepath.Join(s.outputDir, src.Library)
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		return 0, err
	}

	s.logger.Info("Fetching tree", "library", src.Library, "repo", src.Owner+"/"+src.Repo)
	tree, err := s.source.FetchTree(ctx, src.Owner, src.Repo, src.Branch)
	if err != nil {
		return 0, err
	}

	entries := filterEntries(tree, src)
	s.logger.Info("Downloading", "library", src.Library, "files", len(entries))

	downloaded := 0
	skipped := 0

	for i, entry := range entries {
		rel := strings.TrimLeft(strings.TrimPrefix(entry.Path, src.DocsPath), "/")
		outPath := filepath.Join(libDir, filepath.FromSlash(rel))

		if !force {
			if _, err := os.Stat(outPath); err == nil {
				skipped++
				s.logger.Debug("Skipping existing file", "library", src.Library, "path", rel,
					"progress", i+1, "total", len(entries))
				continue
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return downloaded, err
		}

		content, err := s.source.DownloadRaw(ctx, src.Owner, src.Repo, src.Branch, entry.Path)
		if err != nil {
			s.logger.Warn("Download failed", "library", src.Library, "path", entry.Path, "error", err)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			s.logger.Warn("Create directory failed", "library", src.Library, "path", rel, "error", err)
			continue
		}
		if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
			s.logger.Warn("Write failed", "library", src.Library, "path", rel, "error", err)
			continue
		}

		downloaded++
		s.logger.Debug("Downloaded file", "library", src.Library, "path", rel,
			"progress", i+1, "total", len(entries))
	}

	s.logger.Info("Library complete", "library", src.Library,
		"downloaded", downloaded, "skipped", skipped)
	return downloaded, nil
}

// FetchAll downloads docs for every registered library sequentially and
// returns per-library counts.
func (s *Scraper) FetchAll(ctx context.Context, force bool) (map[string]int, error) {
	results := make(map[string]int, len(registry.Sources))
	for _, src := range registry.Sources {
		count, err := s.FetchLibraryDocs(ctx, src, force)
		if err != nil {
			return results, err
		}
		results[src.Library] = count
	}
	return results, nil
}

// filterEntries selects blobs under the docs path with an accepted extension
// and below the size cap.
func filterEntries(tree []github.TreeEntry, src registry.Source) []github.TreeEntry {
	var entries []github.TreeEntry
	for _, entry := range tree {
		if !strings.HasPrefix(entry.Path, src.DocsPath) {
			continue
		}
		if !hasExtension(entry.Path, src.Extensions) {
			continue
		}
		if entry.Size >= MaxFileSize {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func hasExtension(path string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
