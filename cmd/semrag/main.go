// Package main provides the semrag CLI for fetching and ingesting
// technical documentation.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/semrag/semrag/internal/embedding"
	ghclient "github.com/semrag/semrag/internal/github"
	"github.com/semrag/semrag/internal/ingest"
	"github.com/semrag/semrag/internal/registry"
	"github.com/semrag/semrag/internal/scraper"
	"github.com/semrag/semrag/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "semrag",
	Short: "Technical documentation retrieval pipeline",
	Long:  "Fetches library documentation from GitHub and ingests it into Qdrant for semantic search",
}

var (
	fetchForce   bool
	fetchLibrary string
	fetchOutput  string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download documentation from GitHub",
	Long: `Downloads documentation files for the registered libraries.

Existing files are left untouched unless --force is set, so repeated runs
only pick up new files.

Environment variables:
  GITHUB_TOKEN   GitHub token for higher rate limits (optional)`,
	RunE: runFetch,
}

var (
	ingestLibrary string
	ingestClear   bool
	ingestStats   bool
	ingestRawPath string
	qdrantHost    string
	qdrantPort    int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest downloaded documentation into Qdrant",
	Long: `Chunks downloaded documentation and inserts it into the vector store.

Chunk identifiers are deterministic, so re-running ingest overwrites
existing chunks rather than duplicating them.

Environment variables:
  QDRANT_HOST    Qdrant hostname (default: localhost)
  QDRANT_PORT    Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY OpenAI API key for embeddings (required)`,
	RunE: runIngest,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "re-download files even if they already exist")
	fetchCmd.Flags().StringVar(&fetchLibrary, "library", "all", "which library to download")
	fetchCmd.Flags().StringVar(&fetchOutput, "output", "raw/docs", "output directory")

	ingestCmd.Flags().StringVar(&ingestLibrary, "library", "all", "which library to ingest")
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "clear existing collection before ingesting")
	ingestCmd.Flags().BoolVar(&ingestStats, "stats", false, "show collection statistics and exit")
	ingestCmd.Flags().StringVar(&ingestRawPath, "raw-path", "raw/docs", "path to raw documentation")
	ingestCmd.Flags().StringVar(&qdrantHost, "qdrant-host", getEnv("QDRANT_HOST", "localhost"), "Qdrant hostname")
	ingestCmd.Flags().IntVar(&qdrantPort, "qdrant-port", getEnvInt("QDRANT_PORT", 6334), "Qdrant gRPC port")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(ingestCmd)
}

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := ghclient.NewClient()
	if err != nil {
		return fmt.Errorf("create GitHub client: %w", err)
	}
	fetcher := ghclient.NewFetcher(client)
	docs := scraper.NewScraper(fetcher, fetchOutput, scraper.DefaultDelay, nil)

	outputAbs, err := filepath.Abs(fetchOutput)
	if err != nil {
		outputAbs = fetchOutput
	}

	if fetchLibrary == "all" {
		fmt.Println("Fetching documentation for all libraries...")
		fmt.Println()

		results, err := docs.FetchAll(ctx, fetchForce)
		if err != nil {
			return err
		}

		printSummary("Download Complete", results, "files")
		fmt.Printf("\nSaved to: %s\n", outputAbs)
		return nil
	}

	src, ok := registry.Lookup(fetchLibrary)
	if !ok {
		return fmt.Errorf("unknown library: %s", fetchLibrary)
	}

	fmt.Printf("Fetching %s documentation...\n\n", fetchLibrary)
	count, err := docs.FetchLibraryDocs(ctx, src, fetchForce)
	if err != nil {
		return err
	}

	fmt.Printf("\nDownloaded %d files to %s\n", count, outputAbs)
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	embeddingClient, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, 0)

	fmt.Printf("Connecting to Qdrant at %s:%d...\n", qdrantHost, qdrantPort)
	store, err := storage.NewStore(qdrantHost, qdrantPort, embedder)
	if err != nil {
		return fmt.Errorf("connect to Qdrant: %w", err)
	}
	defer store.Close()

	if ingestStats {
		count, err := store.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Collection %q has %d chunks\n", storage.CollectionName, count)
		return nil
	}

	service := ingest.NewService(store, ingestRawPath, nil)

	var results map[string]int
	switch {
	case ingestClear:
		fmt.Println("Clearing and re-ingesting all documentation...")
		results, err = service.ClearAndReingest(ctx)
	case ingestLibrary == "all":
		fmt.Println("Ingesting documentation for all libraries...")
		results, err = service.IngestAll(ctx)
	default:
		if _, ok := registry.Lookup(ingestLibrary); !ok {
			return fmt.Errorf("unknown library: %s", ingestLibrary)
		}
		fmt.Printf("Ingesting %s documentation...\n", ingestLibrary)
		var count int
		count, err = service.IngestLibrary(ctx, ingestLibrary)
		results = map[string]int{ingestLibrary: count}
	}
	if err != nil {
		return err
	}

	printSummary("Ingest Complete", results, "chunks")

	// Verify against the store.
	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nDatabase verification: %d total chunks in collection\n", count)
	return nil
}

// printSummary prints per-library counts in registry order with a total row.
func printSummary(title string, results map[string]int, unit string) {
	fmt.Println()
	fmt.Println("==================================================")
	fmt.Println(title)
	fmt.Println("==================================================")
	total := 0
	for _, library := range registry.Libraries() {
		count, ok := results[library]
		if !ok {
			continue
		}
		fmt.Printf("  %-12s : %5d %s\n", library, count, unit)
		total += count
	}
	fmt.Println("--------------------------------------------------")
	fmt.Printf("  %-12s : %5d %s\n", "Total", total, unit)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
