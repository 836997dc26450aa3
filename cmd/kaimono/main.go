// Package main is the Kaimono CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kaimono/internal/cli"
	"github.com/hyperjump/kaimono/internal/config"
	"github.com/hyperjump/kaimono/internal/indexer"
	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/internal/server"
	"github.com/hyperjump/kaimono/internal/watcher"
	"github.com/hyperjump/kaimono/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kaimono/config.yaml"

// loadConfig loads config from path. When path is the default and config.yaml exists in
// the current directory, that file is used instead so "kaimono server" works from a
// project checkout. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "import":
		runImport()
	case "delete":
		runDelete()
	case "reindex":
		runReindex()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kaimono version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config, creates the logger and initializes components. It exits the
// process on failure.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (per-candidate ranking, feed events, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.Watch.Directories) > 0 {
		idx := components.Indexer
		exts := cfg.Watch.Extensions
		watchSvc := watcher.NewWatcher(cfg.Watch,
			func(path string) {
				res, err := idx.ImportFile(ctx, path, exts)
				if err != nil {
					logger.Warn("feed import failed", zap.String("path", path), zap.Error(err))
					return
				}
				if res != nil && len(res.Failed) > 0 {
					logger.Warn("feed import had failures", zap.String("path", path), zap.Int("failed", len(res.Failed)))
				}
			},
			idx.Forget,
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		go watchSvc.SyncExistingFiles()
		defer watchSvc.Stop()
	}

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Catalog,
		cfg,
		server.WithLogger(logger),
		server.WithMetricsHandler(components.Metrics.Handler()),
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kaimono search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  kaimono search gold necklace
  kaimono search --category jewelry --limit 5 "gold necklace"
  kaimono search --image ./dress.jpg red dress
  kaimono search --image ./dress.jpg                  # image-only search
  kaimono search --server http://localhost:8080 --output json headphones
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query to
// the front so flag.Parse sees them; the flag package stops at the first non-flag.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", "", "server URL; empty searches the catalog and index directly")
	limit := fs.Int("limit", 0, "number of results (0 = configured default)")
	category := fs.String("category", "", "restrict results to a category")
	owner := fs.String("owner", "", "restrict results to one owner (shop) id")
	minScore := fs.Float64("min-score", 0, "vector score threshold (0 = configured default)")
	imagePath := fs.String("image", "", "image file to search with")
	outputFormat := fs.String("output", "text", "output format: text, compact or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	query, err := newSearchQuery(fs.Args(), *imagePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		printSearchUsage(fs)
		os.Exit(1)
	}
	query.Category = *category
	query.OwnerID = *owner
	query.Limit = *limit
	query.MinScore = *minScore

	ctx := context.Background()
	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = cli.NewClient(*serverURL, 30*time.Second).Search(ctx, query)
	} else {
		_, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		response, err = components.Engine.Search(ctx, query)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// newSearchQuery builds a query from positional args and an optional image file.
func newSearchQuery(args []string, imagePath string) (*models.Query, error) {
	q := &models.Query{Text: buildSearchQuery(args)}
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		q.Image = data
	}
	if !q.HasText() && !q.HasImage() {
		return nil, errors.New("a query or --image is required")
	}
	return q, nil
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fmt.Println("Usage: kaimono import [flags] <file-or-directory>...")
		os.Exit(1)
	}

	cfg, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	failed := false
	for _, path := range fs.Args() {
		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to stat %s: %v\n", path, err)
			failed = true
			continue
		}
		var res *indexer.BatchResult
		if info.IsDir() {
			res, err = components.Indexer.ImportDirectory(ctx, path, cfg.Watch.Extensions)
		} else {
			res, err = components.Indexer.ImportFile(ctx, path, nil)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Import of %s failed: %v\n", path, err)
			failed = true
		}
		if res != nil {
			writeBatchResult(os.Stdout, path, res)
			failed = failed || len(res.Failed) > 0
		}
	}
	if failed {
		os.Exit(1)
	}
}

func writeBatchResult(w io.Writer, path string, res *indexer.BatchResult) {
	fmt.Fprintf(w, "Imported %d product(s) from %s\n", res.Indexed, path)
	for _, f := range res.Failed {
		id := f.ID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "  item %d (id %s): %s\n", f.Index, id, f.Error)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fmt.Println("Usage: kaimono delete [flags] <product-id>...")
		os.Exit(1)
	}

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	failed := false
	for _, id := range fs.Args() {
		if err := components.Indexer.DeleteProduct(context.Background(), id); err != nil {
			fmt.Fprintf(os.Stderr, "Deletion of %s failed: %v\n", id, err)
			failed = true
			continue
		}
		fmt.Printf("Product deleted: %s\n", id)
	}
	if failed {
		os.Exit(1)
	}
}

func runReindex() {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	_, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	start := time.Now()
	n, err := components.Indexer.Reindex(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reindex failed after %d product(s): %v\n", n, err)
		os.Exit(1)
	}
	fmt.Printf("Reindexed %d product(s) in %s\n", n, time.Since(start).Round(time.Millisecond))
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = read catalog and index directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	ctx := context.Background()
	var status map[string]any
	if *serverURL != "" {
		res, err := cli.NewClient(*serverURL, 10*time.Second).Status(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = res
	} else {
		cfg, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		stats, err := components.Indexer.Stats(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = map[string]any{
			"products":     stats.Products,
			"index_points": stats.Points,
			"config": map[string]any{
				"vector_index_type":    stats.IndexType,
				"embedding_provider":   cfg.Embedding.Provider,
				"embedding_dimensions": cfg.Embedding.Dimensions,
				"database_path":        cfg.Storage.DatabasePath,
			},
		}
	}

	switch *outputFormat {
	case "json":
		if err := cli.WriteJSON(os.Stdout, status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		writeStatusText(os.Stdout, status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func writeStatusText(w io.Writer, status map[string]any) {
	fmt.Fprintf(w, "products:           %v   # catalog records\n", status["products"])
	fmt.Fprintf(w, "index_points:       %v   # vectors in the index\n", status["index_points"])
	if v, ok := status["disk_usage_bytes"]; ok {
		fmt.Fprintf(w, "disk_usage_bytes:   %v\n", v)
	}
	cfg, ok := status["config"].(map[string]any)
	if !ok {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	for _, key := range []string{
		"vector_index_type", "embedding_provider", "embedding_dimensions",
		"database_path", "category_policies", "catalog_cache",
	} {
		if v, ok := cfg[key]; ok {
			fmt.Fprintf(w, "%-20s%v\n", key+":", v)
		}
	}
}

func printUsage() {
	fmt.Println(`kaimono - Product search over a vector index with semantic re-ranking

Usage:
  kaimono server [flags]                Start the HTTP server (and feed watcher)
  kaimono search [flags] <query>        Search products
  kaimono import [flags] <path>...      Import products from .json, .csv or .xlsx files
  kaimono delete [flags] <id>...        Delete products
  kaimono reindex [flags]               Re-embed every catalog product
  kaimono status [flags]                Show catalog and index status
  kaimono version                       Show version
  kaimono help                          Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/kaimono/config.yaml)
  --debug            Enable debug logging (server, import, reindex)

Search Flags:
  --server string    Server URL. Empty (default) searches the catalog and index directly.
  --limit int        Number of results (default from config)
  --category string  Category filter
  --owner string     Owner (shop) filter
  --min-score float  Vector score threshold (default from config)
  --image string     Image file for image or multimodal search
  --output string    Output format: text, compact or json (default: text)

Status Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct mode.
  --output string    Output format: text or json (default: text)

Examples:
  kaimono server
  kaimono import ./feeds/products.csv
  kaimono search gold necklace
  kaimono search --output json --category electronics headphones
  kaimono delete sku-123
  kaimono status --output json`)
}
