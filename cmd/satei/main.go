// Package main is the Satei CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hyperjump/satei/internal/adjudicate"
	"github.com/hyperjump/satei/internal/config"
	"github.com/hyperjump/satei/internal/extract"
	"github.com/hyperjump/satei/internal/ingest"
	"github.com/hyperjump/satei/internal/kb"
	"github.com/hyperjump/satei/internal/llm"
	"github.com/hyperjump/satei/internal/retrieval"
	"github.com/hyperjump/satei/internal/server"
	"github.com/hyperjump/satei/internal/watcher"
	"github.com/hyperjump/satei/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/satei/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
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
	// .env is optional; the API key can come from the real environment.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "build":
		runBuild()
	case "query":
		runQuery()
	case "version", "--version", "-v":
		fmt.Printf("satei version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// components holds the wired pipeline shared by all commands.
type components struct {
	Ingestor    *ingest.Ingestor
	Retriever   *retrieval.Retriever
	Adjudicator *adjudicate.Adjudicator
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%s is not set (put it in the environment or a .env file)", cfg.LLM.APIKeyEnv)
	}
	client, err := llm.NewClient(llm.ClientOptions{
		APIKey:          apiKey,
		BaseURL:         cfg.LLM.BaseURL,
		DocumentModel:   cfg.LLM.EmbeddingModel,
		QueryModel:      cfg.LLM.QueryEmbeddingModel,
		GenerationModel: cfg.LLM.GenerationModel,
		Dimensions:      cfg.LLM.Dimensions,
	})
	if err != nil {
		return nil, err
	}
	chunker, err := ingest.NewChunker(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	var expander *retrieval.Expander
	if cfg.Retrieval.ExpansionEnabledOrDefault() {
		expander = retrieval.NewExpander(client, logger)
	}
	return &components{
		Ingestor:    ingest.NewIngestor(extract.NewExtractor(), client, chunker, ingest.WithLogger(logger)),
		Retriever:   retrieval.NewRetriever(client, expander, logger),
		Adjudicator: adjudicate.NewAdjudicator(client, logger),
	}, nil
}

// loadOrBuildPersistentKB loads the saved embeddings/chunks pair when both
// files exist, otherwise builds from the corpus directory and persists the
// result. Returns nil (with a warning) when neither works, so the server can
// still serve upload queries.
func loadOrBuildPersistentKB(ctx context.Context, cfg *config.Config, comps *components, logger *zap.Logger) *kb.KnowledgeBase {
	if kb.Exists(cfg.Storage.EmbeddingsPath, cfg.Storage.ChunksPath) {
		base, err := kb.Load(cfg.Storage.EmbeddingsPath, cfg.Storage.ChunksPath, cfg.LLM.Dimensions)
		if err == nil {
			logger.Info("loaded persisted knowledge base", zap.Int("chunks", base.Size()))
			return base
		}
		logger.Warn("persisted knowledge base unusable, rebuilding", zap.Error(err))
	}
	base, err := comps.Ingestor.BuildFromCorpus(ctx, cfg.Storage.CorpusDir)
	if err != nil {
		logger.Warn("persistent knowledge base unavailable; only upload queries will work",
			zap.String("corpus_dir", cfg.Storage.CorpusDir), zap.Error(err))
		return nil
	}
	if err := kb.Save(base, cfg.Storage.EmbeddingsPath, cfg.Storage.ChunksPath); err != nil {
		logger.Warn("failed to persist knowledge base", zap.Error(err))
	}
	return base
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolvedConfigPath))

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}

	persistent := loadOrBuildPersistentKB(context.Background(), cfg, comps, logger)
	srv := server.NewServer(comps.Ingestor, comps.Retriever, comps.Adjudicator, cfg, logger, persistent)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.Enabled {
		w := watcher.NewWatcher(cfg.Storage.CorpusDir, func() {
			base, err := comps.Ingestor.BuildFromCorpus(context.Background(), cfg.Storage.CorpusDir)
			if err != nil {
				logger.Warn("watch rebuild failed", zap.Error(err))
				return
			}
			if err := kb.Save(base, cfg.Storage.EmbeddingsPath, cfg.Storage.ChunksPath); err != nil {
				logger.Warn("watch rebuild persist failed", zap.Error(err))
			}
			srv.SwapPersistentKB(base)
		},
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond),
			watcher.WithLogger(logger),
		)
		if err := w.Start(watchCtx); err != nil {
			logger.Warn("Failed to start corpus watcher", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	base, err := comps.Ingestor.BuildFromCorpus(context.Background(), cfg.Storage.CorpusDir)
	if err != nil {
		logger.Fatal("Knowledge base build failed", zap.Error(err))
	}
	if err := kb.Save(base, cfg.Storage.EmbeddingsPath, cfg.Storage.ChunksPath); err != nil {
		logger.Fatal("Knowledge base save failed", zap.Error(err))
	}
	fmt.Printf("Built knowledge base: %d chunks -> %s, %s\n",
		base.Size(), cfg.Storage.EmbeddingsPath, cfg.Storage.ChunksPath)
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	query := fs.String("q", "", "the claim query to adjudicate")
	file := fs.String("file", "", "adjudicate against this document instead of the persistent knowledge base")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if *query == "" {
		fmt.Println("query: -q is required")
		fs.PrintDefaults()
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}

	ctx := context.Background()
	var base *kb.KnowledgeBase
	if *file != "" {
		base, err = comps.Ingestor.BuildFromFile(ctx, *file)
	} else {
		base, err = kb.Load(cfg.Storage.EmbeddingsPath, cfg.Storage.ChunksPath, cfg.LLM.Dimensions)
		if err != nil {
			logger.Info("no persisted knowledge base, building from corpus", zap.Error(err))
			base, err = comps.Ingestor.BuildFromCorpus(ctx, cfg.Storage.CorpusDir)
		}
	}
	if err != nil {
		logger.Fatal("Knowledge base unavailable", zap.Error(err))
	}

	chunks, err := comps.Retriever.Retrieve(ctx, *query, base, cfg.Retrieval.TopK)
	if err != nil {
		logger.Fatal("Retrieval failed", zap.Error(err))
	}
	decision, err := comps.Adjudicator.Decide(ctx, *query, chunks)
	if err != nil {
		logger.Fatal("Adjudication failed", zap.Error(err))
	}
	out, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		logger.Fatal("Encoding decision failed", zap.Error(err))
	}
	fmt.Println(string(out))
}

func printUsage() {
	fmt.Println(`satei - policy claim adjudication over retrieved clauses

Usage:
  satei server [-config path] [-debug]     start the HTTP API server
  satei build  [-config path]              build and persist the knowledge base
  satei query  -q "..." [-file doc]        adjudicate one claim from the CLI
  satei version                            print version

The server answers POST /api/v1/query against the persistent knowledge base,
POST /api/v1/query/upload for one-off documents, and POST /api/v1/rebuild to
rebuild from the corpus directory.`)
}
