// Command sercha-rag indexes documents and answers questions about them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/web"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/xwiki"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/extractors"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
)

// Set via -ldflags "-X main.version=...".
var version = "dev"

// envHome overrides the default configuration directory.
const envHome = "SERCHA_RAG_HOME"

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigDir picks the flag value, then $SERCHA_RAG_HOME, then ~/.sercha-rag.
func resolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if dir := os.Getenv(envHome); dir != "" {
		return dir, nil
	}
	return file.DefaultDir()
}

// bootstrap wires the driven adapters into the core services.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	dir, err := resolveConfigDir(opts.ConfigDir)
	if err != nil {
		return nil, err
	}

	configStore, err := file.NewConfigStore(dir, file.ConfigFileName)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsStore, err := file.NewConfigStore(dir, file.SettingsFileName)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}

	cfg, err := services.LoadAppConfig(configStore)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if configStore.GetString(services.KeyDataDir) == "" {
		cfg.DataDir = filepath.Join(dir, "data")
	}
	if configStore.GetString(services.KeyEmbedModelDir) == "" {
		cfg.Embedding.ModelDir = filepath.Join(dir, "models")
	}
	logger.Debug("config dir %s, data dir %s, vector backend %s", dir, cfg.DataDir, cfg.Vector.Backend)

	provider, err := openCollectionProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	index := vectorindex.New(provider, vectorindex.WithCollection(cfg.Vector.Collection))

	embedder, err := ai.CreateEmbeddingService(&cfg.Embedding)
	if err != nil {
		index.Close() //nolint:errcheck
		return nil, fmt.Errorf("create embedding service: %w", err)
	}
	if embedder == nil {
		index.Close() //nolint:errcheck
		return nil, errors.New("embedding provider is not configured")
	}

	generators := ai.NewGeneratorFactory(cfg.OllamaURL)
	settings := services.NewSettingsService(settingsStore, ai.NewConfigValidator(generators))

	scheduler := services.NewScheduler(domain.DefaultSchedulerConfig())

	answers := services.NewAnswerService(settings, generators)
	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		logger.Warn("prompt templates unavailable, using built-in: %v", err)
	} else {
		answers.SetPromptStore(prompts)
		scheduler.Register(domain.TaskIDPromptReload, "Prompt reload", services.PromptReloadTask(prompts))
	}

	queryOpts := []services.QueryOption{services.WithDefaultTopK(cfg.TopK)}
	if cfg.Cache.Enabled {
		cache := services.NewResultCache(cfg.Cache.TTL)
		queryOpts = append(queryOpts, services.WithResultCache(cache))
		scheduler.Register(domain.TaskIDCacheCleanup, "Cache cleanup", services.CacheCleanupTask(cache))
	}
	query := services.NewQueryService(embedder, index, answers, settings, queryOpts...)
	settings.OnChange(query.ClearCache)

	ingestOpts := []services.IngestOption{
		services.WithPageFetcher(web.NewFetcher()),
		services.WithQueryService(query),
		services.WithSettings(settings),
		services.WithIndexInfo(services.IndexInfo{
			Backend:    string(cfg.Vector.Backend),
			Collection: cfg.Vector.Collection,
		}),
	}
	if cfg.Wiki.BaseURL != "" {
		wiki, err := xwiki.NewSource(xwiki.Config{
			BaseURL:  cfg.Wiki.BaseURL,
			Wiki:     cfg.Wiki.Wiki,
			Username: cfg.Wiki.Username,
			Password: cfg.Wiki.Password,
		})
		if err != nil {
			logger.Warn("wiki import disabled: %v", err)
		} else {
			ingestOpts = append(ingestOpts, services.WithWikiSource(wiki))
		}
	}

	ingest := services.NewIngestService(
		chunker.New(
			chunker.WithChunkSize(cfg.Ingest.ChunkSize),
			chunker.WithOverlap(cfg.Ingest.ChunkOverlap),
		),
		embedder,
		index,
		extractors.Default(),
		cfg,
		ingestOpts...,
	)

	return &cli.Services{
		Query:     query,
		Ingest:    ingest,
		Settings:  settings,
		Scheduler: scheduler,
		Close: func() error {
			return errors.Join(embedder.Close(), index.Close())
		},
	}, nil
}

// openCollectionProvider opens the storage behind the vector index.
func openCollectionProvider(ctx context.Context, cfg domain.AppConfig) (driven.CollectionProvider, error) {
	switch cfg.Vector.Backend {
	case domain.VectorBackendMemory:
		return memory.NewCollectionProvider(), nil
	case domain.VectorBackendPostgres:
		p, err := postgres.NewCollectionProvider(ctx, cfg.Vector.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return p, nil
	default:
		p, err := sqlite.NewCollectionProvider(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return p, nil
	}
}
