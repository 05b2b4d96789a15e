package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Config keys in config.toml.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyDataDir         = "data_dir"
	KeyOllamaURL       = "ollama_url"
	KeyTopKResults     = "top_k_results"
	KeyEmbedProvider   = "embedding.provider"
	KeyEmbedModel      = "embedding.model"
	KeyEmbedBaseURL    = "embedding.base_url"
	KeyEmbedAPIKey     = "embedding.api_key"
	KeyEmbedModelDir   = "embedding.model_dir"
	KeyVectorBackend   = "vector.backend"
	KeyVectorColl      = "vector.collection"
	KeyVectorDSN       = "vector.dsn"
	KeyChunkSize       = "ingest.chunk_size"
	KeyChunkOverlap    = "ingest.chunk_overlap"
	KeyBatchSize       = "ingest.batch_size"
	KeyMaxFileSize     = "ingest.max_file_size"
	KeyIngestRateLimit = "ingest.rate_limit"
	KeyCacheEnabled    = "cache.enabled"
	KeyCacheTTL        = "cache.ttl"
	KeyWikiURL         = "wiki.base_url"
	KeyWikiName        = "wiki.name"
	KeyWikiUser        = "wiki.username"
	KeyWikiPassword    = "wiki.password"
)

// Environment variables overriding config.toml.
const (
	EnvOllamaURL         = "OLLAMA_BASE_URL"
	EnvEmbeddingProvider = "EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "EMBEDDING_MODEL"
	EnvChunkSize         = "CHUNK_SIZE"
	EnvChunkOverlap      = "CHUNK_OVERLAP"
	EnvTopKResults       = "TOP_K_RESULTS"
	EnvEnableCache       = "ENABLE_CACHE"
	EnvCacheTTL          = "CACHE_TTL"
	EnvVectorBackend     = "VECTOR_BACKEND"
	EnvVectorDSN         = "VECTOR_DSN"
	EnvWikiURL           = "XWIKI_URL"
	EnvWikiUser          = "XWIKI_USER"
	EnvWikiPassword      = "XWIKI_PASSWORD"
)

// LoadAppConfig resolves the process configuration from store, then applies
// environment overrides. Invalid values are logged and ignored.
func LoadAppConfig(store driven.ConfigStore) (domain.AppConfig, error) {
	cfg := domain.DefaultAppConfig()

	if v := store.GetString(KeyDataDir); v != "" {
		cfg.DataDir = v
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".sercha-rag", "data")
	}

	setString(&cfg.OllamaURL, store.GetString(KeyOllamaURL))
	setInt(&cfg.TopK, store.GetInt(KeyTopKResults))

	if v := store.GetString(KeyEmbedProvider); v != "" {
		cfg.Embedding.Provider = domain.AIProvider(v)
		cfg.Embedding.Model = domain.DefaultEmbeddingModels()[cfg.Embedding.Provider]
	}
	setString(&cfg.Embedding.Model, store.GetString(KeyEmbedModel))
	setString(&cfg.Embedding.BaseURL, store.GetString(KeyEmbedBaseURL))
	setString(&cfg.Embedding.APIKey, store.GetString(KeyEmbedAPIKey))
	setString(&cfg.Embedding.ModelDir, store.GetString(KeyEmbedModelDir))

	if v := store.GetString(KeyVectorBackend); v != "" {
		cfg.Vector.Backend = domain.VectorBackend(v)
	}
	setString(&cfg.Vector.Collection, store.GetString(KeyVectorColl))
	setString(&cfg.Vector.DSN, store.GetString(KeyVectorDSN))

	setInt(&cfg.Ingest.ChunkSize, store.GetInt(KeyChunkSize))
	if _, ok := store.Get(KeyChunkOverlap); ok {
		cfg.Ingest.ChunkOverlap = store.GetInt(KeyChunkOverlap)
	}
	setInt(&cfg.Ingest.BatchSize, store.GetInt(KeyBatchSize))
	if v := store.GetInt(KeyMaxFileSize); v > 0 {
		cfg.Ingest.MaxFileSize = int64(v)
	}
	if v := store.GetFloat(KeyIngestRateLimit); v > 0 {
		cfg.Ingest.RateLimit = v
	}

	if _, ok := store.Get(KeyCacheEnabled); ok {
		cfg.Cache.Enabled = store.GetBool(KeyCacheEnabled)
	}
	if v := store.GetInt(KeyCacheTTL); v > 0 {
		cfg.Cache.TTL = time.Duration(v) * time.Second
	}

	setString(&cfg.Wiki.BaseURL, store.GetString(KeyWikiURL))
	setString(&cfg.Wiki.Wiki, store.GetString(KeyWikiName))
	setString(&cfg.Wiki.Username, store.GetString(KeyWikiUser))
	setString(&cfg.Wiki.Password, store.GetString(KeyWikiPassword))

	applyEnv(&cfg)

	if !cfg.Vector.Backend.IsValid() {
		return cfg, fmt.Errorf("%w: unknown vector backend %q", domain.ErrInvalidInput, cfg.Vector.Backend)
	}
	if cfg.Vector.Backend == domain.VectorBackendPostgres && cfg.Vector.DSN == "" {
		return cfg, fmt.Errorf("%w: postgres backend requires %s or %s", domain.ErrInvalidInput, KeyVectorDSN, EnvVectorDSN)
	}
	if !cfg.Embedding.Provider.SupportsEmbeddings() {
		return cfg, fmt.Errorf("%w: %s cannot produce embeddings", domain.ErrInvalidInput, cfg.Embedding.Provider)
	}
	if cfg.Embedding.Provider == domain.AIProviderOllama && cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = cfg.OllamaURL
	}
	if cfg.Embedding.ModelDir == "" {
		cfg.Embedding.ModelDir = filepath.Join(filepath.Dir(cfg.DataDir), "models")
	}

	return cfg, nil
}

func applyEnv(cfg *domain.AppConfig) {
	if v, ok := env(EnvOllamaURL); ok {
		// The embedding server follows the generation server unless set separately.
		if cfg.Embedding.BaseURL == cfg.OllamaURL {
			cfg.Embedding.BaseURL = v
		}
		cfg.OllamaURL = v
	}
	if v, ok := env(EnvEmbeddingProvider); ok {
		cfg.Embedding.Provider = domain.AIProvider(v)
		cfg.Embedding.Model = domain.DefaultEmbeddingModels()[cfg.Embedding.Provider]
	}
	if v, ok := env(EnvEmbeddingModel); ok {
		cfg.Embedding.Model = v
	}
	envInt(EnvChunkSize, &cfg.Ingest.ChunkSize)
	envInt(EnvChunkOverlap, &cfg.Ingest.ChunkOverlap)
	envInt(EnvTopKResults, &cfg.TopK)
	if v, ok := env(EnvEnableCache); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.Enabled = b
		} else {
			logger.Warn("config: ignoring %s=%q: %v", EnvEnableCache, v, err)
		}
	}
	var ttl int
	if envInt(EnvCacheTTL, &ttl) && ttl > 0 {
		cfg.Cache.TTL = time.Duration(ttl) * time.Second
	}
	if v, ok := env(EnvVectorBackend); ok {
		cfg.Vector.Backend = domain.VectorBackend(strings.ToLower(v))
	}
	if v, ok := env(EnvVectorDSN); ok {
		cfg.Vector.DSN = v
	}
	if v, ok := env(EnvWikiURL); ok {
		cfg.Wiki.BaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := env(EnvWikiUser); ok {
		cfg.Wiki.Username = v
	}
	if v, ok := env(EnvWikiPassword); ok {
		cfg.Wiki.Password = v
	}
}

func env(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func envInt(key string, dst *int) bool {
	v, ok := env(key)
	if !ok {
		return false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.Warn("config: ignoring %s=%q", key, v)
		return false
	}
	*dst = n
	return true
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}
