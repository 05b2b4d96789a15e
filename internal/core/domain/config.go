package domain

import "time"

// VectorBackend selects the collection provider behind the vector index.
type VectorBackend string

// Available vector backends.
const (
	VectorBackendMemory   VectorBackend = "memory"
	VectorBackendSQLite   VectorBackend = "sqlite"
	VectorBackendPostgres VectorBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendSQLite, VectorBackendPostgres:
		return true
	default:
		return false
	}
}

// DefaultCollection is the name of the single collection the pipeline uses.
const DefaultCollection = "documents"

// VectorSettings configures the vector index.
type VectorSettings struct {
	Backend    VectorBackend
	Collection string

	// DSN is the postgres connection string (postgres backend only).
	DSN string
}

// IngestSettings configures chunking and embedding during ingestion.
type IngestSettings struct {
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	MaxFileSize  int64

	// RateLimit caps embedding requests per second. Zero disables throttling.
	RateLimit float64
}

// CacheSettings configures the query result cache.
type CacheSettings struct {
	Enabled bool
	TTL     time.Duration
}

// WikiSettings points wiki imports at an XWiki instance. Imports are
// unavailable while BaseURL is empty.
type WikiSettings struct {
	// BaseURL is the XWiki root, e.g. http://localhost:8080/xwiki.
	BaseURL  string
	Wiki     string
	Username string
	Password string
}

// AppConfig is the process configuration resolved at start-up.
type AppConfig struct {
	// DataDir holds the SQLite database and downloaded models.
	DataDir string

	// OllamaURL is the local generation server.
	OllamaURL string

	// TopK is the retrieval depth used when top_k_results is not set.
	TopK int

	Embedding EmbeddingSettings
	Vector    VectorSettings
	Ingest    IngestSettings
	Cache     CacheSettings
	Wiki      WikiSettings
}

// DefaultAppConfig returns the configuration used when nothing is set.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		OllamaURL: "http://localhost:11434",
		TopK:      DefaultTopKResults,
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
			BaseURL:  "http://localhost:11434",
		},
		Vector: VectorSettings{
			Backend:    VectorBackendSQLite,
			Collection: DefaultCollection,
		},
		Ingest: IngestSettings{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			BatchSize:    32,
			MaxFileSize:  10 << 20,
		},
		Cache: CacheSettings{
			Enabled: true,
			TTL:     time.Hour,
		},
		Wiki: WikiSettings{
			Wiki: "xwiki",
		},
	}
}
