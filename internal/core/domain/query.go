package domain

// NoDocumentsAnswer is returned when retrieval finds nothing to answer from.
const NoDocumentsAnswer = "No relevant documents found. Upload documents to the knowledge base and try again."

// EmptyQuestionAnswer is returned for blank questions.
const EmptyQuestionAnswer = "Question cannot be empty."

// SourceExcerpt is one retrieved chunk of a source.
type SourceExcerpt struct {
	Ordinal  int     `json:"chunk"`
	Text     string  `json:"text"`
	Distance float64 `json:"distance"`
}

// SourceSummary aggregates the retrieved chunks of one source.
// Chunks are sorted by ordinal.
type SourceSummary struct {
	SourceID string          `json:"source_id"`
	Name     string          `json:"name"`
	Type     SourceType      `json:"type"`
	URL      string          `json:"url,omitempty"`
	Site     string          `json:"site,omitempty"`
	Space    string          `json:"space,omitempty"`
	Chunks   []SourceExcerpt `json:"chunks"`
}

// QueryResult is the answer to one question.
type QueryResult struct {
	Question     string          `json:"question"`
	Answer       string          `json:"answer"`
	Context      []string        `json:"context"`
	Sources      []SourceSummary `json:"sources"`
	SourcesCount int             `json:"sources_count"`
}

// Clone returns a deep copy so cached results cannot be mutated by callers.
func (r QueryResult) Clone() QueryResult {
	out := r
	if r.Context != nil {
		out.Context = append([]string(nil), r.Context...)
	}
	if r.Sources != nil {
		out.Sources = make([]SourceSummary, len(r.Sources))
		for i, s := range r.Sources {
			s.Chunks = append([]SourceExcerpt(nil), s.Chunks...)
			out.Sources[i] = s
		}
	}
	return out
}

// IndexStats describes the current state of the knowledge base.
type IndexStats struct {
	Records         int    `json:"documents_count"`
	Backend         string `json:"vector_backend"`
	Collection      string `json:"collection"`
	EmbeddingModel  string `json:"embedding_model"`
	GenerationModel string `json:"model"`
	ChunkSize       int    `json:"chunk_size"`
	TopK            int    `json:"top_k_results"`
	CacheEnabled    bool   `json:"cache_enabled"`
	CacheSize       int    `json:"cache_size"`
}
