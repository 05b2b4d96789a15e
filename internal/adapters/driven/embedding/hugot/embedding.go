// Package hugot provides an in-process embedding service running
// sentence-transformer ONNX models through the hugot Go backend.
package hugot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel    = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultOnnxFile = "onnx/model.onnx"
)

// Config holds configuration for the hugot embedding service.
type Config struct {
	// Model is the Hugging Face model id (default: all-MiniLM-L6-v2).
	Model string

	// ModelDir is where models are downloaded. Defaults to ~/.sercha-rag/models.
	ModelDir string

	// OnnxFile is the ONNX file inside the model repository.
	OnnxFile string
}

type runFunc func(texts []string) ([][]float32, error)

// EmbeddingService embeds text locally. The model is downloaded and loaded
// on first use.
type EmbeddingService struct {
	model    string
	modelDir string
	onnxFile string

	mu      sync.Mutex
	run     runFunc
	destroy func() error
}

// NewEmbeddingService creates a hugot embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.OnnxFile == "" {
		cfg.OnnxFile = DefaultOnnxFile
	}
	if cfg.ModelDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		cfg.ModelDir = filepath.Join(home, ".sercha-rag", "models")
	}

	return &EmbeddingService{
		model:    cfg.Model,
		modelDir: cfg.ModelDir,
		onnxFile: cfg.OnnxFile,
	}, nil
}

// modelPath returns the local directory of the model, downloading it if absent.
func (s *EmbeddingService) modelPath() (string, error) {
	path := filepath.Join(s.modelDir, strings.ReplaceAll(s.model, "/", "_"))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat model directory: %w", err)
	}

	if err := os.MkdirAll(s.modelDir, 0755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}

	logger.Info("hugot: downloading %s into %s", s.model, s.modelDir)
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = s.onnxFile
	downloaded, err := hugot.DownloadModel(s.model, s.modelDir, opts)
	if err != nil {
		return "", fmt.Errorf("download model %s: %w", s.model, err)
	}
	return downloaded, nil
}

// pipeline lazily creates the hugot session and feature extraction pipeline.
func (s *EmbeddingService) pipeline() (runFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		return s.run, nil
	}

	path, err := s.modelPath()
	if err != nil {
		return nil, fmt.Errorf("%w: hugot: %w", domain.ErrEmbeddingUnavailable, err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("%w: hugot: create session: %w", domain.ErrEmbeddingUnavailable, err)
	}

	p, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: path,
		Name:      "sercha-rag-embedder",
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			logger.Warn("hugot: destroy session: %v", destroyErr)
		}
		return nil, fmt.Errorf("%w: hugot: create pipeline: %w", domain.ErrEmbeddingUnavailable, err)
	}

	s.run = func(texts []string) ([][]float32, error) {
		out, err := p.RunPipeline(texts)
		if err != nil {
			return nil, err
		}
		return out.Embeddings, nil
	}
	s.destroy = session.Destroy
	return s.run, nil
}

// Embed returns the embedding of text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in one pipeline run.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run, err := s.pipeline()
	if err != nil {
		return nil, err
	}

	vectors, err := run(texts)
	if err != nil {
		return nil, fmt.Errorf("%w: hugot: run pipeline: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: hugot: got %d embeddings for %d texts",
			domain.ErrEmbeddingUnavailable, len(vectors), len(texts))
	}
	return vectors, nil
}

// Dimensions returns the vector size of known models, or 0.
func (s *EmbeddingService) Dimensions() int {
	return domain.EmbeddingDimensions()[s.model]
}

// ModelName returns the model id.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping loads the model, downloading it if needed.
func (s *EmbeddingService) Ping(_ context.Context) error {
	_, err := s.pipeline()
	return err
}

// Close destroys the hugot session.
func (s *EmbeddingService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.run = nil
	if s.destroy == nil {
		return nil
	}
	err := s.destroy()
	s.destroy = nil
	return err
}
