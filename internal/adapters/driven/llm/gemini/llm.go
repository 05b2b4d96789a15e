// Package gemini provides an LLM service for Google Gemini models using the
// generativelanguage REST client.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 120 * time.Second
)

// Finish reasons that still carry a usable answer.
const (
	finishStop      = "STOP"
	finishMaxTokens = "MAX_TOKENS"
	finishSafety    = "SAFETY"
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Google AI Studio key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the model to use (default: gemini-2.0-flash).
	Model string

	// Timeout bounds each request (default: 120s).
	Timeout time.Duration
}

// LLMService generates text through models.generateContent.
type LLMService struct {
	svc     *generativelanguage.Service
	model   string
	timeout time.Duration
}

// NewLLMService creates a Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini: API key is required", domain.ErrInvalidInput)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}

	svc, err := generativelanguage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &LLMService{
		svc:     svc,
		model:   strings.TrimPrefix(cfg.Model, "models/"),
		timeout: cfg.Timeout,
	}, nil
}

// Generate sends prompt as a single user turn.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{{
			Role:  "user",
			Parts: []*generativelanguage.Part{{Text: prompt}},
		}},
		GenerationConfig: &generativelanguage.GenerationConfig{
			MaxOutputTokens: int64(opts.MaxTokens),
			Temperature:     opts.Temperature,
			StopSequences:   opts.StopWords,
			ForceSendFields: []string{"Temperature"},
		},
	}

	resp, err := s.svc.Models.GenerateContent("models/"+s.model, req).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return "", fmt.Errorf("%w: gemini: status %d: %s", domain.ErrLLMUnavailable, gerr.Code, gerr.Message)
		}
		return "", fmt.Errorf("%w: gemini: %w", domain.ErrLLMUnavailable, err)
	}
	return answerText(resp)
}

// answerText extracts the answer from a response, classifying policy stops
// and empty output.
func answerText(resp *generativelanguage.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: gemini returned no response", domain.ErrMalformedResponse)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != "BLOCK_REASON_UNSPECIFIED" {
		return "", fmt.Errorf("%w: gemini: prompt blocked: %s", domain.ErrContentBlocked, fb.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", fmt.Errorf("%w: gemini returned no candidates", domain.ErrEmptyResponse)
	}

	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case "", finishStop, finishMaxTokens:
	case finishSafety:
		var blocked []string
		for _, r := range cand.SafetyRatings {
			if r != nil && r.Blocked {
				blocked = append(blocked, r.Category)
			}
		}
		if len(blocked) == 0 {
			return "", fmt.Errorf("%w: gemini: safety", domain.ErrContentBlocked)
		}
		return "", fmt.Errorf("%w: gemini: safety: %s", domain.ErrContentBlocked, strings.Join(blocked, ", "))
	default:
		return "", fmt.Errorf("%w: gemini: generation stopped: %s", domain.ErrContentBlocked, cand.FinishReason)
	}

	var text strings.Builder
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p != nil {
				text.WriteString(p.Text)
			}
		}
	}
	answer := strings.TrimSpace(text.String())
	if answer == "" {
		return "", fmt.Errorf("%w: gemini: no content (finish reason %s)", domain.ErrEmptyResponse, cand.FinishReason)
	}
	return answer, nil
}

// ModelName returns the model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping fetches the model description.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.svc.Models.Get("models/" + s.model).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: gemini: ping: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
