package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure AnswerService implements the interfaces.
var (
	_ driving.AnswerGenerator = (*AnswerService)(nil)
	_ driven.PromptStoreAware = (*AnswerService)(nil)
)

// User-facing generation failure messages.
const (
	MsgTimeout           = "The model did not answer in time. Try again or raise ollama_timeout."
	MsgLocalUnavailable  = "Cannot connect to the local model server. Make sure Ollama is running."
	MsgLocalError        = "Local model error: "
	MsgExternalTransport = "External API request failed: "
	MsgBackendConfig     = "Generation backend is not configured: "
	MsgBlocked           = "The model declined to answer because of its content policy: "
	MsgEmptyResponse     = "The model returned an empty answer."
	MsgMalformed         = "The model returned a response that could not be read."
	MsgGenerationFailed  = "Failed to generate an answer."
)

// DefaultAnswerPrompt is the answer template: context, then question.
const DefaultAnswerPrompt = "Context:\n%s\n\nQuestion: %s\n\nAnswer briefly:"

// AnswerService generates an answer from a question and retrieved context
// using the backend selected in settings.
type AnswerService struct {
	settings    driving.SettingsService
	generators  driven.GeneratorFactory
	promptStore driven.PromptStore
}

// NewAnswerService creates an answer generator.
func NewAnswerService(settings driving.SettingsService, generators driven.GeneratorFactory) *AnswerService {
	return &AnswerService{
		settings:   settings,
		generators: generators,
	}
}

// SetPromptStore sets the store the answer template is loaded from.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Generate returns the answer text. Every failure becomes a message.
func (s *AnswerService) Generate(ctx context.Context, question, contextText string) string {
	limit := s.settings.Int(domain.SettingContextLength, 300)
	prompt := fmt.Sprintf(s.template(), Truncate(contextText, limit), question)

	backend := s.settings.Backend()
	logger.Debug("Generating with %s backend, model %s", backend.Kind(), backend.Model())

	llm, err := s.generators.ForBackend(backend)
	if err != nil {
		logger.Warn("answer: %v", err)
		return MsgBackendConfig + err.Error()
	}
	defer llm.Close() //nolint:errcheck

	if timeout := backend.Target().Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	text, err := llm.Generate(ctx, prompt, backend.Options())
	if err != nil {
		logger.Warn("answer: %v", err)
		return failureMessage(backend, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return MsgGenerationFailed
	}
	return text
}

// template returns the configured answer template, falling back to the
// default when it is missing or does not take exactly two values.
func (s *AnswerService) template() string {
	if s.promptStore == nil {
		return DefaultAnswerPrompt
	}
	tmpl, err := s.promptStore.Load(driven.PromptAnswer)
	if err != nil {
		logger.Warn("answer: load prompt: %v", err)
		return DefaultAnswerPrompt
	}
	if strings.Count(tmpl, "%s") != 2 || strings.Count(tmpl, "%") != 2 {
		logger.Warn("answer: prompt template must contain exactly two %%s verbs, using default")
		return DefaultAnswerPrompt
	}
	return tmpl
}

// failureMessage maps a generation error to its user-facing message.
func failureMessage(backend domain.GenerationBackend, err error) string {
	switch {
	case isTimeout(err):
		return MsgTimeout
	case errors.Is(err, domain.ErrContentBlocked):
		return MsgBlocked + blockReason(err)
	case errors.Is(err, domain.ErrEmptyResponse):
		return MsgEmptyResponse
	case errors.Is(err, domain.ErrMalformedResponse):
		return MsgMalformed
	}

	if backend.Kind() == domain.BackendLocal {
		if isConnectionFailure(err) {
			return MsgLocalUnavailable
		}
		return MsgLocalError + err.Error()
	}
	return MsgExternalTransport + err.Error()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionFailure(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// blockReason returns the text following the content-blocked sentinel.
func blockReason(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, domain.ErrContentBlocked.Error()); i >= 0 {
		msg = msg[i+len(domain.ErrContentBlocked.Error()):]
	}
	msg = strings.TrimLeft(msg, ": ")
	if msg == "" {
		return "unspecified"
	}
	return msg
}

// Truncate cuts s to at most limit runes. limit < 0 disables truncation.
func Truncate(s string, limit int) string {
	if limit < 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
