package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func newTestService(t *testing.T, status int, body string) *LLMService {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	svc, err := NewLLMService(context.Background(), Config{
		APIKey:  "secret",
		BaseURL: server.URL,
		Model:   "models/gemini-test",
	})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(context.Background(), Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLLMService_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		cfg, ok := req["generationConfig"].(map[string]any)
		require.True(t, ok)
		assert.InDelta(t, 2048, cfg["maxOutputTokens"], 1e-9)
		assert.InDelta(t, 0.3, cfg["temperature"], 1e-9)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hello"},{"text":" there"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(context.Background(), Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())

	out, err := svc.Generate(context.Background(), "hi", driven.GenerateOptions{MaxTokens: 2048, Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", out)
}

func TestLLMService_Generate_Classification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  error
		wantText string
	}{
		{
			name:     "prompt blocked",
			status:   http.StatusOK,
			body:     `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			wantErr:  domain.ErrContentBlocked,
			wantText: "prompt blocked: SAFETY",
		},
		{
			name:   "safety finish with categories",
			status: http.StatusOK,
			body: `{"candidates":[{"finishReason":"SAFETY","safetyRatings":[
				{"category":"HARM_CATEGORY_HARASSMENT","probability":"HIGH","blocked":true},
				{"category":"HARM_CATEGORY_HATE_SPEECH","probability":"LOW"}]}]}`,
			wantErr:  domain.ErrContentBlocked,
			wantText: "HARM_CATEGORY_HARASSMENT",
		},
		{
			name:     "other finish reason",
			status:   http.StatusOK,
			body:     `{"candidates":[{"finishReason":"RECITATION"}]}`,
			wantErr:  domain.ErrContentBlocked,
			wantText: "RECITATION",
		},
		{
			name:     "max tokens without parts",
			status:   http.StatusOK,
			body:     `{"candidates":[{"content":{"role":"model"},"finishReason":"MAX_TOKENS"}]}`,
			wantErr:  domain.ErrEmptyResponse,
			wantText: "MAX_TOKENS",
		},
		{
			name:    "no candidates",
			status:  http.StatusOK,
			body:    `{"candidates":[]}`,
			wantErr: domain.ErrEmptyResponse,
		},
		{
			name:    "api error",
			status:  http.StatusForbidden,
			body:    `{"error":{"code":403,"message":"API key not valid"}}`,
			wantErr: domain.ErrLLMUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.status, tt.body)

			_, err := svc.Generate(context.Background(), "q", driven.GenerateOptions{MaxTokens: 10})

			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantText != "" {
				assert.Contains(t, err.Error(), tt.wantText)
			}
		})
	}
}

func TestAnswerText_NilResponse(t *testing.T) {
	_, err := answerText(nil)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}
