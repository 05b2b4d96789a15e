package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view ViewType
		want string
	}{
		{ViewMenu, "menu"},
		{ViewAsk, "ask"},
		{ViewStats, "stats"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.view.String())
		})
	}
}

func TestAnswerReceived(t *testing.T) {
	msg := AnswerReceived{Result: domain.QueryResult{
		Question:     "What is Go?",
		Answer:       "A language.",
		SourcesCount: 1,
	}}

	assert.Equal(t, "A language.", msg.Result.Answer)
	assert.Equal(t, 1, msg.Result.SourcesCount)
}

func TestStatsLoaded(t *testing.T) {
	t.Run("with stats", func(t *testing.T) {
		msg := StatsLoaded{Stats: &domain.IndexStats{Records: 3}}
		assert.NoError(t, msg.Err)
		assert.Equal(t, 3, msg.Stats.Records)
	})

	t.Run("with error", func(t *testing.T) {
		msg := StatsLoaded{Err: errors.New("index offline")}
		assert.Nil(t, msg.Stats)
		assert.EqualError(t, msg.Err, "index offline")
	})
}
