// Package stats provides the index statistics view for the TUI.
package stats

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// View shows the record count and active configuration of the index.
type View struct {
	styles        *styles.Styles
	ingestService driving.IngestService
	ctx           context.Context

	stats   *domain.IndexStats
	loading bool
	err     error
	width   int
	height  int
}

// NewView creates a stats view. ingestService may be nil.
func NewView(s *styles.Styles, ingestService driving.IngestService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:        s,
		ingestService: ingestService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
	}
}

// WithContext sets the context used to load statistics.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the statistics.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	svc, ctx := v.ingestService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.StatsLoaded{Err: ErrNoIngestService}
		}
		stats, err := svc.Stats(ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

// Update handles messages for the stats view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.StatsLoaded:
		v.loading = false
		v.stats = msg.Stats
		v.err = msg.Err
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			v.loading = true
			return v, v.load()
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
	}
	return v, nil
}

func (v *View) fields() [][2]string {
	s := v.stats
	cache := "off"
	if s.CacheEnabled {
		cache = fmt.Sprintf("on (%d entries)", s.CacheSize)
	}
	return [][2]string{
		{"Records", fmt.Sprint(s.Records)},
		{"Backend", s.Backend},
		{"Collection", s.Collection},
		{"Embeddings", s.EmbeddingModel},
		{"Model", s.GenerationModel},
		{"Chunk size", fmt.Sprint(s.ChunkSize)},
		{"Top K", fmt.Sprint(s.TopK)},
		{"Cache", cache},
	}
}

// View renders the statistics.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Index Statistics"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 10), 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.stats == nil:
		b.WriteString(v.styles.Muted.Render("No statistics available"))
	default:
		for _, f := range v.fields() {
			b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("%-12s", f[0]+":")))
			b.WriteString(v.styles.Normal.Render(" " + f[1]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("[r] refresh  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Stats returns the last loaded statistics.
func (v *View) Stats() *domain.IndexStats {
	return v.stats
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
