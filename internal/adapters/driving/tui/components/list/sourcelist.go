// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SourceList displays the sources behind an answer in a navigable list.
// The selected source can be expanded to show its retrieved excerpts.
type SourceList struct {
	sources  []domain.SourceSummary
	selected int
	expanded bool
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates a new source list component.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "enter", " ":
			l.ToggleExpanded()
		}
	}
	return l, nil
}

// View renders the list.
func (l *SourceList) View() string {
	if len(l.sources) == 0 {
		return l.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(l.sources)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.sources))), "")

	// Each source takes two lines.
	visible := max((l.height-2)/2, 1)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.sources))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderSource(i, &l.sources[i]))
		if i == l.selected && l.expanded {
			lines = append(lines, l.renderExcerpts(&l.sources[i]))
		}
	}

	return strings.Join(lines, "\n")
}

func (l *SourceList) renderSource(index int, src *domain.SourceSummary) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	name := truncate(src.Name, max(l.width-20, 10))
	label := fmt.Sprintf("%s%s [%s]", indicator, name, src.Type)

	var titleLine string
	if index == l.selected {
		titleLine = l.styles.Selected.Render(label)
	} else {
		titleLine = l.styles.Normal.Render(label)
	}

	detail := fmt.Sprintf("%d chunk(s)", len(src.Chunks))
	switch {
	case src.URL != "":
		detail = src.URL + "  " + detail
	case src.Space != "":
		detail = src.Space + "  " + detail
	}

	return titleLine + "\n" + l.styles.Muted.Render("    "+truncate(detail, max(l.width-6, 20)))
}

func (l *SourceList) renderExcerpts(src *domain.SourceSummary) string {
	width := max(l.width-8, 20)
	lines := make([]string, 0, len(src.Chunks))
	for _, c := range src.Chunks {
		text := strings.Join(strings.Fields(c.Text), " ")
		lines = append(lines, l.styles.Excerpt.Render(
			fmt.Sprintf("      #%d %s", c.Ordinal, truncate(text, width))))
	}
	return strings.Join(lines, "\n")
}

// truncate shortens s to limit runes, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}

// SetSources replaces the list contents and resets the selection.
func (l *SourceList) SetSources(sources []domain.SourceSummary) {
	l.sources = sources
	l.selected = 0
	l.expanded = false
}

// Sources returns the current sources.
func (l *SourceList) Sources() []domain.SourceSummary {
	return l.sources
}

// Selected returns the index of the selected source.
func (l *SourceList) Selected() int {
	return l.selected
}

// SelectedSource returns the selected source, or nil if the list is empty.
func (l *SourceList) SelectedSource() *domain.SourceSummary {
	if l.selected < 0 || l.selected >= len(l.sources) {
		return nil
	}
	return &l.sources[l.selected]
}

// Expanded reports whether the selected source shows its excerpts.
func (l *SourceList) Expanded() bool {
	return l.expanded
}

// ToggleExpanded shows or hides the excerpts of the selected source.
func (l *SourceList) ToggleExpanded() {
	if len(l.sources) > 0 {
		l.expanded = !l.expanded
	}
}

// MoveUp moves selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
		l.expanded = false
	}
}

// MoveDown moves selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.sources)-1 {
		l.selected++
		l.expanded = false
	}
}

// SetDimensions sets the component dimensions.
func (l *SourceList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of sources.
func (l *SourceList) Count() int {
	return len(l.sources)
}
