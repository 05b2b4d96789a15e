// Package html extracts readable text from HTML documents. Page chrome
// (navigation, headers, footers, scripts) is dropped and the main content
// element is preferred over the whole body.
package html

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles HTML documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".html", ".htm"}
}

// skipped elements never contribute text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Nav:      true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Aside:    true,
	atom.Head:     true,
}

// Extract returns the page title and one line per text node of the main
// content element (main, else article, else body).
func (e *Extractor) Extract(_ context.Context, file *domain.RawFile) (*domain.ExtractedText, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := html.Parse(bytes.NewReader(file.Content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := strings.TrimSpace(textOf(find(doc, atom.Title)))
	if title == "" {
		title = file.Title()
	}

	root := find(doc, atom.Main)
	if root == nil {
		root = find(doc, atom.Article)
	}
	if root == nil {
		root = find(doc, atom.Body)
	}
	if root == nil {
		return nil, domain.ErrEmptyDocument
	}

	var lines []string
	collect(root, &lines)
	if len(lines) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	return &domain.ExtractedText{
		Title: title,
		Text:  strings.Join(lines, "\n"),
	}, nil
}

// find returns the first element with the given tag in document order.
func find(n *html.Node, tag atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func collect(n *html.Node, lines *[]string) {
	switch n.Type {
	case html.ElementNode:
		if skipped[n.DataAtom] {
			return
		}
	case html.TextNode:
		for _, line := range strings.Split(n.Data, "\n") {
			if line = strings.Join(strings.Fields(line), " "); line != "" {
				*lines = append(*lines, line)
			}
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, lines)
	}
}
