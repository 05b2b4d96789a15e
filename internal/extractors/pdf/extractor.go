// Package pdf extracts text from PDF documents with poppler's pdftotext.
//
// pdftotext must be on PATH; see InstallInstructions.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.TextExtractor = (*Extractor)(nil)

// Tool is the external command used for extraction.
const Tool = "pdftotext"

// maxTitleLen is the longest first line accepted as a title.
const maxTitleLen = 200

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Extractor handles PDF documents.
type Extractor struct {
	runner CommandRunner
}

// New creates a PDF extractor that runs pdftotext.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner creates a PDF extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// CheckAvailable returns ErrPDFToolNotFound if pdftotext is not installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(Tool); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions explains how to install pdftotext.
func InstallInstructions() string {
	return "PDF support needs pdftotext from poppler:\n" +
		"  macOS:          brew install poppler\n" +
		"  Debian/Ubuntu:  apt install poppler-utils\n" +
		"  Fedora:         dnf install poppler-utils"
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract writes the document to a temporary file, converts it with
// pdftotext and returns the text with pages separated by blank lines.
func (e *Extractor) Extract(ctx context.Context, file *domain.RawFile) (*domain.ExtractedText, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}
	if !bytes.HasPrefix(file.Content, []byte("%PDF-")) {
		return nil, fmt.Errorf("%s is not a PDF: %w", file.Name, domain.ErrInvalidInput)
	}

	tmp, err := os.CreateTemp("", "sercha-rag-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	_, err = tmp.Write(file.Content)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	out, err := e.runner.Run(ctx, Tool, "-enc", "UTF-8", "-layout", tmp.Name(), "-")
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return nil, fmt.Errorf("%w\n%s", err, InstallInstructions())
		}
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	text := normalise(string(out))
	if text == "" {
		// Scanned documents have no text layer.
		return nil, domain.ErrEmptyDocument
	}
	return &domain.ExtractedText{Title: extractTitle(text, file.Name), Text: text}, nil
}

// normalise turns form feeds into paragraph breaks and trims trailing
// layout padding from every line.
func normalise(s string) string {
	s = strings.ReplaceAll(s, "\f", "\n\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractTitle uses the first short non-empty line, falling back to the
// file name.
func extractTitle(content, name string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) <= maxTitleLen {
			return line
		}
	}
	return (&domain.RawFile{Name: name}).Title()
}
