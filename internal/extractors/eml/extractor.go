// Package eml extracts the headers and body text of saved email messages.
package eml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/extractors/html"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles RFC 5322 message files.
type Extractor struct {
	html *html.Extractor
}

// New creates a new email extractor.
func New() *Extractor {
	return &Extractor{html: html.New()}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".eml"}
}

// Extract returns From, To, Date and Subject lines followed by the body.
// Plain text parts are preferred over HTML parts. The subject is the title.
func (e *Extractor) Extract(ctx context.Context, file *domain.RawFile) (*domain.ExtractedText, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(file.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse message: %v", domain.ErrInvalidInput, err)
	}

	subject := decodeHeader(msg.Header.Get("Subject"))
	body, err := e.body(ctx, msg.Header.Get("Content-Type"), msg.Body)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, h := range []struct{ label, value string }{
		{"From", decodeHeader(msg.Header.Get("From"))},
		{"To", decodeHeader(msg.Header.Get("To"))},
		{"Date", msg.Header.Get("Date")},
		{"Subject", subject},
	} {
		if h.value != "" {
			fmt.Fprintf(&b, "%s: %s\n", h.label, h.value)
		}
	}
	b.WriteString("\n")
	b.WriteString(body)

	if strings.TrimSpace(body) == "" && subject == "" {
		return nil, domain.ErrEmptyDocument
	}

	title := subject
	if title == "" {
		title = file.Title()
	}
	return &domain.ExtractedText{
		Title: title,
		Text:  strings.TrimSpace(b.String()),
	}, nil
}

// decodeHeader decodes RFC 2047 encoded words, keeping the raw value on error.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

func (e *Extractor) body(ctx context.Context, contentType string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return e.multipart(ctx, r, params["boundary"])
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if mediaType == "text/html" {
		return e.htmlText(ctx, data), nil
	}
	return string(data), nil
}

func (e *Extractor) multipart(ctx context.Context, r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	var plain, rich []string
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read part: %w", err)
		}

		mediaType, params, perr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if perr != nil {
			mediaType = "text/plain"
		}
		data, rerr := io.ReadAll(part)
		part.Close()
		if rerr != nil {
			continue
		}

		switch {
		case part.FileName() != "":
			// attachment
		case mediaType == "text/plain":
			plain = append(plain, string(data))
		case mediaType == "text/html":
			rich = append(rich, e.htmlText(ctx, data))
		case strings.HasPrefix(mediaType, "multipart/"):
			nested, nerr := e.multipart(ctx, bytes.NewReader(data), params["boundary"])
			if nerr == nil && nested != "" {
				plain = append(plain, nested)
			}
		}
	}

	if len(plain) > 0 {
		return strings.Join(plain, "\n"), nil
	}
	return strings.Join(rich, "\n"), nil
}

func (e *Extractor) htmlText(ctx context.Context, data []byte) string {
	out, err := e.html.Extract(ctx, &domain.RawFile{Name: "part.html", Content: data})
	if err != nil {
		return ""
	}
	return out.Text
}
