// Package xwiki reads pages from an XWiki instance over its REST API.
package xwiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.WikiSource = (*Source)(nil)

const (
	// DefaultWiki is the main wiki of an XWiki farm.
	DefaultWiki = "xwiki"

	// DefaultTimeout bounds one REST call.
	DefaultTimeout = 10 * time.Second

	// maxContentSize caps how much of a page body is read.
	maxContentSize = 5 << 20
)

// Config points a Source at an XWiki instance.
type Config struct {
	// BaseURL is the XWiki root, e.g. http://localhost:8080/xwiki.
	BaseURL string

	// Wiki is the wiki name (default: xwiki).
	Wiki string

	// Username and Password enable basic auth when both are set.
	Username string
	Password string

	Timeout time.Duration
}

// Source lists and reads wiki pages.
type Source struct {
	client   *http.Client
	restURL  string
	wiki     string
	username string
	password string
}

type pageSummaries struct {
	PageSummaries []pageSummary `json:"pageSummaries"`
}

type pageSummary struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Space            string `json:"space"`
	Name             string `json:"name"`
	XWikiRelativeURL string `json:"xwikiRelativeUrl"`
}

// NewSource creates a wiki source.
func NewSource(cfg Config) (*Source, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if u, err := url.Parse(base); err != nil || u.Host == "" {
		return nil, fmt.Errorf("xwiki: base url %q: %w", cfg.BaseURL, domain.ErrInvalidInput)
	}
	if cfg.Wiki == "" {
		cfg.Wiki = DefaultWiki
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Source{
		client:   &http.Client{Timeout: cfg.Timeout},
		restURL:  base + "/rest",
		wiki:     cfg.Wiki,
		username: cfg.Username,
		password: cfg.Password,
	}, nil
}

// Ping checks the REST API answers.
func (s *Source) Ping(ctx context.Context) error {
	resp, err := s.get(ctx, s.restURL+"/wikis", "application/json")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Pages lists the pages of space, or of the whole wiki when space is empty.
func (s *Source) Pages(ctx context.Context, space string) ([]domain.WikiPage, error) {
	endpoint := s.restURL + "/wikis/" + url.PathEscape(s.wiki)
	if space != "" {
		endpoint += "/spaces/" + url.PathEscape(space)
	}
	endpoint += "/pages"

	resp, err := s.get(ctx, endpoint, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out pageSummaries
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("xwiki: decode pages: %w", err)
	}

	pages := make([]domain.WikiPage, 0, len(out.PageSummaries))
	for _, p := range out.PageSummaries {
		if p.Name == "" || p.Space == "" {
			continue
		}
		pages = append(pages, domain.WikiPage{
			Space: p.Space,
			Name:  p.Name,
			Title: p.Title,
			URL:   p.XWikiRelativeURL,
		})
	}
	return pages, nil
}

// PageContent returns the page rendered as plain text.
func (s *Source) PageContent(ctx context.Context, page domain.WikiPage) (string, error) {
	endpoint := fmt.Sprintf("%s/wikis/%s/spaces/%s/pages/%s", s.restURL,
		url.PathEscape(s.wiki), url.PathEscape(page.Space), url.PathEscape(page.Name))

	resp, err := s.get(ctx, endpoint, "text/plain")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentSize))
	if err != nil {
		return "", fmt.Errorf("xwiki: read %s: %w", page.SourceID(), err)
	}
	return string(body), nil
}

func (s *Source) get(ctx context.Context, endpoint, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("xwiki: create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	if s.username != "" && s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("xwiki: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("xwiki: %s: %w", req.URL.Path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("xwiki: %s: status %d", req.URL.Path, resp.StatusCode)
	}
	return resp, nil
}
