package domain

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

// SourceType discriminates where a source came from.
type SourceType string

// Available source types.
const (
	SourceTypeFile SourceType = "file"
	SourceTypeText SourceType = "text"
	SourceTypeWeb  SourceType = "web"
	SourceTypeWiki SourceType = "wiki"
)

// IsValid returns true if the source type is recognised.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceTypeFile, SourceTypeText, SourceTypeWeb, SourceTypeWiki:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// ContentHash returns the short content hash used to identify uploaded files.
func ContentHash(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])[:8]
}

// WebSourceID returns the source identifier of a web page.
func WebSourceID(pageURL string) string {
	sum := md5.Sum([]byte(pageURL))
	return hex.EncodeToString(sum[:])
}

// WikiSourceID returns the composite source identifier of a wiki page.
func WikiSourceID(space, page string) string {
	return "xwiki:" + space + "/" + page
}

// SiteOf returns the host part of a URL, or an empty string if it has none.
func SiteOf(pageURL string) string {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return ""
	}
	return u.Host
}
