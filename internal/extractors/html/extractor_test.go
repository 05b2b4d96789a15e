package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const page = `<!DOCTYPE html>
<html>
<head><title> Release &amp; Notes </title><style>body{color:red}</style></head>
<body>
  <header>Site header</header>
  <nav><a href="/">Home</a></nav>
  <main>
    <h1>Version 2</h1>
    <p>Faster   ingestion.</p>
    <script>alert("x")</script>
    <ul><li>One</li><li>Two</li></ul>
  </main>
  <footer>Copyright</footer>
</body>
</html>`

func TestExtractor_Extract_MainContent(t *testing.T) {
	out, err := New().Extract(context.Background(), &domain.RawFile{Name: "notes.html", Content: []byte(page)})

	require.NoError(t, err)
	assert.Equal(t, "Release & Notes", out.Title)
	assert.Equal(t, "Version 2\nFaster ingestion.\nOne\nTwo", out.Text)
}

func TestExtractor_Extract_FallsBackToArticleThenBody(t *testing.T) {
	article := `<html><body><p>Outside</p><article><p>Inside</p></article></body></html>`
	out, err := New().Extract(context.Background(), &domain.RawFile{Name: "a.html", Content: []byte(article)})
	require.NoError(t, err)
	assert.Equal(t, "Inside", out.Text)

	body := `<p>Just a paragraph</p>`
	out, err = New().Extract(context.Background(), &domain.RawFile{Name: "my-page.htm", Content: []byte(body)})
	require.NoError(t, err)
	assert.Equal(t, "Just a paragraph", out.Text)
	assert.Equal(t, "my page", out.Title)
}

func TestExtractor_Extract_NoText(t *testing.T) {
	_, err := New().Extract(context.Background(), &domain.RawFile{
		Name:    "empty.html",
		Content: []byte(`<html><body><nav>menu</nav><script>x()</script></body></html>`),
	})

	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}
