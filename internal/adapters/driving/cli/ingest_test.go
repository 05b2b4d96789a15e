package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "sub", "b.md"), "b")
	writeFile(t, filepath.Join(dir, ".git", "config"), "c")
	single := filepath.Join(t.TempDir(), "single.txt")
	writeFile(t, single, "s")

	files, err := collectFiles([]string{dir, single})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "sub", "b.md"),
		single,
	}, files)
}

func TestCollectFiles_MissingPath(t *testing.T) {
	_, err := collectFiles([]string{filepath.Join(t.TempDir(), "missing")})

	assert.Error(t, err)
}

func TestIngestCmd_Directory(t *testing.T) {
	defer setupTestServices(t)()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	writeFile(t, filepath.Join(dir, "b.md"), "beta")
	writeFile(t, filepath.Join(dir, "c.bin"), "gamma")
	current.ingest.fileErrs = map[string]error{"c.bin": domain.ErrUnsupportedType}

	out, err := execute(t, "", "ingest", dir)

	require.NoError(t, err)
	assert.Len(t, current.ingest.files, 2)
	assert.Contains(t, out, "Ingested 2 file(s), 6 chunk(s)")
	assert.NotContains(t, out, "failed")
}

func TestIngestCmd_ReportsFailures(t *testing.T) {
	defer setupTestServices(t)()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.txt"), "ok")
	writeFile(t, filepath.Join(dir, "bad.txt"), "broken")
	current.ingest.fileErrs = map[string]error{"bad.txt": errors.New("embedding failed")}

	out, err := execute(t, "", "ingest", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "embedding failed")
	assert.Contains(t, out, "Ingested 1 file(s), 3 chunk(s), 1 failed")
}

func TestIngestCmd_AllFailed(t *testing.T) {
	defer setupTestServices(t)()
	path := filepath.Join(t.TempDir(), "bad.txt")
	writeFile(t, path, "broken")
	current.ingest.fileErrs = map[string]error{"bad.txt": errors.New("boom")}

	_, err := execute(t, "", "ingest", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files were ingested")
}

func TestIngestURLCmd(t *testing.T) {
	defer setupTestServices(t)()

	out, err := execute(t, "", "ingest-url", "https://example.com/page")

	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/page"}, current.ingest.urls)
	assert.Contains(t, out, "Ingested Example Page: 4 chunks (web-1)")
}

func TestIngestURLCmd_Error(t *testing.T) {
	defer setupTestServices(t)()
	current.ingest.err = domain.ErrEmptyDocument

	_, err := execute(t, "", "ingest-url", "https://example.com/page")

	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func siteImport() *domain.ImportResult {
	return &domain.ImportResult{
		Imported: []domain.IngestResult{
			{SourceID: "web-1", Name: "Home", ChunksCreated: 2},
			{SourceID: "web-2", Name: "Setup", ChunksCreated: 3},
		},
		Failed: []domain.ImportFailure{{Ref: "https://example.com/broken", Err: "status 500"}},
	}
}

func TestIngestSiteCmd(t *testing.T) {
	defer setupTestServices(t)()
	current.ingest.imports = siteImport()

	out, err := execute(t, "", "ingest-site", "--max-pages", "10", "https://example.com/")

	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/"}, current.ingest.urls)
	assert.Equal(t, 10, current.ingest.siteMax)
	assert.Contains(t, out, "Home: 2 chunks (web-1)")
	assert.Contains(t, out, "failed https://example.com/broken: status 500")
	assert.Contains(t, out, "Imported 2 of 3 page(s), 5 chunk(s)")
}

func TestIngestSiteCmd_DefaultMaxPages(t *testing.T) {
	defer setupTestServices(t)()
	current.ingest.imports = siteImport()

	_, err := execute(t, "", "ingest-site", "https://example.com/")

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMaxPages, current.ingest.siteMax)
}

func TestIngestSiteCmd_NothingImported(t *testing.T) {
	defer setupTestServices(t)()
	current.ingest.imports = &domain.ImportResult{
		Failed: []domain.ImportFailure{{Ref: "https://example.com/", Err: "status 404"}},
	}
	current.ingest.err = domain.ErrEmptyDocument

	out, err := execute(t, "", "ingest-site", "https://example.com/")

	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	assert.Contains(t, out, "failed https://example.com/: status 404")
}

func TestIngestWikiCmd(t *testing.T) {
	defer setupTestServices(t)()
	current.ingest.imports = &domain.ImportResult{
		Imported: []domain.IngestResult{{SourceID: "xwiki:Main/WebHome", Name: "Home", ChunksCreated: 1}},
	}

	out, err := execute(t, "", "ingest-wiki", "--space", "Main")

	require.NoError(t, err)
	assert.Equal(t, []string{"Main"}, current.ingest.spaces)
	assert.Contains(t, out, "Home: 1 chunks (xwiki:Main/WebHome)")
	assert.Contains(t, out, "Imported 1 of 1 page(s), 1 chunk(s)")
}

func TestIngestWikiCmd_NotConfigured(t *testing.T) {
	defer setupTestServices(t)()
	current.ingest.err = domain.ErrInvalidInput

	_, err := execute(t, "", "ingest-wiki")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, []string{""}, current.ingest.spaces)
}

func TestIngestTextCmd(t *testing.T) {
	defer setupTestServices(t)()

	out, err := execute(t, "", "ingest-text", "--source-id", "notes", "--name", "My notes", "some text")

	require.NoError(t, err)
	require.Len(t, current.ingest.docs, 1)
	doc := current.ingest.docs[0]
	assert.Equal(t, "notes", doc.SourceID)
	assert.Equal(t, "My notes", doc.Name)
	assert.Equal(t, domain.SourceTypeText, doc.Type)
	assert.Equal(t, "some text", doc.Content)
	assert.Contains(t, out, "Ingested 2 chunks (notes)")
}

func TestIngestTextCmd_Stdin(t *testing.T) {
	defer setupTestServices(t)()

	_, err := execute(t, "piped content\n", "ingest-text", "-")

	require.NoError(t, err)
	require.Len(t, current.ingest.docs, 1)
	assert.Equal(t, "piped content\n", current.ingest.docs[0].Content)
}

func TestWatchCmd(t *testing.T) {
	defer setupTestServices(t)()
	current.ingest.events = []driving.WatchEvent{
		{Path: "/w/a.txt", Result: &domain.IngestResult{Name: "a.txt", ChunksCreated: 5}},
		{Path: "/w/b.txt", Err: errors.New("read failed")},
	}

	out, err := execute(t, "", "watch", "/w")

	require.NoError(t, err)
	assert.Equal(t, []string{"/w"}, current.ingest.watchDirs)
	assert.Contains(t, out, "Watching /w")
	assert.Contains(t, out, "a.txt: 5 chunks")
	assert.Contains(t, out, "failed /w/b.txt: read failed")
	assert.Equal(t, int32(1), current.scheduler.stopped.Load())
}
