package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var (
	ingestTextSourceID string
	ingestTextName     string
	ingestSiteMax      int
	ingestWikiSpace    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths...]",
	Short: "Index files and directories",
	Long: `Extracts text from each file, splits it into chunks, embeds the chunks
and stores them in the vector index. Directories are walked recursively;
files without a supported extension are skipped.

Re-ingesting a file replaces its previous chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var ingestURLCmd = &cobra.Command{
	Use:   "ingest-url [url]",
	Short: "Index a web page",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestURL,
}

var ingestSiteCmd = &cobra.Command{
	Use:   "ingest-site [url]",
	Short: "Index a website",
	Long: `Indexes the page at url and the pages it links to on the same host,
breadth first, up to --max-pages pages. Pages that cannot be fetched or
parsed are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestSite,
}

var ingestWikiCmd = &cobra.Command{
	Use:   "ingest-wiki",
	Short: "Index pages from XWiki",
	Long: `Indexes every page of an XWiki space, or of the whole wiki when
--space is empty. The wiki is set with wiki.base_url in config.toml or
the XWIKI_URL environment variable.`,
	Args: cobra.NoArgs,
	RunE: runIngestWiki,
}

var ingestTextCmd = &cobra.Command{
	Use:   "ingest-text [text]",
	Short: "Index raw text",
	Long: `Indexes the given text as a single source. Pass "-" to read the text
from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestText,
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Index files as they appear in a directory",
	Long: `Watches a directory and ingests supported files when they are created
or written. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	ingestTextCmd.Flags().StringVar(&ingestTextSourceID, "source-id", "", "source identifier (generated when empty)")
	ingestTextCmd.Flags().StringVar(&ingestTextName, "name", "", "display name of the source")
	ingestSiteCmd.Flags().IntVar(&ingestSiteMax, "max-pages", domain.DefaultMaxPages, "maximum number of pages to visit")
	ingestWikiCmd.Flags().StringVar(&ingestWikiSpace, "space", "", "wiki space to import (all spaces when empty)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(ingestURLCmd)
	rootCmd.AddCommand(ingestSiteCmd)
	rootCmd.AddCommand(ingestWikiCmd)
	rootCmd.AddCommand(ingestTextCmd)
	rootCmd.AddCommand(watchCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	var ingested, chunks, failed int
	for _, path := range files {
		result, err := ingestService.IngestFile(cmd.Context(), path)
		if err != nil {
			if errors.Is(err, domain.ErrUnsupportedType) {
				logger.Debug("skip %s: %v", path, err)
				continue
			}
			failed++
			cmd.PrintErrf("  failed %s: %v\n", path, err)
			continue
		}
		ingested++
		chunks += result.ChunksCreated
		cmd.Printf("  %s: %d chunks (%s)\n", result.Name, result.ChunksCreated, result.SourceID)
	}

	cmd.Printf("Ingested %d file(s), %d chunk(s)", ingested, chunks)
	if failed > 0 {
		cmd.Printf(", %d failed", failed)
	}
	cmd.Println()

	if ingested == 0 && failed > 0 {
		return errors.New("no files were ingested")
	}
	return nil
}

// collectFiles expands directories into the regular files beneath them.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}
	return files, nil
}

func runIngestURL(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured
	}

	result, err := ingestService.IngestURL(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("ingest %s: %w", args[0], err)
	}

	cmd.Printf("Ingested %s: %d chunks (%s)\n", result.Name, result.ChunksCreated, result.SourceID)
	return nil
}

func runIngestSite(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured
	}

	result, err := ingestService.IngestSite(cmd.Context(), args[0], ingestSiteMax)
	printImport(cmd, result)
	if err != nil {
		return fmt.Errorf("ingest site %s: %w", args[0], err)
	}
	return nil
}

func runIngestWiki(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotConfigured
	}

	result, err := ingestService.IngestWiki(cmd.Context(), ingestWikiSpace)
	printImport(cmd, result)
	if err != nil {
		return fmt.Errorf("ingest wiki: %w", err)
	}
	return nil
}

// printImport lists the pages of a multi-page import and a summary line.
func printImport(cmd *cobra.Command, result *domain.ImportResult) {
	if result == nil {
		return
	}
	for _, r := range result.Imported {
		cmd.Printf("  %s: %d chunks (%s)\n", r.Name, r.ChunksCreated, r.SourceID)
	}
	for _, f := range result.Failed {
		cmd.PrintErrf("  failed %s: %s\n", f.Ref, f.Err)
	}

	cmd.Printf("Imported %d of %d page(s), %d chunk(s)\n", len(result.Imported), result.Total(), result.Chunks())
}

func runIngestText(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured
	}

	text := args[0]
	if text == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	result, err := ingestService.IngestText(cmd.Context(), domain.SourceDocument{
		SourceID: ingestTextSourceID,
		Name:     ingestTextName,
		Type:     domain.SourceTypeText,
		Content:  text,
	})
	if err != nil {
		return fmt.Errorf("ingest text: %w", err)
	}

	cmd.Printf("Ingested %d chunks (%s)\n", result.ChunksCreated, result.SourceID)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured
	}

	stop := startScheduler(cmd.Context())
	defer stop()

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	return ingestService.Watch(cmd.Context(), args[0], func(ev driving.WatchEvent) {
		if ev.Err != nil {
			cmd.PrintErrf("  failed %s: %v\n", ev.Path, ev.Err)
			return
		}
		cmd.Printf("  %s: %d chunks\n", ev.Result.Name, ev.Result.ChunksCreated)
	})
}
