// Package cli provides the sercha-rag command line interface.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
)

// Services wired by main. Nil until Bootstrap has run.
var (
	queryService    driving.QueryService
	ingestService   driving.IngestService
	settingsService driving.SettingsService
	scheduler       driving.Scheduler
)

// Services holds the driving ports the commands operate on.
type Services struct {
	Query    driving.QueryService
	Ingest   driving.IngestService
	Settings driving.SettingsService

	// Scheduler runs maintenance tasks during long-lived commands. Optional.
	Scheduler driving.Scheduler

	// Close releases backend resources. Optional.
	Close func() error
}

// Options are the global flag values passed to Bootstrap.
type Options struct {
	ConfigDir string
	Verbose   bool
}

// Bootstrap builds the services for the resolved options.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap Bootstrap
	closeFn   func() error
)

var errNotConfigured = errors.New("services not configured")

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Ask questions about your documents",
	Long: `sercha-rag indexes documents, web pages and text into a vector store
and answers questions from the most relevant passages using a local or
hosted language model.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline progress to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"configuration directory (default $SERCHA_RAG_HOME or ~/.sercha-rag)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices sets the services directly, bypassing Bootstrap.
func SetServices(s *Services) {
	if s == nil {
		queryService, ingestService, settingsService, scheduler, closeFn = nil, nil, nil, nil, nil
		return
	}
	queryService = s.Query
	ingestService = s.Ingest
	settingsService = s.Settings
	scheduler = s.Scheduler
	closeFn = s.Close
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if cerr := teardown(rootCmd, nil); err == nil {
		err = cerr
	}
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil || queryService != nil {
		return nil
	}

	s, err := bootstrap(cmd.Context(), Options{ConfigDir: configDir, Verbose: verbose})
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if closeFn == nil {
		return nil
	}
	err := closeFn()
	closeFn = nil
	return err
}

// noBootstrap is used by commands that never touch the pipeline.
func noBootstrap(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	return nil
}

// startScheduler runs the scheduler in the background until the returned
// function is called. A nil scheduler is a no-op.
func startScheduler(ctx context.Context) func() {
	if scheduler == nil {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("scheduler stopped: %v", err)
		}
	}()

	return func() {
		cancel()
		<-done
		if err := scheduler.Stop(); err != nil {
			logger.Warn("scheduler stop: %v", err)
		}
	}
}
