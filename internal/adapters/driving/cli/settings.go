package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var apiOff bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage generation settings",
	Long: `View and change the settings used to generate answers: the local
model and its sampling parameters, retrieval depth, and the optional hosted
API provider.

Settings are stored in settings.toml and take effect on the next question.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Stores a setting. Values that look like booleans or numbers are
stored as such, everything else as text.

Examples:
  sercha-rag settings set temperature 0.3
  sercha-rag settings set model llama3.2:3b
  sercha-rag settings set top_k_results 8`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsReset,
}

var settingsAPICmd = &cobra.Command{
	Use:   "api",
	Short: "Configure a hosted generation provider",
	Long: `Select a hosted provider (OpenAI, Anthropic, Gemini or an
OpenAI-compatible endpoint) and enter its API key. Use --off to switch back
to the local model.`,
	Args: cobra.NoArgs,
	RunE: runSettingsAPI,
}

func init() {
	settingsAPICmd.Flags().BoolVar(&apiOff, "off", false, "use the local model again")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	settingsCmd.AddCommand(settingsAPICmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	snapshot := settingsService.Snapshot()
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()
	for _, k := range keys {
		cmd.Printf("  %s = %s\n", k, displayValue(k, snapshot[k]))
	}
	cmd.Println()

	backend := settingsService.Backend()
	cmd.Println("[Generation]")
	target := backend.Target()
	cmd.Printf("  Backend: %s\n", target.Provider.Description())
	cmd.Printf("  Model: %s\n", backend.Model())
	if backend.Kind() == domain.BackendExternal {
		opts := backend.Options()
		cmd.Printf("  Budget: %d tokens, temperature %.2f\n", opts.MaxTokens, opts.Temperature)
	} else {
		cmd.Printf("  Timeout: %s\n", target.Timeout)
	}
	cmd.Println()

	if err := settingsService.ValidateBackend(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'sercha-rag settings api' to fix the provider configuration.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	v := settingsService.Get(args[0], nil)
	if v == nil {
		return fmt.Errorf("setting %q is not set", args[0])
	}
	cmd.Println(displayValue(args[0], v))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := strings.TrimSpace(args[0])
	if key == "" {
		return errors.New("setting key cannot be empty")
	}

	value := domain.ParseSettingValue(args[1])
	if !settingsService.Set(key, value) {
		return fmt.Errorf("failed to save setting %q", key)
	}
	cmd.Printf("%s = %s\n", key, displayValue(key, value))
	return nil
}

func runSettingsReset(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Reset(); err != nil {
		return fmt.Errorf("failed to reset settings: %w", err)
	}
	cmd.Println("Settings restored to defaults.")
	return nil
}

// externalProviders are the choices offered by settings api.
var externalProviders = []domain.AIProvider{
	domain.AIProviderOpenAI,
	domain.AIProviderAnthropic,
	domain.AIProviderGemini,
	domain.AIProviderCustom,
}

func runSettingsAPI(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if apiOff {
		if !settingsService.Set(domain.SettingUseAPI, false) {
			return errors.New("failed to save settings")
		}
		cmd.Println("Using the local model.")
		return nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Select Provider")
	for i, p := range externalProviders {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(externalProviders), 1)
	provider := externalProviders[idx-1]

	var baseURL string
	if provider == domain.AIProviderCustom {
		cmd.Print("Enter endpoint URL: ")
		baseURL = readLine(reader)
		if baseURL == "" {
			return errors.New("endpoint URL is required for this provider")
		}
	}

	defaultModel := domain.DefaultExternalModels()[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}
	if model == "" {
		return errors.New("model name is required for this provider")
	}

	var apiKey string
	if provider.RequiresAPIKey() || provider == domain.AIProviderCustom {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" && provider.RequiresAPIKey() {
			return errors.New("API key is required for this provider")
		}
	}

	values := []struct {
		key   string
		value any
	}{
		{domain.SettingAPIProvider, provider.String()},
		{domain.SettingAPIModel, model},
		{domain.SettingAPIKey, apiKey},
		{domain.SettingAPIURL, baseURL},
		{domain.SettingUseAPI, true},
	}
	for _, kv := range values {
		if !settingsService.Set(kv.key, kv.value) {
			return fmt.Errorf("failed to save setting %q", kv.key)
		}
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateBackend(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("provider validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Generation provider configured: %s (%s)\n", provider.Description(), model)
	return nil
}

// displayValue formats a setting for output, masking secrets.
func displayValue(key string, v any) string {
	s := fmt.Sprint(v)
	if key == domain.SettingAPIKey {
		if s == "" {
			return "(not set)"
		}
		return maskAPIKey(s)
	}
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return s
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a secret without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
