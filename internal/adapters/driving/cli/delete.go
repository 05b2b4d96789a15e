package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var clearYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete [source-id]",
	Short: "Remove a source from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var deleteSiteCmd = &cobra.Command{
	Use:   "delete-site [site]",
	Short: "Remove every page of a website from the index",
	Long:  `Accepts a host name (example.com) or any URL on the site.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteSite,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all records from the index",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")

	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(deleteSiteCmd)
	rootCmd.AddCommand(clearCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured
	}

	n, err := ingestService.DeleteSource(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	if n == 0 {
		cmd.Printf("No records found for source %s\n", args[0])
		return nil
	}

	cmd.Printf("Deleted %d record(s) for source %s\n", n, args[0])
	return nil
}

func runDeleteSite(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured
	}

	n, err := ingestService.DeleteWebsite(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("delete website: %w", err)
	}

	cmd.Printf("Deleted %d record(s) for %s\n", n, args[0])
	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotConfigured
	}

	if !clearYes {
		cmd.Print("Remove all records from the index? [y/N]: ")
		answer := strings.ToLower(readLine(bufio.NewReader(cmd.InOrStdin())))
		if answer != "y" && answer != "yes" {
			return errors.New("aborted")
		}
	}

	if err := ingestService.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}

	cmd.Println("Index cleared.")
	return nil
}
