package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stored settings",
	Long: `View and change the settings stored in config.toml.

Stored settings are used when the matching flag is not given on the command
line. Use subcommands to set single keys or run the interactive setup.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store one setting",
	Long: `Stores one setting. Run 'annomigrate config keys' for the list of keys.
List values such as normalise.repairers are comma separated.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the settings that can be stored",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup",
	Long:  `Prompts for the search service URL and credentials and stores them.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cfg, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Source]")
	cmd.Printf("  URL: %s\n", orUnset(cfg.Source.URL))
	cmd.Printf("  API Key: %s\n", orUnset(cfg.Source.APIKey))
	if cfg.Source.SecretKey != "" {
		cmd.Printf("  Secret Key: %s\n", maskAPIKey(cfg.Source.SecretKey))
	} else {
		cmd.Printf("  Secret Key: (not set)\n")
	}
	cmd.Printf("  User: %s\n", cfg.Source.Actor)
	cmd.Printf("  API Version: %s\n", cfg.Source.APIVersion.Description())
	cmd.Printf("  Timeout: %s\n", cfg.Source.Timeout)
	if cfg.Source.RateLimit > 0 {
		cmd.Printf("  Rate Limit: %g/s\n", cfg.Source.RateLimit)
	}
	cmd.Println()

	cmd.Println("[Pull]")
	cmd.Printf("  Page Size: %d\n", cfg.Pull.PageSize)
	cmd.Printf("  Max Pages: %d\n", cfg.Pull.MaxPages)
	cmd.Printf("  Workers: %d\n", cfg.Pull.Workers)
	cmd.Println()

	cmd.Println("[Normalise]")
	cmd.Printf("  Platform Name: %s\n", cfg.PlatformName)
	cmd.Printf("  Repairers: %s\n", orUnset(strings.Join(cfg.Repairers, ", ")))
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Path: %s\n", orUnset(cfg.StorePath))
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'annomigrate config init' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cfg, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("annomigrate Setup")
	cmd.Println("=================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Source
	cmd.Printf("Search service URL [%s]: ", cfg.Source.URL)
	if v := readLine(reader); v != "" {
		cfg.Source.URL = v
	}

	versions := []domain.APIVersion{domain.APIVersionV1, domain.APIVersionV2}
	cmd.Println("API version:")
	for i, v := range versions {
		cmd.Printf("  %d. %s\n", i+1, v.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	cfg.Source.APIVersion = versions[parseChoice(readLine(reader), len(versions), 1)-1]

	// Step 2: Credentials
	cmd.Printf("API key [%s]: ", cfg.Source.APIKey)
	if v := readLine(reader); v != "" {
		cfg.Source.APIKey = v
	}
	cmd.Print("Secret key (leave empty to keep): ")
	cfg.Source.SecretKey = readPassword(reader)
	cmd.Println()

	cmd.Printf("Token user [%s]: ", cfg.Source.Actor)
	if v := readLine(reader); v != "" {
		cfg.Source.Actor = v
	}

	if err := settingsService.Save(cfg); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println()
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}
	return nil
}

// promptSecret asks for the consumer secret when stdin is a terminal.
func promptSecret(cmd *cobra.Command) string {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ""
	}
	cmd.PrintErr("Secret key: ")
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	cmd.PrintErrln()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(secret))
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

// readPassword reads without echo from a terminal, falling back to a line
// from reader.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
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

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
