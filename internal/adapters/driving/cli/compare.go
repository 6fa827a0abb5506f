package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/annomigrate/internal/core/ports/driving"
)

var compareCmd = &cobra.Command{
	Use:   "compare <file-a> <file-b>",
	Short: "Compare two AnnoJS files",
	Long: `Compares every record of file A with the record of the same id in file B,
ignoring fields that legitimately drift during migration. Results are written
to test_passed.json, test_not_similar.json and test_not_found.json.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare pulled records with the destination store",
	Long: `Reads the pulled records of --context-id back from the destination store and
compares them with what was pulled. Exits with an error when any record is
missing or differs.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "List converted records in import order",
	Args:  cobra.NoArgs,
	RunE:  runDebug,
}

func init() {
	addOutputFlags(compareCmd, false)

	addContextFlag(verifyCmd)
	addOutputFlags(verifyCmd, false)
	addStoreFlags(verifyCmd)

	addContextFlag(debugCmd)
	addOutputFlags(debugCmd, false)

	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(debugCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	return withMigrator(cmd, 0, func(m driving.MigrationService) error {
		result, err := m.Compare(cmd.Context(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("compare failed: %w", err)
		}
		cmd.Print(comparisonSummary("Compare", result))
		return nil
	})
}

func runVerify(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, needStore, func(m driving.MigrationService) error {
		result, err := m.Verify(cmd.Context())
		if err != nil {
			return fmt.Errorf("verify failed: %w", err)
		}
		cmd.Print(comparisonSummary("Verify", result))
		if !result.Clean() {
			return fmt.Errorf("verify failed: %d mismatched, %d missing", len(result.Mismatched), len(result.Missing))
		}
		return nil
	})
}

func runDebug(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, 0, func(m driving.MigrationService) error {
		entries, err := m.Debug(cmd.Context())
		if err != nil {
			return fmt.Errorf("debug failed: %w", err)
		}
		file := ""
		for _, e := range entries {
			if e.File != file {
				file = e.File
				cmd.Printf("file: %s\n", file)
			}
			cmd.Printf("%s %s\n", e.ID, e.Created)
		}
		return nil
	})
}
