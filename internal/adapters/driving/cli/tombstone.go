package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/annomigrate/internal/adapters/driven/artifacts"
	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/services"
)

var setDeletedCmd = &cobra.Command{
	Use:   "set-deleted [path|-]",
	Short: "Mark converted records as deleted",
	Long: `Reads a JSON list of Catcha records from a file, or stdin when the path is
omitted or "-", sets platform.deleted on each, and writes the list to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSetDeleted,
}

func init() {
	rootCmd.AddCommand(setDeletedCmd)
}

func runSetDeleted(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	records, err := decodeRecords(in)
	if err != nil {
		return err
	}
	dead, err := services.Tombstone(records)
	if err != nil {
		return err
	}
	out, err := artifacts.Encode(dead)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// decodeRecords reads a JSON list without binding it to the Catcha types, so
// the output carries exactly the members of the input.
func decodeRecords(r io.Reader) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decode records: %w", domain.ErrInvalidInput, err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}
