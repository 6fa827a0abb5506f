package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/annomigrate/internal/core/ports/driving"
)

var doImport bool

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Order converted pages and import them",
	Long: `Orders the catcha_<name>_* files in the output directory so replies follow
their parents, saving each as sorted_<file>. With --import the records are
written to the destination store; refused records are listed in
fail_to_push_catcha_<name>.json.`,
	Args: cobra.NoArgs,
	RunE: runPush,
}

var pushFileCmd = &cobra.Command{
	Use:   "push-file <path>",
	Short: "Import one converted file",
	Long: `Imports a single file of Catcha records, comments before replies.
Refused records are listed in fail_to_push_from_file_<file> in the output
directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runPushFile,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete imported annotations of a collection",
	Long: `Deletes every annotation of --context-id from the destination store,
replies first. Annotations that could not be deleted are listed in
fail_to_delete_<name>.json.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func init() {
	addContextFlag(pushCmd)
	addOutputFlags(pushCmd, false)
	addStoreFlags(pushCmd)
	addOrphanFlag(pushCmd)
	pushCmd.Flags().BoolVar(&doImport, "import", false, "write the ordered records to the destination store")

	addOutputFlags(pushFileCmd, false)
	addStoreFlags(pushFileCmd)
	addOrphanFlag(pushFileCmd)

	addContextFlag(clearCmd)
	addOutputFlags(clearCmd, false)
	addStoreFlags(clearCmd)
	_ = clearCmd.MarkFlagRequired("context-id")

	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pushFileCmd)
	rootCmd.AddCommand(clearCmd)
}

func runPush(cmd *cobra.Command, _ []string) error {
	var n needs
	if doImport {
		n = needStore
	}
	return withMigrator(cmd, n, func(m driving.MigrationService) error {
		report, err := m.Push(cmd.Context(), doImport)
		return finishReport(cmd, "Push", report, err)
	})
}

func runPushFile(cmd *cobra.Command, args []string) error {
	return withMigrator(cmd, needStore, func(m driving.MigrationService) error {
		report, err := m.PushFile(cmd.Context(), args[0])
		return finishReport(cmd, "Push file", report, err)
	})
}

func runClear(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, needStore, func(m driving.MigrationService) error {
		report, err := m.Clear(cmd.Context())
		return finishReport(cmd, "Clear", report, err)
	})
}
