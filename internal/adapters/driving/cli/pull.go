package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driving"
)

var (
	skipCatcha bool
	resume     bool
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull annotations page by page",
	Long: `Pulls a collection from the search service one page at a time.

Each page is saved as annojs_<name>_<page>.json and, unless --skip-catcha is
set, converted to catcha_<name>_<page>.json. Progress is checkpointed after
every page; --resume continues an interrupted pull.`,
	Args: cobra.NoArgs,
	RunE: runPull,
}

var pullAllCmd = &cobra.Command{
	Use:   "pull-all",
	Short: "Pull a whole collection, then convert it",
	Long: `Pulls every page of a collection into one de-duplicated set before
writing fullset_annojs_<name>.json and its conversion fullset_catcha_<name>.json.

Use --api-version v2 for services that expose /annos/search.`,
	Args: cobra.NoArgs,
	RunE: runPullAll,
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert saved pages to the Catcha schema",
	Long: `Re-runs conversion over the annojs_<name>_* page files in the output
directory, rewriting the catcha, error and messed files for each page.`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func init() {
	for _, cmd := range []*cobra.Command{pullCmd, pullAllCmd} {
		addSourceFlags(cmd)
		addContextFlag(cmd)
		addOutputFlags(cmd, true)
		addPullFlags(cmd)
		addStoreFlags(cmd)
		cmd.Flags().BoolVar(&skipCatcha, "skip-catcha", false, "save pulled pages without converting them")
		cmd.Flags().BoolVar(&resume, "resume", false, "continue from the last saved checkpoint")
	}

	addContextFlag(convertCmd)
	addOutputFlags(convertCmd, false)

	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(pullAllCmd)
	rootCmd.AddCommand(convertCmd)
}

func runPull(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, needSource, func(m driving.MigrationService) error {
		report, err := m.Pull(cmd.Context(), pullOptions())
		return finishReport(cmd, "Pull", report, err)
	})
}

func runPullAll(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, needSource, func(m driving.MigrationService) error {
		report, err := m.PullAll(cmd.Context(), pullOptions())
		return finishReport(cmd, "Pull all", report, err)
	})
}

func runConvert(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, 0, func(m driving.MigrationService) error {
		report, err := m.Convert(cmd.Context())
		return finishReport(cmd, "Convert", report, err)
	})
}

func pullOptions() driving.PullOptions {
	return driving.PullOptions{SkipCanonical: skipCatcha, Resume: resume}
}

// finishReport prints whatever the run got through, then the error.
func finishReport(cmd *cobra.Command, title string, report *domain.RunReport, err error) error {
	if report != nil {
		cmd.Print(reportSummary(title, report))
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", strings.ToLower(title), err)
	}
	return nil
}
