package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/annomigrate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driving"
	"github.com/custodia-labs/annomigrate/internal/core/services"
)

// mockMigrationService implements driving.MigrationService for testing.
type mockMigrationService struct {
	report     *domain.RunReport
	comparison *domain.Comparison
	entries    []driving.DebugEntry
	err        error

	calls    []string
	pullOpts driving.PullOptions
	doImport bool
	paths    []string
}

func (m *mockMigrationService) run(name string) (*domain.RunReport, error) {
	m.calls = append(m.calls, name)
	if m.report == nil {
		m.report = &domain.RunReport{}
	}
	return m.report, m.err
}

func (m *mockMigrationService) Pull(_ context.Context, opts driving.PullOptions) (*domain.RunReport, error) {
	m.pullOpts = opts
	return m.run("pull")
}

func (m *mockMigrationService) PullAll(_ context.Context, opts driving.PullOptions) (*domain.RunReport, error) {
	m.pullOpts = opts
	return m.run("pull-all")
}

func (m *mockMigrationService) Convert(_ context.Context) (*domain.RunReport, error) {
	return m.run("convert")
}

func (m *mockMigrationService) Push(_ context.Context, doImport bool) (*domain.RunReport, error) {
	m.doImport = doImport
	return m.run("push")
}

func (m *mockMigrationService) PushFile(_ context.Context, path string) (*domain.RunReport, error) {
	m.paths = []string{path}
	return m.run("push-file")
}

func (m *mockMigrationService) Clear(_ context.Context) (*domain.RunReport, error) {
	return m.run("clear")
}

func (m *mockMigrationService) Compare(_ context.Context, pathA, pathB string) (*domain.Comparison, error) {
	m.calls = append(m.calls, "compare")
	m.paths = []string{pathA, pathB}
	return m.comparisonOrEmpty(), m.err
}

func (m *mockMigrationService) Verify(_ context.Context) (*domain.Comparison, error) {
	m.calls = append(m.calls, "verify")
	return m.comparisonOrEmpty(), m.err
}

func (m *mockMigrationService) Debug(_ context.Context) ([]driving.DebugEntry, error) {
	m.calls = append(m.calls, "debug")
	return m.entries, m.err
}

func (m *mockMigrationService) comparisonOrEmpty() *domain.Comparison {
	if m.comparison == nil {
		return &domain.Comparison{}
	}
	return m.comparison
}

// cliHarness records what the commands asked the factory for.
type cliHarness struct {
	service  *mockMigrationService
	cfg      domain.MigrationConfig
	needs    needs
	built    int
	released int
	buildErr error
}

// setupCLITest installs memory-backed settings and a factory returning a
// mock service. Everything is restored when the test ends.
func setupCLITest(t *testing.T) *cliHarness {
	t.Helper()
	h := &cliHarness{service: &mockMigrationService{}}

	oldSettings := settingsService
	oldFactory := migratorFactory
	settingsService = services.NewSettingsService(memory.NewConfigStore())
	migratorFactory = func(cfg domain.MigrationConfig, n needs) (driving.MigrationService, func() error, error) {
		h.cfg = cfg
		h.needs = n
		if h.buildErr != nil {
			return nil, nil, h.buildErr
		}
		h.built++
		return h.service, func() error {
			h.released++
			return nil
		}, nil
	}
	t.Cleanup(func() {
		settingsService = oldSettings
		migratorFactory = oldFactory
		resetFlags(rootCmd)
	})
	return h
}

// execute runs the root command with args and returns everything printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags puts every flag back to its default so state does not leak
// between executions of the shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

var errBoom = errors.New("boom")
