package cmd

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bnema/reaction-test-cli/internal/adapters/render/summary"
	tomlrepo "github.com/bnema/reaction-test-cli/internal/adapters/repo/toml"
	"github.com/bnema/reaction-test-cli/internal/application"
	"github.com/bnema/reaction-test-cli/internal/config"
	"github.com/bnema/reaction-test-cli/internal/logging"
	"github.com/bnema/reaction-test-cli/internal/ports"
)

// runProgram runs an interactive bubbletea program. Tests replace it to drive
// the model without a terminal.
var runProgram = func(model tea.Model, opts ...tea.ProgramOption) (tea.Model, error) {
	return tea.NewProgram(model, opts...).Run()
}

type app struct {
	log              *zap.Logger
	repo             *tomlrepo.Repository
	orch             *application.Orchestrator
	clock            ports.Clock
	overviewRenderer func([]application.OverviewRow, summary.RenderOptions) (string, error)
	reportRenderer   func(application.Report) (string, error)
	now              func() time.Time
}

func (a *app) wire(cmd *cobra.Command, verbose bool) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}

	v, err := config.Load(homeDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	logOpts := logging.Options{}
	if verbose {
		logOpts.Console = cmd.ErrOrStderr()
	}
	log, err := logging.New(cfg.Logging, logOpts)
	if err != nil {
		return fmt.Errorf("wire logger: %w", err)
	}

	repo, err := tomlrepo.NewRepository(v)
	if err != nil {
		return fmt.Errorf("wire session repository: %w", err)
	}

	clock := ports.SystemClock{}
	orch := application.NewOrchestrator(repo, clock, nil, log)
	orch.Load(cmd.Context())

	a.log = log
	a.repo = repo
	a.orch = orch
	a.clock = clock
	a.overviewRenderer = summary.RenderOverview
	a.reportRenderer = summary.RenderReport
	a.now = time.Now

	log.Debug("app wired",
		zap.String("command", cmd.CommandPath()),
		zap.String("sessions_path", repo.Path()),
	)
	return nil
}

func (a *app) close() {
	if a.log != nil {
		_ = a.log.Sync()
	}
}
