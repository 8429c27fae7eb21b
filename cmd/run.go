package cmd

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bnema/reaction-test-cli/internal/adapters/tui"
	"github.com/bnema/reaction-test-cli/internal/domain"
)

func newRunCmd(app *app) *cobra.Command {
	var name string
	var sex string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reaction-time experiment for a new participant",
		Long:  "run opens the experiment in the terminal. --name and --sex prefill the identification form; the participant still confirms the terms before the first round.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var parsed domain.Sex
			if sex != "" {
				var err error
				parsed, err = domain.ParseSex(sex)
				if err != nil {
					return err
				}
			}

			return runExperiment(cmd, app, tui.Options{Name: name, Sex: parsed, Logger: app.log})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "participant name")
	cmd.Flags().StringVar(&sex, "sex", "", "participant sex (male or female)")

	return cmd
}

func runExperiment(cmd *cobra.Command, app *app, opts tui.Options) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := tui.New(ctx, app.orch, opts)
	_, err := runProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run experiment: %w", err)
	}

	fields := []zap.Field{zap.String("phase", string(app.orch.Phase()))}
	if current, ok := app.orch.Current(); ok {
		fields = append(fields, zap.String("session_id", string(current.ID)))
	}
	if lastErr := model.Err(); lastErr != nil {
		fields = append(fields, zap.NamedError("last_error", lastErr))
	}
	app.log.Info("experiment closed", fields...)

	return nil
}
