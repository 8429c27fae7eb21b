package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	csvexport "github.com/bnema/reaction-test-cli/internal/adapters/export/csv"
	pdfexport "github.com/bnema/reaction-test-cli/internal/adapters/export/pdf"
	"github.com/bnema/reaction-test-cli/internal/adapters/render/chart"
	"github.com/bnema/reaction-test-cli/internal/application"
	"github.com/bnema/reaction-test-cli/internal/domain"
)

const (
	formatCSV  = "csv"
	formatHTML = "html"
	formatPDF  = "pdf"
)

func newExportCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions as CSV, HTML charts or a PDF summary",
	}

	cmd.AddCommand(
		newExportSessionCmd(app),
		newExportAllCmd(app),
	)

	return cmd
}

func newExportSessionCmd(app *app) *cobra.Command {
	var format string
	var outDir string

	cmd := &cobra.Command{
		Use:   "session <session-id>",
		Short: "Export one session's trials and statistics",
		Long:  "export session writes a CSV of every recorded trial, an HTML chart page or a PDF summary. Active sessions are exported with the trials recorded so far.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.orch.Session(domain.SessionID(args[0]))
			if err != nil {
				return err
			}
			if session.Active() {
				app.log.Warn("exporting active session",
					zap.String("session_id", string(session.ID)),
					zap.Int("recorded_trials", session.RecordedCount()),
				)
			}

			var export func() (string, error)
			switch format {
			case formatCSV:
				exporter := csvexport.NewExporter(outDir, app.clock)
				export = func() (string, error) {
					return exporter.ExportSession(session)
				}
			case formatHTML:
				export = func() (string, error) {
					return chart.WriteFile(outDir, application.BuildReport(session), app.now())
				}
			case formatPDF:
				export = func() (string, error) {
					return pdfexport.WriteFile(outDir, application.BuildReport(session), app.now())
				}
			default:
				return fmt.Errorf("unsupported format %q (want %s, %s or %s)", format, formatCSV, formatHTML, formatPDF)
			}

			path, err := runExportSpinner(cmd.Context(), cmd.ErrOrStderr(), "Exporting session...", export)
			if err != nil {
				return fmt.Errorf("export session %s: %w", session.ID, err)
			}

			app.log.Info("session exported",
				zap.String("session_id", string(session.ID)),
				zap.String("format", format),
				zap.String("path", path),
			)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatCSV, "export format: csv, html or pdf")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")

	return cmd
}

func newExportAllCmd(app *app) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Export a one-row-per-session CSV of every session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions := app.orch.Sessions()
			exporter := csvexport.NewExporter(outDir, app.clock)

			path, err := runExportSpinner(cmd.Context(), cmd.ErrOrStderr(), "Exporting sessions...", func() (string, error) {
				return exporter.ExportAll(sessions)
			})
			if err != nil {
				return fmt.Errorf("export sessions: %w", err)
			}

			app.log.Info("sessions exported", zap.Int("sessions", len(sessions)), zap.String("path", path))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")

	return cmd
}
