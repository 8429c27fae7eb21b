package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bnema/reaction-test-cli/internal/adapters/render/summary"
	"github.com/bnema/reaction-test-cli/internal/adapters/tui"
	"github.com/bnema/reaction-test-cli/internal/application"
	"github.com/bnema/reaction-test-cli/internal/domain"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func newSessionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and resume stored sessions",
	}

	cmd.AddCommand(
		newSessionListCmd(app),
		newSessionShowCmd(app),
		newSessionContinueCmd(app),
	)

	return cmd
}

func newSessionListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every session with its progress and headline statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows := application.BuildOverview(app.orch.Sessions())
			if asJSON {
				docs := make([]overviewDocument, 0, len(rows))
				for _, row := range rows {
					docs = append(docs, newOverviewDocument(row))
				}
				return writeJSON(cmd.OutOrStdout(), docs)
			}

			rendered, err := app.overviewRenderer(rows, summary.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render sessions: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")

	return cmd
}

func newSessionShowCmd(app *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session with overall and per-round statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.orch.Session(domain.SessionID(args[0]))
			if err != nil {
				return err
			}
			report := application.BuildReport(session)

			switch format {
			case formatText:
				rendered, err := app.reportRenderer(report)
				if err != nil {
					return fmt.Errorf("render session: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
				return err
			case formatJSON:
				return writeJSON(cmd.OutOrStdout(), newSessionDocument(report))
			case formatYAML:
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(newSessionDocument(report)); err != nil {
					return fmt.Errorf("encode session: %w", err)
				}
				return enc.Close()
			default:
				return fmt.Errorf("unsupported format %q (want %s, %s or %s)", format, formatText, formatJSON, formatYAML)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json or yaml")

	return cmd
}

func newSessionContinueCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "continue <session-id>",
		Short: "Resume an active session at its first unrecorded trial",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.SessionID(args[0])
			if err := app.orch.Continue(cmd.Context(), id); err != nil {
				return err
			}

			// A fully recorded session is completed by Continue itself.
			if app.orch.Phase() == application.PhaseSummary {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "session %s completed\n", id)
				return err
			}

			return runExperiment(cmd, app, tui.Options{Logger: app.log})
		},
	}
}

type overviewDocument struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Sex         string     `json:"sex"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Active      bool       `json:"active"`
	Round       int        `json:"round"`
	Trial       int        `json:"trial"`
	Average     *float64   `json:"average_ms"`
	Best        *float64   `json:"best_ms"`
	StdDev      *float64   `json:"std_dev_ms"`
	ValidTrials int        `json:"valid_trials"`
}

func newOverviewDocument(row application.OverviewRow) overviewDocument {
	return overviewDocument{
		ID:          string(row.ID),
		Name:        row.User.Name,
		Sex:         string(row.User.Sex),
		StartTime:   row.StartTime,
		EndTime:     row.EndTime,
		Active:      row.Active,
		Round:       row.Progress.Round,
		Trial:       row.Progress.Trial,
		Average:     row.Average,
		Best:        row.Best,
		StdDev:      row.StdDev,
		ValidTrials: row.ValidTrials,
	}
}

type sessionDocument struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Sex       string          `json:"sex" yaml:"sex"`
	StartTime time.Time       `json:"start_time" yaml:"start_time"`
	EndTime   *time.Time      `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Overall   statsDocument   `json:"overall" yaml:"overall"`
	Rounds    []roundDocument `json:"rounds" yaml:"rounds"`
}

type roundDocument struct {
	RoundNumber int           `json:"round_number" yaml:"round_number"`
	SoundLevel  string        `json:"sound_level" yaml:"sound_level"`
	TimesMs     []*float64    `json:"times_ms" yaml:"times_ms"`
	Stats       statsDocument `json:"stats" yaml:"stats"`
}

type statsDocument struct {
	Count   int     `json:"count" yaml:"count"`
	Average float64 `json:"average_ms" yaml:"average_ms"`
	Median  float64 `json:"median_ms" yaml:"median_ms"`
	Best    float64 `json:"best_ms" yaml:"best_ms"`
	Worst   float64 `json:"worst_ms" yaml:"worst_ms"`
	Q1      float64 `json:"q1_ms" yaml:"q1_ms"`
	Q3      float64 `json:"q3_ms" yaml:"q3_ms"`
	StdDev  float64 `json:"std_dev_ms" yaml:"std_dev_ms"`
	SEM     float64 `json:"sem_ms" yaml:"sem_ms"`
}

func newSessionDocument(report application.Report) sessionDocument {
	session := report.Session
	doc := sessionDocument{
		ID:        string(session.ID),
		Name:      session.User.Name,
		Sex:       string(session.User.Sex),
		StartTime: session.StartTime,
		EndTime:   session.EndTime,
		Overall:   newStatsDocument(report.Overall),
		Rounds:    make([]roundDocument, 0, len(report.Rounds)),
	}

	for _, round := range report.Rounds {
		times := make([]*float64, 0, len(round.Trials))
		for _, trial := range round.Trials {
			times = append(times, trial.Time)
		}
		doc.Rounds = append(doc.Rounds, roundDocument{
			RoundNumber: round.RoundNumber,
			SoundLevel:  round.SoundLevel,
			TimesMs:     times,
			Stats:       newStatsDocument(round.Stats),
		})
	}

	return doc
}

func newStatsDocument(stats domain.StatValues) statsDocument {
	return statsDocument{
		Count:   stats.Count,
		Average: stats.Average,
		Median:  stats.Median,
		Best:    stats.Best,
		Worst:   stats.Max,
		Q1:      stats.Q1,
		Q3:      stats.Q3,
		StdDev:  stats.StdDev,
		SEM:     stats.SEM,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
