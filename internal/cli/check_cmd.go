package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/daylog/internal/cli/formatter"
	"github.com/alexanderramin/daylog/internal/llm"
)

const checkTimeout = 10 * time.Second

func newCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Show the effective configuration and probe the LLM backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if app.Config != nil {
				fmt.Fprintln(out, formatter.RenderBox("Configuration", formatConfig(app)))
			}
			if app.Backend == nil {
				return fmt.Errorf("%w: no backend configured", llm.ErrBackendUnavailable)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			defer cancel()
			stop := spin(app, cmd, "Probing backend")
			ok := app.Backend.Available(ctx)
			stop()

			if !ok {
				fmt.Fprintln(out, formatter.Failure("Backend is not reachable."))
				return llm.ErrBackendUnavailable
			}
			fmt.Fprintln(out, formatter.Success("Backend is reachable."))
			return nil
		},
	}
}

func formatConfig(app *App) string {
	cfg := app.Config
	p := cfg.Paths()
	file := cfg.File
	if file == "" {
		file = "(defaults)"
	}

	rows := [][]string{
		{"config", file},
		{"vault", p.Root},
		{"daily", p.Daily},
		{"projects", p.Projects},
		{"inbox", p.Inbox},
		{"storage", cfg.Storage.Backend},
		{"provider", string(cfg.LLM.Provider)},
		{"endpoint", cfg.LLM.Endpoint},
		{"model", cfg.LLM.TaskModel(llm.TaskDailyNote)},
		{"weekly model", cfg.LLM.TaskModel(llm.TaskWeekly)},
	}
	if cfg.Processing.Transcriber.Command != "" {
		rows = append(rows, []string{"transcriber", cfg.Processing.Transcriber.Command})
	}
	return strings.TrimRight(formatter.RenderTable([]string{"Setting", "Value"}, rows), "\n")
}
