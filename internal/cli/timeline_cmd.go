package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/daylog/internal/cli/formatter"
	"github.com/alexanderramin/daylog/internal/service"
)

func newTimelineCmd(app *App) *cobra.Command {
	var projectName string
	var week dateValue
	var force bool

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Generate weekly summaries and refresh timeline indexes",
		Long: `Timeline aggregates daily notes into weekly documents.

Without --week every week that has daily notes but no weekly document is
generated. With --week only the seven days starting at that date are
aggregated; --force regenerates a week that already has a document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if force && week.Time() == nil {
				return fmt.Errorf("--force requires --week")
			}

			stop := spin(app, cmd, "Aggregating weeks")
			report, err := app.Timeline.Generate(cmd.Context(), service.TimelineRequest{
				Project: projectName,
				Week:    week.Time(),
				Force:   force,
			})
			stop()
			if report != nil {
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTimelineReport(report))
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&projectName, "project", "p", "", "Only this project")
	cmd.Flags().Var(&week, "week", "First day of the week to aggregate (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&force, "force", false, "Regenerate a week that already has a weekly document")

	return cmd
}
