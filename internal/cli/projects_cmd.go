package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/daylog/internal/cli/formatter"
)

func newProjectsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List known projects (configured and project folders)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := app.Process.Projects(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProjects(set))
			return nil
		},
	}
}
