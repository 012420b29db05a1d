package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/daylog/internal/cli/formatter"
	"github.com/alexanderramin/daylog/internal/service"
)

func newProcessCmd(app *App) *cobra.Command {
	var file string
	var date dateValue

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process the inbox, or a single file, into daily notes and todos",
		Long: `Process transcribes each source file, extracts a structured record and
action items, writes the daily note into the project folder and appends
new todos to the project's list.

Without --file every supported file in the inbox is processed. The command
exits non-zero when any file failed, after reporting all of them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if file != "" {
				stop := spin(app, cmd, "Processing "+file)
				res, err := app.Process.ProcessFile(ctx, service.ProcessRequest{Path: file, Date: date.Time()})
				stop()
				if err != nil {
					return err
				}
				fmt.Fprint(out, formatter.FormatProcessResult(res))
				return nil
			}

			if date.Time() != nil {
				return fmt.Errorf("--date requires --file")
			}

			stop := spin(app, cmd, "Processing inbox")
			batch, err := app.Process.ProcessInbox(ctx)
			stop()
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatBatch(batch))
			if batch.Failed() > 0 {
				return fmt.Errorf("%d of %d files failed", batch.Failed(), len(batch.Items))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Process one file instead of the inbox")
	cmd.Flags().Var(&date, "date", "Date of the log (YYYY-MM-DD), overriding the file name")

	return cmd
}
