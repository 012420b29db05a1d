package cli

import (
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/daylog/internal/cli/formatter"
	"github.com/alexanderramin/daylog/internal/config"
	"github.com/alexanderramin/daylog/internal/llm"
	"github.com/alexanderramin/daylog/internal/service"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Process  service.ProcessService
	Todos    service.TodoService
	Timeline service.TimelineService
	Backend  llm.LLMClient

	Config *config.Config

	// LogLevel is raised to debug by --verbose. Optional.
	LogLevel *slog.LevelVar
	// Interactive enables spinners and colors; false for pipes and cron.
	Interactive bool
	// Now is the clock used for relative timestamps. Defaults to time.Now.
	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// NewRootCmd creates the top-level "daylog" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var verbose, plain bool

	root := &cobra.Command{
		Use:   "daylog",
		Short: "Turn recorded daily logs into project notes, todos and weekly timelines",
		// main prints the returned error.
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SilenceUsage = true
			if verbose && app.LogLevel != nil {
				app.LogLevel.Set(slog.LevelDebug)
			}
			formatter.SetPlain(plain || !app.Interactive)
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug details to stderr")
	root.PersistentFlags().BoolVar(&plain, "plain", false, "Disable colors")

	root.AddCommand(
		newProcessCmd(app),
		newTodosCmd(app),
		newTimelineCmd(app),
		newProjectsCmd(app),
		newCheckCmd(app),
	)

	return root
}

// spin starts a spinner on the command's error stream when the session is
// interactive.
func spin(app *App, cmd *cobra.Command, message string) func() {
	var w io.Writer = cmd.ErrOrStderr()
	return formatter.StartSpinner(w, app.Interactive, message)
}
