package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/daylog/internal/cli/formatter"
	"github.com/alexanderramin/daylog/internal/service"
	"github.com/alexanderramin/daylog/internal/todo"
)

func newTodosCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todos",
		Aliases: []string{"todo"},
		Short:   "Extract and manage per-project todo lists",
	}

	cmd.AddCommand(
		newTodosExtractCmd(app),
		newTodosListCmd(app),
		newTodosDoneCmd(app),
		newTodosRemoveCmd(app),
		newTodosCleanCmd(app),
		newTodosHistoryCmd(app),
	)

	return cmd
}

func newTodosExtractCmd(app *App) *cobra.Command {
	var date dateValue

	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Extract todos from a file without writing a daily note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stop := spin(app, cmd, "Extracting todos")
			res, err := app.Process.ExtractTodos(cmd.Context(), service.ProcessRequest{Path: args[0], Date: date.Time()})
			stop()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTodoExtract(res))
			return nil
		},
	}

	cmd.Flags().Var(&date, "date", "Date of the log (YYYY-MM-DD), overriding the file name")

	return cmd
}

func newTodosListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT",
		Short: "Show a project's todos by priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.Todos.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTodoList(args[0], items))
			return nil
		},
	}
}

func newTodosDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done PROJECT TEXT...",
		Short: "Check off a todo",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			found, err := app.Todos.MarkDone(cmd.Context(), args[0], text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTodoAction("Done", text, found))
			return nil
		},
	}
}

func newTodosRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove PROJECT TEXT...",
		Aliases: []string{"rm"},
		Short:   "Delete a todo",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			found, err := app.Todos.Remove(cmd.Context(), args[0], text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTodoAction("Removed", text, found))
			return nil
		},
	}
}

func newTodosCleanCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clean PROJECT",
		Short: "Drop completed todos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := app.Todos.PurgeCompleted(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatPurge(args[0], n))
			return nil
		},
	}
}

func newTodosHistoryCmd(app *App) *cobra.Command {
	var show int

	cmd := &cobra.Command{
		Use:   "history PROJECT",
		Short: "List earlier revisions of a todo list (sqlite storage only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if show > 0 {
				data, err := app.Todos.Revision(cmd.Context(), args[0], show)
				if errors.Is(err, todo.ErrNoHistory) {
					return fmt.Errorf("%w: set storage.backend to sqlite to keep revisions", err)
				}
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), string(data))
				return nil
			}

			revs, err := app.Todos.History(cmd.Context(), args[0])
			if errors.Is(err, todo.ErrNoHistory) {
				return fmt.Errorf("%w: set storage.backend to sqlite to keep revisions", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTodoHistory(args[0], revs, app.now()))
			return nil
		},
	}

	cmd.Flags().IntVar(&show, "show", 0, "Print the markdown of revision N")
	return cmd
}
