package formatter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/llm"
	"github.com/alexanderramin/daylog/internal/project"
	"github.com/alexanderramin/daylog/internal/service"
)

// FormatProcessResult renders the outcome of processing one source file.
func FormatProcessResult(r *service.ProcessResult) string {
	var b strings.Builder
	b.WriteString(Success(fmt.Sprintf("%s → %s", filepath.Base(r.Path), r.Document.Name)))
	b.WriteString("\n")

	rows := [][]string{
		{"project", r.Document.Project},
		{"date", r.Date.Format(domain.DateLayout)},
		{"document", r.Document.Path},
	}
	if r.Document.TranscriptPath != "" {
		rows = append(rows, []string{"transcript", r.Document.TranscriptPath})
	}
	rows = append(rows, []string{"new todos", fmt.Sprintf("%d", len(r.Todos))})
	if r.Deleted {
		rows = append(rows, []string{"source", "deleted"})
	}
	b.WriteString(indent(RenderTable(nil, rows), "  "))

	for _, it := range r.Todos {
		fmt.Fprintf(&b, "    %s %s\n", it.Priority.Icon(), it.Text)
	}
	return b.String()
}

// FormatBatch renders an inbox run: one line per file and a summary bar.
func FormatBatch(batch *service.BatchResult) string {
	if len(batch.Items) == 0 {
		return Dim("Inbox is empty.") + "\n"
	}

	var b strings.Builder
	b.WriteString(Header("Inbox"))
	b.WriteString("\n")
	retryable := 0
	for _, it := range batch.Items {
		name := filepath.Base(it.Path)
		if it.Err != nil {
			fmt.Fprintf(&b, "  %s\n      %s\n", Failure(name), Dim(it.Err.Error()))
			if llm.IsRetryable(it.Err) {
				retryable++
				fmt.Fprintf(&b, "      %s\n", Warning("backend busy or down, rerun to retry"))
			}
			continue
		}
		doc := it.Result.Document
		fmt.Fprintf(&b, "  %s  %s\n", Success(name), Dim(fmt.Sprintf("→ %s (%s, %s)",
			doc.Name, doc.Project, Plural(len(it.Result.Todos), "new todo"))))
	}

	fmt.Fprintf(&b, "\n  %s  %d processed, %d failed\n",
		RenderProgress(batch.Processed(), len(batch.Items), 20), batch.Processed(), batch.Failed())
	if retryable > 0 {
		fmt.Fprintf(&b, "  %s\n", Dim(Plural(retryable, "file")+" left in the inbox can be retried"))
	}
	return b.String()
}

// FormatTodoExtract renders a todo-only run.
func FormatTodoExtract(r *service.TodoExtractResult) string {
	var b strings.Builder
	b.WriteString(Success(fmt.Sprintf("%s → %s", filepath.Base(r.Path), r.Project)))
	b.WriteString("\n")
	if r.TranscriptPath != "" {
		fmt.Fprintf(&b, "  %s %s\n", Dim("transcript"), r.TranscriptPath)
	}
	if len(r.Added) == 0 {
		fmt.Fprintf(&b, "  %s\n", Dim("No new todos."))
		return b.String()
	}
	fmt.Fprintf(&b, "  %s\n", Bold(Plural(len(r.Added), "new todo")))
	for _, it := range r.Added {
		fmt.Fprintf(&b, "    %s %s\n", it.Priority.Icon(), it.Text)
	}
	return b.String()
}

// FormatProjects lists the known projects with their folder names.
func FormatProjects(set project.Set) string {
	var b strings.Builder
	b.WriteString(Header("Projects"))
	b.WriteString("\n")
	if set.Len() == 0 {
		b.WriteString("\n  " + Dim("No projects configured.") + "\n")
		return b.String()
	}
	rows := make([][]string, 0, set.Len())
	for _, name := range set.Names() {
		rows = append(rows, []string{name, project.DirName(name), project.FileSafe(name)})
	}
	b.WriteString("\n")
	b.WriteString(RenderTable([]string{"Project", "Folder", "File prefix"}, rows))
	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n") + "\n"
}
