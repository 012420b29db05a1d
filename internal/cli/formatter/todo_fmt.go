package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/repository"
)

// FormatTodoList renders a project's todos grouped by priority, open items
// before completed ones within each group.
func FormatTodoList(projectName string, items []domain.TodoItem) string {
	var b strings.Builder
	b.WriteString(Header(projectName + " todos"))
	b.WriteString("\n")

	if len(items) == 0 {
		b.WriteString("\n  " + Dim("No todos yet.") + "\n")
		return b.String()
	}

	open := 0
	for _, p := range domain.Priorities {
		var group []domain.TodoItem
		for _, it := range items {
			if it.Priority == p {
				group = append(group, it)
			}
		}
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n  %s %s\n", p.Icon(), PriorityStyle(p).Bold(true).Render(p.Title()))
		for _, it := range sortOpenFirst(group) {
			if !it.Done {
				open++
			}
			b.WriteString(formatTodoLine(it))
		}
	}

	fmt.Fprintf(&b, "\n  %s\n", Dim(fmt.Sprintf("%s open, %d done", Plural(open, "todo"), len(items)-open)))
	return b.String()
}

func sortOpenFirst(items []domain.TodoItem) []domain.TodoItem {
	out := make([]domain.TodoItem, 0, len(items))
	for _, it := range items {
		if !it.Done {
			out = append(out, it)
		}
	}
	for _, it := range items {
		if it.Done {
			out = append(out, it)
		}
	}
	return out
}

func formatTodoLine(it domain.TodoItem) string {
	box := "[ ]"
	text := StyleFg.Render(it.Text)
	if it.Done {
		box = StyleGreen.Render("[x]")
		text = Dim(it.Text)
	}

	var meta []string
	if !it.SourceDate.IsZero() {
		meta = append(meta, it.SourceDate.Format(domain.DateLayout))
	}
	if it.SourceRef != "" {
		meta = append(meta, "[["+it.SourceRef+"]]")
	}

	line := fmt.Sprintf("    %s %s", box, text)
	if len(meta) > 0 {
		line += "  " + Dim(strings.Join(meta, " · "))
	}
	line += "\n"
	if it.Context != "" {
		line += "        " + Dim(it.Context) + "\n"
	}
	return line
}

// FormatTodoAction reports the outcome of done/remove on one item.
func FormatTodoAction(verb, text string, found bool) string {
	if !found {
		return Warning(fmt.Sprintf("No todo matching %q.", text))
	}
	return Success(fmt.Sprintf("%s: %s", verb, text))
}

// FormatPurge reports how many completed todos were dropped.
func FormatPurge(projectName string, n int) string {
	if n == 0 {
		return Dim(fmt.Sprintf("No completed todos in %s.", projectName))
	}
	return Success(fmt.Sprintf("Removed %s from %s.", Plural(n, "completed todo"), projectName))
}

// FormatTodoHistory renders the stored revisions of a todo list.
func FormatTodoHistory(projectName string, revs []repository.Revision, now time.Time) string {
	var b strings.Builder
	b.WriteString(Header(projectName + " todo history"))
	b.WriteString("\n")

	if len(revs) == 0 {
		b.WriteString("\n  " + Dim("No earlier revisions.") + "\n")
		return b.String()
	}

	rows := make([][]string, 0, len(revs))
	for _, r := range revs {
		rows = append(rows, []string{
			strconv.Itoa(r.Revision),
			r.ReplacedAt.Local().Format("2006-01-02 15:04"),
			HumanTimestampFrom(r.ReplacedAt, now),
			HumanBytes(r.SizeBytes),
		})
	}
	b.WriteString("\n")
	b.WriteString(RenderTable([]string{"Rev", "Replaced", "When", "Size"}, rows))
	return b.String()
}
