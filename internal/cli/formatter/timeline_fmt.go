package formatter

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/service"
)

// FormatTimelineReport renders a timeline run grouped by project.
func FormatTimelineReport(r *service.TimelineReport) string {
	var b strings.Builder
	b.WriteString(Header("Timeline"))
	b.WriteString("\n")

	if len(r.Results) == 0 && len(r.Errors) == 0 {
		b.WriteString("\n  " + Dim("Nothing to aggregate.") + "\n")
		return b.String()
	}

	byProject := make(map[string][]string)
	var order []string
	for _, res := range r.Results {
		if _, ok := byProject[res.Project]; !ok {
			order = append(order, res.Project)
		}
		byProject[res.Project] = append(byProject[res.Project], formatWeekLine(res.WeekKey, res.WeekStart.Format(domain.DateLayout),
			res.Outcome, res.Reason, res.Path, len(res.Days), res.Collided, res.PurgedTodos))
	}
	for name := range r.Errors {
		if _, ok := byProject[name]; !ok {
			order = append(order, name)
			byProject[name] = nil
		}
	}
	sort.Strings(order)

	for _, name := range order {
		fmt.Fprintf(&b, "\n  %s\n", Bold(name))
		for _, line := range byProject[name] {
			b.WriteString(line)
		}
		if err, ok := r.Errors[name]; ok {
			fmt.Fprintf(&b, "    %s\n", Failure(err.Error()))
		}
	}

	if len(r.Indexes) > 0 {
		b.WriteString("\n")
		for _, p := range r.Indexes {
			fmt.Fprintf(&b, "  %s %s\n", Dim("index"), p)
		}
	}
	fmt.Fprintf(&b, "\n  %s\n", Dim(fmt.Sprintf("%s created", Plural(r.Created(), "weekly document"))))
	return b.String()
}

func formatWeekLine(key, start string, outcome domain.Outcome, reason domain.SkipReason, path string, days int, collided bool, purged int) string {
	line := fmt.Sprintf("    %s  %s  %s", key, Dim(start), OutcomeBadge(outcome, reason))
	if outcome == domain.OutcomeCreated {
		detail := fmt.Sprintf("%s, %s", filepath.Base(path), Plural(days, "day"))
		if collided {
			detail += ", renamed"
		}
		if purged > 0 {
			detail += fmt.Sprintf(", %s cleared", Plural(purged, "completed todo"))
		}
		line += "  " + Dim(detail)
	}
	return line + "\n"
}
