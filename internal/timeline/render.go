package timeline

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/notes"
)

type weeklySection struct {
	Title string
	Icon  string
	value func(domain.WeeklySummary) string
}

var weeklySections = []weeklySection{
	{"Week Summary", "📊", func(s domain.WeeklySummary) string { return s.WeekSummary }},
	{"Key Accomplishments", "🎯", func(s domain.WeeklySummary) string { return s.Accomplishments }},
	{"Insights & Thoughts", "💭", func(s domain.WeeklySummary) string { return s.Insights }},
	{"Progress Indicators", "🚧", func(s domain.WeeklySummary) string { return s.Progress }},
	{"Next Week Focus", "📝", func(s domain.WeeklySummary) string { return s.NextWeekFocus }},
}

type weeklyFrontMatter struct {
	Week      string   `yaml:"week"`
	DateRange string   `yaml:"date_range"`
	Project   string   `yaml:"project"`
	Generated string   `yaml:"generated"`
	Tags      []string `yaml:"tags,flow"`
}

type weeklyView struct {
	Project   string
	WeekKey   string
	Start     time.Time
	Summary   domain.WeeklySummary
	Completed []domain.TodoItem
	Days      []domain.DailyDocument
	Dir       string // directory the document is written to
	Generated time.Time
}

func dateRange(start time.Time) string {
	return start.Format(domain.DateLayout) + " to " + start.AddDate(0, 0, 6).Format(domain.DateLayout)
}

func renderWeekly(v weeklyView) ([]byte, error) {
	var b bytes.Buffer
	err := notes.WriteFrontMatter(&b, weeklyFrontMatter{
		Week:      v.WeekKey,
		DateRange: dateRange(v.Start),
		Project:   v.Project,
		Generated: v.Generated.Format("2006-01-02 15:04:05"),
		Tags:      []string{"timeline", "weekly-summary", notes.ProjectTag(v.Project)},
	})
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(&b, "# Week %s: %s - %s\n\n", v.WeekKey, dateRange(v.Start), v.Project)
	for _, s := range weeklySections {
		fmt.Fprintf(&b, "## %s %s\n%s\n\n", s.Icon, s.Title, notes.OrPlaceholder(s.value(v.Summary)))
	}

	if len(v.Completed) > 0 {
		b.WriteString("## ✅ Completed Tasks\n")
		for _, it := range v.Completed {
			fmt.Fprintf(&b, "- %s %s", it.Priority.Icon(), it.Text)
			if it.Context != "" {
				fmt.Fprintf(&b, " _%s_", it.Context)
			}
			if it.SourceRef != "" {
				fmt.Fprintf(&b, " *[[%s|Source]]*", it.SourceRef)
			}
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	b.WriteString("## 📄 Daily Notes References\n")
	for _, d := range v.Days {
		fmt.Fprintf(&b, "- [%s: Daily Log](%s)\n", d.Date.Format(domain.DateLayout), notes.LinkTarget(relLink(v.Dir, d.Path)))
	}
	return b.Bytes(), nil
}

func relLink(fromDir, target string) string {
	rel, err := filepath.Rel(fromDir, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

type indexEntry struct {
	Key     string
	Name    string
	Start   time.Time
	Summary string
}

// recentWeeks is how many weeks the index lists with their summaries.
const recentWeeks = 12

// renderIndex expects entries newest first.
func renderIndex(projectName string, entries []indexEntry) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Timeline\n\n", projectName)

	b.WriteString("## Recent Weeks\n")
	for i, e := range entries {
		if i == recentWeeks {
			break
		}
		fmt.Fprintf(&b, "- [%s: %s](%s)", e.Key, dateRange(e.Start), notes.LinkTarget(e.Name))
		if e.Summary != "" {
			fmt.Fprintf(&b, " - %s", e.Summary)
		}
		b.WriteByte('\n')
	}

	if len(entries) > recentWeeks {
		b.WriteString("\n## All Weeks\n")
		year := 0
		for _, e := range entries {
			y, w := e.Start.ISOWeek()
			if y != year {
				fmt.Fprintf(&b, "\n### %d\n", y)
				year = y
			}
			fmt.Fprintf(&b, "- [Week %02d: %s](%s)\n", w, dateRange(e.Start), notes.LinkTarget(e.Name))
		}
	}
	return []byte(b.String())
}
