package notes

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/project"
)

// Placeholder is rendered for sections the extraction left empty.
const Placeholder = "None mentioned"

// Section is one fixed heading of a daily document. The order of
// DailySections is the document layout.
type Section struct {
	Title string
	Icon  string
	value func(domain.Record) string
	set   func(*domain.Record, string)
}

var DailySections = []Section{
	{Title: "Summary", Icon: "📋",
		value: func(r domain.Record) string { return r.Summary },
		set:   func(r *domain.Record, v string) { r.Summary = v }},
	{Title: "Completed Today", Icon: "✅",
		value: func(r domain.Record) string { return r.Completed },
		set:   func(r *domain.Record, v string) { r.Completed = v }},
	{Title: "In Progress / Blockers", Icon: "🚧",
		value: func(r domain.Record) string { return r.Blockers },
		set:   func(r *domain.Record, v string) { r.Blockers = v }},
	{Title: "Next Steps", Icon: "📝",
		value: func(r domain.Record) string { return r.NextSteps },
		set:   func(r *domain.Record, v string) { r.NextSteps = v }},
	{Title: "Thoughts & Ideas", Icon: "💭",
		value: func(r domain.Record) string { return r.Thoughts },
		set:   func(r *domain.Record, v string) { r.Thoughts = v }},
}

const transcriptSectionTitle = "Full Transcript"

type frontMatter struct {
	Date        string   `yaml:"date"`
	Project     string   `yaml:"project"`
	SourceAudio string   `yaml:"source_audio,omitempty"`
	Generated   string   `yaml:"generated,omitempty"`
	Transcript  string   `yaml:"transcript,omitempty"`
	Tags        []string `yaml:"tags,flow"`
}

// WriteFrontMatter encodes fm as a "---" delimited YAML block.
func WriteFrontMatter(b *bytes.Buffer, fm any) error {
	data, err := yaml.Marshal(fm)
	if err != nil {
		return fmt.Errorf("encoding front matter: %w", err)
	}
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n\n")
	return nil
}

// ProjectTag is the vault tag grouping a project's documents.
func ProjectTag(name string) string {
	return "project/" + project.FileSafe(name)
}

type dailyView struct {
	Date           string
	Record         domain.Record
	SourceAudio    string
	Generated      string
	TranscriptLink string
}

func renderDaily(v dailyView) ([]byte, error) {
	var b bytes.Buffer
	err := WriteFrontMatter(&b, frontMatter{
		Date:        v.Date,
		Project:     v.Record.Project,
		SourceAudio: v.SourceAudio,
		Generated:   v.Generated,
		Transcript:  v.TranscriptLink,
		Tags:        []string{"daily", "work-log", ProjectTag(v.Record.Project)},
	})
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(&b, "# Daily Log: %s\n\n", v.Date)
	for _, s := range DailySections {
		fmt.Fprintf(&b, "## %s %s\n%s\n\n", s.Icon, s.Title, OrPlaceholder(s.value(v.Record)))
	}
	if v.TranscriptLink != "" {
		fmt.Fprintf(&b, "## 📄 %s\n[View complete transcript](%s)\n\n", transcriptSectionTitle, LinkTarget(v.TranscriptLink))
	}
	b.WriteString("---\n")
	fmt.Fprintf(&b, "*Generated from transcript on %s*\n", v.Generated)
	return b.Bytes(), nil
}

type transcriptView struct {
	Date        string
	Project     string
	SourceAudio string
	Title       string
	Text        string
	Tags        []string
}

func renderTranscript(v transcriptView) ([]byte, error) {
	var b bytes.Buffer
	err := WriteFrontMatter(&b, frontMatter{
		Date:        v.Date,
		Project:     v.Project,
		SourceAudio: v.SourceAudio,
		Tags:        v.Tags,
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&b, "# %s: %s - %s\n\n", v.Title, v.Date, v.Project)
	b.WriteString(strings.TrimSpace(v.Text))
	b.WriteString("\n")
	return b.Bytes(), nil
}

// OrPlaceholder trims s and substitutes Placeholder when nothing is left.
func OrPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return strings.TrimSpace(s)
}

// LinkTarget wraps targets containing spaces in angle brackets.
func LinkTarget(p string) string {
	if strings.ContainsAny(p, " ()") {
		return "<" + p + ">"
	}
	return p
}
