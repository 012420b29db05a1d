package todo

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/project"
)

var (
	checkboxLine = regexp.MustCompile(`^\s*[-*+] \[([ xX])\]\s+(.*)$`)
	sourceLink   = regexp.MustCompile(`\s*\*?\[\[([^\]|]+)(?:\|[^\]]*)?\]\]\*?\s*$`)
	contextTail  = regexp.MustCompile(`\s+_((?:[^_\\]|\\.)+)_\s*$`)
	// looseContext accepts hand-typed contexts with bare inner underscores.
	looseContext = regexp.MustCompile(`\s+_(\S.*?)_\s*$`)
	escapedChar  = regexp.MustCompile(`\\([\\_*\[\]])`)
	headingLine  = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	priorityWord = regexp.MustCompile(`(?i)\b(high|medium|low)\b`)
)

type listFrontMatter struct {
	Tags []string `yaml:"tags,flow"`
}

// Render produces the markdown form of list: front matter, title and one
// section per non-empty priority group, high first.
func Render(list *domain.TodoList) ([]byte, error) {
	var buf bytes.Buffer

	fm, err := yaml.Marshal(listFrontMatter{
		Tags: []string{"todo", "project/" + project.FileSafe(list.Project)},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding todo front matter: %w", err)
	}
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	fmt.Fprintf(&buf, "# %s Todo List\n", list.Project)

	items := list.ByPriority()
	for _, p := range domain.Priorities {
		first := true
		for _, it := range items {
			if it.Priority.Rank() != p.Rank() {
				continue
			}
			if first {
				fmt.Fprintf(&buf, "\n## %s %s Priority\n\n", p.Icon(), p.Title())
				first = false
			}
			buf.WriteString(renderItem(it))
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

func renderItem(it domain.TodoItem) string {
	var b strings.Builder
	if it.Done {
		b.WriteString("- [x] ")
	} else {
		b.WriteString("- [ ] ")
	}
	b.WriteString(it.Priority.Icon())
	b.WriteByte(' ')
	b.WriteString(escapeInline(domain.CollapseWhitespace(it.Text)))
	if c := domain.CollapseWhitespace(it.Context); c != "" {
		b.WriteString(" _")
		b.WriteString(escapeInline(c))
		b.WriteByte('_')
	}
	if it.SourceRef != "" {
		b.WriteString(" *[[")
		b.WriteString(it.SourceRef)
		b.WriteString("|Source]]*")
	}
	return b.String()
}

// Parse reads a todo list back, tolerating hand edits: checkbox lines are
// recognised anywhere, the priority comes from the line's icon, else from
// the enclosing heading, else medium. Other lines are ignored.
func Parse(projectName string, data []byte) *domain.TodoList {
	list := &domain.TodoList{Project: projectName}

	heading := domain.PriorityMedium
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if m := headingLine.FindStringSubmatch(line); m != nil {
			heading = domain.PriorityMedium
			if len(m[1]) > 1 {
				heading = headingPriority(m[2])
			}
			continue
		}
		m := checkboxLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if it, ok := parseItem(m[2], heading); ok {
			it.Done = m[1] != " "
			it.SourceProject = projectName
			list.Add(it)
		}
	}
	return list
}

func parseItem(rest string, fallback domain.Priority) (domain.TodoItem, bool) {
	it := domain.TodoItem{Priority: fallback}

	rest = strings.TrimSpace(rest)
	for _, p := range domain.Priorities {
		if after, ok := strings.CutPrefix(rest, p.Icon()); ok {
			it.Priority = p
			rest = strings.TrimSpace(after)
			break
		}
	}

	if m := sourceLink.FindStringSubmatchIndex(rest); m != nil {
		it.SourceRef = strings.TrimSpace(rest[m[2]:m[3]])
		rest = rest[:m[0]]
		it.SourceDate = refDate(it.SourceRef)
	}
	m := contextTail.FindStringSubmatchIndex(rest)
	if m == nil {
		m = looseContext.FindStringSubmatchIndex(rest)
	}
	if m != nil {
		it.Context = unescapeInline(strings.TrimSpace(rest[m[2]:m[3]]))
		rest = rest[:m[0]]
	}

	it.Text = unescapeInline(strings.TrimSpace(rest))
	return it, it.Text != ""
}

var inlineEscaper = strings.NewReplacer(`\`, `\\`, "_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`)

// escapeInline backslash-escapes the characters that delimit the context
// and source link, so item text and context survive a round trip.
func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}

func unescapeInline(s string) string {
	return escapedChar.ReplaceAllString(s, "$1")
}

func headingPriority(title string) domain.Priority {
	for _, p := range domain.Priorities {
		if strings.Contains(title, p.Icon()) {
			return p
		}
	}
	if m := priorityWord.FindStringSubmatch(title); m != nil {
		return domain.ParsePriority(m[1])
	}
	return domain.PriorityMedium
}

// refDate reads the date prefix of a daily document reference.
func refDate(ref string) time.Time {
	if len(ref) < len(domain.DateLayout) {
		return time.Time{}
	}
	d, err := time.Parse(domain.DateLayout, ref[:len(domain.DateLayout)])
	if err != nil {
		return time.Time{}
	}
	return d
}
