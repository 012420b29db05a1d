package notes

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/project"
)

var markdown = goldmark.New()

var dailyName = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})_(.+?)(_\d{6}(?:-\d+)?)?\.md$`)

// ParseDailyName splits a daily document file name into its date and the
// file-safe project part.
func ParseDailyName(name string) (time.Time, string, bool) {
	m := dailyName.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, "", false
	}
	date, err := time.Parse(domain.DateLayout, m[1])
	if err != nil {
		return time.Time{}, "", false
	}
	return date, m[2], true
}

// ReadDaily parses a daily document: front matter first, then the fixed
// sections. Placeholder sections read back as empty.
func ReadDaily(path string) (domain.DailyDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.DailyDocument{}, fmt.Errorf("reading daily document: %w", err)
	}

	name := filepath.Base(path)
	doc := domain.DailyDocument{Path: path, Name: name}
	if date, safe, ok := ParseDailyName(name); ok {
		doc.Date = date
		doc.Project = safe
	}

	front, body := SplitFrontMatter(data)
	if len(front) > 0 {
		var fm frontMatter
		if err := yaml.Unmarshal(front, &fm); err != nil {
			return domain.DailyDocument{}, fmt.Errorf("parsing front matter of %s: %w", name, err)
		}
		if d, err := time.Parse(domain.DateLayout, fm.Date); err == nil {
			doc.Date = d
		}
		if fm.Project != "" {
			doc.Project = fm.Project
		}
	}

	sections := ParseSections(body)
	for _, s := range DailySections {
		v := sections[normTitle(s.Title)]
		if v == Placeholder {
			v = ""
		}
		s.set(&doc.Record, v)
	}
	doc.Record.Project = doc.Project
	return doc, nil
}

// ListDaily reads every daily document in dir, optionally limited to one
// project, ordered by date then name. A missing dir yields no documents.
func ListDaily(dir, projectName string) ([]domain.DailyDocument, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing daily documents: %w", err)
	}

	want := ""
	if projectName != "" {
		want = project.FileSafe(projectName)
	}

	var docs []domain.DailyDocument
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		_, safe, ok := ParseDailyName(e.Name())
		if !ok || (want != "" && safe != want) {
			continue
		}
		doc, err := ReadDaily(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].Date.Equal(docs[j].Date) {
			return docs[i].Date.Before(docs[j].Date)
		}
		return docs[i].Name < docs[j].Name
	})
	return docs, nil
}

// SplitFrontMatter separates a leading "---" YAML block from the body.
func SplitFrontMatter(data []byte) (front, body []byte) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return nil, data
	}
	rest := data[4:]
	if bytes.HasPrefix(rest, []byte("---\n")) {
		return nil, rest[4:]
	}
	end := bytes.Index(rest, []byte("\n---\n"))
	if end < 0 {
		return nil, data
	}
	return rest[:end+1], rest[end+5:]
}

// ParseSections maps each heading title (lowercased, leading symbols
// stripped) to the markdown below it. A section ends at the next heading of
// level 1 or 2, or at a thematic break.
func ParseSections(src []byte) map[string]string {
	doc := markdown.Parser().Parse(text.NewReader(src))

	out := make(map[string]string)
	current := ""
	start, stop := -1, -1
	flush := func() {
		if current != "" {
			if start >= 0 {
				out[current] = strings.TrimSpace(string(src[lineStart(src, start):stop]))
			} else if _, seen := out[current]; !seen {
				out[current] = ""
			}
		}
		start, stop = -1, -1
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Heading:
			if n.Level <= 2 {
				flush()
				current = normTitle(headingText(n, src))
				continue
			}
		case *ast.ThematicBreak:
			flush()
			current = ""
			continue
		}
		if current == "" {
			continue
		}
		if s, e, ok := blockRange(n, src); ok {
			if start < 0 || s < start {
				start = s
			}
			if e > stop {
				stop = e
			}
		}
	}
	flush()
	return out
}

func headingText(h *ast.Heading, src []byte) string {
	var b strings.Builder
	lines := h.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

func normTitle(s string) string {
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.ToLower(strings.TrimSpace(s))
}

// blockRange returns the source byte range covered by a block node and its
// block descendants.
func blockRange(n ast.Node, src []byte) (int, int, bool) {
	if n.Type() != ast.TypeBlock {
		return 0, 0, false
	}
	start, stop, ok := -1, -1, false

	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if !ok || seg.Start < start {
			start = seg.Start
		}
		if seg.Stop > stop {
			stop = seg.Stop
		}
		ok = true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if s, e, cok := blockRange(c, src); cok {
			if !ok || s < start {
				start = s
			}
			if e > stop {
				stop = e
			}
			ok = true
		}
	}

	if fc, isFence := n.(*ast.FencedCodeBlock); isFence {
		if fc.Info != nil && (!ok || fc.Info.Segment.Start < start) {
			start, ok = fc.Info.Segment.Start, true
			if stop < start {
				stop = fc.Info.Segment.Stop
			}
		}
		if ok {
			if prev := lineStart(src, start); prev > 0 && isFenceLine(src, lineStart(src, prev-1)) {
				start = lineStart(src, prev-1)
			}
			next := stop
			if next == 0 || src[next-1] != '\n' {
				next = lineEnd(src, stop)
			}
			if isFenceLine(src, next) {
				stop = lineEnd(src, next)
			}
		}
	}
	return start, stop, ok
}

func lineStart(src []byte, i int) int {
	for i > 0 && src[i-1] != '\n' {
		i--
	}
	return i
}

// lineEnd returns the offset just past the newline ending the line that
// contains i.
func lineEnd(src []byte, i int) int {
	for i < len(src) && src[i] != '\n' {
		i++
	}
	if i < len(src) {
		i++
	}
	return i
}

func isFenceLine(src []byte, i int) bool {
	if i < 0 || i >= len(src) {
		return false
	}
	line := strings.TrimSpace(string(src[i:lineEnd(src, i)]))
	return strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~")
}

// Excerpt returns the plain text of the first paragraph of md, cut after
// the first sentence or at maxLen runes.
func Excerpt(md string, maxLen int) string {
	src := []byte(md)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Kind() == ast.KindParagraph || n.Kind() == ast.KindTextBlock {
				if b.Len() > 0 {
					return ast.WalkStop, nil
				}
			}
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})

	out := domain.CollapseWhitespace(b.String())
	if i := strings.Index(out, ". "); i >= 0 {
		out = out[:i+1]
	}
	if r := []rune(out); maxLen > 0 && len(r) > maxLen {
		out = strings.TrimSpace(string(r[:maxLen])) + "…"
	}
	return out
}
