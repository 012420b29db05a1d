package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/alexanderramin/daylog/internal/llm"
)

// Decoder turns a raw backend response into field values keyed by
// Field.Key. A decoder that cannot interpret the response returns an error
// and the next decoder in the chain is tried.
type Decoder interface {
	Name() string
	Decode(raw string, fields []Field) (map[string]string, error)
}

// Chain is an ordered list of decoders; the first success wins.
type Chain []Decoder

// DefaultChain is structured JSON, then section markers, then raw text.
var DefaultChain = Chain{JSONDecoder{}, MarkerDecoder{}, RawDecoder{}}

// Decode runs the chain and returns the values with the name of the decoder
// that produced them. It never fails: when every decoder errors the result
// is RawDecoder's.
func (c Chain) Decode(raw string, fields []Field) (map[string]string, string) {
	for _, d := range c {
		values, err := d.Decode(raw, fields)
		if err == nil {
			return values, d.Name()
		}
	}
	values, _ := RawDecoder{}.Decode(raw, fields)
	return values, RawDecoder{}.Name()
}

var errNoMarkers = errors.New("no section markers found")

// JSONDecoder reads a JSON object. Keys are matched ignoring case and
// punctuation, missing fields are empty and array values become bullet lists.
type JSONDecoder struct{}

func (JSONDecoder) Name() string { return "json" }

func (JSONDecoder) Decode(raw string, fields []Field) (map[string]string, error) {
	obj, err := llm.ExtractJSON[map[string]any](raw, nil)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]any, len(obj))
	for k, v := range obj {
		byKey[normKey(k)] = v
	}

	values := make(map[string]string, len(fields))
	for _, f := range fields {
		for _, k := range append([]string{f.Key}, f.Aliases...) {
			v, ok := byKey[normKey(k)]
			if !ok {
				continue
			}
			values[f.Key] = fixBullets(stringify(v))
			break
		}
		if _, ok := values[f.Key]; !ok {
			values[f.Key] = ""
		}
	}
	return values, nil
}

// MarkerDecoder recovers fields from prose by looking for section markers
// at line starts ("Summary:", "**Next Steps**:", "## Completed Today") and
// quoted keys anywhere (`"thoughts": ...`, as in truncated one-line JSON).
// A field's text runs to the next marker or the end. Finding only the
// project marker is not enough to claim the response.
type MarkerDecoder struct{}

func (MarkerDecoder) Name() string { return "markers" }

func (MarkerDecoder) Decode(raw string, fields []Field) (map[string]string, error) {
	labels := labelsLongestFirst(fields)
	collected := make(map[string][]string, len(fields))
	current := ""
	found := false

	for _, line := range strings.Split(splitQuotedKeys(raw, fields), "\n") {
		if key, rest, ok := matchMarker(line, labels); ok {
			current = key
			found = true
			if _, seen := collected[key]; !seen {
				collected[key] = []string{}
			}
			if rest != "" {
				collected[key] = append(collected[key], rest)
			}
			continue
		}
		if current != "" {
			collected[current] = append(collected[current], line)
		}
	}
	if !found {
		return nil, errNoMarkers
	}
	if _, onlyProject := collected[keyProject]; onlyProject && len(collected) == 1 {
		return nil, errNoMarkers
	}

	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f.Key] = fixBullets(cleanValue(strings.Join(collected[f.Key], "\n")))
	}
	return values, nil
}

// quotedKeyPattern matches `"<name>":` for any key, alias or label of
// fields, with spaces and underscores interchangeable.
func quotedKeyPattern(fields []Field) *regexp.Regexp {
	var names []string
	for _, f := range fields {
		names = append(names, f.Key)
		names = append(names, f.Aliases...)
		names = append(names, f.Labels...)
	}
	sort.SliceStable(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	alts := make([]string, 0, len(names))
	for _, n := range names {
		alts = append(alts, strings.NewReplacer(" ", "[ _]", "_", "[ _]").Replace(regexp.QuoteMeta(n)))
	}
	return regexp.MustCompile(`(?i)"(?:` + strings.Join(alts, "|") + `)"\s*:`)
}

// splitQuotedKeys moves every quoted key that follows other text on its
// line onto a line of its own, so line-start matching sees it.
func splitQuotedKeys(raw string, fields []Field) string {
	matches := quotedKeyPattern(fields).FindAllStringIndex(raw, -1)
	if len(matches) == 0 {
		return raw
	}

	var b strings.Builder
	prev := 0
	for _, m := range matches {
		lineStart := strings.LastIndex(raw[:m[0]], "\n") + 1
		if strings.TrimSpace(raw[lineStart:m[0]]) == "" {
			continue
		}
		b.WriteString(raw[prev:m[0]])
		b.WriteByte('\n')
		prev = m[0]
	}
	b.WriteString(raw[prev:])
	return b.String()
}

// matchMarker reports whether line opens a section, returning the field
// key and any text that follows the marker on the same line.
func matchMarker(line string, labels []fieldLabel) (string, string, bool) {
	trimmed := strings.TrimSpace(line)
	heading := strings.HasPrefix(trimmed, "#")
	body := strings.TrimLeftFunc(trimmed, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	decorated := heading || len(body) < len(trimmed)

	// Comparison copy: ASCII-lowercased with underscores as spaces, same
	// byte length as body so offsets line up.
	cmp := []byte(body)
	for i, c := range cmp {
		switch {
		case c >= 'A' && c <= 'Z':
			cmp[i] = c + 'a' - 'A'
		case c == '_':
			cmp[i] = ' '
		}
	}

	for _, fl := range labels {
		if !strings.HasPrefix(string(cmp), fl.label) {
			continue
		}
		rest := strings.TrimLeft(body[len(fl.label):], "*_\"' \t")
		switch {
		case strings.HasPrefix(rest, ":"):
			return fl.key, strings.TrimSpace(rest[1:]), true
		case rest == "" && decorated:
			return fl.key, "", true
		}
	}
	return "", "", false
}

// RawDecoder never fails: the whole response becomes the first non-project
// field (summary for daily notes).
type RawDecoder struct{}

func (RawDecoder) Name() string { return "raw" }

func (RawDecoder) Decode(raw string, fields []Field) (map[string]string, error) {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f.Key] = ""
	}
	for _, f := range fields {
		if f.Key != keyProject {
			values[f.Key] = strings.TrimSpace(raw)
			break
		}
	}
	return values, nil
}

func normKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(k) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		lines := make([]string, 0, len(t))
		for _, item := range t {
			s := stringify(item)
			if s == "" {
				continue
			}
			if !strings.HasPrefix(s, "- ") {
				s = "- " + s
			}
			lines = append(lines, s)
		}
		return strings.Join(lines, "\n")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("- %s: %s", k, stringify(t[k])))
		}
		return strings.Join(lines, "\n")
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%f", t), "0"), ".")
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

// fixBullets repairs literal "\n-" sequences some models emit inside
// string values.
func fixBullets(s string) string {
	s = strings.ReplaceAll(s, `\n -`, "\n-")
	s = strings.ReplaceAll(s, `\n-`, "\n-")
	return strings.ReplaceAll(s, `\n`, "\n")
}

// cleanValue strips JSON punctuation left over when prose was cut at markers.
func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ",")
	s = strings.TrimSuffix(s, "}")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ",")
	// A value cut off mid-string keeps only its opening quote.
	if strings.HasPrefix(s, `"`) {
		s = strings.TrimSuffix(s[1:], `"`)
	}
	return strings.TrimSpace(s)
}
