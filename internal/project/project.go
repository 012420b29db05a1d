// Package project holds the set of known project labels and resolves
// free-form labels against it.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/alexanderramin/daylog/internal/domain"
)

// Set is an immutable, config-driven set of known project names.
// It is loaded once per run and passed explicitly to resolution calls.
type Set struct {
	names []string
	index map[string]string // lowercased -> canonical
}

// NewSet builds a Set from names, dropping blanks, "Unknown" and
// case-insensitive duplicates (first spelling wins).
func NewSet(names ...string) Set {
	s := Set{index: make(map[string]string, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || strings.EqualFold(n, domain.Unknown) {
			continue
		}
		key := strings.ToLower(n)
		if _, dup := s.index[key]; dup {
			continue
		}
		s.index[key] = n
		s.names = append(s.names, n)
	}
	sort.Strings(s.names)
	return s
}

// Names returns the known project names, sorted.
func (s Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s Set) Len() int { return len(s.names) }

// Contains reports an exact case-insensitive match.
func (s Set) Contains(name string) bool {
	_, ok := s.index[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Resolve maps candidate onto a known project name.
//
// An exact case-insensitive match wins. Otherwise the known names that
// contain candidate, or are contained in it, are considered and the
// shortest one is chosen, ties broken lexicographically. With no match
// the result is domain.Unknown.
func (s Set) Resolve(candidate string) string {
	c := strings.TrimSpace(candidate)
	if c == "" {
		return domain.Unknown
	}
	lc := strings.ToLower(c)
	if canonical, ok := s.index[lc]; ok {
		return canonical
	}
	if lc == strings.ToLower(domain.Unknown) {
		return domain.Unknown
	}

	best := ""
	for _, n := range s.names {
		ln := strings.ToLower(n)
		if !strings.Contains(ln, lc) && !strings.Contains(lc, ln) {
			continue
		}
		if best == "" || len(n) < len(best) || (len(n) == len(best) && n < best) {
			best = n
		}
	}
	if best == "" {
		return domain.Unknown
	}
	return best
}

// Load merges the configured names with the subdirectories of dir.
// A missing dir is not an error; hidden directories are skipped.
func Load(dir string, configured []string) (Set, error) {
	names := append([]string(nil), configured...)
	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Set{}, fmt.Errorf("reading projects dir: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
				names = append(names, e.Name())
			}
		}
	}
	return NewSet(names...), nil
}

// FileSafe returns the form of a project name used inside file names:
// whitespace and path-reserved characters are removed.
func FileSafe(name string) string {
	out := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, name)
	if out == "" {
		return domain.Unknown
	}
	return out
}

// DirName returns the directory name of a project inside the projects area.
// Unlike FileSafe it keeps spaces, so it matches the directories Load reads.
func DirName(name string) string {
	out := strings.TrimLeft(strings.NewReplacer("/", "-", "\\", "-").Replace(strings.TrimSpace(name)), ".")
	if out == "" {
		return domain.Unknown
	}
	return out
}
