package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/daylog/internal/domain"
)

func TestNewSet_DedupAndSort(t *testing.T) {
	s := NewSet("Project Y", "project y", "  ", "Project X", "unknown")
	assert.Equal(t, []string{"Project X", "Project Y"}, s.Names())
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("PROJECT X"))
	assert.False(t, s.Contains("Unknown"))
}

func TestResolve(t *testing.T) {
	s := NewSet("Project X", "Project Y", "Work", "Personal")

	cases := []struct {
		in, want string
	}{
		{"Project X", "Project X"},
		{"project x", "Project X"},
		{"  PROJECT Y ", "Project Y"},
		{"the Project X rewrite", "Project X"},
		{"work", "Work"},
		{"Pers", "Personal"},
		{"", domain.Unknown},
		{"Unknown", domain.Unknown},
		{"Gardening", domain.Unknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, s.Resolve(tc.in), "resolve(%q)", tc.in)
	}
}

func TestResolve_ShortestThenLexicographic(t *testing.T) {
	s := NewSet("Alpha Beta", "Alpha", "Alphz")
	assert.Equal(t, "Alpha", s.Resolve("alp"), "shortest candidate wins")

	tie := NewSet("Bbb", "Aaa")
	assert.Equal(t, "Aaa", tie.Resolve("Aaa and Bbb notes"), "equal length resolves lexicographically")
}

func TestResolve_EmptySet(t *testing.T) {
	assert.Equal(t, domain.Unknown, NewSet().Resolve("anything"))
}

func TestLoad_MergesDirsAndConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Project X"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".obsidian"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("x"), 0o644))

	s, err := Load(dir, []string{"Project Y", "project x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Project Y", "project x"}, s.Names())
}

func TestLoad_MissingDir(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope"), []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, s.Names())
}

func TestFileSafe(t *testing.T) {
	assert.Equal(t, "ProjectX", FileSafe("Project X"))
	assert.Equal(t, "ab", FileSafe("a/b"))
	assert.Equal(t, domain.Unknown, FileSafe("  "))
}

func TestDirName(t *testing.T) {
	assert.Equal(t, "Project X", DirName(" Project X "))
	assert.Equal(t, "a-b", DirName("a/b"))
	assert.Equal(t, "hidden", DirName("..hidden"))
	assert.Equal(t, domain.Unknown, DirName(""))
}
