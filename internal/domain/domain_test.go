package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	cases := map[string]Priority{
		"high":            PriorityHigh,
		"HIGH":            PriorityHigh,
		"Urgent!":         PriorityHigh,
		"high priority":   PriorityHigh,
		"asap":            PriorityHigh,
		"low":             PriorityLow,
		"nice to have":    PriorityLow,
		"medium":          PriorityMedium,
		"":                PriorityMedium,
		"whenever really": PriorityMedium,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParsePriority(in), "input %q", in)
	}
}

func TestPriorityFromIcon(t *testing.T) {
	for _, p := range Priorities {
		got, ok := PriorityFromIcon(p.Icon())
		require.True(t, ok)
		assert.Equal(t, p, got)
	}
	_, ok := PriorityFromIcon("⭐")
	assert.False(t, ok)
}

func TestNormalizeTodoText(t *testing.T) {
	assert.Equal(t, "fix the build", NormalizeTodoText("  Fix   the\tBuild "))
	assert.Equal(t, NormalizeTodoText("Email Bob"), NormalizeTodoText("email  bob"))
}

func TestTodoList_AddDeduplicates(t *testing.T) {
	l := &TodoList{Project: "Project X"}
	assert.True(t, l.Add(TodoItem{Text: "Fix the build", Priority: PriorityHigh}))
	assert.False(t, l.Add(TodoItem{Text: "fix  THE build", Priority: PriorityLow}))
	require.Len(t, l.Items, 1)
	assert.Equal(t, "Fix the build", l.Items[0].Text)
}

func TestTodoList_ByPriorityIsStable(t *testing.T) {
	l := &TodoList{Items: []TodoItem{
		{Text: "a", Priority: PriorityLow},
		{Text: "b", Priority: PriorityHigh},
		{Text: "c", Priority: PriorityMedium},
		{Text: "d", Priority: PriorityHigh},
	}}

	var got []string
	for _, it := range l.ByPriority() {
		got = append(got, it.Text)
	}
	assert.Equal(t, []string{"b", "d", "c", "a"}, got)
	assert.Equal(t, "a", l.Items[0].Text, "original order untouched")
}

func TestTodoList_RemoveAbsentIsNoop(t *testing.T) {
	l := &TodoList{Items: []TodoItem{{Text: "keep"}}}
	assert.False(t, l.Remove("missing"))
	assert.True(t, l.Remove("KEEP"))
	assert.Empty(t, l.Items)
}

func TestWeekKey(t *testing.T) {
	assert.Equal(t, "2025-W26", WeekKey(time.Date(2025, 6, 25, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-W01", WeekKey(time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2020-W53", WeekKey(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestWeekStart(t *testing.T) {
	assert.Equal(t, time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC), WeekStart(time.Date(2025, 6, 29, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC), WeekStart(time.Date(2025, 6, 23, 8, 0, 0, 0, time.UTC)))
}

func TestParseWeekKey(t *testing.T) {
	start, err := ParseWeekKey("2025-W26")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC), start)

	start, err = ParseWeekKey("2020-W53")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 12, 28, 0, 0, 0, 0, time.UTC), start)

	_, err = ParseWeekKey("2025-W53")
	assert.Error(t, err)
	_, err = ParseWeekKey("garbage")
	assert.Error(t, err)
}

func TestDocumentHandle_Ref(t *testing.T) {
	h := DocumentHandle{Name: "2025-06-25_ProjectX_151902.md"}
	assert.Equal(t, "2025-06-25_ProjectX_151902", h.Ref())
}

func TestRecord_ProjectOrUnknown(t *testing.T) {
	assert.Equal(t, Unknown, Record{}.ProjectOrUnknown())
	assert.Equal(t, "Project X", Record{Project: "Project X"}.ProjectOrUnknown())
}
