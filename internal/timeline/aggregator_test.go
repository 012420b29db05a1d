package timeline_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/extract"
	"github.com/alexanderramin/daylog/internal/llm"
	"github.com/alexanderramin/daylog/internal/notes"
	"github.com/alexanderramin/daylog/internal/repository"
	"github.com/alexanderramin/daylog/internal/testutil"
	"github.com/alexanderramin/daylog/internal/timeline"
	"github.com/alexanderramin/daylog/internal/todo"
)

const weeklyJSON = `{"week_summary":"Shipped the parser. Then reviewed.","accomplishments":["Parser","Docs"],"insights":"Small PRs merge faster.","blockers":"Waiting on infra","next_focus":"Release v2"}`

var (
	monday = testutil.Date(2025, 6, 23)
	clock  = testutil.FixedClock(time.Date(2025, 6, 30, 9, 30, 0, 0, time.UTC))
)

type vault struct {
	daily, projects string
	writer          *notes.Writer
	client          *testutil.ScriptedLLM
}

func newVault(t *testing.T) *vault {
	t.Helper()
	root := t.TempDir()
	v := &vault{
		daily:    filepath.Join(root, "Daily"),
		projects: filepath.Join(root, "Projects"),
		client:   testutil.NewScriptedLLM().On(llm.TaskWeekly, weeklyJSON),
	}
	v.writer = notes.NewWriter(notes.Config{DailyDir: v.daily}, nil).WithClock(clock)
	return v
}

func (v *vault) day(t *testing.T, projectName string, date time.Time, summary string) *domain.DocumentHandle {
	t.Helper()
	h, err := v.writer.WriteDaily(context.Background(), testutil.NewTestRecord(projectName, testutil.WithSummary(summary)), "t", date, "")
	require.NoError(t, err)
	return h
}

func (v *vault) aggregator(todos timeline.TodoTracker) *timeline.Aggregator {
	cfg := timeline.Config{DailyDir: v.daily, ProjectsDir: v.projects, TrackCompletedTodos: todos != nil}
	return timeline.NewAggregator(cfg, extract.New(v.client, nil, nil), todos, nil).WithClock(clock)
}

func TestAggregate_CreatesWeeklyDocument(t *testing.T) {
	v := newVault(t)
	v.day(t, "Project X", monday.AddDate(0, 0, 2), "Wednesday work")
	v.day(t, "Project X", monday, "Monday work")
	v.day(t, "Project X", monday.AddDate(0, 0, 7), "Next week")
	v.day(t, "Project Y", monday, "Other project")

	res, err := v.aggregator(nil).Aggregate(context.Background(), "Project X", monday, timeline.Options{})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeCreated, res.Outcome)
	assert.Equal(t, "2025-W26", res.WeekKey)
	assert.Equal(t, filepath.Join(v.projects, "Project X", "timeline", "2025-W26.md"), res.Path)
	assert.Equal(t, []string{"2025-06-23_ProjectX", "2025-06-25_ProjectX"}, res.Days)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "week: 2025-W26\n")
	assert.Contains(t, content, "date_range: 2025-06-23 to 2025-06-29\n")
	assert.Contains(t, content, "# Week 2025-W26: 2025-06-23 to 2025-06-29 - Project X\n")
	assert.Contains(t, content, "## 🎯 Key Accomplishments\n- Parser\n- Docs\n")
	assert.Contains(t, content, "## 🚧 Progress Indicators\nWaiting on infra\n")
	assert.Contains(t, content, "## 📝 Next Week Focus\nRelease v2\n")
	assert.NotContains(t, content, "Completed Tasks")
	assert.Regexp(t, `(?s)Daily Notes References\n- \[2025-06-23: Daily Log\]\(\.\./\.\./\.\./Daily/2025-06-23_ProjectX\.md\)\n- \[2025-06-25: Daily Log\]`, content)

	req, ok := v.client.LastRequest(llm.TaskWeekly)
	require.True(t, ok)
	assert.Contains(t, req.UserPrompt, "Monday work")
	assert.Contains(t, req.UserPrompt, "Wednesday work")
	assert.NotContains(t, req.UserPrompt, "Next week")
	assert.NotContains(t, req.UserPrompt, "Other project")
	assert.Less(t, strings.Index(req.UserPrompt, "Monday work"), strings.Index(req.UserPrompt, "Wednesday work"))
}

func TestAggregate_IdempotentSkipsExisting(t *testing.T) {
	v := newVault(t)
	v.day(t, "Project X", monday, "work")
	agg := v.aggregator(nil)
	ctx := context.Background()

	first, err := agg.Aggregate(ctx, "Project X", monday, timeline.Options{})
	require.NoError(t, err)
	before, err := os.ReadFile(first.Path)
	require.NoError(t, err)

	second, err := agg.Aggregate(ctx, "Project X", monday, timeline.Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSkippedExisting, second.Outcome)
	assert.Equal(t, domain.ReasonAlreadySummarized, second.Reason)
	assert.Empty(t, second.Path)
	assert.Equal(t, 1, v.client.Calls(llm.TaskWeekly), "no backend call for an existing week")

	after, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	entries, err := os.ReadDir(agg.Dir("Project X"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAggregate_ForceWritesDisambiguatedDocument(t *testing.T) {
	v := newVault(t)
	v.day(t, "Project X", monday, "work")
	agg := v.aggregator(nil)
	ctx := context.Background()

	first, err := agg.Aggregate(ctx, "Project X", monday, timeline.Options{})
	require.NoError(t, err)
	forced, err := agg.Aggregate(ctx, "Project X", monday, timeline.Options{Force: true})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeCreated, forced.Outcome)
	assert.True(t, forced.Collided)
	assert.Equal(t, "2025-W26_093000.md", filepath.Base(forced.Path))
	_, err = os.Stat(first.Path)
	assert.NoError(t, err, "original weekly document kept")
}

func TestAggregate_NoDailyDocuments(t *testing.T) {
	v := newVault(t)
	v.day(t, "Project X", monday.AddDate(0, 0, -1), "previous week")
	agg := v.aggregator(nil)

	res, err := agg.Aggregate(context.Background(), "Project X", monday, timeline.Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSkippedExisting, res.Outcome)
	assert.Equal(t, domain.ReasonNoDailyDocuments, res.Reason)
	assert.Zero(t, v.client.Calls(llm.TaskWeekly))
	_, err = os.Stat(agg.Dir("Project X"))
	assert.True(t, os.IsNotExist(err))
}

func TestAggregate_WindowStartsAtGivenDay(t *testing.T) {
	v := newVault(t)
	thursday := monday.AddDate(0, 0, 3)
	v.day(t, "Project X", monday, "before window")
	v.day(t, "Project X", thursday.AddDate(0, 0, 6), "last day of window")

	res, err := v.aggregator(nil).Aggregate(context.Background(), "Project X", thursday, timeline.Options{})
	require.NoError(t, err)
	assert.Equal(t, "2025-W26", res.WeekKey)
	assert.Equal(t, []string{"2025-07-02_ProjectX"}, res.Days)
}

func TestAggregate_BackendFailureWritesNothing(t *testing.T) {
	v := newVault(t)
	v.day(t, "Project X", monday, "work")
	v.client.Fail(llm.TaskWeekly, llm.ErrTimeout)
	agg := v.aggregator(nil)

	_, err := agg.Aggregate(context.Background(), "Project X", monday, timeline.Options{})
	assert.ErrorIs(t, err, llm.ErrBackendUnavailable)
	_, statErr := os.Stat(filepath.Join(agg.Dir("Project X"), "2025-W26.md"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestAggregate_TracksAndPurgesCompletedTodos(t *testing.T) {
	v := newVault(t)
	v.day(t, "Project X", monday, "work")
	store := todo.NewStore(repository.NewFileArtifactRepo(v.projects), nil, nil)
	ctx := context.Background()
	_, err := store.Merge(ctx, "Project X", []domain.TodoCandidate{
		{Text: "Ship v2", Priority: domain.PriorityHigh},
		{Text: "Still open"},
	}, monday, "2025-06-23_ProjectX")
	require.NoError(t, err)
	_, err = store.MarkDone(ctx, "Project X", "ship v2")
	require.NoError(t, err)

	res, err := v.aggregator(store).Aggregate(ctx, "Project X", monday, timeline.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.PurgedTodos)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## ✅ Completed Tasks\n- 🔴 Ship v2 *[[2025-06-23_ProjectX|Source]]*\n")

	items, err := store.List(ctx, "Project X")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Still open", items[0].Text)
}

func TestMissingWeeksAndGenerateMissing(t *testing.T) {
	v := newVault(t)
	v.day(t, "Project X", monday.AddDate(0, 0, -7), "W25")
	v.day(t, "Project X", monday, "W26 a")
	v.day(t, "Project X", monday.AddDate(0, 0, 4), "W26 b")
	v.day(t, "Project X", monday.AddDate(0, 0, 14), "W28")
	agg := v.aggregator(nil)
	ctx := context.Background()

	_, err := agg.Aggregate(ctx, "Project X", monday, timeline.Options{})
	require.NoError(t, err)

	missing, err := agg.MissingWeeks("Project X")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{monday.AddDate(0, 0, -7), monday.AddDate(0, 0, 14)}, missing)

	results, err := agg.GenerateMissing(ctx, "Project X")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "2025-W25", results[0].WeekKey)
	assert.Equal(t, "2025-W28", results[1].WeekKey)

	missing, err = agg.MissingWeeks("Project X")
	require.NoError(t, err)
	assert.Empty(t, missing)

	index, err := os.ReadFile(filepath.Join(agg.Dir("Project X"), "timeline_index.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Project X Timeline\n\n## Recent Weeks\n"+
		"- [2025-W28: 2025-07-07 to 2025-07-13](2025-W28.md) - Shipped the parser.\n"+
		"- [2025-W26: 2025-06-23 to 2025-06-29](2025-W26.md) - Shipped the parser.\n"+
		"- [2025-W25: 2025-06-16 to 2025-06-22](2025-W25.md) - Shipped the parser.\n", string(index))
}

func TestGenerateMissing_StopsOnBackendFailure(t *testing.T) {
	v := newVault(t)
	v.day(t, "Project X", monday, "work")
	v.client.Fail(llm.TaskWeekly, llm.ErrBackendRateLimited)

	results, err := v.aggregator(nil).GenerateMissing(context.Background(), "Project X")
	assert.ErrorIs(t, err, llm.ErrBackendRateLimited)
	assert.Empty(t, results)
}

func TestUpdateIndex_GroupsOlderWeeksByYear(t *testing.T) {
	v := newVault(t)
	agg := v.aggregator(nil)
	dir := agg.Dir("Project X")

	start := testutil.Date(2024, 11, 4) // 2024-W45
	for i := 0; i < 14; i++ {
		ws := start.AddDate(0, 0, 7*i)
		key := domain.WeekKey(ws)
		testutil.WriteFile(t, dir, key+".md", fmt.Sprintf("---\nweek: %s\n---\n\n## 📊 Week Summary\nWeek %d summary.\n", key, i))
	}
	testutil.WriteFile(t, dir, "notes.md", "not a week")

	p, err := agg.UpdateIndex(context.Background(), "Project X")
	require.NoError(t, err)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	content := string(data)

	recent := content[:strings.Index(content, "## All Weeks")]
	assert.Equal(t, 12, strings.Count(recent, "\n- ["))
	assert.Contains(t, recent, "- [2025-W06: 2025-02-03 to 2025-02-09](2025-W06.md) - Week 13 summary.\n")
	assert.NotContains(t, recent, "2024-W45")

	all := content[strings.Index(content, "## All Weeks"):]
	assert.Less(t, strings.Index(all, "### 2025"), strings.Index(all, "### 2024"))
	assert.Contains(t, all, "- [Week 45: 2024-11-04 to 2024-11-10](2024-W45.md)\n")
	assert.Equal(t, 14, strings.Count(all, "\n- [Week"))
}

func TestUpdateIndex_NoWeeks(t *testing.T) {
	v := newVault(t)
	p, err := v.aggregator(nil).UpdateIndex(context.Background(), "Project X")
	require.NoError(t, err)
	assert.Empty(t, p)
}
