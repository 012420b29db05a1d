package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/extract"
	"github.com/alexanderramin/daylog/internal/llm"
	"github.com/alexanderramin/daylog/internal/notes"
	"github.com/alexanderramin/daylog/internal/project"
	"github.com/alexanderramin/daylog/internal/repository"
	"github.com/alexanderramin/daylog/internal/service"
	"github.com/alexanderramin/daylog/internal/testutil"
	"github.com/alexanderramin/daylog/internal/timeline"
	"github.com/alexanderramin/daylog/internal/todo"
)

const weeklyJSON = `{"week_summary":"Shipped the parser.","accomplishments":["Parser"],"insights":"","blockers":"","next_focus":"Release"}`

type timelineFixture struct {
	daily, projects string
	client          *testutil.ScriptedLLM
	aggregator      *timeline.Aggregator
}

func newTimelineFixture(t *testing.T) *timelineFixture {
	t.Helper()
	root := t.TempDir()
	f := &timelineFixture{
		daily:    filepath.Join(root, "Daily"),
		projects: filepath.Join(root, "Projects"),
		client:   testutil.NewScriptedLLM().On(llm.TaskWeekly, weeklyJSON),
	}
	cfg := timeline.Config{DailyDir: f.daily, ProjectsDir: f.projects}
	f.aggregator = timeline.NewAggregator(cfg, extract.New(f.client, nil, nil), nil, nil).WithClock(writeClock)
	return f
}

func (f *timelineFixture) day(t *testing.T, projectName string, date time.Time) {
	t.Helper()
	w := notes.NewWriter(notes.Config{DailyDir: f.daily}, nil).WithClock(writeClock)
	_, err := w.WriteDaily(context.Background(), testutil.NewTestRecord(projectName), "t", date, "")
	require.NoError(t, err)
}

func TestTimelineService_GeneratesMissingWeeksForAllProjects(t *testing.T) {
	f := newTimelineFixture(t)
	f.day(t, "Project X", testutil.Date(2025, 6, 16))
	f.day(t, "Project X", testutil.Date(2025, 6, 24))
	f.day(t, "Project Y", testutil.Date(2025, 6, 25))
	obs := &recordingObserver{}

	svc := service.NewTimelineService(f.aggregator, service.LoadProjects(f.projects, []string{"Project X", "Project Y"}), nil, obs)
	report, err := svc.Generate(context.Background(), service.TimelineRequest{})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Created())
	assert.ElementsMatch(t, []string{
		filepath.Join(f.projects, "Project X", "timeline", "timeline_index.md"),
		filepath.Join(f.projects, "Project Y", "timeline", "timeline_index.md"),
	}, report.Indexes)
	for _, p := range report.Indexes {
		assert.FileExists(t, p)
	}

	require.Len(t, obs.events, 1)
	assert.Equal(t, "timeline.generate", obs.events[0].Name)
	assert.Equal(t, 3, obs.events[0].Fields["created"])

	again, err := svc.Generate(context.Background(), service.TimelineRequest{})
	require.NoError(t, err)
	assert.Zero(t, again.Created())
	assert.Empty(t, again.Indexes)
}

func TestTimelineService_SingleWeek(t *testing.T) {
	f := newTimelineFixture(t)
	f.day(t, "Project X", testutil.Date(2025, 6, 24))
	svc := service.NewTimelineService(f.aggregator, service.LoadProjects(f.projects, nil), nil)

	week := testutil.Date(2025, 6, 23)
	report, err := svc.Generate(context.Background(), service.TimelineRequest{Project: "Project X", Week: &week})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, domain.OutcomeCreated, report.Results[0].Outcome)
	assert.Len(t, report.Indexes, 1)

	report, err = svc.Generate(context.Background(), service.TimelineRequest{Project: "Project X", Week: &week})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSkippedExisting, report.Results[0].Outcome)
	assert.Equal(t, domain.ReasonAlreadySummarized, report.Results[0].Reason)
	assert.Empty(t, report.Indexes)

	report, err = svc.Generate(context.Background(), service.TimelineRequest{Project: "Project X", Week: &week, Force: true})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCreated, report.Results[0].Outcome)
	assert.True(t, report.Results[0].Collided)
	assert.Equal(t, 2, f.client.Calls(llm.TaskWeekly), "skipped week makes no backend call")
}

type stubAggregator struct {
	failFor map[string]error
	created []string
}

func (s *stubAggregator) Aggregate(_ context.Context, p string, start time.Time, _ timeline.Options) (*timeline.Result, error) {
	return &timeline.Result{Project: p, WeekStart: start, Outcome: domain.OutcomeCreated}, nil
}

func (s *stubAggregator) GenerateMissing(_ context.Context, p string) ([]*timeline.Result, error) {
	if err := s.failFor[p]; err != nil {
		return nil, err
	}
	s.created = append(s.created, p)
	return []*timeline.Result{{Project: p, Outcome: domain.OutcomeCreated}}, nil
}

func (s *stubAggregator) UpdateIndex(_ context.Context, p string) (string, error) {
	return s.IndexPath(p), nil
}

func (s *stubAggregator) IndexPath(p string) string { return p + "/index.md" }

func TestTimelineService_FailingProjectDoesNotStopOthers(t *testing.T) {
	agg := &stubAggregator{failFor: map[string]error{"Alpha": llm.ErrTimeout}}
	projects := func() (project.Set, error) { return project.NewSet("Alpha", "Beta", "Gamma"), nil }
	svc := service.NewTimelineService(agg, projects, nil)

	report, err := svc.Generate(context.Background(), service.TimelineRequest{})
	require.ErrorIs(t, err, llm.ErrBackendUnavailable)

	assert.ElementsMatch(t, []string{"Beta", "Gamma"}, agg.created)
	assert.Equal(t, 2, report.Created())
	require.Contains(t, report.Errors, "Alpha")
	assert.True(t, errors.Is(report.Errors["Alpha"], llm.ErrTimeout))
}

func TestTodoService_DelegatesAndObserves(t *testing.T) {
	repo := repository.NewFileArtifactRepo(t.TempDir())
	store := todo.NewStore(repo, nil, nil)
	ctx := context.Background()
	_, err := store.Merge(ctx, "Project X", []domain.TodoCandidate{{Text: "Write docs"}, {Text: "Fix bug", Priority: "high"}}, testutil.Date(2025, 6, 25), "2025-06-25_ProjectX")
	require.NoError(t, err)

	obs := &recordingObserver{}
	svc := service.NewTodoService(store, obs)

	items, err := svc.List(ctx, "Project X")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Fix bug", items[0].Text)

	found, err := svc.MarkDone(ctx, "Project X", "write DOCS")
	require.NoError(t, err)
	assert.True(t, found)

	n, err := svc.PurgeCompleted(ctx, "Project X")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	found, err = svc.Remove(ctx, "Project X", "nope")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = svc.History(ctx, "Project X")
	assert.ErrorIs(t, err, todo.ErrNoHistory)
	_, err = svc.Revision(ctx, "Project X", 1)
	assert.ErrorIs(t, err, todo.ErrNoHistory)

	var names []string
	for _, e := range obs.events {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"todos.done", "todos.clean", "todos.remove"}, names)
}
