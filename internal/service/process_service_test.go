package service_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/daylog/internal/extract"
	"github.com/alexanderramin/daylog/internal/llm"
	"github.com/alexanderramin/daylog/internal/notes"
	"github.com/alexanderramin/daylog/internal/repository"
	"github.com/alexanderramin/daylog/internal/service"
	"github.com/alexanderramin/daylog/internal/testutil"
	"github.com/alexanderramin/daylog/internal/todo"
)

const (
	dailyJSON = `{"project":"project x","summary":"Fixed the build.","completed":"- Build fix","blockers":"","next_steps":"- Release","thoughts":""}`
	todosJSON = `[{"task":"Fix the flaky test","priority":"high","context":"CI"}]`
)

var writeClock = testutil.FixedClock(time.Date(2025, 6, 30, 9, 30, 0, 0, time.UTC))

type recordingObserver struct {
	mu     sync.Mutex
	events []service.UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e service.UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

type processFixture struct {
	inbox, daily, projects string
	client                 *testutil.ScriptedLLM
	observer               *recordingObserver
	store                  *todo.Store
}

func newProcessFixture(t *testing.T) *processFixture {
	t.Helper()
	root := t.TempDir()
	return &processFixture{
		inbox:    filepath.Join(root, "Inbox"),
		daily:    filepath.Join(root, "Daily"),
		projects: filepath.Join(root, "Projects"),
		client:   testutil.NewScriptedLLM().On(llm.TaskDailyNote, dailyJSON).On(llm.TaskTodos, todosJSON),
		observer: &recordingObserver{},
	}
}

func (f *processFixture) service(cfg service.ProcessConfig, transcriber service.Transcriber) service.ProcessService {
	cfg.InboxDir = f.inbox
	ex := extract.New(f.client, nil, nil)
	writer := notes.NewWriter(notes.Config{DailyDir: f.daily, SaveTranscript: true}, nil).WithClock(writeClock)
	f.store = todo.NewStore(repository.NewFileArtifactRepo(f.projects), ex, nil)
	projects := service.LoadProjects(f.projects, []string{"Project X"})
	return service.NewProcessService(cfg, transcriber, ex, writer, f.store, projects, nil, f.observer)
}

func (f *processFixture) todoFile() string {
	return filepath.Join(f.projects, "Project X", "todo.md")
}

func TestProcessFile_WritesDailyDocumentAndTodos(t *testing.T) {
	f := newProcessFixture(t)
	svc := f.service(service.ProcessConfig{}, service.TextTranscriber{})
	src := testutil.WriteFile(t, f.inbox, "2025-06-25_standup.txt", "Fixed the build on project x. Need to fix the flaky test.")

	res, err := svc.ProcessFile(context.Background(), service.ProcessRequest{Path: src})
	require.NoError(t, err)

	assert.Equal(t, testutil.Date(2025, 6, 25), res.Date)
	assert.Equal(t, "2025-06-25_ProjectX.md", res.Document.Name)
	assert.Equal(t, "Project X", res.Document.Project)
	assert.FileExists(t, res.Document.Path)
	assert.FileExists(t, res.Document.TranscriptPath)
	require.Len(t, res.Todos, 1)
	assert.Equal(t, "Fix the flaky test", res.Todos[0].Text)
	assert.False(t, res.Deleted)
	assert.FileExists(t, src)

	data, err := os.ReadFile(f.todoFile())
	require.NoError(t, err)
	assert.Contains(t, string(data), "Fix the flaky test")
	assert.Contains(t, string(data), "[[2025-06-25_ProjectX|Source]]")
}

func TestProcessFile_DateOverridesFileName(t *testing.T) {
	f := newProcessFixture(t)
	svc := f.service(service.ProcessConfig{}, service.TextTranscriber{})
	src := testutil.WriteFile(t, f.inbox, "Daily_Log_25-06-2025.txt", "words about project x")

	override := time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC)
	res, err := svc.ProcessFile(context.Background(), service.ProcessRequest{Path: src, Date: &override})
	require.NoError(t, err)
	assert.Equal(t, "2025-07-01_ProjectX.md", res.Document.Name)
}

func TestProcessFile_DeletesSourceWhenConfigured(t *testing.T) {
	f := newProcessFixture(t)
	svc := f.service(service.ProcessConfig{DeleteAfterProcessing: true}, service.TextTranscriber{})
	src := testutil.WriteFile(t, f.inbox, "2025-06-25.txt", "words about project x")

	res, err := svc.ProcessFile(context.Background(), service.ProcessRequest{Path: src})
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.NoFileExists(t, src)
}

func TestProcessFile_BackendFailureWritesNothing(t *testing.T) {
	f := newProcessFixture(t)
	f.client.Fail(llm.TaskTodos, llm.ErrTimeout)
	svc := f.service(service.ProcessConfig{DeleteAfterProcessing: true}, service.TextTranscriber{})
	src := testutil.WriteFile(t, f.inbox, "2025-06-25.txt", "words about project x")

	_, err := svc.ProcessFile(context.Background(), service.ProcessRequest{Path: src})
	require.ErrorIs(t, err, llm.ErrBackendUnavailable)

	assert.NoDirExists(t, f.daily)
	assert.NoFileExists(t, f.todoFile())
	assert.FileExists(t, src, "source kept for a retry")
}

func TestProcessFile_TranscriptionFailure(t *testing.T) {
	f := newProcessFixture(t)
	svc := f.service(service.ProcessConfig{}, service.TextTranscriber{Bounds: service.Bounds{MinWords: 10}})
	src := testutil.WriteFile(t, f.inbox, "2025-06-25.txt", "too short")

	_, err := svc.ProcessFile(context.Background(), service.ProcessRequest{Path: src})
	require.ErrorIs(t, err, service.ErrTranscriptionFailed)
	assert.Zero(t, f.client.Calls(llm.TaskDailyNote))
}

func TestProcessInbox_IsolatesFailures(t *testing.T) {
	f := newProcessFixture(t)
	svc := f.service(service.ProcessConfig{Workers: 2}, service.TextTranscriber{Bounds: service.Bounds{MinWords: 3}})
	testutil.WriteFile(t, f.inbox, "2025-06-23.txt", "monday words about project x")
	testutil.WriteFile(t, f.inbox, "2025-06-24.txt", "short")
	testutil.WriteFile(t, f.inbox, "2025-06-25.md", "wednesday words about project x")
	testutil.WriteFile(t, f.inbox, "photo.jpg", "not a transcript")
	testutil.WriteFile(t, f.inbox, ".hidden.txt", "ignored hidden file here")

	batch, err := svc.ProcessInbox(context.Background())
	require.NoError(t, err)

	require.Len(t, batch.Items, 3)
	assert.Equal(t, 2, batch.Processed())
	assert.Equal(t, 1, batch.Failed())
	assert.Equal(t, "2025-06-24.txt", filepath.Base(batch.Items[1].Path))
	assert.ErrorIs(t, batch.Items[1].Err, service.ErrTranscriptionFailed)
	assert.ErrorIs(t, batch.Err(), service.ErrTranscriptionFailed)

	docs, err := notes.ListDaily(f.daily, "Project X")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	items, err := f.store.List(context.Background(), "Project X")
	require.NoError(t, err)
	assert.Len(t, items, 1, "same todo from two files is merged once")
}

func TestProcessInbox_MissingInboxIsEmpty(t *testing.T) {
	f := newProcessFixture(t)
	svc := f.service(service.ProcessConfig{}, service.TextTranscriber{})

	batch, err := svc.ProcessInbox(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch.Items)
	assert.NoError(t, batch.Err())
}

func TestExtractTodos_SavesTranscriptOnly(t *testing.T) {
	f := newProcessFixture(t)
	svc := f.service(service.ProcessConfig{}, service.TextTranscriber{})
	src := testutil.WriteFile(t, f.inbox, "2025-06-25_todos.txt", "For project x I need to fix the flaky test.")

	res, err := svc.ExtractTodos(context.Background(), service.ProcessRequest{Path: src})
	require.NoError(t, err)

	assert.Equal(t, "Project X", res.Project)
	assert.Equal(t, filepath.Join(f.daily, "Transcripts", "2025-06-25_TodoExtract_ProjectX.md"), res.TranscriptPath)
	require.Len(t, res.Added, 1)
	assert.Equal(t, "2025-06-25_TodoExtract_ProjectX", res.Added[0].SourceRef)

	docs, err := notes.ListDaily(f.daily, "")
	require.NoError(t, err)
	assert.Empty(t, docs, "no daily document")
}

func TestExtractTodos_BackendFailureWritesNothing(t *testing.T) {
	f := newProcessFixture(t)
	f.client.Fail(llm.TaskTodos, llm.ErrBackendRateLimited)
	svc := f.service(service.ProcessConfig{}, service.TextTranscriber{})
	src := testutil.WriteFile(t, f.inbox, "2025-06-25.txt", "words about project x")

	_, err := svc.ExtractTodos(context.Background(), service.ProcessRequest{Path: src})
	require.ErrorIs(t, err, llm.ErrBackendRateLimited)
	assert.NoDirExists(t, filepath.Join(f.daily, "Transcripts"))
	assert.NoFileExists(t, f.todoFile())
}

func TestProcessService_ObservesUseCases(t *testing.T) {
	f := newProcessFixture(t)
	svc := f.service(service.ProcessConfig{}, service.TextTranscriber{})
	testutil.WriteFile(t, f.inbox, "2025-06-25.txt", "words about project x")

	_, err := svc.ProcessInbox(context.Background())
	require.NoError(t, err)

	require.Len(t, f.observer.events, 1)
	e := f.observer.events[0]
	assert.Equal(t, "process.inbox", e.Name)
	assert.True(t, e.Success)
	assert.NotEmpty(t, e.RunID)
	assert.Equal(t, 1, e.Fields["processed"])
	assert.Equal(t, 0, e.Fields["failed"])
}

func TestProcessService_ProjectsIncludeFolders(t *testing.T) {
	f := newProcessFixture(t)
	svc := f.service(service.ProcessConfig{}, service.TextTranscriber{})
	require.NoError(t, os.MkdirAll(filepath.Join(f.projects, "Side Quest"), 0o755))

	set, err := svc.Projects(context.Background())
	require.NoError(t, err)
	assert.True(t, set.Contains("Project X"))
	assert.True(t, set.Contains("Side Quest"))
}
