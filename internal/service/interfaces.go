package service

import (
	"context"
	"time"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/project"
	"github.com/alexanderramin/daylog/internal/repository"
	"github.com/alexanderramin/daylog/internal/timeline"
)

type ProcessService interface {
	ProcessFile(ctx context.Context, req ProcessRequest) (*ProcessResult, error)
	ProcessInbox(ctx context.Context) (*BatchResult, error)
	ExtractTodos(ctx context.Context, req ProcessRequest) (*TodoExtractResult, error)
	Projects(ctx context.Context) (project.Set, error)
}

type TodoService interface {
	List(ctx context.Context, projectName string) ([]domain.TodoItem, error)
	MarkDone(ctx context.Context, projectName, identity string) (bool, error)
	Remove(ctx context.Context, projectName, identity string) (bool, error)
	PurgeCompleted(ctx context.Context, projectName string) (int, error)
	History(ctx context.Context, projectName string) ([]repository.Revision, error)
	Revision(ctx context.Context, projectName string, revision int) ([]byte, error)
}

type TimelineService interface {
	Generate(ctx context.Context, req TimelineRequest) (*TimelineReport, error)
}

// Extractor is the content extraction the processing use cases depend on.
type Extractor interface {
	Extract(ctx context.Context, transcript string, known project.Set) (domain.Record, error)
	ExtractTodos(ctx context.Context, transcript, projectName string) ([]domain.TodoCandidate, error)
}

// DocumentWriter persists daily documents and transcript artifacts.
type DocumentWriter interface {
	WriteDaily(ctx context.Context, rec domain.Record, transcript string, date time.Time, audioFilename string) (*domain.DocumentHandle, error)
	WriteTranscriptOnly(ctx context.Context, transcript string, date time.Time, projectName string) (string, error)
}

// TodoMerger appends extracted candidates to a project's todo list.
type TodoMerger interface {
	Merge(ctx context.Context, projectName string, candidates []domain.TodoCandidate, sourceDate time.Time, sourceRef string) ([]domain.TodoItem, error)
}

// WeeklyAggregator builds weekly documents and the timeline index.
type WeeklyAggregator interface {
	Aggregate(ctx context.Context, projectName string, weekStart time.Time, opts timeline.Options) (*timeline.Result, error)
	GenerateMissing(ctx context.Context, projectName string) ([]*timeline.Result, error)
	UpdateIndex(ctx context.Context, projectName string) (string, error)
	IndexPath(projectName string) string
}

// ProjectSource lists the known projects. It is consulted on every run so
// project folders created since start-up are picked up.
type ProjectSource func() (project.Set, error)

// LoadProjects returns a ProjectSource backed by project.Load.
func LoadProjects(projectsDir string, configured []string) ProjectSource {
	return func() (project.Set, error) {
		return project.Load(projectsDir, configured)
	}
}
