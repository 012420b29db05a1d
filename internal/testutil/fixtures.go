package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexanderramin/daylog/internal/domain"
)

// Date returns midnight UTC of the given day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Record options
type RecordOption func(*domain.Record)

func WithSummary(s string) RecordOption {
	return func(r *domain.Record) { r.Summary = s }
}

func WithCompleted(s string) RecordOption {
	return func(r *domain.Record) { r.Completed = s }
}

func WithNextSteps(s string) RecordOption {
	return func(r *domain.Record) { r.NextSteps = s }
}

// NewTestRecord builds a fully populated record for projectName.
func NewTestRecord(projectName string, opts ...RecordOption) domain.Record {
	r := domain.Record{
		Project:   projectName,
		Summary:   "Worked on " + projectName + ".",
		Completed: "- Wrote tests",
		Blockers:  "- None today",
		NextSteps: "- Ship it",
		Thoughts:  "Keep the scope small.",
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// TodoItem options
type TodoOption func(*domain.TodoItem)

func WithPriority(p domain.Priority) TodoOption {
	return func(t *domain.TodoItem) { t.Priority = p }
}

func WithContext(c string) TodoOption {
	return func(t *domain.TodoItem) { t.Context = c }
}

func WithDone() TodoOption {
	return func(t *domain.TodoItem) { t.Done = true }
}

func WithSourceRef(ref string) TodoOption {
	return func(t *domain.TodoItem) { t.SourceRef = ref }
}

func NewTestTodo(text string, opts ...TodoOption) domain.TodoItem {
	t := domain.TodoItem{
		Text:     text,
		Priority: domain.PriorityMedium,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// WriteFile writes content to dir/name, creating dir, and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating %s: %v", dir, err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", p, err)
	}
	return p
}

type artifactStore interface {
	ReadAll(ctx context.Context, key string) ([]byte, error)
	AtomicReplace(ctx context.Context, key string, data []byte) error
}

// FailingRepo wraps an artifact store and fails every replace after the
// first AllowWrites successful ones.
type FailingRepo struct {
	Inner       artifactStore
	AllowWrites int32
	Err         error

	writes atomic.Int32
}

func (f *FailingRepo) ReadAll(ctx context.Context, key string) ([]byte, error) {
	return f.Inner.ReadAll(ctx, key)
}

func (f *FailingRepo) AtomicReplace(ctx context.Context, key string, data []byte) error {
	if f.writes.Add(1) > f.AllowWrites {
		return f.Err
	}
	return f.Inner.AtomicReplace(ctx, key, data)
}
