package service

import (
	"context"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/repository"
)

// TodoStore is the todo list storage behind TodoService.
type TodoStore interface {
	List(ctx context.Context, projectName string) ([]domain.TodoItem, error)
	MarkDone(ctx context.Context, projectName, identity string) (bool, error)
	Remove(ctx context.Context, projectName, identity string) (bool, error)
	PurgeCompleted(ctx context.Context, projectName string) (int, error)
	History(ctx context.Context, projectName string) ([]repository.Revision, error)
	Revision(ctx context.Context, projectName string, revision int) ([]byte, error)
}

type todoService struct {
	store    TodoStore
	observer UseCaseObserver
}

func NewTodoService(store TodoStore, observers ...UseCaseObserver) TodoService {
	return &todoService{store: store, observer: useCaseObserverOrNoop(observers)}
}

func (s *todoService) List(ctx context.Context, projectName string) ([]domain.TodoItem, error) {
	return s.store.List(ctx, projectName)
}

func (s *todoService) MarkDone(ctx context.Context, projectName, identity string) (found bool, err error) {
	done := track(ctx, s.observer, "todos.done")
	defer func() { done(err, map[string]any{"project": projectName, "found": found}) }()
	return s.store.MarkDone(ctx, projectName, identity)
}

func (s *todoService) Remove(ctx context.Context, projectName, identity string) (found bool, err error) {
	done := track(ctx, s.observer, "todos.remove")
	defer func() { done(err, map[string]any{"project": projectName, "found": found}) }()
	return s.store.Remove(ctx, projectName, identity)
}

func (s *todoService) PurgeCompleted(ctx context.Context, projectName string) (n int, err error) {
	done := track(ctx, s.observer, "todos.clean")
	defer func() { done(err, map[string]any{"project": projectName, "purged": n}) }()
	return s.store.PurgeCompleted(ctx, projectName)
}

func (s *todoService) History(ctx context.Context, projectName string) ([]repository.Revision, error) {
	return s.store.History(ctx, projectName)
}

func (s *todoService) Revision(ctx context.Context, projectName string, revision int) ([]byte, error) {
	return s.store.Revision(ctx, projectName, revision)
}
