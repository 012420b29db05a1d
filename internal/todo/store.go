// Package todo keeps the per-project backlog of action items extracted from
// transcripts. It is the only component that mutates todo lists.
package todo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/project"
	"github.com/alexanderramin/daylog/internal/repository"
)

// ErrNoHistory is returned when the storage backend keeps no revisions.
var ErrNoHistory = errors.New("storage backend keeps no history")

// Extractor proposes todo candidates for a transcript.
type Extractor interface {
	ExtractTodos(ctx context.Context, transcript, projectName string) ([]domain.TodoCandidate, error)
}

// Store merges extracted items into per-project lists persisted through an
// ArtifactRepo. Mutations of one project are serialized in-process; the
// repo's atomic replace keeps the artifact whole if the process dies.
type Store struct {
	repo      repository.ArtifactRepo
	extractor Extractor
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a Store. extractor may be nil when only list
// maintenance is needed.
func NewStore(repo repository.ArtifactRepo, extractor Extractor, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		repo:      repo,
		extractor: extractor,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Key is the artifact key of a project's todo list.
func Key(projectName string) string {
	return path.Join(project.DirName(projectName), "todo.md")
}

func (s *Store) lock(projectName string) func() {
	k := strings.ToLower(project.DirName(projectName))
	s.mu.Lock()
	l, ok := s.locks[k]
	if !ok {
		l = &sync.Mutex{}
		s.locks[k] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// ExtractAndMerge extracts action items from transcript and appends the ones
// not already present to the project's list. It returns only the newly added
// items; when there are none the stored list is left untouched.
func (s *Store) ExtractAndMerge(ctx context.Context, transcript, projectName string, sourceDate time.Time, sourceRef string) ([]domain.TodoItem, error) {
	if s.extractor == nil {
		return nil, errors.New("todo store has no extractor")
	}
	candidates, err := s.extractor.ExtractTodos(ctx, transcript, projectName)
	if err != nil {
		return nil, err
	}
	return s.Merge(ctx, projectName, candidates, sourceDate, sourceRef)
}

// Merge appends candidates whose normalized text is new to the list.
// Duplicates within the batch collapse onto their first occurrence.
func (s *Store) Merge(ctx context.Context, projectName string, candidates []domain.TodoCandidate, sourceDate time.Time, sourceRef string) ([]domain.TodoItem, error) {
	unlock := s.lock(projectName)
	defer unlock()

	list, err := s.load(ctx, projectName)
	if err != nil {
		return nil, err
	}

	var added []domain.TodoItem
	for _, c := range candidates {
		text := domain.CollapseWhitespace(c.Text)
		if text == "" {
			continue
		}
		item := domain.TodoItem{
			Text:          text,
			Priority:      domain.ParsePriority(string(c.Priority)),
			Context:       domain.CollapseWhitespace(c.Context),
			SourceDate:    domain.DateOnly(sourceDate),
			SourceProject: projectName,
			SourceRef:     sourceRef,
		}
		if list.Add(item) {
			added = append(added, item)
		}
	}

	if len(added) == 0 {
		s.logger.Debug("no new todos", "project", projectName, "candidates", len(candidates))
		return nil, nil
	}
	if err := s.save(ctx, list); err != nil {
		return nil, err
	}
	s.logger.Info("todos merged", "project", projectName, "added", len(added), "total", len(list.Items))
	return added, nil
}

// List returns the project's items, high priority first.
func (s *Store) List(ctx context.Context, projectName string) ([]domain.TodoItem, error) {
	list, err := s.load(ctx, projectName)
	if err != nil {
		return nil, err
	}
	return list.ByPriority(), nil
}

// Completed returns the checked-off items.
func (s *Store) Completed(ctx context.Context, projectName string) ([]domain.TodoItem, error) {
	list, err := s.load(ctx, projectName)
	if err != nil {
		return nil, err
	}
	return list.Completed(), nil
}

// MarkDone checks off the item with the given identity. It reports false
// when no such item exists.
func (s *Store) MarkDone(ctx context.Context, projectName, identity string) (bool, error) {
	return s.mutate(ctx, projectName, func(list *domain.TodoList) (bool, bool) {
		i := list.Find(identity)
		if i < 0 {
			return false, false
		}
		if list.Items[i].Done {
			return true, false
		}
		list.Items[i].Done = true
		return true, true
	})
}

// Remove deletes the item with the given identity. It reports false when no
// such item exists.
func (s *Store) Remove(ctx context.Context, projectName, identity string) (bool, error) {
	return s.mutate(ctx, projectName, func(list *domain.TodoList) (bool, bool) {
		ok := list.Remove(identity)
		return ok, ok
	})
}

// PurgeCompleted drops every checked-off item and returns how many went.
func (s *Store) PurgeCompleted(ctx context.Context, projectName string) (int, error) {
	n := 0
	_, err := s.mutate(ctx, projectName, func(list *domain.TodoList) (bool, bool) {
		open := list.Open()
		n = len(list.Items) - len(open)
		list.Items = open
		return n > 0, n > 0
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// History lists the stored revisions of the project's list.
func (s *Store) History(ctx context.Context, projectName string) ([]repository.Revision, error) {
	h, ok := s.repo.(repository.HistoryRepo)
	if !ok {
		return nil, ErrNoHistory
	}
	return h.Revisions(ctx, Key(projectName))
}

// Revision returns the stored markdown of one earlier revision.
func (s *Store) Revision(ctx context.Context, projectName string, revision int) ([]byte, error) {
	h, ok := s.repo.(repository.HistoryRepo)
	if !ok {
		return nil, ErrNoHistory
	}
	return h.ReadRevision(ctx, Key(projectName), revision)
}

// mutate applies fn under the project lock. fn reports whether the target
// was found and whether the list changed; unchanged lists are not written.
func (s *Store) mutate(ctx context.Context, projectName string, fn func(*domain.TodoList) (found, changed bool)) (bool, error) {
	unlock := s.lock(projectName)
	defer unlock()

	list, err := s.load(ctx, projectName)
	if err != nil {
		return false, err
	}
	found, changed := fn(list)
	if !changed {
		return found, nil
	}
	if err := s.save(ctx, list); err != nil {
		return false, err
	}
	return found, nil
}

func (s *Store) load(ctx context.Context, projectName string) (*domain.TodoList, error) {
	data, err := s.repo.ReadAll(ctx, Key(projectName))
	if err != nil {
		return nil, fmt.Errorf("loading todo list of %s: %w", projectName, err)
	}
	return Parse(projectName, data), nil
}

func (s *Store) save(ctx context.Context, list *domain.TodoList) error {
	data, err := Render(list)
	if err != nil {
		return err
	}
	if err := s.repo.AtomicReplace(ctx, Key(list.Project), data); err != nil {
		return fmt.Errorf("saving todo list of %s: %w", list.Project, err)
	}
	return nil
}
