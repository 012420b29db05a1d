package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/project"
)

// ProcessConfig controls inbox processing.
type ProcessConfig struct {
	InboxDir              string
	Workers               int
	DeleteAfterProcessing bool
}

// ProcessRequest names one source file. Date overrides the date found in
// the file name.
type ProcessRequest struct {
	Path string
	Date *time.Time
}

type ProcessResult struct {
	Path       string
	Date       time.Time
	Transcript *domain.Transcript
	Document   *domain.DocumentHandle
	Todos      []domain.TodoItem // newly added
	Deleted    bool
}

// ItemResult is the outcome of one file in a batch run.
type ItemResult struct {
	Path   string
	Result *ProcessResult
	Err    error
}

type BatchResult struct {
	Items []ItemResult
}

func (b *BatchResult) Processed() int {
	n := 0
	for _, it := range b.Items {
		if it.Err == nil {
			n++
		}
	}
	return n
}

func (b *BatchResult) Failed() int {
	return len(b.Items) - b.Processed()
}

// Err joins the item failures, or returns nil.
func (b *BatchResult) Err() error {
	var errs []error
	for _, it := range b.Items {
		if it.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(it.Path), it.Err))
		}
	}
	return errors.Join(errs...)
}

type TodoExtractResult struct {
	Path           string
	Project        string
	Date           time.Time
	TranscriptPath string
	Added          []domain.TodoItem
}

type processService struct {
	cfg         ProcessConfig
	transcriber Transcriber
	extractor   Extractor
	writer      DocumentWriter
	todos       TodoMerger
	projects    ProjectSource
	logger      *slog.Logger
	observer    UseCaseObserver
	now         func() time.Time
}

func NewProcessService(
	cfg ProcessConfig,
	transcriber Transcriber,
	extractor Extractor,
	writer DocumentWriter,
	todos TodoMerger,
	projects ProjectSource,
	logger *slog.Logger,
	observers ...UseCaseObserver,
) ProcessService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if projects == nil {
		projects = func() (project.Set, error) { return project.NewSet(), nil }
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &processService{
		cfg:         cfg,
		transcriber: transcriber,
		extractor:   extractor,
		writer:      writer,
		todos:       todos,
		projects:    projects,
		logger:      logger,
		observer:    useCaseObserverOrNoop(observers),
		now:         time.Now,
	}
}

func (s *processService) Projects(ctx context.Context) (project.Set, error) {
	if err := ctx.Err(); err != nil {
		return project.Set{}, err
	}
	return s.projects()
}

// ProcessFile runs one source file through the whole pipeline. Both
// extractions finish before anything is written, so a backend failure
// leaves the vault untouched.
func (s *processService) ProcessFile(ctx context.Context, req ProcessRequest) (res *ProcessResult, err error) {
	ctx = WithRunID(ctx)
	done := track(ctx, s.observer, "process.file")
	defer func() {
		fields := map[string]any{"file": filepath.Base(req.Path)}
		if res != nil && res.Document != nil {
			fields["project"] = res.Document.Project
			fields["document"] = res.Document.Name
			fields["todos_added"] = len(res.Todos)
		}
		done(err, fields)
	}()

	known, err := s.projects()
	if err != nil {
		return nil, err
	}
	return s.processFile(ctx, req, known)
}

func (s *processService) processFile(ctx context.Context, req ProcessRequest, known project.Set) (*ProcessResult, error) {
	tr, err := s.transcriber.Transcribe(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	date := s.sourceDate(req)
	tr.SourceDate = &date

	rec, err := s.extractor.Extract(ctx, tr.Text, known)
	if err != nil {
		return nil, err
	}
	projectName := rec.ProjectOrUnknown()
	candidates, err := s.extractor.ExtractTodos(ctx, tr.Text, projectName)
	if err != nil {
		return nil, err
	}

	res := &ProcessResult{Path: req.Path, Date: date, Transcript: tr}
	res.Document, err = s.writer.WriteDaily(ctx, rec, tr.Text, date, tr.SourceAudio)
	if err != nil {
		return nil, err
	}
	s.logger.Info("daily document written", "path", res.Document.Path, "project", res.Document.Project)

	res.Todos, err = s.todos.Merge(ctx, projectName, candidates, date, res.Document.Ref())
	if err != nil {
		return res, fmt.Errorf("updating todo list: %w", err)
	}

	if s.cfg.DeleteAfterProcessing {
		if err := os.Remove(req.Path); err != nil {
			s.logger.Warn("could not delete processed file", "path", req.Path, "error", err)
		} else {
			res.Deleted = true
		}
	}
	return res, nil
}

// ProcessInbox processes every supported file in the inbox. A failure is
// recorded on its item and never stops the others.
func (s *processService) ProcessInbox(ctx context.Context) (res *BatchResult, err error) {
	ctx = WithRunID(ctx)
	done := track(ctx, s.observer, "process.inbox")
	defer func() {
		fields := map[string]any{"inbox": s.cfg.InboxDir}
		if res != nil {
			fields["processed"] = res.Processed()
			fields["failed"] = res.Failed()
		}
		done(err, fields)
	}()

	paths, err := s.inboxFiles()
	if err != nil {
		return nil, err
	}
	known, err := s.projects()
	if err != nil {
		return nil, err
	}

	res = &BatchResult{Items: make([]ItemResult, len(paths))}
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i, p := range paths {
		g.Go(func() error {
			item := ItemResult{Path: p}
			if err := ctx.Err(); err != nil {
				item.Err = err
			} else {
				item.Result, item.Err = s.processFile(ctx, ProcessRequest{Path: p}, known)
			}
			if item.Err != nil {
				s.logger.Error("processing failed", "file", filepath.Base(p), "error", item.Err)
			}
			res.Items[i] = item
			return nil
		})
	}
	_ = g.Wait()
	return res, nil
}

func (s *processService) inboxFiles() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.InboxDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading inbox: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		p := filepath.Join(s.cfg.InboxDir, e.Name())
		if s.transcriber.Supports(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ExtractTodos is the todo-only run: the project is detected from the
// transcript, the transcript is saved as a todo-extract artifact and the
// action items are merged. No daily document is written.
func (s *processService) ExtractTodos(ctx context.Context, req ProcessRequest) (res *TodoExtractResult, err error) {
	ctx = WithRunID(ctx)
	done := track(ctx, s.observer, "todos.extract")
	defer func() {
		fields := map[string]any{"file": filepath.Base(req.Path)}
		if res != nil {
			fields["project"] = res.Project
			fields["todos_added"] = len(res.Added)
		}
		done(err, fields)
	}()

	known, err := s.projects()
	if err != nil {
		return nil, err
	}
	tr, err := s.transcriber.Transcribe(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	date := s.sourceDate(req)

	rec, err := s.extractor.Extract(ctx, tr.Text, known)
	if err != nil {
		return nil, err
	}
	projectName := rec.ProjectOrUnknown()
	candidates, err := s.extractor.ExtractTodos(ctx, tr.Text, projectName)
	if err != nil {
		return nil, err
	}

	res = &TodoExtractResult{Path: req.Path, Project: projectName, Date: date}
	res.TranscriptPath, err = s.writer.WriteTranscriptOnly(ctx, tr.Text, date, projectName)
	if err != nil {
		return nil, err
	}
	ref := strings.TrimSuffix(filepath.Base(res.TranscriptPath), filepath.Ext(res.TranscriptPath))
	res.Added, err = s.todos.Merge(ctx, projectName, candidates, date, ref)
	if err != nil {
		return res, fmt.Errorf("updating todo list: %w", err)
	}
	return res, nil
}

func (s *processService) sourceDate(req ProcessRequest) time.Time {
	if req.Date != nil {
		return domain.DateOnly(*req.Date)
	}
	if d, ok := SourceDateFromFilename(req.Path); ok {
		return d
	}
	return domain.DateOnly(s.now())
}
