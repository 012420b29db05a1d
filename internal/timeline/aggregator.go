// Package timeline aggregates a project's daily documents into weekly
// summary documents and keeps the per-project timeline index current.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/notes"
	"github.com/alexanderramin/daylog/internal/project"
	"github.com/alexanderramin/daylog/internal/repository"
)

const (
	timelineFolder = "timeline"
	indexName      = "timeline_index.md"
	excerptLen     = 160
)

var weeklyName = regexp.MustCompile(`^(\d{4}-W\d{2})(?:_\d{6}(?:-\d+)?)?\.md$`)

// Summarizer synthesises one project-week from its daily documents.
type Summarizer interface {
	SummarizeWeek(ctx context.Context, projectName, weekKey string, days []domain.DailyDocument) (domain.WeeklySummary, error)
}

// TodoTracker exposes the completed items of a project's backlog.
type TodoTracker interface {
	Completed(ctx context.Context, projectName string) ([]domain.TodoItem, error)
	PurgeCompleted(ctx context.Context, projectName string) (int, error)
}

type Config struct {
	DailyDir            string
	ProjectsDir         string
	TrackCompletedTodos bool
}

type Options struct {
	// Force regenerates a week that already has a weekly document. The
	// existing document is kept and the new one gets a disambiguated name.
	Force bool
}

type Result struct {
	Project     string
	WeekKey     string
	WeekStart   time.Time
	Outcome     domain.Outcome
	Reason      domain.SkipReason
	Path        string
	Collided    bool
	Days        []string // refs of the constituent daily documents
	PurgedTodos int
}

// Aggregator is the only component that creates weekly documents. It never
// modifies daily documents.
type Aggregator struct {
	cfg        Config
	summarizer Summarizer
	todos      TodoTracker
	index      *repository.FileArtifactRepo
	logger     *slog.Logger
	now        func() time.Time
}

// NewAggregator creates an Aggregator. todos may be nil, which disables
// completed-todo tracking.
func NewAggregator(cfg Config, summarizer Summarizer, todos TodoTracker, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Aggregator{
		cfg:        cfg,
		summarizer: summarizer,
		todos:      todos,
		index:      repository.NewFileArtifactRepo(cfg.ProjectsDir),
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock returns a copy of a using now as its time source.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	c := *a
	c.now = now
	return &c
}

// Dir is the timeline directory of a project.
func (a *Aggregator) Dir(projectName string) string {
	return filepath.Join(a.cfg.ProjectsDir, project.DirName(projectName), timelineFolder)
}

// Aggregate produces the weekly document for the seven days starting at
// weekStart. An existing weekly document or an empty week is reported as
// SkippedExisting without side effects.
func (a *Aggregator) Aggregate(ctx context.Context, projectName string, weekStart time.Time, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := domain.DateOnly(weekStart)
	res := &Result{Project: projectName, WeekKey: domain.WeekKey(start), WeekStart: start}
	dir := a.Dir(projectName)

	existing, err := weeklyDocs(dir)
	if err != nil {
		return nil, err
	}
	if _, ok := existing[res.WeekKey]; ok && !opts.Force {
		res.Outcome, res.Reason = domain.OutcomeSkippedExisting, domain.ReasonAlreadySummarized
		a.logger.Debug("week already summarized", "project", projectName, "week", res.WeekKey)
		return res, nil
	}

	days, err := a.daysInWindow(projectName, start)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		res.Outcome, res.Reason = domain.OutcomeSkippedExisting, domain.ReasonNoDailyDocuments
		return res, nil
	}

	summary, err := a.summarizer.SummarizeWeek(ctx, projectName, res.WeekKey, days)
	if err != nil {
		return nil, fmt.Errorf("aggregating %s %s: %w", projectName, res.WeekKey, err)
	}

	var completed []domain.TodoItem
	if a.tracking() {
		completed, err = a.todos.Completed(ctx, projectName)
		if err != nil {
			return nil, fmt.Errorf("loading completed todos: %w", err)
		}
	}

	now := a.now()
	data, err := renderWeekly(weeklyView{
		Project:   projectName,
		WeekKey:   res.WeekKey,
		Start:     start,
		Summary:   summary,
		Completed: completed,
		Days:      days,
		Dir:       dir,
		Generated: now,
	})
	if err != nil {
		return nil, err
	}

	name, collided, err := notes.WriteExclusive(dir, res.WeekKey, now, data)
	if err != nil {
		return nil, fmt.Errorf("writing weekly document: %w", err)
	}
	if collided {
		a.logger.Info("weekly document name taken, disambiguated", "name", name, "project", projectName)
	}

	res.Outcome = domain.OutcomeCreated
	res.Path = filepath.Join(dir, name)
	res.Collided = collided
	for _, d := range days {
		res.Days = append(res.Days, d.Ref())
	}

	if len(completed) > 0 {
		n, err := a.todos.PurgeCompleted(ctx, projectName)
		if err != nil {
			// The weekly document already lists them; a later run retries.
			a.logger.Warn("purging completed todos failed", "project", projectName, "error", err)
		}
		res.PurgedTodos = n
	}
	a.logger.Info("weekly document created", "project", projectName, "week", res.WeekKey, "days", len(days))
	return res, nil
}

func (a *Aggregator) tracking() bool {
	return a.cfg.TrackCompletedTodos && a.todos != nil
}

// daysInWindow returns the project's daily documents dated within
// [start, start+6], ordered by date then name.
func (a *Aggregator) daysInWindow(projectName string, start time.Time) ([]domain.DailyDocument, error) {
	docs, err := notes.ListDaily(a.cfg.DailyDir, projectName)
	if err != nil {
		return nil, err
	}
	end := start.AddDate(0, 0, 6)
	var out []domain.DailyDocument
	for _, d := range docs {
		if !d.Date.Before(start) && !d.Date.After(end) {
			out = append(out, d)
		}
	}
	return out, nil
}

// MissingWeeks returns the starts (Mondays) of ISO weeks that have daily
// documents but no weekly document, oldest first.
func (a *Aggregator) MissingWeeks(projectName string) ([]time.Time, error) {
	docs, err := notes.ListDaily(a.cfg.DailyDir, projectName)
	if err != nil {
		return nil, err
	}
	existing, err := weeklyDocs(a.Dir(projectName))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []time.Time
	for _, d := range docs {
		start := domain.WeekStart(d.Date)
		key := domain.WeekKey(start)
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := existing[key]; !ok {
			out = append(out, start)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// GenerateMissing aggregates every missing week of the project and then
// refreshes the index. It stops at the first backend failure, returning the
// results gathered so far.
func (a *Aggregator) GenerateMissing(ctx context.Context, projectName string) ([]*Result, error) {
	weeks, err := a.MissingWeeks(projectName)
	if err != nil {
		return nil, err
	}

	var results []*Result
	created := 0
	for _, start := range weeks {
		res, err := a.Aggregate(ctx, projectName, start, Options{})
		if err != nil {
			if created > 0 {
				if _, ierr := a.UpdateIndex(ctx, projectName); ierr != nil {
					a.logger.Warn("updating timeline index failed", "project", projectName, "error", ierr)
				}
			}
			return results, err
		}
		results = append(results, res)
		if res.Outcome == domain.OutcomeCreated {
			created++
		}
	}
	if created > 0 {
		if _, err := a.UpdateIndex(ctx, projectName); err != nil {
			return results, err
		}
	}
	return results, nil
}

// UpdateIndex rewrites timeline_index.md: the most recent weeks with a
// one-line summary, then every week grouped by year. When a week was
// regenerated the newest document wins. It returns the index path, or ""
// when the project has no weekly documents.
func (a *Aggregator) UpdateIndex(ctx context.Context, projectName string) (string, error) {
	dir := a.Dir(projectName)
	docs, err := weeklyDocs(dir)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", nil
	}

	entries := make([]indexEntry, 0, len(docs))
	for key, name := range docs {
		start, err := domain.ParseWeekKey(key)
		if err != nil {
			a.logger.Warn("skipping weekly document with invalid week", "name", name)
			continue
		}
		summary := ""
		if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
			_, body := notes.SplitFrontMatter(data)
			summary = notes.Excerpt(notes.ParseSections(body)["week summary"], excerptLen)
			if summary == notes.Placeholder {
				summary = ""
			}
		}
		entries = append(entries, indexEntry{Key: key, Name: name, Start: start, Summary: summary})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Start.After(entries[j].Start) })

	key := path.Join(project.DirName(projectName), timelineFolder, indexName)
	if err := a.index.AtomicReplace(ctx, key, renderIndex(projectName, entries)); err != nil {
		return "", fmt.Errorf("writing timeline index: %w", err)
	}
	return a.IndexPath(projectName), nil
}

// IndexPath is where UpdateIndex writes the project's timeline index.
func (a *Aggregator) IndexPath(projectName string) string {
	return filepath.Join(a.Dir(projectName), indexName)
}

// weeklyDocs maps each week key in dir to its most recently written weekly
// document name.
func weeklyDocs(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing timeline: %w", err)
	}
	type candidate struct {
		name string
		mod  time.Time
	}
	best := make(map[string]candidate)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := weeklyName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		c := candidate{name: e.Name(), mod: info.ModTime()}
		prev, ok := best[m[1]]
		if !ok || c.mod.After(prev.mod) || (c.mod.Equal(prev.mod) && len(c.name) > len(prev.name)) {
			best[m[1]] = c
		}
	}
	out := make(map[string]string, len(best))
	for k, c := range best {
		out[k] = c.name
	}
	return out, nil
}
