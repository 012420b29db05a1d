package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/timeline"
)

// TimelineRequest selects what to aggregate. An empty Project means every
// known project; a nil Week means every week still missing a document.
type TimelineRequest struct {
	Project string
	Week    *time.Time
	Force   bool
}

type TimelineReport struct {
	Results []*timeline.Result
	Indexes []string
	Errors  map[string]error // by project
}

func (r *TimelineReport) Created() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == domain.OutcomeCreated {
			n++
		}
	}
	return n
}

type timelineService struct {
	aggregator WeeklyAggregator
	projects   ProjectSource
	logger     *slog.Logger
	observer   UseCaseObserver
}

func NewTimelineService(aggregator WeeklyAggregator, projects ProjectSource, logger *slog.Logger, observers ...UseCaseObserver) TimelineService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &timelineService{
		aggregator: aggregator,
		projects:   projects,
		logger:     logger,
		observer:   useCaseObserverOrNoop(observers),
	}
}

// Generate aggregates the requested weeks project by project. A failing
// project is recorded in the report and the remaining projects still run;
// the returned error joins every project failure.
func (s *timelineService) Generate(ctx context.Context, req TimelineRequest) (report *TimelineReport, err error) {
	ctx = WithRunID(ctx)
	done := track(ctx, s.observer, "timeline.generate")
	defer func() {
		fields := map[string]any{"project": req.Project, "force": req.Force}
		if req.Week != nil {
			fields["week"] = domain.WeekKey(*req.Week)
		}
		if report != nil {
			fields["created"] = report.Created()
			fields["failed_projects"] = len(report.Errors)
		}
		done(err, fields)
	}()

	names := []string{req.Project}
	if req.Project == "" {
		known, err := s.projects()
		if err != nil {
			return nil, err
		}
		names = known.Names()
	}

	report = &TimelineReport{Errors: make(map[string]error)}
	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		results, index, err := s.generateProject(ctx, name, req)
		report.Results = append(report.Results, results...)
		if index != "" {
			report.Indexes = append(report.Indexes, index)
		}
		if err != nil {
			s.logger.Error("timeline generation failed", "project", name, "error", err)
			report.Errors[name] = err
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return report, errors.Join(errs...)
}

func (s *timelineService) generateProject(ctx context.Context, name string, req TimelineRequest) ([]*timeline.Result, string, error) {
	if req.Week == nil {
		results, err := s.aggregator.GenerateMissing(ctx, name)
		if !anyCreated(results) {
			return results, "", err
		}
		// GenerateMissing refreshes the index itself.
		return results, s.aggregator.IndexPath(name), err
	}

	res, err := s.aggregator.Aggregate(ctx, name, *req.Week, timeline.Options{Force: req.Force})
	if err != nil {
		return nil, "", err
	}
	if res.Outcome != domain.OutcomeCreated {
		return []*timeline.Result{res}, "", nil
	}
	index, err := s.aggregator.UpdateIndex(ctx, name)
	return []*timeline.Result{res}, index, err
}

func anyCreated(results []*timeline.Result) bool {
	for _, r := range results {
		if r.Outcome == domain.OutcomeCreated {
			return true
		}
	}
	return false
}
