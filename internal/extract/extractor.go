// Package extract turns transcripts into structured records, todo candidates
// and weekly summaries using a text-generation backend. Malformed backend
// output is recovered through decoder chains and is never an error; backend
// unavailability is returned to the caller.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/llm"
	"github.com/alexanderramin/daylog/internal/project"
)

// Extractor is the content extraction engine.
type Extractor struct {
	client    llm.LLMClient
	sink      Sink
	logger    *slog.Logger
	chain     Chain
	todoChain TodoChain
	now       func() time.Time
}

// New creates an Extractor. sink and logger may be nil.
func New(client llm.LLMClient, sink Sink, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{
		client:    client,
		sink:      sink,
		logger:    logger,
		chain:     DefaultChain,
		todoChain: DefaultTodoChain,
		now:       time.Now,
	}
}

// Extract produces the structured record for a transcript. The record's
// project is always a member of known or domain.Unknown.
func (e *Extractor) Extract(ctx context.Context, transcript string, known project.Set) (domain.Record, error) {
	names := known.Names()
	req := llm.GenerateRequest{
		Task:         llm.TaskDailyNote,
		SystemPrompt: dailySystemPrompt(names),
		UserPrompt:   dailyUserPrompt(transcript, names),
		JSONMode:     true,
	}
	resp, err := e.client.Generate(ctx, req)
	if err != nil {
		return domain.Record{}, fmt.Errorf("extracting daily record: %w", err)
	}

	values, decoder := e.chain.Decode(resp.Text, dailyFields)
	rec := domain.Record{
		Project:   known.Resolve(values[keyProject]),
		Summary:   values[keySummary],
		Completed: values[keyCompleted],
		Blockers:  values[keyBlockers],
		NextSteps: values[keyNextSteps],
		Thoughts:  values[keyThoughts],
	}

	e.save(req, resp, decoder, "note")
	e.logger.Debug("daily record extracted",
		"decoder", decoder,
		"candidate_project", values[keyProject],
		"project", rec.Project,
	)
	return rec, nil
}

// ExtractTodos returns the action items mentioned in transcript. A transcript
// without action items yields an empty slice, not an error.
func (e *Extractor) ExtractTodos(ctx context.Context, transcript, projectName string) ([]domain.TodoCandidate, error) {
	req := llm.GenerateRequest{
		Task:         llm.TaskTodos,
		SystemPrompt: todoSystemPrompt,
		UserPrompt:   todoUserPrompt(transcript, projectName),
		JSONMode:     true,
	}
	resp, err := e.client.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("extracting todos: %w", err)
	}

	items, decoder := e.todoChain.Decode(resp.Text)
	e.save(req, resp, decoder, projectName)
	e.logger.Debug("todos extracted", "project", projectName, "decoder", decoder, "count", len(items))
	return items, nil
}

// SummarizeWeek synthesises the weekly summary for one project-week from
// its daily documents, which must be ordered by date.
func (e *Extractor) SummarizeWeek(ctx context.Context, projectName, weekKey string, days []domain.DailyDocument) (domain.WeeklySummary, error) {
	req := llm.GenerateRequest{
		Task:         llm.TaskWeekly,
		SystemPrompt: weeklySystemPrompt,
		UserPrompt:   weeklyUserPrompt(projectName, weekKey, days),
		JSONMode:     true,
	}
	resp, err := e.client.Generate(ctx, req)
	if err != nil {
		return domain.WeeklySummary{}, fmt.Errorf("summarizing week %s: %w", weekKey, err)
	}

	values, decoder := e.chain.Decode(resp.Text, weeklyFields)
	e.save(req, resp, decoder, projectName+"_"+weekKey)
	e.logger.Debug("weekly summary generated", "project", projectName, "week", weekKey, "decoder", decoder)

	return domain.WeeklySummary{
		WeekSummary:     values[keyWeekSummary],
		Accomplishments: values[keyAccomplishments],
		Insights:        values[keyInsights],
		Progress:        values[keyProgress],
		NextWeekFocus:   values[keyNextWeekFocus],
	}, nil
}

func (e *Extractor) save(req llm.GenerateRequest, resp *llm.GenerateResponse, decoder, ref string) {
	if e.sink == nil {
		return
	}
	err := e.sink.Save(Exchange{
		Task:         req.Task,
		Reference:    ref,
		Model:        resp.Model,
		Temperature:  resp.Temperature,
		LatencyMs:    resp.LatencyMs,
		SystemPrompt: req.SystemPrompt,
		UserPrompt:   req.UserPrompt,
		Response:     resp.Text,
		Decoder:      decoder,
		At:           e.now(),
	})
	if err != nil {
		e.logger.Warn("debug sink failed", "task", req.Task, "error", err)
	}
}
