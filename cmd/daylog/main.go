package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/daylog/internal/cli"
	"github.com/alexanderramin/daylog/internal/config"
	"github.com/alexanderramin/daylog/internal/db"
	"github.com/alexanderramin/daylog/internal/extract"
	"github.com/alexanderramin/daylog/internal/llm"
	"github.com/alexanderramin/daylog/internal/notes"
	"github.com/alexanderramin/daylog/internal/repository"
	"github.com/alexanderramin/daylog/internal/service"
	"github.com/alexanderramin/daylog/internal/timeline"
	"github.com/alexanderramin/daylog/internal/todo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath, err := config.DefaultPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	paths := cfg.Paths()

	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Todo list storage
	var repo repository.ArtifactRepo = repository.NewFileArtifactRepo(paths.Projects)
	if cfg.Storage.Backend == config.BackendSQLite {
		database, err := db.OpenDB(cfg.Storage.SQLitePath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()
		repo = repository.NewSQLiteArtifactRepoWithUoW(database, db.NewSQLiteUnitOfWork(database))
	}

	// LLM backend
	var observer llm.Observer = llm.NoopObserver{}
	if cfg.LLM.LogCalls {
		observer = llm.NewSlogObserver(logger)
	}
	client, err := llm.NewClient(cfg.LLM.LLMConfig, observer)
	if err != nil {
		return err
	}

	var sink extract.Sink
	if cfg.Processing.DebugLLM {
		sink = extract.NewFileSink(paths.Debug)
	}
	extractor := extract.New(client, sink, logger)

	// Components
	writer := notes.NewWriter(notes.Config{
		DailyDir:         paths.Daily,
		TranscriptFolder: cfg.Vault.TranscriptFolder,
		SaveTranscript:   cfg.Processing.SaveTranscript,
	}, logger)
	store := todo.NewStore(repo, extractor, logger)

	var tracker timeline.TodoTracker
	if cfg.Processing.TrackCompletedTodos {
		tracker = store
	}
	aggregator := timeline.NewAggregator(timeline.Config{
		DailyDir:            paths.Daily,
		ProjectsDir:         paths.Projects,
		TrackCompletedTodos: cfg.Processing.TrackCompletedTodos,
	}, extractor, tracker, logger)

	projects := service.LoadProjects(paths.Projects, cfg.Projects)
	useCases := service.NewSlogUseCaseObserver(logger)

	// Services
	app := &cli.App{
		Process: service.NewProcessService(service.ProcessConfig{
			InboxDir:              paths.Inbox,
			Workers:               cfg.Processing.Workers,
			DeleteAfterProcessing: cfg.Processing.DeleteAfterProcessing,
		}, newTranscriber(cfg), extractor, writer, store, projects, logger, useCases),
		Todos:    service.NewTodoService(store, useCases),
		Timeline: service.NewTimelineService(aggregator, projects, logger, useCases),
		Backend:  client,
		Config:   cfg,
		LogLevel: level,
	}

	// Colors and spinners only on a terminal.
	app.Interactive = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = service.WithRunID(ctx)

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.ExecuteContext(ctx)
}

// newTranscriber reads text transcripts directly and, when a speech-to-text
// command is configured, hands audio files to it.
func newTranscriber(cfg *config.Config) service.Transcriber {
	p := cfg.Processing
	bounds := service.Bounds{
		MinWords:    p.MinWords,
		MaxWords:    p.MaxWords,
		MinDuration: p.MinDuration(),
		MaxDuration: p.MaxDuration(),
	}
	text := service.TextTranscriber{Bounds: bounds}
	if p.Transcriber.Command == "" {
		return text
	}
	return service.Chain{text, service.CommandTranscriber{
		Command:    p.Transcriber.Command,
		Extensions: p.Transcriber.Extensions,
		Timeout:    time.Duration(p.Transcriber.TimeoutSeconds) * time.Second,
		Bounds:     bounds,
	}}
}
