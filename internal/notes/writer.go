// Package notes writes daily documents and transcript artifacts into the
// vault and reads daily documents back.
package notes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/project"
)

// Config locates the daily area and controls transcript persistence.
type Config struct {
	DailyDir         string
	TranscriptFolder string // relative to DailyDir
	SaveTranscript   bool
}

// Writer is the only component that creates daily documents and transcript
// artifacts. Documents are never overwritten: name collisions are resolved
// by disambiguating the new name.
type Writer struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

func NewWriter(cfg Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.TranscriptFolder == "" {
		cfg.TranscriptFolder = "Transcripts"
	}
	return &Writer{cfg: cfg, logger: logger, now: time.Now}
}

// WithClock returns a copy of w using now as its time source.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	c := *w
	c.now = now
	return &c
}

func (w *Writer) transcriptDir() string {
	return filepath.Join(w.cfg.DailyDir, w.cfg.TranscriptFolder)
}

// WriteDaily renders rec as the daily document for (date, project). The
// transcript artifact, when enabled, is written first and linked by
// relative path; when disabled the transcript section is omitted.
func (w *Writer) WriteDaily(ctx context.Context, rec domain.Record, transcript string, date time.Time, audioFilename string) (*domain.DocumentHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := w.now()
	rec.Project = rec.ProjectOrUnknown()
	dateStr := date.Format(domain.DateLayout)
	base := dateStr + "_" + project.FileSafe(rec.Project)

	handle := &domain.DocumentHandle{
		Project: rec.Project,
		Date:    domain.DateOnly(date),
	}

	link := ""
	if w.cfg.SaveTranscript {
		data, err := renderTranscript(transcriptView{
			Date:        dateStr,
			Project:     rec.Project,
			SourceAudio: audioFilename,
			Title:       "Transcript",
			Text:        transcript,
			Tags:        []string{"transcript", ProjectTag(rec.Project)},
		})
		if err != nil {
			return nil, err
		}
		name, collided, err := WriteExclusive(w.transcriptDir(), base+"_transcript", now, data)
		if err != nil {
			return nil, fmt.Errorf("writing transcript artifact: %w", err)
		}
		if collided {
			w.logger.Info("transcript name taken, disambiguated", "name", name)
		}
		handle.TranscriptPath = filepath.Join(w.transcriptDir(), name)
		link = path.Join(filepath.ToSlash(w.cfg.TranscriptFolder), name)
	}

	data, err := renderDaily(dailyView{
		Date:           dateStr,
		Record:         rec,
		SourceAudio:    audioFilename,
		Generated:      now.Format("2006-01-02 15:04:05"),
		TranscriptLink: link,
	})
	if err != nil {
		w.discardTranscript(handle)
		return nil, err
	}

	name, collided, err := WriteExclusive(w.cfg.DailyDir, base, now, data)
	if err != nil {
		w.discardTranscript(handle)
		return nil, fmt.Errorf("writing daily document: %w", err)
	}
	if collided {
		w.logger.Info("daily document name taken, disambiguated", "name", name, "project", rec.Project)
	}

	handle.Name = name
	handle.Path = filepath.Join(w.cfg.DailyDir, name)
	handle.Collided = collided
	return handle, nil
}

// discardTranscript removes a transcript artifact whose daily document was
// never written, so no orphan is left behind.
func (w *Writer) discardTranscript(handle *domain.DocumentHandle) {
	if handle.TranscriptPath == "" {
		return
	}
	if err := os.Remove(handle.TranscriptPath); err != nil {
		w.logger.Warn("could not remove orphaned transcript", "path", handle.TranscriptPath, "error", err)
	}
	handle.TranscriptPath = ""
}

// WriteTranscriptOnly saves the transcript of a todo-only run as
// <date>_TodoExtract_<project>.md in the transcripts area and returns its
// path. It is written regardless of SaveTranscript.
func (w *Writer) WriteTranscriptOnly(ctx context.Context, transcript string, date time.Time, projectName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dateStr := date.Format(domain.DateLayout)
	data, err := renderTranscript(transcriptView{
		Date:    dateStr,
		Project: projectName,
		Title:   "Todo Extract Transcript",
		Text:    transcript,
		Tags:    []string{"transcript", "todo-extract", ProjectTag(projectName)},
	})
	if err != nil {
		return "", err
	}

	name, _, err := WriteExclusive(w.transcriptDir(), dateStr+"_TodoExtract_"+project.FileSafe(projectName), w.now(), data)
	if err != nil {
		return "", fmt.Errorf("writing todo extract transcript: %w", err)
	}
	return filepath.Join(w.transcriptDir(), name), nil
}
