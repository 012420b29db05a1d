package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexanderramin/daylog/internal/domain"
)

// ErrTranscriptionFailed is returned when a source file cannot be turned
// into a usable transcript.
var ErrTranscriptionFailed = errors.New("transcription failed")

// Transcriber turns a source file into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (*domain.Transcript, error)
	// Supports reports whether path has a format the transcriber accepts.
	Supports(path string) bool
}

// Bounds rejects transcripts that are too short or too long. Zero values
// disable a bound.
type Bounds struct {
	MinWords    int
	MaxWords    int
	MinDuration time.Duration
	MaxDuration time.Duration
}

func (b Bounds) check(t *domain.Transcript) error {
	words := len(strings.Fields(t.Text))
	switch {
	case words == 0:
		return fmt.Errorf("%w: transcript is empty", ErrTranscriptionFailed)
	case b.MinWords > 0 && words < b.MinWords:
		return fmt.Errorf("%w: transcript too short: %d words (minimum: %d)", ErrTranscriptionFailed, words, b.MinWords)
	case b.MaxWords > 0 && words > b.MaxWords:
		return fmt.Errorf("%w: transcript too long: %d words (maximum: %d)", ErrTranscriptionFailed, words, b.MaxWords)
	}
	if t.Duration <= 0 {
		return nil
	}
	switch {
	case b.MinDuration > 0 && t.Duration < b.MinDuration:
		return fmt.Errorf("%w: audio too short: %.1fs (minimum: %.0fs)", ErrTranscriptionFailed, t.Duration.Seconds(), b.MinDuration.Seconds())
	case b.MaxDuration > 0 && t.Duration > b.MaxDuration:
		return fmt.Errorf("%w: audio too long: %.1fs (maximum: %.0fs)", ErrTranscriptionFailed, t.Duration.Seconds(), b.MaxDuration.Seconds())
	}
	return nil
}

// TextTranscriber reads transcripts that already exist as text files.
type TextTranscriber struct {
	Bounds Bounds
}

var textExtensions = []string{".txt", ".md"}

func (TextTranscriber) Supports(path string) bool {
	return hasExtension(path, textExtensions)
}

func (t TextTranscriber) Transcribe(ctx context.Context, path string) (*domain.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !t.Supports(path) {
		return nil, fmt.Errorf("%w: unsupported format: %s", ErrTranscriptionFailed, filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}
	tr := &domain.Transcript{
		Text:        strings.TrimSpace(string(data)),
		SourceAudio: filepath.Base(path),
	}
	if err := t.Bounds.check(tr); err != nil {
		return nil, err
	}
	return tr, nil
}

// DefaultAudioExtensions are the formats CommandTranscriber accepts when
// none are configured.
var DefaultAudioExtensions = []string{".mp3", ".wav", ".m4a", ".aac", ".ogg", ".flac"}

// CommandTranscriber runs an external speech-to-text command. The command
// line is split on whitespace and every "{input}" is replaced by the source
// path. Stdout is the transcript: either plain text or a JSON object with
// "text" and optional "language" and "duration" (seconds) fields.
type CommandTranscriber struct {
	Command    string
	Extensions []string
	Timeout    time.Duration
	Bounds     Bounds
}

func (c CommandTranscriber) extensions() []string {
	if len(c.Extensions) == 0 {
		return DefaultAudioExtensions
	}
	return c.Extensions
}

func (c CommandTranscriber) Supports(path string) bool {
	return hasExtension(path, c.extensions())
}

type commandOutput struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

func (c CommandTranscriber) Transcribe(ctx context.Context, path string) (*domain.Transcript, error) {
	args := strings.Fields(c.Command)
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no transcriber command configured", ErrTranscriptionFailed)
	}
	if !c.Supports(path) {
		return nil, fmt.Errorf("%w: unsupported format: %s", ErrTranscriptionFailed, filepath.Ext(path))
	}
	for i, a := range args {
		args[i] = strings.ReplaceAll(a, "{input}", path)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrTranscriptionFailed, ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrTranscriptionFailed, args[0], msg)
	}

	tr := &domain.Transcript{SourceAudio: filepath.Base(path)}
	out := bytes.TrimSpace(stdout.Bytes())
	var parsed commandOutput
	if bytes.HasPrefix(out, []byte("{")) && json.Unmarshal(out, &parsed) == nil {
		tr.Text = strings.TrimSpace(parsed.Text)
		tr.Language = parsed.Language
		tr.Duration = time.Duration(parsed.Duration * float64(time.Second))
	} else {
		tr.Text = string(out)
	}
	if err := c.Bounds.check(tr); err != nil {
		return nil, err
	}
	return tr, nil
}

// Chain dispatches each file to the first transcriber that supports it.
type Chain []Transcriber

func (c Chain) Supports(path string) bool {
	return c.pick(path) != nil
}

func (c Chain) Transcribe(ctx context.Context, path string) (*domain.Transcript, error) {
	t := c.pick(path)
	if t == nil {
		return nil, fmt.Errorf("%w: unsupported format: %s", ErrTranscriptionFailed, filepath.Ext(path))
	}
	return t.Transcribe(ctx, path)
}

func (c Chain) pick(path string) Transcriber {
	for _, t := range c {
		if t.Supports(path) {
			return t
		}
	}
	return nil
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
