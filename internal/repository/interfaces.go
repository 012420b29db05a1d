// Package repository persists whole-document artifacts such as per-project
// todo lists. Callers read a document, transform it in memory and replace it
// in one atomic step.
package repository

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidKey is returned for keys that are empty, absolute or escape
	// the repository root.
	ErrInvalidKey = errors.New("invalid artifact key")
	ErrNotFound   = errors.New("not found")
)

// ArtifactRepo stores documents addressed by slash-separated keys such as
// "Project X/todo.md".
type ArtifactRepo interface {
	// ReadAll returns the current content; a missing artifact is empty.
	ReadAll(ctx context.Context, key string) ([]byte, error)
	// AtomicReplace swaps the content in one step. Readers observe either
	// the old or the new content, never a partial write.
	AtomicReplace(ctx context.Context, key string, data []byte) error
}

// Revision is a previous version of an artifact kept by stores that
// track history.
type Revision struct {
	Key        string
	Revision   int
	SizeBytes  int
	ReplacedAt time.Time
}

// HistoryRepo is implemented by stores that keep replaced versions.
type HistoryRepo interface {
	Revisions(ctx context.Context, key string) ([]Revision, error)
	ReadRevision(ctx context.Context, key string, revision int) ([]byte, error)
}
