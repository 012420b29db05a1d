package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/daylog/internal/db"
)

// maxRevisions bounds the history kept per artifact.
const maxRevisions = 20

// SQLiteArtifactRepo implements ArtifactRepo and HistoryRepo on SQLite.
// Each replace moves the previous content into artifact_revisions within
// the same transaction.
type SQLiteArtifactRepo struct {
	db  db.DBTX
	uow db.UnitOfWork
}

// NewSQLiteArtifactRepo creates a repo on an opened database.
func NewSQLiteArtifactRepo(conn *sql.DB) *SQLiteArtifactRepo {
	return &SQLiteArtifactRepo{db: conn, uow: db.NewSQLiteUnitOfWork(conn)}
}

// NewSQLiteArtifactRepoWithUoW lets callers supply the transaction boundary.
func NewSQLiteArtifactRepoWithUoW(conn db.DBTX, uow db.UnitOfWork) *SQLiteArtifactRepo {
	return &SQLiteArtifactRepo{db: conn, uow: uow}
}

func (r *SQLiteArtifactRepo) ReadAll(ctx context.Context, key string) ([]byte, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	var content []byte
	err = r.db.QueryRowContext(ctx, `SELECT content FROM artifacts WHERE key = ?`, k).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", k, err)
	}
	return content, nil
}

func (r *SQLiteArtifactRepo) AtomicReplace(ctx context.Context, key string, data []byte) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	return r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var (
			prev    []byte
			prevRev int
		)
		err := tx.QueryRowContext(ctx, `SELECT content, revision FROM artifacts WHERE key = ?`, k).Scan(&prev, &prevRev)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("loading artifact %s: %w", k, err)
		default:
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO artifact_revisions (key, revision, content, replaced_at, size_bytes) VALUES (?, ?, ?, ?, ?)`,
				k, prevRev, prev, nowUTC(), len(prev)); err != nil {
				return fmt.Errorf("archiving revision %d of %s: %w", prevRev, k, err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO artifacts (key, content, revision, updated_at, size_bytes) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				content = excluded.content,
				revision = excluded.revision,
				updated_at = excluded.updated_at,
				size_bytes = excluded.size_bytes`,
			k, data, prevRev+1, nowUTC(), len(data)); err != nil {
			return fmt.Errorf("replacing artifact %s: %w", k, err)
		}

		if prevRev > maxRevisions {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM artifact_revisions WHERE key = ? AND revision <= ?`,
				k, prevRev-maxRevisions); err != nil {
				return fmt.Errorf("pruning revisions of %s: %w", k, err)
			}
		}
		return nil
	})
}

// Revisions lists the kept history of key, newest first.
func (r *SQLiteArtifactRepo) Revisions(ctx context.Context, key string) ([]Revision, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT revision, size_bytes, replaced_at FROM artifact_revisions WHERE key = ? ORDER BY revision DESC`, k)
	if err != nil {
		return nil, fmt.Errorf("listing revisions of %s: %w", k, err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var (
			rev        Revision
			replacedAt string
		)
		if err := rows.Scan(&rev.Revision, &rev.SizeBytes, &replacedAt); err != nil {
			return nil, fmt.Errorf("scanning revision: %w", err)
		}
		rev.Key = k
		rev.ReplacedAt = parseTime(replacedAt)
		out = append(out, rev)
	}
	return out, rows.Err()
}

// ReadRevision returns the content of a kept revision.
func (r *SQLiteArtifactRepo) ReadRevision(ctx context.Context, key string, revision int) ([]byte, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	var content []byte
	err = r.db.QueryRowContext(ctx,
		`SELECT content FROM artifact_revisions WHERE key = ? AND revision = ?`, k, revision).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("revision %d of %s: %w", revision, k, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading revision %d of %s: %w", revision, k, err)
	}
	return content, nil
}

var (
	_ ArtifactRepo = (*FileArtifactRepo)(nil)
	_ ArtifactRepo = (*SQLiteArtifactRepo)(nil)
	_ HistoryRepo  = (*SQLiteArtifactRepo)(nil)
)
