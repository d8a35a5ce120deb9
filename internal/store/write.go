package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/sofer"
)

// ErrEmptyName is returned when saving under an empty name.
var ErrEmptyName = errors.New("snapshot name must not be empty")

// Save stores doc as the next revision of name and returns that revision.
// Revisions of a name start at 1.
//
// Only raw text is stored; evaluated text is recomputed after loading.
func (s *Store) Save(ctx context.Context, name string, doc *node.Tree) (int, error) {
	if name == "" {
		return 0, ErrEmptyName
	}

	content := sofer.Serialize(doc, node.RawText)
	count := doc.Len()
	if doc.ID == uuid.Nil {
		count--
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("save snapshot %q: %w", name, err)
	}
	defer tx.Rollback()

	var latest int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(revision), 0) FROM snapshots WHERE name = ?
	`, name).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("save snapshot %q: %w", name, err)
	}

	revision := latest + 1
	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (name, revision, content, node_count, digest, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		name,
		revision,
		content,
		count,
		Digest(content),
		s.clock.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("save snapshot %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("save snapshot %q: %w", name, err)
	}

	s.logger.Debug("snapshot saved", "name", name, "revision", revision, "nodes", count)
	return revision, nil
}
