package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/sofer"
)

// ErrNotFound is returned when no snapshot matches a name and revision.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot describes one stored revision.
type Snapshot struct {
	Name      string    `json:"name"`
	Revision  int       `json:"revision"`
	NodeCount int       `json:"node_count"`
	Digest    string    `json:"digest"`
	CreatedAt time.Time `json:"created_at"`
}

// Load parses the given revision of name. Revision 0 selects the latest.
// Returns an error wrapping ErrNotFound when nothing matches.
func (s *Store) Load(ctx context.Context, name string, revision int) (*node.Tree, Snapshot, error) {
	query := `
		SELECT name, revision, node_count, digest, created_at, content
		FROM snapshots
		WHERE name = ? AND revision = ?
	`
	args := []any{name, revision}
	if revision == 0 {
		query = `
		SELECT name, revision, node_count, digest, created_at, content
		FROM snapshots
		WHERE name = ?
		ORDER BY revision DESC
		LIMIT 1
	`
		args = []any{name}
	}

	var (
		snap      Snapshot
		createdAt int64
		content   string
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&snap.Name,
		&snap.Revision,
		&snap.NodeCount,
		&snap.Digest,
		&createdAt,
		&content,
	)
	if errors.Is(err, sql.ErrNoRows) {
		if revision == 0 {
			return nil, Snapshot{}, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, Snapshot{}, fmt.Errorf("%w: %q revision %d", ErrNotFound, name, revision)
	}
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("load snapshot %q: %w", name, err)
	}
	snap.CreatedAt = time.UnixMilli(createdAt).UTC()

	if snap.Digest != "" && snap.Digest != Digest(content) {
		return nil, Snapshot{}, fmt.Errorf("load snapshot %q revision %d: %w", name, snap.Revision, ErrDigestMismatch)
	}

	doc, err := sofer.Parse(content, sofer.WithLogger(s.logger))
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("load snapshot %q revision %d: %w", name, snap.Revision, err)
	}
	return doc, snap, nil
}

// List returns the latest revision of every name, ordered by name.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.name, s.revision, s.node_count, s.digest, s.created_at
		FROM snapshots s
		JOIN (
			SELECT name, MAX(revision) AS revision
			FROM snapshots
			GROUP BY name
		) latest ON latest.name = s.name AND latest.revision = s.revision
		ORDER BY s.name ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var (
			snap      Snapshot
			createdAt int64
		)
		if err := rows.Scan(&snap.Name, &snap.Revision, &snap.NodeCount, &snap.Digest, &createdAt); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		snap.CreatedAt = time.UnixMilli(createdAt).UTC()
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snaps, nil
}

// History returns every revision of name, oldest first.
func (s *Store) History(ctx context.Context, name string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, revision, node_count, digest, created_at
		FROM snapshots
		WHERE name = ?
		ORDER BY revision ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot history %q: %w", name, err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var (
			snap      Snapshot
			createdAt int64
		)
		if err := rows.Scan(&snap.Name, &snap.Revision, &snap.NodeCount, &snap.Digest, &createdAt); err != nil {
			return nil, fmt.Errorf("snapshot history %q: %w", name, err)
		}
		snap.CreatedAt = time.UnixMilli(createdAt).UTC()
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot history %q: %w", name, err)
	}
	return snaps, nil
}
