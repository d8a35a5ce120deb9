package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/sofer"
	"github.com/roach88/sofer/internal/testutil"
	"github.com/roach88/sofer/internal/tree"
)

const outline = "00000000-0000-0000-0000-000000000001 00000000-0000-0000-0000-000000000000 done=F; Groceries\n" +
	"00000000-0000-0000-0000-000000000002 00000000-0000-0000-0000-000000000001 qty=2; Apples @ 1 + 1\n"

// createTestStore opens a file-backed store with a deterministic clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(testutil.NewDeterministicClock()))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func parseOutline(t *testing.T) *node.Tree {
	t.Helper()
	doc, err := sofer.Parse(outline)
	require.NoError(t, err)
	return doc
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var name string
	err = s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='snapshots'").Scan(&name)
	if err != nil {
		t.Errorf("snapshots table not found after idempotent opens: %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	rev, err := s.Save(context.Background(), "scratch", parseOutline(t))
	require.NoError(t, err)
	assert.Equal(t, 1, rev)

	_, _, err = s.Load(context.Background(), "scratch", 0)
	assert.NoError(t, err, "the single connection keeps the memory database alive")
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"foreign_keys": "1",
		"user_version": "2",
	} {
		if err := s.verifyPragma(name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestMigration_AddsIndex(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_snapshots_name_revision'",
	).Scan(&name)
	require.NoError(t, err)
}

func TestMigration_AddsDigestToV1Database(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v1.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT    NOT NULL,
			revision    INTEGER NOT NULL,
			content     TEXT    NOT NULL,
			node_count  INTEGER NOT NULL,
			created_at  INTEGER NOT NULL,
			UNIQUE(name, revision)
		);
		PRAGMA user_version = 1;
	`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO snapshots (name, revision, content, node_count, created_at) VALUES (?, 1, ?, 2, 0)`, "old", outline)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.verifyPragma("user_version", "2"))

	_, snap, err := s.Load(context.Background(), "old", 1)
	require.NoError(t, err, "rows without a digest load unchecked")
	assert.Empty(t, snap.Digest)
}

func TestSave_AssignsIncreasingRevisions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := parseOutline(t)

	for want := 1; want <= 3; want++ {
		rev, err := s.Save(ctx, "groceries", doc)
		require.NoError(t, err)
		assert.Equal(t, want, rev)
	}

	rev, err := s.Save(ctx, "other", doc)
	require.NoError(t, err)
	assert.Equal(t, 1, rev, "revisions are counted per name")
}

func TestSave_EmptyName(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Save(context.Background(), "", parseOutline(t))
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestSave_UniqueRevision(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Save(context.Background(), "doc", parseOutline(t))
	require.NoError(t, err)

	_, err = s.db.Exec(`INSERT INTO snapshots (name, revision, content, node_count, created_at) VALUES ('doc', 1, '', 0, 0)`)
	assert.Error(t, err, "UNIQUE(name, revision) rejects a second revision 1")
}

func TestLoad_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	doc := parseOutline(t)
	doc.Find(testutil.ID(2)).Value.SetEvaled("Apples 2")
	_, err := s.Save(ctx, "groceries", doc)
	require.NoError(t, err)

	loaded, snap, err := s.Load(ctx, "groceries", 1)
	require.NoError(t, err)

	assert.Equal(t, outline, sofer.Serialize(loaded, node.RawText))
	assert.Nil(t, loaded.Find(testutil.ID(2)).Value.Evaled, "evaluated text is not stored")
	assert.Equal(t, Snapshot{
		Name:      "groceries",
		Revision:  1,
		NodeCount: 2,
		Digest:    Digest(outline),
		CreatedAt: testutil.Epoch,
	}, snap)
}

func TestLoad_LatestAndSpecificRevision(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	doc := parseOutline(t)
	_, err := s.Save(ctx, "groceries", doc)
	require.NoError(t, err)

	doc.Insert(testutil.ID(1), tree.NewWithID(testutil.ID(3), node.New("Cheese")))
	_, err = s.Save(ctx, "groceries", doc)
	require.NoError(t, err)

	latest, snap, err := s.Load(ctx, "groceries", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Revision)
	assert.Equal(t, 3, snap.NodeCount)
	assert.NotNil(t, latest.Find(testutil.ID(3)))

	first, snap, err := s.Load(ctx, "groceries", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Revision)
	assert.Nil(t, first.Find(testutil.ID(3)))
}

func TestLoad_NotFound(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, _, err := s.Load(ctx, "missing", 0)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Save(ctx, "present", parseOutline(t))
	require.NoError(t, err)

	_, _, err = s.Load(ctx, "present", 7)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "revision 7")
}

func TestLoad_CorruptContent(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`INSERT INTO snapshots (name, revision, content, node_count, created_at) VALUES ('bad', 1, 'not a record', 1, 0)`)
	require.NoError(t, err)

	_, _, err = s.Load(context.Background(), "bad", 0)
	var perr *sofer.ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestLoad_DigestMismatch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "groceries", parseOutline(t))
	require.NoError(t, err)

	_, err = s.db.Exec(`UPDATE snapshots SET content = replace(content, 'Apples', 'Pears')`)
	require.NoError(t, err)

	_, _, err = s.Load(ctx, "groceries", 0)
	assert.ErrorIs(t, err, ErrDigestMismatch)
}

func TestDigest(t *testing.T) {
	assert.Len(t, Digest(outline), 64)
	assert.Equal(t, Digest(outline), Digest(outline))
	assert.NotEqual(t, Digest(outline), Digest(outline+" "))

	plain := sha256.Sum256([]byte(outline))
	assert.NotEqual(t, hex.EncodeToString(plain[:]), Digest(outline), "digest is domain separated")
}

func TestList_LatestPerName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := parseOutline(t)

	for _, name := range []string{"zeta", "alpha", "zeta", "mid"} {
		_, err := s.Save(ctx, name, doc)
		require.NoError(t, err)
	}

	snaps, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	assert.Equal(t, "alpha", snaps[0].Name)
	assert.Equal(t, "mid", snaps[1].Name)
	assert.Equal(t, "zeta", snaps[2].Name)
	assert.Equal(t, 2, snaps[2].Revision)
	assert.Equal(t, testutil.Epoch.Add(2*time.Second), snaps[2].CreatedAt)
}

func TestList_Empty(t *testing.T) {
	s := createTestStore(t)

	snaps, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := parseOutline(t)

	for i := 0; i < 3; i++ {
		_, err := s.Save(ctx, "groceries", doc)
		require.NoError(t, err)
	}

	snaps, err := s.History(ctx, "groceries")
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	for i, snap := range snaps {
		assert.Equal(t, i+1, snap.Revision)
	}
}
