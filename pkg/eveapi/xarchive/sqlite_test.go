package xarchive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
	"github.com/omeyang/xeveapi/pkg/util/xfile"
)

func openTestSQLite(t *testing.T, opts ...Option) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "archive.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSQLite_Errors(t *testing.T) {
	_, err := OpenSQLite("")
	assert.ErrorIs(t, err, xfile.ErrEmptyPath)
	_, err = NewSQLite(nil)
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestSQLite_SaveLatest(t *testing.T) {
	ctx := context.Background()
	clock := fixedTime
	s := openTestSQLite(t, WithClock(func() time.Time { return clock }))

	id := testIdentity()
	_, err := s.Latest(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, id, []byte("<first/>")))
	clock = clock.Add(time.Minute)
	require.NoError(t, s.Save(ctx, id, []byte(sheetXML)))
	require.NoError(t, s.Save(ctx, xapi.Identity{Scope: "eve", Method: "ServerStatus"}, []byte("<x/>")))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	rec, err := s.Latest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sheetXML, string(rec.Body))
	assert.Equal(t, id.Key(), rec.Key)
	assert.Equal(t, "42", rec.KeyID)
	assert.Equal(t, "char", rec.Scope)
	assert.Equal(t, "CharacterSheet", rec.Method)
	assert.Equal(t, xapi.Params{"characterID": "90000001"}, rec.Params)
	assert.Equal(t, fixedTime.Add(time.Minute), rec.ArchivedAt)
}

func TestSQLite_ReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "archive.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, testIdentity(), []byte(sheetXML)))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSQLite_ClosedDB(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorContains(t, s.Save(ctx, testIdentity(), []byte(sheetXML)), "xarchive: insert")
	_, err = s.Count(ctx)
	assert.Error(t, err)
}
