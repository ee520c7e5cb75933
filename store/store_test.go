package store

import (
	"os"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/catalog"
)

// failingCreateFS fails every Create call.
type failingCreateFS struct {
	billy.Filesystem
}

func (f failingCreateFS) Create(string) (billy.File, error) {
	return nil, os.ErrPermission
}

func testSnapshot() *catalog.Snapshot {
	updated := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	snapshot := catalog.NewSnapshot()
	snapshot.LastCatalogUpdate = &updated
	snapshot.Entries = []catalog.Entry{
		catalog.NewEntry(catalog.RawCatalogEntry{Title: "AB", Reference: "https://github.com/a/b"}),
	}
	snapshot.StarCache = catalog.StarCache{"a/b": 5}
	catalog.Reconcile(snapshot.Entries, snapshot.StarCache, nil)
	return snapshot
}

func TestFileStore_LoadMissing(t *testing.T) {
	t.Parallel()

	s := New(memfs.New())

	snapshot, err := s.Load()

	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	s := New(fs)
	want := testSnapshot()

	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = fs.Stat(DefaultFile + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")
}

func TestFileStore_FromCacheNotPersisted(t *testing.T) {
	t.Parallel()

	s := New(memfs.New())
	snapshot := testSnapshot()
	snapshot.FromCache = true

	require.NoError(t, s.Save(snapshot))

	got, err := s.Load()
	require.NoError(t, err)
	assert.False(t, got.FromCache)
}

func TestFileStore_NestedPath(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	s := New(fs, WithPath("data/catalog/snapshot.json"))

	require.NoError(t, s.Save(testSnapshot()))

	_, err := fs.Stat("data/catalog/snapshot.json")
	require.NoError(t, err)
	assert.Equal(t, "data/catalog/snapshot.json", s.Path())
}

func TestFileStore_LoadDefaults(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, DefaultFile, []byte(`{"plugins": [{"title": "x", "reference": "https://github.com/o/x"}]}`), 0o644))

	snapshot, err := New(fs).Load()
	require.NoError(t, err)

	assert.Equal(t, catalog.SnapshotVersion, snapshot.Version)
	assert.Nil(t, snapshot.LastCatalogUpdate)
	assert.Nil(t, snapshot.LastStarsUpdate)
	assert.NotNil(t, snapshot.StarCache)
	require.Len(t, snapshot.Entries, 1)
	assert.Equal(t, "x", snapshot.Entries[0].Title)
}

func TestFileStore_LoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		wantCode errors.ErrorCode
	}{
		{name: "invalid json", content: `{"plugins": [`, wantCode: catalog.CodeStoreCorrupt},
		{name: "wrong shape", content: `{"plugins": "nope"}`, wantCode: catalog.CodeStoreCorrupt},
		{name: "unknown version", content: `{"version": "99", "plugins": []}`, wantCode: catalog.CodeStoreCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := memfs.New()
			require.NoError(t, util.WriteFile(fs, DefaultFile, []byte(tt.content), 0o644))

			snapshot, err := New(fs).Load()

			require.Error(t, err)
			assert.Nil(t, snapshot)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))
		})
	}
}

func TestFileStore_SaveErrors(t *testing.T) {
	t.Parallel()

	t.Run("nil snapshot", func(t *testing.T) {
		t.Parallel()

		err := New(memfs.New()).Save(nil)

		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	})

	t.Run("create fails and previous snapshot survives", func(t *testing.T) {
		t.Parallel()

		fs := memfs.New()
		previous := testSnapshot()
		require.NoError(t, New(fs).Save(previous))

		next := testSnapshot()
		next.StarCache = catalog.StarCache{"a/b": 900}
		err := New(failingCreateFS{Filesystem: fs}).Save(next)

		require.Error(t, err)
		assert.Equal(t, catalog.CodeStoreWriteFailed, errors.GetCode(err))

		got, err := New(fs).Load()
		require.NoError(t, err)
		assert.Equal(t, 5, got.StarCache["a/b"])
	})
}
