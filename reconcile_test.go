package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type installedNames map[string]bool

func (n installedNames) Contains(name string) bool {
	return n[name]
}

func scenarioEntries() []Entry {
	return []Entry{
		NewEntry(RawCatalogEntry{Title: "AB", Reference: "https://github.com/a/b"}),
		NewEntry(RawCatalogEntry{Title: "CD", Reference: "https://github.com/c/d.git"}),
		NewEntry(RawCatalogEntry{Title: "Local Pack", Reference: "https://example.com/pack.zip"}),
	}
}

func TestReconcile_Scenario(t *testing.T) {
	t.Parallel()

	entries := Reconcile(scenarioEntries(), StarCache{"a/b": 5}, StarCache{"c/d": 12})
	require.Len(t, entries, 3)

	assert.Equal(t, 5, entries[0].Stars)
	assert.Equal(t, SourceLocal, entries[0].StarsSource)

	assert.Equal(t, 12, entries[1].Stars)
	assert.Equal(t, SourceManager, entries[1].StarsSource)

	assert.False(t, entries[2].HasRepoKey())
	assert.Equal(t, 0, entries[2].Stars)
	assert.Equal(t, SourceNone, entries[2].StarsSource)
}

func TestReconcile_Precedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		starCache   StarCache
		precomputed StarCache
		wantStars   int
		wantSource  StarSource
	}{
		{name: "local beats manager", starCache: StarCache{"a/b": 7}, precomputed: StarCache{"a/b": 99}, wantStars: 7, wantSource: SourceLocal},
		{name: "zero local falls through", starCache: StarCache{"a/b": 0}, precomputed: StarCache{"a/b": 99}, wantStars: 99, wantSource: SourceManager},
		{name: "manager zero is still manager", precomputed: StarCache{"a/b": 0}, wantStars: 0, wantSource: SourceManager},
		{name: "nothing known", starCache: StarCache{"x/y": 3}, wantStars: 0, wantSource: SourceNone},
		{name: "nil maps", wantStars: 0, wantSource: SourceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entries := []Entry{NewEntry(RawCatalogEntry{Title: "AB", Reference: "https://github.com/a/b"})}
			Reconcile(entries, tt.starCache, tt.precomputed)

			assert.Equal(t, tt.wantStars, entries[0].Stars)
			assert.Equal(t, tt.wantSource, entries[0].StarsSource)
		})
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	t.Parallel()

	starCache := StarCache{"a/b": 5}
	precomputed := StarCache{"c/d": 12}

	once := Reconcile(scenarioEntries(), starCache, precomputed)
	snapshot := append([]Entry(nil), once...)
	twice := Reconcile(once, starCache, precomputed)

	assert.Equal(t, snapshot, twice)
}

func TestNewEntry(t *testing.T) {
	t.Parallel()

	t.Run("plugin name from repo key", func(t *testing.T) {
		t.Parallel()

		entry := NewEntry(RawCatalogEntry{Title: "Fancy Nodes", Reference: "https://github.com/owner/fancy-nodes.git"})

		assert.Equal(t, RepoKey("owner/fancy-nodes"), entry.RepoKey)
		assert.Equal(t, "fancy-nodes", entry.PluginName)
		assert.Equal(t, SourceNone, entry.StarsSource)
	})

	t.Run("plugin name from title", func(t *testing.T) {
		t.Parallel()

		entry := NewEntry(RawCatalogEntry{Title: "Fancy Nodes", Reference: "https://example.com/fancy.py"})

		assert.Empty(t, entry.RepoKey)
		assert.Equal(t, "Fancy Nodes", entry.PluginName)
	})

	t.Run("unknown plugin name", func(t *testing.T) {
		t.Parallel()

		entry := NewEntry(RawCatalogEntry{})

		assert.Equal(t, "Unknown", entry.PluginName)
	})
}

func TestMarkInstalled(t *testing.T) {
	t.Parallel()

	entries := scenarioEntries()
	markInstalled(entries, installedNames{"b": true, "Local Pack": true})

	assert.True(t, entries[0].IsInstalled)
	assert.False(t, entries[1].IsInstalled)
	assert.True(t, entries[2].IsInstalled)

	markInstalled(entries, nil)
	for _, entry := range entries {
		assert.False(t, entry.IsInstalled)
	}
}

func TestSnapshot_Stats(t *testing.T) {
	t.Parallel()

	snapshot := NewSnapshot()
	snapshot.Entries = Reconcile(scenarioEntries(), StarCache{"a/b": 5}, StarCache{"c/d": 12})

	stats := snapshot.Stats()
	assert.Equal(t, StarStats{Local: 1, Manager: 1, None: 1}, stats)

	for i := 0; i <= NeedsStarUpdateThreshold; i++ {
		snapshot.Entries = append(snapshot.Entries, NewEntry(RawCatalogEntry{Title: "x"}))
	}
	assert.True(t, snapshot.Stats().NeedsStarUpdate)

	var nilSnapshot *Snapshot
	assert.Equal(t, StarStats{}, nilSnapshot.Stats())
	assert.True(t, nilSnapshot.IsEmpty())
}

func TestSnapshot_RepoKeys(t *testing.T) {
	t.Parallel()

	snapshot := NewSnapshot()
	snapshot.Entries = append(scenarioEntries(),
		NewEntry(RawCatalogEntry{Title: "AB again", Reference: "https://github.com/a/b/"}),
	)

	assert.Equal(t, []RepoKey{"a/b", "c/d"}, snapshot.RepoKeys())
}
