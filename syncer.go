package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/catalog/internal/logging"
)

// Syncer composes the store, the feeds and the star fetcher into the catalog
// operations. A Syncer holds no catalog state between calls: every call loads
// the snapshot, mutates it in memory and persists it at the end.
//
// Syncer does not coordinate concurrent writers. Callers must ensure that at
// most one GetCatalog refresh, RefreshStars or RefreshKeys call is in flight
// for a given Store.
type Syncer struct {
	store     Store
	feed      FeedFetcher
	stars     StarFetcher
	installed InstalledSet

	ttl            time.Duration
	refreshTimeout time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

// NewSyncer creates a Syncer.
//
// Example:
//
//	syncer, err := catalog.NewSyncer(fileStore, feedFetcher, batchFetcher,
//	    catalog.WithInstalledSet(installed),
//	    catalog.WithTTL(time.Hour),
//	)
func NewSyncer(store Store, feed FeedFetcher, stars StarFetcher, opts ...Option) (*Syncer, error) {
	if store == nil {
		return nil, errors.WithContext(errors.New(errors.CodeInvalidInput, "store cannot be nil"), "field", "store")
	}
	if feed == nil {
		return nil, errors.WithContext(errors.New(errors.CodeInvalidInput, "feed fetcher cannot be nil"), "field", "feed")
	}
	if stars == nil {
		return nil, errors.WithContext(errors.New(errors.CodeInvalidInput, "star fetcher cannot be nil"), "field", "stars")
	}

	s := &Syncer{
		store:  store,
		feed:   feed,
		stars:  stars,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logging.NewNopLogger(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// GetCatalog returns the catalog, serving the persisted snapshot when it is
// fresh and non-empty, and refreshing it from the remote feeds otherwise.
//
// On a cache hit IsInstalled and the star fields are recomputed from the
// current star cache and no network call is made. On a refresh the primary
// feed is mandatory (CodeCatalogUnavailable on failure) while a secondary
// feed failure degrades to an empty precomputed map.
//
// If persisting a refreshed snapshot fails, the refreshed snapshot is still
// returned together with a CodeInternal error wrapping the store error.
func (s *Syncer) GetCatalog(ctx context.Context, forceRefresh bool) (*Snapshot, error) {
	start := time.Now()
	snapshot := s.load(ctx)

	if !snapshot.IsEmpty() && IsFresh(snapshot.LastCatalogUpdate, s.ttl, forceRefresh, s.now()) {
		markInstalled(snapshot.Entries, s.installedSet(ctx))
		Reconcile(snapshot.Entries, snapshot.StarCache, nil)
		snapshot.FromCache = true

		stats := snapshot.Stats()
		s.logger.InfoContext(ctx, "serving catalog from cache",
			"entries", len(snapshot.Entries),
			"stars_local", stats.Local,
			"stars_manager", stats.Manager,
			"stars_none", stats.None,
		)
		return snapshot, nil
	}

	raw, err := s.feed.FetchCatalog(ctx)
	if err != nil {
		err = newCatalogUnavailableError(err)
		logging.LogOperation(ctx, s.logger, "get_catalog", time.Since(start), err)
		return nil, err
	}

	precomputed, err := s.feed.FetchPrecomputedStars(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "precomputed stars unavailable, using local star cache only", "error", err)
		precomputed = StarCache{}
	}

	entries, duplicates := buildEntries(raw)
	if duplicates > 0 {
		s.logger.WarnContext(ctx, "dropped catalog entries with duplicate plugin names", "duplicates", duplicates)
	}
	markInstalled(entries, s.installedSet(ctx))
	Reconcile(entries, snapshot.StarCache, precomputed)

	// Precomputed values only fill gaps; known local values always win.
	starCache := snapshot.StarCache.Clone()
	for key, stars := range precomputed {
		if _, ok := starCache[key]; !ok {
			starCache[key] = stars
		}
	}

	now := s.now()
	next := &Snapshot{
		Version:           SnapshotVersion,
		LastCatalogUpdate: &now,
		LastStarsUpdate:   snapshot.LastStarsUpdate,
		Entries:           entries,
		StarCache:         starCache,
	}

	stats := next.Stats()
	if err := s.store.Save(next); err != nil {
		err = newPersistError(err)
		logging.LogOperation(ctx, s.logger, "get_catalog", time.Since(start), err)
		return next, err
	}

	logging.LogOperation(ctx, s.logger, "get_catalog", time.Since(start), nil,
		"entries", len(entries),
		"precomputed", len(precomputed),
		"stars_local", stats.Local,
		"stars_manager", stats.Manager,
		"stars_none", stats.None,
	)
	return next, nil
}

// RefreshStars refreshes star counts for the catalog's repositories.
//
// Unless forceFull is set only repositories whose cached value is zero are
// fetched. The fetch stops early when the remote API throttles or when the
// configured refresh timeout expires; in both cases the partial results are
// merged and persisted and the report describes how far the run got.
//
// Returns a CodeNoCatalog error if no catalog has been fetched yet. If
// persisting fails, the report is returned together with a CodeInternal error.
func (s *Syncer) RefreshStars(ctx context.Context, forceFull bool) (*RefreshReport, error) {
	start := time.Now()

	snapshot := s.load(ctx)
	if snapshot.IsEmpty() {
		return nil, newNoCatalogError()
	}

	work := starWorkList(snapshot, forceFull)
	if len(work) == 0 {
		s.logger.InfoContext(ctx, "no repositories need a star refresh", "force_full", forceFull)
		return &RefreshReport{Elapsed: time.Since(start)}, nil
	}

	s.logger.InfoContext(ctx, "refreshing stars",
		"force_full", forceFull,
		"repositories", len(snapshot.RepoKeys()),
		"work", len(work),
	)

	known := snapshot.StarCache
	if forceFull {
		known = nil
	}

	if s.refreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.refreshTimeout)
		defer cancel()
	}

	result, err := s.stars.FetchStars(ctx, work, known)
	if err != nil {
		return nil, errors.Wrap(err, CodeInternal, "star fetch failed")
	}

	mergeStars(snapshot.StarCache, result.Updated)
	Reconcile(snapshot.Entries, snapshot.StarCache, nil)
	now := s.now()
	snapshot.LastStarsUpdate = &now

	report := &RefreshReport{
		Attempted: result.Attempted,
		Succeeded: result.Succeeded,
		Cached:    result.Cached,
		Failed:    result.Failed,
		Remaining: result.Remaining,
		Throttled: result.Throttled,
		TimedOut:  result.Canceled,
	}

	err = s.store.Save(snapshot)
	report.Elapsed = time.Since(start)
	if err != nil {
		err = newPersistError(err)
	}

	logging.LogOperation(ctx, s.logger, "refresh_stars", report.Elapsed, err,
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"remaining", report.Remaining,
		"throttled", report.Throttled,
		"timed_out", report.TimedOut,
		"star_cache", len(snapshot.StarCache),
	)
	return report, err
}

// RefreshKeys fetches star counts for an explicit list of repositories, as
// used for lazily filling in entries a client is about to display. Keys with a
// positive cached value are not fetched. The snapshot is persisted only if at
// least one value was fetched.
//
// The report's Results holds, for every requested key, the fetched value or
// the last known one.
func (s *Syncer) RefreshKeys(ctx context.Context, keys []RepoKey) (*KeysReport, error) {
	if len(keys) == 0 {
		return nil, errors.WithContext(errors.New(errors.CodeInvalidInput, "no repository keys provided"), "field", "repo_keys")
	}

	snapshot := s.load(ctx)
	if snapshot.IsEmpty() {
		return nil, newNoCatalogError()
	}

	keys = dedupeKeys(keys)
	result, err := s.stars.FetchStars(ctx, keys, snapshot.StarCache)
	if err != nil {
		return nil, errors.Wrap(err, CodeInternal, "star fetch failed")
	}

	report := &KeysReport{
		Results:   make(StarCache, len(keys)),
		Updated:   len(result.Updated),
		Total:     len(keys),
		Throttled: result.Throttled,
	}
	for _, key := range keys {
		if stars, ok := result.Updated[key]; ok {
			report.Results[key] = stars
			continue
		}
		report.Results[key] = snapshot.StarCache[key]
	}

	if report.Updated == 0 {
		return report, nil
	}

	mergeStars(snapshot.StarCache, result.Updated)
	Reconcile(snapshot.Entries, snapshot.StarCache, nil)
	if err := s.store.Save(snapshot); err != nil {
		return report, newPersistError(err)
	}

	s.logger.InfoContext(ctx, "updated stars for requested repositories",
		"requested", report.Total,
		"updated", report.Updated,
	)
	return report, nil
}

// load reads the persisted snapshot. Read failures are logged and treated as
// an empty snapshot with no catalog timestamp.
func (s *Syncer) load(ctx context.Context) *Snapshot {
	snapshot, err := s.store.Load()
	if err != nil {
		s.logger.WarnContext(ctx, "ignoring unreadable catalog snapshot",
			"code", errors.GetCode(err),
			"error", err,
		)
		return NewSnapshot()
	}
	if snapshot == nil {
		return NewSnapshot()
	}
	if snapshot.StarCache == nil {
		snapshot.StarCache = StarCache{}
	}
	return snapshot
}

// installedSet returns the installed set to use for one call. Snapshot
// failures are logged and mark nothing installed.
func (s *Syncer) installedSet(ctx context.Context) InstalledSet {
	snapshotter, ok := s.installed.(InstalledSnapshotter)
	if !ok {
		return s.installed
	}

	set, err := snapshotter.Snapshot()
	if err != nil {
		s.logger.WarnContext(ctx, "failed to list installed extensions", "error", err)
		return nil
	}
	return set
}

// starWorkList returns the distinct repository keys that need a star fetch:
// all of them when forceFull is set, otherwise those whose cached value is
// zero or missing.
func starWorkList(snapshot *Snapshot, forceFull bool) []RepoKey {
	keys := snapshot.RepoKeys()
	if forceFull {
		return keys
	}

	work := make([]RepoKey, 0, len(keys))
	for _, key := range keys {
		if snapshot.StarCache[key] == 0 {
			work = append(work, key)
		}
	}
	return work
}

// buildEntries converts the raw feed into entries. Plugin names are unique
// within a snapshot: the first entry with a given name wins and the number of
// dropped entries is returned.
func buildEntries(raw []RawCatalogEntry) ([]Entry, int) {
	seen := make(map[string]struct{}, len(raw))
	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		entry := NewEntry(r)
		if _, ok := seen[entry.PluginName]; ok {
			continue
		}
		seen[entry.PluginName] = struct{}{}
		entries = append(entries, entry)
	}
	return entries, len(raw) - len(entries)
}

func mergeStars(dst StarCache, updated StarCache) {
	for key, stars := range updated {
		dst[key] = stars
	}
}

func dedupeKeys(keys []RepoKey) []RepoKey {
	seen := make(map[RepoKey]struct{}, len(keys))
	out := make([]RepoKey, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
