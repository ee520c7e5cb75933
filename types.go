package catalog

import (
	"strings"
	"time"
)

// SnapshotVersion is the persisted snapshot format version.
const SnapshotVersion = "1"

// NeedsStarUpdateThreshold is the number of entries without any star data
// above which a snapshot reports that a star refresh is advisable.
const NeedsStarUpdateThreshold = 100

// RepoKey is the canonical owner/repo identifier of a hosted repository.
type RepoKey string

// Owner returns the owner part of the key.
func (k RepoKey) Owner() string {
	owner, _, _ := strings.Cut(string(k), "/")
	return owner
}

// Name returns the repository part of the key.
func (k RepoKey) Name() string {
	_, name, _ := strings.Cut(string(k), "/")
	return name
}

// String implements fmt.Stringer.
func (k RepoKey) String() string {
	return string(k)
}

// StarSource records where an entry's star count came from.
type StarSource string

const (
	// SourceLocal means the value came from the local StarCache.
	SourceLocal StarSource = "local"

	// SourceManager means the value came from the precomputed secondary feed.
	SourceManager StarSource = "manager"

	// SourceNone means no popularity data is known.
	SourceNone StarSource = "none"
)

// StarCache maps repository keys to their last known star count.
type StarCache map[RepoKey]int

// Clone returns a copy of the cache. A nil cache clones to an empty one.
func (c StarCache) Clone() StarCache {
	out := make(StarCache, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Known reports whether key has a positive cached value.
func (c StarCache) Known(key RepoKey) bool {
	return c[key] > 0
}

// RawCatalogEntry is one element of the primary catalog feed.
type RawCatalogEntry struct {
	Title       string   `json:"title"`
	Reference   string   `json:"reference"`
	Description string   `json:"description,omitempty"`
	Author      string   `json:"author,omitempty"`
	InstallType string   `json:"install_type,omitempty"`
	Files       []string `json:"files,omitempty"`
}

// Entry is a catalog entry enriched with popularity and install state.
type Entry struct {
	PluginName  string     `json:"plugin_name"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Reference   string     `json:"reference"`
	Author      string     `json:"author,omitempty"`
	InstallType string     `json:"install_type,omitempty"`
	Files       []string   `json:"files,omitempty"`
	RepoKey     RepoKey    `json:"repo_key,omitempty"`
	Stars       int        `json:"stars"`
	StarsSource StarSource `json:"stars_source"`
	IsInstalled bool       `json:"is_installed"`
}

// HasRepoKey reports whether the entry's reference resolved to a RepoKey.
func (e *Entry) HasRepoKey() bool {
	return e.RepoKey != ""
}

// NewEntry builds an Entry from a raw feed element, resolving its RepoKey and
// plugin name. Stars and install state are left for the caller to assign.
func NewEntry(raw RawCatalogEntry) Entry {
	entry := Entry{
		Title:       raw.Title,
		Description: raw.Description,
		Reference:   raw.Reference,
		Author:      raw.Author,
		InstallType: raw.InstallType,
		Files:       raw.Files,
		StarsSource: SourceNone,
	}

	if key, ok := ResolveRepoKey(raw.Reference); ok {
		entry.RepoKey = key
		entry.PluginName = key.Name()
	} else {
		entry.PluginName = raw.Title
	}
	if entry.PluginName == "" {
		entry.PluginName = "Unknown"
	}

	return entry
}

// Snapshot is the unit of persistence: the catalog entries, the star cache
// and the timestamps of the last catalog and star refreshes.
type Snapshot struct {
	Version           string     `json:"version"`
	LastCatalogUpdate *time.Time `json:"last_update,omitempty"`
	LastStarsUpdate   *time.Time `json:"last_stars_update,omitempty"`
	Entries           []Entry    `json:"plugins"`
	StarCache         StarCache  `json:"stars_db"`

	// FromCache is set by Syncer.GetCatalog when the snapshot was served
	// without a network refresh. It is never persisted.
	FromCache bool `json:"-"`
}

// NewSnapshot returns an empty snapshot with an initialized star cache.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version:   SnapshotVersion,
		Entries:   []Entry{},
		StarCache: StarCache{},
	}
}

// IsEmpty reports whether the snapshot holds no catalog entries.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Entries) == 0
}

// RepoKeys returns the distinct resolvable repository keys of the snapshot's
// entries, in first-seen order.
func (s *Snapshot) RepoKeys() []RepoKey {
	seen := make(map[RepoKey]struct{}, len(s.Entries))
	keys := make([]RepoKey, 0, len(s.Entries))
	for i := range s.Entries {
		key := s.Entries[i].RepoKey
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// StarStats counts entries by star provenance.
type StarStats struct {
	Local           int  `json:"local"`
	Manager         int  `json:"manager"`
	None            int  `json:"none"`
	NeedsStarUpdate bool `json:"need_update_stars"`
}

// Stats returns the star provenance counts of the snapshot's entries.
func (s *Snapshot) Stats() StarStats {
	var stats StarStats
	if s == nil {
		return stats
	}
	for i := range s.Entries {
		switch s.Entries[i].StarsSource {
		case SourceLocal:
			stats.Local++
		case SourceManager:
			stats.Manager++
		default:
			stats.None++
		}
	}
	stats.NeedsStarUpdate = stats.None > NeedsStarUpdateThreshold
	return stats
}

// InstalledCount returns the number of entries flagged as installed.
func (s *Snapshot) InstalledCount() int {
	n := 0
	for i := range s.Entries {
		if s.Entries[i].IsInstalled {
			n++
		}
	}
	return n
}

// FetchOutcome describes what happened to one key in a star fetch.
type FetchOutcome string

const (
	// OutcomeFetched means a fresh value was retrieved.
	OutcomeFetched FetchOutcome = "fetched"

	// OutcomeCached means the key was skipped because a positive value was
	// already known.
	OutcomeCached FetchOutcome = "cached"

	// OutcomeThrottled means the remote API rejected the request with a
	// rate-limit signal.
	OutcomeThrottled FetchOutcome = "throttled"

	// OutcomeError means the request failed for any other reason.
	OutcomeError FetchOutcome = "error"
)

// BatchResult reports the outcome of a star fetch run. It is a pure report;
// persisting Updated is the caller's job.
type BatchResult struct {
	// Updated holds values for keys whose fetch succeeded.
	Updated StarCache
	// Outcomes records the outcome of every key in the work list that was
	// either skipped or dispatched.
	Outcomes map[RepoKey]FetchOutcome
	// Attempted is the number of keys for which a request was dispatched.
	Attempted int
	// Succeeded is the number of dispatched keys that returned a value.
	Succeeded int
	// Cached is the number of keys skipped because a value was known.
	Cached int
	// Failed is the number of dispatched keys that returned an error.
	Failed int
	// Remaining is the number of keys never dispatched because the run
	// stopped early.
	Remaining int
	// Batches is the number of batches dispatched.
	Batches int
	// Throttled is set once the remote API signalled throttling.
	Throttled bool
	// Canceled is set when the caller's context ended before all batches
	// were dispatched.
	Canceled bool
}

// RefreshReport summarizes a RefreshStars call.
type RefreshReport struct {
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Cached    int           `json:"cached"`
	Failed    int           `json:"failed"`
	Remaining int           `json:"remaining"`
	Throttled bool          `json:"throttled"`
	TimedOut  bool          `json:"timed_out"`
	Elapsed   time.Duration `json:"elapsed"`
}

// KeysReport summarizes a RefreshKeys call.
type KeysReport struct {
	Results   StarCache `json:"results"`
	Updated   int       `json:"updated"`
	Total     int       `json:"total"`
	Throttled bool      `json:"throttled"`
}
