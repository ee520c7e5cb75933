package catalog

import "context"

// Store persists catalog snapshots.
type Store interface {
	// Load returns the persisted snapshot.
	// Returns (nil, nil) when nothing has been persisted yet.
	// Returns a CodeStoreReadFailed or CodeStoreCorrupt error when the
	// snapshot exists but cannot be used.
	Load() (*Snapshot, error)

	// Save persists the snapshot atomically: a reader never observes a
	// partially written snapshot.
	// Returns a CodeStoreWriteFailed error on failure.
	Save(snapshot *Snapshot) error
}

// FeedFetcher retrieves the remote catalog feeds. Implementations perform a
// single attempt per call and never retry on their own.
type FeedFetcher interface {
	// FetchCatalog retrieves the authoritative plugin list.
	// Returns a CodeTimeout, CodeHTTPStatus or CodeTransport error on failure.
	FetchCatalog(ctx context.Context) ([]RawCatalogEntry, error)

	// FetchPrecomputedStars retrieves the secondary popularity feed.
	FetchPrecomputedStars(ctx context.Context) (StarCache, error)
}

// StarFetcher fetches popularity scores for many repositories.
type StarFetcher interface {
	// FetchStars fetches star counts for keys. Keys with a positive value in
	// known are skipped and reported as cached. Throttling and per-key
	// failures are reported in the result, not returned as errors.
	FetchStars(ctx context.Context, keys []RepoKey, known StarCache) (*BatchResult, error)
}

// InstalledSet is a read-only view of the extensions installed in the host.
type InstalledSet interface {
	// Contains reports whether an extension with the given plugin name is
	// installed.
	Contains(pluginName string) bool
}

// InstalledSnapshotter is implemented by installed sets backed by a live
// source such as a directory. The Syncer takes one snapshot per GetCatalog
// call instead of querying the source once per entry.
type InstalledSnapshotter interface {
	Snapshot() (InstalledSet, error)
}

// CredentialProvider supplies the optional access token for the popularity API.
type CredentialProvider interface {
	// GetToken returns the token and true, or "" and false if none is configured.
	GetToken() (string, bool)
}
