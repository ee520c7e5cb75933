// Package catalog keeps a locally persisted catalog of installable extensions
// enriched with a popularity score (repository star count).
//
// The catalog is served cache-first: a persisted Snapshot younger than the
// configured TTL is returned without touching the network. Popularity data is
// kept in a StarCache that lives independently of the catalog entries, so a
// full catalog re-fetch never discards known star counts.
//
// # Architecture
//
// The package is built from small, mostly pure pieces composed by a Syncer:
//
//  1. ResolveRepoKey normalizes a hosting-provider URL into an owner/repo key
//  2. IsFresh decides whether a cached snapshot may be served
//  3. Reconcile assigns stars and their provenance to every entry
//  4. Store, FeedFetcher and StarFetcher abstract persistence and I/O
//  5. Syncer implements GetCatalog, RefreshStars and RefreshKeys
//
// Concrete collaborators live in subpackages: store (go-billy JSON store),
// feed (resty based feed fetcher), stars (rate-limit aware batch fetcher),
// github (popularity API providers) and host (installed set, credentials).
//
// # Star provenance
//
// Every entry carries a StarSource describing where its star count came from:
//
//   - SourceLocal: a positive value already present in the StarCache
//   - SourceManager: a value from the precomputed secondary feed
//   - SourceNone: nothing known, stars is zero
//
// The precedence is fixed: local > manager > none.
//
// # Concurrency
//
// A Syncer assumes a single writer per Store location. Callers that can issue
// concurrent synchronization calls must serialize them (the api package does
// so with a mutex). Within RefreshStars the stars fetcher fans out concurrent
// requests bounded by the configured batch size and stops scheduling new
// batches as soon as the remote API signals throttling.
//
// # Error Handling
//
// All errors are github.com/jmgilman/go/errors PlatformErrors. Use
// errors.GetCode to distinguish CodeCatalogUnavailable, CodeNoCatalog and the
// store codes. Throttling is never an error; it is reported in RefreshReport.
package catalog
