// Package stars fetches repository star counts from the popularity API in
// rate-limit-aware batches.
//
// A BatchFetcher partitions its work list into ordered batches. The keys of
// one batch are fetched concurrently, the fetcher waits for the whole batch,
// and then either stops or sleeps for the profile's delay before dispatching
// the next batch. A throttling response (HTTP 403) stops the run once the
// current batch has finished; no key of a later batch is ever dispatched.
//
// Cancellation of the caller's context is honored at batch boundaries only.
// Requests already in flight run on a context detached from the caller's
// cancellation and bounded by their own request timeout, so a canceled run
// still reports every value it managed to fetch.
//
// Basic usage:
//
//	provider, _ := sdk.NewSDKProvider(sdk.WithToken(token))
//	fetcher, err := stars.New(provider,
//	    stars.WithProfile(stars.AuthenticatedProfile),
//	    stars.WithMetrics(stars.NewMetrics(prometheus.DefaultRegisterer)),
//	)
//	result, err := fetcher.FetchStars(ctx, keys, known)
package stars
