package stars

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jmgilman/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jmgilman/go/catalog"
	"github.com/jmgilman/go/catalog/github"
	"github.com/jmgilman/go/catalog/internal/logging"
)

// DefaultRequestTimeout bounds a single popularity API request.
const DefaultRequestTimeout = 10 * time.Second

// BatchFetcher implements catalog.StarFetcher over a github.Provider.
type BatchFetcher struct {
	provider       github.Provider
	profile        Profile
	requestTimeout time.Duration
	logger         *slog.Logger
	metrics        *Metrics

	// wait pauses between batches; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// New creates a BatchFetcher. Without options it uses AnonymousProfile.
func New(provider github.Provider, opts ...Option) (*BatchFetcher, error) {
	if provider == nil {
		err := errors.New(errors.CodeInvalidInput, "provider cannot be nil")
		return nil, errors.WithContext(err, "field", "provider")
	}

	f := &BatchFetcher{
		provider:       provider,
		profile:        AnonymousProfile,
		requestTimeout: DefaultRequestTimeout,
		logger:         logging.NewNopLogger(),
		wait:           sleep,
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Profile returns the profile in use.
func (f *BatchFetcher) Profile() Profile {
	return f.profile
}

// fetchResult is the outcome of one dispatched request.
type fetchResult struct {
	key     catalog.RepoKey
	stars   int
	outcome catalog.FetchOutcome
	err     error
}

// FetchStars fetches star counts for keys in batches.
//
// Empty and duplicate keys are ignored. Keys with a positive value in known
// are not dispatched and are reported as cached. Throttling and per-key
// failures are reported in the result; the returned error is always nil.
func (f *BatchFetcher) FetchStars(ctx context.Context, keys []catalog.RepoKey, known catalog.StarCache) (*catalog.BatchResult, error) {
	result := &catalog.BatchResult{
		Updated:  catalog.StarCache{},
		Outcomes: make(map[catalog.RepoKey]catalog.FetchOutcome, len(keys)),
	}

	seen := make(map[catalog.RepoKey]struct{}, len(keys))
	work := make([]catalog.RepoKey, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if known.Known(key) {
			result.Outcomes[key] = catalog.OutcomeCached
			result.Cached++
			continue
		}
		work = append(work, key)
	}

	batches := partition(work, f.profile.BatchSize)
	var throttled atomic.Bool
	dispatched := 0

	for i, batch := range batches {
		if i > 0 {
			if err := f.wait(ctx, f.profile.Delay); err != nil {
				result.Canceled = true
				break
			}
		} else if ctx.Err() != nil {
			result.Canceled = true
			break
		}

		for _, r := range f.runBatch(ctx, batch, &throttled) {
			result.Outcomes[r.key] = r.outcome
			if r.outcome == catalog.OutcomeFetched {
				result.Updated[r.key] = r.stars
				result.Succeeded++
				continue
			}
			result.Failed++
			f.logFailure(ctx, r)
		}
		dispatched += len(batch)
		result.Batches++
		f.metrics.observeBatch()

		f.logger.InfoContext(ctx, "star batch completed",
			"batch", i+1,
			"batches", len(batches),
			"size", len(batch),
			"succeeded", result.Succeeded,
			"failed", result.Failed,
		)

		if throttled.Load() {
			result.Throttled = true
			break
		}
	}

	result.Attempted = dispatched
	result.Remaining = len(work) - dispatched

	if result.Throttled {
		f.logger.WarnContext(ctx, "popularity API throttled requests, stopping",
			"attempted", result.Attempted,
			"remaining", result.Remaining,
		)
	}
	if result.Canceled {
		f.logger.WarnContext(ctx, "star fetch interrupted",
			"attempted", result.Attempted,
			"remaining", result.Remaining,
			"error", ctx.Err(),
		)
	}
	f.metrics.observeRun(result)

	return result, nil
}

// runBatch dispatches one request per key concurrently and waits for all of
// them. Results are returned in batch order.
func (f *BatchFetcher) runBatch(ctx context.Context, batch []catalog.RepoKey, throttled *atomic.Bool) []fetchResult {
	results := make([]fetchResult, len(batch))

	var g errgroup.Group
	for i, key := range batch {
		g.Go(func() error {
			results[i] = f.fetchOne(ctx, key, throttled)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (f *BatchFetcher) fetchOne(ctx context.Context, key catalog.RepoKey, throttled *atomic.Bool) fetchResult {
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.requestTimeout)
	defer cancel()

	start := time.Now()
	repo, err := f.provider.GetRepositoryStars(reqCtx, key.Owner(), key.Name())

	r := fetchResult{key: key, outcome: catalog.OutcomeFetched}
	switch {
	case err != nil && github.IsThrottled(err):
		throttled.Store(true)
		r.outcome, r.err = catalog.OutcomeThrottled, err
	case err != nil:
		r.outcome, r.err = catalog.OutcomeError, err
	default:
		r.stars = max(repo.Stars, 0)
	}

	f.metrics.observeRequest(r.outcome, time.Since(start))
	return r
}

func (f *BatchFetcher) logFailure(ctx context.Context, r fetchResult) {
	args := []any{"repo", string(r.key), "outcome", string(r.outcome), "error", r.err}

	if r.outcome == catalog.OutcomeThrottled {
		var platformErr errors.PlatformError
		if errors.As(r.err, &platformErr) {
			details := platformErr.Context()
			if v, ok := details["rate_remaining"]; ok {
				args = append(args, "rate_remaining", v)
			}
			if v, ok := details["rate_reset"]; ok {
				args = append(args, "rate_reset", v)
			}
		}
		f.logger.WarnContext(ctx, "star request throttled", args...)
		return
	}

	f.logger.DebugContext(ctx, "star request failed", args...)
}

// partition splits keys into consecutive batches of at most size keys.
func partition(keys []catalog.RepoKey, size int) [][]catalog.RepoKey {
	if size <= 0 {
		size = 1
	}
	batches := make([][]catalog.RepoKey, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		batches = append(batches, keys[start:end])
	}
	return batches
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ catalog.StarFetcher = (*BatchFetcher)(nil)
