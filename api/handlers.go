package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/catalog"
)

// anonymousNote is attached to star refresh responses stopped by throttling.
const anonymousNote = "unauthenticated popularity API requests are limited to 60 per hour; configure an access token to raise the limit to 5000"

type catalogResponse struct {
	Success         bool              `json:"success"`
	Plugins         []catalog.Entry   `json:"plugins"`
	TotalCount      int               `json:"total_count"`
	InstalledCount  int               `json:"installed_count"`
	FromCache       bool              `json:"from_cache"`
	LastUpdate      *time.Time        `json:"last_update,omitempty"`
	LastStarsUpdate *time.Time        `json:"last_stars_update,omitempty"`
	StarsStats      catalog.StarStats `json:"stars_stats"`
	NeedUpdateStars bool              `json:"need_update_stars"`
	Warning         string            `json:"warning,omitempty"`
}

type updateStarsRequest struct {
	ForceFull bool `json:"force_full"`
}

type updateStarsResponse struct {
	Success        bool    `json:"success"`
	Message        string  `json:"message"`
	Updated        int     `json:"updated"`
	Total          int     `json:"total"`
	Failed         int     `json:"failed"`
	Remaining      int     `json:"remaining"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	RateLimited    bool    `json:"rate_limited"`
	TimedOut       bool    `json:"timed_out"`
	Note           string  `json:"note,omitempty"`
}

type updateStarsBatchRequest struct {
	RepoKeys []catalog.RepoKey `json:"repo_keys"`
}

type updateStarsBatchResponse struct {
	Success     bool              `json:"success"`
	Results     catalog.StarCache `json:"results"`
	Updated     int               `json:"updated"`
	Total       int               `json:"total"`
	RateLimited bool              `json:"rate_limited"`
}

type rateLimitResponse struct {
	Success       bool      `json:"success"`
	Authenticated bool      `json:"authenticated"`
	Limit         int       `json:"limit"`
	Remaining     int       `json:"remaining"`
	Used          int       `json:"used"`
	Reset         time.Time `json:"reset"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAvailablePlugins serves the catalog. The presence of force_refresh
// (or its short form t) in the query forces a refetch.
func (s *Server) handleAvailablePlugins(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	forceRefresh := query.Has("force_refresh") || query.Has("t")

	s.mu.Lock()
	snapshot, err := s.syncer.GetCatalog(r.Context(), forceRefresh)
	s.mu.Unlock()

	if err != nil && snapshot == nil {
		s.logger.ErrorContext(r.Context(), "failed to get catalog", "error", err)
		respondError(w, err)
		return
	}

	stats := snapshot.Stats()
	resp := catalogResponse{
		Success:         true,
		Plugins:         snapshot.Entries,
		TotalCount:      len(snapshot.Entries),
		InstalledCount:  snapshot.InstalledCount(),
		FromCache:       snapshot.FromCache,
		LastUpdate:      snapshot.LastCatalogUpdate,
		LastStarsUpdate: snapshot.LastStarsUpdate,
		StarsStats:      stats,
		NeedUpdateStars: stats.NeedsStarUpdate,
	}
	if err != nil {
		// The refreshed catalog could not be persisted but is still usable.
		s.logger.WarnContext(r.Context(), "serving unpersisted catalog", "error", err)
		resp.Warning = errors.ToJSON(err).Message
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleUpdateStars refreshes stars for the whole catalog. A missing or
// malformed body means an incremental refresh.
func (s *Server) handleUpdateStars(w http.ResponseWriter, r *http.Request) {
	var req updateStarsRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			s.logger.DebugContext(r.Context(), "ignoring malformed update-stars body", "error", err)
		}
	}

	s.mu.Lock()
	report, err := s.syncer.RefreshStars(r.Context(), req.ForceFull)
	s.mu.Unlock()

	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to refresh stars", "error", err)
		respondError(w, err)
		return
	}

	total := report.Attempted + report.Remaining
	message := fmt.Sprintf("updated %d/%d plugins in %s", report.Succeeded, total, report.Elapsed.Round(time.Second))
	switch {
	case report.Throttled:
		message += " (stopped by popularity API rate limit)"
	case report.TimedOut:
		message += " (stopped by refresh timeout)"
	}

	resp := updateStarsResponse{
		Success:        true,
		Message:        message,
		Updated:        report.Succeeded,
		Total:          total,
		Failed:         report.Failed,
		Remaining:      report.Remaining,
		ElapsedSeconds: report.Elapsed.Seconds(),
		RateLimited:    report.Throttled,
		TimedOut:       report.TimedOut,
	}
	if report.Throttled {
		resp.Note = anonymousNote
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleUpdateStarsBatch lazily refreshes stars for an explicit key list.
func (s *Server) handleUpdateStarsBatch(w http.ResponseWriter, r *http.Request) {
	var req updateStarsBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "invalid request body"))
		return
	}

	s.mu.Lock()
	report, err := s.syncer.RefreshKeys(r.Context(), req.RepoKeys)
	s.mu.Unlock()

	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to refresh requested stars", "error", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updateStarsBatchResponse{
		Success:     true,
		Results:     report.Results,
		Updated:     report.Updated,
		Total:       report.Total,
		RateLimited: report.Throttled,
	})
}

func (s *Server) handleRateLimit(w http.ResponseWriter, r *http.Request) {
	if s.rate == nil {
		respondError(w, errors.New(errors.CodeUnavailable, "rate limit check is not configured"))
		return
	}

	rate, err := s.rate.GetRateLimit(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rateLimitResponse{
		Success:       true,
		Authenticated: rate.Authenticated(),
		Limit:         rate.Limit,
		Remaining:     rate.Remaining,
		Used:          rate.Used,
		Reset:         rate.Reset,
	})
}
