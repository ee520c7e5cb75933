package catalog

import "time"

// DefaultTTL is how long a persisted catalog is served without a refresh.
const DefaultTTL = time.Hour

// IsFresh reports whether a snapshot last updated at lastUpdate may still be
// served at time now.
//
// It returns false when forceRefresh is set or lastUpdate is nil; otherwise
// it returns true iff now - lastUpdate < ttl.
func IsFresh(lastUpdate *time.Time, ttl time.Duration, forceRefresh bool, now time.Time) bool {
	if forceRefresh || lastUpdate == nil {
		return false
	}
	return now.Sub(*lastUpdate) < ttl
}
