package github

import "time"

// AnonymousCoreLimit is the hourly core API limit granted to unauthenticated
// callers. A higher limit means the request was authenticated.
const AnonymousCoreLimit = 60

// RepositoryStars holds the popularity data of one repository.
type RepositoryStars struct {
	Owner    string
	Name     string
	FullName string
	Stars    int

	// Rate is the rate limit reported alongside the response, or nil if the
	// backend does not expose it.
	Rate *RateLimit
}

// RateLimit describes the caller's core API quota.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Used      int       `json:"used"`
	Reset     time.Time `json:"reset"`
}

// Authenticated reports whether the quota belongs to an authenticated caller.
func (r *RateLimit) Authenticated() bool {
	return r != nil && r.Limit > AnonymousCoreLimit
}
