package catalog

import (
	"net/url"
	"strings"
)

// DefaultHost is the hosting provider recognized by ResolveRepoKey.
const DefaultHost = "github.com"

// ResolveRepoKey normalizes a hosting-provider repository URL into its
// canonical owner/repo key.
//
// A reference is recognized when it has an http or https scheme, the host is
// DefaultHost (optionally prefixed with "www.", compared case-insensitively)
// and the path is exactly /owner/repo. One trailing slash and then one
// trailing ".git" suffix are stripped before the path is split. Query strings
// and fragments are ignored. Anything else returns false.
//
// Examples:
//   - https://github.com/owner/repo      → owner/repo
//   - https://github.com/owner/repo.git  → owner/repo
//   - https://github.com/owner/repo.git/ → owner/repo
//   - https://gitlab.com/owner/repo      → not recognized
//   - https://github.com/owner/repo/tree → not recognized
func ResolveRepoKey(reference string) (RepoKey, bool) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "", false
	}

	parsed, err := url.Parse(reference)
	if err != nil {
		return "", false
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return "", false
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host != DefaultHost || parsed.User != nil || parsed.Port() != "" {
		return "", false
	}

	path := strings.TrimPrefix(parsed.Path, "/")
	path = strings.TrimSuffix(path, "/")
	path = strings.TrimSuffix(path, ".git")

	owner, name, ok := strings.Cut(path, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", false
	}

	return RepoKey(owner + "/" + name), true
}
