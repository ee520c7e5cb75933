package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRepoKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		reference string
		want      RepoKey
		wantOK    bool
	}{
		{name: "canonical https", reference: "https://github.com/owner/repo", want: "owner/repo", wantOK: true},
		{name: "trailing slash", reference: "https://github.com/owner/repo/", want: "owner/repo", wantOK: true},
		{name: "git suffix", reference: "https://github.com/owner/repo.git", want: "owner/repo", wantOK: true},
		{name: "git suffix and slash", reference: "https://github.com/owner/repo.git/", want: "owner/repo", wantOK: true},
		{name: "http scheme", reference: "http://github.com/owner/repo", want: "owner/repo", wantOK: true},
		{name: "www host", reference: "https://www.github.com/owner/repo", want: "owner/repo", wantOK: true},
		{name: "uppercase host", reference: "https://GitHub.com/Owner/Repo", want: "Owner/Repo", wantOK: true},
		{name: "surrounding whitespace", reference: "  https://github.com/owner/repo \n", want: "owner/repo", wantOK: true},
		{name: "query and fragment ignored", reference: "https://github.com/owner/repo?tab=readme#usage", want: "owner/repo", wantOK: true},
		{name: "dotted repo name", reference: "https://github.com/owner/repo.name", want: "owner/repo.name", wantOK: true},
		{name: "empty", reference: "", wantOK: false},
		{name: "other host", reference: "https://gitlab.com/owner/repo", wantOK: false},
		{name: "host with port", reference: "https://github.com:8443/owner/repo", wantOK: false},
		{name: "user info", reference: "https://user@github.com/owner/repo", wantOK: false},
		{name: "ssh form", reference: "git@github.com:owner/repo.git", wantOK: false},
		{name: "no scheme", reference: "github.com/owner/repo", wantOK: false},
		{name: "ftp scheme", reference: "ftp://github.com/owner/repo", wantOK: false},
		{name: "owner only", reference: "https://github.com/owner", wantOK: false},
		{name: "owner with slash", reference: "https://github.com/owner/", wantOK: false},
		{name: "deeper path", reference: "https://github.com/owner/repo/tree/main", wantOK: false},
		{name: "raw file", reference: "https://raw.githubusercontent.com/owner/repo/main/node.py", wantOK: false},
		{name: "bare git suffix", reference: "https://github.com/owner/.git", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ResolveRepoKey(tt.reference)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRepoKey_SuffixVariantsAgree(t *testing.T) {
	t.Parallel()

	canonical, ok := ResolveRepoKey("https://github.com/comfy/extension")
	assert.True(t, ok)

	for _, suffix := range []string{"/", ".git", ".git/"} {
		got, ok := ResolveRepoKey("https://github.com/comfy/extension" + suffix)
		assert.True(t, ok, suffix)
		assert.Equal(t, canonical, got, suffix)
	}
}

func TestResolveRepoKey_Idempotent(t *testing.T) {
	t.Parallel()

	first, ok := ResolveRepoKey("https://github.com/owner/repo.git/")
	assert.True(t, ok)

	second, ok := ResolveRepoKey("https://github.com/" + first.String())
	assert.True(t, ok)
	assert.Equal(t, first, second)
}

func TestRepoKey_Parts(t *testing.T) {
	t.Parallel()

	key := RepoKey("owner/repo")
	assert.Equal(t, "owner", key.Owner())
	assert.Equal(t, "repo", key.Name())

	assert.Empty(t, RepoKey("").Name())
}
