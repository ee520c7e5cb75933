package host

import (
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/jmgilman/go/catalog"
)

const (
	// DefaultTokenEnv is the environment variable read by EnvToken.
	DefaultTokenEnv = "GITHUB_TOKEN"

	// DefaultTokenFile is the token file name inside the data directory.
	DefaultTokenFile = "github_token.txt"
)

// StaticToken is a CredentialProvider returning a fixed token. The empty
// string means no token.
type StaticToken string

// GetToken implements catalog.CredentialProvider.
func (s StaticToken) GetToken() (string, bool) {
	token := strings.TrimSpace(string(s))
	return token, token != ""
}

// EnvToken reads the token from an environment variable.
type EnvToken struct {
	Name string

	lookup func(string) (string, bool)
}

// NewEnvToken returns an EnvToken reading name, or DefaultTokenEnv if name
// is empty.
func NewEnvToken(name string) *EnvToken {
	if name == "" {
		name = DefaultTokenEnv
	}
	return &EnvToken{Name: name, lookup: os.LookupEnv}
}

// GetToken implements catalog.CredentialProvider.
func (e *EnvToken) GetToken() (string, bool) {
	lookup := e.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	value, ok := lookup(e.Name)
	if !ok {
		return "", false
	}
	return StaticToken(value).GetToken()
}

// TokenFile reads the token from a file. A missing, unreadable or blank
// file means no token. The file is read on every call so a token saved
// while the process runs is picked up.
type TokenFile struct {
	fs   billy.Filesystem
	path string
}

// NewTokenFile returns a TokenFile reading path on fs.
func NewTokenFile(fs billy.Filesystem, path string) *TokenFile {
	return &TokenFile{fs: fs, path: path}
}

// NewDataDirTokenFile returns a TokenFile reading DefaultTokenFile inside
// dataDir on the local disk.
func NewDataDirTokenFile(dataDir string) *TokenFile {
	return NewTokenFile(osfs.New(dataDir), DefaultTokenFile)
}

// GetToken implements catalog.CredentialProvider.
func (t *TokenFile) GetToken() (string, bool) {
	data, err := util.ReadFile(t.fs, t.path)
	if err != nil {
		return "", false
	}
	return StaticToken(data).GetToken()
}

// Save writes token to the file, creating parent directories as needed.
func (t *TokenFile) Save(token string) error {
	return util.WriteFile(t.fs, t.path, []byte(strings.TrimSpace(token)+"\n"), 0o600)
}

// Chain returns the first token offered by its providers, in order.
type Chain []catalog.CredentialProvider

// GetToken implements catalog.CredentialProvider.
func (c Chain) GetToken() (string, bool) {
	for _, provider := range c {
		if provider == nil {
			continue
		}
		if token, ok := provider.GetToken(); ok {
			return token, true
		}
	}
	return "", false
}

var (
	_ catalog.CredentialProvider = StaticToken("")
	_ catalog.CredentialProvider = (*EnvToken)(nil)
	_ catalog.CredentialProvider = (*TokenFile)(nil)
	_ catalog.CredentialProvider = Chain(nil)
)
