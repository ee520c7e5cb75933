// Package config loads the catalogsync configuration from defaults, an
// optional YAML file and CATALOGSYNC_ environment variables.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/spf13/viper"

	"github.com/jmgilman/go/catalog"
	"github.com/jmgilman/go/catalog/feed"
	"github.com/jmgilman/go/catalog/host"
	"github.com/jmgilman/go/catalog/stars"
	"github.com/jmgilman/go/catalog/store"
)

const (
	// EnvPrefix prefixes every environment override, e.g.
	// CATALOGSYNC_FEED_TIMEOUT=10s.
	EnvPrefix = "CATALOGSYNC"

	// FileName is the configuration file name searched for without extension.
	FileName = "catalogsync"

	// ProviderSDK selects the go-github popularity provider.
	ProviderSDK = "sdk"

	// ProviderCLI selects the gh CLI popularity provider.
	ProviderCLI = "cli"
)

// Config holds all configuration for catalogsync.
type Config struct {
	DataDir string        `mapstructure:"data_dir"`
	Store   StoreConfig   `mapstructure:"store"`
	Feed    FeedConfig    `mapstructure:"feed"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	GitHub  GitHubConfig  `mapstructure:"github"`
	Stars   StarsConfig   `mapstructure:"stars"`
	Host    HostConfig    `mapstructure:"host"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
}

// StoreConfig holds snapshot persistence options.
type StoreConfig struct {
	File string `mapstructure:"file"`
}

// FeedConfig holds the remote catalog feed options.
type FeedConfig struct {
	CatalogURL string        `mapstructure:"catalog_url"`
	StatsURL   string        `mapstructure:"stats_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// CatalogConfig holds cache freshness options.
type CatalogConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// GitHubConfig holds popularity API options.
type GitHubConfig struct {
	Provider  string `mapstructure:"provider"` // "sdk" or "cli"
	BaseURL   string `mapstructure:"base_url"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token_file"`
}

// StarsConfig holds batch fetcher options.
type StarsConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RefreshTimeout time.Duration `mapstructure:"refresh_timeout"`
	Authenticated  ProfileConfig `mapstructure:"authenticated"`
	Anonymous      ProfileConfig `mapstructure:"anonymous"`
}

// ProfileConfig mirrors stars.Profile.
type ProfileConfig struct {
	BatchSize int           `mapstructure:"batch_size"`
	Delay     time.Duration `mapstructure:"delay"`
}

// HostConfig describes the host application.
type HostConfig struct {
	ExtensionsDir string `mapstructure:"extensions_dir"`
}

// ServerConfig holds HTTP server options.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

var defaultConfig = Config{
	DataDir: "data",
	Store: StoreConfig{
		File: store.DefaultFile,
	},
	Feed: FeedConfig{
		CatalogURL: feed.DefaultCatalogURL,
		StatsURL:   feed.DefaultStatsURL,
		Timeout:    feed.DefaultTimeout,
	},
	Catalog: CatalogConfig{
		TTL: catalog.DefaultTTL,
	},
	GitHub: GitHubConfig{
		Provider: ProviderSDK,
	},
	Stars: StarsConfig{
		RequestTimeout: stars.DefaultRequestTimeout,
		Authenticated: ProfileConfig{
			BatchSize: stars.AuthenticatedProfile.BatchSize,
			Delay:     stars.AuthenticatedProfile.Delay,
		},
		Anonymous: ProfileConfig{
			BatchSize: stars.AnonymousProfile.BatchSize,
			Delay:     stars.AnonymousProfile.Delay,
		},
	},
	Server: ServerConfig{
		Addr: ":8188",
	},
	Log: LogConfig{
		Level:  "info",
		Format: "text",
	},
}

// Default returns the built-in configuration.
func Default() *Config {
	c := defaultConfig
	return &c
}

// Load reads the configuration. If configFile is empty, catalogsync.yaml is
// looked up in the working directory and in $HOME/.config/catalogsync; a
// missing file is not an error. Environment variables override both.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/catalogsync")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			wrapped := errors.Wrap(err, errors.CodeInvalidConfig, "failed to read config file")
			return nil, errors.WithContext(wrapped, "path", configFile)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to decode config")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultConfig.DataDir)
	v.SetDefault("store.file", defaultConfig.Store.File)
	v.SetDefault("feed.catalog_url", defaultConfig.Feed.CatalogURL)
	v.SetDefault("feed.stats_url", defaultConfig.Feed.StatsURL)
	v.SetDefault("feed.timeout", defaultConfig.Feed.Timeout)
	v.SetDefault("catalog.ttl", defaultConfig.Catalog.TTL)
	v.SetDefault("github.provider", defaultConfig.GitHub.Provider)
	v.SetDefault("github.base_url", defaultConfig.GitHub.BaseURL)
	v.SetDefault("github.token", defaultConfig.GitHub.Token)
	v.SetDefault("github.token_file", defaultConfig.GitHub.TokenFile)
	v.SetDefault("stars.request_timeout", defaultConfig.Stars.RequestTimeout)
	v.SetDefault("stars.refresh_timeout", defaultConfig.Stars.RefreshTimeout)
	v.SetDefault("stars.authenticated.batch_size", defaultConfig.Stars.Authenticated.BatchSize)
	v.SetDefault("stars.authenticated.delay", defaultConfig.Stars.Authenticated.Delay)
	v.SetDefault("stars.anonymous.batch_size", defaultConfig.Stars.Anonymous.BatchSize)
	v.SetDefault("stars.anonymous.delay", defaultConfig.Stars.Anonymous.Delay)
	v.SetDefault("host.extensions_dir", defaultConfig.Host.ExtensionsDir)
	v.SetDefault("server.addr", defaultConfig.Server.Addr)
	v.SetDefault("log.level", defaultConfig.Log.Level)
	v.SetDefault("log.format", defaultConfig.Log.Format)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	invalid := func(field, message string) error {
		return errors.WithContext(errors.New(errors.CodeInvalidConfig, message), "field", field)
	}

	switch {
	case c.DataDir == "":
		return invalid("data_dir", "data directory cannot be empty")
	case c.Store.File == "":
		return invalid("store.file", "store file cannot be empty")
	case c.Feed.CatalogURL == "":
		return invalid("feed.catalog_url", "catalog feed URL cannot be empty")
	case c.Feed.StatsURL == "":
		return invalid("feed.stats_url", "stats feed URL cannot be empty")
	case c.Feed.Timeout <= 0:
		return invalid("feed.timeout", "feed timeout must be positive")
	case c.Catalog.TTL <= 0:
		return invalid("catalog.ttl", "catalog TTL must be positive")
	case c.GitHub.Provider != ProviderSDK && c.GitHub.Provider != ProviderCLI:
		return invalid("github.provider", "provider must be \"sdk\" or \"cli\"")
	case c.Stars.RequestTimeout <= 0:
		return invalid("stars.request_timeout", "request timeout must be positive")
	case c.Stars.RefreshTimeout < 0:
		return invalid("stars.refresh_timeout", "refresh timeout cannot be negative")
	}

	if err := c.Profile(true).Validate(); err != nil {
		return errors.WithContext(err, "field", "stars.authenticated")
	}
	if err := c.Profile(false).Validate(); err != nil {
		return errors.WithContext(err, "field", "stars.anonymous")
	}
	return nil
}

// Profile returns the configured batch profile for an authenticated or
// anonymous caller.
func (c *Config) Profile(authenticated bool) stars.Profile {
	p := c.Stars.Anonymous
	if authenticated {
		p = c.Stars.Authenticated
	}
	return stars.Profile{BatchSize: p.BatchSize, Delay: p.Delay}
}

// TokenFilePath returns the token file location, defaulting to
// github_token.txt inside the data directory.
func (c *Config) TokenFilePath() string {
	if c.GitHub.TokenFile != "" {
		return c.GitHub.TokenFile
	}
	return filepath.Join(c.DataDir, host.DefaultTokenFile)
}

// StorePath returns the snapshot file location.
func (c *Config) StorePath() string {
	if filepath.IsAbs(c.Store.File) {
		return c.Store.File
	}
	return filepath.Join(c.DataDir, c.Store.File)
}
