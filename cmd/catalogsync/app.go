package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jmgilman/go/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jmgilman/go/catalog"
	"github.com/jmgilman/go/catalog/config"
	"github.com/jmgilman/go/catalog/feed"
	"github.com/jmgilman/go/catalog/github"
	"github.com/jmgilman/go/catalog/github/providers/cli"
	"github.com/jmgilman/go/catalog/github/providers/sdk"
	"github.com/jmgilman/go/catalog/host"
	"github.com/jmgilman/go/catalog/internal/logging"
	"github.com/jmgilman/go/catalog/stars"
	"github.com/jmgilman/go/catalog/store"
)

// app holds the state shared by the subcommands.
type app struct {
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
	registry   *prometheus.Registry
}

// init loads and validates the configuration and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if jsonLogs, _ := flags.GetBool("json-logs"); jsonLogs {
		cfg.Log.Format = "json"
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.NewLogger(logging.LogConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		JSON:   cfg.Log.Format == "json",
		Output: cmd.ErrOrStderr(),
	})
	a.registry = prometheus.NewRegistry()
	return nil
}

// credentials returns the token sources in precedence order: the configured
// token, the GITHUB_TOKEN environment variable, then the token file.
func (a *app) credentials() catalog.CredentialProvider {
	path := a.cfg.TokenFilePath()
	return host.Chain{
		host.StaticToken(a.cfg.GitHub.Token),
		host.NewEnvToken(host.DefaultTokenEnv),
		host.NewTokenFile(osfs.New(filepath.Dir(path)), filepath.Base(path)),
	}
}

// provider builds the configured popularity API provider and reports whether
// its requests are authenticated.
func (a *app) provider(credentials catalog.CredentialProvider) (github.Provider, bool, error) {
	if a.cfg.GitHub.Provider == config.ProviderCLI {
		provider, err := cli.NewCLIProvider()
		if err != nil {
			return nil, false, err
		}
		return provider, true, nil
	}

	var opts []sdk.Option
	token, authenticated := credentials.GetToken()
	if authenticated {
		opts = append(opts, sdk.WithToken(token))
	}
	if a.cfg.GitHub.BaseURL != "" {
		opts = append(opts, sdk.WithBaseURL(a.cfg.GitHub.BaseURL))
	}

	provider, err := sdk.NewSDKProvider(opts...)
	if err != nil {
		return nil, false, err
	}
	return provider, authenticated, nil
}

// syncer wires the store, feeds, provider and batch fetcher into a Syncer.
func (a *app) syncer() (*catalog.Syncer, github.Provider, error) {
	credentials := a.credentials()

	provider, authenticated, err := a.provider(credentials)
	if err != nil {
		return nil, nil, err
	}

	profile := a.cfg.Profile(authenticated)
	a.logger.Debug("selected batch profile",
		"authenticated", authenticated,
		"batch_size", profile.BatchSize,
		"delay", profile.Delay,
	)

	fetcher, err := stars.New(provider,
		stars.WithProfile(profile),
		stars.WithRequestTimeout(a.cfg.Stars.RequestTimeout),
		stars.WithLogger(a.logger),
		stars.WithMetrics(stars.NewMetrics(a.registry)),
	)
	if err != nil {
		return nil, nil, err
	}

	storePath := a.cfg.StorePath()
	fileStore := store.NewOS(filepath.Dir(storePath), store.WithPath(filepath.Base(storePath)))

	feeds := feed.New(
		feed.WithCatalogURL(a.cfg.Feed.CatalogURL),
		feed.WithStatsURL(a.cfg.Feed.StatsURL),
		feed.WithTimeout(a.cfg.Feed.Timeout),
		feed.WithCredentials(credentials),
		feed.WithLogger(a.logger),
	)

	opts := []catalog.Option{
		catalog.WithTTL(a.cfg.Catalog.TTL),
		catalog.WithRefreshTimeout(a.cfg.Stars.RefreshTimeout),
		catalog.WithLogger(a.logger),
	}
	if dir := a.cfg.Host.ExtensionsDir; dir != "" {
		opts = append(opts, catalog.WithInstalledSet(host.NewOSDirectorySet(dir)))
	}

	syncer, err := catalog.NewSyncer(fileStore, feeds, fetcher, opts...)
	if err != nil {
		return nil, nil, err
	}
	return syncer, provider, nil
}

// registerRuntimeCollectors adds the Go runtime and process collectors.
func (a *app) registerRuntimeCollectors() error {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := a.registry.Register(c); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "failed to register metrics collector")
		}
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode output")
	}
	return nil
}
