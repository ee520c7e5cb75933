package main

import (
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/spf13/cobra"

	"github.com/jmgilman/go/catalog"
	"github.com/jmgilman/go/catalog/api"
)

type catalogOutput struct {
	Total           int               `json:"total_count"`
	Installed       int               `json:"installed_count"`
	FromCache       bool              `json:"from_cache"`
	LastUpdate      *time.Time        `json:"last_update,omitempty"`
	LastStarsUpdate *time.Time        `json:"last_stars_update,omitempty"`
	StarsStats      catalog.StarStats `json:"stars_stats"`
	Plugins         []catalog.Entry   `json:"plugins,omitempty"`
}

func newCatalogCommand(a *app) *cobra.Command {
	var forceRefresh, summary bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the plugin catalog, refreshing it when stale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			syncer, _, err := a.syncer()
			if err != nil {
				return err
			}

			snapshot, err := syncer.GetCatalog(cmd.Context(), forceRefresh)
			if snapshot == nil {
				return err
			}
			if err != nil {
				a.logger.Warn("catalog refreshed but not persisted", "error", err)
			}

			out := catalogOutput{
				Total:           len(snapshot.Entries),
				Installed:       snapshot.InstalledCount(),
				FromCache:       snapshot.FromCache,
				LastUpdate:      snapshot.LastCatalogUpdate,
				LastStarsUpdate: snapshot.LastStarsUpdate,
				StarsStats:      snapshot.Stats(),
			}
			if !summary {
				out.Plugins = snapshot.Entries
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&forceRefresh, "force-refresh", false, "Refetch the catalog even if the cached copy is fresh")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print counts only")
	return cmd
}

func newRefreshStarsCommand(a *app) *cobra.Command {
	var forceFull bool

	cmd := &cobra.Command{
		Use:   "refresh-stars",
		Short: "Fetch star counts for the catalog's repositories",
		Long: `Fetch star counts for every catalog repository whose cached count is zero,
or for all of them with --force-full. The run stops early, keeping partial
results, when the popularity API throttles requests.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			syncer, _, err := a.syncer()
			if err != nil {
				return err
			}

			report, err := syncer.RefreshStars(cmd.Context(), forceFull)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().BoolVar(&forceFull, "force-full", false, "Refetch every repository, not only those without stars")
	return cmd
}

func newUpdateStarsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update-stars OWNER/REPO...",
		Short: "Fetch star counts for specific repositories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]catalog.RepoKey, 0, len(args))
			for _, arg := range args {
				key, ok := catalog.ResolveRepoKey(arg)
				if !ok {
					key = catalog.RepoKey(arg)
				}
				if key.Owner() == "" || key.Name() == "" || strings.Contains(key.Name(), "/") {
					err := errors.New(errors.CodeInvalidInput, "expected OWNER/REPO or a repository URL")
					return errors.WithContext(err, "argument", arg)
				}
				keys = append(keys, key)
			}

			syncer, _, err := a.syncer()
			if err != nil {
				return err
			}

			report, err := syncer.RefreshKeys(cmd.Context(), keys)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}

type rateLimitOutput struct {
	Limit         int       `json:"limit"`
	Remaining     int       `json:"remaining"`
	Used          int       `json:"used"`
	Reset         time.Time `json:"reset"`
	Authenticated bool      `json:"authenticated"`
}

func newRateLimitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rate-limit",
		Short: "Show the popularity API quota and whether requests are authenticated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			provider, _, err := a.provider(a.credentials())
			if err != nil {
				return err
			}

			rate, err := provider.GetRateLimit(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rateLimitOutput{
				Limit:         rate.Limit,
				Remaining:     rate.Remaining,
				Used:          rate.Used,
				Reset:         rate.Reset,
				Authenticated: rate.Authenticated(),
			})
		},
	}
}

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			syncer, provider, err := a.syncer()
			if err != nil {
				return err
			}
			if err := a.registerRuntimeCollectors(); err != nil {
				return err
			}

			server, err := api.NewServer(syncer,
				api.WithRateLimitChecker(provider),
				api.WithRegistry(a.registry),
				api.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return server.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8188)")
	return cmd
}
