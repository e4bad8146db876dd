// Package commands is the realestate-agent command line.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"realestate-agent/config"
)

// NewRootCmd builds the command tree. Persistent flags override the
// environment for every subcommand.
func NewRootCmd() *cobra.Command {
	var o config.Overrides

	rootCmd := &cobra.Command{
		Use:           "realestate-agent",
		Short:         "AI-assisted property search for Indian cities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&o.GeminiAPIKey, "gemini-key", "", "Gemini API key (overrides GEMINI_API_KEY)")
	pf.StringVar(&o.FirecrawlAPIKey, "firecrawl-key", "", "Firecrawl API key (overrides FIRECRAWL_API_KEY)")
	pf.StringVar(&o.DatabaseURL, "database-url", "", "database URL, sqlite:// or postgres:// (overrides DATABASE_URL)")
	pf.StringVar(&o.RedisURL, "redis-url", "", "Redis URL (overrides REDIS_URL)")
	pf.StringVar(&o.LogLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	pf.StringVar(&o.ScrapeBackend, "backend", "", "scrape backend: firecrawl, browser or auto (overrides SCRAPE_BACKEND)")
	pf.BoolVar(&o.DisableCache, "no-cache", false, "disable the Redis cache for this run")

	rootCmd.AddCommand(
		searchCmd(&o),
		investCmd(&o),
		trendsCmd(&o),
		historyCmd(&o),
		propertiesCmd(&o),
		cacheCmd(&o),
		healthCmd(&o),
		serveCmd(&o),
	)
	return rootCmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
