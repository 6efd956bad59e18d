// Package main implements quotectl, a command-line client for the quote
// catalog HTTP API.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-service/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-service/internal/platform/config"
	"github.com/jsamuelsen/quote-service/internal/platform/logging"
)

// version is injected via ldflags.
var version = "dev"

const defaultServerURL = "http://localhost:8080"

// options holds the persistent flags shared by every sub-command.
type options struct {
	server  string
	timeout time.Duration
	retries int
	json    bool
	verbose bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "quotectl",
		Short: "CLI for the quote catalog service",
		Long: `quotectl talks to a running quote catalog service over its HTTP API.

Examples:
  # List every quote
  quotectl list

  # Create a quote with tags
  quotectl create --title "Stay hungry" --author "Steve Jobs" --tag life --tag work

  # Use a different server
  quotectl --server http://localhost:9090 stats`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.server, "server", envOr("QUOTECTL_SERVER", defaultServerURL), "quote service base URL")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	flags.IntVar(&opts.retries, "retries", config.DefaultClientRetryMaxAttempts, "attempts per request, including the first")
	flags.BoolVar(&opts.json, "json", false, "print results as JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newListCmd(opts),
		newGetCmd(opts),
		newCreateCmd(opts),
		newDeleteCmd(opts),
		newSearchCmd(opts),
		newTagsCmd(opts),
		newStatsCmd(opts),
		newArchiveCmd(opts),
		newImportCmd(opts),
	)

	return root
}

// catalog builds a catalog client for the configured server. Requests go
// through the same retrying, circuit-breaking client the service uses for
// its own downstream calls.
func (o *options) catalog(stderr io.Writer) (*acl.CatalogClient, error) {
	level := "warn"
	if o.verbose {
		level = "debug"
	}

	logger := logging.NewWithWriter(&logging.Config{
		Level:   level,
		Format:  "pretty",
		Service: "quotectl",
		Version: version,
	}, stderr)

	client, err := clients.New(&clients.Config{
		BaseURL:     o.server,
		ServiceName: acl.CatalogServiceName,
		Timeout:     o.timeout,
		Retry: config.RetryConfig{
			MaxAttempts:     o.retries,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Multiplier:      config.DefaultClientRetryMultiplier,
			JitterFactor:    config.DefaultClientRetryJitterFactor,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   config.DefaultClientCircuitMaxFailures,
			Timeout:       30 * time.Second,
			HalfOpenLimit: config.DefaultClientCircuitHalfOpenLimit,
		},
		UserAgent: "quotectl/" + version,
		Logger:    logger.With(slog.String("server", o.server)),
	})
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	return acl.NewCatalogClient(client), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
