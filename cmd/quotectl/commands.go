package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-service/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-service/internal/domain"
)

// run resolves a catalog client and calls fn with the command's context,
// tagged with a fresh correlation ID so the server logs of one invocation
// can be joined.
func (o *options) run(cmd *cobra.Command, fn func(ctx context.Context, c *acl.CatalogClient) error) error {
	c, err := o.catalog(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := middleware.ContextWithCorrelationID(cmd.Context(), uuid.NewString())

	return fn(ctx, c)
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every quote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, c *acl.CatalogClient) error {
				quotes, err := c.List(ctx)
				if err != nil {
					return err
				}

				return printQuotes(cmd.OutOrStdout(), opts.json, quotes)
			})
		},
	}
}

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one quote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return opts.run(cmd, func(ctx context.Context, c *acl.CatalogClient) error {
				q, err := c.Get(ctx, id)
				if err != nil {
					return err
				}

				return printQuote(cmd.OutOrStdout(), opts.json, q)
			})
		},
	}
}

func newCreateCmd(opts *options) *cobra.Command {
	var (
		description string
		category    string
		status      string
		author      string
		source      string
		publisher   string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "create --title <title>",
		Short: "Create a quote",
		Long: `Create a quote and print it with its assigned ID.

Examples:
  quotectl create --title "Simplicity is prerequisite for reliability" \
    --author "Edsger Dijkstra" --category engineering --tag design`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			title, _ := cmd.Flags().GetString("title")

			q := domain.NewQuote(title, description)
			q.Category = category
			q.Author = author
			q.Source = source
			q.Publisher = publisher
			q.SetTags(tags)

			if status != "" {
				s, err := domain.ParseStatus(status)
				if err != nil {
					return err
				}

				q.Status = s
			}

			return opts.run(cmd, func(ctx context.Context, c *acl.CatalogClient) error {
				saved, err := c.Create(ctx, q)
				if err != nil {
					return err
				}

				return printQuote(cmd.OutOrStdout(), opts.json, saved)
			})
		},
	}

	f := cmd.Flags()
	f.String("title", "", "quote title (required)")
	f.StringVar(&description, "description", "", "full quote text")
	f.StringVar(&category, "category", "", "category")
	f.StringVar(&status, "status", "", "ACTIVE, INACTIVE or ARCHIVED")
	f.StringVar(&author, "author", "", "author")
	f.StringVar(&source, "source", "", "source")
	f.StringVar(&publisher, "publisher", "", "publisher")
	f.StringSliceVar(&tags, "tag", nil, "tag, repeatable or comma-separated")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a quote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return opts.run(cmd, func(ctx context.Context, c *acl.CatalogClient) error {
				if err := c.Delete(ctx, id); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "deleted quote %d\n", id)
				return nil
			})
		},
	}
}

func newSearchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search quote titles, descriptions and categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *acl.CatalogClient) error {
				quotes, err := c.Search(ctx, args[0])
				if err != nil {
					return err
				}

				return printQuotes(cmd.OutOrStdout(), opts.json, quotes)
			})
		},
	}
}

func newTagsCmd(opts *options) *cobra.Command {
	var popular int

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags in use",
		Long: `List every distinct tag, or the most used ones with --popular.

Examples:
  quotectl tags
  quotectl tags --popular 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, c *acl.CatalogClient) error {
				if popular > 0 {
					counts, err := c.PopularTags(ctx, popular)
					if err != nil {
						return err
					}

					return printTagCounts(cmd.OutOrStdout(), opts.json, counts)
				}

				tags, err := c.Tags(ctx)
				if err != nil {
					return err
				}

				return printLines(cmd.OutOrStdout(), opts.json, tags)
			})
		},
	}

	cmd.Flags().IntVar(&popular, "popular", 0, "show the N most used tags with counts")

	return cmd
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count quotes per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, c *acl.CatalogClient) error {
				stats, err := c.StatusStats(ctx)
				if err != nil {
					return err
				}

				return printStats(cmd.OutOrStdout(), opts.json, stats)
			})
		},
	}
}

func newArchiveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Archive every inactive quote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, c *acl.CatalogClient) error {
				n, err := c.ArchiveInactive(ctx)
				if err != nil {
					return err
				}

				if opts.json {
					return writeJSON(cmd.OutOrStdout(), map[string]int{"archived": n})
				}

				fmt.Fprintf(cmd.OutOrStdout(), "archived %d quotes\n", n)
				return nil
			})
		},
	}
}

func newImportCmd(opts *options) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import random quotes from the service's remote source",
		Long: `Ask the service to fetch and store random quotes from its remote
source. The service must run with quotes.import.enabled.

Examples:
  quotectl import --count 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, c *acl.CatalogClient) error {
				quotes, err := c.Import(ctx, count)
				if err != nil {
					return err
				}

				return printQuotes(cmd.OutOrStdout(), opts.json, quotes)
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of quotes to import")

	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationErrorWithValue("id", "must be a positive integer", s)
	}

	return id, nil
}
