// Package cli implements newsctl, a command line client for the news data layer.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/NewsFlow/internal/domain"
	"github.com/NewsFlow/internal/infra/newsapi"
	"github.com/NewsFlow/pkg/config"
	"github.com/spf13/cobra"
)

// Purger clears cached responses; an empty key clears everything.
type Purger interface {
	Purge(ctx context.Context, key string) error
}

// Services is what the commands run against.
type Services struct {
	News  domain.NewsReader
	Cache Purger
	Close func() error
}

// ServiceFactory builds Services from the loaded configuration.
type ServiceFactory func(cfg *config.Config) (*Services, error)

type rootOptions struct {
	asJSON  bool
	timeout time.Duration
	baseURL string
}

type paging struct {
	page  int
	limit int
}

// NewRootCmd assembles newsctl. Configuration comes from the environment, flags
// override it.
func NewRootCmd(build ServiceFactory) *cobra.Command {
	opts := &rootOptions{}
	var svc *Services

	root := &cobra.Command{
		Use:           "newsctl",
		Short:         "Query the news API through the caching data layer.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if opts.baseURL != "" {
				cfg.BaseURL = strings.TrimRight(opts.baseURL, "/")
			}
			var err error
			svc, err = build(cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if svc != nil && svc.Close != nil {
				return svc.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print raw JSON instead of a listing")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", time.Minute, "overall deadline for the command")
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "news API base URL (overrides environment)")

	// Each command owns its paging so defaults do not leak between commands
	pagingFlags := func(cmd *cobra.Command, defaultLimit int) *paging {
		p := &paging{}
		cmd.Flags().IntVar(&p.page, "page", 1, "page number, starting at 1")
		cmd.Flags().IntVar(&p.limit, "limit", defaultLimit, "page size")
		return p
	}

	var categories []string
	var newsPaging, latestPaging, sourcePaging *paging

	newsCmd := &cobra.Command{
		Use:   "news",
		Short: "List news, optionally filtered by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			page, err := svc.News.FetchNews(ctx, categories, newsPaging.page, newsPaging.limit)
			if err != nil {
				return friendly(err)
			}
			return printPage(cmd.OutOrStdout(), page, opts.asJSON)
		},
	}
	newsPaging = pagingFlags(newsCmd, 50)
	newsCmd.Flags().StringSliceVar(&categories, "category", nil, "category filter (repeatable or comma separated)")

	latestCmd := &cobra.Command{
		Use:   "latest",
		Short: "List the latest news",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			page, err := svc.News.FetchLatestNews(ctx, latestPaging.page, latestPaging.limit)
			if err != nil {
				return friendly(err)
			}
			return printPage(cmd.OutOrStdout(), page, opts.asJSON)
		},
	}
	latestPaging = pagingFlags(latestCmd, 50)

	articleCmd := &cobra.Command{
		Use:   "article <id>",
		Short: "Show a single article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			result, err := svc.News.FetchNewsByID(ctx, args[0])
			if err != nil {
				return friendly(err)
			}
			return printArticle(cmd.OutOrStdout(), result, opts.asJSON)
		},
	}

	sourceCmd := &cobra.Command{
		Use:   "source <name>",
		Short: "List news from one source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			page, err := svc.News.FetchNewsBySource(ctx, args[0], sourcePaging.page, sourcePaging.limit)
			if err != nil {
				return friendly(err)
			}
			return printPage(cmd.OutOrStdout(), page, opts.asJSON)
		},
	}
	sourcePaging = pagingFlags(sourceCmd, 20)

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached responses",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear [key]",
		Short: "Clear one cached response, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			if err := svc.Cache.Purge(cmd.Context(), key); err != nil {
				return fmt.Errorf("cache cleared locally, broadcast failed: %w", err)
			}
			if key == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", key)
			}
			return nil
		},
	})

	root.AddCommand(newsCmd, latestCmd, articleCmd, sourceCmd, cacheCmd)
	return root
}

func friendly(err error) error {
	return fmt.Errorf("%s: %w", newsapi.UserMessage(err), err)
}

func printPage(w io.Writer, page *domain.NewsPage, asJSON bool) error {
	if asJSON {
		return writeJSON(w, struct {
			*domain.NewsPage
			IsMockData bool `json:"isMockData,omitempty"`
		}{page, page.IsMock()})
	}

	if page.IsMock() {
		fmt.Fprintln(w, "Showing sample content, the news API is unavailable.")
	}
	fmt.Fprintf(w, "Page %d (limit %d), %d total\n", page.Page, page.Limit, page.Total)
	for _, a := range page.Results {
		fmt.Fprintf(w, "%-24s %s | %s | %s\n", a.ID, a.Title, a.Source, a.PublishedAt.Format(time.RFC3339))
	}
	return nil
}

func printArticle(w io.Writer, result *domain.ArticleResult, asJSON bool) error {
	mock := result.Provenance == domain.ProvenanceMock
	if asJSON {
		return writeJSON(w, struct {
			domain.Article
			IsMockData bool `json:"isMockData,omitempty"`
		}{result.Article, mock})
	}

	a := result.Article
	if mock {
		fmt.Fprintln(w, "Showing sample content, the news API is unavailable.")
	}
	fmt.Fprintf(w, "%s\n%s | %s | %s\n\n%s\n\n%s\n", a.Title, a.Source, a.Category, a.PublishedAt.Format(time.RFC3339), a.Description, a.Content)
	if a.URL != "" {
		fmt.Fprintln(w, a.URL)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
