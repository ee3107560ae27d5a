// Package cli implements serpq, a command-line client of the serpdex search API.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/serpdex/internal/version"
	"github.com/kailas-cloud/serpdex/pkg/client"
)

const (
	defaultServer = "http://localhost:8080"
	maxTextWidth  = 240
)

type options struct {
	server  string
	timeout time.Duration

	broad        int
	deduped      int
	hierarchical int
	final        int
	filters      []string

	jsonOutput bool
	quiet      bool
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the serpq command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "serpq [query]",
		Short: "Query a serpdex server and print ranked results",
		Long: `serpq sends a query through the serpdex ranking pipeline:
broad vector search, URL dedup, best-chunk rerank and optional domain authority rerank.

Prints one result per line as score, URL and title, followed by the matching passage.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runSearch(cmd, opts, args[0])
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.server, "server", envOr("SERPDEX_URL", defaultServer), "serpdex base URL")
	pf.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")

	f := root.Flags()
	f.IntVar(&opts.broad, "broad", 0, "Broad search candidates (server default when 0)")
	f.IntVar(&opts.deduped, "deduped", 0, "Unique URLs passed to chunk rerank (server default when 0)")
	f.IntVar(&opts.hierarchical, "hierarchical", 0, "Results kept after chunk rerank (server default when 0)")
	f.IntVarP(&opts.final, "limit", "n", 0, "Final number of results (server default when 0)")
	f.StringSliceVarP(&opts.filters, "filter", "f", nil, "Keep URLs containing any of these substrings")
	f.BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Print URLs only")

	root.AddCommand(newHealthCmd(opts), newVersionCmd())
	return root
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server dependency health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			h, herr := c.Health(cmd.Context())
			out := cmd.OutOrStdout()
			if h.Status != "" {
				fmt.Fprintf(out, "status: %s\n", h.Status)
				for _, name := range []string{"vector_index", "chunk_store", "embedding"} {
					if v, ok := h.Checks[name]; ok {
						fmt.Fprintf(out, "  %-13s %s\n", name, v)
					}
				}
			}
			return herr
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "serpq %s (%s, %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

func runSearch(cmd *cobra.Command, opts *options, query string) error {
	c, err := newClient(opts)
	if err != nil {
		return err
	}

	q := client.Query{Text: query, URLContains: opts.filters}
	q.BroadLimit = positive(opts.broad)
	q.DedupedLimit = positive(opts.deduped)
	q.HierarchicalLimit = positive(opts.hierarchical)
	q.FinalLimit = positive(opts.final)

	results, err := c.Search(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return printResults(cmd.OutOrStdout(), results, opts)
}

func printResults(w io.Writer, results []client.Result, opts *options) error {
	if opts.jsonOutput {
		if results == nil {
			results = []client.Result{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results) //nolint:wrapcheck // writer error
	}

	if len(results) == 0 {
		if !opts.quiet {
			fmt.Fprintln(w, "No results found")
		}
		return nil
	}

	for i, r := range results {
		if opts.quiet {
			fmt.Fprintln(w, r.URL)
			continue
		}
		title := ""
		if r.Title != nil {
			title = *r.Title
		}
		fmt.Fprintf(w, "%2d. %.4f  %s  %s\n", i+1, r.Score, r.URL, title)
		if text := oneLine(r.Text); text != "" {
			fmt.Fprintf(w, "    %s\n", text)
		}
	}
	return nil
}

func newClient(opts *options) (*client.Client, error) {
	c, err := client.New(opts.server, client.WithTimeout(opts.timeout))
	if err != nil {
		return nil, err //nolint:wrapcheck // already prefixed by the client
	}
	return c, nil
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxTextWidth {
		s = s[:maxTextWidth-3] + "..."
	}
	return s
}

func positive(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
