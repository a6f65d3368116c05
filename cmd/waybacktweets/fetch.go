package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thesavant42/wayback-tweets/internal/api"
	"github.com/thesavant42/wayback-tweets/internal/models"
	"github.com/thesavant42/wayback-tweets/internal/report"
	"github.com/thesavant42/wayback-tweets/internal/tweets"
	"github.com/thesavant42/wayback-tweets/internal/ui"
)

// fetchOptions holds the fetch command flags
type fetchOptions struct {
	collapse  string
	from      string
	to        string
	limit     int
	offset    int
	outputDir string
	indexURL  string
	markdown  bool
	json      bool
}

// fetchResult summarizes one username's fetch
type fetchResult struct {
	records  int
	inserted int
	outputs  []string
}

// NewFetchCmd creates the fetch command.
func NewFetchCmd(root *rootOptions) *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch [username...]",
		Short: "Query the Wayback Machine and write an HTML report per account",
		Long: `Fetch queries the CDX index for every archived capture of
https://twitter.com/<username>/status/*, caches the captures and writes
<output-dir>/<username>_tweets.html.

Several usernames are fetched concurrently (see the concurrency setting).
With no username you are prompted for one.`,
		Example: `  waybacktweets fetch jack
  waybacktweets fetch jack --collapse urlkey --from 2006 --to 2010 --limit 50
  waybacktweets fetch jack biz --markdown --json -o reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			usernames, err := resolveUsernames(args)
			if err != nil {
				return err
			}

			e, err := root.setup(cmd)
			if err != nil {
				return err
			}
			if err := e.openDB(); err != nil {
				return err
			}
			defer e.Close()

			return runFetch(cmd.Context(), e, usernames, opts)
		},
	}

	cmd.Flags().StringVar(&opts.collapse, "collapse", "", "Collapse adjacent captures on a CDX field (e.g. urlkey, digest)")
	cmd.Flags().StringVar(&opts.from, "from", "", "Earliest capture timestamp (yyyyMMddhhmmss, any prefix)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Latest capture timestamp (yyyyMMddhhmmss, any prefix)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", 0, "Maximum number of captures (negative for the most recent)")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Number of captures to skip")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for reports (overrides output_dir)")
	cmd.Flags().StringVar(&opts.indexURL, "index-url", "", "CDX search endpoint (overrides index_url)")
	cmd.Flags().BoolVar(&opts.markdown, "markdown", false, "Also write a Markdown report")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Also write the normalized records as JSON")

	return cmd
}

// runFetch fetches every username, at most cfg.Concurrency at a time
func runFetch(ctx context.Context, e *env, usernames []string, opts *fetchOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.indexURL != "" {
		e.cfg.IndexURL = opts.indexURL
	}
	outputDir := e.cfg.OutputDir
	if opts.outputDir != "" {
		outputDir = opts.outputDir
	}

	normalizer := tweets.NewNormalizer(e.cfg.ArchiveBase, e.cfg.Service)
	single := len(usernames) == 1
	spin := single && isatty.IsTerminal(os.Stdout.Fd())

	var absent atomic.Int32

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for _, username := range usernames {
		g.Go(func() error {
			prefix := username
			if single {
				prefix = ""
			}

			res, err := fetchUser(ctx, e, normalizer, username, prefix, outputDir, opts, spin)
			if err != nil {
				return fmt.Errorf("@%s: %w", username, err)
			}
			if res == nil {
				absent.Add(1)
				return nil
			}
			ui.PrintSummary(username, res.records, res.inserted, res.outputs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if n := int(absent.Load()); n > 0 {
		return fmt.Errorf("%d of %d queries returned no data", n, len(usernames))
	}
	return nil
}

// fetchUser runs one query and writes its reports. A nil result with a nil
// error means the query failed and the client already reported why.
func fetchUser(ctx context.Context, e *env, normalizer *tweets.Normalizer, username, prefix, outputDir string, opts *fetchOptions, spin bool) (*fetchResult, error) {
	client := api.NewWaybackClient(e.logger,
		api.WithEndpoint(e.cfg.IndexURL),
		api.WithService(e.cfg.Service),
		api.WithUserAgent(e.cfg.UserAgent),
		api.WithTimeout(e.cfg.Timeout),
		api.WithDiagnostics(ui.NewConsoleDiagnostics(e.out, prefix)),
	)

	params := models.QueryParameters{
		Username: username,
		Collapse: opts.collapse,
		From:     opts.from,
		To:       opts.to,
		Limit:    opts.limit,
		Offset:   opts.offset,
	}

	var rows models.CDXRows
	query := func() { rows = client.FetchTweets(ctx, params) }
	if spin {
		if err := ui.RunWithSpinner(fmt.Sprintf("Querying archived tweets for @%s...", username), query); err != nil {
			return nil, err
		}
	} else {
		query()
	}

	if err := e.database.SaveFetchLog(username, client.RequestURL(params), len(rows.DataRows()), rows != nil); err != nil {
		e.logger.Warn("could not record fetch", "username", username, "err", err)
	}
	if rows == nil {
		return nil, nil
	}

	records, err := normalizer.Normalize(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		ui.PrintProgress(fmt.Sprintf("No archived tweets found for @%s", username))
		return &fetchResult{}, nil
	}

	inserted, err := e.database.InsertArchivedTweets(username, records)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("cached captures", "username", username, "records", len(records), "inserted", inserted)

	outputs, err := writeReports(records, username, outputDir, opts.markdown, opts.json)
	if err != nil {
		return nil, err
	}

	return &fetchResult{records: len(records), inserted: inserted, outputs: outputs}, nil
}

// writeReports writes the HTML report and any extra formats, returning the paths written
func writeReports(records []models.ArchivedTweet, username, outputDir string, markdown, json bool) ([]string, error) {
	var outputs []string

	document, err := report.Render(records, username)
	if err != nil {
		return nil, err
	}
	path := reportPath(outputDir, username, "html")
	if err := report.Save(document, path); err != nil {
		return nil, err
	}
	outputs = append(outputs, path)

	if markdown {
		document, err := report.RenderMarkdownRecords(records, username)
		if err != nil {
			return outputs, err
		}
		path := reportPath(outputDir, username, "md")
		if err := report.Save(document, path); err != nil {
			return outputs, err
		}
		outputs = append(outputs, path)
	}

	if json {
		var buf bytes.Buffer
		if err := models.EncodeArchivedTweets(&buf, records); err != nil {
			return outputs, err
		}
		path := reportPath(outputDir, username, "json")
		if err := report.Save(buf.String(), path); err != nil {
			return outputs, err
		}
		outputs = append(outputs, path)
	}

	return outputs, nil
}

// reportPath returns <dir>/<username>_tweets.<ext>
func reportPath(dir, username, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_tweets.%s", username, ext))
}
