package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thesavant42/wayback-tweets/internal/models"
	"github.com/thesavant42/wayback-tweets/internal/report"
	"github.com/thesavant42/wayback-tweets/internal/ui"
)

// renderOptions holds the render command flags
type renderOptions struct {
	input     string
	output    string
	outputDir string
	format    string
}

// NewRenderCmd creates the render command.
func NewRenderCmd(root *rootOptions) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <username>",
		Short: "Render cached or saved captures without querying the archive",
		Long: `Render writes a report from records that are already available: either
the local cache filled by fetch, or a JSON records file written by
fetch --json.`,
		Example: `  waybacktweets render jack
  waybacktweets render jack --input jack_tweets.json --format markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ui.ValidateUsername(args[0]); err != nil {
				return err
			}
			username := ui.NormalizeUsername(args[0])

			e, err := root.setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			return runRender(e, username, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "JSON records file (default: read from the cache)")
	cmd.Flags().StringVar(&opts.output, "output", "", "Output file (default <output-dir>/<username>_tweets.<ext>)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for the report (overrides output_dir)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "html", "Output format: html, markdown or json")

	return cmd
}

func runRender(e *env, username string, opts *renderOptions) error {
	records, err := loadRecords(e, username, opts.input)
	if err != nil {
		return err
	}

	var document, ext string
	switch strings.ToLower(opts.format) {
	case "html":
		document, err = report.Render(records, username)
		ext = "html"
	case "markdown", "md":
		document, err = report.RenderMarkdownRecords(records, username)
		ext = "md"
	case "json":
		var buf bytes.Buffer
		err = models.EncodeArchivedTweets(&buf, records)
		document, ext = buf.String(), "json"
	default:
		return fmt.Errorf("unsupported format %q (want html, markdown or json)", opts.format)
	}
	if err != nil {
		return err
	}

	path := opts.output
	if path == "" {
		dir := e.cfg.OutputDir
		if opts.outputDir != "" {
			dir = opts.outputDir
		}
		path = reportPath(dir, username, ext)
	}

	if err := report.Save(document, path); err != nil {
		return err
	}

	e.logger.Debug("rendered report", "username", username, "records", len(records), "path", path)
	fmt.Fprintf(e.out, "Wrote %d captures to %s\n", len(records), path)
	return nil
}

// loadRecords reads a JSON records file, or the cache when input is empty
func loadRecords(e *env, username, input string) ([]models.ArchivedTweet, error) {
	if input != "" {
		f, err := os.Open(input)
		if err != nil {
			return nil, fmt.Errorf("failed to open records file: %w", err)
		}
		defer f.Close()
		return models.DecodeArchivedTweets(f)
	}

	if err := e.openDB(); err != nil {
		return nil, err
	}
	records, err := e.database.GetArchivedTweets(username)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no cached captures for @%s; run `waybacktweets fetch %s` first", username, username)
	}
	return records, nil
}
