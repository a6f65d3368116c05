package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thesavant42/wayback-tweets/internal/api"
	"github.com/thesavant42/wayback-tweets/internal/models"
	"github.com/thesavant42/wayback-tweets/internal/ui"
)

// NewQueryCmd creates the query command, a debugging aid that shows the
// exact CDX request and the raw rows without caching or rendering anything.
func NewQueryCmd(root *rootOptions) *cobra.Command {
	var (
		params models.QueryParameters
		raw    bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "query <username>",
		Short: "Print the CDX request for an account and the rows it returns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ui.ValidateUsername(args[0]); err != nil {
				return err
			}
			params.Username = ui.NormalizeUsername(args[0])

			e, err := root.setup(cmd)
			if err != nil {
				return err
			}

			client := api.NewWaybackClient(e.logger,
				api.WithEndpoint(e.cfg.IndexURL),
				api.WithService(e.cfg.Service),
				api.WithUserAgent(e.cfg.UserAgent),
				api.WithTimeout(e.cfg.Timeout),
				api.WithDiagnostics(ui.NewConsoleDiagnostics(cmd.ErrOrStderr(), "")),
			)

			fmt.Fprintf(e.out, "Query: %s\n", client.RequestURL(params))
			if dryRun {
				return nil
			}

			rows := client.FetchTweets(cmd.Context(), params)
			if rows == nil {
				return fmt.Errorf("no data returned for @%s", params.Username)
			}

			fmt.Fprintf(e.out, "Header: %v\n", rows.Header())
			fmt.Fprintf(e.out, "Rows: %d\n", len(rows.DataRows()))
			if raw {
				enc := json.NewEncoder(e.out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&params.Collapse, "collapse", "", "Collapse adjacent captures on a CDX field")
	cmd.Flags().StringVar(&params.From, "from", "", "Earliest capture timestamp")
	cmd.Flags().StringVar(&params.To, "to", "", "Latest capture timestamp")
	cmd.Flags().IntVarP(&params.Limit, "limit", "l", 0, "Maximum number of captures")
	cmd.Flags().IntVar(&params.Offset, "offset", 0, "Number of captures to skip")
	cmd.Flags().BoolVar(&raw, "raw", false, "Dump the decoded rows as JSON")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only print the request URL")

	return cmd
}
