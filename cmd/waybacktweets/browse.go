package main

import (
	"github.com/spf13/cobra"

	"github.com/thesavant42/wayback-tweets/internal/ui"
)

// NewBrowseCmd creates the browse command.
func NewBrowseCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [username]",
		Short: "Browse cached captures in an interactive table",
		Long: `Browse opens a terminal UI over the local cache. Without a username it
starts on the list of cached accounts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := ""
			if len(args) == 1 {
				if err := ui.ValidateUsername(args[0]); err != nil {
					return err
				}
				username = ui.NormalizeUsername(args[0])
			}

			e, err := root.setup(cmd)
			if err != nil {
				return err
			}
			if err := e.openDB(); err != nil {
				return err
			}
			defer e.Close()

			return ui.RunTweetBrowser(e.logger, e.database, username, e.cfg.OutputDir)
		},
	}
}
