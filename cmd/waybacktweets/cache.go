package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/thesavant42/wayback-tweets/internal/ui"
)

// NewCacheCmd creates the cache command and its subcommands.
func NewCacheCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or prune the local capture cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached accounts with their last fetch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := root.setup(cmd)
			if err != nil {
				return err
			}
			if err := e.openDB(); err != nil {
				return err
			}
			defer e.Close()

			users, err := e.database.GetCachedUsernames()
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(e.out, "No cached accounts.")
				return nil
			}

			for _, u := range users {
				line := fmt.Sprintf("@%s\t%s captures", u.Username, humanize.Comma(int64(u.RecordCount)))
				entry, err := e.database.GetFetchLog(u.Username)
				if err != nil {
					return err
				}
				if entry != nil {
					status := "ok"
					if !entry.Succeeded {
						status = "failed"
					}
					line += fmt.Sprintf("\tlast fetch %s (%s)", humanize.Time(entry.UpdatedAt), status)
				}
				fmt.Fprintln(e.out, line)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <username>",
		Short: "Delete every cached capture of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ui.ValidateUsername(args[0]); err != nil {
				return err
			}
			username := ui.NormalizeUsername(args[0])

			e, err := root.setup(cmd)
			if err != nil {
				return err
			}
			if err := e.openDB(); err != nil {
				return err
			}
			defer e.Close()

			if err := e.database.DeleteArchivedTweets(username); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Deleted cached captures for @%s\n", username)
			return nil
		},
	})

	return cmd
}
