package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/thesavant42/wayback-tweets/internal/config"
	"github.com/thesavant42/wayback-tweets/internal/db"
	"github.com/thesavant42/wayback-tweets/internal/models"
	"github.com/thesavant42/wayback-tweets/internal/ui"
)

// rootOptions holds the persistent flags shared by every subcommand
type rootOptions struct {
	verbose    bool
	configPath string
	dbPath     string
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "waybacktweets",
		Short: "Retrieve archived tweets from the Wayback Machine",
		Long: `waybacktweets queries the Wayback Machine CDX index for every archived
capture of an account's tweet URLs, caches the results locally and renders
them as a self-contained HTML report.

Settings come from .waybacktweets.yaml, WAYBACKTWEETS_* environment
variables or a .env file; flags take precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default .waybacktweets.yaml)")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Path to the SQLite cache (overrides db_path)")

	cmd.AddCommand(NewFetchCmd(opts))
	cmd.AddCommand(NewQueryCmd(opts))
	cmd.AddCommand(NewRenderCmd(opts))
	cmd.AddCommand(NewBrowseCmd(opts))
	cmd.AddCommand(NewCacheCmd(opts))

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

// env bundles what a subcommand needs once flags are parsed
type env struct {
	cfg      *config.Config
	logger   *log.Logger
	database *db.DB
	out      io.Writer
}

// setup loads configuration and builds the logger
func (o *rootOptions) setup(cmd *cobra.Command) (*env, error) {
	logger := newLogger(o.verbose, cmd.ErrOrStderr())

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}

	logger.Debug("loaded config",
		"db", cfg.DBPath,
		"index", cfg.IndexURL,
		"service", cfg.Service,
		"timeout", cfg.Timeout,
		"concurrency", cfg.Concurrency,
	)

	return &env{cfg: cfg, logger: logger, out: cmd.OutOrStdout()}, nil
}

// openDB opens the cache; commands that never touch it skip this
func (e *env) openDB() error {
	database, err := db.New(e.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	e.database = database
	return nil
}

// Close releases the cache if it was opened
func (e *env) Close() error {
	if e.database == nil {
		return nil
	}
	return e.database.Close()
}

func newLogger(verbose bool, w io.Writer) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: verbose,
		Prefix:          "waybacktweets",
	})
}

// resolveUsernames normalizes and dedupes the given names, prompting for
// one when none were passed
func resolveUsernames(args []string) ([]string, error) {
	if len(args) == 0 {
		username, err := ui.PromptForUsername()
		if err != nil {
			return nil, err
		}
		args = []string{username}
	}

	seen := make(map[string]bool, len(args))
	usernames := make([]string, 0, len(args))
	for _, arg := range args {
		if err := ui.ValidateUsername(arg); err != nil {
			return nil, err
		}
		name := ui.NormalizeUsername(arg)
		if seen[name] {
			continue
		}
		seen[name] = true
		usernames = append(usernames, name)
	}
	if len(usernames) == 0 {
		return nil, models.ErrEmptyUsername
	}
	return usernames, nil
}
